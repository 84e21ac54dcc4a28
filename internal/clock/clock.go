// Package clock supplies wall-clock time in the bot's fixed timezone.
package clock

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// DayLayout is the calendar-day key format used for sessions.
const DayLayout = "2006-01-02"

type Clock struct {
	base clockwork.Clock
	loc  *time.Location
}

func New(base clockwork.Clock, loc *time.Location) *Clock {
	if base == nil {
		base = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{base: base, loc: loc}
}

// Base returns the underlying clock so the scheduler ticks on the same time source.
func (c *Clock) Base() clockwork.Clock { return c.base }

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Now() time.Time { return c.base.Now().In(c.loc) }

func (c *Clock) Today() string { return c.Day(c.Now()) }

// Day returns the local calendar day of t.
func (c *Clock) Day(t time.Time) string { return t.In(c.loc).Format(DayLayout) }

// EndOfDay is 23:59:59 local time on day.
func (c *Clock) EndOfDay(day string) (time.Time, error) {
	d, err := time.ParseInLocation(DayLayout, day, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", day, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, c.loc), nil
}
