package messages

import (
	"html"
	"strconv"
	"strings"
	"time"

	"telegram-timesheet/internal/models"
)

type Field struct {
	Name  string
	Value string
}

// Card is the day summary shown after finish, on rollover and on status.
type Card struct {
	Title     string
	Author    string
	Fields    []Field
	Timeline  []string
	Timestamp time.Time
}

// DaySummary builds the card for a period ledger. Compact cards leave out the
// timeline.
func DaySummary(author string, periods []models.Period, totals models.Totals, loc *time.Location, now time.Time, compact bool) *Card {
	c := &Card{
		Title:  "Day summary",
		Author: author,
		Fields: []Field{
			{Name: "Work", Value: FormatDuration(totals.Work)},
			{Name: "Pause", Value: FormatDuration(totals.Pause)},
			{Name: "Periods", Value: strconv.Itoa(len(periods))},
		},
		Timestamp: now,
	}
	if compact {
		return c
	}
	for _, p := range periods {
		icon := "☕"
		if p.Kind == models.KindWork {
			icon = "💼"
		}
		end := "…"
		if p.End != nil {
			end = p.End.In(loc).Format("15:04")
		}
		c.Timeline = append(c.Timeline, icon+" "+p.Start.In(loc).Format("15:04")+"–"+end)
	}
	return c
}

// HTML renders the card for Telegram's HTML parse mode.
func (c *Card) HTML() string {
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(c.Title) + "</b>")
	if c.Author != "" {
		b.WriteString(" · " + html.EscapeString(c.Author))
	}
	b.WriteString("\n")
	for _, f := range c.Fields {
		b.WriteString(html.EscapeString(f.Name) + ": <code>" + html.EscapeString(f.Value) + "</code>\n")
	}
	if len(c.Timeline) > 0 {
		b.WriteString("\n<b>Timeline</b>\n")
		for _, line := range c.Timeline {
			b.WriteString(html.EscapeString(line) + "\n")
		}
	}
	if !c.Timestamp.IsZero() {
		b.WriteString("\n<i>" + c.Timestamp.Format("2006-01-02 15:04") + "</i>")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Plain renders the card without markup, one field per line. Used for
// callback alerts which do not support formatting.
func (c *Card) Plain() string {
	lines := []string{c.Title}
	for _, f := range c.Fields {
		lines = append(lines, f.Name+": "+f.Value)
	}
	lines = append(lines, c.Timeline...)
	return strings.Join(lines, "\n")
}
