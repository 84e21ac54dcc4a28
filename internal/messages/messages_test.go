package messages

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telegram-timesheet/internal/models"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:00"},
		{45 * time.Minute, "00:45"},
		{8*time.Hour + 5*time.Minute + 30*time.Second, "08:05"},
		{26 * time.Hour, "26:00"},
		{-time.Minute, "00:00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatDuration(c.in), c.in.String())
	}
}

func TestMentionEscapesName(t *testing.T) {
	assert.Equal(t, `<a href="tg://user?id=7">a&lt;b&gt;</a>`, Mention(7, "a<b>"))
	assert.Equal(t, `<a href="tg://user?id=7">user 7</a>`, Mention(7, ""))
}

func TestDaySummary(t *testing.T) {
	loc := time.UTC
	at := func(h, m int) time.Time { return time.Date(2025, 5, 8, h, m, 0, 0, loc) }
	end := func(h, m int) *time.Time { t := at(h, m); return &t }

	periods := []models.Period{
		{Kind: models.KindWork, Start: at(9, 0), End: end(9, 30)},
		{Kind: models.KindPause, Start: at(9, 30), End: end(9, 45)},
		{Kind: models.KindWork, Start: at(9, 45)},
	}
	totals := models.Totals{Work: 45 * time.Minute, Pause: 15 * time.Minute}

	full := DaySummary("alice", periods, totals, loc, at(10, 0), false)
	assert.Equal(t, []string{"💼 09:00–09:30", "☕ 09:30–09:45", "💼 09:45–…"}, full.Timeline)
	assert.Equal(t, Field{Name: "Work", Value: "00:45"}, full.Fields[0])
	assert.Equal(t, Field{Name: "Pause", Value: "00:15"}, full.Fields[1])
	assert.Equal(t, Field{Name: "Periods", Value: "3"}, full.Fields[2])

	html := full.HTML()
	assert.True(t, strings.HasPrefix(html, "<b>Day summary</b> · alice"))
	assert.Contains(t, html, "Work: <code>00:45</code>")
	assert.Contains(t, html, "<b>Timeline</b>")

	compact := DaySummary("alice", periods, totals, loc, at(10, 0), true)
	assert.Empty(t, compact.Timeline)
	assert.Equal(t, "Day summary\nWork: 00:45\nPause: 00:15\nPeriods: 3", compact.Plain())
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "✅ Work started.", StripTags(Started))
}
