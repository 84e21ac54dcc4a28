package timesheet

import (
	"time"

	"telegram-timesheet/internal/models"
)

// Summarize adds up work and pause time. Open periods count up to now and
// negative lengths count as zero.
func Summarize(periods []models.Period, now time.Time) models.Totals {
	var totals models.Totals
	for _, p := range periods {
		end := now
		if p.End != nil {
			end = *p.End
		}
		d := end.Sub(p.Start)
		if d < 0 {
			d = 0
		}
		switch p.Kind {
		case models.KindWork:
			totals.Work += d
		case models.KindPause:
			totals.Pause += d
		}
	}
	return totals
}
