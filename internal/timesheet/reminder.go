package timesheet

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"telegram-timesheet/internal/messages"
	"telegram-timesheet/internal/models"
)

// DueReminder is a pause that just crossed the reminder threshold.
type DueReminder struct {
	Pause   models.OpenPause
	Elapsed time.Duration
}

// ClaimDueReminders latches every open pause of today's paused sessions that
// has lasted at least threshold and was not reminded yet. Each pause is
// returned at most once over its lifetime.
func (s *Service) ClaimDueReminders(ctx context.Context, now time.Time, threshold time.Duration) ([]DueReminder, error) {
	if threshold <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pauses, err := s.db.ListOpenPauses(ctx, s.clock.Day(now))
	if err != nil {
		return nil, fmt.Errorf("claim reminders: %w", err)
	}

	var due []DueReminder
	for _, p := range pauses {
		elapsed := now.Sub(p.Start)
		if elapsed < threshold || p.LastReminderAt != nil {
			continue
		}
		claimed, err := s.db.ClaimReminder(ctx, p.PeriodID, now)
		if err != nil {
			return due, fmt.Errorf("claim reminders: %w", err)
		}
		if claimed {
			due = append(due, DueReminder{Pause: p, Elapsed: elapsed})
		}
	}
	return due, nil
}

// ReminderScanner nudges users who have been on a pause for too long.
type ReminderScanner struct {
	svc       *Service
	notifier  Notifier
	threshold time.Duration
	log       *zap.Logger
}

func NewReminderScanner(svc *Service, notifier Notifier, log *zap.Logger) *ReminderScanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderScanner{
		svc:       svc,
		notifier:  notifier,
		threshold: svc.opts.PauseReminder,
		log:       log.Named("reminder"),
	}
}

func (r *ReminderScanner) Enabled() bool { return r.threshold > 0 }

func (r *ReminderScanner) Tick(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	due, err := r.svc.ClaimDueReminders(ctx, r.svc.clock.Now(), r.threshold)
	for _, d := range due {
		if d.Pause.ChatID == 0 {
			continue
		}
		mention := messages.Mention(d.Pause.UserID, d.Pause.UserName)
		text := messages.PauseReminder(mention, int(d.Elapsed/time.Minute))
		if nerr := r.notifier.Notify(ctx, d.Pause.ChatID, text, nil); nerr != nil {
			r.log.Warn("pause reminder not delivered", zap.Int64("user", d.Pause.UserID), zap.Error(nerr))
			continue
		}
		r.log.Info("pause reminder sent", zap.Int64("user", d.Pause.UserID), zap.Duration("elapsed", d.Elapsed))
	}
	return err
}
