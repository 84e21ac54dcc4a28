package timesheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"telegram-timesheet/internal/messages"
	"telegram-timesheet/internal/models"
	"telegram-timesheet/internal/storage"
)

// RolledOver is one session closed by a rollover.
type RolledOver struct {
	Day  Day
	User *models.User
	// Next is the auto-started session of the following day, nil when none
	// was created.
	Next *models.Session
}

// Rollover finishes every active session of day at 23:59:59 local time and,
// when continueNext is set, opens a working session on today's date for each
// of their users. A day is only ever processed once; later calls return nil.
func (s *Service) Rollover(ctx context.Context, day string, now time.Time, continueNext bool) ([]RolledOver, error) {
	return s.rollover(ctx, day, now, continueNext, true)
}

// rollover with once unset still records the marker but processes whatever
// is active on day, so stale sessions created after a rollover get closed too.
func (s *Service) rollover(ctx context.Context, day string, now time.Time, continueNext, once bool) ([]RolledOver, error) {
	boundary, err := s.clock.EndOfDay(day)
	if err != nil {
		return nil, fmt.Errorf("rollover: %w", err)
	}
	today := s.clock.Day(now)
	startAt := now.Add(s.opts.ContinueDelay)

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []RolledOver
	err = s.db.InTx(ctx, func(q *storage.Queries) error {
		first, err := q.MarkRollover(ctx, day, now)
		if err != nil {
			return err
		}
		if !first && once {
			return nil
		}

		sessions, err := q.ListActiveSessions(ctx, day)
		if err != nil {
			return err
		}
		for i := range sessions {
			sess := &sessions[i]
			if _, err := q.CloseOpenPeriods(ctx, sess.ID, boundary); err != nil {
				return err
			}
			if err := q.FinishSession(ctx, sess.ID, boundary); err != nil {
				return err
			}
			sess.Status = models.StatusFinished
			sess.FinishedAt = &boundary

			d, err := s.day(ctx, q, sess, boundary)
			if err != nil {
				return err
			}
			user, err := q.GetUser(ctx, sess.UserID)
			if err != nil {
				return err
			}
			ro := RolledOver{Day: *d, User: user}

			if continueNext && today != day {
				ro.Next, err = continueDay(ctx, q, sess.UserID, today, startAt)
				if err != nil {
					return err
				}
			}
			result = append(result, ro)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rollover %s: %w", day, err)
	}
	return result, nil
}

// continueDay opens a working session with a running work period. Users who
// already touched the new day keep their session untouched.
func continueDay(ctx context.Context, q *storage.Queries, userID int64, date string, at time.Time) (*models.Session, error) {
	existing, err := q.GetSession(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}
	next, err := q.CreateSession(ctx, userID, date, models.StatusWorking, at)
	if err != nil {
		return nil, err
	}
	if _, err := q.OpenPeriod(ctx, next.ID, models.KindWork, at); err != nil {
		return nil, err
	}
	return next, nil
}

// Reconciler watches for calendar day changes and rolls the previous day over.
type Reconciler struct {
	svc      *Service
	notifier Notifier
	log      *zap.Logger

	mu      sync.Mutex
	lastDay string
}

func NewReconciler(svc *Service, notifier Notifier, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		svc:      svc,
		notifier: notifier,
		log:      log.Named("rollover"),
		lastDay:  svc.clock.Today(),
	}
}

// LastDay is the last calendar day the reconciler observed.
func (r *Reconciler) LastDay() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDay
}

// Tick rolls over the last observed day when the calendar day has changed,
// then catches up any older day still active, as after a suspended host
// skipped several midnights. The cursor moves before any work starts.
func (r *Reconciler) Tick(ctx context.Context) error {
	now := r.svc.clock.Now()
	today := r.svc.clock.Day(now)

	r.mu.Lock()
	prev := r.lastDay
	if prev == today {
		r.mu.Unlock()
		return nil
	}
	r.lastDay = today
	r.mu.Unlock()

	r.log.Info("day changed", zap.String("from", prev), zap.String("to", today))
	rolled, err := r.svc.Rollover(ctx, prev, now, r.svc.opts.AutoContinue)
	if err != nil {
		return err
	}
	r.announce(ctx, prev, rolled)
	return r.CatchUp(ctx)
}

// CatchUp finishes sessions left active on days before today, which happens
// when the process was down across midnight. No new sessions are started.
func (r *Reconciler) CatchUp(ctx context.Context) error {
	now := r.svc.clock.Now()
	days, err := r.svc.db.ListActiveDatesBefore(ctx, r.svc.clock.Day(now))
	if err != nil {
		return fmt.Errorf("catch up: %w", err)
	}
	for _, day := range days {
		marked, err := r.svc.db.RolloverDone(ctx, day)
		if err != nil {
			return fmt.Errorf("catch up: %w", err)
		}
		rolled, err := r.svc.rollover(ctx, day, now, false, false)
		if err != nil {
			return err
		}
		r.log.Info("caught up stale day", zap.String("day", day),
			zap.Int("sessions", len(rolled)), zap.Bool("rolled_before", marked))
		r.announce(ctx, day, rolled)
	}
	return nil
}

func (r *Reconciler) announce(ctx context.Context, day string, rolled []RolledOver) {
	loc := r.svc.clock.Location()
	for _, ro := range rolled {
		if ro.User == nil || ro.User.ChatID == 0 {
			continue
		}
		mention := messages.Mention(ro.User.ID, ro.User.Name)
		card := messages.DaySummary(ro.User.Name, ro.Day.Periods, ro.Day.Totals, loc, r.svc.clock.Now(), false)

		if err := r.notifier.Notify(ctx, ro.User.ChatID, messages.RolloverNotice(mention, day), card); err != nil {
			r.log.Warn("rollover summary not delivered", zap.Int64("user", ro.User.ID), zap.Error(err))
		}
		if ro.Next != nil {
			if err := r.notifier.Notify(ctx, ro.User.ChatID, messages.NewDayNotice(mention), nil); err != nil {
				r.log.Warn("new day notice not delivered", zap.Int64("user", ro.User.ID), zap.Error(err))
			}
		}
	}
}
