// Package timesheet is the session and period state machine together with the
// recurring jobs that reconcile it: the midnight rollover and pause reminders.
package timesheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"telegram-timesheet/internal/clock"
	"telegram-timesheet/internal/messages"
	"telegram-timesheet/internal/models"
	"telegram-timesheet/internal/storage"
)

type Options struct {
	// AutoContinue starts a working session for the new day on rollover.
	AutoContinue  bool
	ContinueDelay time.Duration
	// PauseReminder is the pause length after which the user is reminded.
	// Zero or negative disables reminders.
	PauseReminder time.Duration
}

// Outcome is the result of a transition as shown to the user. Err is set
// when the transition was rejected and matches ErrInvalidTransition.
type Outcome struct {
	OK      bool
	Message string
	Err     error
	Session *models.Session
}

func rejected(err *TransitionError) Outcome {
	return Outcome{OK: false, Message: err.Error(), Err: err}
}

type Service struct {
	db    *storage.DB
	clock *clock.Clock
	opts  Options
	log   *zap.Logger

	// mu serializes transitions, rollovers and reminder scans.
	mu sync.Mutex
}

func NewService(db *storage.DB, clk *clock.Clock, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, clock: clk, opts: opts, log: log.Named("timesheet")}
}

func (s *Service) Clock() *clock.Clock { return s.clock }

// Touch records the user's name and the chat they last interacted from.
func (s *Service) Touch(ctx context.Context, u *models.User) error {
	return s.db.UpsertUser(ctx, u)
}

// EnsureSession returns the user's session for date, creating a paused one
// without periods on first use.
func (s *Service) EnsureSession(ctx context.Context, userID int64, date string, now time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.EnsureSession(ctx, userID, date, now)
}

type transitionFunc func(ctx context.Context, q *storage.Queries, sess *models.Session, now time.Time) (Outcome, error)

// transition resolves the session and applies fn in one transaction. The
// instant passed to fn is never earlier than the start of the open period, so
// a press inside an auto-started day's delay lands on that period's start.
func (s *Service) transition(ctx context.Context, name string, userID int64, date string, now time.Time, fn transitionFunc) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Outcome
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		sess, err := q.EnsureSession(ctx, userID, date, now)
		if err != nil {
			return err
		}
		open, err := q.GetOpenPeriod(ctx, sess.ID)
		if err != nil {
			return err
		}
		at := now
		if open != nil && open.Start.After(at) {
			at = open.Start
		}
		out, err = fn(ctx, q, sess, at)
		return err
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", name, err)
	}

	if out.OK {
		s.log.Info("transition", zap.String("op", name), zap.Int64("user", userID), zap.String("date", date))
	} else {
		s.log.Debug("transition rejected", zap.String("op", name), zap.Int64("user", userID),
			zap.String("date", date), zap.String("reason", out.Message))
	}
	return out, nil
}

// Start opens a work period, closing an open pause first.
func (s *Service) Start(ctx context.Context, userID int64, date string, now time.Time) (Outcome, error) {
	return s.transition(ctx, "start", userID, date, now, func(ctx context.Context, q *storage.Queries, sess *models.Session, now time.Time) (Outcome, error) {
		switch sess.Status {
		case models.StatusFinished:
			return rejected(ErrAlreadyFinished), nil
		case models.StatusWorking:
			return rejected(ErrAlreadyWorking), nil
		}

		open, err := q.GetOpenPeriod(ctx, sess.ID)
		if err != nil {
			return Outcome{}, err
		}
		if open != nil && open.Kind == models.KindWork {
			return rejected(ErrWorkPeriodOpen), nil
		}
		if open != nil {
			if _, err := q.CloseOpenPeriods(ctx, sess.ID, now); err != nil {
				return Outcome{}, err
			}
		}
		if err := switchTo(ctx, q, sess, models.KindWork, models.StatusWorking, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Message: messages.Started, Session: sess}, nil
	})
}

// Pause closes the work period and opens a pause.
func (s *Service) Pause(ctx context.Context, userID int64, date string, now time.Time) (Outcome, error) {
	return s.transition(ctx, "pause", userID, date, now, func(ctx context.Context, q *storage.Queries, sess *models.Session, now time.Time) (Outcome, error) {
		if sess.Status != models.StatusWorking {
			return rejected(ErrNotWorking), nil
		}
		if _, err := q.CloseOpenPeriods(ctx, sess.ID, now); err != nil {
			return Outcome{}, err
		}
		if err := switchTo(ctx, q, sess, models.KindPause, models.StatusPaused, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Message: messages.Paused, Session: sess}, nil
	})
}

// Resume closes the pause and opens a work period.
func (s *Service) Resume(ctx context.Context, userID int64, date string, now time.Time) (Outcome, error) {
	return s.transition(ctx, "resume", userID, date, now, func(ctx context.Context, q *storage.Queries, sess *models.Session, now time.Time) (Outcome, error) {
		if sess.Status != models.StatusPaused {
			return rejected(ErrNotPaused), nil
		}
		if _, err := q.CloseOpenPeriods(ctx, sess.ID, now); err != nil {
			return Outcome{}, err
		}
		if err := switchTo(ctx, q, sess, models.KindWork, models.StatusWorking, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Message: messages.Resumed, Session: sess}, nil
	})
}

// Finish closes whatever is open and ends the day. The returned outcome
// carries the finalized session.
func (s *Service) Finish(ctx context.Context, userID int64, date string, now time.Time) (Outcome, error) {
	return s.transition(ctx, "finish", userID, date, now, func(ctx context.Context, q *storage.Queries, sess *models.Session, now time.Time) (Outcome, error) {
		if sess.Status == models.StatusFinished {
			return rejected(ErrAlreadyFinished), nil
		}
		if _, err := q.CloseOpenPeriods(ctx, sess.ID, now); err != nil {
			return Outcome{}, err
		}
		if err := q.FinishSession(ctx, sess.ID, now); err != nil {
			return Outcome{}, err
		}
		final, err := q.GetSessionByID(ctx, sess.ID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Message: messages.Finished, Session: final}, nil
	})
}

func switchTo(ctx context.Context, q *storage.Queries, sess *models.Session, kind models.Kind, status models.Status, now time.Time) error {
	if _, err := q.OpenPeriod(ctx, sess.ID, kind, now); err != nil {
		return err
	}
	if err := q.SetSessionStatus(ctx, sess.ID, status); err != nil {
		return err
	}
	sess.Status = status
	return nil
}

// Day is a session with its ledger and totals at the time of the query.
type Day struct {
	Session *models.Session
	Periods []models.Period
	Totals  models.Totals
}

// Status ensures the session for date and returns it with live totals.
func (s *Service) Status(ctx context.Context, userID int64, date string, now time.Time) (*Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.db.EnsureSession(ctx, userID, date, now)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return s.day(ctx, s.db.Queries, sess, now)
}

// Periods returns the ledger of a session.
func (s *Service) Periods(ctx context.Context, sessionID int64) ([]models.Period, error) {
	return s.db.ListPeriods(ctx, sessionID)
}

func (s *Service) day(ctx context.Context, q *storage.Queries, sess *models.Session, now time.Time) (*Day, error) {
	periods, err := q.ListPeriods(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return &Day{Session: sess, Periods: periods, Totals: Summarize(periods, now)}, nil
}
