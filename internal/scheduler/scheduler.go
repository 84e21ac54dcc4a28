package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Task is a recurring job. An error is logged and the job keeps its schedule.
type Task interface {
	Tick(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Tick(ctx context.Context) error { return f(ctx) }

// Scheduler runs named tasks on fixed intervals. Each run gets a context that
// is cancelled by Shutdown.
type Scheduler struct {
	s      gocron.Scheduler
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(clock clockwork.Clock, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	if loc != nil {
		opts = append(opts, gocron.WithLocation(loc))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{s: s, log: log.Named("scheduler"), ctx: ctx, cancel: cancel}, nil
}

// Every registers task to run every interval. Runs of the same task never
// overlap; a run that is still busy when the next one is due is skipped.
func (sc *Scheduler) Every(name string, interval time.Duration, task Task) error {
	_, err := sc.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := task.Tick(sc.ctx); err != nil {
				sc.log.Error("job failed", zap.String("job", name), zap.Error(err))
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	sc.log.Info("job registered", zap.String("job", name), zap.Duration("every", interval))
	return nil
}

func (sc *Scheduler) Start() { sc.s.Start() }

// Shutdown cancels running tasks and waits for them to return.
func (sc *Scheduler) Shutdown() error {
	sc.cancel()
	if err := sc.s.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	return nil
}
