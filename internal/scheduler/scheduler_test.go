package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEveryRunsTask(t *testing.T) {
	sc, err := New(nil, time.UTC, zaptest.NewLogger(t))
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, sc.Every("counter", 20*time.Millisecond, TaskFunc(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})))

	var failures atomic.Int32
	require.NoError(t, sc.Every("failing", 20*time.Millisecond, TaskFunc(func(ctx context.Context) error {
		failures.Add(1)
		return errors.New("store unavailable")
	})))

	sc.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return failures.Load() >= 2 }, 2*time.Second, 10*time.Millisecond,
		"a failing task stays scheduled")
	require.NoError(t, sc.Shutdown())
}

func TestShutdownCancelsTaskContext(t *testing.T) {
	sc, err := New(nil, nil, nil)
	require.NoError(t, err)

	started := make(chan struct{})
	var once atomic.Bool
	cancelled := make(chan struct{})
	require.NoError(t, sc.Every("blocking", 10*time.Millisecond, TaskFunc(func(ctx context.Context) error {
		if !once.CompareAndSwap(false, true) {
			return nil
		}
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})))

	sc.Start()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task never started")
	}
	require.NoError(t, sc.Shutdown())

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("task context was not cancelled")
	}
}

func TestEveryRejectsInvalidInterval(t *testing.T) {
	sc, err := New(nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	err = sc.Every("broken", 0, TaskFunc(func(context.Context) error { return nil }))
	assert.Error(t, err)
}
