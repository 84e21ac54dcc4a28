package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-timesheet/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2025, 5, 8, 9, 0, 0, 0, time.UTC)

func TestUpsertAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u, err := db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u, "unknown user")

	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 42, Name: "alice", ChatID: 100, UpdatedAt: t0}))
	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 42, Name: "alice", ChatID: 200, UpdatedAt: t0}))

	u, err = db.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(200), u.ChatID, "last chat wins")
	assert.Equal(t, t0.Unix(), u.UpdatedAt.Unix())
}

func TestEnsureSessionIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, err := db.EnsureSession(ctx, 1, "2025-05-08", t0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, first.Status)
	assert.Nil(t, first.FinishedAt)

	second, err := db.EnsureSession(ctx, 1, "2025-05-08", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, t0.Unix(), second.CreatedAt.Unix(), "creation time is not overwritten")

	other, err := db.EnsureSession(ctx, 1, "2025-05-09", t0)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateSessionRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateSession(ctx, 1, "2025-05-08", models.StatusWorking, t0)
	require.NoError(t, err)
	_, err = db.CreateSession(ctx, 1, "2025-05-08", models.StatusWorking, t0)
	assert.Error(t, err)
}

func TestSingleOpenPeriodPerSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s, err := db.EnsureSession(ctx, 1, "2025-05-08", t0)
	require.NoError(t, err)

	_, err = db.OpenPeriod(ctx, s.ID, models.KindWork, t0)
	require.NoError(t, err)
	_, err = db.OpenPeriod(ctx, s.ID, models.KindPause, t0.Add(time.Minute))
	assert.Error(t, err, "second open period must violate the partial index")

	n, err := db.CloseOpenPeriods(ctx, s.ID, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.OpenPeriod(ctx, s.ID, models.KindPause, t0.Add(30*time.Minute))
	require.NoError(t, err)

	open, err := db.GetOpenPeriod(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, models.KindPause, open.Kind)

	periods, err := db.ListPeriods(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, models.KindWork, periods[0].Kind)
	require.NotNil(t, periods[0].End)
	assert.Equal(t, t0.Add(30*time.Minute).Unix(), periods[0].End.Unix())
	assert.True(t, periods[1].IsOpen())
}

func TestCloseOpenPeriodsNeverEndsBeforeStart(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s, err := db.EnsureSession(ctx, 1, "2025-05-08", t0)
	require.NoError(t, err)
	_, err = db.OpenPeriod(ctx, s.ID, models.KindWork, t0.Add(5*time.Second))
	require.NoError(t, err)

	_, err = db.CloseOpenPeriods(ctx, s.ID, t0)
	require.NoError(t, err)

	periods, err := db.ListPeriods(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, periods[0].Start, *periods[0].End)
}

func TestInTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.InTx(ctx, func(q *Queries) error {
		s, err := q.EnsureSession(ctx, 1, "2025-05-08", t0)
		if err != nil {
			return err
		}
		if _, err := q.OpenPeriod(ctx, s.ID, models.KindWork, t0); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	s, err := db.GetSession(ctx, 1, "2025-05-08")
	require.NoError(t, err)
	assert.Nil(t, s, "nothing from the failed transaction is visible")
}

func TestListActiveSessionsAndDates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateSession(ctx, 1, "2025-05-07", models.StatusWorking, t0)
	require.NoError(t, err)
	_, err = db.CreateSession(ctx, 2, "2025-05-07", models.StatusPaused, t0)
	require.NoError(t, err)
	done, err := db.CreateSession(ctx, 3, "2025-05-07", models.StatusWorking, t0)
	require.NoError(t, err)
	require.NoError(t, db.FinishSession(ctx, done.ID, t0))
	_, err = db.CreateSession(ctx, 1, "2025-05-08", models.StatusWorking, t0)
	require.NoError(t, err)

	active, err := db.ListActiveSessions(ctx, "2025-05-07")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].UserID)
	assert.Equal(t, int64(2), active[1].UserID)

	dates, err := db.ListActiveDatesBefore(ctx, "2025-05-08")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-05-07"}, dates)

	finished, err := db.GetSessionByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, finished.Status)
	require.NotNil(t, finished.FinishedAt)
}

func TestOpenPausesAndReminderLatch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 1, Name: "bob", ChatID: 77, UpdatedAt: t0}))
	s, err := db.EnsureSession(ctx, 1, "2025-05-08", t0)
	require.NoError(t, err)
	p, err := db.OpenPeriod(ctx, s.ID, models.KindPause, t0)
	require.NoError(t, err)

	// working sessions are ignored even with a stray open pause
	w, err := db.CreateSession(ctx, 2, "2025-05-08", models.StatusWorking, t0)
	require.NoError(t, err)
	_, err = db.OpenPeriod(ctx, w.ID, models.KindPause, t0)
	require.NoError(t, err)

	pauses, err := db.ListOpenPauses(ctx, "2025-05-08")
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	assert.Equal(t, p.ID, pauses[0].PeriodID)
	assert.Equal(t, int64(77), pauses[0].ChatID)
	assert.Equal(t, "bob", pauses[0].UserName)
	assert.Nil(t, pauses[0].LastReminderAt)

	claimed, err := db.ClaimReminder(ctx, p.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = db.ClaimReminder(ctx, p.ID, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, claimed, "latch holds")

	pauses, err = db.ListOpenPauses(ctx, "2025-05-08")
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	require.NotNil(t, pauses[0].LastReminderAt)
	assert.Equal(t, t0.Add(time.Hour).Unix(), pauses[0].LastReminderAt.Unix())
}

func TestMarkRollover(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	done, err := db.RolloverDone(ctx, "2025-05-07")
	require.NoError(t, err)
	assert.False(t, done)

	first, err := db.MarkRollover(ctx, "2025-05-07", t0)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := db.MarkRollover(ctx, "2025-05-07", t0)
	require.NoError(t, err)
	assert.False(t, again)

	done, err = db.RolloverDone(ctx, "2025-05-07")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestNewIsReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.UpsertUser(context.Background(), &models.User{ID: 1, Name: "alice"}))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err, "migrations are applied once")
	u, err := db.GetUser(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Name)
	require.NoError(t, db.Close())
}
