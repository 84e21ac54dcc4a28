package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"telegram-timesheet/internal/models"
)

const sessionCols = `id, user_id, date, status, created_at, finished_at`

func scanSession(scanner interface{ Scan(...any) error }) (*models.Session, error) {
	var (
		s        models.Session
		created  int64
		finished sql.NullInt64
	)
	if err := scanner.Scan(&s.ID, &s.UserID, &s.Date, &s.Status, &created, &finished); err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(created, 0)
	s.FinishedAt = timePtr(finished)
	return &s, nil
}

// EnsureSession returns the (user, date) session, creating it as paused when
// missing.
func (q *Queries) EnsureSession(ctx context.Context, userID int64, date string, now time.Time) (*models.Session, error) {
	_, err := q.db.ExecContext(ctx, `
        INSERT INTO sessions (user_id, date, status, created_at) VALUES (?,?,?,?)
        ON CONFLICT(user_id, date) DO NOTHING
    `, userID, date, models.StatusPaused, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}
	s, err := q.GetSession(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("ensure session: session %d/%s vanished", userID, date)
	}
	return s, nil
}

// CreateSession inserts a new session and fails if (user, date) already exists.
func (q *Queries) CreateSession(ctx context.Context, userID int64, date string, status models.Status, createdAt time.Time) (*models.Session, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, date, status, created_at) VALUES (?,?,?,?)`,
		userID, date, status, createdAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return q.GetSessionByID(ctx, id)
}

func (q *Queries) GetSession(ctx context.Context, userID int64, date string) (*models.Session, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE user_id=? AND date=?`, userID, date)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (q *Queries) GetSessionByID(ctx context.Context, id int64) (*models.Session, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return s, nil
}

func (q *Queries) SetSessionStatus(ctx context.Context, id int64, status models.Status) error {
	_, err := q.db.ExecContext(ctx, `UPDATE sessions SET status=? WHERE id=?`, status, id)
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	return nil
}

func (q *Queries) FinishSession(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE sessions SET status=?, finished_at=? WHERE id=?`, models.StatusFinished, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// ListActiveSessions returns the working or paused sessions of date.
func (q *Queries) ListActiveSessions(ctx context.Context, date string) ([]models.Session, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT `+sessionCols+` FROM sessions
        WHERE date=? AND status IN (?, ?)
        ORDER BY id`, date, models.StatusWorking, models.StatusPaused)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var res []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}

// ListActiveDatesBefore returns the distinct dates earlier than day that still
// have working or paused sessions.
func (q *Queries) ListActiveDatesBefore(ctx context.Context, day string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT DISTINCT date FROM sessions
        WHERE date < ? AND status IN (?, ?)
        ORDER BY date`, day, models.StatusWorking, models.StatusPaused)
	if err != nil {
		return nil, fmt.Errorf("list active dates: %w", err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		res = append(res, d)
	}
	return res, rows.Err()
}
