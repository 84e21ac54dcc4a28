package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"telegram-timesheet/internal/models"
)

const periodCols = `id, session_id, kind, start_at, end_at, last_reminder_at`

func scanPeriod(scanner interface{ Scan(...any) error }) (*models.Period, error) {
	var (
		p             models.Period
		start         int64
		end, reminded sql.NullInt64
	)
	if err := scanner.Scan(&p.ID, &p.SessionID, &p.Kind, &start, &end, &reminded); err != nil {
		return nil, err
	}
	p.Start = time.Unix(start, 0)
	p.End = timePtr(end)
	p.LastReminderAt = timePtr(reminded)
	return &p, nil
}

// OpenPeriod starts a new period. The partial unique index rejects it when
// the session still has an open one.
func (q *Queries) OpenPeriod(ctx context.Context, sessionID int64, kind models.Kind, start time.Time) (*models.Period, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO periods (session_id, kind, start_at) VALUES (?,?,?)`,
		sessionID, kind, start.Unix())
	if err != nil {
		return nil, fmt.Errorf("open period: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &models.Period{ID: id, SessionID: sessionID, Kind: kind, Start: time.Unix(start.Unix(), 0)}, nil
}

// CloseOpenPeriods ends every open period of the session at end. A period
// that starts after end (an auto-started day still inside its delay) is closed
// at its own start so it never gets a negative length.
func (q *Queries) CloseOpenPeriods(ctx context.Context, sessionID int64, end time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE periods SET end_at = MAX(?, start_at) WHERE session_id=? AND end_at IS NULL`,
		end.Unix(), sessionID)
	if err != nil {
		return 0, fmt.Errorf("close open periods: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close open periods: %w", err)
	}
	return n, nil
}

// GetOpenPeriod returns the session's open period, nil if there is none.
func (q *Queries) GetOpenPeriod(ctx context.Context, sessionID int64) (*models.Period, error) {
	row := q.db.QueryRowContext(ctx, `
        SELECT `+periodCols+` FROM periods
        WHERE session_id=? AND end_at IS NULL
        ORDER BY id DESC LIMIT 1`, sessionID)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open period: %w", err)
	}
	return p, nil
}

// ListPeriods returns the session's ledger in chronological order.
func (q *Queries) ListPeriods(ctx context.Context, sessionID int64) ([]models.Period, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT `+periodCols+` FROM periods
        WHERE session_id=?
        ORDER BY start_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var res []models.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

// ---------- reminders -------------------------------------------------------

// ListOpenPauses returns the open pause periods of paused sessions on date,
// together with the owner's last chat.
func (q *Queries) ListOpenPauses(ctx context.Context, date string) ([]models.OpenPause, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT p.id, s.id, s.user_id, COALESCE(u.name, ''), COALESCE(u.last_chat_id, 0),
               s.date, p.start_at, p.last_reminder_at
        FROM sessions s
        JOIN periods p ON p.session_id = s.id AND p.kind = ? AND p.end_at IS NULL
        LEFT JOIN users u ON u.user_id = s.user_id
        WHERE s.date = ? AND s.status = ?
        ORDER BY p.id`, models.KindPause, date, models.StatusPaused)
	if err != nil {
		return nil, fmt.Errorf("list open pauses: %w", err)
	}
	defer rows.Close()

	var res []models.OpenPause
	for rows.Next() {
		var (
			op       models.OpenPause
			start    int64
			reminded sql.NullInt64
		)
		if err := rows.Scan(&op.PeriodID, &op.SessionID, &op.UserID, &op.UserName, &op.ChatID,
			&op.Date, &start, &reminded); err != nil {
			return nil, fmt.Errorf("scan open pause: %w", err)
		}
		op.Start = time.Unix(start, 0)
		op.LastReminderAt = timePtr(reminded)
		res = append(res, op)
	}
	return res, rows.Err()
}

// ClaimReminder sets the period's reminder timestamp unless one is already
// recorded. It reports whether this call set it.
func (q *Queries) ClaimReminder(ctx context.Context, periodID int64, at time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
        UPDATE periods SET last_reminder_at=?
        WHERE id=? AND last_reminder_at IS NULL AND end_at IS NULL`, at.Unix(), periodID)
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	return n == 1, nil
}
