package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"telegram-timesheet/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every read and write against the timesheet tables. Obtained
// from DB directly it runs in autocommit mode, inside InTx it runs in the
// transaction.
type Queries struct {
	db dbtx
}

type DB struct {
	*Queries
	sql *sql.DB
}

// New opens the SQLite file at path and applies the embedded migrations.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes every statement and transaction in the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &DB{Queries: &Queries{db: db}, sql: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (d *DB) Close() error { return d.sql.Close() }

// InTx runs fn in a single transaction. Any error returned by fn rolls the
// whole transaction back.
func (d *DB) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ---------- users -----------------------------------------------------------

// UpsertUser records the user's latest display name and chat.
func (q *Queries) UpsertUser(ctx context.Context, u *models.User) error {
	updated := u.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := q.db.ExecContext(ctx, `
        INSERT INTO users (user_id, name, last_chat_id, updated_at)
        VALUES (?,?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET name=excluded.name,
            last_chat_id=excluded.last_chat_id,
            updated_at=excluded.updated_at
    `, u.ID, u.Name, u.ChatID, updated.Unix())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var (
		u       models.User
		updated int64
	)
	err := q.db.QueryRowContext(ctx, `
        SELECT user_id, name, last_chat_id, updated_at
        FROM users WHERE user_id=?`, userID,
	).Scan(&u.ID, &u.Name, &u.ChatID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.UpdatedAt = time.Unix(updated, 0)
	return &u, nil
}

// ---------- rollovers -------------------------------------------------------

// MarkRollover records that day has been reconciled. It reports false when
// the day was already marked.
func (q *Queries) MarkRollover(ctx context.Context, day string, at time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO rollovers (date, completed_at) VALUES (?,?)`, day, at.Unix())
	if err != nil {
		return false, fmt.Errorf("mark rollover: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark rollover: %w", err)
	}
	return n == 1, nil
}

// RolloverDone reports whether day has been marked as reconciled.
func (q *Queries) RolloverDone(ctx context.Context, day string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, `SELECT 1 FROM rollovers WHERE date=?`, day).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rollover done: %w", err)
	}
	return true, nil
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}
