package models

import "time"

// User is a chat platform user. ChatID is the last chat the user pressed a
// button in and is where unsolicited messages go.
type User struct {
	ID        int64     `db:"user_id"      json:"id"`
	Name      string    `db:"name"         json:"name"`
	ChatID    int64     `db:"last_chat_id" json:"chat_id"` // 0 -> unknown
	UpdatedAt time.Time `db:"updated_at"   json:"updated_at"`
}

// Session is one user's one calendar day of tracked activity.
type Session struct {
	ID         int64      `db:"id"          json:"id"`
	UserID     int64      `db:"user_id"     json:"user_id"`
	Date       string     `db:"date"        json:"date"` // YYYY-MM-DD, local
	Status     Status     `db:"status"      json:"status"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// Period is a contiguous work or pause interval inside a session.
type Period struct {
	ID             int64      `db:"id"               json:"id"`
	SessionID      int64      `db:"session_id"       json:"session_id"`
	Kind           Kind       `db:"kind"             json:"kind"`
	Start          time.Time  `db:"start_at"         json:"start"`
	End            *time.Time `db:"end_at"           json:"end,omitempty"`            // nil -> open
	LastReminderAt *time.Time `db:"last_reminder_at" json:"last_reminder_at,omitempty"` // pause periods only
}

func (p Period) IsOpen() bool { return p.End == nil }

// OpenPause is an open pause period joined with its session and owner, as
// seen by the reminder scanner.
type OpenPause struct {
	PeriodID       int64
	SessionID      int64
	UserID         int64
	UserName       string
	ChatID         int64
	Date           string
	Start          time.Time
	LastReminderAt *time.Time
}

// Totals is the aggregate of a period ledger.
type Totals struct {
	Work  time.Duration `json:"work"`
	Pause time.Duration `json:"pause"`
}
