package models

// Status of a session. Finished is terminal.
type Status string

const (
	StatusWorking  Status = "working"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

type Kind string

const (
	KindWork  Kind = "work"
	KindPause Kind = "pause"
)

// OpenKind is the kind of open period allowed for a session in this status.
// A fresh paused session has no period at all; finished sessions never do.
func (s Status) OpenKind() (Kind, bool) {
	switch s {
	case StatusWorking:
		return KindWork, true
	case StatusPaused:
		return KindPause, true
	default:
		return "", false
	}
}
