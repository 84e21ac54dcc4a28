package timesheet

import "errors"

// ErrInvalidTransition matches every rejected state machine transition.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionError is a rejected transition. Its text is shown to the user.
type TransitionError struct {
	msg string
}

func (e *TransitionError) Error() string { return e.msg }

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

var (
	ErrAlreadyWorking  = &TransitionError{msg: "You are already <b>working</b>."}
	ErrWorkPeriodOpen  = &TransitionError{msg: "A work period is already open."}
	ErrNotWorking      = &TransitionError{msg: "You are not <b>working</b>."}
	ErrNotPaused       = &TransitionError{msg: "You are not <b>paused</b>."}
	ErrAlreadyFinished = &TransitionError{msg: "This day is already <b>finished</b>."}
)
