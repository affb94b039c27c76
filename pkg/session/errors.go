package session

import "errors"

var (
	ErrSessionActive = errors.New("a race is already in progress")
	ErrWrongPhase    = errors.New("command not allowed in this phase")
	ErrClosed        = errors.New("controller closed")
	ErrMissingDeps   = errors.New("missing collaborator")
)

// ValidationError is a rejected user input. Msg is meant for the user.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
