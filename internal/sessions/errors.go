package sessions

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidItem is wrapped by every ValidationError about item fields.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidSession is wrapped by every ValidationError about session fields.
	ErrInvalidSession = errors.New("invalid session")

	// ErrSessionNotFound is returned when a session ID does not exist in history.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoCurrentSession is returned when an operation needs the current
	// session and none is in progress.
	ErrNoCurrentSession = errors.New("no current session")

	// ErrStaleCollection is returned when the session history kept changing
	// underneath a write. The caller may retry.
	ErrStaleCollection = errors.New("session history changed concurrently")
)

// ValidationError describes a rejected input field in human-readable form.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // ErrInvalidItem or ErrInvalidSession
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func itemError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason, Err: ErrInvalidItem}
}

func sessionError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason, Err: ErrInvalidSession}
}
