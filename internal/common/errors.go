// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates an operation is not valid for the record's current state,
	// e.g. committing a session twice.
	ErrConflict = errors.New("conflict")
	// ErrSessionTerminal indicates a mutation was attempted on a completed,
	// cancelled, or errored session. It is a conflict, so errors.Is against
	// ErrConflict also matches.
	ErrSessionTerminal = fmt.Errorf("%w: session is in a terminal state", ErrConflict)

	// ErrInvalidConfig indicates a configuration value that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
