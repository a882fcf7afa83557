// Package apperr defines the error categories shared by the tinynas-cli
// commands.
//
// Error taxonomy
//
//	UserError    – invalid or missing user input (bad flag value, unknown
//	               description name, unsupported trainer, …). The CLI prints
//	               the message and a hint, not the usage text. Exit code: 2.
//
//	ErrCancelled – the user aborted an interactive flow (description picker,
//	               training confirmation). Exit code: 0.
//
// Everything else (I/O, trainer failures, store errors) is a plain Go error
// wrapped with fmt.Errorf("context: %w", err). Exit code: 1.
package apperr

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user explicitly aborts an interactive
// operation.
var ErrCancelled = errors.New("operation cancelled")

// UserError represents an error caused by invalid or missing user input.
type UserError struct {
	Message string
	Hint    string
}

func (e *UserError) Error() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + " (" + e.Hint + ")"
}

// User creates a UserError with the given message.
func User(msg string) error { return &UserError{Message: msg} }

// Userf creates a formatted UserError.
func Userf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// WithHint attaches a hint to err when it is a *UserError.
func WithHint(err error, hint string) error {
	var u *UserError
	if errors.As(err, &u) {
		return &UserError{Message: u.Message, Hint: hint}
	}
	return err
}

// IsUser reports whether err is (or wraps) a *UserError.
func IsUser(err error) bool {
	var u *UserError
	return errors.As(err, &u)
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, ErrCancelled):
		return 0
	case IsUser(err):
		return 2
	default:
		return 1
	}
}
