package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is the cause reported to events still queued when Run stops
// on a cancelled context.
var ErrStopped = errors.New("engine stopped")

// RuntimeError is an event the engine could not route.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the logical time of the failed event.
	Seq int64

	// Machine names the target machine, if any.
	Machine string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownMachine indicates a proximity event for an unregistered machine.
	ErrCodeUnknownMachine RuntimeErrorCode = "UNKNOWN_MACHINE"

	// ErrCodeUnknownEvent indicates an event with an unrecognized type.
	ErrCodeUnknownEvent RuntimeErrorCode = "UNKNOWN_EVENT"

	// ErrCodeInvalidEvent indicates an event missing required fields.
	ErrCodeInvalidEvent RuntimeErrorCode = "INVALID_EVENT"

	// ErrCodeStopped indicates an event left unprocessed by a cancelled Run.
	ErrCodeStopped RuntimeErrorCode = "STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Machine != "" {
		return fmt.Sprintf("%s: %s (seq=%d, machine=%s)", e.Code, e.Message, e.Seq, e.Machine)
	}
	return fmt.Sprintf("%s: %s (seq=%d)", e.Code, e.Message, e.Seq)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRuntimeError reports whether err is a RuntimeError with the given code.
func IsRuntimeError(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
