package engine

import (
	"errors"
	"fmt"
)

// ErrQueueClosed is returned when work is submitted to a stopped engine.
var ErrQueueClosed = errors.New("engine: queue closed")

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownEvent indicates an event with an unrecognized type.
	ErrCodeUnknownEvent RuntimeErrorCode = "UNKNOWN_EVENT"

	// ErrCodeMalformedEvent indicates an event missing its payload.
	ErrCodeMalformedEvent RuntimeErrorCode = "MALFORMED_EVENT"

	// ErrCodeJournal indicates a failed journal write.
	ErrCodeJournal RuntimeErrorCode = "JOURNAL_WRITE"
)

// RuntimeError is an error detected while processing an event.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string

	// MachineID identifies the affected machine, if any.
	MachineID string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.MachineID != "" {
		msg += fmt.Sprintf(" (machine=%s)", e.MachineID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.Err }

// IsJournalError reports whether err is a journal write failure.
// Uses errors.As to handle wrapped errors.
func IsJournalError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeJournal
	}
	return false
}
