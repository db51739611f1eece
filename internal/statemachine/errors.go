package statemachine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConnected is returned by Connect when no dialer is configured.
var ErrNotConnected = errors.New("statemachine: no session")

// StackErrorCode categorizes fatal stack misuse.
type StackErrorCode string

const (
	// ErrCodeOverflow indicates a push beyond the configured depth.
	ErrCodeOverflow StackErrorCode = "STACK_OVERFLOW"

	// ErrCodeUnderflow indicates a pop that would remove the bottom frame.
	ErrCodeUnderflow StackErrorCode = "STACK_UNDERFLOW"

	// ErrCodeEmpty indicates Current on a machine with no state.
	ErrCodeEmpty StackErrorCode = "STACK_EMPTY"

	// ErrCodeCacheNotEmpty indicates enabling the write cache while lines are
	// still queued.
	ErrCodeCacheNotEmpty StackErrorCode = "CACHE_NOT_EMPTY"
)

// StackError is passed to the driver's Fatal hook for programmer errors.
type StackError struct {
	Code      StackErrorCode
	MachineID string
	Depth     int
	// Names lists the announced frame names, bottom first.
	Names []string
}

// Error implements the error interface.
func (e *StackError) Error() string {
	msg := fmt.Sprintf("%s: depth=%d", e.Code, e.Depth)
	if e.MachineID != "" {
		msg += fmt.Sprintf(" machine=%s", e.MachineID)
	}
	if len(e.Names) > 0 {
		msg += " stack=[" + strings.Join(e.Names, " ") + "]"
	}
	return msg
}

// IsOverflowError reports whether err is a stack overflow.
func IsOverflowError(err error) bool {
	var se *StackError
	if errors.As(err, &se) {
		return se.Code == ErrCodeOverflow
	}
	return false
}

// IsUnderflowError reports whether err is a stack underflow.
func IsUnderflowError(err error) bool {
	var se *StackError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnderflow
	}
	return false
}
