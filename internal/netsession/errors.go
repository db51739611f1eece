package netsession

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Write once the session is closed or closing.
var ErrClosed = errors.New("session closed")

// ConnectionError wraps a network failure with the operation that hit it.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Op, e.Addr)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err wraps a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
