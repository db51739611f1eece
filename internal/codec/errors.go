package codec

import (
	"errors"
	"fmt"
)

// FormatErrorCode categorizes programmer errors detected by the codec.
type FormatErrorCode string

const (
	// ErrCodeBadDirective indicates an unknown or truncated % directive.
	ErrCodeBadDirective FormatErrorCode = "BAD_DIRECTIVE"

	// ErrCodeStringNotLast indicates %S followed by more format text.
	ErrCodeStringNotLast FormatErrorCode = "STRING_NOT_LAST"

	// ErrCodeArgCount indicates too few or too many arguments for Format.
	ErrCodeArgCount FormatErrorCode = "ARG_COUNT"

	// ErrCodeArgKind indicates an argument whose kind does not match its directive.
	ErrCodeArgKind FormatErrorCode = "ARG_KIND"

	// ErrCodeNotWire indicates an enum value that has no wire representation.
	ErrCodeNotWire FormatErrorCode = "NOT_WIRE_REPRESENTABLE"
)

// FormatError is the panic value raised for malformed format strings and
// invalid Format arguments.
type FormatError struct {
	Code   FormatErrorCode
	Format string
	Detail string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("codec: %s: %s (format %q)", e.Code, e.Detail, e.Format)
}

// IsFormatError reports whether err (or anything it wraps) is a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatPanic(code FormatErrorCode, format, detail string, args ...any) {
	panic(&FormatError{Code: code, Format: format, Detail: fmt.Sprintf(detail, args...)})
}
