package config

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Problem is one schema violation.
type Problem struct {
	Pos     token.Pos
	Message string
}

// String renders the problem as file:line:col: message when a position is
// known.
func (p Problem) String() string {
	if p.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", p.Pos.Filename(), p.Pos.Line(), p.Pos.Column(), p.Message)
	}
	return p.Message
}

// ValidationError reports a configuration that does not satisfy #Config.
type ValidationError struct {
	Source   string
	Problems []Problem
	err      error
}

func newValidationError(source string, err error) *ValidationError {
	ve := &ValidationError{Source: source, err: err}
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		ve.Problems = append(ve.Problems, Problem{
			Pos:     e.Position(),
			Message: pathString(e.Path()) + ": " + fmt.Sprintf(format, args...),
		})
	}
	if len(ve.Problems) == 0 {
		ve.Problems = []Problem{{Message: err.Error()}}
	}
	return ve
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "(root)"
	}
	return strings.Join(path, ".")
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		lines = append(lines, p.String())
	}
	src := e.Source
	if src == "" {
		src = "defaults"
	}
	return fmt.Sprintf("invalid config (%s): %s", src, strings.Join(lines, "; "))
}

// Unwrap returns the underlying CUE error.
func (e *ValidationError) Unwrap() error { return e.err }

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
