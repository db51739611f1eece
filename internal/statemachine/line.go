package statemachine

import "github.com/roach88/pioneers/internal/codec"

// Recv matches the unparsed remainder of the current line against format.
// It succeeds only if the remainder is consumed entirely and never moves the
// parse cursor.
func (m *Machine) Recv(format string) ([]codec.Value, bool) {
	return codec.Parse(format, m.line[m.lineOffset:])
}

// RecvPrefix matches format against the start of the unparsed remainder and,
// on success, advances the parse cursor past the match. On failure the cursor
// is left untouched.
func (m *Machine) RecvPrefix(format string) ([]codec.Value, bool) {
	vals, n, ok := codec.ParsePrefix(format, m.line[m.lineOffset:])
	if !ok {
		return nil, false
	}
	m.lineOffset += n
	return vals, true
}

// CancelPrefix rewinds the parse cursor to the start of the line.
func (m *Machine) CancelPrefix() { m.lineOffset = 0 }

// Line returns the line being dispatched.
func (m *Machine) Line() string { return m.line }

// LineOffset returns the parse cursor.
func (m *Machine) LineOffset() int { return m.lineOffset }
