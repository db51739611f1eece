package testutil

import "errors"

// ErrSessionClosed is returned by FakeSession.Write after Close.
var ErrSessionClosed = errors.New("fake session closed")

// FakeSession records everything a state machine writes. It implements
// statemachine.Session.
type FakeSession struct {
	// Lines holds every line written, in order.
	Lines []string

	Closed  bool
	Flushed bool
	Up      bool

	// CloseCalls counts Close invocations.
	CloseCalls int
}

// NewFakeSession returns a connected session.
func NewFakeSession() *FakeSession {
	return &FakeSession{Up: true}
}

// Write records line.
func (s *FakeSession) Write(line string) error {
	if s.Closed {
		return ErrSessionClosed
	}
	s.Lines = append(s.Lines, line)
	return nil
}

// Close marks the session closed.
func (s *FakeSession) Close() error {
	s.CloseCalls++
	s.Closed = true
	s.Up = false
	return nil
}

// CloseWhenFlushed records the request; the fake has nothing to flush.
func (s *FakeSession) CloseWhenFlushed() error {
	s.Flushed = true
	return nil
}

// Connected reports whether the session is up.
func (s *FakeSession) Connected() bool { return s.Up && !s.Closed }
