package engine

import "sync/atomic"

// Clock is the monotonic logical clock that orders journal rows.
//
// Only the loop goroutine calls Next in practice; the atomic keeps Current
// safe for observers on other goroutines.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start, so an engine reopening an
// existing journal never reuses a seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
