package engine

import (
	"sync"

	"github.com/roach88/pioneers/internal/statemachine"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeTask runs an arbitrary closure on the loop.
	EventTypeTask EventType = iota + 1
	// EventTypeNotify delivers a session notification to a machine.
	EventTypeNotify
)

// String implements fmt.Stringer.
func (t EventType) String() string {
	switch t {
	case EventTypeTask:
		return "task"
	case EventTypeNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the loop.
type Event struct {
	Type EventType

	// Task is set for EventTypeTask.
	Task func()

	// Machine, Net and Line are set for EventTypeNotify.
	Machine *statemachine.Machine
	Net     statemachine.NetEvent
	Line    string
}

// eventQueue is a thread-safe unbounded FIFO.
//
// Session goroutines enqueue; only the Run loop dequeues. The signal channel
// (buffer 1) lets Run wait on the queue and the context in one select.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue. Returns false if the queue
// is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking; the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	// Clear the slot so the closure and machine can be collected.
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that fires when events may be available. It is
// closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether Close has been called.
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes the waiter. Events already queued are
// still drained by Run.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
