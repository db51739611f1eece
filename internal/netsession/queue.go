package netsession

import "sync"

// lineQueue is the unbounded outbound FIFO drained by the writer goroutine.
// Same shape as the engine's event queue: a mutex-guarded slice plus a
// coalescing signal channel.
type lineQueue struct {
	mu     sync.Mutex
	lines  []string
	closed bool
	signal chan struct{}
}

func newLineQueue() *lineQueue {
	return &lineQueue{signal: make(chan struct{}, 1)}
}

// push appends line. Returns false once the queue is closed.
func (q *lineQueue) push(line string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.lines = append(q.lines, line)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// drain removes every queued line. done is true when the queue is closed and
// nothing remains.
func (q *lineQueue) drain() (lines []string, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	lines = q.lines
	q.lines = nil
	return lines, q.closed && len(lines) == 0
}

// close stops further pushes; pending lines are still drained.
func (q *lineQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

func (q *lineQueue) wait() <-chan struct{} { return q.signal }
