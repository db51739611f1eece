package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for _, line := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(Event{Type: EventTypeNotify, Line: line}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.Line)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventTypeTask})
	q.Enqueue(Event{Type: EventTypeTask})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestEventQueue_Close(t *testing.T) {
	q := newEventQueue()
	require.True(t, q.Enqueue(Event{Type: EventTypeTask}))

	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(Event{Type: EventTypeTask}), "enqueue after close should fail")

	// Already queued events survive the close.
	_, ok := q.TryDequeue()
	assert.True(t, ok)

	_, open := <-q.Wait()
	assert.False(t, open, "signal channel should be closed")
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()
	const producers, each = 10, 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				q.Enqueue(Event{Type: EventTypeTask})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*each, q.Len())
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(42), resumed.Next())
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "task", EventTypeTask.String())
	assert.Equal(t, "notify", EventTypeNotify.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
