package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_Sequence(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())

	for want := int64(1); want <= 4; want++ {
		assert.Equal(t, want, clock.Next())
	}
	assert.Equal(t, int64(4), clock.Current())
}

func TestDeterministicClock_StartOffset(t *testing.T) {
	clock := NewDeterministicClockAt(41)
	assert.Equal(t, int64(41), clock.Current())
	assert.Equal(t, int64(42), clock.Next())
}

func TestDeterministicClock_ResetReplays(t *testing.T) {
	clock := NewDeterministicClock()
	first := []int64{clock.Next(), clock.Next(), clock.Next()}

	clock.Reset()
	second := []int64{clock.Next(), clock.Next(), clock.Next()}

	assert.Equal(t, first, second)
}

func TestDeterministicClock_ConcurrentNextIsUnique(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 20, 50

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*calls)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				v := clock.Next()
				mu.Lock()
				_, dup := seen[v]
				seen[v] = struct{}{}
				mu.Unlock()
				require.False(t, dup, "duplicate seq %d", v)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), clock.Current())
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("conn")
	assert.Equal(t, "conn-1", ids.Generate())
	assert.Equal(t, "conn-2", ids.Generate())

	assert.Equal(t, "machine-1", NewSequentialIDs("").Generate())
}

func TestFakeSession(t *testing.T) {
	s := NewFakeSession()
	require.True(t, s.Connected())

	require.NoError(t, s.Write("hello"))
	require.NoError(t, s.CloseWhenFlushed())
	assert.True(t, s.Flushed)
	assert.True(t, s.Connected())

	require.NoError(t, s.Close())
	assert.False(t, s.Connected())
	assert.ErrorIs(t, s.Write("late"), ErrSessionClosed)
	assert.Equal(t, []string{"hello"}, s.Lines)
	assert.Equal(t, 1, s.CloseCalls)
}
