package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Seq: 2, Event: "enter", Target: "state", Depth: 1},
		{Seq: 3, Event: "init", Target: "state", State: "lobby", Depth: 1},
		{Seq: 5, Event: "recv", Target: "state", State: "lobby", Depth: 1, Line: "chat hi"},
		{Seq: 6, Event: "recv", Target: "global", State: "lobby", Depth: 1, Line: "chat hi"},
		{Seq: 7, Event: "init", Target: "state", State: "lobby", Depth: 1},
	}
	r.Sent = []string{"said hi"}
	r.Stack = []string{"lobby"}
	return r
}

func TestAssertTraceContains(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertTraceContains(r, Assertion{Event: "recv", Target: "global", Line: "chat hi"}))
	assert.NoError(t, assertTraceContains(r, Assertion{State: "lobby"}))

	err := assertTraceContains(r, Assertion{Event: "recv", Target: "unhandled"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Equal(t, "event=recv target=unhandled", ae.Expected)
	assert.Contains(t, err.Error(), "[3] recv state lobby <- chat hi")
}

func TestAssertTraceOrder(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertTraceOrder(r, Assertion{Events: []string{"enter state ", "recv global lobby"}}))
	assert.NoError(t, assertTraceOrder(r, Assertion{Events: []string{"init state lobby", "init state lobby"}}))

	err := assertTraceOrder(r, Assertion{Events: []string{"recv global lobby", "recv state lobby"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"recv state lobby" not found after position 4`)

	err = assertTraceOrder(r, Assertion{Events: []string{"freed global lobby"}})
	require.Error(t, err)
}

func TestAssertTraceCount(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertTraceCount(r, Assertion{Event: "init", Count: 2}))
	assert.NoError(t, assertTraceCount(r, Assertion{Event: "net_close", Count: 0}))

	err := assertTraceCount(r, Assertion{Event: "recv", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertSentAndStack(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertSent(r, Assertion{Lines: []string{"said hi"}}))
	assert.Error(t, assertSent(r, Assertion{Lines: []string{"said hi", "extra"}}))
	assert.Error(t, assertSent(r, Assertion{}))

	assert.NoError(t, assertFinalStack(r, Assertion{Stack: []string{"lobby"}}))
	assert.Error(t, assertFinalStack(r, Assertion{Stack: []string{"lobby", "paused"}}))

	empty := NewResult()
	assert.NoError(t, assertSent(empty, Assertion{}))
	assert.NoError(t, assertFinalStack(empty, Assertion{}))
}

func TestAssertFatal(t *testing.T) {
	r := sampleResult()
	assert.Error(t, assertFatal(r, Assertion{Code: "STACK_OVERFLOW"}))

	r.Fatal = []string{"STACK_UNDERFLOW"}
	assert.NoError(t, assertFatal(r, Assertion{Code: "STACK_UNDERFLOW"}))
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertSent, Lines: []string{"said hi"}},
		{Type: AssertFinalStack, Stack: []string{"idle"}},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion 1:")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}
