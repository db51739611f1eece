package harness

import (
	"fmt"
	"strings"
)

// TraceEvent is one handler dispatch read back from the journal.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Event  string `json:"event"`
	Target string `json:"target"`
	State  string `json:"state,omitempty"`
	Depth  int    `json:"depth"`
	Line   string `json:"line,omitempty"`
}

// String renders the event as "event target state", the form trace_order
// assertions use. The state part is empty before a state announces itself.
func (e TraceEvent) String() string {
	return e.Event + " " + e.Target + " " + e.State
}

// matches reports whether every non-empty selector field of a equals the
// event's.
func (e TraceEvent) matches(a Assertion) bool {
	if a.Event != "" && a.Event != e.Event {
		return false
	}
	if a.Target != "" && a.Target != e.Target {
		return false
	}
	if a.State != "" && a.State != e.State {
		return false
	}
	if a.Line != "" && a.Line != e.Line {
		return false
	}
	return true
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace holds every dispatch in journal order.
	Trace []TraceEvent `json:"trace"`

	// Sent holds every line transmitted to the session.
	Sent []string `json:"sent"`

	// Stack is the announced state names at the end of the run, bottom first.
	Stack []string `json:"stack"`

	// Fatal holds the programmer errors the machine raised.
	Fatal []string `json:"fatal,omitempty"`

	// Freed reports whether the machine was destroyed.
	Freed bool `json:"freed"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Sent:   []string{},
		Stack:  []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceLines renders the trace for failure messages.
func (r *Result) traceLines() string {
	var b strings.Builder
	for i, ev := range r.Trace {
		fmt.Fprintf(&b, "  [%d] %s", i+1, ev)
		if ev.Line != "" {
			fmt.Fprintf(&b, " <- %s", ev.Line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
