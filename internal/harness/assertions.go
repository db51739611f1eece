package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	// Trace is the rendered trace, included for context.
	Trace string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Trace != "" {
		fmt.Fprintf(&buf, "\nFull trace:\n%s", e.Trace)
	}

	return buf.String()
}

// describe renders the selector fields of a trace assertion.
func describe(a Assertion) string {
	var parts []string
	if a.Event != "" {
		parts = append(parts, "event="+a.Event)
	}
	if a.Target != "" {
		parts = append(parts, "target="+a.Target)
	}
	if a.State != "" {
		parts = append(parts, "state="+a.State)
	}
	if a.Line != "" {
		parts = append(parts, fmt.Sprintf("line=%q", a.Line))
	}
	if len(parts) == 0 {
		return "any dispatch"
	}
	return strings.Join(parts, " ")
}

// assertTraceContains checks that at least one dispatch matches.
func assertTraceContains(result *Result, a Assertion) error {
	for _, ev := range result.Trace {
		if ev.matches(a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    result.traceLines(),
	}
}

// assertTraceOrder checks that the listed events appear in order.
// Events don't need to be consecutive; each one is searched for after the
// position of the previous match.
func assertTraceOrder(result *Result, a Assertion) error {
	pos := 0
	for _, want := range a.Events {
		found := -1
		for i := pos; i < len(result.Trace); i++ {
			if result.Trace[i].String() == want {
				found = i
				break
			}
		}
		if found < 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %q", a.Events),
				Actual:   fmt.Sprintf("%q not found after position %d", want, pos),
				Trace:    result.traceLines(),
			}
		}
		pos = found + 1
	}
	return nil
}

// assertTraceCount checks the exact number of matching dispatches.
func assertTraceCount(result *Result, a Assertion) error {
	count := 0
	for _, ev := range result.Trace {
		if ev.matches(a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    result.traceLines(),
		}
	}
	return nil
}

// assertSent checks the transmitted lines exactly.
func assertSent(result *Result, a Assertion) error {
	want := a.Lines
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(result.Sent, want) {
		return &AssertionError{
			Type:     AssertSent,
			Expected: fmt.Sprintf("%q", want),
			Actual:   fmt.Sprintf("%q", result.Sent),
		}
	}
	return nil
}

// assertFinalStack checks the announced stack names, bottom first.
func assertFinalStack(result *Result, a Assertion) error {
	want := a.Stack
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(result.Stack, want) {
		return &AssertionError{
			Type:     AssertFinalStack,
			Expected: fmt.Sprintf("%q", want),
			Actual:   fmt.Sprintf("%q", result.Stack),
		}
	}
	return nil
}

// assertFatal checks that a programmer error with the given code was raised.
func assertFatal(result *Result, a Assertion) error {
	if slices.Contains(result.Fatal, a.Code) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFatal,
		Expected: a.Code,
		Actual:   fmt.Sprintf("%q", result.Fatal),
	}
}

// EvaluateAssertions runs all assertions and returns their failure messages.
// An empty slice means every assertion held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result, a)
		case AssertTraceCount:
			err = assertTraceCount(result, a)
		case AssertSent:
			err = assertSent(result, a)
		case AssertFinalStack:
			err = assertFinalStack(result, a)
		case AssertFatal:
			err = assertFatal(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}
