package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures everything a scenario run observably produced.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Sent         []string
	Stack        []string
	Freed        bool
}

// toCanonicalMap converts the snapshot for MarshalCanonical.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":    ev.Seq,
			"event":  ev.Event,
			"target": ev.Target,
			"depth":  ev.Depth,
		}
		if ev.State != "" {
			m["state"] = ev.State
		}
		if ev.Line != "" {
			m["line"] = ev.Line
		}
		trace[i] = m
	}

	sent := s.Sent
	if sent == nil {
		sent = []string{}
	}
	stack := s.Stack
	if stack == nil {
		stack = []string{}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"sent":          sent,
		"stack":         stack,
		"freed":         s.Freed,
	}
}

// Snapshot builds the canonical JSON golden form of a result.
func Snapshot(name string, result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Sent:         result.Sent,
		Stack:        result.Stack,
		Freed:        result.Freed,
	}
	return MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
