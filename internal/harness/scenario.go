package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pioneers/internal/codec"
	"github.com/roach88/pioneers/internal/statemachine"
)

// Scenario is a scripted state machine run.
//
// States, the global handler and the unhandled handler are described as rule
// lists; Steps drive the machine from outside the way a host and its network
// session would; Assertions check the resulting trace, output and stack.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MaxDepth and CacheLimit override the machine limits. Zero keeps the
	// defaults.
	MaxDepth   int `yaml:"max_depth,omitempty"`
	CacheLimit int `yaml:"cache_limit,omitempty"`

	// Detached starts the machine without a session. A connect step attaches
	// one.
	Detached bool `yaml:"detached,omitempty"`

	// States maps state names to their rules. Rules are tried in order.
	States map[string][]Rule `yaml:"states"`

	// Global and Unhandled are the rules of the two special handler slots.
	Global    []Rule `yaml:"global,omitempty"`
	Unhandled []Rule `yaml:"unhandled,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Rule reacts to one event.
//
// A rule fires when On names the event and, for recv, the line matches Match
// (an empty Match accepts any line). Actions run in a fixed order: cache,
// send, then at most one of goto, push, pop, pop_all or free.
type Rule struct {
	On    string `yaml:"on"`
	Match string `yaml:"match,omitempty"`

	// Send lines are formatted with the values Match produced. A template
	// without directives is sent verbatim.
	Send []string `yaml:"send,omitempty"`

	Cache *bool `yaml:"cache,omitempty"`

	Goto   string `yaml:"goto,omitempty"`
	Push   string `yaml:"push,omitempty"`
	Pop    int    `yaml:"pop,omitempty"`
	PopAll string `yaml:"pop_all,omitempty"`
	Free   bool   `yaml:"free,omitempty"`

	// Pass makes a recv rule act but still report the line as unhandled, so
	// the next handler slot sees it too.
	Pass bool `yaml:"pass,omitempty"`
}

// Step is one externally driven operation.
type Step struct {
	Op string `yaml:"op"`

	// State is the target of goto, push and pop_all.
	State string `yaml:"state,omitempty"`

	// NoEnter suppresses EventEnter for goto and push.
	NoEnter bool `yaml:"no_enter,omitempty"`

	// Count is the depth of multipop.
	Count int `yaml:"count,omitempty"`

	// Line is the input of recv.
	Line string `yaml:"line,omitempty"`

	// Enabled is the setting of cache.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// Step operations.
const (
	OpGoto        = "goto"
	OpPush        = "push"
	OpPop         = "pop"
	OpMultiPop    = "multipop"
	OpPopAll      = "pop_all"
	OpConnect     = "connect"
	OpConnectFail = "connect_fail"
	OpClose       = "close"
	OpRecv        = "recv"
	OpCache       = "cache"
	OpFree        = "free"
)

// Assertion validates the trace, the sent lines or the final stack.
//
// Trace assertions select events with Event, Target, State and Line; empty
// fields match anything.
type Assertion struct {
	Type string `yaml:"type"`

	Event  string `yaml:"event,omitempty"`
	Target string `yaml:"target,omitempty"`
	State  string `yaml:"state,omitempty"`
	Line   string `yaml:"line,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Events lists "event target state" strings expected in this order
	// (trace_order). Other events may occur in between.
	Events []string `yaml:"events,omitempty"`

	// Lines is the exact output (sent).
	Lines []string `yaml:"lines,omitempty"`

	// Stack is the exact final stack, bottom first (final_stack).
	Stack []string `yaml:"stack,omitempty"`

	// Code is the expected fatal error code (fatal).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertSent          = "sent"
	AssertFinalStack    = "final_stack"
	AssertFatal         = "fatal"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// reference resolves.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.States) == 0 {
		return errors.New("states map is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return errors.New("assertions list is required and must be non-empty")
	}
	if s.MaxDepth < 0 || s.CacheLimit < 0 {
		return errors.New("max_depth and cache_limit must be non-negative")
	}

	for _, name := range sortedStateNames(s.States) {
		for i, r := range s.States[name] {
			if err := validateRule(s, r, false); err != nil {
				return fmt.Errorf("states.%s[%d]: %w", name, i, err)
			}
		}
	}
	for i, r := range s.Global {
		if err := validateRule(s, r, true); err != nil {
			return fmt.Errorf("global[%d]: %w", i, err)
		}
	}
	for i, r := range s.Unhandled {
		if err := validateRule(s, r, false); err != nil {
			return fmt.Errorf("unhandled[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(s, step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateRule(s *Scenario, r Rule, global bool) error {
	ev, ok := statemachine.ParseEvent(r.On)
	if !ok {
		return fmt.Errorf("unknown event %q", r.On)
	}
	if ev == statemachine.EventFreed && !global {
		return errors.New("freed is only delivered to the global handler")
	}
	if r.Match != "" && ev != statemachine.EventRecv {
		return fmt.Errorf("match is only valid for recv, not %s", r.On)
	}
	if r.Pass && ev != statemachine.EventRecv {
		return errors.New("pass is only valid for recv")
	}

	matched, err := directives(r.Match)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	for i, tmpl := range r.Send {
		kinds, err := directives(tmpl)
		if err != nil {
			return fmt.Errorf("send[%d]: %w", i, err)
		}
		if len(kinds) > 0 && !slices.Equal(kinds, matched) {
			return fmt.Errorf("send[%d]: directives of %q do not match %q", i, tmpl, r.Match)
		}
	}

	transitions := 0
	for _, target := range []string{r.Goto, r.Push, r.PopAll} {
		if target == "" {
			continue
		}
		transitions++
		if _, ok := s.States[target]; !ok {
			return fmt.Errorf("unknown state %q", target)
		}
	}
	if r.Pop < 0 {
		return errors.New("pop must be non-negative")
	}
	if r.Pop > 0 {
		transitions++
	}
	if r.Free {
		transitions++
	}
	if transitions > 1 {
		return errors.New("at most one of goto, push, pop, pop_all and free")
	}
	return nil
}

func validateStep(s *Scenario, step Step) error {
	switch step.Op {
	case OpGoto, OpPush, OpPopAll:
		if step.State == "" {
			return fmt.Errorf("state is required for %s", step.Op)
		}
		if _, ok := s.States[step.State]; !ok {
			return fmt.Errorf("unknown state %q", step.State)
		}
	case OpMultiPop:
		if step.Count < 1 {
			return errors.New("count must be positive for multipop")
		}
	case OpCache:
		if step.Enabled == nil {
			return errors.New("enabled is required for cache")
		}
	case OpRecv, OpPop, OpConnect, OpConnectFail, OpClose, OpFree:
	case "":
		return errors.New("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" && a.Target == "" && a.State == "" && a.Line == "" {
			return errors.New("trace_contains needs at least one of event, target, state, line")
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return errors.New("events list is required for trace_order")
		}
	case AssertTraceCount:
		if a.Count < 0 {
			return errors.New("count must be non-negative for trace_count")
		}
	case AssertSent, AssertFinalStack:
	case AssertFatal:
		if a.Code == "" {
			return errors.New("code is required for fatal")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Event != "" {
		if _, ok := statemachine.ParseEvent(a.Event); !ok {
			return fmt.Errorf("unknown event %q", a.Event)
		}
	}
	return nil
}

// directives is codec.Directives with format errors returned instead of
// raised.
func directives(format string) (kinds []codec.Kind, err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(*codec.FormatError)
			if !ok {
				panic(r)
			}
			err = fe
		}
	}()
	return codec.Directives(format), nil
}

func sortedStateNames(states map[string][]Rule) []string {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
