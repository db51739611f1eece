package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pioneers/internal/codec"
	"github.com/roach88/pioneers/internal/engine"
	"github.com/roach88/pioneers/internal/statemachine"
	"github.com/roach88/pioneers/internal/store"
	"github.com/roach88/pioneers/internal/testutil"
)

// Harness executes one scenario against one machine.
type Harness struct {
	scenario *Scenario
	store    *store.Store
	engine   *engine.Engine
	machine  *statemachine.Machine
	states   map[string]statemachine.Handler
	fatal    []error
	logger   *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger routes engine and machine diagnostics to l. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal. Every step is posted to
// the engine and the queue is drained before the next step, so a step sees
// the full cascade of the previous one.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		scenario: scenario,
		store:    st,
		states:   make(map[string]statemachine.Handler, len(scenario.States)),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.engine = engine.New(
		engine.WithStore(st),
		engine.WithClock(engine.NewClock()),
		engine.WithIDGenerator(testutil.NewSequentialIDs("scenario")),
		engine.WithLogger(h.logger),
		engine.WithMachineLimits(scenario.MaxDepth, scenario.CacheLimit),
		engine.WithFatal(func(err error) { h.fatal = append(h.fatal, err) }),
	)

	for name, rules := range scenario.States {
		h.states[name] = h.handler(name, rules, true)
	}

	m := h.engine.NewMachine("scenario")
	h.machine = m
	if len(scenario.Global) > 0 {
		m.SetGlobalHandler(h.handler("", scenario.Global, false))
	}
	if len(scenario.Unhandled) > 0 {
		m.SetUnhandledHandler(h.handler("", scenario.Unhandled, false))
	}
	if !scenario.Detached {
		m.Attach(testutil.NewFakeSession())
	}

	for i, step := range scenario.Steps {
		h.apply(step)
		n := h.engine.RunPending()
		h.logger.Debug("step completed", "step", i, "op", step.Op, "events", n)
	}

	result, err := h.collect(context.Background())
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if len(result.Fatal) > 0 && !expectsFatal(scenario.Assertions) {
		for _, msg := range result.Fatal {
			result.AddError("unexpected fatal error: " + msg)
		}
	}

	return result, nil
}

// apply posts one step to the engine.
func (h *Harness) apply(step Step) {
	m := h.machine
	notify := h.engine.Notifier(m)

	switch step.Op {
	case OpGoto:
		target := h.states[step.State]
		h.engine.Post(func() {
			if step.NoEnter {
				m.GotoNoEnter(target)
			} else {
				m.Goto(target)
			}
		})
	case OpPush:
		target := h.states[step.State]
		h.engine.Post(func() {
			if step.NoEnter {
				m.PushNoEnter(target)
			} else {
				m.Push(target)
			}
		})
	case OpPop:
		h.engine.Post(m.Pop)
	case OpMultiPop:
		h.engine.Post(func() { m.MultiPop(step.Count) })
	case OpPopAll:
		target := h.states[step.State]
		h.engine.Post(func() { m.PopAllAndGoto(target) })
	case OpConnect:
		h.engine.Post(func() {
			if m.Session() == nil && !m.Dead() {
				m.Attach(testutil.NewFakeSession())
			}
		})
		notify(statemachine.NetConnect, "")
	case OpConnectFail:
		notify(statemachine.NetConnectFail, "")
	case OpClose:
		notify(statemachine.NetClose, "")
	case OpRecv:
		notify(statemachine.NetRead, step.Line)
	case OpCache:
		on := *step.Enabled
		h.engine.Post(func() { m.SetUseCache(on) })
	case OpFree:
		h.engine.Post(m.Free)
	}
}

// handler builds a statemachine.Handler from rules. Named states announce
// themselves on enter and init.
func (h *Harness) handler(name string, rules []Rule, announce bool) statemachine.Handler {
	return func(_ any, ev statemachine.Event) bool {
		m := h.machine
		if announce && (ev == statemachine.EventEnter || ev == statemachine.EventInit) {
			m.Announce(name)
		}

		for _, rule := range rules {
			if rule.On != ev.String() {
				continue
			}
			var vals []codec.Value
			if ev == statemachine.EventRecv && rule.Match != "" {
				v, ok := m.Recv(rule.Match)
				if !ok {
					continue
				}
				vals = v
			}
			h.fire(rule, vals)
			return ev != statemachine.EventRecv || !rule.Pass
		}
		return false
	}
}

// fire performs the actions of a matched rule.
func (h *Harness) fire(rule Rule, vals []codec.Value) {
	m := h.machine

	if rule.Cache != nil {
		m.SetUseCache(*rule.Cache)
	}

	for _, tmpl := range rule.Send {
		kinds, _ := directives(tmpl)
		if len(kinds) == 0 {
			m.Send(tmpl)
			continue
		}
		m.Send(tmpl, vals...)
	}

	switch {
	case rule.Goto != "":
		m.Goto(h.states[rule.Goto])
	case rule.Push != "":
		m.Push(h.states[rule.Push])
	case rule.Pop > 0:
		m.MultiPop(rule.Pop)
	case rule.PopAll != "":
		m.PopAllAndGoto(h.states[rule.PopAll])
	case rule.Free:
		m.Free()
	}
}

// collect reads the run back from the journal.
func (h *Harness) collect(ctx context.Context) (*Result, error) {
	result := NewResult()
	id := h.machine.ID()

	dispatches, err := h.store.ReadDispatches(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	for _, d := range dispatches {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:    d.Seq,
			Event:  d.Event,
			Target: d.Target,
			State:  d.State,
			Depth:  d.Depth,
			Line:   d.Line,
		})
	}

	wire, err := h.store.ReadWire(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read wire: %w", err)
	}
	for _, w := range wire {
		if w.Direction == string(statemachine.DirectionOut) {
			result.Sent = append(result.Sent, w.Line)
		}
	}

	_, alive := h.engine.Machine(id)
	result.Freed = !alive
	if alive {
		result.Stack = append(result.Stack, h.machine.StackNames()...)
	}

	for _, err := range h.fatal {
		var se *statemachine.StackError
		if errors.As(err, &se) {
			result.Fatal = append(result.Fatal, string(se.Code))
			continue
		}
		result.Fatal = append(result.Fatal, err.Error())
	}

	return result, nil
}

func expectsFatal(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertFatal {
			return true
		}
	}
	return false
}
