package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/roach88/pioneers/internal/netsession"
	"github.com/roach88/pioneers/internal/statemachine"
	"github.com/roach88/pioneers/internal/store"
)

// Engine is the single-writer loop that owns every state machine.
//
// Thread-safety model:
//   - Enqueue, Post, Notifier: safe from any goroutine
//   - Run, RunPending: exactly one goroutine
//   - NewMachine, Attach, Machine, MachineIDs: loop goroutine only (or
//     before Run starts)
type Engine struct {
	store *store.Store
	clock *Clock
	queue *eventQueue
	ids   IDGenerator
	log   *slog.Logger

	dialTimeout time.Duration
	maxDepth    int
	cacheLimit  int
	ready       func()
	fatal       func(error)

	ctx      context.Context
	machines map[string]*statemachine.Machine
	journal  *journal
	clockSet bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStore journals every machine, dispatch and wire line to s. Unless
// WithClock is also given, the clock resumes after the journal's last seq.
func WithStore(s *store.Store) EngineOption {
	return func(e *Engine) { e.store = s }
}

// WithClock sets the logical clock.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
		e.clockSet = true
	}
}

// WithIDGenerator sets the machine ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) { e.ids = g }
}

// WithLogger sets the logger handed to machines and sessions.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDialTimeout bounds outbound connects made through Machine.Connect.
func WithDialTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.dialTimeout = d }
}

// WithMachineLimits sets the stack depth and write cache limit of every
// machine the engine creates. Zero keeps the statemachine default.
func WithMachineLimits(maxDepth, cacheLimit int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = maxDepth
		e.cacheLimit = cacheLimit
	}
}

// WithReady sets the hook run on each machine's first transition.
func WithReady(fn func()) EngineOption {
	return func(e *Engine) { e.ready = fn }
}

// WithFatal overrides the handler for machine programmer errors. The default
// logs and panics.
func WithFatal(fn func(error)) EngineOption {
	return func(e *Engine) { e.fatal = fn }
}

// New creates an engine. Nothing runs until Run (or RunPending) is called.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:       NewClock(),
		queue:       newEventQueue(),
		ids:         UUIDv7Generator{},
		log:         slog.Default(),
		dialTimeout: netsession.DefaultDialTimeout,
		ctx:         context.Background(),
		machines:    make(map[string]*statemachine.Machine),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.fatal == nil {
		e.fatal = func(err error) {
			e.log.Error("machine fatal error", "error", err)
			panic(err)
		}
	}

	if e.store != nil && !e.clockSet {
		seq, err := e.store.MaxSeq(e.ctx)
		if err != nil {
			e.log.Error("resume clock from journal", "error", err)
		} else {
			e.clock = NewClockAt(seq)
		}
	}
	e.journal = &journal{engine: e}

	return e
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.log }

// Enqueue submits an event. Returns false if the engine has stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// Post runs fn on the loop. Returns false if the engine has stopped. It makes
// Engine a netsession.Poster.
func (e *Engine) Post(fn func()) bool {
	return e.queue.Enqueue(Event{Type: EventTypeTask, Task: fn})
}

// Notifier returns a goroutine-safe NotifyFunc that forwards to m through the
// loop.
func (e *Engine) Notifier(m *statemachine.Machine) statemachine.NotifyFunc {
	return func(ev statemachine.NetEvent, line string) {
		if !e.Enqueue(Event{Type: EventTypeNotify, Machine: m, Net: ev, Line: line}) {
			e.log.Debug("notification dropped, engine stopped", "machine", m.ID(), "event", ev.String())
		}
	}
}

// QueueLen returns the number of pending events.
func (e *Engine) QueueLen() int { return e.queue.Len() }

// Run processes events until ctx is cancelled or Stop is called.
//
// CRITICAL: Must be called from exactly ONE goroutine. Every machine the
// engine owns executes here.
//
// A failing event is logged with its context and processing continues.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx = ctx
	e.log.Info("engine starting", "seq", e.clock.Current())

	for {
		if event, ok := e.queue.TryDequeue(); ok {
			if err := e.processEvent(event); err != nil {
				e.logEventError(event, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.log.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Stop.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.log.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// RunPending processes queued events, including any they enqueue, until the
// queue is empty. It returns the number processed. For tests and scripted
// runs; must not be used concurrently with Run.
func (e *Engine) RunPending() int {
	n := 0
	for {
		event, ok := e.queue.TryDequeue()
		if !ok {
			return n
		}
		if err := e.processEvent(event); err != nil {
			e.logEventError(event, err)
		}
		n++
	}
}

// Stop closes the queue. Run drains what is already queued and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) processEvent(ev Event) error {
	switch ev.Type {
	case EventTypeTask:
		if ev.Task == nil {
			return &RuntimeError{Code: ErrCodeMalformedEvent, Message: "task event missing task"}
		}
		ev.Task()
		return nil

	case EventTypeNotify:
		if ev.Machine == nil {
			return &RuntimeError{Code: ErrCodeMalformedEvent, Message: "notify event missing machine"}
		}
		ev.Machine.Notify(ev.Net, ev.Line)
		return nil

	default:
		return &RuntimeError{Code: ErrCodeUnknownEvent, Message: fmt.Sprintf("event type %d", ev.Type)}
	}
}

func (e *Engine) logEventError(ev Event, err error) {
	attrs := []any{"type", ev.Type.String(), "error", err}
	if ev.Machine != nil {
		attrs = append(attrs, "machine", ev.Machine.ID(), "net_event", ev.Net.String())
	}
	e.log.Error("event processing failed", attrs...)
}

// NewMachine creates a machine bound to this engine: it dials through
// netsession, journals through the store and logs through the engine logger.
// role is recorded in the journal ("player", "client", "scenario").
func (e *Engine) NewMachine(role string, opts ...statemachine.Option) *statemachine.Machine {
	id := e.ids.Generate()

	base := []statemachine.Option{
		statemachine.WithID(id),
		statemachine.WithMaxDepth(e.maxDepth),
		statemachine.WithCacheLimit(e.cacheLimit),
	}
	m := statemachine.New(statemachine.Driver{
		Ready:    e.ready,
		Logger:   e.log,
		Dial:     e.dial,
		Observer: e.journal,
		Fatal:    e.fatal,
	}, append(base, opts...)...)

	e.machines[id] = m
	e.journal.machineCreated(id, role)
	e.log.Debug("machine created", "machine", id, "role", role)

	return m
}

// Attach wraps an accepted connection in a session owned by m.
func (e *Engine) Attach(conn net.Conn, m *statemachine.Machine) {
	sess := netsession.Accept(conn, e, m.Notify, netsession.WithLogger(e.log))
	m.Attach(sess)
}

// Serve accepts connections from ln until ctx is done. Each connection gets a
// fresh machine, created on the loop and passed to setup.
func (e *Engine) Serve(ctx context.Context, ln *netsession.Listener, role string, setup func(*statemachine.Machine)) error {
	e.log.Info("listening", "addr", ln.Addr())
	return ln.Serve(ctx, func(conn net.Conn) {
		posted := e.Post(func() {
			m := e.NewMachine(role)
			e.Attach(conn, m)
			setup(m)
		})
		if !posted {
			conn.Close()
		}
	})
}

// Machine returns a live machine by id.
func (e *Engine) Machine(id string) (*statemachine.Machine, bool) {
	m, ok := e.machines[id]
	return m, ok
}

// MachineIDs returns the ids of live machines, sorted.
func (e *Engine) MachineIDs() []string {
	ids := make([]string, 0, len(e.machines))
	for id := range e.machines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) dial(addr string, notify statemachine.NotifyFunc) (statemachine.Session, error) {
	return netsession.Dial(addr, e, notify,
		netsession.WithDialTimeout(e.dialTimeout),
		netsession.WithLogger(e.log),
	), nil
}
