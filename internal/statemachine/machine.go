package statemachine

import (
	"io"
	"log/slog"
)

// DefaultMaxDepth is the default capacity of the state stack.
const DefaultMaxDepth = 16

// DefaultCacheLimit is the number of lines the write cache holds before the
// peer is considered too slow.
const DefaultCacheLimit = 1000

// TooSlowLine is written straight to the session when the cache overflows.
const TooSlowLine = "ERR Connection too slow"

// Driver is the capability set a Machine needs from its host process.
// All fields are optional.
type Driver struct {
	// Ready is invoked lazily, once per machine, on the first Goto. Hosts use
	// it to defer protocol start until they are fully initialized.
	Ready func()

	// Logger is the diagnostic sink. Defaults to a discarding logger.
	Logger *slog.Logger

	// Dial creates outbound sessions for Connect.
	Dial DialFunc

	// Observer receives dispatch and wire diagnostics.
	Observer Observer

	// Fatal handles unrecoverable programmer errors. Defaults to panic.
	Fatal func(err error)
}

// frame is one level of the state stack.
type frame struct {
	handler Handler
	name    string
}

// Machine is the per-connection state machine.
//
// INVARIANTS:
//   - -1 <= top < maxDepth; top == -1 only before the first transition
//   - len(cache) > 0 only while useCache is true
//   - once dead, only EventFreed is delivered, exactly once
type Machine struct {
	id     string
	driver Driver
	log    *slog.Logger

	stack       []frame
	top         int
	maxDepth    int
	currentName string
	ready       bool

	global    Handler
	unhandled Handler

	line       string
	lineOffset int

	useCount int
	dead     bool
	freed    bool

	session Session

	useCache   bool
	cache      []string
	cacheLimit int
	tooSlow    bool

	userData any
}

// Option configures a Machine.
type Option func(*Machine)

// WithID sets the diagnostic identifier of the machine.
func WithID(id string) Option {
	return func(m *Machine) { m.id = id }
}

// WithMaxDepth sets the stack capacity. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

// WithCacheLimit sets the write cache high-water mark. Values below 1 are
// ignored.
func WithCacheLimit(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.cacheLimit = n
		}
	}
}

// WithUserData sets the value passed to handlers instead of the machine.
func WithUserData(ud any) Option {
	return func(m *Machine) { m.userData = ud }
}

// New creates a machine with an empty stack.
func New(driver Driver, opts ...Option) *Machine {
	m := &Machine{
		driver:     driver,
		top:        -1,
		maxDepth:   DefaultMaxDepth,
		cacheLimit: DefaultCacheLimit,
	}
	for _, opt := range opts {
		opt(m)
	}

	logger := driver.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.id != "" {
		logger = logger.With("machine", m.id)
	}
	m.log = logger
	m.stack = make([]frame, 0, m.maxDepth)

	return m
}

// ID returns the diagnostic identifier.
func (m *Machine) ID() string { return m.id }

// Logger returns the machine's logger.
func (m *Machine) Logger() *slog.Logger { return m.log }

// SetUserData replaces the value passed to handlers. nil restores the default
// (the machine itself).
func (m *Machine) SetUserData(ud any) { m.userData = ud }

// UserData returns the value passed to handlers.
func (m *Machine) UserData() any {
	if m.userData == nil {
		return m
	}
	return m.userData
}

// SetGlobalHandler installs the handler consulted after the current state.
func (m *Machine) SetGlobalHandler(h Handler) { m.global = h }

// SetUnhandledHandler installs the handler for lines nobody else accepted.
func (m *Machine) SetUnhandledHandler(h Handler) { m.unhandled = h }

// Dead reports whether destruction has been requested.
func (m *Machine) Dead() bool { return m.dead || m.freed }

// Free releases the session and destroys the machine.
//
// When called from inside a handler (use count > 0) the machine is only
// marked dead; the outermost public call completes destruction. Either way
// EventFreed reaches the global handler exactly once.
func (m *Machine) Free() {
	if m.freed {
		return
	}
	m.releaseSession()
	if m.useCount > 0 {
		m.dead = true
		return
	}
	m.finish()
}

func (m *Machine) inc() { m.useCount++ }

func (m *Machine) dec() {
	m.useCount--
	if m.useCount == 0 && m.dead && !m.freed {
		m.finish()
	}
}

// finish raises EventFreed and drops every reference the machine holds.
func (m *Machine) finish() {
	m.dead = true
	m.freed = true
	m.route(EventFreed)
	m.log.Debug("machine freed")
	if obs := m.driver.Observer; obs != nil {
		obs.Freed(m.id)
	}

	m.stack = m.stack[:0]
	m.top = -1
	m.cache = nil
	m.useCache = false
	m.global = nil
	m.unhandled = nil
	m.userData = nil
}

func (m *Machine) fatal(err error) {
	if m.driver.Fatal != nil {
		m.driver.Fatal(err)
		return
	}
	panic(err)
}
