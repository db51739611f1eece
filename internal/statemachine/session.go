package statemachine

// Session is the network layer collaborator exclusively owned by a Machine.
//
// Implementations call the NotifyFunc they were created with exactly once per
// connect, connect failure, close and line read, on the machine's goroutine.
// After Close returns no further notifications may be delivered.
type Session interface {
	// Write queues one line for transmission. The line carries no terminator.
	Write(line string) error

	// Close releases the connection immediately.
	Close() error

	// CloseWhenFlushed closes the connection once every queued line is sent.
	CloseWhenFlushed() error

	// Connected reports whether the connection is established.
	Connected() bool
}

// NotifyFunc receives session notifications. line is only set for NetRead.
type NotifyFunc func(ev NetEvent, line string)

// DialFunc creates a session connecting to addr. The connection outcome is
// reported later through notify (NetConnect or NetConnectFail).
type DialFunc func(addr string, notify NotifyFunc) (Session, error)

// Direction tells whether a wire line was received or sent.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Dispatch describes one handler invocation.
type Dispatch struct {
	MachineID string
	Event     Event
	Target    Target
	// State is the name last announced by the top frame (empty if none).
	State string
	Depth int
	Line  string
}

// Observer receives diagnostics about dispatches and wire traffic.
// Calls happen synchronously on the machine's goroutine.
type Observer interface {
	Dispatched(d Dispatch)
	Transmitted(machineID string, dir Direction, line string)
	// Freed is called once, after EventFreed has been routed.
	Freed(machineID string)
}
