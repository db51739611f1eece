package statemachine

import "fmt"

// Event is an abstract occurrence delivered to handlers.
type Event int

const (
	// EventEnter is raised when a state becomes the top of the stack.
	EventEnter Event = iota + 1
	// EventInit is the settle pass raised after every other event.
	EventInit
	// EventRecv is raised for every line read while a state exists.
	EventRecv
	EventNetConnect
	EventNetConnectFail
	EventNetClose
	// EventFreed is delivered once, only to the global handler, when the
	// machine is destroyed.
	EventFreed
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case EventEnter:
		return "enter"
	case EventInit:
		return "init"
	case EventRecv:
		return "recv"
	case EventNetConnect:
		return "net_connect"
	case EventNetConnectFail:
		return "net_connect_fail"
	case EventNetClose:
		return "net_close"
	case EventFreed:
		return "freed"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// ParseEvent is the inverse of Event.String.
func ParseEvent(s string) (Event, bool) {
	for e := EventEnter; e <= EventFreed; e++ {
		if e.String() == s {
			return e, true
		}
	}
	return 0, false
}

// NetEvent is a notification from a Session.
type NetEvent int

const (
	NetConnect NetEvent = iota + 1
	NetConnectFail
	NetClose
	NetRead
)

// String implements fmt.Stringer.
func (e NetEvent) String() string {
	switch e {
	case NetConnect:
		return "connect"
	case NetConnectFail:
		return "connect_fail"
	case NetClose:
		return "close"
	case NetRead:
		return "read"
	default:
		return fmt.Sprintf("NetEvent(%d)", int(e))
	}
}

// Target names the handler slot an event was delivered to.
type Target string

const (
	TargetState     Target = "state"
	TargetGlobal    Target = "global"
	TargetUnhandled Target = "unhandled"
)

// Handler processes one event. ud is the machine's user data (the *Machine
// itself unless SetUserData was called). The return value reports whether the
// event was fully handled; it only stops propagation for EventRecv.
type Handler func(ud any, ev Event) bool
