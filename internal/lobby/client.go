package lobby

import (
	"log/slog"
	"sync"

	"github.com/roach88/pioneers/internal/codec"
	"github.com/roach88/pioneers/internal/engine"
	"github.com/roach88/pioneers/internal/statemachine"
)

// Client is the player side of the lobby protocol.
//
// Display receives every line worth showing to the user, including local
// status lines prefixed with "*** ". It is called on the engine loop.
type Client struct {
	engine  *engine.Engine
	log     *slog.Logger
	name    string
	display func(string)

	m        *statemachine.Machine
	done     chan struct{}
	doneOnce sync.Once
}

// NewClient creates a client that will register as name.
func NewClient(e *engine.Engine, name string, display func(string)) *Client {
	return &Client{
		engine:  e,
		log:     e.Logger().With("component", "client"),
		name:    name,
		display: display,
		done:    make(chan struct{}),
	}
}

// Connect starts dialing addr. Safe from any goroutine.
func (c *Client) Connect(addr string) bool {
	return c.engine.Post(func() {
		c.m = c.engine.NewMachine("client", statemachine.WithUserData(c))
		c.m.SetGlobalHandler(clientGlobal)
		c.m.Goto(clientConnecting)
		if err := c.m.Connect(addr); err != nil {
			c.display("*** " + err.Error())
			c.m.Free()
		}
	})
}

// Send forwards a user line to the server. Safe from any goroutine.
func (c *Client) Send(line string) bool {
	return c.engine.Post(func() {
		if c.m == nil || c.m.Dead() {
			return
		}
		c.m.Write(line)
	})
}

// Close hangs up. Safe from any goroutine.
func (c *Client) Close() bool {
	return c.engine.Post(func() {
		if c.m != nil {
			c.m.Free()
		}
	})
}

// Done is closed once the client's machine has been freed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Machine returns the client's machine. Loop goroutine only.
func (c *Client) Machine() *statemachine.Machine { return c.m }

func clientConnecting(ud any, ev statemachine.Event) bool {
	c := ud.(*Client)
	m := c.m

	switch ev {
	case statemachine.EventEnter:
		m.Announce("connecting")
	case statemachine.EventNetConnect:
		c.display("*** connected")
		m.Goto(clientHandshake)
		return true
	case statemachine.EventNetConnectFail:
		c.display("*** connect failed")
		m.Free()
		return true
	}
	return false
}

func clientHandshake(ud any, ev statemachine.Event) bool {
	c := ud.(*Client)
	m := c.m

	switch ev {
	case statemachine.EventEnter:
		m.Announce("handshake")
	case statemachine.EventRecv:
		if _, ok := m.Recv(lineVersionReport); ok {
			m.Send(fmtVersion, codec.String(ProtocolVersion))
			m.Send(fmtName, codec.String(c.name))
			m.Goto(clientOnline)
			return true
		}
	}
	return false
}

func clientOnline(ud any, ev statemachine.Event) bool {
	c := ud.(*Client)
	m := c.m

	switch ev {
	case statemachine.EventEnter:
		m.Announce("online")
	case statemachine.EventRecv:
		c.display(m.Line())
		return true
	}
	return false
}

func clientGlobal(ud any, ev statemachine.Event) bool {
	c := ud.(*Client)

	switch ev {
	case statemachine.EventRecv:
		// Anything the current state did not want is still shown.
		c.display(c.m.Line())
		return true
	case statemachine.EventNetClose:
		c.display("*** connection closed")
		c.m.Free()
		return true
	case statemachine.EventFreed:
		c.log.Debug("client finished")
		c.doneOnce.Do(func() { close(c.done) })
		return true
	}
	return false
}
