package netsession

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Listener accepts inbound TCP connections.
type Listener struct {
	ln net.Listener
}

// Listen binds addr. Use "127.0.0.1:0" in tests and read the port from Addr.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "listen", Addr: addr, Err: err}
	}
	return &Listener{ln: ln}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() string { return l.ln.Addr().String() }

// Serve accepts connections until ctx is cancelled or Close is called, passing
// each one to onConn on the accept goroutine. onConn must not block.
//
// Returns nil on a clean shutdown.
func (l *Listener) Serve(ctx context.Context, onConn func(net.Conn)) error {
	stop := context.AfterFunc(ctx, func() { l.ln.Close() })
	defer stop()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		onConn(conn)
	}
}

// Close stops the listener.
func (l *Listener) Close() error { return l.ln.Close() }
