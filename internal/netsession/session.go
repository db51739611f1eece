package netsession

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/pioneers/internal/statemachine"
)

// DefaultDialTimeout bounds an outbound connection attempt.
const DefaultDialTimeout = 10 * time.Second

// MaxLineLength is the longest line the reader accepts.
const MaxLineLength = 64 * 1024

// Poster runs fn on the owning machine's goroutine. It returns false when the
// loop has stopped and fn will never run.
type Poster interface {
	Post(fn func()) bool
}

// Session is a line-oriented TCP session. It implements statemachine.Session.
type Session struct {
	poster Poster
	notify statemachine.NotifyFunc
	log    *slog.Logger

	addr        string
	dialTimeout time.Duration

	mu   sync.Mutex
	conn net.Conn

	out       *lineQueue
	connected atomic.Bool
	released  atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

func newSession(poster Poster, notify statemachine.NotifyFunc, opts []Option) *Session {
	s := &Session{
		poster:      poster,
		notify:      notify,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		dialTimeout: DefaultDialTimeout,
		out:         newLineQueue(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept wraps an already established connection (typically from a
// Listener). The session is connected immediately and no NetConnect is
// raised.
func Accept(conn net.Conn, poster Poster, notify statemachine.NotifyFunc, opts ...Option) *Session {
	s := newSession(poster, notify, opts)
	s.addr = conn.RemoteAddr().String()
	s.log = s.log.With("peer", s.addr)
	s.adopt(conn)
	s.launch(conn)
	return s
}

// Dial starts connecting to addr in the background and returns at once. The
// outcome is posted as NetConnect or NetConnectFail.
func Dial(addr string, poster Poster, notify statemachine.NotifyFunc, opts ...Option) *Session {
	s := newSession(poster, notify, opts)
	s.addr = addr
	s.log = s.log.With("peer", addr)

	go func() {
		conn, err := net.DialTimeout("tcp", addr, s.dialTimeout)
		if err != nil {
			s.log.Debug("dial failed", "error", &ConnectionError{Op: "dial", Addr: addr, Err: err})
			s.post(statemachine.NetConnectFail, "")
			return
		}
		if !s.adopt(conn) {
			return
		}
		// Posted before the reader starts so NetConnect precedes any NetRead.
		s.post(statemachine.NetConnect, "")
		s.launch(conn)
	}()

	return s
}

// adopt takes ownership of conn. It returns false, closing conn, if the
// session was released while dialing.
func (s *Session) adopt(conn net.Conn) bool {
	s.mu.Lock()
	if s.released.Load() {
		s.mu.Unlock()
		conn.Close()
		return false
	}
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)
	return true
}

func (s *Session) launch(conn net.Conn) {
	go s.readLoop(conn)
	go s.writeLoop(conn)
}

// post hands a notification to the loop. It is dropped at delivery time if
// the session has been released by then.
func (s *Session) post(ev statemachine.NetEvent, line string) {
	ok := s.poster.Post(func() {
		if s.released.Load() {
			return
		}
		if ev == statemachine.NetClose {
			s.connected.Store(false)
		}
		s.notify(ev, line)
	})
	if !ok {
		s.log.Debug("notification dropped, loop stopped", "event", ev.String())
	}
}

func (s *Session) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineLength)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		s.post(statemachine.NetRead, line)
	}
	if err := scanner.Err(); err != nil && !s.released.Load() {
		s.log.Debug("read failed", "error", &ConnectionError{Op: "read", Addr: s.addr, Err: err})
	}
	s.post(statemachine.NetClose, "")
}

func (s *Session) writeLoop(conn net.Conn) {
	w := bufio.NewWriter(conn)
	for {
		lines, done := s.out.drain()
		for _, line := range lines {
			w.WriteString(line)
			w.WriteByte('\n')
		}
		if len(lines) > 0 {
			if err := w.Flush(); err != nil {
				s.log.Debug("write failed", "error", &ConnectionError{Op: "write", Addr: s.addr, Err: err})
				conn.Close()
				return
			}
		}
		if done {
			// CloseWhenFlushed: the reader sees EOF and posts NetClose.
			conn.Close()
			return
		}

		select {
		case <-s.done:
			return
		case <-s.out.wait():
		}
	}
}

// Write queues line for transmission.
func (s *Session) Write(line string) error {
	if s.released.Load() {
		return ErrClosed
	}
	if !s.out.push(line) {
		return ErrClosed
	}
	return nil
}

// Close releases the connection immediately. Pending output is discarded and
// no further notifications are delivered.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.released.Store(true)
		s.connected.Store(false)
		close(s.done)

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			err = conn.Close()
		}
	})
	return err
}

// CloseWhenFlushed closes the connection after every queued line is written.
// The peer's EOF is reported through the normal NetClose path.
func (s *Session) CloseWhenFlushed() error {
	if s.released.Load() {
		return ErrClosed
	}
	s.out.close()
	return nil
}

// Connected reports whether the connection is established and not released.
func (s *Session) Connected() bool {
	return s.connected.Load() && !s.released.Load()
}

// Addr returns the peer address.
func (s *Session) Addr() string { return s.addr }
