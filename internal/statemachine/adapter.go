package statemachine

import "fmt"

// Notify is the single notification callback handed to sessions.
//
// Each notification is translated into an event and followed by one EventInit
// settle pass, all inside one use-count bracket so handlers may transition or
// free the machine from within their dispatch. A line read while the stack is
// empty is discarded: peers that talk before a state is attached are
// tolerated, not dispatched.
func (m *Machine) Notify(ev NetEvent, line string) {
	if m.freed {
		return
	}
	m.inc()
	defer m.dec()

	switch ev {
	case NetConnect:
		m.log.Debug("connected")
		m.route(EventNetConnect)

	case NetConnectFail:
		m.log.Debug("connect failed")
		m.route(EventNetConnectFail)

	case NetClose:
		m.log.Debug("connection closed")
		m.route(EventNetClose)

	case NetRead:
		m.line = line
		m.lineOffset = 0
		m.log.Debug("recv", "line", line)
		if obs := m.driver.Observer; obs != nil {
			obs.Transmitted(m.id, DirectionIn, line)
		}
		if m.top < 0 {
			return
		}
		m.route(EventRecv)

	default:
		m.log.Warn("unknown session notification", "event", int(ev))
		return
	}

	m.route(EventInit)
}

// Connect releases the current session and dials addr through the driver.
// The outcome arrives later as EventNetConnect or EventNetConnectFail.
func (m *Machine) Connect(addr string) error {
	if m.driver.Dial == nil {
		return fmt.Errorf("connect %s: %w", addr, ErrNotConnected)
	}
	m.releaseSession()
	sess, err := m.driver.Dial(addr, m.Notify)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	m.session = sess
	return nil
}

// Attach adopts an already established session (for example one accepted by
// a listener), releasing any previous one.
func (m *Machine) Attach(sess Session) {
	if sess == m.session {
		return
	}
	m.releaseSession()
	m.session = sess
}

// Session returns the owned session or nil.
func (m *Machine) Session() Session { return m.session }

// IsConnected reports whether the owned session is established.
func (m *Machine) IsConnected() bool {
	return m.session != nil && m.session.Connected()
}

// teardown runs on EventNetClose: the session is released and any buffered
// output is dropped.
func (m *Machine) teardown() {
	m.releaseSession()
	if m.useCache {
		if n := len(m.cache); n > 0 {
			m.log.Debug("purging write cache", "lines", n)
		}
		m.cache = nil
		m.useCache = false
	}
	m.tooSlow = false
}

func (m *Machine) releaseSession() {
	if m.session == nil {
		return
	}
	sess := m.session
	m.session = nil
	if err := sess.Close(); err != nil {
		m.log.Debug("session close", "error", err)
	}
}
