package statemachine

import "github.com/roach88/pioneers/internal/codec"

// Write sends line, or queues it while the write cache is enabled.
//
// When the cache already holds the configured limit the peer is told it is
// too slow (bypassing the cache) and the session is closed once flushed. That
// happens once; later lines are dropped. Without a session uncached lines are
// dropped.
func (m *Machine) Write(line string) {
	if !m.useCache {
		if m.session != nil {
			m.transmit(line)
		}
		return
	}
	if m.tooSlow {
		return
	}
	if len(m.cache) >= m.cacheLimit {
		m.tooSlow = true
		m.log.Warn("write cache overflow, closing", "limit", m.cacheLimit)
		if m.session == nil {
			return
		}
		m.transmit(TooSlowLine)
		if err := m.session.CloseWhenFlushed(); err != nil {
			m.log.Debug("close when flushed", "error", err)
		}
		return
	}
	m.cache = append(m.cache, line)
}

// Send formats a line with the codec and writes it. It does nothing when the
// machine has no session.
func (m *Machine) Send(format string, args ...codec.Value) {
	if m.session == nil {
		return
	}
	m.Write(codec.Format(format, args...))
}

// SetUseCache switches output buffering. Disabling flushes queued lines in
// order. Enabling requires an empty cache. Repeating the current setting is a
// no-op.
func (m *Machine) SetUseCache(on bool) {
	if m.useCache == on {
		return
	}
	if on {
		if len(m.cache) != 0 {
			m.fatal(m.stackError(ErrCodeCacheNotEmpty))
			return
		}
		m.useCache = true
		return
	}

	pending := m.cache
	m.cache = nil
	m.useCache = false
	m.tooSlow = false
	if m.session == nil {
		return
	}
	for _, line := range pending {
		m.transmit(line)
	}
}

// UseCache reports whether output is being buffered.
func (m *Machine) UseCache() bool { return m.useCache }

// CacheLen returns the number of queued lines.
func (m *Machine) CacheLen() int { return len(m.cache) }

func (m *Machine) transmit(line string) {
	m.log.Debug("send", "line", line)
	if obs := m.driver.Observer; obs != nil {
		obs.Transmitted(m.id, DirectionOut, line)
	}
	if err := m.session.Write(line); err != nil {
		m.log.Debug("session write", "error", err)
	}
}
