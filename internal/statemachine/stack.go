package statemachine

// Goto replaces the current state with h, raising EventEnter then EventInit.
//
// On an empty stack the driver's Ready hook runs first (once per machine) and
// the bottom frame is created.
func (m *Machine) Goto(h Handler) { m.gotoState(h, true) }

// GotoNoEnter is Goto without EventEnter.
func (m *Machine) GotoNoEnter(h Handler) { m.gotoState(h, false) }

func (m *Machine) gotoState(h Handler, enter bool) {
	if m.freed {
		return
	}
	m.inc()
	defer m.dec()

	if m.top < 0 {
		if !m.ready {
			m.ready = true
			if m.driver.Ready != nil {
				m.driver.Ready()
			}
		}
		m.stack = append(m.stack[:0], frame{})
		m.top = 0
	}
	m.stack[m.top] = frame{handler: h}
	m.settle(enter)
}

// Push installs h on a new frame above the current state.
func (m *Machine) Push(h Handler) { m.push(h, true) }

// PushNoEnter is Push without EventEnter.
func (m *Machine) PushNoEnter(h Handler) { m.push(h, false) }

func (m *Machine) push(h Handler, enter bool) {
	if m.freed {
		return
	}
	m.inc()
	defer m.dec()

	if m.top+1 >= m.maxDepth {
		m.dumpStack("state stack overflow")
		m.fatal(m.stackError(ErrCodeOverflow))
		return
	}
	m.stack = append(m.stack[:m.top+1], frame{handler: h})
	m.top++
	m.settle(enter)
}

// Pop returns to the state below the current one, raising EventEnter then
// EventInit for it. Popping the bottom frame is fatal.
func (m *Machine) Pop() { m.MultiPop(1) }

// MultiPop removes depth frames at once. At least one frame must remain.
func (m *Machine) MultiPop(depth int) {
	if m.freed {
		return
	}
	m.inc()
	defer m.dec()

	if depth < 1 || depth > m.top {
		m.dumpStack("state stack underflow")
		m.fatal(m.stackError(ErrCodeUnderflow))
		return
	}
	for i := m.top - depth + 1; i <= m.top; i++ {
		m.stack[i] = frame{}
	}
	m.stack = m.stack[:m.top-depth+1]
	m.top -= depth
	m.settle(true)
}

// PopAllAndGoto collapses the stack to a single frame holding h.
func (m *Machine) PopAllAndGoto(h Handler) {
	if m.freed {
		return
	}
	m.inc()
	defer m.dec()

	for i := range m.stack {
		m.stack[i] = frame{}
	}
	m.stack = append(m.stack[:0], frame{handler: h})
	m.top = 0
	m.settle(true)
}

// settle raises the events that follow every stack mutation.
func (m *Machine) settle(enter bool) {
	if enter {
		m.route(EventEnter)
	}
	m.route(EventInit)
}

// Current returns the top handler. Calling it on an empty stack is fatal.
func (m *Machine) Current() Handler {
	if m.top < 0 {
		m.fatal(m.stackError(ErrCodeEmpty))
		return nil
	}
	return m.stack[m.top].handler
}

// StackInspect returns the handler offset frames below the top, or nil when
// out of range. StackInspect(0) is the current state.
func (m *Machine) StackInspect(offset int) Handler {
	if offset < 0 || offset > m.top {
		return nil
	}
	return m.stack[m.top-offset].handler
}

// Depth returns the number of frames on the stack.
func (m *Machine) Depth() int { return m.top + 1 }

// Announce records name for the current frame. States call it when they
// start executing so diagnostics and stack dumps are meaningful.
func (m *Machine) Announce(name string) {
	m.currentName = name
	if m.top >= 0 {
		m.stack[m.top].name = name
	}
}

// CurrentName returns the name most recently announced.
func (m *Machine) CurrentName() string { return m.currentName }

// StackNames returns the announced frame names, bottom first.
func (m *Machine) StackNames() []string {
	names := make([]string, 0, m.top+1)
	for i := 0; i <= m.top; i++ {
		names = append(names, m.stack[i].name)
	}
	return names
}

func (m *Machine) topName() string {
	if m.top < 0 {
		return ""
	}
	return m.stack[m.top].name
}

func (m *Machine) stackError(code StackErrorCode) *StackError {
	return &StackError{
		Code:      code,
		MachineID: m.id,
		Depth:     m.top + 1,
		Names:     m.StackNames(),
	}
}

// dumpStack writes every frame to the diagnostic logger.
func (m *Machine) dumpStack(reason string) {
	m.log.Error(reason, "depth", m.top+1, "max_depth", m.maxDepth, "current", m.currentName)
	for i := m.top; i >= 0; i-- {
		name := m.stack[i].name
		if name == "" {
			name = "<unnamed>"
		}
		m.log.Error("stack frame", "index", i, "name", name)
	}
}
