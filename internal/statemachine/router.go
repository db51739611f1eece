package statemachine

// route delivers ev according to the per-event rules.
//
// The current handler and user data are captured once, before any handler
// runs. A handler that frees the machine stops delivery to the handlers that
// would have followed it.
func (m *Machine) route(ev Event) {
	ud := m.UserData()

	if ev == EventFreed {
		if m.global != nil {
			m.deliver(m.global, TargetGlobal, ud, ev)
		}
		return
	}
	if m.dead {
		return
	}

	var current Handler
	if m.top >= 0 {
		current = m.stack[m.top].handler
	}

	switch ev {
	case EventEnter:
		if current != nil {
			m.deliver(current, TargetState, ud, ev)
		}

	case EventInit:
		if current != nil {
			m.deliver(current, TargetState, ud, ev)
		}
		if !m.dead && m.global != nil {
			m.deliver(m.global, TargetGlobal, ud, ev)
		}

	case EventRecv:
		m.lineOffset = 0
		if current != nil && m.deliver(current, TargetState, ud, ev) {
			return
		}
		if m.dead {
			return
		}
		m.lineOffset = 0
		if m.global != nil && m.deliver(m.global, TargetGlobal, ud, ev) {
			return
		}
		if m.dead {
			return
		}
		m.lineOffset = 0
		if m.unhandled != nil {
			m.deliver(m.unhandled, TargetUnhandled, ud, ev)
		}

	case EventNetClose:
		m.teardown()
		m.deliverDefault(current, ud, ev)

	default:
		m.deliverDefault(current, ud, ev)
	}
}

// deliverDefault covers the connection events: current state, then global.
func (m *Machine) deliverDefault(current Handler, ud any, ev Event) {
	if current != nil {
		m.deliver(current, TargetState, ud, ev)
	}
	if !m.dead && m.global != nil {
		m.deliver(m.global, TargetGlobal, ud, ev)
	}
}

func (m *Machine) deliver(h Handler, target Target, ud any, ev Event) bool {
	if obs := m.driver.Observer; obs != nil {
		d := Dispatch{
			MachineID: m.id,
			Event:     ev,
			Target:    target,
			State:     m.topName(),
			Depth:     m.top + 1,
		}
		if ev == EventRecv {
			d.Line = m.line
		}
		obs.Dispatched(d)
	}
	return h(ud, ev)
}
