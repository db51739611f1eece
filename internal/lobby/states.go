package lobby

import (
	"github.com/roach88/pioneers/internal/codec"
	"github.com/roach88/pioneers/internal/statemachine"
)

func stateGreet(ud any, ev statemachine.Event) bool {
	p := ud.(*Player)
	m := p.m

	switch ev {
	case statemachine.EventEnter:
		m.Announce("greet")
		m.Write(lineVersionReport)

	case statemachine.EventRecv:
		vals, ok := m.Recv(fmtVersion)
		if !ok {
			return false
		}
		if vals[0].Str() != ProtocolVersion {
			p.srv.log.Info("version mismatch", "player", p.Num, "version", vals[0].Str())
			m.Write(errVersion)
			p.hangUp()
			return true
		}
		m.Goto(stateName)
		return true
	}
	return false
}

// stateName caches output until the player is registered.
func stateName(ud any, ev statemachine.Event) bool {
	p := ud.(*Player)
	m := p.m

	switch ev {
	case statemachine.EventEnter:
		m.Announce("name")
		m.SetUseCache(true)

	case statemachine.EventRecv:
		vals, ok := m.Recv(fmtName)
		if !ok {
			return false
		}
		name := vals[0].Str()
		switch {
		case name == "":
			m.Write(errNameEmpty)
		case p.srv.nameTaken(name):
			m.Write(errNameTaken)
		default:
			p.Name = name
			if p.srv.host < 0 {
				p.srv.host = p.Num
			}
			p.srv.log.Info("player registered", "player", p.Num, "name", name)
			p.srv.Broadcast(fmtPlayerIs, codec.Int(p.Num), codec.String(name))
			m.SetUseCache(false)
			m.Goto(stateIdle)
		}
		return true
	}
	return false
}

func stateIdle(ud any, ev statemachine.Event) bool {
	p := ud.(*Player)
	m := p.m
	srv := p.srv

	switch ev {
	case statemachine.EventEnter:
		m.Announce("idle")
		m.Write(lineReady)

	case statemachine.EventRecv:
		if _, ok := m.RecvPrefix(prefixChat); ok {
			rest, _ := m.Recv("%S")
			srv.Broadcast(fmtPlayerChat, codec.Int(p.Num), rest[0])
			return true
		}
		if vals, ok := m.Recv(fmtBuild); ok {
			srv.Broadcast(fmtPlayerBuilt, codec.Int(p.Num), vals[0], vals[1], vals[2], vals[3])
			return true
		}
		if vals, ok := m.Recv(fmtSetRes); ok {
			p.Resources = vals[0].Resources()
			m.Write(lineOK)
			return true
		}
		if _, ok := m.Recv(cmdResources); ok {
			m.Send(fmtResources, codec.ResourceList(p.Resources))
			return true
		}
		if vals, ok := m.Recv(fmtDiscard); ok {
			r := vals[0].Resource()
			if p.Resources[r] == 0 {
				m.Send(errNoResource, codec.ResourceName(r))
				return true
			}
			p.Resources[r]--
			srv.Broadcast(fmtPlayerDiscarded, codec.Int(p.Num), codec.ResourceName(r))
			return true
		}
		if _, ok := m.Recv(cmdRoster); ok {
			for _, e := range srv.Roster() {
				paused := 0
				if e.Paused {
					paused = 1
				}
				m.Send(fmtRoster, codec.Int(e.Num), codec.Int(paused), codec.String(e.Name))
			}
			return true
		}
		if _, ok := m.Recv(cmdPause); ok {
			m.Push(statePaused)
			return true
		}
		if _, ok := m.Recv(cmdGameOver); ok {
			if srv.host != p.Num {
				m.Write(errNotHost)
				return true
			}
			srv.GameOver()
			return true
		}
		if _, ok := m.Recv(cmdQuit); ok {
			p.quit()
			return true
		}
	}
	return false
}

// statePaused sits on top of idle; everything but resume, ping and quit is
// refused.
func statePaused(ud any, ev statemachine.Event) bool {
	p := ud.(*Player)
	m := p.m

	switch ev {
	case statemachine.EventEnter:
		m.Announce("paused")
		m.Write(linePaused)

	case statemachine.EventRecv:
		if _, ok := m.Recv(cmdResume); ok {
			m.Write(lineResumed)
			m.Pop()
			return true
		}
		if _, ok := m.Recv(cmdPing); ok {
			return false
		}
		if _, ok := m.Recv(cmdQuit); ok {
			p.quit()
			return true
		}
		m.Write(errPaused)
		return true
	}
	return false
}

func globalHandler(ud any, ev statemachine.Event) bool {
	p := ud.(*Player)
	m := p.m

	switch ev {
	case statemachine.EventRecv:
		if _, ok := m.Recv(cmdPing); ok {
			m.Write(linePong)
			return true
		}

	case statemachine.EventNetClose:
		if p.Name != "" {
			p.srv.Broadcast(fmtPlayerLeft, codec.Int(p.Num))
		}
		m.Free()
		return true

	case statemachine.EventFreed:
		p.srv.remove(p)
		return true
	}
	return false
}

func unhandledHandler(ud any, ev statemachine.Event) bool {
	p := ud.(*Player)
	if ev == statemachine.EventRecv {
		p.m.Write(errUnknownCommand)
		return true
	}
	return false
}

func (p *Player) quit() {
	p.m.Write(lineBye)
	p.hangUp()
}

// hangUp closes the connection once pending output is out. The peer's EOF
// comes back as NET_CLOSE, which frees the machine.
func (p *Player) hangUp() {
	if sess := p.m.Session(); sess != nil {
		if err := sess.CloseWhenFlushed(); err != nil {
			p.srv.log.Debug("close when flushed", "player", p.Num, "error", err)
		}
	}
}
