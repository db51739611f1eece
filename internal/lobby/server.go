package lobby

import (
	"context"
	"log/slog"
	"sort"

	"github.com/roach88/pioneers/internal/codec"
	"github.com/roach88/pioneers/internal/engine"
	"github.com/roach88/pioneers/internal/netsession"
	"github.com/roach88/pioneers/internal/statemachine"
)

// Server tracks the players connected to one lobby. All methods run on the
// engine loop.
type Server struct {
	engine  *engine.Engine
	log     *slog.Logger
	players map[int]*Player
	nextNum int
	host    int
}

// Player is the user data of one server-side machine.
type Player struct {
	srv *Server
	m   *statemachine.Machine

	Num       int
	Name      string
	Resources codec.Resources
}

// RosterEntry describes one player for diagnostics.
type RosterEntry struct {
	Num    int
	Name   string
	State  string
	Paused bool
}

// NewServer creates a lobby whose machines live on e.
func NewServer(e *engine.Engine) *Server {
	return &Server{
		engine:  e,
		log:     e.Logger().With("component", "lobby"),
		players: make(map[int]*Player),
		host:    -1,
	}
}

// Serve accepts players from ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln *netsession.Listener) error {
	return s.engine.Serve(ctx, ln, "player", s.Join)
}

// Join adopts a freshly connected machine and starts its protocol.
func (s *Server) Join(m *statemachine.Machine) {
	p := &Player{srv: s, m: m, Num: s.nextNum}
	s.nextNum++
	s.players[p.Num] = p

	m.SetUserData(p)
	m.SetGlobalHandler(globalHandler)
	m.SetUnhandledHandler(unhandledHandler)
	s.log.Info("player connected", "player", p.Num, "machine", m.ID())
	m.Goto(stateGreet)
}

// Broadcast sends a formatted line to every registered player.
func (s *Server) Broadcast(format string, args ...codec.Value) {
	for _, p := range s.sorted() {
		if p.Name != "" || p.m.UseCache() {
			p.m.Send(format, args...)
		}
	}
}

// GameOver returns every registered player to idle, discarding any pushed
// states.
func (s *Server) GameOver() {
	s.log.Info("game over")
	for _, p := range s.sorted() {
		if p.Name == "" {
			continue
		}
		p.m.Write(lineGameOver)
		p.m.PopAllAndGoto(stateIdle)
	}
}

// Roster lists players ordered by number.
func (s *Server) Roster() []RosterEntry {
	entries := make([]RosterEntry, 0, len(s.players))
	for _, p := range s.sorted() {
		entries = append(entries, p.rosterEntry())
	}
	return entries
}

// Player returns the player with number num.
func (s *Server) Player(num int) (*Player, bool) {
	p, ok := s.players[num]
	return p, ok
}

// Host returns the number of the host, or -1 before anyone registered.
func (s *Server) Host() int { return s.host }

func (s *Server) nameTaken(name string) bool {
	for _, p := range s.players {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (s *Server) sorted() []*Player {
	ps := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Num < ps[j].Num })
	return ps
}

func (s *Server) remove(p *Player) {
	delete(s.players, p.Num)
	if s.host == p.Num {
		s.host = -1
		for _, q := range s.sorted() {
			if q.Name != "" {
				s.host = q.Num
				break
			}
		}
	}
	s.log.Info("player removed", "player", p.Num, "name", p.Name)
}

// rosterEntry reports the state below a pushed pause, so a paused player
// still shows where they will resume.
func (p *Player) rosterEntry() RosterEntry {
	e := RosterEntry{Num: p.Num, Name: p.Name}
	names := p.m.StackNames()
	if len(names) > 0 {
		e.State = names[len(names)-1]
	}
	if p.m.StackInspect(1) != nil {
		e.Paused = true
		e.State = names[len(names)-2]
	}
	return e
}

// Machine returns the player's state machine.
func (p *Player) Machine() *statemachine.Machine { return p.m }
