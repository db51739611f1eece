package lobby

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pioneers/internal/engine"
	"github.com/roach88/pioneers/internal/statemachine"
	"github.com/roach88/pioneers/internal/testutil"
)

// lobbyFixture drives a Server directly from the test goroutine, which plays
// the engine loop.
type lobbyFixture struct {
	t   *testing.T
	e   *engine.Engine
	srv *Server
}

func newLobbyFixture(t *testing.T) *lobbyFixture {
	e := engine.New(
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithIDGenerator(testutil.NewSequentialIDs("p")),
	)
	return &lobbyFixture{t: t, e: e, srv: NewServer(e)}
}

type conn struct {
	m    *statemachine.Machine
	sess *testutil.FakeSession
}

func (c *conn) say(line string) { c.m.Notify(statemachine.NetRead, line) }

// take returns and clears the lines sent so far.
func (c *conn) take() []string {
	lines := c.sess.Lines
	c.sess.Lines = nil
	return lines
}

func (f *lobbyFixture) connect() *conn {
	m := f.e.NewMachine("player")
	sess := testutil.NewFakeSession()
	m.Attach(sess)
	f.srv.Join(m)
	return &conn{m: m, sess: sess}
}

// register connects a player and walks it to idle.
func (f *lobbyFixture) register(name string) *conn {
	c := f.connect()
	c.say("version " + ProtocolVersion)
	c.say("name " + name)
	require.Equal(f.t, "idle", c.m.CurrentName())
	c.take()
	return c
}

func TestGreet_SendsVersionReport(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.connect()

	assert.Equal(t, []string{"version report"}, c.take())
	assert.Equal(t, "greet", c.m.CurrentName())
}

func TestGreet_RejectsIncompatibleVersion(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.connect()
	c.take()

	c.say("version 0.1")

	assert.Equal(t, []string{"ERR incompatible version"}, c.take())
	assert.True(t, c.sess.Flushed)
	assert.Equal(t, "greet", c.m.CurrentName())
}

func TestGreet_UnknownLine(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.connect()
	c.take()

	c.say("hello?")

	assert.Equal(t, []string{"ERR unknown command"}, c.take())
}

func TestRegister(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.connect()
	c.take()

	c.say("version " + ProtocolVersion)
	assert.Equal(t, "name", c.m.CurrentName())
	assert.True(t, c.m.UseCache())

	c.say("name alice")

	assert.Equal(t, []string{"player 0 is alice", "ready"}, c.take())
	assert.False(t, c.m.UseCache())
	assert.Equal(t, 0, f.srv.Host())
}

func TestRegister_CachesBroadcastsUntilNamed(t *testing.T) {
	f := newLobbyFixture(t)
	alice := f.register("alice")

	bob := f.connect()
	bob.say("version " + ProtocolVersion)
	bob.take()

	alice.say("chat hello all")
	bob.say("name alice")
	bob.say("name")

	assert.Equal(t, []string{"player 0 chat hello all"}, alice.take())
	assert.Empty(t, bob.sess.Lines, "bob's output is cached while registering")
	assert.Equal(t, 3, bob.m.CacheLen())

	bob.say("name bob")

	assert.Equal(t, []string{
		"player 0 chat hello all",
		"ERR name taken",
		"ERR unknown command",
		"player 1 is bob",
		"ready",
	}, bob.take())
	assert.Equal(t, []string{"player 1 is bob"}, alice.take())
}

func TestRegister_EmptyName(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.connect()
	c.say("version " + ProtocolVersion)
	c.say("name ")
	c.say("name carol")

	assert.Equal(t, []string{
		"version report",
		"ERR empty name",
		"player 0 is carol",
		"ready",
	}, c.take())
}

func TestIdle_Build(t *testing.T) {
	f := newLobbyFixture(t)
	alice := f.register("alice")
	bob := f.register("bob")
	alice.take()

	bob.say("build city_wall 4 5 1")

	want := []string{"player 1 built city_wall 4 5 1"}
	assert.Equal(t, want, alice.take())
	assert.Equal(t, want, bob.take())
}

func TestIdle_Resources(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.register("alice")

	c.say("resources 1 0 3 0 2")
	c.say("resources")
	c.say("discard grain")
	c.say("discard ore")
	c.say("resources")

	assert.Equal(t, []string{
		"OK",
		"resources 1 0 3 0 2",
		"ERR no grain",
		"player 0 discarded ore",
		"resources 1 0 2 0 2",
	}, c.take())
}

func TestIdle_UnknownCommandAndPing(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.register("alice")

	c.say("dance")
	c.say("ping")

	assert.Equal(t, []string{"ERR unknown command", "pong"}, c.take())
}

func TestPauseResume(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.register("alice")

	c.say("pause")
	assert.Equal(t, 2, c.m.Depth())
	assert.Equal(t, []RosterEntry{{Num: 0, Name: "alice", State: "idle", Paused: true}}, f.srv.Roster())

	c.say("chat anyone?")
	c.say("ping")
	c.say("resume")

	assert.Equal(t, []string{"paused", "ERR paused", "pong", "resumed", "ready"}, c.take())
	assert.Equal(t, 1, c.m.Depth())
	assert.Equal(t, []RosterEntry{{Num: 0, Name: "alice", State: "idle"}}, f.srv.Roster())
}

func TestRosterCommand(t *testing.T) {
	f := newLobbyFixture(t)
	alice := f.register("alice")
	bob := f.register("bob")
	bob.say("pause")
	alice.take()

	alice.say("roster")

	assert.Equal(t, []string{"roster 0 0 alice", "roster 1 1 bob"}, alice.take())
}

func TestGameOver(t *testing.T) {
	f := newLobbyFixture(t)
	alice := f.register("alice")
	bob := f.register("bob")
	alice.take()

	bob.say("game over")
	assert.Equal(t, []string{"ERR not host"}, bob.take())

	bob.say("pause")
	bob.take()
	require.Equal(t, 2, bob.m.Depth())

	alice.say("game over")

	assert.Equal(t, []string{"game over", "ready"}, alice.take())
	assert.Equal(t, []string{"game over", "ready"}, bob.take())
	assert.Equal(t, 1, bob.m.Depth())
	assert.Equal(t, "idle", bob.m.CurrentName())
}

func TestNetClose_LeavesAndFrees(t *testing.T) {
	f := newLobbyFixture(t)
	alice := f.register("alice")
	bob := f.register("bob")
	alice.take()

	alice.m.Notify(statemachine.NetClose, "")

	assert.Equal(t, []string{"player 0 left"}, bob.take())
	assert.True(t, alice.m.Dead())
	assert.True(t, alice.sess.Closed)
	assert.Equal(t, []RosterEntry{{Num: 1, Name: "bob", State: "idle"}}, f.srv.Roster())
	assert.Equal(t, 1, f.srv.Host(), "host passes to the next registered player")
	assert.Equal(t, []string{"p-2"}, f.e.MachineIDs())

	_, ok := f.srv.Player(0)
	assert.False(t, ok)
}

func TestQuit(t *testing.T) {
	f := newLobbyFixture(t)
	c := f.register("alice")

	c.say("pause")
	c.say("quit")

	assert.Equal(t, []string{"paused", "bye"}, c.take())
	assert.True(t, c.sess.Flushed)
}
