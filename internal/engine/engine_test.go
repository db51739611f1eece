package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pioneers/internal/netsession"
	"github.com/roach88/pioneers/internal/statemachine"
	"github.com/roach88/pioneers/internal/store"
	"github.com/roach88/pioneers/internal/testutil"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	base := []EngineOption{
		WithLogger(quietLogger()),
		WithIDGenerator(testutil.NewSequentialIDs("m")),
	}
	return New(append(base, opts...)...)
}

func TestRunPending_ProcessesCascades(t *testing.T) {
	e := newTestEngine(t)

	var order []string
	e.Post(func() {
		order = append(order, "first")
		e.Post(func() { order = append(order, "cascade") })
	})
	e.Post(func() { order = append(order, "second") })

	assert.Equal(t, 3, e.RunPending())
	assert.Equal(t, []string{"first", "second", "cascade"}, order)
	assert.Zero(t, e.QueueLen())
}

func TestRun_StopsOnCancel(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	e.Post(func() { close(done) })

	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("posted task never ran")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.False(t, e.Post(func() {}), "post after stop should fail")
}

func TestRun_StopDrainsQueue(t *testing.T) {
	e := newTestEngine(t)

	ran := 0
	for i := 0; i < 3; i++ {
		e.Post(func() { ran++ })
	}
	e.Stop()

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, ran)
}

func TestProcessEvent_Malformed(t *testing.T) {
	e := newTestEngine(t)

	err := e.processEvent(Event{Type: EventTypeTask})
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeMalformedEvent, re.Code)

	err = e.processEvent(Event{Type: EventTypeNotify})
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeMalformedEvent, re.Code)

	err = e.processEvent(Event{Type: EventType(42)})
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeUnknownEvent, re.Code)
	assert.Contains(t, re.Error(), "UNKNOWN_EVENT")

	// Log and continue.
	e.Enqueue(Event{Type: EventType(42)})
	assert.Equal(t, 1, e.RunPending())
}

func TestNewMachine_JournalsDispatchesAndWire(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, WithStore(s))
	ctx := context.Background()

	m := e.NewMachine("player")
	assert.Equal(t, "m-1", m.ID())
	sess := testutil.NewFakeSession()
	m.Attach(sess)

	m.SetGlobalHandler(func(any, statemachine.Event) bool { return false })
	m.Goto(func(ud any, ev statemachine.Event) bool {
		mm := ud.(*statemachine.Machine)
		switch ev {
		case statemachine.EventEnter:
			mm.Announce("greet")
		case statemachine.EventRecv:
			mm.Write("welcome")
			return true
		}
		return false
	})

	notify := e.Notifier(m)
	notify(statemachine.NetRead, "hello")
	e.RunPending()

	assert.Equal(t, []string{"welcome"}, sess.Lines)

	machines, err := s.ReadMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 1)
	assert.Equal(t, store.Machine{ID: "m-1", Role: "player", Seq: 1}, machines[0])

	dispatches, err := s.ReadDispatches(ctx, "m-1")
	require.NoError(t, err)
	var got []string
	for _, d := range dispatches {
		got = append(got, d.Event+" "+d.Target+" "+d.State)
	}
	assert.Equal(t, []string{
		"enter state ",
		"init state greet",
		"init global greet",
		"recv state greet",
		"init state greet",
		"init global greet",
	}, got)
	assert.Equal(t, "hello", dispatches[3].Line)

	wire, err := s.ReadWire(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, wire, 2)
	assert.Equal(t, "in", wire[0].Direction)
	assert.Equal(t, "hello", wire[0].Line)
	assert.Equal(t, "out", wire[1].Direction)
	assert.Equal(t, "welcome", wire[1].Line)

	// Every row got a distinct, increasing seq.
	assert.Less(t, wire[0].Seq, dispatches[3].Seq)
	assert.Less(t, dispatches[3].Seq, wire[1].Seq)
}

func TestNew_ResumesClockFromJournal(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.WriteMachine(context.Background(), store.Machine{ID: "old", Role: "player", Seq: 17}))

	e := newTestEngine(t, WithStore(s))
	assert.Equal(t, int64(17), e.Clock().Current())

	explicit := newTestEngine(t, WithStore(s), WithClock(NewClockAt(100)))
	assert.Equal(t, int64(100), explicit.Clock().Current())
}

func TestMachineRegistry_ForgetsFreedMachines(t *testing.T) {
	e := newTestEngine(t)

	a := e.NewMachine("player")
	b := e.NewMachine("player")
	assert.Equal(t, []string{"m-1", "m-2"}, e.MachineIDs())

	a.Free()
	assert.Equal(t, []string{"m-2"}, e.MachineIDs())
	_, ok := e.Machine("m-1")
	assert.False(t, ok)

	got, ok := e.Machine("m-2")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestNewMachine_AppliesLimits(t *testing.T) {
	var fatal error
	e := newTestEngine(t, WithMachineLimits(2, 0), WithFatal(func(err error) { fatal = err }))

	m := e.NewMachine("player")
	noop := func(any, statemachine.Event) bool { return false }
	m.Goto(noop)
	m.Push(noop)
	require.NoError(t, fatal)

	m.Push(noop)
	assert.True(t, statemachine.IsOverflowError(fatal))
}

func TestReadyHook(t *testing.T) {
	calls := 0
	e := newTestEngine(t, WithReady(func() { calls++ }))

	m := e.NewMachine("client")
	noop := func(any, statemachine.Event) bool { return false }
	m.Goto(noop)
	m.Goto(noop)

	assert.Equal(t, 1, calls)
}

func TestServe_AcceptsAndConnects(t *testing.T) {
	e := newTestEngine(t, WithDialTimeout(2*time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := netsession.Listen("127.0.0.1:0")
	require.NoError(t, err)

	serverLines := make(chan string, 4)
	go e.Serve(ctx, ln, "player", func(m *statemachine.Machine) {
		m.Goto(func(ud any, ev statemachine.Event) bool {
			mm := ud.(*statemachine.Machine)
			switch ev {
			case statemachine.EventEnter:
				mm.Write("welcome")
			case statemachine.EventRecv:
				serverLines <- mm.Line()
				return true
			}
			return false
		})
	})
	go e.Run(ctx)

	clientEvents := make(chan string, 4)
	e.Post(func() {
		c := e.NewMachine("client")
		c.Goto(func(ud any, ev statemachine.Event) bool {
			mm := ud.(*statemachine.Machine)
			switch ev {
			case statemachine.EventNetConnect:
				clientEvents <- "connect"
				mm.Write("hello server")
			case statemachine.EventRecv:
				clientEvents <- "recv " + mm.Line()
				return true
			}
			return false
		})
		assert.NoError(t, c.Connect(ln.Addr()))
	})

	want := map[string]bool{"connect": false, "recv welcome": false}
	deadline := time.After(5 * time.Second)
	for seen := 0; seen < len(want); seen++ {
		select {
		case ev := <-clientEvents:
			_, known := want[ev]
			require.True(t, known, "unexpected client event %q", ev)
			want[ev] = true
		case <-deadline:
			t.Fatalf("client events so far: %v", want)
		}
	}

	select {
	case line := <-serverLines:
		assert.Equal(t, "hello server", line)
	case <-deadline:
		t.Fatal("server never received the client's line")
	}
}
