package statemachine

import (
	"github.com/roach88/pioneers/internal/testutil"
)

// trace collects "<name>:<event>" entries from scripted handlers.
type trace struct {
	entries []string
}

func (tr *trace) reset() { tr.entries = nil }

// state returns a handler that records every event under name and then runs
// fn, if any. The handler reports fn's result, or false without fn.
func (tr *trace) state(name string, fn func(m *Machine, ev Event) bool) Handler {
	return func(ud any, ev Event) bool {
		m := ud.(*Machine)
		if ev == EventEnter || ev == EventInit {
			m.Announce(name)
		}
		tr.entries = append(tr.entries, name+":"+ev.String())
		if fn != nil {
			return fn(m, ev)
		}
		return false
	}
}

// hook is state without Announce, for the global and unhandled slots.
func (tr *trace) hook(name string, fn func(m *Machine, ev Event) bool) Handler {
	return func(ud any, ev Event) bool {
		tr.entries = append(tr.entries, name+":"+ev.String())
		if fn != nil {
			return fn(ud.(*Machine), ev)
		}
		return false
	}
}

// fatalCatcher records fatal errors instead of panicking.
type fatalCatcher struct {
	errs []error
}

func (f *fatalCatcher) fatal(err error) { f.errs = append(f.errs, err) }

func (f *fatalCatcher) last() error {
	if len(f.errs) == 0 {
		return nil
	}
	return f.errs[len(f.errs)-1]
}

// recordingObserver captures dispatches and wire traffic.
type recordingObserver struct {
	dispatches []Dispatch
	wire       []string
	freed      []string
}

func (o *recordingObserver) Dispatched(d Dispatch) { o.dispatches = append(o.dispatches, d) }

func (o *recordingObserver) Transmitted(_ string, dir Direction, line string) {
	o.wire = append(o.wire, string(dir)+" "+line)
}

func (o *recordingObserver) Freed(id string) { o.freed = append(o.freed, id) }

// newTestMachine builds a machine with a global handler, a fatal catcher and
// an attached fake session.
func newTestMachine(tr *trace, opts ...Option) (*Machine, *fatalCatcher, *testutil.FakeSession) {
	fc := &fatalCatcher{}
	m := New(Driver{Fatal: fc.fatal}, opts...)
	m.SetGlobalHandler(tr.hook("global", nil))
	sess := testutil.NewFakeSession()
	m.Attach(sess)
	return m, fc, sess
}
