package engine

import (
	"github.com/roach88/pioneers/internal/statemachine"
	"github.com/roach88/pioneers/internal/store"
)

// journal is the statemachine.Observer installed on every engine machine. It
// stamps records with the engine clock and writes them to the store, and it
// forgets machines once they are freed.
type journal struct {
	engine *Engine
}

func (j *journal) machineCreated(id, role string) {
	e := j.engine
	seq := e.clock.Next()
	if e.store == nil {
		return
	}
	if err := e.store.WriteMachine(e.ctx, store.Machine{ID: id, Role: role, Seq: seq}); err != nil {
		j.fail(id, "write machine", err)
	}
}

// Dispatched implements statemachine.Observer.
func (j *journal) Dispatched(d statemachine.Dispatch) {
	e := j.engine
	seq := e.clock.Next()

	if e.store != nil {
		err := e.store.WriteDispatch(e.ctx, store.Dispatch{
			Seq:       seq,
			MachineID: d.MachineID,
			Event:     d.Event.String(),
			Target:    string(d.Target),
			State:     d.State,
			Depth:     d.Depth,
			Line:      d.Line,
		})
		if err != nil {
			j.fail(d.MachineID, "write dispatch", err)
		}
	}
}

// Freed implements statemachine.Observer.
func (j *journal) Freed(machineID string) {
	delete(j.engine.machines, machineID)
}

// Transmitted implements statemachine.Observer.
func (j *journal) Transmitted(machineID string, dir statemachine.Direction, line string) {
	e := j.engine
	seq := e.clock.Next()
	if e.store == nil {
		return
	}
	err := e.store.WriteWire(e.ctx, store.Wire{
		Seq:       seq,
		MachineID: machineID,
		Direction: string(dir),
		Line:      line,
	})
	if err != nil {
		j.fail(machineID, "write wire", err)
	}
}

// fail logs and continues.
func (j *journal) fail(machineID, msg string, err error) {
	j.engine.log.Error("journal write failed",
		"error", &RuntimeError{Code: ErrCodeJournal, Message: msg, MachineID: machineID, Err: err},
	)
}
