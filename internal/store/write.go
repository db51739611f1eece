package store

import (
	"context"
	"fmt"
)

// WriteMachine registers a machine. Registering the same id twice is a no-op.
func (s *Store) WriteMachine(ctx context.Context, m Machine) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO machines (id, role, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, m.ID, m.Role, m.Seq)
	if err != nil {
		return fmt.Errorf("write machine %s: %w", m.ID, err)
	}
	return nil
}

// WriteDispatch appends a dispatch record. The machine must be registered.
func (s *Store) WriteDispatch(ctx context.Context, d Dispatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatches (seq, machine_id, event, target, state, depth, line)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.Seq, d.MachineID, d.Event, d.Target, d.State, d.Depth, d.Line)
	if err != nil {
		return fmt.Errorf("write dispatch seq=%d: %w", d.Seq, err)
	}
	return nil
}

// WriteWire appends a wire record. The machine must be registered.
func (s *Store) WriteWire(ctx context.Context, w Wire) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wire (seq, machine_id, direction, line)
		VALUES (?, ?, ?, ?)
	`, w.Seq, w.MachineID, w.Direction, w.Line)
	if err != nil {
		return fmt.Errorf("write wire seq=%d: %w", w.Seq, err)
	}
	return nil
}
