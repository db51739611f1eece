package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested machine does not exist.
var ErrNotFound = errors.New("store: not found")

// ReadMachine returns one machine by id.
func (s *Store) ReadMachine(ctx context.Context, id string) (Machine, error) {
	var m Machine
	err := s.db.QueryRowContext(ctx, `
		SELECT id, role, seq FROM machines WHERE id = ?
	`, id).Scan(&m.ID, &m.Role, &m.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Machine{}, fmt.Errorf("machine %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Machine{}, fmt.Errorf("read machine %s: %w", id, err)
	}
	return m, nil
}

// ReadMachines returns every registered machine in creation order.
//
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ReadMachines(ctx context.Context) ([]Machine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, seq FROM machines ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	machines := []Machine{}
	for rows.Next() {
		var m Machine
		if err := rows.Scan(&m.ID, &m.Role, &m.Seq); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate machines: %w", err)
	}
	return machines, nil
}

// ReadDispatches returns the dispatches of machineID, or of every machine
// when machineID is empty, ordered by seq.
func (s *Store) ReadDispatches(ctx context.Context, machineID string) ([]Dispatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, machine_id, event, target, state, depth, line
		FROM dispatches
		WHERE ? = '' OR machine_id = ?
		ORDER BY seq ASC
	`, machineID, machineID)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := []Dispatch{}
	for rows.Next() {
		var d Dispatch
		if err := rows.Scan(&d.Seq, &d.MachineID, &d.Event, &d.Target, &d.State, &d.Depth, &d.Line); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		dispatches = append(dispatches, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return dispatches, nil
}

// ReadWire returns the wire lines of machineID, or of every machine when
// machineID is empty, ordered by seq.
func (s *Store) ReadWire(ctx context.Context, machineID string) ([]Wire, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, machine_id, direction, line
		FROM wire
		WHERE ? = '' OR machine_id = ?
		ORDER BY seq ASC
	`, machineID, machineID)
	if err != nil {
		return nil, fmt.Errorf("query wire: %w", err)
	}
	defer rows.Close()

	lines := []Wire{}
	for rows.Next() {
		var w Wire
		if err := rows.Scan(&w.Seq, &w.MachineID, &w.Direction, &w.Line); err != nil {
			return nil, fmt.Errorf("scan wire: %w", err)
		}
		lines = append(lines, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wire: %w", err)
	}
	return lines, nil
}
