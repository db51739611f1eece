// Package store is the SQLite dispatch journal.
//
// The engine records three append-only streams:
//   - machines: one row per state machine created (id, role)
//   - dispatches: every handler invocation (event, target slot, state name, depth)
//   - wire: every line sent or received
//
// All rows are stamped with seq from the engine's logical clock and all reads
// are ORDER BY seq ASC, so a journal reads back in the order it happened
// regardless of wall time.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads (pioneers trace) while the server writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: dispatch and wire rows must name a known machine
package store
