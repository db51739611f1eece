// Package engine runs state machines on a single-writer event loop.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every state machine operation happens on the goroutine that calls
// Engine.Run. Network goroutines never touch a machine; they Post closures
// (or Enqueue notify events) and the loop executes them in FIFO order. This
// gives the machines the single-threaded execution they assume without any
// locking of their own.
//
// Event Processing Flow:
// 1. A session goroutine reads a line and posts a closure
// 2. Run dequeues events one at a time
// 3. processEvent runs the closure or delivers the notification
// 4. The machine dispatches to its handlers; the journal observer stamps each
//    dispatch and wire line with Clock.Next() and writes it to the store
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Journal rows are stamped with a monotonic seq from Clock. Wall-clock time
// is never used for ordering.
//
// Log and Continue:
// A failing event or journal write is logged with context and the loop moves
// on. One broken connection must not stop the server.
package engine
