// Package statemachine implements the per-connection dispatcher that drives
// every pioneers participant: game server players, human and AI clients and
// meta-server registration.
//
// ARCHITECTURE:
//
// A Machine owns a stack of state handlers. The top frame is the current
// state; lower frames are states the participant will return to (for example
// a player temporarily inside a trade dialog). Network notifications from the
// owned Session are translated into Events, routed to the current state, then
// to the global handler and, for unmatched input lines, to the unhandled
// handler.
//
// Event Processing Flow:
//  1. Session calls Notify (connect, connect failure, close, line read)
//  2. Notify raises the matching Event through the router
//  3. Handlers parse the line with Recv / RecvPrefix and answer with Send
//  4. Handlers move between states with Goto / Push / Pop
//  5. Notify finishes with a trailing EventInit (the settle pass)
//
// CRITICAL PATTERNS:
//
// Run-to-completion: a Machine is not safe for concurrent use. All calls must
// happen on one goroutine; internal/engine provides that goroutine for
// network-driven machines.
//
// Re-entrancy guard: every public entry point that may call handlers brackets
// its body with the use count. Free called from inside a handler only marks
// the machine dead; the outermost call finishes destruction and raises
// EventFreed to the global handler.
//
// Fail-fast: stack overflow and underflow are design bugs, not runtime
// conditions. They dump the stack to the driver's logger and invoke the
// driver's Fatal hook (panic by default).
package statemachine
