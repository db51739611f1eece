// Package harness runs scripted state machine scenarios.
//
// A scenario describes handler behavior declaratively, drives a machine from
// outside with the operations a host and its network session would perform,
// and asserts on the journaled trace, the lines sent and the final stack.
//
// # Scenario Format
//
//	name: pause_resume
//	description: "Pausing pushes a sub-state; resume pops back"
//	states:
//	  idle:
//	    - on: recv
//	      match: "chat %S"
//	      send: ["said %S"]
//	    - on: recv
//	      match: "pause"
//	      push: paused
//	  paused:
//	    - on: recv
//	      match: "resume"
//	      pop: 1
//	global:
//	  - on: recv
//	    match: "ping"
//	    send: ["pong"]
//	unhandled:
//	  - on: recv
//	    send: ["ERR unknown command"]
//	steps:
//	  - op: goto
//	    state: idle
//	  - op: recv
//	    line: "pause"
//	assertions:
//	  - type: final_stack
//	    stack: [idle, paused]
//
// Scripted states announce their name on enter and init, so trace entries
// carry the state that was current when the dispatch happened.
//
// # Steps
//
// goto, push, pop, multipop and pop_all manipulate the stack; connect,
// connect_fail, close and recv are delivered as session notifications;
// cache switches the write cache and free destroys the machine.
//
// # Assertion Types
//
//   - trace_contains: some dispatch matches event/target/state/line
//   - trace_order: "event target state" strings appear in this order
//   - trace_count: exactly count dispatches match
//   - sent: the transmitted lines, exactly
//   - final_stack: the announced stack names, bottom first
//   - fatal: the machine raised a programmer error with this code
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory journal, a logical clock starting at zero
// and sequential machine ids, so traces are identical across runs and can be
// compared against golden files.
package harness
