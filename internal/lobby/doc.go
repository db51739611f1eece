// Package lobby is the pre-game protocol of a pioneers server and client,
// built from statemachine states.
//
// Server side, each connection walks
//
//	greet -> name -> idle <-> paused
//
// greet sends "version report" and waits for a compatible "version %S".
// name turns the write cache on so broadcasts queue up until the player has
// registered, then flushes them. idle handles chat, builds, resources and
// discards; "pause" pushes paused on top of idle and "resume" pops it. The
// global handler answers "ping" from any state and handles connection loss;
// the unhandled handler answers "ERR unknown command". When the host (the
// first player to register) sends "game over" every player is reset to idle
// with PopAllAndGoto.
//
// Client side, a Client dials, answers the version report, registers its
// name and then relays lines in both directions.
package lobby
