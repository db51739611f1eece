// Package netsession implements statemachine.Session over TCP.
//
// A Session owns one net.Conn, a reader goroutine and a writer goroutine.
// Neither goroutine touches the state machine: every notification is handed
// to a Poster (the engine loop) as a closure and runs on the loop goroutine.
// The closure re-checks whether the session was released in the meantime, so
// once Close returns the machine never hears from the session again.
//
// Lines are newline terminated on the wire. The reader strips "\n" and an
// optional preceding "\r"; the writer appends "\n".
package netsession
