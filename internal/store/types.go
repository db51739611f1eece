package store

// Machine records the creation of a state machine.
type Machine struct {
	ID   string
	Role string
	Seq  int64
}

// Dispatch records one handler invocation.
type Dispatch struct {
	Seq       int64
	MachineID string
	Event     string
	// Target is "state", "global" or "unhandled".
	Target string
	State  string
	Depth  int
	// Line is only set for recv dispatches.
	Line string
}

// Wire records one line crossing the session.
type Wire struct {
	Seq       int64
	MachineID string
	// Direction is "in" or "out".
	Direction string
	Line      string
}
