package lobby

// ProtocolVersion is the version string exchanged during greet.
const ProtocolVersion = "0.12"

// Server to client.
const (
	lineVersionReport = "version report"
	lineReady         = "ready"
	linePong          = "pong"
	linePaused        = "paused"
	lineResumed       = "resumed"
	lineBye           = "bye"
	lineGameOver      = "game over"
	lineOK            = "OK"

	fmtPlayerIs        = "player %d is %S"
	fmtPlayerChat      = "player %d chat %S"
	fmtPlayerBuilt     = "player %d built %B %d %d %d"
	fmtPlayerDiscarded = "player %d discarded %r"
	fmtPlayerLeft      = "player %d left"
	fmtRoster          = "roster %d %d %S"
	fmtResources       = "resources %R"

	errUnknownCommand = "ERR unknown command"
	errVersion        = "ERR incompatible version"
	errNameTaken      = "ERR name taken"
	errNameEmpty      = "ERR empty name"
	errPaused         = "ERR paused"
	errNotHost        = "ERR not host"
	errNoResource     = "ERR no %r"
)

// Client to server.
const (
	fmtVersion   = "version %S"
	fmtName      = "name %S"
	fmtBuild     = "build %B %d %d %d"
	fmtSetRes    = "resources %R"
	fmtDiscard   = "discard %r"
	prefixChat   = "chat "
	cmdPing      = "ping"
	cmdPause     = "pause"
	cmdResume    = "resume"
	cmdQuit      = "quit"
	cmdRoster    = "roster"
	cmdGameOver  = "game over"
	cmdResources = "resources"
)
