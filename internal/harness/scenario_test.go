package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "smallest valid scenario"
states:
  idle: []
steps:
  - op: goto
    state: idle
assertions:
  - type: final_stack
    stack: [idle]
`

func TestLoadScenario_Valid(t *testing.T) {
	s := loadTestScenario(t, "lobby_chat")

	assert.Equal(t, "lobby_chat", s.Name)
	assert.Len(t, s.States, 2)
	require.Len(t, s.States["greet"], 1)
	assert.Equal(t, "version %S", s.States["greet"][0].Match)
	assert.Equal(t, "idle", s.States["greet"][0].Goto)
	assert.Len(t, s.Global, 1)
	assert.Len(t, s.Unhandled, 1)
	assert.Len(t, s.Steps, 5)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
description: d
states: {idle: []}
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: "name is required",
		},
		{
			name: "no states",
			yaml: `
name: n
description: d
steps: [{op: pop}]
assertions: [{type: sent}]
`,
			want: "states map is required",
		},
		{
			name: "unknown event",
			yaml: `
name: n
description: d
states:
  idle: [{on: tick}]
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: `states.idle[0]: unknown event "tick"`,
		},
		{
			name: "freed outside global",
			yaml: `
name: n
description: d
states:
  idle: [{on: freed}]
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: "freed is only delivered to the global handler",
		},
		{
			name: "match on non-recv",
			yaml: `
name: n
description: d
states:
  idle: [{on: enter, match: "x"}]
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: "match is only valid for recv",
		},
		{
			name: "send directives differ from match",
			yaml: `
name: n
description: d
states:
  idle: [{on: recv, match: "chat %S", send: ["n %d"]}]
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: "do not match",
		},
		{
			name: "bad directive",
			yaml: `
name: n
description: d
states:
  idle: [{on: recv, match: "x %q"}]
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: "match: codec",
		},
		{
			name: "unknown transition target",
			yaml: `
name: n
description: d
states:
  idle: [{on: recv, goto: nowhere}]
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: `unknown state "nowhere"`,
		},
		{
			name: "two transitions",
			yaml: `
name: n
description: d
states:
  idle: [{on: recv, goto: idle, free: true}]
steps: [{op: goto, state: idle}]
assertions: [{type: sent}]
`,
			want: "at most one of",
		},
		{
			name: "unknown op",
			yaml: `
name: n
description: d
states: {idle: []}
steps: [{op: jump}]
assertions: [{type: sent}]
`,
			want: `steps[0]: unknown op "jump"`,
		},
		{
			name: "multipop without count",
			yaml: `
name: n
description: d
states: {idle: []}
steps: [{op: multipop}]
assertions: [{type: sent}]
`,
			want: "count must be positive",
		},
		{
			name: "cache without enabled",
			yaml: `
name: n
description: d
states: {idle: []}
steps: [{op: cache}]
assertions: [{type: sent}]
`,
			want: "enabled is required",
		},
		{
			name: "unknown assertion",
			yaml: `
name: n
description: d
states: {idle: []}
steps: [{op: pop}]
assertions: [{type: final_state}]
`,
			want: `unknown assertion type "final_state"`,
		},
		{
			name: "empty trace_contains",
			yaml: `
name: n
description: d
states: {idle: []}
steps: [{op: pop}]
assertions: [{type: trace_contains}]
`,
			want: "needs at least one of",
		},
		{
			name: "fatal without code",
			yaml: `
name: n
description: d
states: {idle: []}
steps: [{op: pop}]
assertions: [{type: fatal}]
`,
			want: "code is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
