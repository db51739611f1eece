package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"b":    int64(2),
		"a":    []any{"x<y", true, 1},
		"list": []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x<y",true,1],"b":2,"list":[]}`, string(data))
}

func TestMarshalCanonical_NormalizesStrings(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	data, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(data))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, map[string]any{"k": nil}, struct{}{}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	r := NewResult()
	r.Trace = []TraceEvent{{Seq: 2, Event: "enter", Target: "state", Depth: 1}}
	r.Freed = true

	data, err := Snapshot("s", r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"freed":true,"scenario_name":"s","sent":[],"stack":[],"trace":[{"depth":1,"event":"enter","seq":2,"target":"state"}]}`,
		string(data))
}
