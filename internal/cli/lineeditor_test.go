package cli

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineEditor_NonInteractive(t *testing.T) {
	le := NewLineEditor(strings.NewReader("chat hello\n\nquit"), "")
	defer le.Close()

	assert.False(t, le.IsInteractive())

	var got []string
	for {
		line, err := le.GetLine("> ")
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, line)
	}
	assert.Equal(t, []string{"chat hello", "", "quit"}, got)
}
