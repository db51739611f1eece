package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const historySize = 500

// LineEditor reads user input. On a terminal it uses readline with
// persistent history; otherwise (pipes, tests, INSIDE_EMACS) it scans lines
// from the input reader.
type LineEditor struct {
	interactive bool
	rl          *readline.Instance
	scanner     *bufio.Scanner
}

// NewLineEditor picks the interactive editor when in is a terminal.
// historyFile may be empty to disable history.
func NewLineEditor(in io.Reader, historyFile string) *LineEditor {
	f, isFile := in.(*os.File)
	interactive := isFile && term.IsTerminal(int(f.Fd())) && os.Getenv("INSIDE_EMACS") == ""
	if !interactive {
		return &LineEditor{scanner: bufio.NewScanner(in)}
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyFile,
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return &LineEditor{scanner: bufio.NewScanner(in)}
	}
	return &LineEditor{interactive: true, rl: rl}
}

// GetLine returns the next line without its terminator. Ctrl-C and end of
// input both return io.EOF.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		le.rl.SetPrompt(prompt)
		line, err := le.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				return "", io.EOF
			}
			return "", err
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			le.rl.SaveToHistory(trimmed)
		}
		return line, nil
	}

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close restores the terminal.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether readline is in use.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
