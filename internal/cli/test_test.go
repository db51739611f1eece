package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoScenario = `name: echo
states:
  idle:
    - on: recv
      match: "hello"
      send: ["hi"]
steps:
  - op: goto
    state: idle
  - op: recv
    line: "hello"
assertions:
  - type: sent
    lines: ["hi"]
`

const brokenScenario = `name: broken
states:
  idle: []
steps:
  - op: goto
    state: idle
assertions:
  - type: sent
    lines: ["never"]
`

func writeScenario(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0644))
}

func runTestCommand(format string, args ...string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand("text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	buf, err := runTestCommand("text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found.")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	buf, err := runTestCommand("json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandPassing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "echo.yaml", echoScenario)

	buf, err := runTestCommand("text", dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ echo")
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "echo.yaml", echoScenario)
	writeScenario(t, dir, "broken.yaml", brokenScenario)

	buf, err := runTestCommand("text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ broken")
	assert.Contains(t, buf.String(), "Assertion failed: sent")
	assert.Contains(t, buf.String(), "1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", brokenScenario)

	buf, err := runTestCommand("json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad.yaml", "name: bad\nbogus: true\n")

	buf, err := runTestCommand("text", dir)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "✗ bad.yaml")
	assert.Contains(t, buf.String(), "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "echo.yaml", echoScenario)

	buf, err := runTestCommand("text", "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ echo (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "echo.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(golden), `{"freed":false,"scenario_name":"echo",`))
	assert.Contains(t, string(golden), `"sent":["hi"]`)

	_, err = runTestCommand("text", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"stale":true}`), 0644))
	buf, err = runTestCommand("text", dir)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "trace does not match golden file")
}

func TestTestHelpText(t *testing.T) {
	buf, err := runTestCommand("text", "--help")
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "--update")
	assert.Contains(t, output, "--filter")
	assert.Contains(t, output, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "golden")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	writeScenario(t, tmpDir, "lobby_chat.yaml", "")
	writeScenario(t, tmpDir, "lobby_join.yml", "")
	writeScenario(t, tmpDir, "too_slow.yaml", "")
	writeScenario(t, tmpDir, "notes.txt", "")
	writeScenario(t, subDir, "lobby_chat.golden", "")

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(tmpDir, "lobby_*")
	require.NoError(t, err)
	assert.Len(t, files, 2)
	for _, f := range files {
		assert.True(t, strings.HasPrefix(filepath.Base(f), "lobby_"), f)
	}

	_, err = findScenarioFiles(tmpDir, "[")
	require.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "echo.golden"), goldenFilePath("scenarios", "echo"))
}
