package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pingScenario = `name: ping_only
backend:
  - method: GET
    path: /api/v1beta1/system/status
    replies:
      - status: 200
flow:
  - op: ping
assertions:
  - type: request_count
    method: GET
    path: /api/v1beta1/system/status
    count: 1
`

const failingScenario = `name: wrong_count
backend:
  - method: GET
    path: /api/v1beta1/system/status
    replies:
      - status: 200
flow:
  - op: ping
assertions:
  - type: request_count
    method: GET
    path: /api/v1beta1/system/status
    count: 3
`

func newTestCmd(format string, args ...string) (*bytes.Buffer, func() error) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, run := newTestCmd("text")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, run := newTestCmd("text", "/nonexistent/scenarios")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	buf, run := newTestCmd("text", t.TempDir())

	require.NoError(t, run())
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	buf, run := newTestCmd("json", t.TempDir())

	require.NoError(t, run())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandHelp(t *testing.T) {
	buf, run := newTestCmd("text", "--help")

	require.NoError(t, run())
	help := buf.String()
	assert.Contains(t, help, "scenarios-dir")
	assert.Contains(t, help, "--update")
	assert.Contains(t, help, "--filter")
}

func TestGoldenFilePath(t *testing.T) {
	tests := []struct {
		scenario string
		want     string
	}{
		{"scenarios/ping.yaml", filepath.Join("scenarios", "golden", "ping.golden")},
		{"/abs/dir/delete_conflict.yml", filepath.Join("/abs/dir", "golden", "delete_conflict.golden")},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			assert.Equal(t, tt.want, goldenFilePath(tt.scenario))
		})
	}
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.yaml"), []byte(pingScenario), 0644))

	buf, run := newTestCmd("text", dir, "--update")
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "ping_only (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "ping.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"name":"ping_only"`)

	// A second run compares against the file just written.
	buf, run = newTestCmd("text", dir)
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "All scenarios passed")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.yaml"), []byte(pingScenario), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "ping.golden"), []byte(`{}`), 0644))

	buf, run := newTestCmd("text", dir)
	err := run()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "trace does not match golden file")
}

func TestTestCommandFailingAssertionJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.yaml"), []byte(pingScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(failingScenario), 0644))

	buf, run := newTestCmd("json", dir)
	err := run()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ping.yaml"), []byte(pingScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(failingScenario), 0644))

	buf, run := newTestCmd("text", dir, "--filter", "pin*")
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}
