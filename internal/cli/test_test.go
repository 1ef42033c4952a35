package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tickScenario = `name: ticks
description: a periodical trigger counts
inline:
  - name: ticker
    triggers:
      - event: every 5 seconds
        code: |
          n := get("n")
          if n == nil { n = 0 }
          set("n", n + 1)
steps:
  - advance: 5s
  - advance: 5s
assertions:
  - type: variable
    name: n
    equals: 2
`

func scenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "ticks.yaml", tickScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	writeFile(t, filepath.Join(dir, "scripts"), "helper.yaml", "name: helper\ntriggers: []\n")
	return dir
}

func TestTestCommand_PassesAndSkipsScripts(t *testing.T) {
	dir := scenarioDir(t)

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ ticks\n\n1 passed, 0 failed, 1 total\n", out)
}

func TestTestCommand_UpdateThenCompareGolden(t *testing.T) {
	dir := scenarioDir(t)

	out, _, err := execute(t, "test", "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ticks (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "ticks.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "ticks"`)

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FailingAssertionJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wrong.yaml", `name: wrong
description: expects the wrong count
inline:
  - name: s
    triggers:
      - event: load
        code: set("n", 1)
assertions:
  - type: variable
    name: n
    equals: 2
`)

	out, _, err := execute(t, "--format", "json", "test", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "wrong", resp.Data.Scenarios[0].Name)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := scenarioDir(t)

	out, _, err := execute(t, "test", "--filter", "other-*", dir)
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommand_MissingPath(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "golden", "ticks.golden"), goldenFilePath(filepath.Join("a", "ticks.yaml")))
}
