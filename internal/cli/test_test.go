package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTest_ScenariosPass(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "testdata/scenarios")
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ node_replacement")
	assert.Contains(t, out, "✓ sidebar")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTest_Filter(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), "testdata/scenarios", "--filter", "side*")
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "sidebar", resp.Data.Scenarios[0].Name)
}

func TestTest_FailingScenario(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	scenario := `
name: wrong
description: expects the wrong sidebar value
events:
  - kind: sidebar-toggled
assertions:
  - type: sidebar_shown
    shown: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0o644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "Assertion failed: sidebar_shown")
}

func TestTest_GoldenUpdateAndMismatch(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	data, err := os.ReadFile("testdata/scenarios/sidebar.yml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sidebar.yml"), data, 0o644))

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	golden := filepath.Join(dir, "golden", "sidebar.golden")
	require.FileExists(t, golden)

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err, "freshly written golden must match")

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0o644))
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

func TestTest_Errors(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
