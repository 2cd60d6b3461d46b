package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/chat_lifecycle.yaml")
	require.NoError(t, err)

	assert.Equal(t, "chat_lifecycle", scenario.Name)
	assert.Len(t, scenario.Events, 7)
	assert.Equal(t, "keys", scenario.Events[0].Kind)
	require.Len(t, scenario.Assertions, 8)
	assert.Equal(t, AssertKeysEqual, scenario.Assertions[0].Type)
	require.NotNil(t, scenario.Assertions[5].Shown)
	assert.False(t, *scenario.Assertions[5].Shown)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	content := `
name: typo
description: misspelled assertions key
events:
  - kind: sidebar-toggled
assertion:
  - type: notifications
    count: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nevents: [{kind: keys}]\nassertions: [{type: notifications}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nevents: [{kind: keys}]\nassertions: [{type: notifications}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no events",
			yaml:    "name: n\ndescription: d\nassertions: [{type: notifications}]\n",
			wantErr: "events list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: n\ndescription: d\nevents: [{kind: keys}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "event without kind",
			yaml:    "name: n\ndescription: d\nevents: [{body: {}}]\nassertions: [{type: notifications}]\n",
			wantErr: "events[0]: kind is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nevents: [{kind: keys}]\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "node_present without index",
			yaml:    "name: n\ndescription: d\nevents: [{kind: keys}]\nassertions: [{type: node_present, resource: \"~zod/a\"}]\n",
			wantErr: "index is required for node_present",
		},
		{
			name:    "bad resource",
			yaml:    "name: n\ndescription: d\nevents: [{kind: keys}]\nassertions: [{type: graph_present, resource: nope}]\n",
			wantErr: "assertions[0]",
		},
		{
			name:    "sidebar without shown",
			yaml:    "name: n\ndescription: d\nevents: [{kind: keys}]\nassertions: [{type: sidebar_shown}]\n",
			wantErr: "shown is required",
		},
		{
			name:    "digest without value",
			yaml:    "name: n\ndescription: d\nevents: [{kind: keys}]\nassertions: [{type: digest}]\n",
			wantErr: "digest is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
