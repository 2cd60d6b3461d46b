package eventfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphstore/internal/graph"
)

func TestLoad_JSONL(t *testing.T) {
	entries, err := Load("testdata/events.jsonl")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, 2, entries[0].Line, "comment lines count toward line numbers")
	assert.Equal(t, graph.KindKeys, entries[0].Kind)
	assert.Equal(t, graph.KindAddGraph, entries[1].Kind, "graph-update envelope unwrapped")
	assert.Equal(t, 5, entries[2].Line)
	assert.Equal(t, "archive-graph", entries[3].Kind)
}

func TestLoad_YAML(t *testing.T) {
	entries, err := Load("testdata/events.yaml")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	events, errs := Decode(entries)
	require.Empty(t, errs)
	require.Len(t, events, 3)

	an := events[0].(graph.AddNodesEvent)
	assert.Equal(t, "/1", an.Nodes[0].Index.String())
	assert.Equal(t, "hello", an.Nodes[0].Node.Post.Contents[0].Text)

	assert.Nil(t, events[1].(graph.SidebarEvent).Shown)

	ag := events[2].(graph.AddGraphEvent)
	assert.Equal(t, []graph.Atom{"1"}, ag.Graph.Atoms(), "integer YAML keys become atoms")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.txt")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestReadJSONL_BadLine(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"kind\":\"keys\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadYAML_UnknownField(t *testing.T) {
	_, err := ReadYAML(strings.NewReader("- kind: keys\n  bdy: {}\n"))
	assert.Error(t, err)
}

func TestReadYAML_Empty(t *testing.T) {
	entries, err := ReadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecode_CollectsErrors(t *testing.T) {
	entries := []Entry{
		{Line: 1, Kind: graph.KindRemoveGraph, Body: []byte(`{}`)},
		{Line: 2, Kind: graph.KindSidebarToggled},
		{Line: 3, Kind: "future-kind", Body: []byte(`{}`)},
	}
	events, errs := Decode(entries)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "event 1")
	assert.True(t, graph.IsDecodeError(errs[0]))
	require.Len(t, events, 2)
	assert.False(t, graph.IsKnown(events[1]))
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"graph": map[any]any{1: map[string]any{"x": []any{map[any]any{true: "y"}}}},
	}
	out := Normalize(in).(map[string]any)
	graphMap := out["graph"].(map[string]any)
	inner := graphMap["1"].(map[string]any)
	list := inner["x"].([]any)
	assert.Equal(t, map[string]any{"true": "y"}, list[0])
}
