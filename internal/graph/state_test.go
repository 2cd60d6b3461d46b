package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSON_InitialState(t *testing.T) {
	data, err := CanonicalJSON(InitialState())
	require.NoError(t, err)
	assert.Equal(t, `{"graphs":{},"keys":[],"sidebar_shown":true}`, string(data))
}

func TestCanonicalJSON_Graph(t *testing.T) {
	s := Reduce(InitialState(), AddNodesEvent{Resource: resA, Nodes: []IndexedNode{
		{Index: MustParseIndex("/1"), Node: textNode("/1", "hi")},
		{Index: MustParseIndex("/1/2"), Node: &Node{Post: Post{
			Author:   "~bus",
			Index:    "/1/2",
			TimeSent: 5,
			Contents: []Content{{Reference: json.RawMessage(`{"graph":{"graph":"~zod/a","index":"/1"}}`)}},
			Hash:     "0xabc",
		}}},
	}})

	data, err := CanonicalJSON(s)
	require.NoError(t, err)

	want := `{"graphs":{"~zod/a":{"1":{"children":{"2":{"post":{"author":"~bus","contents":[{"reference":{"graph":{"graph":"~zod/a","index":"/1"}}}],"hash":"0xabc","index":"/1/2","time_sent":5}}},` +
		`"post":{"author":"~zod","contents":[{"text":"hi"}],"index":"/1","time_sent":1600000000000}}}},"keys":["~zod/a"],"sidebar_shown":true}`
	assert.Equal(t, want, string(data))
}

func TestDigest_IndependentOfInsertionOrder(t *testing.T) {
	s1 := Reduce(Reduce(InitialState(), AddGraphEvent{Resource: resA}), AddGraphEvent{Resource: resB})
	s2 := Reduce(Reduce(InitialState(), AddGraphEvent{Resource: resB}), AddGraphEvent{Resource: resA})

	d1, err := Digest(s1)
	require.NoError(t, err)
	d2, err := Digest(s2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	d3, err := Digest(Reduce(s1, SidebarEvent{}))
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestDigest_RejectsFloatReference(t *testing.T) {
	s := Reduce(InitialState(), AddGraphEvent{Resource: resA, Graph: NewGraph().With("1", &Node{Post: Post{
		Contents: []Content{{Reference: json.RawMessage(`{"x":1.5}`)}},
	}})})

	_, err := Digest(s)
	assert.Error(t, err)
}
