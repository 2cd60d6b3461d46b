package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphstore/internal/canon"
)

func TestDecode_Keys(t *testing.T) {
	evt, err := Decode(KindKeys, []byte(`{"keys":[{"ship":"zod","name":"chat"},{"ship":"~bus","name":"notes"}]}`))
	require.NoError(t, err)

	keys, ok := evt.(KeysEvent)
	require.True(t, ok)
	assert.Equal(t, []Resource{
		{Ship: "~zod", Name: "chat"},
		{Ship: "~bus", Name: "notes"},
	}, keys.Keys)
}

func TestDecode_AddGraph(t *testing.T) {
	body := `{
		"resource": {"ship": "~zod", "name": "chat"},
		"graph": {
			"2": {"post": {"author": "~zod", "index": "/2", "time-sent": 2, "contents": [{"text": "b"}]}, "children": null},
			"1": {"post": {"author": "~bus", "index": "/1", "time-sent": 1, "contents": [{"url": "https://urbit.org"}]},
			      "children": {"1": {"post": {"author": "~zod", "index": "/1/1", "time-sent": 3, "contents": []}, "children": null}}}
		}
	}`
	evt, err := Decode(KindAddGraph, []byte(body))
	require.NoError(t, err)

	ag := evt.(AddGraphEvent)
	assert.Equal(t, MustParseResource("~zod/chat"), ag.Resource)
	assert.Equal(t, []Atom{"1", "2"}, ag.Graph.Atoms())
	assert.Equal(t, 3, ag.Graph.Size())
	assert.Equal(t, "https://urbit.org", ag.Graph.Get("1").Post.Contents[0].URL)
	assert.Equal(t, "/1/1", ag.Graph.Lookup(MustParseIndex("/1/1")).Post.Index)
}

func TestDecode_AddNodesSortsParentsFirst(t *testing.T) {
	body := `{"resource":{"ship":"~zod","name":"chat"},"nodes":{
		"/1/2": {"post": {"author": "~zod", "index": "/1/2", "time-sent": 2, "contents": []}, "children": null},
		"/1":   {"post": {"author": "~zod", "index": "/1", "time-sent": 1, "contents": []}, "children": null}
	}}`
	evt, err := Decode(KindAddNodes, []byte(body))
	require.NoError(t, err)

	an := evt.(AddNodesEvent)
	require.Len(t, an.Nodes, 2)
	assert.Equal(t, "/1", an.Nodes[0].Index.String())
	assert.Equal(t, "/1/2", an.Nodes[1].Index.String())
}

func TestDecode_RemoveNodes(t *testing.T) {
	evt, err := Decode(KindRemoveNodes, []byte(`{"resource":{"ship":"~zod","name":"chat"},"indices":["/1","/2/3"]}`))
	require.NoError(t, err)
	assert.Equal(t, []Index{{"1"}, {"2", "3"}}, evt.(RemoveNodesEvent).Indices)
}

func TestDecode_Sidebar(t *testing.T) {
	evt, err := Decode(KindSidebarToggled, []byte(`{"shown":false}`))
	require.NoError(t, err)
	require.NotNil(t, evt.(SidebarEvent).Shown)
	assert.False(t, *evt.(SidebarEvent).Shown)

	evt, err = Decode(KindSidebarToggled, nil)
	require.NoError(t, err)
	assert.Nil(t, evt.(SidebarEvent).Shown, "missing body means toggle")
}

func TestDecode_UnknownKind(t *testing.T) {
	evt, err := Decode("archive-graph", []byte(`{"resource":{"ship":"~zod","name":"x"}}`))
	require.NoError(t, err, "unknown kinds never fail to decode")

	u, ok := evt.(UnknownEvent)
	require.True(t, ok)
	assert.Equal(t, "archive-graph", u.Kind())
	assert.False(t, IsKnown(evt))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		kind string
		body string
	}{
		{"missing body", KindAddGraph, ``},
		{"missing resource", KindRemoveGraph, `{}`},
		{"bad resource", KindRemoveGraph, `{"resource":{"ship":"","name":"x"}}`},
		{"malformed body", KindKeys, `{"keys":"nope"}`},
		{"bad key", KindKeys, `{"keys":[{"ship":"~zod","name":""}]}`},
		{"bad node index", KindAddNodes, `{"resource":{"ship":"~zod","name":"x"},"nodes":{"nope":{"post":{}}}}`},
		{"null node", KindAddNodes, `{"resource":{"ship":"~zod","name":"x"},"nodes":{"/1":null}}`},
		{"bad index", KindRemoveNodes, `{"resource":{"ship":"~zod","name":"x"},"indices":["1"]}`},
		{"bad graph atom", KindAddGraph, `{"resource":{"ship":"~zod","name":"x"},"graph":{"x":{"post":{}}}}`},
		{"aliased node index", KindAddNodes, `{"resource":{"ship":"~zod","name":"x"},"nodes":{"/1":{"post":{"author":"~a"}},"/01":{"post":{"author":"~b"}}}}`},
		{"aliased dotted index", KindAddNodes, `{"resource":{"ship":"~zod","name":"x"},"nodes":{"/1000":{"post":{}},"/1.000":{"post":{}}}}`},
		{"aliased graph atom", KindAddGraph, `{"resource":{"ship":"~zod","name":"x"},"graph":{"1":{"post":{}},"001":{"post":{}}}}`},
		{"aliased child atom", KindAddGraph, `{"resource":{"ship":"~zod","name":"x"},"graph":{"1":{"post":{},"children":{"2":{"post":{}},"02":{"post":{}}}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.kind, []byte(tt.body))
			require.Error(t, err)
			assert.True(t, IsDecodeError(err))
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	kind, body, err := ParseEnvelope([]byte(`{"kind":"remove-graph","body":{"resource":{"ship":"~zod","name":"a"}}}`))
	require.NoError(t, err)
	assert.Equal(t, KindRemoveGraph, kind)
	assert.JSONEq(t, `{"resource":{"ship":"~zod","name":"a"}}`, string(body))

	kind, body, err = ParseEnvelope([]byte(`{"graph-update":{"remove-graph":{"resource":{"ship":"~zod","name":"a"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, KindRemoveGraph, kind)
	assert.JSONEq(t, `{"resource":{"ship":"~zod","name":"a"}}`, string(body))

	kind, _, err = ParseEnvelope([]byte(`{"body":{}}`))
	require.NoError(t, err)
	assert.Empty(t, kind, "missing discriminant is not an error")

	_, _, err = ParseEnvelope([]byte(`{"graph-update":{"a":{},"b":{}}}`))
	assert.Error(t, err)

	_, _, err = ParseEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeJSON_MissingKindIsUnknown(t *testing.T) {
	evt, err := DecodeJSON([]byte(`{"body":{"keys":[]}}`))
	require.NoError(t, err)
	u, ok := evt.(UnknownEvent)
	require.True(t, ok)
	assert.Empty(t, u.Kind())
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	g := NewGraph().With("1", &Node{
		Post:     textNode("/1", "hi").Post,
		Children: NewGraph().With("1", textNode("/1/1", "reply")),
	})
	events := []Event{
		KeysEvent{Keys: []Resource{MustParseResource("~zod/a")}},
		AddGraphEvent{Resource: MustParseResource("~zod/a"), Graph: g},
		AddNodesEvent{Resource: MustParseResource("~zod/a"), Nodes: []IndexedNode{
			{Index: MustParseIndex("/2"), Node: textNode("/2", "x")},
		}},
		RemoveNodesEvent{Resource: MustParseResource("~zod/a"), Indices: []Index{MustParseIndex("/1/1")}},
		RemoveGraphEvent{Resource: MustParseResource("~zod/a")},
		SidebarEvent{Shown: boolPtr(true)},
		SidebarEvent{},
	}

	for _, evt := range events {
		t.Run(evt.Kind(), func(t *testing.T) {
			kind, body, err := Encode(evt)
			require.NoError(t, err)
			assert.True(t, json.Valid(body))

			back, err := Decode(kind, body)
			require.NoError(t, err)

			// Compare through the reducer: both must produce the same state.
			s := InitialState()
			d1, err := Digest(Reduce(s, evt))
			require.NoError(t, err)
			d2, err := Digest(Reduce(s, back))
			require.NoError(t, err)
			assert.Equal(t, d1, d2)
		})
	}
}

func TestEncode_Unknown(t *testing.T) {
	kind, body, err := Encode(UnknownEvent{Type: "future"})
	require.NoError(t, err)
	assert.Equal(t, "future", kind)
	assert.Equal(t, "{}", string(body))

	_, _, err = Encode(nil)
	assert.Error(t, err)
}

func TestEncode_NeverEmitsNull(t *testing.T) {
	evt := AddNodesEvent{
		Resource: MustParseResource("~zod/chat"),
		Nodes: []IndexedNode{
			{Index: MustParseIndex("/1"), Node: &Node{Post: Post{Author: "~zod", Index: "/1", TimeSent: 1}}},
		},
	}

	_, body, err := Encode(evt)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "null")

	_, err = canon.FromJSON(body)
	assert.NoError(t, err, "encoded bodies must be journalable")
}

func TestDecode_AliasedIndexMessageIsStable(t *testing.T) {
	body := []byte(`{"resource":{"ship":"~zod","name":"x"},"nodes":{"/1":{"post":{}},"/01":{"post":{}}}}`)
	for i := 0; i < 20; i++ {
		_, err := Decode(KindAddNodes, body)
		require.Error(t, err)
		assert.Equal(t, `decode add-nodes: keys "/01" and "/1" both name /1`, err.Error())
	}
}
