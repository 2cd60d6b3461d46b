package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// DecodeError reports an event body that could not be decoded for a known
// kind. Unknown kinds are never a DecodeError.
type DecodeError struct {
	Kind   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Kind, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// UpdateEnvelope is the key of the original wire envelope:
// {"graph-update": {"<kind>": <body>}}.
const UpdateEnvelope = "graph-update"

type wireEnvelope struct {
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body"`
}

type wireKeys struct {
	Keys []Resource `json:"keys"`
}

type wireAddGraph struct {
	Resource *Resource `json:"resource"`
	Graph    *Graph    `json:"graph"`
}

type wireRemoveGraph struct {
	Resource *Resource `json:"resource"`
}

type wireAddNodes struct {
	Resource *Resource       `json:"resource"`
	Nodes    map[string]*Node `json:"nodes"`
}

type wireRemoveNodes struct {
	Resource *Resource `json:"resource"`
	Indices  []string  `json:"indices"`
}

type wireSidebar struct {
	Shown *bool `json:"shown,omitempty"`
}

// ParseEnvelope extracts kind and body from either {"kind": k, "body": b}
// or {"graph-update": {k: b}}. A message without a discriminant yields an
// empty kind and no error.
func ParseEnvelope(data []byte) (string, []byte, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("parse event envelope: %w", err)
	}

	if update, ok := raw[UpdateEnvelope]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(update, &inner); err != nil {
			return "", nil, fmt.Errorf("parse %s envelope: %w", UpdateEnvelope, err)
		}
		if len(inner) != 1 {
			return "", nil, fmt.Errorf("parse %s envelope: want exactly one kind, got %d", UpdateEnvelope, len(inner))
		}
		for kind, body := range inner {
			return kind, body, nil
		}
	}

	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("parse event envelope: %w", err)
	}
	return env.Kind, env.Body, nil
}

// DecodeJSON parses an envelope and decodes its body.
func DecodeJSON(data []byte) (Event, error) {
	kind, body, err := ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	return Decode(kind, body)
}

// Decode builds a typed event from a kind and its JSON body. Unknown (or
// empty) kinds decode to UnknownEvent without error.
func Decode(kind string, body []byte) (Event, error) {
	if isNullBody(body) {
		body = nil
	}

	switch kind {
	case KindKeys:
		var w wireKeys
		if err := unmarshalBody(kind, body, &w); err != nil {
			return nil, err
		}
		keys := make([]Resource, 0, len(w.Keys))
		for _, r := range w.Keys {
			r = r.normalize()
			if err := r.Validate(); err != nil {
				return nil, &DecodeError{Kind: kind, Reason: "bad key", Err: err}
			}
			keys = append(keys, r)
		}
		return KeysEvent{Keys: keys}, nil

	case KindAddGraph:
		var w wireAddGraph
		if err := unmarshalBody(kind, body, &w); err != nil {
			return nil, err
		}
		r, err := requireResource(kind, w.Resource)
		if err != nil {
			return nil, err
		}
		g := w.Graph
		if g == nil {
			g = NewGraph()
		}
		return AddGraphEvent{Resource: r, Graph: g}, nil

	case KindRemoveGraph:
		var w wireRemoveGraph
		if err := unmarshalBody(kind, body, &w); err != nil {
			return nil, err
		}
		r, err := requireResource(kind, w.Resource)
		if err != nil {
			return nil, err
		}
		return RemoveGraphEvent{Resource: r}, nil

	case KindAddNodes:
		var w wireAddNodes
		if err := unmarshalBody(kind, body, &w); err != nil {
			return nil, err
		}
		r, err := requireResource(kind, w.Resource)
		if err != nil {
			return nil, err
		}
		nodes := make([]IndexedNode, 0, len(w.Nodes))
		seen := make(map[string]string, len(w.Nodes))
		for path, n := range w.Nodes {
			idx, err := ParseIndex(path)
			if err != nil {
				return nil, &DecodeError{Kind: kind, Reason: "bad node index", Err: err}
			}
			if prev, dup := seen[idx.String()]; dup {
				return nil, &DecodeError{Kind: kind, Reason: duplicateKey(prev, path, idx.String())}
			}
			seen[idx.String()] = path
			if n == nil {
				return nil, &DecodeError{Kind: kind, Reason: fmt.Sprintf("null node at %s", path)}
			}
			nodes = append(nodes, IndexedNode{Index: idx, Node: n})
		}
		sortIndexedNodes(nodes)
		return AddNodesEvent{Resource: r, Nodes: nodes}, nil

	case KindRemoveNodes:
		var w wireRemoveNodes
		if err := unmarshalBody(kind, body, &w); err != nil {
			return nil, err
		}
		r, err := requireResource(kind, w.Resource)
		if err != nil {
			return nil, err
		}
		indices := make([]Index, 0, len(w.Indices))
		for _, path := range w.Indices {
			idx, err := ParseIndex(path)
			if err != nil {
				return nil, &DecodeError{Kind: kind, Reason: "bad index", Err: err}
			}
			indices = append(indices, idx)
		}
		return RemoveNodesEvent{Resource: r, Indices: indices}, nil

	case KindSidebarToggled:
		var w wireSidebar
		if body != nil {
			if err := unmarshalBody(kind, body, &w); err != nil {
				return nil, err
			}
		}
		return SidebarEvent{Shown: w.Shown}, nil

	default:
		return UnknownEvent{Type: kind, Body: slices.Clone(body)}, nil
	}
}

// Encode returns the wire kind and JSON body of e. Decode(Encode(e))
// yields an equivalent event.
func Encode(e Event) (string, []byte, error) {
	var w any
	switch ev := e.(type) {
	case KeysEvent:
		keys := ev.Keys
		if keys == nil {
			keys = []Resource{}
		}
		w = wireKeys{Keys: keys}
	case AddGraphEvent:
		g := ev.Graph
		if g == nil {
			g = NewGraph()
		}
		w = wireAddGraph{Resource: &ev.Resource, Graph: g}
	case RemoveGraphEvent:
		w = wireRemoveGraph{Resource: &ev.Resource}
	case AddNodesEvent:
		nodes := make(map[string]*Node, len(ev.Nodes))
		for _, n := range ev.Nodes {
			nodes[n.Index.String()] = n.Node
		}
		w = wireAddNodes{Resource: &ev.Resource, Nodes: nodes}
	case RemoveNodesEvent:
		indices := make([]string, 0, len(ev.Indices))
		for _, idx := range ev.Indices {
			indices = append(indices, idx.String())
		}
		w = wireRemoveNodes{Resource: &ev.Resource, Indices: indices}
	case SidebarEvent:
		w = wireSidebar{Shown: ev.Shown}
	case UnknownEvent:
		body := ev.Body
		if len(body) == 0 {
			body = []byte("{}")
		}
		return ev.Type, body, nil
	case nil:
		return "", nil, fmt.Errorf("encode: nil event")
	default:
		return "", nil, fmt.Errorf("encode: unsupported event type %T", e)
	}

	body, err := json.Marshal(w)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	return e.Kind(), body, nil
}

// MarshalJSON encodes the graph as an object keyed by atom.
func (g *Graph) MarshalJSON() ([]byte, error) {
	m := make(map[string]*Node, g.Len())
	if g != nil {
		for a, n := range g.nodes {
			m[string(a)] = n
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by atom. null yields an empty graph.
func (g *Graph) UnmarshalJSON(data []byte) error {
	*g = Graph{}
	if isNullBody(data) {
		return nil
	}
	var m map[string]*Node
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := NewGraph()
	seen := make(map[Atom]string, len(m))
	for key, n := range m {
		a, err := ParseAtom(key)
		if err != nil {
			return fmt.Errorf("graph key: %w", err)
		}
		if n == nil {
			return fmt.Errorf("graph key %s: null node", key)
		}
		if prev, dup := seen[a]; dup {
			return errors.New(duplicateKey(prev, key, string(a)))
		}
		seen[a] = key
		out = out.With(a, n)
	}
	*g = *out
	return nil
}

func unmarshalBody(kind string, body []byte, v any) error {
	if body == nil {
		return &DecodeError{Kind: kind, Reason: "missing body"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Kind: kind, Reason: "malformed body", Err: err}
	}
	return nil
}

func requireResource(kind string, r *Resource) (Resource, error) {
	if r == nil {
		return Resource{}, &DecodeError{Kind: kind, Reason: "missing resource"}
	}
	n := r.normalize()
	if err := n.Validate(); err != nil {
		return Resource{}, &DecodeError{Kind: kind, Reason: "bad resource", Err: err}
	}
	return n, nil
}

func sortIndexedNodes(nodes []IndexedNode) {
	slices.SortFunc(nodes, func(a, b IndexedNode) int {
		return compareIndexes(a.Index, b.Index)
	})
}

// duplicateKey orders the two spellings so the message does not depend on
// map iteration order.
func duplicateKey(a, b, canonical string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("keys %q and %q both name %s", a, b, canonical)
}

func isNullBody(b []byte) bool {
	t := bytes.TrimSpace(b)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
