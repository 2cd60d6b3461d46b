package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/graphstore/internal/canon"
)

// State is the client-side mirror of the remote graph store.
//
// Invariant: the key set of Graphs equals Keys at every commit.
// States are values; reduction never modifies a State it was given.
type State struct {
	Keys         map[Resource]struct{}
	Graphs       map[Resource]*Graph
	SidebarShown bool
}

// InitialState returns no keys, no graphs and a visible sidebar.
func InitialState() State {
	return State{
		Keys:         map[Resource]struct{}{},
		Graphs:       map[Resource]*Graph{},
		SidebarShown: true,
	}
}

// HasKey reports whether r is a known resource.
func (s State) HasKey(r Resource) bool {
	_, ok := s.Keys[r]
	return ok
}

// Graph returns the payload for r, or nil.
func (s State) Graph(r Resource) *Graph {
	return s.Graphs[r]
}

// SortedKeys returns the known resources ordered by ship then name.
func (s State) SortedKeys() []Resource {
	keys := make([]Resource, 0, len(s.Keys))
	for r := range s.Keys {
		keys = append(keys, r)
	}
	slices.SortFunc(keys, compareResources)
	return keys
}

// Consistent reports whether Keys and the key set of Graphs are equal.
func (s State) Consistent() bool {
	if len(s.Keys) != len(s.Graphs) {
		return false
	}
	for r := range s.Keys {
		if _, ok := s.Graphs[r]; !ok {
			return false
		}
	}
	return true
}

// clone copies the top-level maps. Graph payloads are immutable and shared.
func (s State) clone() State {
	return State{
		Keys:         maps.Clone(s.Keys),
		Graphs:       maps.Clone(s.Graphs),
		SidebarShown: s.SidebarShown,
	}
}

// Snapshot renders s as a canonical-JSON-ready tree:
//
//	{"graphs": {"~zod/chat": {...}}, "keys": ["~zod/chat"], "sidebar_shown": true}
func Snapshot(s State) (map[string]any, error) {
	keys := s.SortedKeys()
	names := make([]string, 0, len(keys))
	graphs := make(map[string]any, len(s.Graphs))
	for _, r := range keys {
		names = append(names, r.String())
	}
	for r, g := range s.Graphs {
		gs, err := snapshotGraph(g)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", r, err)
		}
		graphs[r.String()] = gs
	}
	return map[string]any{
		"keys":          names,
		"graphs":        graphs,
		"sidebar_shown": s.SidebarShown,
	}, nil
}

// Digest is the domain-separated hash of the canonical snapshot of s.
// Two states with equal digests are observably identical.
func Digest(s State) (string, error) {
	snap, err := Snapshot(s)
	if err != nil {
		return "", err
	}
	return canon.Digest(canon.DomainSnapshot, snap)
}

// CanonicalJSON returns the canonical encoding of the snapshot of s.
func CanonicalJSON(s State) ([]byte, error) {
	snap, err := Snapshot(s)
	if err != nil {
		return nil, err
	}
	return canon.Marshal(snap)
}

func snapshotGraph(g *Graph) (map[string]any, error) {
	out := make(map[string]any, g.Len())
	for _, a := range g.Atoms() {
		n := g.Get(a)
		post, err := snapshotPost(n.Post)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", a, err)
		}
		node := map[string]any{"post": post}
		if n.Children.Len() > 0 {
			children, err := snapshotGraph(n.Children)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", a, err)
			}
			node["children"] = children
		}
		out[string(a)] = node
	}
	return out, nil
}

func snapshotPost(p Post) (map[string]any, error) {
	contents := make([]any, 0, len(p.Contents))
	for i, c := range p.Contents {
		cs, err := snapshotContent(c)
		if err != nil {
			return nil, fmt.Errorf("content[%d]: %w", i, err)
		}
		contents = append(contents, cs)
	}
	out := map[string]any{
		"author":    p.Author,
		"index":     p.Index,
		"time_sent": p.TimeSent,
		"contents":  contents,
	}
	if p.Hash != "" {
		out["hash"] = p.Hash
	}
	if len(p.Signatures) > 0 {
		sigs := make([]any, 0, len(p.Signatures))
		for _, sig := range p.Signatures {
			sigs = append(sigs, map[string]any{
				"ship":      sig.Ship,
				"life":      sig.Life,
				"signature": sig.Signature,
			})
		}
		out["signatures"] = sigs
	}
	return out, nil
}

func snapshotContent(c Content) (map[string]any, error) {
	switch {
	case c.Text != "":
		return map[string]any{"text": c.Text}, nil
	case c.URL != "":
		return map[string]any{"url": c.URL}, nil
	case c.Mention != "":
		return map[string]any{"mention": c.Mention}, nil
	case c.Code != nil:
		code := map[string]any{"expression": c.Code.Expression}
		if len(c.Code.Output) > 0 {
			v, err := canon.DecodeJSON(c.Code.Output)
			if err != nil {
				return nil, fmt.Errorf("code output: %w", err)
			}
			code["output"] = v
		}
		return map[string]any{"code": code}, nil
	case len(c.Reference) > 0:
		v, err := canon.DecodeJSON(c.Reference)
		if err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
		return map[string]any{"reference": v}, nil
	default:
		return map[string]any{"text": ""}, nil
	}
}
