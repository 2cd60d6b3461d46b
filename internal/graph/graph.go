package graph

import (
	"encoding/json"
	"slices"
)

// Graph is an immutable collection of nodes ordered by atom.
//
// The zero value and a nil *Graph are both empty graphs. With and Without
// return new graphs and never modify the receiver, so a Graph may be shared
// freely between states.
type Graph struct {
	nodes map[Atom]*Node
	order []Atom // ascending
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Len returns the number of direct children.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// Size returns the number of nodes in the graph, counting all descendants.
func (g *Graph) Size() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, a := range g.order {
		n += 1 + g.nodes[a].Children.Size()
	}
	return n
}

// Get returns the direct child at a, or nil.
func (g *Graph) Get(a Atom) *Node {
	if g == nil {
		return nil
	}
	return g.nodes[a]
}

// Lookup returns the node at idx, or nil if any step is missing.
func (g *Graph) Lookup(idx Index) *Node {
	if len(idx) == 0 {
		return nil
	}
	n := g.Get(idx[0])
	if n == nil || len(idx) == 1 {
		return n
	}
	return n.Children.Lookup(idx[1:])
}

// Atoms returns the keys of the direct children in ascending order.
func (g *Graph) Atoms() []Atom {
	if g == nil {
		return nil
	}
	return slices.Clone(g.order)
}

// With returns a copy of g with n stored at a.
func (g *Graph) With(a Atom, n *Node) *Graph {
	out := &Graph{nodes: make(map[Atom]*Node, g.Len()+1)}
	if g != nil {
		for k, v := range g.nodes {
			out.nodes[k] = v
		}
		out.order = slices.Clone(g.order)
	}
	if _, exists := out.nodes[a]; !exists {
		i, _ := slices.BinarySearchFunc(out.order, a, Atom.Compare)
		out.order = slices.Insert(out.order, i, a)
	}
	out.nodes[a] = n
	return out
}

// Without returns a copy of g without the child at a. If a is absent, g is
// returned unchanged.
func (g *Graph) Without(a Atom) *Graph {
	if g.Get(a) == nil {
		return g
	}
	out := &Graph{nodes: make(map[Atom]*Node, g.Len()-1)}
	for k, v := range g.nodes {
		if k != a {
			out.nodes[k] = v
		}
	}
	out.order = slices.DeleteFunc(slices.Clone(g.order), func(x Atom) bool { return x == a })
	return out
}

// Node is one post in a graph together with its replies.
type Node struct {
	Post     Post   `json:"post"`
	Children *Graph `json:"children,omitempty"`
}

// Post is the payload of a node.
type Post struct {
	Author     string      `json:"author"`
	Index      string      `json:"index"`
	TimeSent   int64       `json:"time-sent"`
	Contents   []Content   `json:"contents"`
	Hash       string      `json:"hash,omitempty"`
	Signatures []Signature `json:"signatures,omitempty"`
}

// MarshalJSON writes nil contents as [] so that encoded events never carry
// null.
func (p Post) MarshalJSON() ([]byte, error) {
	type wirePost Post
	w := wirePost(p)
	if w.Contents == nil {
		w.Contents = []Content{}
	}
	return json.Marshal(w)
}

// Content is one element of a post body. Exactly one field is set.
type Content struct {
	Text      string          `json:"text,omitempty"`
	URL       string          `json:"url,omitempty"`
	Mention   string          `json:"mention,omitempty"`
	Code      *Code           `json:"code,omitempty"`
	Reference json.RawMessage `json:"reference,omitempty"`
}

// Code is an evaluated code snippet.
type Code struct {
	Expression string          `json:"expression"`
	Output     json.RawMessage `json:"output,omitempty"`
}

// Signature is a ship's signature over a post hash.
type Signature struct {
	Ship      string `json:"ship"`
	Life      int64  `json:"life"`
	Signature string `json:"signature"`
}
