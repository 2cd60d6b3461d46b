package graph

func textNode(index, text string) *Node {
	return &Node{Post: Post{
		Author:   "~zod",
		Index:    index,
		TimeSent: 1600000000000,
		Contents: []Content{{Text: text}},
	}}
}

func graphOf(nodes map[Atom]*Node) *Graph {
	g := NewGraph()
	for a, n := range nodes {
		g = g.With(a, n)
	}
	return g
}

func boolPtr(b bool) *bool {
	return &b
}
