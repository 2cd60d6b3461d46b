package graph

import (
	"log/slog"
)

// Reducer computes the next state from the current state and an event.
// Implementations must not modify their input.
type Reducer func(State, Event) State

// Reduce is the default reducer, logging to slog.Default().
func Reduce(s State, e Event) State {
	return reducer{logger: slog.Default()}.reduce(s, e)
}

// NewReducer returns the default reducer logging to logger.
func NewReducer(logger *slog.Logger) Reducer {
	if logger == nil {
		logger = slog.Default()
	}
	return reducer{logger: logger}.reduce
}

type reducer struct {
	logger *slog.Logger
}

func (r reducer) reduce(s State, e Event) State {
	switch ev := e.(type) {
	case KeysEvent:
		return r.keys(s, ev)
	case AddGraphEvent:
		return r.addGraph(s, ev)
	case RemoveGraphEvent:
		return r.removeGraph(s, ev)
	case AddNodesEvent:
		return r.addNodes(s, ev)
	case RemoveNodesEvent:
		return r.removeNodes(s, ev)
	case SidebarEvent:
		return r.sidebar(s, ev)
	default:
		// Producers may be ahead of this reducer: drop, never fail.
		r.logger.Warn("ignoring unknown graph event", "kind", KindOf(e))
		return s
	}
}

// keys replaces the key set. Listed resources without a payload get an
// empty placeholder graph; unlisted resources are evicted with their
// payloads.
func (r reducer) keys(s State, ev KeysEvent) State {
	next := State{
		Keys:         make(map[Resource]struct{}, len(ev.Keys)),
		Graphs:       make(map[Resource]*Graph, len(ev.Keys)),
		SidebarShown: s.SidebarShown,
	}
	for _, res := range ev.Keys {
		next.Keys[res] = struct{}{}
		if g, ok := s.Graphs[res]; ok {
			next.Graphs[res] = g
		} else {
			next.Graphs[res] = NewGraph()
		}
	}
	r.logger.Debug("graph keys replaced", "count", len(next.Keys))
	return next
}

func (r reducer) addGraph(s State, ev AddGraphEvent) State {
	next := s.clone()
	g := ev.Graph
	if g == nil {
		g = NewGraph()
	}
	next.Keys[ev.Resource] = struct{}{}
	next.Graphs[ev.Resource] = g
	r.logger.Debug("graph added", "resource", ev.Resource.String(), "nodes", g.Size())
	return next
}

func (r reducer) removeGraph(s State, ev RemoveGraphEvent) State {
	if !s.HasKey(ev.Resource) {
		if _, ok := s.Graphs[ev.Resource]; !ok {
			return s
		}
	}
	next := s.clone()
	delete(next.Keys, ev.Resource)
	delete(next.Graphs, ev.Resource)
	r.logger.Debug("graph removed", "resource", ev.Resource.String())
	return next
}

// addNodes inserts nodes parents-first. A node whose parent is missing is
// dropped. An unknown resource gets a new graph.
func (r reducer) addNodes(s State, ev AddNodesEvent) State {
	g := s.Graphs[ev.Resource]
	if g == nil {
		g = NewGraph()
	}

	nodes := ev.Nodes
	if !isSortedByIndex(nodes) {
		nodes = append([]IndexedNode(nil), nodes...)
		sortIndexedNodes(nodes)
	}

	added := 0
	for _, in := range nodes {
		if len(in.Index) == 0 || in.Node == nil {
			r.logger.Warn("dropping node without index",
				"resource", ev.Resource.String())
			continue
		}
		ng, ok := insertNode(g, in.Index, in.Node)
		if !ok {
			r.logger.Warn("dropping node with missing parent",
				"resource", ev.Resource.String(),
				"index", in.Index.String())
			continue
		}
		g = ng
		added++
	}

	next := s.clone()
	next.Keys[ev.Resource] = struct{}{}
	next.Graphs[ev.Resource] = g
	r.logger.Debug("nodes added", "resource", ev.Resource.String(), "added", added)
	return next
}

func (r reducer) removeNodes(s State, ev RemoveNodesEvent) State {
	g, ok := s.Graphs[ev.Resource]
	if !ok {
		return s
	}
	for _, idx := range ev.Indices {
		g = removeNode(g, idx)
	}
	next := s.clone()
	next.Graphs[ev.Resource] = g
	r.logger.Debug("nodes removed", "resource", ev.Resource.String(), "indices", len(ev.Indices))
	return next
}

func (r reducer) sidebar(s State, ev SidebarEvent) State {
	next := s
	if ev.Shown != nil {
		next.SidebarShown = *ev.Shown
	} else {
		next.SidebarShown = !s.SidebarShown
	}
	return next
}

// insertNode stores n at idx, rebuilding each ancestor. When n replaces a
// node and brings no children of its own, the existing children are kept.
func insertNode(g *Graph, idx Index, n *Node) (*Graph, bool) {
	head := idx[0]
	existing := g.Get(head)

	if len(idx) == 1 {
		if existing != nil && n.Children.Len() == 0 && existing.Children.Len() > 0 {
			n = &Node{Post: n.Post, Children: existing.Children}
		}
		return g.With(head, n), true
	}

	if existing == nil {
		return g, false
	}
	children, ok := insertNode(existing.Children, idx[1:], n)
	if !ok {
		return g, false
	}
	return g.With(head, &Node{Post: existing.Post, Children: children}), true
}

// removeNode deletes the node at idx. Missing paths leave g unchanged.
func removeNode(g *Graph, idx Index) *Graph {
	if len(idx) == 0 {
		return g
	}
	head := idx[0]
	if len(idx) == 1 {
		return g.Without(head)
	}
	existing := g.Get(head)
	if existing == nil {
		return g
	}
	children := removeNode(existing.Children, idx[1:])
	if children == existing.Children {
		return g
	}
	return g.With(head, &Node{Post: existing.Post, Children: children})
}

func isSortedByIndex(nodes []IndexedNode) bool {
	for i := 1; i < len(nodes); i++ {
		if compareIndexes(nodes[i-1].Index, nodes[i].Index) > 0 {
			return false
		}
	}
	return true
}
