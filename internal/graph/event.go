package graph

// Event kinds as they appear on the wire.
const (
	KindKeys           = "keys"
	KindAddGraph       = "add-graph"
	KindRemoveGraph    = "remove-graph"
	KindAddNodes       = "add-nodes"
	KindRemoveNodes    = "remove-nodes"
	KindSidebarToggled = "sidebar-toggled"
)

// Kinds lists every kind the reducer understands, in wire order.
var Kinds = []string{
	KindKeys,
	KindAddGraph,
	KindRemoveGraph,
	KindAddNodes,
	KindRemoveNodes,
	KindSidebarToggled,
}

// Event is a state-changing occurrence. The set of implementations is
// closed; kinds this package does not know arrive as UnknownEvent.
type Event interface {
	Kind() string
	isEvent()
}

// KeysEvent replaces the set of known resources.
type KeysEvent struct {
	Keys []Resource
}

// AddGraphEvent stores a whole graph under a resource, replacing any
// existing payload.
type AddGraphEvent struct {
	Resource Resource
	Graph    *Graph
}

// RemoveGraphEvent drops a resource and its payload.
type RemoveGraphEvent struct {
	Resource Resource
}

// AddNodesEvent inserts or replaces nodes inside a graph.
type AddNodesEvent struct {
	Resource Resource
	Nodes    []IndexedNode
}

// IndexedNode is a node addressed by its full path.
type IndexedNode struct {
	Index Index
	Node  *Node
}

// RemoveNodesEvent deletes nodes (and their descendants) from a graph.
type RemoveNodesEvent struct {
	Resource Resource
	Indices  []Index
}

// SidebarEvent sets the sidebar flag, or flips it when Shown is nil.
type SidebarEvent struct {
	Shown *bool
}

// UnknownEvent carries a kind this package does not understand. Type is
// empty when the producer sent no discriminant at all.
type UnknownEvent struct {
	Type string
	Body []byte
}

func (KeysEvent) Kind() string        { return KindKeys }
func (AddGraphEvent) Kind() string    { return KindAddGraph }
func (RemoveGraphEvent) Kind() string { return KindRemoveGraph }
func (AddNodesEvent) Kind() string    { return KindAddNodes }
func (RemoveNodesEvent) Kind() string { return KindRemoveNodes }
func (SidebarEvent) Kind() string     { return KindSidebarToggled }
func (e UnknownEvent) Kind() string   { return e.Type }

func (KeysEvent) isEvent()        {}
func (AddGraphEvent) isEvent()    {}
func (RemoveGraphEvent) isEvent() {}
func (AddNodesEvent) isEvent()    {}
func (RemoveNodesEvent) isEvent() {}
func (SidebarEvent) isEvent()     {}
func (UnknownEvent) isEvent()     {}

// KindOf returns the kind of e, or "" for nil.
func KindOf(e Event) string {
	if e == nil {
		return ""
	}
	return e.Kind()
}

// IsKnown reports whether the reducer understands e.
func IsKnown(e Event) bool {
	switch e.(type) {
	case KeysEvent, AddGraphEvent, RemoveGraphEvent, AddNodesEvent, RemoveNodesEvent, SidebarEvent:
		return true
	default:
		return false
	}
}
