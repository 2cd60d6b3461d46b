package testutil

import (
	"fmt"
	"sync"
)

// FixedIDs returns predetermined event IDs in order.
//
// Panics once all IDs are consumed so that a test producing more events
// than expected fails loudly instead of reusing an ID.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDs creates a generator over ids.
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Generate returns the next ID.
func (g *FixedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic(fmt.Sprintf("FixedIDs exhausted after %d ids", len(g.ids)))
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
