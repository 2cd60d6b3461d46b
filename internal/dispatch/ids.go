package dispatch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces unique event IDs.
// Implemented by UUIDv7Generator (production) and SequentialGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// Clock stamps envelopes with monotonic sequence numbers.
// Implemented by state.Clock.
type Clock interface {
	Next() int64
}

// UUIDv7Generator generates time-sortable UUIDv7 event IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialGenerator returns prefix-0001, prefix-0002, ... for
// deterministic journals and golden output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator. An empty prefix means "evt".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
