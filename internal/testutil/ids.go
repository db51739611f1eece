package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable machine identifiers: "<prefix>-1",
// "<prefix>-2", ... It implements engine.IDGenerator.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs returns a generator. An empty prefix defaults to "machine".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "machine"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
