package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/shapeforge/internal/ir"
)

// SequentialHandles hands out "<prefix>-0001", "<prefix>-0002", ...
//
// Golden traces depend on handles being stable across runs, which the
// production UUIDv7 generator cannot give.
type SequentialHandles struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialHandles creates a generator. An empty prefix means "shape".
func NewSequentialHandles(prefix string) *SequentialHandles {
	if prefix == "" {
		prefix = "shape"
	}
	return &SequentialHandles{prefix: prefix}
}

// Generate returns the next handle.
func (g *SequentialHandles) Generate() ir.Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return ir.Handle(fmt.Sprintf("%s-%04d", g.prefix, g.n))
}
