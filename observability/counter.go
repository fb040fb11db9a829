package observability

import (
	"context"
	"maps"
	"sync"
)

// Counter tallies events by type. Safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[EventType]int64
}

func (c *Counter) OnEvent(_ context.Context, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[EventType]int64)
	}
	c.counts[event.Type]++
}

// Count returns the number of events of typ seen so far.
func (c *Counter) Count(typ EventType) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[typ]
}

// Snapshot returns a copy of every count.
func (c *Counter) Snapshot() map[EventType]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.counts)
}
