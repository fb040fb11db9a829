package transport

import (
	"slices"
	"sync"
)

// Bus is an in-memory pub/sub channel. Every payload sent on an attached end
// is delivered to all ends, the sender included, the way a broker channel
// echoes to its publisher.
type Bus struct {
	mu   sync.Mutex
	ends []*Pipe
}

// NewBus creates a bus with no ends.
func NewBus() *Bus {
	return &Bus{}
}

// Attach adds a new end to the bus.
func (b *Bus) Attach() *Pipe {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := &Pipe{peers: append(slices.Clone(b.ends), nil)}
	p.peers[len(p.peers)-1] = p

	for _, e := range b.ends {
		e.mu.Lock()
		e.peers = append(e.peers, p)
		e.mu.Unlock()
	}
	b.ends = append(b.ends, p)
	return p
}
