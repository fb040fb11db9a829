package transport

import (
	"context"
	"slices"
	"sync"
)

// Pipe is an in-memory Transport. Payloads sent on one end are delivered
// synchronously to the handler of every connected peer.
type Pipe struct {
	mu      sync.RWMutex
	handler Handler
	peers   []*Pipe
	closed  bool
}

// NewPipe returns two connected ends.
func NewPipe() (*Pipe, *Pipe) {
	a, b := &Pipe{}, &Pipe{}
	a.peers = []*Pipe{b}
	b.peers = []*Pipe{a}
	return a, b
}

// Connect links p to other in both directions.
func (p *Pipe) Connect(other *Pipe) {
	p.mu.Lock()
	p.peers = append(p.peers, other)
	p.mu.Unlock()

	other.mu.Lock()
	other.peers = append(other.peers, p)
	other.mu.Unlock()
}

func (p *Pipe) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	peers := slices.Clone(p.peers)
	p.mu.RUnlock()

	for _, peer := range peers {
		peer.deliver(slices.Clone(payload))
	}
	return nil
}

func (p *Pipe) OnReceive(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.handler = nil
	return nil
}

func (p *Pipe) deliver(payload []byte) {
	p.mu.RLock()
	h := p.handler
	closed := p.closed
	p.mu.RUnlock()

	if h != nil && !closed {
		h(payload)
	}
}
