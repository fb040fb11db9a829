// Package transport defines the message transport the real-time text engine
// rides on. Implementations deliver opaque payloads; they make no delivery
// guarantee and report failures as errors, never panics.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Handler receives inbound payloads. It may be called from any goroutine.
type Handler func(payload []byte)

// Transport sends payloads and delivers inbound ones to a registered handler.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
	// OnReceive registers the inbound handler, replacing any previous one.
	OnReceive(h Handler)
	Close() error
}
