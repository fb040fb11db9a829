// Package redis carries transport payloads over a Redis pub/sub channel.
// Redis delivers every published payload to all subscribers, the publisher
// included; receivers are expected to drop their own frames.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/transport"
)

// EventSubscribed is emitted once the channel subscription is confirmed.
const EventSubscribed observability.EventType = "redis.subscribed"

// Option configures a Transport.
type Option func(*Transport)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(t *Transport) { t.observer = o }
}

// Transport publishes to and receives from one channel.
type Transport struct {
	client   goredis.UniversalClient
	channel  string
	pubsub   *goredis.PubSub
	observer observability.Observer

	mu      sync.RWMutex
	handler transport.Handler

	owned  bool
	closed atomic.Bool
	done   chan struct{}
}

var _ transport.Transport = (*Transport)(nil)

// New subscribes to channel and returns once the subscription is confirmed.
func New(ctx context.Context, client goredis.UniversalClient, channel string, opts ...Option) (*Transport, error) {
	t := &Transport{
		client:   client,
		channel:  channel,
		observer: observability.NewSlogObserver(slog.Default()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.pubsub = client.Subscribe(ctx, channel)
	if _, err := t.pubsub.Receive(ctx); err != nil {
		t.pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	observability.Emit(ctx, t.observer, EventSubscribed, observability.LevelInfo, "redis.New", map[string]any{
		"channel": channel,
	})

	go t.receive()
	return t, nil
}

// Dial connects to the Redis server at addr and subscribes to channel.
func Dial(ctx context.Context, addr, channel string, opts ...Option) (*Transport, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return newOwned(ctx, client, channel, opts...)
}

// newOwned subscribes over a client the Transport owns. The client is closed
// when subscribing fails and by Close.
func newOwned(ctx context.Context, client goredis.UniversalClient, channel string, opts ...Option) (*Transport, error) {
	t, err := New(ctx, client, channel, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	t.owned = true
	return t, nil
}

func (t *Transport) Send(ctx context.Context, payload []byte) error {
	if t.closed.Load() {
		return transport.ErrClosed
	}
	if err := t.client.Publish(ctx, t.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", t.channel, err)
	}
	return nil
}

func (t *Transport) OnReceive(h transport.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Close ends the subscription. A client passed to New is left open; one
// created by Dial is closed too.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := t.pubsub.Close()
	<-t.done
	if t.owned {
		err = errors.Join(err, t.client.Close())
	}
	return err
}

func (t *Transport) receive() {
	defer close(t.done)

	for msg := range t.pubsub.Channel() {
		t.mu.RLock()
		h := t.handler
		t.mu.RUnlock()

		if h != nil {
			h([]byte(msg.Payload))
		}
	}
}
