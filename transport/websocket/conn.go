// Package websocket carries transport payloads over gorilla/websocket
// connections and provides a broadcast relay for them.
package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	gws "github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/transport"
)

// Event types.
const (
	EventDial        observability.EventType = "websocket.dial"
	EventDisconnect  observability.EventType = "websocket.disconnect"
	EventClientJoin  observability.EventType = "websocket.relay.join"
	EventClientLeave observability.EventType = "websocket.relay.leave"
	EventUpstream    observability.EventType = "websocket.relay.upstream"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultDialRetries  = 5
	defaultReadLimit    = 64 << 10
)

// Option configures a Conn or Relay.
type Option func(*options)

type options struct {
	observer     observability.Observer
	writeTimeout time.Duration
	retries      uint64
	readLimit    int64
	dialer       *gws.Dialer
}

func defaults() options {
	return options{
		observer:     observability.NewSlogObserver(slog.Default()),
		writeTimeout: defaultWriteTimeout,
		retries:      defaultDialRetries,
		readLimit:    defaultReadLimit,
		dialer:       gws.DefaultDialer,
	}
}

// WithObserver overrides the default SlogObserver.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithWriteTimeout bounds each write when the context has no deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

// WithDialRetries sets how many times Dial retries before giving up.
func WithDialRetries(n uint64) Option {
	return func(o *options) { o.retries = n }
}

// WithReadLimit caps the size of one inbound message in bytes. A peer that
// exceeds it is disconnected.
func WithReadLimit(n int64) Option {
	return func(o *options) { o.readLimit = n }
}

// Conn is a Transport over one websocket connection.
type Conn struct {
	conn *gws.Conn
	opts options

	writeMu sync.Mutex

	mu      sync.RWMutex
	handler transport.Handler

	closed atomic.Bool
	done   chan struct{}
}

var _ transport.Transport = (*Conn)(nil)

// Dial connects to url, retrying with exponential backoff.
func Dial(ctx context.Context, url string, opts ...Option) (*Conn, error) {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}

	var conn *gws.Conn
	attempt := 0
	op := func() error {
		attempt++
		c, _, err := o.dialer.DialContext(ctx, url, nil)
		if err != nil {
			observability.Emit(ctx, o.observer, EventDial, observability.LevelWarning, "websocket.Dial", map[string]any{
				"url":     url,
				"attempt": attempt,
				"error":   err.Error(),
			})
			return err
		}
		conn = c
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.retries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	observability.Emit(ctx, o.observer, EventDial, observability.LevelInfo, "websocket.Dial", map[string]any{
		"url":     url,
		"attempt": attempt,
	})
	return newConn(conn, o), nil
}

// NewConn wraps an established connection and starts reading from it.
func NewConn(c *gws.Conn, opts ...Option) *Conn {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}
	return newConn(c, o)
}

func newConn(c *gws.Conn, o options) *Conn {
	c.SetReadLimit(o.readLimit)
	conn := &Conn{
		conn: c,
		opts: o,
		done: make(chan struct{}),
	}
	go conn.readLoop()
	return conn
}

func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if c.closed.Load() {
		return transport.ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.opts.writeTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(gws.BinaryMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (c *Conn) OnReceive(h transport.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Close sends a close frame, releases the connection and waits for the read
// loop to exit. It must not be called from the receive handler.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.writeMu.Lock()
	msg := gws.FormatCloseMessage(gws.CloseNormalClosure, "")
	_ = c.conn.WriteControl(gws.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}

// Done is closed when the read loop exits.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				observability.Emit(context.Background(), c.opts.observer, EventDisconnect, observability.LevelWarning, "websocket.readLoop", map[string]any{
					"error": err.Error(),
				})
			}
			return
		}

		c.mu.RLock()
		h := c.handler
		c.mu.RUnlock()

		if h != nil {
			h(data)
		}
	}
}
