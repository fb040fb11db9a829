package connectrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/transport"
)

// EventStreamClosed is emitted when the subscription ends unexpectedly.
const EventStreamClosed observability.EventType = "connectrpc.stream.closed"

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides http.DefaultClient.
func WithHTTPClient(c connect.HTTPClient) ClientOption {
	return func(cl *Client) { cl.http = c }
}

// WithClientObserver overrides the default SlogObserver.
func WithClientObserver(o observability.Observer) ClientOption {
	return func(cl *Client) { cl.observer = o }
}

// Client is a Transport connected to a Relay.
type Client struct {
	id       string
	http     connect.HTTPClient
	observer observability.Observer

	publish   *connect.Client[wrapperspb.BytesValue, emptypb.Empty]
	subscribe *connect.Client[wrapperspb.StringValue, wrapperspb.BytesValue]

	mu      sync.RWMutex
	handler transport.Handler

	closed atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

var _ transport.Transport = (*Client)(nil)

// Dial subscribes to the relay at baseURL and returns once the subscription
// is live.
func Dial(ctx context.Context, baseURL string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		id:       uuid.Must(uuid.NewV7()).String(),
		http:     http.DefaultClient,
		observer: observability.NewSlogObserver(slog.Default()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := strings.TrimSuffix(baseURL, "/")
	c.publish = connect.NewClient[wrapperspb.BytesValue, emptypb.Empty](c.http, base+PublishProcedure)
	c.subscribe = connect.NewClient[wrapperspb.StringValue, wrapperspb.BytesValue](c.http, base+SubscribeProcedure)

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := c.subscribe.CallServerStream(streamCtx, connect.NewRequest(wrapperspb.String(c.id)))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	ready := make(chan error, 1)
	go func() {
		if stream.Receive() {
			ready <- nil
		} else {
			ready <- fmt.Errorf("subscribe: %w", errors.Join(stream.Err(), errors.New("stream closed before ready")))
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			stream.Close()
			return nil, err
		}
	case <-ctx.Done():
		cancel()
		stream.Close()
		return nil, ctx.Err()
	}

	c.cancel = cancel
	go c.receive(stream)
	return c, nil
}

// ID returns the client identifier the relay knows this client by.
func (c *Client) ID() string { return c.id }

func (c *Client) Send(ctx context.Context, payload []byte) error {
	if c.closed.Load() {
		return transport.ErrClosed
	}

	req := connect.NewRequest(wrapperspb.Bytes(payload))
	req.Header().Set(ClientHeader, c.id)

	if _, err := c.publish.CallUnary(ctx, req); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (c *Client) OnReceive(h transport.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Close ends the subscription and waits for the receive loop to exit.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	<-c.done
	return nil
}

func (c *Client) receive(stream *connect.ServerStreamForClient[wrapperspb.BytesValue]) {
	defer close(c.done)
	defer stream.Close()

	for stream.Receive() {
		c.mu.RLock()
		h := c.handler
		c.mu.RUnlock()

		if h != nil {
			h(stream.Msg().GetValue())
		}
	}

	if err := stream.Err(); err != nil && !c.closed.Load() {
		observability.Emit(context.Background(), c.observer, EventStreamClosed, observability.LevelWarning, "connectrpc.Client", map[string]any{
			"error": err.Error(),
		})
	}
}
