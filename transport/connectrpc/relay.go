// Package connectrpc carries transport payloads over Connect RPCs: a unary
// Publish call and a server-streaming Subscribe call, both using protobuf
// well-known types so no generated code is needed.
package connectrpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/transport"
)

const (
	// ServicePath prefixes every relay procedure.
	ServicePath = "/livetext.relay.v1.RelayService/"

	PublishProcedure   = ServicePath + "Publish"
	SubscribeProcedure = ServicePath + "Subscribe"

	// ClientHeader identifies the publisher so its own subscription is
	// skipped.
	ClientHeader = "Livetext-Client"
)

// Event types.
const (
	EventSubscribe   observability.EventType = "connectrpc.subscribe"
	EventUnsubscribe observability.EventType = "connectrpc.unsubscribe"
	EventDropped     observability.EventType = "connectrpc.dropped"
	EventUpstream    observability.EventType = "connectrpc.upstream"
)

const defaultBuffer = 256

// maxPublishBytes caps one Publish request body.
const maxPublishBytes = 64 << 10

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithRelayObserver overrides the default SlogObserver.
func WithRelayObserver(o observability.Observer) RelayOption {
	return func(r *Relay) { r.observer = o }
}

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) RelayOption {
	return func(r *Relay) { r.buffer = n }
}

// Relay fans published payloads out to every other subscriber.
type Relay struct {
	mux      *http.ServeMux
	observer observability.Observer
	buffer   int

	mu       sync.RWMutex
	subs     map[string]chan []byte
	upstream transport.Transport
}

// NewRelay creates a relay serving both procedures.
func NewRelay(opts ...RelayOption) *Relay {
	r := &Relay{
		mux:      http.NewServeMux(),
		observer: observability.NewSlogObserver(slog.Default()),
		buffer:   defaultBuffer,
		subs:     make(map[string]chan []byte),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.mux.Handle(PublishProcedure, connect.NewUnaryHandler(PublishProcedure, r.publish,
		connect.WithReadMaxBytes(maxPublishBytes),
	))
	r.mux.Handle(SubscribeProcedure, connect.NewServerStreamHandler(SubscribeProcedure, r.subscribe))
	return r
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Federate routes published payloads through upstream; everything upstream
// delivers is broadcast to all subscribers.
func (r *Relay) Federate(upstream transport.Transport) {
	r.mu.Lock()
	r.upstream = upstream
	r.mu.Unlock()

	upstream.OnReceive(r.Broadcast)
}

// Subscribers returns the number of open subscriptions.
func (r *Relay) Subscribers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Broadcast delivers payload to every subscriber.
func (r *Relay) Broadcast(payload []byte) {
	r.fanout(context.Background(), "", payload)
}

func (r *Relay) publish(ctx context.Context, req *connect.Request[wrapperspb.BytesValue]) (*connect.Response[emptypb.Empty], error) {
	payload := req.Msg.GetValue()
	if len(payload) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("empty payload"))
	}

	r.mu.RLock()
	upstream := r.upstream
	r.mu.RUnlock()

	if upstream != nil {
		if err := upstream.Send(ctx, payload); err != nil {
			observability.Emit(ctx, r.observer, EventUpstream, observability.LevelWarning, "connectrpc.Relay", map[string]any{
				"error": err.Error(),
			})
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		return connect.NewResponse(&emptypb.Empty{}), nil
	}

	r.fanout(ctx, req.Header().Get(ClientHeader), payload)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (r *Relay) subscribe(ctx context.Context, req *connect.Request[wrapperspb.StringValue], stream *connect.ServerStream[wrapperspb.BytesValue]) error {
	id := req.Msg.GetValue()
	if id == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("missing client id"))
	}

	ch := make(chan []byte, r.buffer)
	r.mu.Lock()
	if _, exists := r.subs[id]; exists {
		r.mu.Unlock()
		return connect.NewError(connect.CodeAlreadyExists, errors.New("client already subscribed"))
	}
	r.subs[id] = ch
	r.mu.Unlock()

	defer r.remove(ctx, id, ch)

	observability.Emit(ctx, r.observer, EventSubscribe, observability.LevelInfo, "connectrpc.Relay", map[string]any{
		"client": id,
	})

	// The empty first message tells the client its subscription is live.
	if err := stream.Send(&wrapperspb.BytesValue{}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-ch:
			if !ok {
				return connect.NewError(connect.CodeResourceExhausted, errors.New("subscriber too slow"))
			}
			if err := stream.Send(&wrapperspb.BytesValue{Value: payload}); err != nil {
				return err
			}
		}
	}
}

func (r *Relay) fanout(ctx context.Context, from string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, ch := range r.subs {
		if id == from {
			continue
		}
		select {
		case ch <- payload:
		default:
			delete(r.subs, id)
			close(ch)
			observability.Emit(ctx, r.observer, EventDropped, observability.LevelWarning, "connectrpc.Relay", map[string]any{
				"client": id,
			})
		}
	}
}

func (r *Relay) remove(ctx context.Context, id string, ch chan []byte) {
	r.mu.Lock()
	if cur, ok := r.subs[id]; ok && cur == ch {
		delete(r.subs, id)
	}
	r.mu.Unlock()

	observability.Emit(ctx, r.observer, EventUnsubscribe, observability.LevelInfo, "connectrpc.Relay", map[string]any{
		"client": id,
	})
}
