package websocket

import (
	"context"
	"net/http"
	"sync"

	gws "github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/transport"
)

const clientBuffer = 256

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *gws.Conn
	send chan []byte
}

// Relay is an http.Handler that upgrades connections and forwards every
// payload it receives to all other connected clients. Slow clients whose
// buffer fills are dropped.
type Relay struct {
	opts options

	mu       sync.RWMutex
	clients  map[*client]struct{}
	upstream transport.Transport
}

// NewRelay creates an empty relay.
func NewRelay(opts ...Option) *Relay {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}
	return &Relay{
		opts:    o,
		clients: make(map[*client]struct{}),
	}
}

// Federate routes inbound payloads through upstream instead of broadcasting
// them locally. Everything upstream delivers is broadcast to every client,
// the original sender included, so several relays sharing one upstream
// channel behave as one.
func (r *Relay) Federate(upstream transport.Transport) {
	r.mu.Lock()
	r.upstream = upstream
	r.mu.Unlock()

	upstream.OnReceive(r.Broadcast)
}

// Clients returns the number of connected clients.
func (r *Relay) Clients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		observability.Emit(req.Context(), r.opts.observer, EventClientJoin, observability.LevelWarning, "websocket.Relay", map[string]any{
			"error": err.Error(),
		})
		return
	}

	conn.SetReadLimit(r.opts.readLimit)

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	r.register(c)

	go r.writePump(c)
	r.readPump(req.Context(), c)
}

// Broadcast forwards payload to every connected client.
func (r *Relay) Broadcast(payload []byte) {
	r.broadcast(nil, payload)
}

func (r *Relay) broadcast(from *client, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.clients {
		if c == from {
			continue
		}
		select {
		case c.send <- payload:
		default:
			delete(r.clients, c)
			close(c.send)
		}
	}
}

func (r *Relay) register(c *client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	n := len(r.clients)
	r.mu.Unlock()

	observability.Emit(context.Background(), r.opts.observer, EventClientJoin, observability.LevelInfo, "websocket.Relay", map[string]any{
		"clients": n,
	})
}

func (r *Relay) unregister(c *client) {
	r.mu.Lock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
	n := len(r.clients)
	r.mu.Unlock()

	observability.Emit(context.Background(), r.opts.observer, EventClientLeave, observability.LevelInfo, "websocket.Relay", map[string]any{
		"clients": n,
	})
}

func (r *Relay) readPump(ctx context.Context, c *client) {
	defer func() {
		r.unregister(c)
		c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		r.mu.RLock()
		upstream := r.upstream
		r.mu.RUnlock()

		if upstream == nil {
			r.broadcast(c, payload)
			continue
		}
		if err := upstream.Send(ctx, payload); err != nil {
			observability.Emit(ctx, r.opts.observer, EventUpstream, observability.LevelWarning, "websocket.Relay", map[string]any{
				"error": err.Error(),
			})
		}
	}
}

func (r *Relay) writePump(c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		if err := c.conn.WriteMessage(gws.BinaryMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(gws.CloseMessage, []byte{})
}
