package chat_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/livetext/chat"
	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/render"
	"github.com/tailored-agentic-units/livetext/scheduler"
	"github.com/tailored-agentic-units/livetext/transport"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock is a manual clock shared between the loop, which arms timers,
// and the test, which advances time.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) scheduler.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance fires every timer due by now+d. Callbacks only post into the
// conversation inbox, so they run outside the lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

type captureRenderer struct {
	mu      sync.Mutex
	outputs []render.Output
}

func (r *captureRenderer) Render(_ context.Context, out render.Output) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, out)
	return nil
}

func (r *captureRenderer) last() render.Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outputs) == 0 {
		return render.Output{}
	}
	return r.outputs[len(r.outputs)-1]
}

// loopback delivers every payload back to its own handler, as a pub/sub
// channel does for its publisher.
type loopback struct {
	mu      sync.Mutex
	handler transport.Handler
}

func (l *loopback) Send(_ context.Context, payload []byte) error {
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()
	if h != nil {
		h(payload)
	}
	return nil
}

func (l *loopback) OnReceive(h transport.Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

func (l *loopback) Close() error { return nil }

var errUnreachable = errors.New("peer unreachable")

type failingTransport struct{}

func (failingTransport) Send(context.Context, []byte) error { return errUnreachable }
func (failingTransport) OnReceive(transport.Handler) {}
func (failingTransport) Close() error { return nil }

type party struct {
	conv     *chat.Conversation
	clock    *fakeClock
	renderer *captureRenderer
	rec      *observability.Recorder
}

// start creates a running conversation named name over tr.
func start(t *testing.T, name string, tr transport.Transport, configure func(*chat.Config)) *party {
	t.Helper()

	cfg := chat.DefaultConfig()
	cfg.Name = name
	if configure != nil {
		configure(&cfg)
	}

	p := &party{
		clock:    &fakeClock{},
		renderer: &captureRenderer{},
		rec:      &observability.Recorder{},
	}

	conv, err := chat.New(&cfg, tr, p.renderer,
		chat.WithClock(p.clock),
		chat.WithObserver(p.rec),
	)
	if err != nil {
		t.Fatalf("chat.New() error = %v", err)
	}
	p.conv = conv

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- conv.Run(ctx) }()

	t.Cleanup(func() {
		conv.Close()
		cancel()
		<-done
	})
	return p
}

// pair connects alice and bob over an in-memory pipe.
func pair(t *testing.T, configure func(*chat.Config)) (*party, *party) {
	t.Helper()
	a, b := transport.NewPipe()
	return start(t, "alice", a, configure), start(t, "bob", b, configure)
}

// settle waits for queued work and the render pass it requests.
func (p *party) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for range 2 {
		if err := p.conv.Sync(ctx); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
	}
}

func (p *party) status(t *testing.T) chat.Status {
	t.Helper()
	st, err := p.conv.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	return st
}
