// Package chat runs one real-time text conversation.
//
// A Conversation owns a session, a transmission scheduler and a render
// coordinator and drives them from a single goroutine started with Run. Public
// methods post a closure into the conversation's inbox and wait for it to
// complete. Transport callbacks, scheduler timers and render passes are
// posted into the same inbox, so operations from one sender are applied in
// the order they were received.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/livetext/codec"
	"github.com/tailored-agentic-units/livetext/core/edit"
	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/render"
	"github.com/tailored-agentic-units/livetext/scheduler"
	"github.com/tailored-agentic-units/livetext/session"
	"github.com/tailored-agentic-units/livetext/transport"
)

const (
	defaultInboxSize   = 256
	defaultSendTimeout = 5 * time.Second
)

// Option configures a Conversation after config-driven initialization.
type Option func(*Conversation)

// WithObserver overrides the default SlogObserver for the conversation and
// its scheduler and render coordinator.
func WithObserver(o observability.Observer) Option {
	return func(c *Conversation) { c.observer = o }
}

// WithClock overrides the scheduler's system clock.
func WithClock(clock scheduler.Clock) Option {
	return func(c *Conversation) { c.clock = clock }
}

// WithCodec overrides the reference codec.
func WithCodec(cd codec.Codec) Option {
	return func(c *Conversation) { c.codec = cd }
}

// WithSession uses an existing session instead of creating one from config.
func WithSession(s session.Session) Option {
	return func(c *Conversation) { c.session = s }
}

// WithInboxSize sets the inbox capacity.
func WithInboxSize(n int) Option {
	return func(c *Conversation) { c.inboxSize = n }
}

// WithSendTimeout bounds each transport send.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Conversation) { c.sendTimeout = d }
}

// Status is a snapshot of the conversation's runtime settings.
type Status struct {
	Name         string
	Mode         render.Mode
	Interval     time.Duration
	PerKeystroke bool
	RealTime     bool
	ChatStates   bool
	TimerRunning bool
	Settings     render.Settings
}

// Conversation is one real-time text chat between the local party and every
// remote party reachable over its transport.
type Conversation struct {
	name        string
	transport   transport.Transport
	codec       codec.Codec
	session     session.Session
	scheduler   *scheduler.Scheduler
	coordinator *render.Coordinator
	observer    observability.Observer
	clock       scheduler.Clock
	metrics     *Metrics

	inboxSize   int
	sendTimeout time.Duration
	inbox       *inbox[func()]

	// Loop-owned state.
	decoders   map[string]codec.Decoder
	chatStates bool

	statesMu sync.RWMutex
	states   map[string]codec.ChatState

	running   atomic.Bool
	stopped   chan struct{}
	closeOnce sync.Once
}

// New creates a Conversation over t that renders through r. cfg is resolved
// over the defaults, so a partial Config is accepted. The transport's
// receive handler is installed immediately; frames are queued until Run
// starts.
func New(cfg *Config, t transport.Transport, r render.Renderer, opts ...Option) (*Conversation, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	c := &Conversation{
		transport:   t,
		codec:       codec.New(),
		observer:    observability.NewSlogObserver(slog.Default()),
		clock:       scheduler.SystemClock(),
		metrics:     &Metrics{},
		inboxSize:   defaultInboxSize,
		sendTimeout: defaultSendTimeout,
		decoders:    make(map[string]codec.Decoder),
		chatStates:  resolved.ChatStates,
		states:      make(map[string]codec.ChatState),
		stopped:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.inbox = newInbox[func()](c.inboxSize)

	if c.session == nil {
		sess, err := session.New(&resolved.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		c.session = sess
	}

	c.name = resolved.Name
	if c.name == "" {
		c.name = c.session.ID()
	}

	sched, err := scheduler.New(&resolved.Scheduler, c.codec.NewEncoder(), c.transmit,
		scheduler.WithClock(c.clock),
		scheduler.WithDispatch(c.post),
		scheduler.WithObserver(c.observer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	sched.SetEnabled(resolved.RealTimeEnabled())
	c.scheduler = sched

	coord, err := render.New(&resolved.Render, c.session, r, c.post, render.WithObserver(c.observer))
	if err != nil {
		return nil, fmt.Errorf("failed to create render coordinator: %w", err)
	}
	c.coordinator = coord

	t.OnReceive(c.receive)
	return c, nil
}

// Name returns the local party's identifier.
func (c *Conversation) Name() string { return c.name }

// Session returns the conversation's session.
func (c *Conversation) Session() session.Session { return c.session }

// Run processes the inbox until ctx is done or Close is called. It returns
// nil after Close.
func (c *Conversation) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(c.stopped)
	defer c.scheduler.Stop()

	c.coordinator.Request()

	for {
		f, err := c.inbox.receive(ctx)
		if err != nil {
			if c.inbox.closed() {
				return nil
			}
			return err
		}
		f()
	}
}

// Close stops the loop and closes the transport. It must not be called from
// a Renderer, which runs on the loop.
func (c *Conversation) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.inbox.close()
		if c.running.Load() {
			<-c.stopped
		}
		err = c.transport.Close()
	})
	return err
}

// LocalChange records the latest local input.
func (c *Conversation) LocalChange(ctx context.Context, snap edit.Snapshot) error {
	return c.do(ctx, func() error {
		c.scheduler.OnLocalChange(ctx, snap)
		return nil
	})
}

// Type records text with the cursor at its end.
func (c *Conversation) Type(ctx context.Context, text string) error {
	return c.LocalChange(ctx, edit.EndOf(text))
}

// Send completes the local message. The final real-time text and the body go
// out in one frame, and on success the message is appended to history. A
// failed send leaves history unchanged.
func (c *Conversation) Send(ctx context.Context, body string) error {
	return c.do(ctx, func() error {
		if strings.TrimSpace(body) == "" {
			return ErrEmptyMessage
		}

		if err := c.scheduler.OnSend(ctx, body); err != nil {
			observability.Emit(ctx, c.observer, EventSendFailed, observability.LevelWarning, "chat.Send", map[string]any{
				"error": err.Error(),
			})
			return err
		}

		entry := c.session.AppendHistory(c.name, body, session.TagLocal, true)
		observability.Emit(ctx, c.observer, EventSend, observability.LevelVerbose, "chat.Send", map[string]any{
			"index": entry.Index,
		})
		c.coordinator.Request()
		return nil
	})
}

// SetMode switches the display mode.
func (c *Conversation) SetMode(ctx context.Context, mode string) error {
	m, err := render.ParseMode(mode)
	if err != nil {
		return err
	}
	return c.do(ctx, func() error {
		return c.coordinator.SetMode(m)
	})
}

// Configure changes the transmission interval and mode. A negative interval
// is rejected and the previous settings are kept.
func (c *Conversation) Configure(ctx context.Context, interval time.Duration, perKeystroke bool) error {
	return c.do(ctx, func() error {
		return c.scheduler.Configure(interval, perKeystroke)
	})
}

// SetCursor changes the cursor glyph shown in live text. Zero hides it.
func (c *Conversation) SetCursor(ctx context.Context, glyph rune) error {
	return c.do(ctx, func() error {
		c.setCursor(glyph)
		return nil
	})
}

// ApplyPreset applies the named preset's interval, mode and cursor.
func (c *Conversation) ApplyPreset(ctx context.Context, name string) error {
	p, err := LookupPreset(name)
	if err != nil {
		return err
	}

	return c.do(ctx, func() error {
		if err := c.scheduler.Configure(p.Interval, p.PerKeystroke); err != nil {
			return err
		}
		glyph := rune(0)
		if p.Cursor {
			glyph = render.DefaultCursorGlyph
		}
		c.setCursor(glyph)

		observability.Emit(ctx, c.observer, EventPreset, observability.LevelInfo, "chat.ApplyPreset", map[string]any{
			"preset": p.Name,
		})
		return nil
	})
}

// SetRealTime toggles real-time text. Disabling clears the encoder, drops
// every live stream and invalidates the render caches; inbound packets are
// ignored until it is enabled again.
func (c *Conversation) SetRealTime(ctx context.Context, enabled bool) error {
	return c.do(ctx, func() error {
		c.setRealTime(ctx, enabled)
		return nil
	})
}

// SetChatStates toggles composing/active notifications on outgoing frames.
func (c *Conversation) SetChatStates(ctx context.Context, enabled bool) error {
	return c.do(ctx, func() error {
		c.chatStates = enabled
		return nil
	})
}

// Clear stops transmission, erases our live text on the remote side when
// there is any, and discards history, streams and render caches.
func (c *Conversation) Clear(ctx context.Context) error {
	return c.do(ctx, func() error {
		c.scheduler.Reset(ctx)
		c.session.Clear()
		clear(c.decoders)
		c.coordinator.Reset()

		observability.Emit(ctx, c.observer, EventClear, observability.LevelInfo, "chat.Clear", nil)
		c.coordinator.Request()
		return nil
	})
}

// Reconfigure applies the runtime parts of cfg: preset, scheduler, display
// and real-time settings. Transport and session sections are ignored. cfg is
// validated first and nothing changes when it is invalid.
func (c *Conversation) Reconfigure(ctx context.Context, cfg *Config) error {
	resolved, err := cfg.Resolve()
	if err != nil {
		return err
	}
	if err := resolved.Validate(); err != nil {
		return err
	}
	mode, err := render.ParseMode(resolved.Render.Mode)
	if err != nil {
		return err
	}

	return c.do(ctx, func() error {
		if err := c.scheduler.Configure(resolved.Scheduler.Interval(), resolved.Scheduler.KeystrokeMode()); err != nil {
			return err
		}
		if settings := resolved.Render.Settings(); settings != c.coordinator.Settings() {
			c.coordinator.SetSettings(settings)
		}
		if mode != c.coordinator.Mode() {
			if err := c.coordinator.SetMode(mode); err != nil {
				return err
			}
		}
		c.chatStates = resolved.ChatStates
		c.setRealTime(ctx, resolved.RealTimeEnabled())
		return nil
	})
}

// Status returns the current runtime settings.
func (c *Conversation) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, func() error {
		st = Status{
			Name:         c.name,
			Mode:         c.coordinator.Mode(),
			Interval:     c.scheduler.Interval(),
			PerKeystroke: c.scheduler.PerKeystroke(),
			RealTime:     c.scheduler.Enabled(),
			ChatStates:   c.chatStates,
			TimerRunning: c.scheduler.Running(),
			Settings:     c.coordinator.Settings(),
		}
		return nil
	})
	return st, err
}

// Sync waits until every operation queued before it has run.
func (c *Conversation) Sync(ctx context.Context) error {
	return c.do(ctx, func() error { return nil })
}

// History returns the completed messages in chat order.
func (c *Conversation) History() []session.HistoryEntry {
	return c.session.History()
}

// Streams returns the live streams of remote parties.
func (c *Conversation) Streams() []session.StreamView {
	return c.session.Streams()
}

// Output formats the current state for mode without rendering it.
func (c *Conversation) Output(mode render.Mode) (render.Output, error) {
	return c.coordinator.Output(mode)
}

// ChatState returns the last chat state announced by sender.
func (c *Conversation) ChatState(sender string) codec.ChatState {
	c.statesMu.RLock()
	defer c.statesMu.RUnlock()
	return c.states[sender]
}

// Metrics returns the transport and render counters.
func (c *Conversation) Metrics() MetricsSnapshot {
	snap := c.metrics.Snapshot()
	snap.Render = c.coordinator.Stats()
	return snap
}

func (c *Conversation) do(ctx context.Context, f func() error) error {
	errc := make(chan error, 1)
	if err := c.inbox.send(ctx, func() { errc <- f() }); err != nil {
		if c.inbox.closed() {
			return ErrClosed
		}
		return err
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.inbox.done():
		select {
		case err := <-errc:
			return err
		default:
			return ErrClosed
		}
	}
}

// post queues f without blocking the caller. Callers on the loop itself must
// never wait for inbox space, so a full inbox hands the send to a goroutine.
func (c *Conversation) post(f func()) {
	if c.inbox.trySend(f) {
		return
	}
	go func() { _ = c.inbox.send(context.Background(), f) }()
}

func (c *Conversation) setCursor(glyph rune) {
	s := c.coordinator.Settings()
	if s.CursorGlyph == glyph {
		return
	}
	s.CursorGlyph = glyph
	c.coordinator.SetSettings(s)
}

func (c *Conversation) setRealTime(ctx context.Context, enabled bool) {
	if c.scheduler.Enabled() == enabled {
		return
	}

	c.scheduler.SetEnabled(enabled)
	if !enabled {
		c.session.ClearStreams()
		clear(c.decoders)
		c.coordinator.Reset()
		c.coordinator.Request()
	}

	observability.Emit(ctx, c.observer, EventRealTime, observability.LevelInfo, "chat.SetRealTime", map[string]any{
		"enabled": enabled,
	})
}

// transmit sends one scheduler transmission as a frame. It runs on the loop.
func (c *Conversation) transmit(ctx context.Context, t scheduler.Transmission) error {
	f := codec.NewFrame(c.name)
	f.Packet = t.Packet
	f.Body = t.Body
	f.Final = t.Final
	if c.chatStates {
		f.State = codec.StateComposing
		if t.Final {
			f.State = codec.StateActive
		}
	}

	data, err := f.Marshal()
	if err != nil {
		c.metrics.RecordSendFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	if err := c.transport.Send(ctx, data); err != nil {
		c.metrics.RecordSendFailure()
		return fmt.Errorf("transmit frame: %w", err)
	}
	c.metrics.RecordSent()
	return nil
}

// receive is the transport handler. Frames are decoded on the transport's
// goroutine and applied on the loop.
func (c *Conversation) receive(payload []byte) {
	c.metrics.RecordReceived()

	f, err := codec.UnmarshalFrame(payload)
	if err != nil {
		c.metrics.RecordInvalid()
		observability.Emit(context.Background(), c.observer, EventReceiveInvalid, observability.LevelWarning, "chat.receive", map[string]any{
			"bytes": len(payload),
			"error": err.Error(),
		})
		return
	}

	if f.From == c.name {
		c.metrics.RecordEchoDropped()
		return
	}

	_ = c.inbox.send(context.Background(), func() { c.apply(f) })
}

func (c *Conversation) apply(f codec.Frame) {
	ctx := context.Background()

	if f.State != codec.StateNone {
		c.statesMu.Lock()
		c.states[f.From] = f.State
		c.statesMu.Unlock()
	}

	changed := false
	if f.Packet != nil && c.scheduler.Enabled() {
		changed = c.applyPacket(ctx, f.From, f.Packet)
	}

	if f.Final {
		c.session.AppendHistory(f.From, f.Body, session.TagRemote, false)
		changed = true
	}

	data := map[string]any{"from": f.From, "final": f.Final}
	if f.Packet != nil {
		data["seq"] = f.Packet.Seq
		data["event"] = string(f.Packet.Event)
	}
	observability.Emit(ctx, c.observer, EventReceive, observability.LevelVerbose, "chat.receive", data)

	if changed {
		c.coordinator.Request()
	}
}

func (c *Conversation) applyPacket(ctx context.Context, from string, p *codec.Packet) bool {
	dec, ok := c.decoders[from]
	if !ok {
		dec = c.codec.NewDecoder()
		c.decoders[from] = dec
	}

	u := dec.Decode(p)
	st := c.session.GetOrCreateStream(from, session.TagRemote)

	before := st.Sync()
	changed := st.Apply(u)

	if after := st.Sync(); after != before {
		observability.Emit(ctx, c.observer, EventStreamSync, observability.LevelInfo, "chat.receive", map[string]any{
			"from": from,
			"sync": after.String(),
			"seq":  p.Seq,
		})
	}
	return changed
}
