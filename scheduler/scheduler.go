// Package scheduler decides when local edits are encoded and transmitted.
//
// In periodic mode a local change only records the latest snapshot and the
// interval timer performs the encode and transmit. In per-keystroke mode every
// change is encoded and transmitted immediately, with the timer kept as a
// fallback flush. The timer stops itself when the encoder has nothing to send
// and is re-armed by the next local change.
//
// A Scheduler is not safe for concurrent use. It is driven from a single
// owning goroutine; timer callbacks are routed back to that goroutine through
// the Dispatch function supplied with WithDispatch.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tailored-agentic-units/livetext/codec"
	"github.com/tailored-agentic-units/livetext/core/edit"
	"github.com/tailored-agentic-units/livetext/observability"
)

// minTimerInterval replaces a zero interval so the timer still yields
// between ticks.
const minTimerInterval = time.Millisecond

// Transmission is one outbound unit. Packet is nil when there was nothing to
// flush; Body is set only for completed messages.
type Transmission struct {
	Packet *codec.Packet
	Body   string
	Final  bool
}

// TransmitFunc delivers a transmission to the transport.
type TransmitFunc func(ctx context.Context, t Transmission) error

// Dispatch runs f on the scheduler's owning goroutine.
type Dispatch func(f func())

// Option configures a Scheduler after config-driven initialization.
type Option func(*Scheduler)

// WithClock overrides the system clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithDispatch routes timer callbacks through d.
func WithDispatch(d Dispatch) Option {
	return func(s *Scheduler) { s.dispatch = d }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// Scheduler owns the pending local edit and the transmit timer.
type Scheduler struct {
	encoder  codec.Encoder
	transmit TransmitFunc
	clock    Clock
	dispatch Dispatch
	observer observability.Observer

	interval     time.Duration
	perKeystroke bool
	enabled      bool

	pending edit.Snapshot
	dirty   bool

	timer Timer
	seq   uint64
}

// New creates a Scheduler from configuration.
func New(cfg *Config, enc codec.Encoder, transmit TransmitFunc, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		encoder:      enc,
		transmit:     transmit,
		clock:        SystemClock(),
		dispatch:     func(f func()) { f() },
		observer:     observability.NewSlogObserver(slog.Default()),
		interval:     cfg.Interval(),
		perKeystroke: cfg.KeystrokeMode(),
		enabled:      true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Configure changes the interval and mode. The new values apply at the next
// scheduling decision; a running timer keeps its current deadline.
func (s *Scheduler) Configure(interval time.Duration, perKeystroke bool) error {
	if interval < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	s.interval = interval
	s.perKeystroke = perKeystroke

	observability.Emit(context.Background(), s.observer, EventConfigure, observability.LevelVerbose, "scheduler.Configure", map[string]any{
		"interval_ms":   interval.Milliseconds(),
		"per_keystroke": perKeystroke,
	})
	return nil
}

// Interval returns the configured transmit interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// PerKeystroke reports whether every local change is transmitted immediately.
func (s *Scheduler) PerKeystroke() bool { return s.perKeystroke }

// Enabled reports whether real-time text transmission is on.
func (s *Scheduler) Enabled() bool { return s.enabled }

// SetEnabled toggles real-time text. Disabling stops the timer and clears
// the encoder so re-enabling starts from a reset packet.
func (s *Scheduler) SetEnabled(enabled bool) {
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if !enabled {
		s.Stop()
		s.encoder.Clear()
		s.dirty = false
	}
}

// Running reports whether the transmit timer is armed.
func (s *Scheduler) Running() bool { return s.timer != nil }

// OnLocalChange records the latest local snapshot.
func (s *Scheduler) OnLocalChange(ctx context.Context, snap edit.Snapshot) {
	if !s.enabled {
		return
	}

	s.pending = snap
	s.dirty = true

	if s.perKeystroke {
		s.flush(ctx, "scheduler.OnLocalChange")
	}

	s.arm()
}

// Tick encodes the pending snapshot and transmits whatever the encoder holds.
// When there is nothing to send the timer is stopped.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.enabled {
		s.Stop()
		return
	}

	if !s.flush(ctx, "scheduler.Tick") {
		s.Stop()
		observability.Emit(ctx, s.observer, EventIdle, observability.LevelVerbose, "scheduler.Tick", nil)
		return
	}

	s.arm()
}

// OnSend stops the timer, flushes the final text of the message and
// transmits it together with the completed body. The encoder then starts a
// new message.
func (s *Scheduler) OnSend(ctx context.Context, body string) error {
	s.Stop()

	t := Transmission{Body: body, Final: true}
	if s.enabled {
		s.encoder.Encode(edit.EndOf(body))
		if p, ok := s.encoder.Flush(); ok {
			t.Packet = p
		}
	}

	s.encoder.NextMessage()
	s.pending = edit.Snapshot{}
	s.dirty = false

	if err := s.transmit(ctx, t); err != nil {
		s.emitFailure(ctx, "scheduler.OnSend", err)
		return fmt.Errorf("send message: %w", err)
	}

	s.emitTransmit(ctx, "scheduler.OnSend", t)
	return nil
}

// Reset stops the timer and, when local text was in progress, transmits a
// reset to empty so the remote side erases it.
func (s *Scheduler) Reset(ctx context.Context) {
	s.Stop()

	hadText := s.pending.Text != ""
	s.pending = edit.Snapshot{}
	s.dirty = false

	if !hadText {
		return
	}

	s.encoder.Clear()
	if s.enabled {
		s.flush(ctx, "scheduler.Reset")
	}
}

// Stop disarms the timer. Callbacks already in flight are dropped.
func (s *Scheduler) Stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}

func (s *Scheduler) arm() {
	if s.timer != nil {
		return
	}

	d := max(s.interval, minTimerInterval)

	s.seq++
	seq := s.seq

	s.timer = s.clock.AfterFunc(d, func() {
		s.dispatch(func() {
			if s.seq != seq {
				return
			}
			s.timer = nil
			s.Tick(context.Background())
		})
	})
}

// flush encodes any dirty snapshot and transmits the encoder's packet. It
// reports whether the timer should keep running: true after a transmit
// attempt, false when there was nothing to send.
func (s *Scheduler) flush(ctx context.Context, source string) bool {
	if s.dirty {
		s.encoder.Encode(s.pending)
		s.dirty = false
	}

	if s.encoder.IsEmpty() {
		return false
	}

	p, ok := s.encoder.Flush()
	if !ok {
		return false
	}

	t := Transmission{Packet: p}
	if err := s.transmit(ctx, t); err != nil {
		s.emitFailure(ctx, source, err)
		// The flushed packet is gone; the retry resends the whole text as a
		// reset so the remote side resyncs instead of seeing a gap.
		s.encoder.Clear()
		s.dirty = true
		return true
	}

	s.emitTransmit(ctx, source, t)
	return true
}

func (s *Scheduler) emitTransmit(ctx context.Context, source string, t Transmission) {
	data := map[string]any{"final": t.Final}
	if t.Packet != nil {
		data["seq"] = t.Packet.Seq
		data["event"] = string(t.Packet.Event)
		data["ops"] = len(t.Packet.Ops)
	}
	observability.Emit(ctx, s.observer, EventTransmit, observability.LevelVerbose, source, data)
}

func (s *Scheduler) emitFailure(ctx context.Context, source string, err error) {
	observability.Emit(ctx, s.observer, EventTransmitFailed, observability.LevelWarning, source, map[string]any{
		"error": err.Error(),
	})
}
