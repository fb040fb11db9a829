package observability

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"
)

// SlogObserver writes events through a slog.Logger. The record carries the
// event's own timestamp, the event type as its message, a source attribute,
// and one attribute per Data key in sorted order.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver wraps logger. A nil logger uses slog.Default().
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	level := event.Level.SlogLevel()
	if !o.logger.Enabled(ctx, level) {
		return
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	r := slog.NewRecord(ts, level, string(event.Type), 0)
	r.AddAttrs(slog.String("source", event.Source))
	for _, k := range slices.Sorted(maps.Keys(event.Data)) {
		r.AddAttrs(slog.Any(k, event.Data[k]))
	}
	_ = o.logger.Handler().Handle(ctx, r)
}
