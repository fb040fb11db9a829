// Package observability carries structured events out of the real-time text
// pipeline. Components never log directly: they emit an Event to an Observer,
// and the command decides where events go (slog, a counter, nowhere).
package observability

import (
	"context"
	"time"
)

// EventType names an event. Packages declare their own constants, prefixed
// with the package or component name ("scheduler.transmit", "render.pass").
type EventType string

// Event is one observation. The fields line up with an OTel LogRecord:
// Type is the event name, Source the instrumentation scope and Data the
// attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer consumes events. Implementations must be safe for concurrent
// use; transports emit from their own goroutines.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Emit delivers an event stamped with the current time. Emitting to a nil
// observer does nothing.
func Emit(ctx context.Context, obs Observer, typ EventType, level Level, source string, data map[string]any) {
	if obs == nil {
		return
	}
	obs.OnEvent(ctx, Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}

// OrNoOp returns obs, or NoOpObserver when obs is nil.
func OrNoOp(obs Observer) Observer {
	if obs == nil {
		return NoOpObserver{}
	}
	return obs
}

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}
