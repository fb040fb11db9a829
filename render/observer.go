package render

import "github.com/tailored-agentic-units/livetext/observability"

// Render event types.
const (
	EventPass       observability.EventType = "render.pass"
	EventFailed     observability.EventType = "render.failed"
	EventInvalidate observability.EventType = "render.invalidate"
)
