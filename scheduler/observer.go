package scheduler

import "github.com/tailored-agentic-units/livetext/observability"

// Scheduler event types.
const (
	EventTransmit       observability.EventType = "scheduler.transmit"
	EventTransmitFailed observability.EventType = "scheduler.transmit.failed"
	EventIdle           observability.EventType = "scheduler.idle"
	EventConfigure      observability.EventType = "scheduler.configure"
)
