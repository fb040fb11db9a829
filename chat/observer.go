package chat

import "github.com/tailored-agentic-units/livetext/observability"

// Conversation event types.
const (
	EventReceive        observability.EventType = "chat.receive"
	EventReceiveInvalid observability.EventType = "chat.receive.invalid"
	EventSend           observability.EventType = "chat.send"
	EventSendFailed     observability.EventType = "chat.send.failed"
	EventClear          observability.EventType = "chat.clear"
	EventRealTime       observability.EventType = "chat.realtime"
	EventPreset         observability.EventType = "chat.preset"
	EventReload         observability.EventType = "chat.config.reload"
	EventReloadFailed   observability.EventType = "chat.config.reload.failed"
	EventStreamSync     observability.EventType = "stream.sync"
)
