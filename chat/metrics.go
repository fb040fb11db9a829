package chat

import (
	"sync/atomic"

	"github.com/tailored-agentic-units/livetext/render"
)

// MetricsSnapshot is a point-in-time copy of the conversation counters.
type MetricsSnapshot struct {
	FramesSent     int64
	SendFailures   int64
	FramesReceived int64
	InvalidFrames  int64
	EchoesDropped  int64
	Render         render.StatsSnapshot
}

// Metrics counts transport traffic. Safe for concurrent use.
type Metrics struct {
	framesSent     atomic.Int64
	sendFailures   atomic.Int64
	framesReceived atomic.Int64
	invalidFrames  atomic.Int64
	echoesDropped  atomic.Int64
}

func (m *Metrics) RecordSent() { m.framesSent.Add(1) }
func (m *Metrics) RecordSendFailure() { m.sendFailures.Add(1) }
func (m *Metrics) RecordReceived() { m.framesReceived.Add(1) }
func (m *Metrics) RecordInvalid() { m.invalidFrames.Add(1) }
func (m *Metrics) RecordEchoDropped() { m.echoesDropped.Add(1) }

// Snapshot returns the transport counters. Render is left zero.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		FramesSent:     m.framesSent.Load(),
		SendFailures:   m.sendFailures.Load(),
		FramesReceived: m.framesReceived.Load(),
		InvalidFrames:  m.invalidFrames.Load(),
		EchoesDropped:  m.echoesDropped.Load(),
	}
}
