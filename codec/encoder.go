package codec

import (
	"slices"

	"github.com/tailored-agentic-units/livetext/core/edit"
)

type encoder struct {
	current edit.Snapshot
	pending []edit.Operation
	seq     uint32
	event   Event
	force   bool
}

// NewEncoder creates an Encoder whose first packet starts a new message.
func NewEncoder() Encoder {
	return &encoder{event: EventNew}
}

func (e *encoder) Encode(s edit.Snapshot) {
	e.pending = append(e.pending, Diff(e.current, s)...)
	e.current = s
}

func (e *encoder) IsEmpty() bool {
	return len(e.pending) == 0 && !e.force
}

func (e *encoder) Flush() (*Packet, bool) {
	if e.IsEmpty() {
		return nil, false
	}

	p := &Packet{
		Seq:   e.seq,
		Event: e.event,
		Ops:   slices.Clone(e.pending),
	}

	e.seq++
	e.pending = nil
	e.event = EventEdit
	e.force = false
	return p, true
}

func (e *encoder) NextMessage() {
	e.current = edit.Snapshot{}
	e.pending = nil
	e.event = EventNew
	e.force = false
}

func (e *encoder) Clear() {
	e.current = edit.Snapshot{}
	e.pending = nil
	e.event = EventReset
	e.force = true
}
