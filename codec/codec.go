// Package codec is the reference real-time text codec. An Encoder turns local
// snapshots into packets of edit operations; a Decoder validates the packet
// sequence of one remote party and reports when its reconstruction can no
// longer be trusted. Frames carry packets and completed bodies over a
// transport.
package codec

import (
	"errors"

	"github.com/tailored-agentic-units/livetext/core/edit"
)

// ErrMalformedFrame is returned when a payload cannot be decoded as a Frame.
var ErrMalformedFrame = errors.New("malformed frame")

// Event marks the role of a packet in the message lifecycle.
type Event string

const (
	// EventNew starts a new message; operations apply to empty text.
	EventNew Event = "new"
	// EventReset retransmits the full text; operations apply to empty text.
	EventReset Event = "reset"
	// EventEdit continues the current message incrementally.
	EventEdit Event = "edit"
)

// Packet is one batch of edit operations with its sequence number.
type Packet struct {
	Seq   uint32
	Event Event
	Ops   []edit.Operation
}

// IsResync reports whether the packet rebuilds text from empty.
func (p *Packet) IsResync() bool {
	return p.Event == EventNew || p.Event == EventReset
}

// Update is the decoder's verdict on one packet.
type Update struct {
	Seq    uint32
	Ops    []edit.Operation
	Resync bool           // Ops rebuild the text from empty.
	Sync   edit.SyncState // OutOfSync means Ops must not be applied.
}

// Encoder accumulates local edits into packets.
type Encoder interface {
	// Encode records the difference between the last encoded snapshot and s.
	Encode(s edit.Snapshot)
	// IsEmpty reports whether there is nothing to transmit.
	IsEmpty() bool
	// Flush takes the pending packet. It returns false when IsEmpty.
	Flush() (*Packet, bool)
	// NextMessage starts a new message: baselines reset to empty text.
	NextMessage()
	// Clear discards pending edits and forces a reset to empty text.
	Clear()
}

// Decoder tracks the packet sequence of one remote party.
type Decoder interface {
	Decode(p *Packet) Update
	Sync() edit.SyncState
}

// Codec creates encoders and decoders.
type Codec interface {
	NewEncoder() Encoder
	NewDecoder() Decoder
}

type standard struct{}

// New returns the reference codec.
func New() Codec {
	return standard{}
}

func (standard) NewEncoder() Encoder {
	return NewEncoder()
}

func (standard) NewDecoder() Decoder {
	return NewDecoder()
}
