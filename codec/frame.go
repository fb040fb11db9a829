package codec

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/livetext/core/edit"
)

// ChatState is the optional chat-state notification attached to a frame.
type ChatState string

const (
	StateNone      ChatState = ""
	StateComposing ChatState = "composing"
	StateActive    ChatState = "active"
)

// Frame is one transport payload. A frame may carry a real-time text packet,
// a completed message body, or both; the packet is always processed first.
type Frame struct {
	ID     string
	From   string
	Packet *Packet
	Body   string
	Final  bool // Body holds a completed message.
	State  ChatState
}

// NewFrame creates an empty frame from sender with a fresh UUIDv7 identifier.
func NewFrame(from string) Frame {
	return Frame{
		ID:   uuid.Must(uuid.NewV7()).String(),
		From: from,
	}
}

// Marshal encodes the frame as a protobuf Struct.
func (f Frame) Marshal() ([]byte, error) {
	fields := map[string]any{
		"id":   f.ID,
		"from": f.From,
	}
	if f.Final {
		fields["body"] = f.Body
		fields["final"] = true
	}
	if f.State != StateNone {
		fields["state"] = string(f.State)
	}
	if f.Packet != nil {
		fields["rtt"] = packetFields(f.Packet)
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return proto.Marshal(st)
}

// UnmarshalFrame decodes a payload produced by Frame.Marshal.
func UnmarshalFrame(data []byte) (Frame, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	fields := st.GetFields()
	f := Frame{
		ID:    fields["id"].GetStringValue(),
		From:  fields["from"].GetStringValue(),
		Body:  fields["body"].GetStringValue(),
		Final: fields["final"].GetBoolValue(),
		State: ChatState(fields["state"].GetStringValue()),
	}
	if f.From == "" {
		return Frame{}, fmt.Errorf("%w: missing sender", ErrMalformedFrame)
	}

	if rtt := fields["rtt"].GetStructValue(); rtt != nil {
		p, err := parsePacket(rtt)
		if err != nil {
			return Frame{}, err
		}
		f.Packet = p
	}

	return f, nil
}

func packetFields(p *Packet) map[string]any {
	ops := make([]any, 0, len(p.Ops))
	for _, op := range p.Ops {
		switch op.Kind {
		case edit.KindInsert:
			ops = append(ops, map[string]any{"t": "i", "p": op.Pos, "v": op.Text})
		case edit.KindErase:
			ops = append(ops, map[string]any{"t": "e", "p": op.Pos, "n": op.Count})
		case edit.KindCursor:
			ops = append(ops, map[string]any{"t": "c", "p": op.Pos})
		}
	}

	return map[string]any{
		"seq":   p.Seq,
		"event": string(p.Event),
		"ops":   ops,
	}
}

func parsePacket(st *structpb.Struct) (*Packet, error) {
	fields := st.GetFields()

	p := &Packet{
		Seq:   uint32(fields["seq"].GetNumberValue()),
		Event: Event(fields["event"].GetStringValue()),
	}
	switch p.Event {
	case EventNew, EventReset, EventEdit:
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformedFrame, p.Event)
	}

	for _, v := range fields["ops"].GetListValue().GetValues() {
		opFields := v.GetStructValue().GetFields()
		pos, err := offset(opFields["p"], "position")
		if err != nil {
			return nil, err
		}

		switch opFields["t"].GetStringValue() {
		case "i":
			p.Ops = append(p.Ops, edit.Insert(pos, opFields["v"].GetStringValue()))
		case "e":
			n, err := offset(opFields["n"], "count")
			if err != nil {
				return nil, err
			}
			p.Ops = append(p.Ops, edit.Erase(pos, n))
		case "c":
			p.Ops = append(p.Ops, edit.MoveCursor(pos))
		default:
			return nil, fmt.Errorf("%w: unknown operation %q", ErrMalformedFrame, opFields["t"].GetStringValue())
		}
	}

	return p, nil
}

// offset reads a rune position or count. Values must be whole numbers in
// [0, MaxInt32] so they convert to int on every platform.
func offset(v *structpb.Value, name string) (int, error) {
	n := v.GetNumberValue()
	if n < 0 || n > math.MaxInt32 || n != math.Trunc(n) {
		return 0, fmt.Errorf("%w: %s %v out of range", ErrMalformedFrame, name, n)
	}
	return int(n), nil
}
