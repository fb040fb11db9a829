package edit

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind identifies an edit operation.
type Kind string

const (
	KindInsert Kind = "insert"
	KindErase  Kind = "erase"
	KindCursor Kind = "cursor"
)

// ErrOutOfBounds is returned when an operation addresses a position outside
// the text it is applied to.
var ErrOutOfBounds = errors.New("operation out of bounds")

// Operation is a single edit produced by a codec. Insert places Text at Pos,
// Erase removes Count runes starting at Pos, Cursor moves the cursor to Pos.
type Operation struct {
	Kind  Kind   `json:"kind"`
	Pos   int    `json:"pos"`
	Text  string `json:"text,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Insert creates an insert operation.
func Insert(pos int, text string) Operation {
	return Operation{Kind: KindInsert, Pos: pos, Text: text}
}

// Erase creates an erase operation.
func Erase(pos, count int) Operation {
	return Operation{Kind: KindErase, Pos: pos, Count: count}
}

// MoveCursor creates a cursor operation.
func MoveCursor(pos int) Operation {
	return Operation{Kind: KindCursor, Pos: pos}
}

// Apply returns the snapshot produced by applying op to s. Insert leaves the
// cursor after the inserted text and Erase leaves it at Pos.
func (op Operation) Apply(s Snapshot) (Snapshot, error) {
	runes := []rune(s.Text)

	switch op.Kind {
	case KindInsert:
		if op.Pos < 0 || op.Pos > len(runes) {
			return s, fmt.Errorf("%w: insert at %d in %d runes", ErrOutOfBounds, op.Pos, len(runes))
		}
		out := make([]rune, 0, len(runes)+utf8.RuneCountInString(op.Text))
		out = append(out, runes[:op.Pos]...)
		out = append(out, []rune(op.Text)...)
		out = append(out, runes[op.Pos:]...)
		return Snapshot{Text: string(out), Cursor: op.Pos + utf8.RuneCountInString(op.Text)}, nil

	case KindErase:
		if op.Pos < 0 || op.Count < 0 || op.Pos > len(runes) || op.Count > len(runes)-op.Pos {
			return s, fmt.Errorf("%w: erase %d at %d in %d runes", ErrOutOfBounds, op.Count, op.Pos, len(runes))
		}
		out := make([]rune, 0, len(runes)-op.Count)
		out = append(out, runes[:op.Pos]...)
		out = append(out, runes[op.Pos+op.Count:]...)
		return Snapshot{Text: string(out), Cursor: op.Pos}, nil

	case KindCursor:
		if op.Pos < 0 || op.Pos > len(runes) {
			return s, fmt.Errorf("%w: cursor at %d in %d runes", ErrOutOfBounds, op.Pos, len(runes))
		}
		return Snapshot{Text: s.Text, Cursor: op.Pos}, nil

	default:
		return s, fmt.Errorf("unknown operation kind: %q", op.Kind)
	}
}

// ApplyAll applies ops in order. On failure the original snapshot is returned
// together with the error.
func ApplyAll(s Snapshot, ops []Operation) (Snapshot, error) {
	next := s
	for _, op := range ops {
		var err error
		next, err = op.Apply(next)
		if err != nil {
			return s, err
		}
	}
	return next, nil
}
