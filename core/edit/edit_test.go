package edit_test

import (
	"errors"
	"math"
	"testing"

	"github.com/tailored-agentic-units/livetext/core/edit"
)

func TestNewSnapshot_ClampsCursor(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		want   int
	}{
		{"negative", "abc", -4, 0},
		{"inside", "abc", 2, 2},
		{"past end", "abc", 9, 3},
		{"multibyte", "héllo", 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := edit.NewSnapshot(tt.text, tt.cursor)
			if s.Cursor != tt.want {
				t.Errorf("Cursor = %d, want %d", s.Cursor, tt.want)
			}
		})
	}
}

func TestSnapshot_Split(t *testing.T) {
	before, after := edit.NewSnapshot("héllo", 2).Split()
	if before != "hé" || after != "llo" {
		t.Errorf("Split() = %q, %q, want %q, %q", before, after, "hé", "llo")
	}
}

func TestOperation_Apply(t *testing.T) {
	base := edit.NewSnapshot("hello", 5)

	tests := []struct {
		name string
		op   edit.Operation
		want edit.Snapshot
	}{
		{"insert end", edit.Insert(5, " world"), edit.Snapshot{Text: "hello world", Cursor: 11}},
		{"insert start", edit.Insert(0, "¡"), edit.Snapshot{Text: "¡hello", Cursor: 1}},
		{"erase middle", edit.Erase(1, 3), edit.Snapshot{Text: "ho", Cursor: 1}},
		{"cursor", edit.MoveCursor(2), edit.Snapshot{Text: "hello", Cursor: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Apply(base)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOperation_Apply_OutOfBounds(t *testing.T) {
	base := edit.NewSnapshot("hi", 2)

	ops := []edit.Operation{
		edit.Insert(3, "x"),
		edit.Erase(1, 2),
		edit.Erase(3, 0),
		edit.Erase(1<<62, 1<<62),
		edit.Erase(1, math.MaxInt),
		edit.MoveCursor(-1),
	}

	for _, op := range ops {
		got, err := op.Apply(base)
		if !errors.Is(err, edit.ErrOutOfBounds) {
			t.Errorf("Apply(%+v) error = %v, want ErrOutOfBounds", op, err)
		}
		if got != base {
			t.Errorf("Apply(%+v) changed snapshot to %+v", op, got)
		}
	}
}

func TestApplyAll_FailureKeepsOriginal(t *testing.T) {
	base := edit.NewSnapshot("abc", 3)
	ops := []edit.Operation{edit.Insert(3, "d"), edit.Erase(10, 1)}

	got, err := edit.ApplyAll(base, ops)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got != base {
		t.Errorf("ApplyAll() = %+v, want original %+v", got, base)
	}
}

func TestSyncState_String(t *testing.T) {
	if edit.InSync.String() != "in_sync" {
		t.Errorf("InSync.String() = %q", edit.InSync.String())
	}
	if edit.OutOfSync.String() != "out_of_sync" {
		t.Errorf("OutOfSync.String() = %q", edit.OutOfSync.String())
	}
}
