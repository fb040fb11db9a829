package codec

import "github.com/tailored-agentic-units/livetext/core/edit"

// Diff returns the operations that turn prev into next: at most one erase and
// one insert around the common prefix and suffix, then a cursor move when the
// cursor does not already land on next.Cursor.
func Diff(prev, next edit.Snapshot) []edit.Operation {
	a, b := []rune(prev.Text), []rune(next.Text)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	var ops []edit.Operation
	cursor := prev.Cursor

	if n := len(a) - prefix - suffix; n > 0 {
		ops = append(ops, edit.Erase(prefix, n))
		cursor = prefix
	}
	if ins := b[prefix : len(b)-suffix]; len(ins) > 0 {
		ops = append(ops, edit.Insert(prefix, string(ins)))
		cursor = prefix + len(ins)
	}
	if cursor != next.Cursor {
		ops = append(ops, edit.MoveCursor(next.Cursor))
	}

	return ops
}
