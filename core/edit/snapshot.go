// Package edit defines the value types shared by the real-time text pipeline:
// text snapshots, the edit operations that transform them, and the sync state
// reported for a remote reconstruction.
//
// All offsets count runes, not bytes, so a cursor never lands inside a
// multi-byte character.
package edit

import "unicode/utf8"

// Snapshot is the content of a text box and its cursor offset at one point in
// time. Snapshots are immutable values.
type Snapshot struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

// NewSnapshot creates a Snapshot, clamping cursor into [0, Len()].
func NewSnapshot(text string, cursor int) Snapshot {
	n := utf8.RuneCountInString(text)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > n {
		cursor = n
	}
	return Snapshot{Text: text, Cursor: cursor}
}

// EndOf returns a Snapshot of text with the cursor after the last rune.
func EndOf(text string) Snapshot {
	return Snapshot{Text: text, Cursor: utf8.RuneCountInString(text)}
}

// Len returns the rune length of the text.
func (s Snapshot) Len() int {
	return utf8.RuneCountInString(s.Text)
}

// IsEmpty reports whether the snapshot holds no text.
func (s Snapshot) IsEmpty() bool {
	return s.Text == ""
}

// Split returns the text before and after the cursor.
func (s Snapshot) Split() (before, after string) {
	runes := []rune(s.Text)
	c := min(max(s.Cursor, 0), len(runes))
	return string(runes[:c]), string(runes[c:])
}
