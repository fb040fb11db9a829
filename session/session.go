// Package session holds the state of one conversation: the completed message
// history and the live real-time text stream of each remote party.
package session

import "time"

// Tag selects the colour a party is rendered with.
type Tag string

const (
	TagLocal  Tag = "local"
	TagRemote Tag = "remote"
)

// HistoryEntry is one completed message. Entries never change once appended.
type HistoryEntry struct {
	Index  int
	Sender string
	Body   string
	Tag    Tag
	Local  bool
	Time   time.Time
}

// Session is the aggregate queried for what to display. Reads return copies
// and are safe from any goroutine; writes are expected from the owning loop.
type Session interface {
	// ID returns the unique session identifier.
	ID() string
	// AppendHistory removes the sender's live stream, then appends the
	// completed message.
	AppendHistory(sender, body string, tag Tag, local bool) HistoryEntry
	// GetOrCreateStream returns the sender's live stream, creating it on
	// first use.
	GetOrCreateStream(sender string, tag Tag) *Stream
	// Stream returns the sender's live stream if one exists.
	Stream(sender string) (*Stream, bool)
	// RemoveStream drops the sender's live stream and reports whether it
	// existed.
	RemoveStream(sender string) bool
	// ClearStreams drops every live stream and reports whether any existed.
	ClearStreams() bool
	// Clear drops history and streams.
	Clear()
	// History returns a copy of the completed messages in chat order.
	History() []HistoryEntry
	// Streams returns views of the live streams in creation order.
	Streams() []StreamView
	// Version increases on every history mutation.
	Version() uint64
}
