package session

import (
	"sync"

	"github.com/tailored-agentic-units/livetext/codec"
	"github.com/tailored-agentic-units/livetext/core/edit"
)

// StreamView is a point-in-time copy of a Stream.
type StreamView struct {
	Sender string
	Text   string
	Cursor int
	Sync   edit.SyncState
	Tag    Tag
}

// Stream is the reconstructed in-progress message of one remote party.
//
// Once OutOfSync the last good text is kept as a frozen snapshot and
// incremental updates are ignored; only a resync returns it to InSync.
type Stream struct {
	sender string
	tag    Tag

	mu   sync.RWMutex
	snap edit.Snapshot
	sync edit.SyncState
}

// NewStream creates an empty, in-sync stream.
func NewStream(sender string, tag Tag) *Stream {
	return &Stream{sender: sender, tag: tag}
}

func (s *Stream) Sender() string { return s.sender }

// Apply applies a decoded update and reports whether the visible text,
// cursor, or sync state changed.
func (s *Stream) Apply(u codec.Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, beforeSync := s.snap, s.sync

	switch {
	case u.Sync == edit.OutOfSync:
		s.sync = edit.OutOfSync
	case u.Resync:
		if next, err := edit.ApplyAll(edit.Snapshot{}, u.Ops); err != nil {
			s.sync = edit.OutOfSync
		} else {
			s.snap = next
			s.sync = edit.InSync
		}
	case s.sync == edit.OutOfSync:
	default:
		if next, err := edit.ApplyAll(s.snap, u.Ops); err != nil {
			s.sync = edit.OutOfSync
		} else {
			s.snap = next
		}
	}

	return s.snap != before || s.sync != beforeSync
}

// ForceResync replaces the reconstruction and marks the stream InSync.
func (s *Stream) ForceResync(snap edit.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.snap != snap || s.sync != edit.InSync
	s.snap = snap
	s.sync = edit.InSync
	return changed
}

// IsEmpty reports whether the reconstructed text is empty.
func (s *Stream) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Text == ""
}

// Sync returns the current sync state.
func (s *Stream) Sync() edit.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sync
}

// View returns a copy of the stream's state.
func (s *Stream) View() StreamView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StreamView{
		Sender: s.sender,
		Text:   s.snap.Text,
		Cursor: s.snap.Cursor,
		Sync:   s.sync,
		Tag:    s.tag,
	}
}
