package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memorySession struct {
	id      string
	history []HistoryEntry
	streams map[string]*Stream
	order   []string
	version uint64
	mu      sync.RWMutex
}

// NewMemorySession creates a Session held in memory.
// The session is assigned a unique UUIDv7 identifier.
func NewMemorySession() Session {
	return newMemorySession()
}

func newMemorySession() *memorySession {
	return &memorySession{
		id:      uuid.Must(uuid.NewV7()).String(),
		streams: make(map[string]*Stream),
	}
}

func (s *memorySession) ID() string {
	return s.id
}

func (s *memorySession) AppendHistory(sender, body string, tag Tag, local bool) HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeStream(sender)

	entry := HistoryEntry{
		Index:  len(s.history),
		Sender: sender,
		Body:   body,
		Tag:    tag,
		Local:  local,
		Time:   time.Now(),
	}
	s.history = append(s.history, entry)
	s.version++
	return entry
}

func (s *memorySession) GetOrCreateStream(sender string, tag Tag) *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.streams[sender]; ok {
		return st
	}

	st := NewStream(sender, tag)
	s.streams[sender] = st
	s.order = append(s.order, sender)
	return st
}

func (s *memorySession) Stream(sender string) (*Stream, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.streams[sender]
	return st, ok
}

func (s *memorySession) RemoveStream(sender string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeStream(sender)
}

func (s *memorySession) ClearStreams() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := len(s.streams) > 0
	clear(s.streams)
	s.order = nil
	return had
}

func (s *memorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	clear(s.streams)
	s.order = nil
	s.version++
}

func (s *memorySession) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

func (s *memorySession) Streams() []StreamView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]StreamView, 0, len(s.order))
	for _, sender := range s.order {
		views = append(views, s.streams[sender].View())
	}
	return views
}

func (s *memorySession) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *memorySession) removeStream(sender string) bool {
	if _, ok := s.streams[sender]; !ok {
		return false
	}
	delete(s.streams, sender)
	s.order = slices.DeleteFunc(s.order, func(name string) bool { return name == sender })
	return true
}
