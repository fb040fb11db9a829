package session_test

import (
	"sync"
	"testing"

	"github.com/tailored-agentic-units/livetext/codec"
	"github.com/tailored-agentic-units/livetext/core/edit"
	"github.com/tailored-agentic-units/livetext/session"
)

func TestNew(t *testing.T) {
	s := session.NewMemorySession()

	if s.ID() == "" {
		t.Error("session ID should not be empty")
	}
	if len(s.History()) != 0 || len(s.Streams()) != 0 {
		t.Error("new session should be empty")
	}
	if s.Version() != 0 {
		t.Errorf("new session version = %d, want 0", s.Version())
	}
}

func TestSession_ID_Unique(t *testing.T) {
	s1 := session.NewMemorySession()
	s2 := session.NewMemorySession()

	if s1.ID() == s2.ID() {
		t.Errorf("two sessions should have different IDs, both got %q", s1.ID())
	}
}

func TestNew_FromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  session.Config
		want string
	}{
		{name: "generated id", cfg: session.DefaultConfig()},
		{name: "explicit id", cfg: session.Config{ID: "room-1"}, want: "room-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := session.New(&tt.cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if s.ID() == "" {
				t.Fatal("session ID is empty")
			}
			if tt.want != "" && s.ID() != tt.want {
				t.Errorf("ID() = %q, want %q", s.ID(), tt.want)
			}
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := session.Config{ID: "a"}
	cfg.Merge(&session.Config{})
	if cfg.ID != "a" {
		t.Errorf("empty source overwrote ID: %q", cfg.ID)
	}

	cfg.Merge(&session.Config{ID: "b"})
	if cfg.ID != "b" {
		t.Errorf("ID = %q, want %q", cfg.ID, "b")
	}
}

func TestSession_AppendHistory_Order(t *testing.T) {
	s := session.NewMemorySession()

	s.AppendHistory("me", "first", session.TagLocal, true)
	s.AppendHistory("bob", "second", session.TagRemote, false)
	s.AppendHistory("me", "third", session.TagLocal, true)

	history := s.History()
	if len(history) != 3 {
		t.Fatalf("got %d entries, want 3", len(history))
	}
	for i, want := range []string{"first", "second", "third"} {
		if history[i].Body != want || history[i].Index != i {
			t.Errorf("entry %d = %+v, want body %q", i, history[i], want)
		}
	}
	if !history[0].Local || history[1].Local {
		t.Error("local flags not preserved")
	}
	if s.Version() != 3 {
		t.Errorf("version = %d, want 3", s.Version())
	}
}

func TestSession_AppendHistory_RemovesStream(t *testing.T) {
	s := session.NewMemorySession()

	prior := s.GetOrCreateStream("bob", session.TagRemote)
	prior.Apply(codec.Update{Resync: true, Ops: []edit.Operation{edit.Insert(0, "typing")}})

	s.AppendHistory("bob", "typing done", session.TagRemote, false)

	if _, ok := s.Stream("bob"); ok {
		t.Fatal("stream should be removed on finalize")
	}

	fresh := s.GetOrCreateStream("bob", session.TagRemote)
	if fresh == prior {
		t.Error("GetOrCreateStream returned the finalized stream")
	}
	if !fresh.IsEmpty() {
		t.Errorf("fresh stream text = %q, want empty", fresh.View().Text)
	}
}

func TestSession_GetOrCreateStream_Reuses(t *testing.T) {
	s := session.NewMemorySession()

	a := s.GetOrCreateStream("bob", session.TagRemote)
	b := s.GetOrCreateStream("bob", session.TagRemote)
	if a != b {
		t.Error("second call should return the existing stream")
	}
}

func TestSession_Streams_CreationOrder(t *testing.T) {
	s := session.NewMemorySession()
	for _, sender := range []string{"carol", "alice", "bob"} {
		s.GetOrCreateStream(sender, session.TagRemote)
	}
	s.RemoveStream("alice")
	s.GetOrCreateStream("alice", session.TagRemote)

	var got []string
	for _, v := range s.Streams() {
		got = append(got, v.Sender)
	}

	want := []string{"carol", "bob", "alice"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestSession_StreamsDoNotBumpVersion(t *testing.T) {
	s := session.NewMemorySession()
	st := s.GetOrCreateStream("bob", session.TagRemote)
	st.Apply(codec.Update{Resync: true, Ops: []edit.Operation{edit.Insert(0, "x")}})
	s.RemoveStream("bob")

	if s.Version() != 0 {
		t.Errorf("live stream changes bumped version to %d", s.Version())
	}
}

func TestSession_RemoveStream(t *testing.T) {
	s := session.NewMemorySession()
	s.GetOrCreateStream("bob", session.TagRemote)

	if !s.RemoveStream("bob") {
		t.Error("RemoveStream should report an existing stream")
	}
	if s.RemoveStream("bob") {
		t.Error("RemoveStream should report false for a missing stream")
	}
}

func TestSession_ClearStreams(t *testing.T) {
	s := session.NewMemorySession()
	s.AppendHistory("me", "kept", session.TagLocal, true)
	s.GetOrCreateStream("bob", session.TagRemote)

	if !s.ClearStreams() {
		t.Error("ClearStreams should report dropped streams")
	}
	if len(s.Streams()) != 0 || len(s.History()) != 1 {
		t.Errorf("streams=%d history=%d, want 0 and 1", len(s.Streams()), len(s.History()))
	}
	if s.ClearStreams() {
		t.Error("ClearStreams on empty session should report false")
	}
}

func TestSession_History_ReturnsCopy(t *testing.T) {
	s := session.NewMemorySession()
	s.AppendHistory("me", "hello", session.TagLocal, true)

	history := s.History()
	history[0].Body = "tampered"
	_ = append(history, session.HistoryEntry{Body: "extra"})

	original := s.History()
	if len(original) != 1 || original[0].Body != "hello" {
		t.Errorf("history was mutated: %+v", original)
	}
}

func TestSession_Clear(t *testing.T) {
	s := session.NewMemorySession()
	s.AppendHistory("me", "hello", session.TagLocal, true)
	s.GetOrCreateStream("bob", session.TagRemote)
	before := s.Version()

	s.Clear()

	if len(s.History()) != 0 || len(s.Streams()) != 0 {
		t.Errorf("got %d entries and %d streams after Clear", len(s.History()), len(s.Streams()))
	}
	if s.Version() <= before {
		t.Error("Clear should advance the version")
	}
}

func TestSession_Clear_ThenAppend(t *testing.T) {
	s := session.NewMemorySession()
	s.AppendHistory("me", "first", session.TagLocal, true)
	s.Clear()
	entry := s.AppendHistory("me", "second", session.TagLocal, true)

	if entry.Index != 0 {
		t.Errorf("index after clear = %d, want 0", entry.Index)
	}
	if h := s.History(); len(h) != 1 || h[0].Body != "second" {
		t.Errorf("history = %+v", h)
	}
}

func TestSession_Concurrent_AppendAndRead(t *testing.T) {
	s := session.NewMemorySession()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(3 * n)

	for range n {
		go func() {
			defer wg.Done()
			s.AppendHistory("me", "msg", session.TagLocal, true)
		}()
		go func() {
			defer wg.Done()
			_ = s.History()
			_ = s.Version()
		}()
		go func() {
			defer wg.Done()
			_ = s.Streams()
		}()
	}
	wg.Wait()

	if len(s.History()) != n {
		t.Errorf("got %d entries, want %d", len(s.History()), n)
	}
}

func TestSession_Concurrent_StreamsAndClear(t *testing.T) {
	s := session.NewMemorySession()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(2 * n)

	for range n {
		go func() {
			defer wg.Done()
			s.GetOrCreateStream("bob", session.TagRemote)
		}()
		go func() {
			defer wg.Done()
			s.Clear()
		}()
	}
	wg.Wait()
}
