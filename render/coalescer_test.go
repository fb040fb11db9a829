package render_test

import (
	"testing"

	"github.com/tailored-agentic-units/livetext/render"
)

func TestCoalescer_RequestOnce(t *testing.T) {
	q := &queue{}
	runs := 0
	c := render.NewCoalescer(q.post, func() { runs++ })

	if !c.Request() {
		t.Fatal("first Request should schedule")
	}
	for range 10 {
		if c.Request() {
			t.Fatal("Request while scheduled should be absorbed")
		}
	}
	if c.State() != render.Scheduled || q.len() != 1 {
		t.Fatalf("state=%s queued=%d, want scheduled with 1 post", c.State(), q.len())
	}

	q.drain()
	if runs != 1 || c.State() != render.Idle {
		t.Errorf("runs=%d state=%s, want 1 and idle", runs, c.State())
	}
}

func TestCoalescer_RequestDuringRunSchedulesAgain(t *testing.T) {
	q := &queue{}
	runs := 0
	var c *render.Coalescer
	c = render.NewCoalescer(q.post, func() {
		runs++
		if runs == 1 {
			c.Request()
		}
	})

	c.Request()
	q.drain()

	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestCoalescer_Cancel(t *testing.T) {
	q := &queue{}
	runs := 0
	c := render.NewCoalescer(q.post, func() { runs++ })

	c.Request()
	c.Cancel()
	if c.State() != render.Idle {
		t.Fatalf("state after Cancel = %s", c.State())
	}

	c.Request()
	q.drain()
	if runs != 1 {
		t.Errorf("runs = %d, want only the post-cancel run", runs)
	}
}

func TestState_String(t *testing.T) {
	if render.Idle.String() != "idle" || render.Scheduled.String() != "scheduled" {
		t.Errorf("got %q and %q", render.Idle.String(), render.Scheduled.String())
	}
}
