package term_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/livetext/render"
	"github.com/tailored-agentic-units/livetext/render/term"
	"github.com/tailored-agentic-units/livetext/session"
)

func sample(mode render.Mode) render.Output {
	return render.Output{
		Mode:    mode,
		Palette: render.DefaultPalette(),
		Panes: []render.Pane{
			{Title: "bob", Tag: session.TagRemote, Lines: []render.Line{
				{{Text: "bob says: ", Style: render.StyleLabel, Tag: session.TagRemote}, {Text: "hi", Tag: session.TagRemote}},
			}},
			{Title: "me", Tag: session.TagLocal, Lines: []render.Line{
				{{Text: "draft", Style: render.StyleLive, Tag: session.TagLocal}},
			}},
		},
	}
}

func TestRenderer_View(t *testing.T) {
	tests := []struct {
		name string
		mode render.Mode
		want []string
	}{
		{name: "normal", mode: render.ModeNormal, want: []string{"bob says: ", "hi", "draft"}},
		{name: "hybrid", mode: render.ModeHybrid, want: []string{"bob", "me", "hi", "draft"}},
		{name: "split", mode: render.ModeSplit, want: []string{"bob", "me", "hi", "draft"}},
	}

	r := term.New(&bytes.Buffer{}, term.WithWidth(60))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := r.View(sample(tt.mode))
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("view missing %q:\n%s", w, view)
				}
			}
		})
	}
}

func TestRenderer_RenderWrites(t *testing.T) {
	var buf bytes.Buffer
	r := term.New(&buf, term.WithClear(true))

	if err := r.Render(context.Background(), sample(render.ModeNormal)); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "\x1b[H\x1b[2J") {
		t.Error("expected clear-screen prefix")
	}
	if !strings.Contains(buf.String(), "hi") {
		t.Errorf("output missing text: %q", buf.String())
	}
}

func TestRenderer_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	r := term.New(&buf)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Render(ctx, sample(render.ModeNormal)); err == nil {
		t.Error("expected error for cancelled context")
	}
	if buf.Len() != 0 {
		t.Error("cancelled render wrote output")
	}
}

func TestRenderer_EmptySplit(t *testing.T) {
	r := term.New(&bytes.Buffer{})
	if got := r.View(render.Output{Mode: render.ModeSplit}); got != "" {
		t.Errorf("View() = %q, want empty", got)
	}
}
