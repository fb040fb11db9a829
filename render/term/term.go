// Package term renders conversation output to a terminal with lipgloss.
package term

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tailored-agentic-units/livetext/render"
)

const clearScreen = "\x1b[H\x1b[2J"

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the total width shared by side-by-side panes.
func WithWidth(w int) Option {
	return func(r *Renderer) { r.width = w }
}

// WithClear redraws from the top of a cleared screen on every pass.
func WithClear(enabled bool) Option {
	return func(r *Renderer) { r.clear = enabled }
}

// Renderer writes styled output to w. It is safe for concurrent use.
type Renderer struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	clear bool
}

// New creates a terminal renderer.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w, width: 80}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Render(ctx context.Context, out render.Output) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	view := r.View(out)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clear {
		view = clearScreen + view
	}
	if _, err := io.WriteString(r.w, view+"\n"); err != nil {
		return fmt.Errorf("write terminal output: %w", err)
	}
	return nil
}

// View returns the styled text for out.
func (r *Renderer) View(out render.Output) string {
	switch out.Mode {
	case render.ModeSplit:
		return r.columns(out)
	case render.ModeHybrid:
		return r.stacked(out)
	default:
		var blocks []string
		for _, p := range out.Panes {
			blocks = append(blocks, lines(p, out.Palette))
		}
		return strings.Join(blocks, "\n")
	}
}

func (r *Renderer) stacked(out render.Output) string {
	var boxes []string
	for _, p := range out.Panes {
		boxes = append(boxes, box(p, out.Palette, r.width-2))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func (r *Renderer) columns(out render.Output) string {
	if len(out.Panes) == 0 {
		return ""
	}

	w := max(r.width/len(out.Panes)-2, 10)
	boxes := make([]string, 0, len(out.Panes))
	for _, p := range out.Panes {
		boxes = append(boxes, box(p, out.Palette, w))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func box(p render.Pane, pal render.Palette, width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(pal.ForTag(p.Tag))).
		Render(p.Title)

	body := lines(p, pal)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(pal.ForTag(p.Tag))).
		Width(width).
		Render(title + "\n" + body)
}

func lines(p render.Pane, pal render.Palette) string {
	rendered := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		var b strings.Builder
		for _, seg := range l {
			b.WriteString(styleFor(seg, pal).Render(seg.Text))
		}
		rendered = append(rendered, b.String())
	}
	return strings.Join(rendered, "\n")
}

func styleFor(seg render.Segment, pal render.Palette) lipgloss.Style {
	switch seg.Style {
	case render.StyleLabel:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(pal.ForTag(seg.Tag)))
	case render.StyleLive:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Live))
	case render.StyleFrozen:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Frozen))
	case render.StyleCursor:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Live)).Blink(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(pal.ForTag(seg.Tag)))
	}
}
