package render

import (
	"slices"
	"strings"

	"github.com/tailored-agentic-units/livetext/session"
)

// Style classifies a segment for the renderer.
type Style int

const (
	StyleText   Style = iota // completed message text
	StyleLabel               // sender label
	StyleLive                // in-sync live text
	StyleFrozen              // out-of-sync live text
	StyleCursor              // remote cursor glyph
)

// Segment is a run of text sharing one style.
type Segment struct {
	Text  string
	Style Style
	Tag   session.Tag
}

// Line is one display line.
type Line []Segment

// String returns the line's plain text.
func (l Line) String() string {
	var b strings.Builder
	for _, seg := range l {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Pane is a titled group of lines.
type Pane struct {
	Title string
	Tag   session.Tag
	Lines []Line
}

// Output is the formatted result of one render pass.
type Output struct {
	Mode    Mode
	Panes   []Pane
	Palette Palette
}

// Clone returns a deep copy of o.
func (o Output) Clone() Output {
	c := o
	c.Panes = make([]Pane, len(o.Panes))
	for i, p := range o.Panes {
		c.Panes[i] = p
		c.Panes[i].Lines = make([]Line, len(p.Lines))
		for j, l := range p.Lines {
			c.Panes[i].Lines[j] = slices.Clone(l)
		}
	}
	return c
}

// Pane returns the pane with the given title.
func (o Output) Pane(title string) (Pane, bool) {
	for _, p := range o.Panes {
		if p.Title == title {
			return p, true
		}
	}
	return Pane{}, false
}

// String returns the plain text of every pane. Multi-pane output prefixes
// each pane with its title.
func (o Output) String() string {
	var b strings.Builder
	for i, p := range o.Panes {
		if len(o.Panes) > 1 {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("[" + p.Title + "]\n")
		}
		for _, l := range p.Lines {
			b.WriteString(l.String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}
