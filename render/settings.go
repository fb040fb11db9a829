package render

import (
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/livetext/core/edit"
	"github.com/tailored-agentic-units/livetext/session"
)

// DefaultCursorGlyph marks a remote party's cursor position.
const DefaultCursorGlyph = '┃'

const (
	defaultSaysFormat   = "%s says: "
	defaultTypingFormat = "%s (typing): "
)

// Palette holds colour specs (hex or ANSI index) by role.
type Palette struct {
	Local  string `json:"local,omitempty" yaml:"local,omitempty" toml:"local,omitempty"`
	Remote string `json:"remote,omitempty" yaml:"remote,omitempty" toml:"remote,omitempty"`
	Live   string `json:"live,omitempty" yaml:"live,omitempty" toml:"live,omitempty"`
	Frozen string `json:"frozen,omitempty" yaml:"frozen,omitempty" toml:"frozen,omitempty"`
}

// DefaultPalette returns dark red for local text, dark blue for live text,
// and light gray for frozen text.
func DefaultPalette() Palette {
	return Palette{
		Local:  "#8B0000",
		Remote: "#1F3A93",
		Live:   "#00008B",
		Frozen: "#D3D3D3",
	}
}

// Merge applies non-empty colours from source into p.
func (p *Palette) Merge(source *Palette) {
	if source.Local != "" {
		p.Local = source.Local
	}
	if source.Remote != "" {
		p.Remote = source.Remote
	}
	if source.Live != "" {
		p.Live = source.Live
	}
	if source.Frozen != "" {
		p.Frozen = source.Frozen
	}
}

// ForTag returns the colour of a party tag.
func (p Palette) ForTag(tag session.Tag) string {
	if tag == session.TagLocal {
		return p.Local
	}
	return p.Remote
}

// Settings are the visual settings shared by every layout. Changing them
// invalidates all cached history output.
type Settings struct {
	CursorGlyph  rune // 0 hides the cursor
	SaysFormat   string
	TypingFormat string
	Palette      Palette
}

// DefaultSettings returns the default visual settings.
func DefaultSettings() Settings {
	return Settings{
		CursorGlyph:  DefaultCursorGlyph,
		SaysFormat:   defaultSaysFormat,
		TypingFormat: defaultTypingFormat,
		Palette:      DefaultPalette(),
	}
}

func (s Settings) saysLabel(sender string) string {
	return fmt.Sprintf(s.SaysFormat, sender)
}

func (s Settings) typingLabel(sender string) string {
	return fmt.Sprintf(s.TypingFormat, sender)
}

// liveSegments splits a stream's text at its cursor and inserts the glyph.
func (s Settings) liveSegments(v session.StreamView) []Segment {
	style := StyleLive
	if v.Sync == edit.OutOfSync {
		style = StyleFrozen
	}

	runes := []rune(v.Text)
	cursor := min(max(v.Cursor, 0), len(runes))

	var segs []Segment
	if cursor > 0 {
		segs = append(segs, Segment{Text: string(runes[:cursor]), Style: style, Tag: v.Tag})
	}
	if s.CursorGlyph != 0 {
		segs = append(segs, Segment{Text: string(s.CursorGlyph), Style: StyleCursor, Tag: v.Tag})
	}
	if cursor < len(runes) {
		segs = append(segs, Segment{Text: string(runes[cursor:]), Style: style, Tag: v.Tag})
	}
	return segs
}

// ParseGlyph converts a configured glyph string. Empty selects the default;
// "none" hides the cursor.
func ParseGlyph(s string) rune {
	switch strings.ToLower(s) {
	case "":
		return DefaultCursorGlyph
	case "none", "off":
		return 0
	default:
		return []rune(s)[0]
	}
}
