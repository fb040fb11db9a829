package render

import "fmt"

// Config holds display parameters.
type Config struct {
	Mode         string  `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`
	CursorGlyph  string  `json:"cursor_glyph,omitempty" yaml:"cursor_glyph,omitempty" toml:"cursor_glyph,omitempty"`
	SaysFormat   string  `json:"says_format,omitempty" yaml:"says_format,omitempty" toml:"says_format,omitempty"`
	TypingFormat string  `json:"typing_format,omitempty" yaml:"typing_format,omitempty" toml:"typing_format,omitempty"`
	Palette      Palette `json:"palette,omitzero" yaml:"palette,omitempty" toml:"palette,omitempty"`
}

// DefaultConfig returns normal mode with the default visual settings.
func DefaultConfig() Config {
	return Config{
		Mode:         string(ModeNormal),
		SaysFormat:   defaultSaysFormat,
		TypingFormat: defaultTypingFormat,
		Palette:      DefaultPalette(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Mode != "" {
		c.Mode = source.Mode
	}
	if source.CursorGlyph != "" {
		c.CursorGlyph = source.CursorGlyph
	}
	if source.SaysFormat != "" {
		c.SaysFormat = source.SaysFormat
	}
	if source.TypingFormat != "" {
		c.TypingFormat = source.TypingFormat
	}
	c.Palette.Merge(&source.Palette)
}

// Validate checks the mode name.
func (c *Config) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	return nil
}

// Settings derives the visual settings.
func (c *Config) Settings() Settings {
	s := DefaultSettings()
	s.CursorGlyph = ParseGlyph(c.CursorGlyph)
	if c.SaysFormat != "" {
		s.SaysFormat = c.SaysFormat
	}
	if c.TypingFormat != "" {
		s.TypingFormat = c.TypingFormat
	}
	s.Palette.Merge(&c.Palette)
	return s
}
