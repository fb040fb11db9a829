package chat

import (
	"fmt"
	"slices"
	"time"
)

// Preset is a named combination of transmission and cursor settings.
type Preset struct {
	Name         string
	Interval     time.Duration
	PerKeystroke bool
	Cursor       bool
}

var presets = []Preset{
	{Name: "recommended", Interval: 700 * time.Millisecond, PerKeystroke: true, Cursor: true},
	{Name: "low-lag", Interval: 300 * time.Millisecond, PerKeystroke: true, Cursor: true},
	{Name: "immediate", Interval: 0, PerKeystroke: false, Cursor: true},
	{Name: "bursty", Interval: time.Second, PerKeystroke: false, Cursor: false},
	{Name: "baseline", Interval: time.Second, PerKeystroke: false, Cursor: true},
}

// Presets returns the built-in presets, recommended first.
func Presets() []Preset {
	return slices.Clone(presets)
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, error) {
	i := slices.IndexFunc(presets, func(p Preset) bool { return p.Name == name })
	if i < 0 {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return presets[i], nil
}

func (p Preset) apply(cfg *Config) {
	ms := int(p.Interval / time.Millisecond)
	perKey := p.PerKeystroke
	cfg.Scheduler.IntervalMS = &ms
	cfg.Scheduler.PerKeystroke = &perKey

	if p.Cursor {
		cfg.Render.CursorGlyph = ""
	} else {
		cfg.Render.CursorGlyph = "none"
	}
}
