package chat_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/livetext/chat"
	"github.com/tailored-agentic-units/livetext/render"
	"github.com/tailored-agentic-units/livetext/scheduler"
	"github.com/tailored-agentic-units/livetext/transport"
)

func TestDefaultConfig(t *testing.T) {
	cfg := chat.DefaultConfig()

	if cfg.Scheduler.Interval() != 700*time.Millisecond || !cfg.Scheduler.KeystrokeMode() {
		t.Errorf("scheduler = %v/%v, want 700ms per-keystroke", cfg.Scheduler.Interval(), cfg.Scheduler.KeystrokeMode())
	}
	if !cfg.RealTimeEnabled() {
		t.Error("real-time text should default to enabled")
	}
	if cfg.Render.Mode != string(render.ModeNormal) {
		t.Errorf("render mode = %q, want normal", cfg.Render.Mode)
	}
	if cfg.Transport.Kind != transport.KindWebSocket {
		t.Errorf("transport kind = %q, want websocket", cfg.Transport.Kind)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := chat.DefaultConfig()
	off := false
	ms := 300
	cfg.Merge(&chat.Config{
		Name:      "alice",
		RealTime:  &off,
		Scheduler: scheduler.Config{IntervalMS: &ms},
		Render:    render.Config{Mode: "split"},
	})

	if cfg.Name != "alice" || cfg.RealTimeEnabled() {
		t.Errorf("name %q real-time %v", cfg.Name, cfg.RealTimeEnabled())
	}
	if cfg.Scheduler.Interval() != 300*time.Millisecond || !cfg.Scheduler.KeystrokeMode() {
		t.Errorf("scheduler = %v/%v, want 300ms with default mode kept", cfg.Scheduler.Interval(), cfg.Scheduler.KeystrokeMode())
	}
	if cfg.Render.Mode != "split" || cfg.Transport.Kind != transport.KindWebSocket {
		t.Errorf("render %q transport %q", cfg.Render.Mode, cfg.Transport.Kind)
	}
}

func TestConfig_Validate(t *testing.T) {
	negative := -5

	tests := []struct {
		name    string
		modify  func(*chat.Config)
		wantErr error
	}{
		{name: "negative interval", modify: func(c *chat.Config) { c.Scheduler.IntervalMS = &negative }, wantErr: scheduler.ErrInvalidInterval},
		{name: "unknown mode", modify: func(c *chat.Config) { c.Render.Mode = "tabs" }, wantErr: render.ErrUnknownMode},
		{name: "unknown preset", modify: func(c *chat.Config) { c.Preset = "turbo" }, wantErr: chat.ErrUnknownPreset},
		{name: "unknown transport", modify: func(c *chat.Config) { c.Transport.Kind = "carrier-pigeon" }, wantErr: transport.ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := chat.DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		file string
		body string
	}{
		{
			file: "chat.json",
			body: `{
  "name": "alice",
  "scheduler": {"interval_ms": 300, "per_keystroke": false},
  "render": {"mode": "hybrid", "cursor_glyph": "|"},
  "transport": {"kind": "connect", "url": "http://localhost:8080"}
}`,
		},
		{
			file: "chat.yaml",
			body: `name: alice
scheduler:
  interval_ms: 300
  per_keystroke: false
render:
  mode: hybrid
  cursor_glyph: "|"
transport:
  kind: connect
  url: http://localhost:8080
`,
		},
		{
			file: "chat.toml",
			body: `name = "alice"

[scheduler]
interval_ms = 300
per_keystroke = false

[render]
mode = "hybrid"
cursor_glyph = "|"

[transport]
kind = "connect"
url = "http://localhost:8080"
`,
		},
	}

	for _, tt := range tests {
		t.Run(filepath.Ext(tt.file), func(t *testing.T) {
			path := writeFile(t, tt.file, tt.body)

			cfg, err := chat.LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}

			if cfg.Name != "alice" {
				t.Errorf("name = %q", cfg.Name)
			}
			if cfg.Scheduler.Interval() != 300*time.Millisecond || cfg.Scheduler.KeystrokeMode() {
				t.Errorf("scheduler = %v/%v, want 300ms periodic", cfg.Scheduler.Interval(), cfg.Scheduler.KeystrokeMode())
			}
			if cfg.Render.Mode != "hybrid" || cfg.Render.Settings().CursorGlyph != '|' {
				t.Errorf("render = %+v", cfg.Render)
			}
			if cfg.Transport.Kind != transport.KindConnect || cfg.Transport.Channel != "livetext" {
				t.Errorf("transport = %+v, want connect with default channel", cfg.Transport)
			}
			if !cfg.RealTimeEnabled() {
				t.Error("unset real_time should keep the default")
			}
		})
	}
}

func TestLoadConfig_PresetThenOverrides(t *testing.T) {
	path := writeFile(t, "chat.yaml", `preset: bursty
scheduler:
  interval_ms: 2000
`)

	cfg, err := chat.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Scheduler.Interval() != 2*time.Second {
		t.Errorf("interval = %v, explicit value should override the preset", cfg.Scheduler.Interval())
	}
	if cfg.Scheduler.KeystrokeMode() {
		t.Error("bursty preset should select periodic mode")
	}
	if cfg.Render.Settings().CursorGlyph != 0 {
		t.Error("bursty preset should hide the cursor")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr error
	}{
		{name: "unsupported extension", file: "chat.ini", body: "name=alice", wantErr: chat.ErrUnsupportedFormat},
		{name: "unknown preset", file: "chat.json", body: `{"preset": "turbo"}`, wantErr: chat.ErrUnknownPreset},
		{name: "negative interval", file: "chat.toml", body: "[scheduler]\ninterval_ms = -1\n", wantErr: scheduler.ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.body)
			if _, err := chat.LoadConfig(path); !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := chat.LoadConfig(filepath.Join(t.TempDir(), "absent.json")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("LoadConfig() error = %v, want ErrNotExist", err)
		}
	})
}

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		perKey   bool
		cursor   bool
	}{
		{"recommended", 700 * time.Millisecond, true, true},
		{"low-lag", 300 * time.Millisecond, true, true},
		{"immediate", 0, false, true},
		{"bursty", time.Second, false, false},
		{"baseline", time.Second, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := chat.LookupPreset(tt.name)
			if err != nil {
				t.Fatalf("LookupPreset() error = %v", err)
			}
			if p.Interval != tt.interval || p.PerKeystroke != tt.perKey || p.Cursor != tt.cursor {
				t.Errorf("preset = %+v", p)
			}
		})
	}

	if got := chat.Presets(); len(got) != len(tests) || got[0].Name != "recommended" {
		t.Errorf("Presets() = %+v", got)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
