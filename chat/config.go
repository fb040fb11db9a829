package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/livetext/render"
	"github.com/tailored-agentic-units/livetext/scheduler"
	"github.com/tailored-agentic-units/livetext/session"
	"github.com/tailored-agentic-units/livetext/transport"
)

// Config holds initialization parameters for a conversation and each of its
// subsystems. Each section delegates to that subsystem's config.
type Config struct {
	// Name identifies the local party on the wire and in history labels.
	// Defaults to the session ID.
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	// Preset applies a named preset before the explicit sections.
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty" toml:"preset,omitempty"`
	// RealTime enables real-time text. Defaults to true.
	RealTime *bool `json:"real_time,omitempty" yaml:"real_time,omitempty" toml:"real_time,omitempty"`
	// ChatStates attaches composing/active notifications to outgoing frames.
	ChatStates bool `json:"chat_states,omitempty" yaml:"chat_states,omitempty" toml:"chat_states,omitempty"`

	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler" toml:"scheduler"`
	Session   session.Config   `json:"session" yaml:"session" toml:"session"`
	Render    render.Config    `json:"render" yaml:"render" toml:"render"`
	Transport transport.Config `json:"transport" yaml:"transport" toml:"transport"`
}

// DefaultConfig returns a Config with the recommended settings for all
// subsystems.
func DefaultConfig() Config {
	realTime := true
	return Config{
		RealTime:  &realTime,
		Scheduler: scheduler.DefaultConfig(),
		Session:   session.DefaultConfig(),
		Render:    render.DefaultConfig(),
		Transport: transport.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Preset != "" {
		c.Preset = source.Preset
	}
	if source.RealTime != nil {
		v := *source.RealTime
		c.RealTime = &v
	}
	if source.ChatStates {
		c.ChatStates = true
	}

	c.Scheduler.Merge(&source.Scheduler)
	c.Session.Merge(&source.Session)
	c.Render.Merge(&source.Render)
	c.Transport.Merge(&source.Transport)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Preset != "" {
		if _, err := LookupPreset(c.Preset); err != nil {
			return err
		}
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler config: %w", err)
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}
	return nil
}

// RealTimeEnabled reports the real-time flag, true when unset.
func (c *Config) RealTimeEnabled() bool {
	return c.RealTime == nil || *c.RealTime
}

// Resolve returns the defaults with c's preset and then c itself merged over
// them.
func (c *Config) Resolve() (Config, error) {
	out := DefaultConfig()
	if c.Preset != "" {
		p, err := LookupPreset(c.Preset)
		if err != nil {
			return Config{}, err
		}
		p.apply(&out)
	}
	out.Merge(c)
	return out, nil
}

// LoadConfig reads a JSON, YAML, or TOML config file, chosen by extension,
// and merges it over the defaults. A preset named in the file is applied
// first so that explicit sections override it.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := unmarshalConfig(filepath.Ext(filename), data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg, err := loaded.Resolve()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func unmarshalConfig(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".json":
		return json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
