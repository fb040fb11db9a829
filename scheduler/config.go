package scheduler

import "time"

const (
	defaultIntervalMS   = 700
	defaultPerKeystroke = true
)

// Config holds transmission scheduling parameters. Pointer fields distinguish
// an explicit zero (immediate interval, periodic mode) from an unset value.
type Config struct {
	IntervalMS   *int  `json:"interval_ms,omitempty" yaml:"interval_ms,omitempty" toml:"interval_ms,omitempty"`
	PerKeystroke *bool `json:"per_keystroke,omitempty" yaml:"per_keystroke,omitempty" toml:"per_keystroke,omitempty"`
}

// DefaultConfig returns the recommended settings: 700ms with per-keystroke
// encoding.
func DefaultConfig() Config {
	interval := defaultIntervalMS
	perKey := defaultPerKeystroke
	return Config{
		IntervalMS:   &interval,
		PerKeystroke: &perKey,
	}
}

// Merge applies set values from source into c.
func (c *Config) Merge(source *Config) {
	if source.IntervalMS != nil {
		v := *source.IntervalMS
		c.IntervalMS = &v
	}
	if source.PerKeystroke != nil {
		v := *source.PerKeystroke
		c.PerKeystroke = &v
	}
}

// Validate rejects negative intervals.
func (c *Config) Validate() error {
	if c.IntervalMS != nil && *c.IntervalMS < 0 {
		return ErrInvalidInterval
	}
	return nil
}

// Interval returns the configured interval, or the default when unset.
func (c *Config) Interval() time.Duration {
	if c.IntervalMS == nil {
		return defaultIntervalMS * time.Millisecond
	}
	return time.Duration(*c.IntervalMS) * time.Millisecond
}

// KeystrokeMode reports the per-keystroke flag, or the default when unset.
func (c *Config) KeystrokeMode() bool {
	if c.PerKeystroke == nil {
		return defaultPerKeystroke
	}
	return *c.PerKeystroke
}
