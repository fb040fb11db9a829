package session

// Config holds session initialization parameters.
type Config struct {
	// ID overrides the generated UUIDv7 session identifier.
	ID string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.ID != "" {
		c.ID = source.ID
	}
}

// New creates an in-memory Session, keeping cfg.ID when set.
func New(cfg *Config) (Session, error) {
	s := newMemorySession()
	if cfg.ID != "" {
		s.id = cfg.ID
	}
	return s, nil
}
