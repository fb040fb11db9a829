package transport

import (
	"errors"
	"fmt"
	"slices"
)

// Kinds of transport a conversation can be configured with.
const (
	KindPipe      = "pipe"
	KindWebSocket = "websocket"
	KindConnect   = "connect"
	KindRedis     = "redis"
)

// ErrUnknownKind is returned for an unsupported transport kind.
var ErrUnknownKind = errors.New("unknown transport kind")

// Config selects and addresses a transport.
type Config struct {
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty" toml:"channel,omitempty"`
	// Discover browses mDNS for a relay when URL is empty.
	Discover bool `json:"discover,omitempty" yaml:"discover,omitempty" toml:"discover,omitempty"`
}

// DefaultConfig returns a websocket transport on the local relay.
func DefaultConfig() Config {
	return Config{
		Kind:    KindWebSocket,
		URL:     "ws://localhost:8080/ws",
		Channel: "livetext",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Kind != "" {
		c.Kind = source.Kind
	}
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.Channel != "" {
		c.Channel = source.Channel
	}
	if source.Discover {
		c.Discover = true
	}
}

// Validate checks the transport kind.
func (c *Config) Validate() error {
	if !slices.Contains([]string{KindPipe, KindWebSocket, KindConnect, KindRedis}, c.Kind) {
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	return nil
}
