package transport_test

import (
	"errors"
	"testing"

	"github.com/tailored-agentic-units/livetext/transport"
)

func TestConfig_Merge(t *testing.T) {
	cfg := transport.DefaultConfig()
	cfg.Merge(&transport.Config{Kind: transport.KindRedis, Channel: "room"})

	if cfg.Kind != transport.KindRedis || cfg.Channel != "room" || cfg.URL != transport.DefaultConfig().URL {
		t.Errorf("merged = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{kind: transport.KindPipe},
		{kind: transport.KindWebSocket},
		{kind: transport.KindConnect},
		{kind: transport.KindRedis},
		{kind: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := transport.Config{Kind: tt.kind}
			err := cfg.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, transport.ErrUnknownKind) {
				t.Errorf("error = %v, want ErrUnknownKind", err)
			}
		})
	}
}
