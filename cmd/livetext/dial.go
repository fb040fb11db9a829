package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/transport"
	"github.com/tailored-agentic-units/livetext/transport/connectrpc"
	"github.com/tailored-agentic-units/livetext/transport/discovery"
	"github.com/tailored-agentic-units/livetext/transport/redis"
	"github.com/tailored-agentic-units/livetext/transport/websocket"
)

const discoverTimeout = 5 * time.Second

// dial opens the transport described by cfg.
func dial(ctx context.Context, cfg transport.Config, obs observability.Observer) (transport.Transport, error) {
	url := cfg.URL
	if cfg.Discover {
		found, err := discover(ctx, cfg.Kind)
		if err != nil {
			return nil, err
		}
		url = found
	}

	switch cfg.Kind {
	case transport.KindWebSocket:
		return websocket.Dial(ctx, url, websocket.WithObserver(obs))
	case transport.KindConnect:
		return connectrpc.Dial(ctx, url, connectrpc.WithClientObserver(obs))
	case transport.KindRedis:
		return redis.Dial(ctx, url, cfg.Channel, redis.WithObserver(obs))
	default:
		return nil, fmt.Errorf("%w: %q cannot be dialed", transport.ErrUnknownKind, cfg.Kind)
	}
}

func discover(ctx context.Context, kind string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	relay, err := discovery.Find(ctx)
	if err != nil {
		return "", err
	}

	switch kind {
	case transport.KindWebSocket:
		return relay.URL(), nil
	case transport.KindConnect:
		return "http://" + net.JoinHostPort(relay.Host, strconv.Itoa(relay.Port)), nil
	default:
		return "", fmt.Errorf("discovery finds relays, not %s servers", kind)
	}
}
