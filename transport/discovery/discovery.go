// Package discovery advertises and finds relays on the local network over
// mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"
)

const (
	// Service is the mDNS service type relays register under.
	Service = "_livetext._tcp"
	domain  = "local."
)

// ErrNotFound is returned when browsing ends without finding a relay.
var ErrNotFound = errors.New("no relay found")

// Relay is a discovered relay endpoint.
type Relay struct {
	Instance string
	Host     string
	Port     int
	Path     string
}

// URL returns the relay's websocket URL.
func (r Relay) URL() string {
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(r.Host, fmt.Sprint(r.Port)), r.Path)
}

// Advertise registers a relay listening on port. The returned function
// withdraws it.
func Advertise(port int, path string) (func(), error) {
	host, _ := os.Hostname()
	server, err := zeroconf.Register(
		"livetext-"+host,
		Service,
		domain,
		port,
		[]string{"path=" + path},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("register mdns service: %w", err)
	}
	return server.Shutdown, nil
}

// Find browses until the first relay answers or ctx ends.
func Find(ctx context.Context) (Relay, error) {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return Relay{}, fmt.Errorf("create mdns resolver: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, Service, domain, entries); err != nil {
		return Relay{}, fmt.Errorf("browse mdns: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return Relay{}, ErrNotFound
		case entry, ok := <-entries:
			if !ok {
				return Relay{}, ErrNotFound
			}
			if r, ok := fromEntry(entry); ok {
				return r, nil
			}
		}
	}
}

func fromEntry(e *zeroconf.ServiceEntry) (Relay, bool) {
	if e == nil || len(e.AddrIPv4) == 0 {
		return Relay{}, false
	}

	r := Relay{
		Instance: e.Instance,
		Host:     e.AddrIPv4[0].String(),
		Port:     e.Port,
		Path:     "/ws",
	}
	for _, txt := range e.Text {
		if path, ok := strings.CutPrefix(txt, "path="); ok {
			r.Path = path
		}
	}
	return r, true
}
