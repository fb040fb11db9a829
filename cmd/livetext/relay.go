package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/transport"
	"github.com/tailored-agentic-units/livetext/transport/connectrpc"
	"github.com/tailored-agentic-units/livetext/transport/discovery"
	"github.com/tailored-agentic-units/livetext/transport/redis"
	"github.com/tailored-agentic-units/livetext/transport/websocket"
)

const websocketPath = "/ws"

func runRelay(args []string) error {
	fs := flag.NewFlagSet("relay", flag.ExitOnError)
	var (
		addr      = fs.String("addr", ":8080", "Listen address")
		redisAddr = fs.String("redis", "", "Redis address; federates relays sharing the channel")
		channel   = fs.String("channel", "livetext", "Redis channel")
		advertise = fs.Bool("mdns", false, "Advertise the relay over mDNS")
		verbose   = fs.Bool("verbose", false, "Enable verbose logging to stderr")
		logSink   = fs.String("log", "slog", "Event sink: slog or noop")
	)
	fs.Parse(args)

	sink, err := newObserver(*logSink, *verbose)
	if err != nil {
		return err
	}
	counter := &observability.Counter{}
	obs := observability.NewMultiObserver(sink, counter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	wsRelay := websocket.NewRelay(websocket.WithObserver(obs))
	rpcRelay := connectrpc.NewRelay(connectrpc.WithRelayObserver(obs))

	upstreams, err := relayUpstreams(ctx, *redisAddr, *channel, obs)
	if err != nil {
		return err
	}
	defer func() {
		for _, u := range upstreams {
			u.Close()
		}
	}()
	wsRelay.Federate(upstreams[0])
	rpcRelay.Federate(upstreams[1])

	router := mux.NewRouter()
	router.Handle(websocketPath, wsRelay)
	router.PathPrefix(connectrpc.ServicePath).Handler(rpcRelay)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "websocket=%d connect=%d\n", wsRelay.Clients(), rpcRelay.Subscribers())
		counts := counter.Snapshot()
		for _, typ := range slices.Sorted(maps.Keys(counts)) {
			fmt.Fprintf(w, "%s=%d\n", typ, counts[typ])
		}
	}).Methods(http.MethodGet)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}

	if *advertise {
		_, port, _ := net.SplitHostPort(ln.Addr().String())
		p, _ := strconv.Atoi(port)
		withdraw, err := discovery.Advertise(p, websocketPath)
		if err != nil {
			return err
		}
		defer withdraw()
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	fmt.Fprintf(os.Stderr, "relay listening on %s (websocket %s, connect %s)\n", ln.Addr(), websocketPath, connectrpc.ServicePath)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// relayUpstreams returns one upstream per relay. Both deliver every payload
// to both relays, so websocket and connect clients share one conversation.
func relayUpstreams(ctx context.Context, redisAddr, channel string, obs observability.Observer) ([]transport.Transport, error) {
	if redisAddr == "" {
		bus := transport.NewBus()
		return []transport.Transport{bus.Attach(), bus.Attach()}, nil
	}

	var ups []transport.Transport
	for range 2 {
		t, err := redis.Dial(ctx, redisAddr, channel, redis.WithObserver(obs))
		if err != nil {
			for _, u := range ups {
				u.Close()
			}
			return nil, err
		}
		ups = append(ups, t)
	}
	return ups, nil
}
