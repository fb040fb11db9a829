// Command livetext runs a real-time text relay, a terminal chat client, or a
// scripted two-party demo.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tailored-agentic-units/livetext/observability"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "relay":
		err = runRelay(args)
	case "chat":
		err = runChat(args)
	case "demo":
		err = runDemo(args)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "livetext %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: livetext <relay|chat|demo> [flags]")
	fmt.Fprintln(os.Stderr, "  relay  serve the websocket and connect relays")
	fmt.Fprintln(os.Stderr, "  chat   join a relay; each stdin line is typed, then sent")
	fmt.Fprintln(os.Stderr, "  demo   two local parties over an in-memory pipe")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// newObserver resolves the -log flag against the observer registry. The
// "slog" entry is replaced by a stderr logger honoring -verbose.
func newObserver(sink string, verbose bool) (observability.Observer, error) {
	observability.RegisterObserver("slog", observability.NewSlogObserver(newLogger(verbose)))
	obs, err := observability.GetObserver(sink)
	if err != nil {
		return nil, fmt.Errorf("%w (have %s)", err, strings.Join(observability.ObserverNames(), ", "))
	}
	return obs, nil
}
