package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/tailored-agentic-units/livetext/chat"
	"github.com/tailored-agentic-units/livetext/render/term"
)

func runChat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	var (
		configFile = fs.String("config", "", "Path to a JSON, YAML, or TOML config file")
		name       = fs.String("name", "", "Local party name (overrides config)")
		kind       = fs.String("transport", "", "Transport kind: websocket, connect, or redis (overrides config)")
		url        = fs.String("url", "", "Relay URL or redis address (overrides config)")
		discover   = fs.Bool("discover", false, "Find the relay over mDNS")
		mode       = fs.String("mode", "", "Display mode: normal, hybrid, or split (overrides config)")
		preset     = fs.String("preset", "", "Preset name (overrides config)")
		watch      = fs.Bool("watch", false, "Reload the config file when it changes")
		keyDelay   = fs.Duration("key-delay", 60*time.Millisecond, "Delay between typed characters")
		verbose    = fs.Bool("verbose", false, "Enable verbose logging to stderr")
		logSink    = fs.String("log", "slog", "Event sink: slog or noop")
	)
	fs.Parse(args)

	cfg := chat.DefaultConfig()
	if *configFile != "" {
		loaded, err := chat.LoadConfig(*configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if *name != "" {
		cfg.Name = *name
	}
	if *kind != "" {
		cfg.Transport.Kind = *kind
	}
	if *url != "" {
		cfg.Transport.URL = *url
	}
	if *discover {
		cfg.Transport.Discover = true
	}
	if *mode != "" {
		cfg.Render.Mode = *mode
	}
	if *preset != "" {
		cfg.Preset = *preset
	}

	obs, err := newObserver(*logSink, *verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t, err := dial(ctx, cfg.Transport, obs)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	conv, err := chat.New(&cfg, t, term.New(os.Stdout, term.WithClear(true)), chat.WithObserver(obs))
	if err != nil {
		t.Close()
		return err
	}
	defer conv.Close()

	go conv.Run(ctx)
	if *watch && *configFile != "" {
		go conv.WatchConfig(ctx, *configFile)
	}

	done := make(chan error, 1)
	go func() { done <- readInput(ctx, conv, os.Stdin, *keyDelay) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-done:
		return err
	}
}

// readInput types each line rune by rune and sends it. Lines starting with
// a slash are commands.
func readInput(ctx context.Context, conv *chat.Conversation, in io.Reader, keyDelay time.Duration) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "/") {
			quit, err := command(ctx, conv, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := typeLine(ctx, conv, line, keyDelay); err != nil {
			return err
		}
		if err := conv.Send(ctx, line); err != nil && !errors.Is(err, chat.ErrEmptyMessage) {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return scanner.Err()
}

func typeLine(ctx context.Context, conv *chat.Conversation, line string, keyDelay time.Duration) error {
	runes := []rune(line)
	for i := range runes {
		if err := conv.Type(ctx, string(runes[:i+1])); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(keyDelay):
		}
	}
	return nil
}

func command(ctx context.Context, conv *chat.Conversation, line string) (bool, error) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit":
		return true, nil
	case "/clear":
		return false, conv.Clear(ctx)
	case "/mode":
		return false, conv.SetMode(ctx, arg)
	case "/preset":
		return false, conv.ApplyPreset(ctx, arg)
	case "/rtt":
		return false, conv.SetRealTime(ctx, arg != "off")
	case "/states":
		return false, conv.SetChatStates(ctx, arg != "off")
	case "/interval":
		d, err := time.ParseDuration(arg)
		if err != nil {
			return false, err
		}
		st, err := conv.Status(ctx)
		if err != nil {
			return false, err
		}
		return false, conv.Configure(ctx, d, st.PerKeystroke)
	case "/stats":
		m := conv.Metrics()
		fmt.Fprintf(os.Stderr, "sent=%d failed=%d received=%d invalid=%d echoes=%d passes=%d\n",
			m.FramesSent, m.SendFailures, m.FramesReceived, m.InvalidFrames, m.EchoesDropped, m.Render.Passes)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
}
