package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/tailored-agentic-units/livetext/chat"
	"github.com/tailored-agentic-units/livetext/render"
	"github.com/tailored-agentic-units/livetext/render/term"
	"github.com/tailored-agentic-units/livetext/transport"
)

type scriptLine struct {
	from *chat.Conversation
	text string
}

func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	var (
		mode     = fs.String("mode", "split", "Display mode: normal, hybrid, or split")
		preset   = fs.String("preset", "recommended", "Preset name")
		keyDelay = fs.Duration("key-delay", 90*time.Millisecond, "Delay between typed characters")
		verbose  = fs.Bool("verbose", false, "Enable verbose logging to stderr")
		logSink  = fs.String("log", "slog", "Event sink: slog or noop")
	)
	fs.Parse(args)

	obs, err := newObserver(*logSink, *verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, b := transport.NewPipe()

	cfg := chat.DefaultConfig()
	cfg.Preset = *preset
	cfg.Render.Mode = *mode
	cfg.Transport.Kind = transport.KindPipe

	aliceCfg, bobCfg := cfg, cfg
	aliceCfg.Name, bobCfg.Name = "alice", "bob"

	alice, err := chat.New(&aliceCfg, a, term.New(os.Stdout, term.WithClear(true)), chat.WithObserver(obs))
	if err != nil {
		return err
	}
	defer alice.Close()

	quiet := render.RendererFunc(func(context.Context, render.Output) error { return nil })
	bob, err := chat.New(&bobCfg, b, quiet, chat.WithObserver(obs))
	if err != nil {
		return err
	}
	defer bob.Close()

	go alice.Run(ctx)
	go bob.Run(ctx)

	script := []scriptLine{
		{bob, "Hi Alice, can you see me typing?"},
		{alice, "Yes! Every keystroke, as you make it."},
		{bob, "The cursor follows my edits too."},
		{alice, "Even those."},
	}

	for _, l := range script {
		if err := typeLine(ctx, l.from, l.text, *keyDelay); err != nil {
			return err
		}
		if err := l.from.Send(ctx, l.text); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
	return nil
}
