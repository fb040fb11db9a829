// Package render coalesces render requests into single passes and caches
// formatted history per display mode.
//
// Requests may arrive from any goroutine. At most one pass is pending at a
// time; it runs on the owner's goroutine through the post function given to
// New and always reads the session state current at the time it runs. Live
// streams are composed over the cached history on every pass, so live edits
// never invalidate the cache.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/livetext/observability"
	"github.com/tailored-agentic-units/livetext/session"
)

// Renderer consumes formatted output.
type Renderer interface {
	Render(ctx context.Context, out Output) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, out Output) error

func (f RendererFunc) Render(ctx context.Context, out Output) error {
	return f(ctx, out)
}

// Option configures a Coordinator after config-driven initialization.
type Option func(*Coordinator)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithLayout registers or replaces the layout for a mode.
func WithLayout(mode Mode, l Layout) Option {
	return func(c *Coordinator) { c.layouts[mode] = l }
}

// Coordinator owns the render coalescer and the history cache.
type Coordinator struct {
	session   session.Session
	renderer  Renderer
	observer  observability.Observer
	coalescer *Coalescer
	layouts   map[Mode]Layout
	cache     *historyCache
	stats     stats

	mu       sync.RWMutex
	mode     Mode
	settings Settings
	gen      uint64
}

// New creates a Coordinator. Passes are run through post, which must execute
// them on the goroutine that owns sess writes.
func New(cfg *Config, sess session.Session, r Renderer, post func(func()), opts ...Option) (*Coordinator, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		session:  sess,
		renderer: r,
		observer: observability.NewSlogObserver(slog.Default()),
		layouts:  defaultLayouts(),
		cache:    newHistoryCache(),
		mode:     mode,
		settings: cfg.Settings(),
	}
	c.coalescer = NewCoalescer(post, c.pass)

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Request asks for a render pass. Safe to call from any goroutine.
func (c *Coordinator) Request() {
	c.stats.requests.Add(1)
	c.coalescer.Request()
}

// Pending reports whether a pass is scheduled.
func (c *Coordinator) Pending() bool {
	return c.coalescer.State() == Scheduled
}

// Mode returns the active display mode.
func (c *Coordinator) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Modes returns the modes that have a layout.
func (c *Coordinator) Modes() []Mode {
	return slices.Sorted(maps.Keys(c.layouts))
}

// SetMode switches the display mode and invalidates that mode's cache slot.
func (c *Coordinator) SetMode(mode Mode) error {
	if _, ok := c.layouts[mode]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	c.cache.invalidate(mode)
	observability.Emit(context.Background(), c.observer, EventInvalidate, observability.LevelVerbose, "render.SetMode", map[string]any{
		"mode": string(mode),
	})

	c.Request()
	return nil
}

// Settings returns the active visual settings.
func (c *Coordinator) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// SetSettings replaces the visual settings and invalidates every slot.
func (c *Coordinator) SetSettings(s Settings) {
	c.mu.Lock()
	c.settings = s
	c.gen++
	c.mu.Unlock()

	c.cache.invalidateAll()
	observability.Emit(context.Background(), c.observer, EventInvalidate, observability.LevelVerbose, "render.SetSettings", map[string]any{
		"mode": "all",
	})

	c.Request()
}

// Reset invalidates every slot and drops a pending pass.
func (c *Coordinator) Reset() {
	c.coalescer.Cancel()
	c.cache.invalidateAll()
}

// CacheValid reports whether mode's cached history matches the current
// session and settings.
func (c *Coordinator) CacheValid(mode Mode) bool {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()
	return c.cache.valid(mode, c.session.Version(), gen)
}

// Output formats the current state for mode without rendering it.
func (c *Coordinator) Output(mode Mode) (Output, error) {
	c.mu.RLock()
	s, gen := c.settings, c.gen
	c.mu.RUnlock()

	out, built, err := c.compose(mode, s, gen)
	if err != nil {
		return Output{}, err
	}
	if built != nil {
		c.cache.put(mode, built.version, built.gen, built.out)
	}
	return out, nil
}

// Stats returns a snapshot of the coordinator counters.
func (c *Coordinator) Stats() StatsSnapshot {
	return c.stats.snapshot()
}

func (c *Coordinator) pass() {
	ctx := context.Background()
	c.stats.passes.Add(1)

	c.mu.RLock()
	mode, s, gen := c.mode, c.settings, c.gen
	c.mu.RUnlock()

	out, built, err := c.compose(mode, s, gen)
	if err == nil {
		err = c.renderer.Render(ctx, out)
	}
	if err != nil {
		c.stats.failures.Add(1)
		observability.Emit(ctx, c.observer, EventFailed, observability.LevelWarning, "render.pass", map[string]any{
			"mode":  string(mode),
			"error": err.Error(),
		})
		return
	}

	if built != nil {
		c.cache.put(mode, built.version, built.gen, built.out)
	}

	observability.Emit(ctx, c.observer, EventPass, observability.LevelVerbose, "render.pass", map[string]any{
		"mode":    string(mode),
		"rebuilt": built != nil,
		"panes":   len(out.Panes),
	})
}

// compose overlays live streams on the history output for mode. When the
// history had to be rebuilt it is returned as a slot for the caller to cache
// once the result has been used successfully.
func (c *Coordinator) compose(mode Mode, s Settings, gen uint64) (Output, *slot, error) {
	layout, ok := c.layouts[mode]
	if !ok {
		return Output{}, nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	version := c.session.Version()

	var built *slot
	base, hit := c.cache.get(mode, version, gen)
	if hit {
		c.stats.cacheHits.Add(1)
	} else {
		history, err := layout.History(c.session.History(), s)
		if err != nil {
			return Output{}, nil, fmt.Errorf("format history: %w", err)
		}
		c.stats.rebuilds.Add(1)
		built = &slot{version: version, gen: gen, out: history}
		base = history.Clone()
	}

	out, err := layout.Overlay(base, c.session.Streams(), s)
	if err != nil {
		return Output{}, nil, fmt.Errorf("format live text: %w", err)
	}
	return out, built, nil
}
