package render

import "sync/atomic"

// State is the coalescer's request state.
type State int32

const (
	Idle      State = iota // no pass pending
	Scheduled              // one pass posted, not yet started
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// Coalescer collapses any number of requests into at most one pending run.
// Request may be called from any goroutine. The posted run must call Claim
// before reading state so that requests arriving during the run schedule a
// fresh one.
type Coalescer struct {
	state atomic.Int32
	epoch atomic.Uint64
	post  func(func())
	run   func()
}

// NewCoalescer creates a Coalescer that posts run through post.
func NewCoalescer(post func(func()), run func()) *Coalescer {
	return &Coalescer{post: post, run: run}
}

// Request schedules a run unless one is already pending. It reports whether
// this call scheduled it.
func (c *Coalescer) Request() bool {
	if !c.state.CompareAndSwap(int32(Idle), int32(Scheduled)) {
		return false
	}

	epoch := c.epoch.Load()
	c.post(func() {
		if c.epoch.Load() != epoch || !c.Claim() {
			return
		}
		c.run()
	})
	return true
}

// Claim moves Scheduled back to Idle. It returns false when there was no
// pending request.
func (c *Coalescer) Claim() bool {
	return c.state.CompareAndSwap(int32(Scheduled), int32(Idle))
}

// Cancel drops any pending run.
func (c *Coalescer) Cancel() {
	c.epoch.Add(1)
	c.state.Store(int32(Idle))
}

// State returns the current state.
func (c *Coalescer) State() State {
	return State(c.state.Load())
}
