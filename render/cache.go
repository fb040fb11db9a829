package render

import "sync"

type slot struct {
	version uint64
	gen     uint64
	out     Output
}

// historyCache holds the history-only output of each mode. A slot is valid
// only for the session version and settings generation it was built from.
// All methods are safe for concurrent use.
type historyCache struct {
	slots map[Mode]slot
	mu    sync.RWMutex
}

func newHistoryCache() *historyCache {
	return &historyCache{slots: make(map[Mode]slot)}
}

// get returns a copy of the cached output when the slot matches.
func (c *historyCache) get(mode Mode, version, gen uint64) (Output, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.slots[mode]
	if !ok || s.version != version || s.gen != gen {
		return Output{}, false
	}
	return s.out.Clone(), true
}

func (c *historyCache) put(mode Mode, version, gen uint64, out Output) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[mode] = slot{version: version, gen: gen, out: out.Clone()}
}

func (c *historyCache) invalidate(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, mode)
}

func (c *historyCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.slots)
}

func (c *historyCache) valid(mode Mode, version, gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.slots[mode]
	return ok && s.version == version && s.gen == gen
}
