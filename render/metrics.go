package render

import "sync/atomic"

type StatsSnapshot struct {
	Requests  int64
	Passes    int64
	Failures  int64
	CacheHits int64
	Rebuilds  int64
}

type stats struct {
	requests  atomic.Int64
	passes    atomic.Int64
	failures  atomic.Int64
	cacheHits atomic.Int64
	rebuilds  atomic.Int64
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Requests:  s.requests.Load(),
		Passes:    s.passes.Load(),
		Failures:  s.failures.Load(),
		CacheHits: s.cacheHits.Load(),
		Rebuilds:  s.rebuilds.Load(),
	}
}
