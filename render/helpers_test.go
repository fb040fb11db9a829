package render_test

import (
	"context"
	"sync"

	"github.com/tailored-agentic-units/livetext/render"
)

// queue stands in for the owner loop's inbox.
type queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queue) post(f func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fns = append(q.fns, f)
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

// drain runs queued work, including work queued while draining.
func (q *queue) drain() {
	for {
		q.mu.Lock()
		if len(q.fns) == 0 {
			q.mu.Unlock()
			return
		}
		f := q.fns[0]
		q.fns = q.fns[1:]
		q.mu.Unlock()
		f()
	}
}

type recordingRenderer struct {
	outputs  []render.Output
	err      error
	onRender func()
}

func (r *recordingRenderer) Render(_ context.Context, out render.Output) error {
	if r.onRender != nil {
		r.onRender()
	}
	if r.err != nil {
		return r.err
	}
	r.outputs = append(r.outputs, out)
	return nil
}

func (r *recordingRenderer) last() render.Output {
	return r.outputs[len(r.outputs)-1]
}
