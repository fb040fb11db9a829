package observability

import (
	"context"
	"slices"
)

// MultiObserver forwards each event to several observers in order.
type MultiObserver []Observer

// NewMultiObserver combines the non-nil observers. A single remaining
// observer is returned as is; none yields NoOpObserver.
func NewMultiObserver(observers ...Observer) Observer {
	filtered := slices.DeleteFunc(slices.Clone(observers), func(o Observer) bool { return o == nil })

	switch len(filtered) {
	case 0:
		return NoOpObserver{}
	case 1:
		return filtered[0]
	default:
		return MultiObserver(filtered)
	}
}

func (m MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m {
		obs.OnEvent(ctx, event)
	}
}
