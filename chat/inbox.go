package chat

import "context"

// inbox is a bounded queue of values consumed by a single goroutine.
// Closing cancels the inbox context; pending senders and the receiver return
// instead of blocking, and queued values are dropped.
type inbox[T any] struct {
	channel chan T
	context context.Context
	cancel  context.CancelFunc
}

func newInbox[T any](size int) *inbox[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &inbox[T]{
		channel: make(chan T, size),
		context: ctx,
		cancel:  cancel,
	}
}

func (in *inbox[T]) send(ctx context.Context, v T) error {
	if err := in.context.Err(); err != nil {
		return err
	}
	select {
	case in.channel <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-in.context.Done():
		return in.context.Err()
	}
}

func (in *inbox[T]) trySend(v T) bool {
	if in.context.Err() != nil {
		return false
	}
	select {
	case in.channel <- v:
		return true
	default:
		return false
	}
}

func (in *inbox[T]) receive(ctx context.Context) (T, error) {
	select {
	case v := <-in.channel:
		if err := in.context.Err(); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-in.context.Done():
		var zero T
		return zero, in.context.Err()
	}
}

func (in *inbox[T]) close() {
	in.cancel()
}

func (in *inbox[T]) closed() bool {
	return in.context.Err() != nil
}

func (in *inbox[T]) done() <-chan struct{} {
	return in.context.Done()
}

func (in *inbox[T]) length() int {
	return len(in.channel)
}
