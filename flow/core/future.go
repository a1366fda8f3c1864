package core

import (
	"context"
	"sync"
)

// Future is the pending outcome of an asynchronous producer call.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on a new goroutine and returns its Future. A panic in fn is
// captured as an ErrPanic.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		f.Resolve(Recover(func() (T, error) { return fn(ctx) }))
	}()
	return f
}

// NewFuture returns an unresolved Future. Callers that schedule work
// themselves (worker pools) resolve it with Resolve.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve settles the future. Only the first call has any effect.
func (f *Future[T]) Resolve(value T, err error) {
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future resolves or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result converts a resolved future into an envelope.
func (f *Future[T]) Result() Result[T] {
	<-f.done
	if f.err != nil {
		return Err[T](f.err)
	}
	return Ok(f.value)
}

// Serializer funnels emissions that originate off the caller's goroutine.
// With a Dispatcher in the start context the work is posted there; otherwise
// it runs inline under a mutex so a stage never emits from two goroutines
// at once.
type Serializer struct {
	mu         sync.Mutex
	dispatcher Dispatcher
}

// NewSerializer picks up the dispatcher from ctx, if any.
func NewSerializer(ctx context.Context) *Serializer {
	d, _ := GetDispatcher(ctx)
	return &Serializer{dispatcher: d}
}

// Do runs fn on the serialized path.
func (s *Serializer) Do(fn func()) {
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(fn)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
