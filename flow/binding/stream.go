package binding

import (
	"context"
	"sync"

	"github.com/lguimbarda/min-rx/flow/core"
)

type streamBinding[T any] struct {
	sub core.Subscription
	out core.Outlet[T]

	mu    sync.RWMutex
	value T
	err   error
}

// FromStream exposes the latest value of s as a read-only binding holding
// initial until s emits. Errors are kept for Err and do not change the
// value; Completed leaves the last value in place. FromStream subscribes to
// s but does not start it.
func FromStream[T any](s core.Stream[T], initial T) Binding[T] {
	b := &streamBinding[T]{value: initial}
	b.sub = s.Subscribe(func(res core.Result[T]) {
		switch res.Kind() {
		case core.KindValue:
			b.mu.Lock()
			b.value = res.Value()
			b.mu.Unlock()
			b.out.Emit(res)
		case core.KindError:
			b.mu.Lock()
			b.err = res.Error()
			b.mu.Unlock()
		}
	})
	return b
}

func (b *streamBinding[T]) Get() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

func (b *streamBinding[T]) Set(T) error {
	return ErrReadOnly
}

func (b *streamBinding[T]) Subscribe(fn func(T)) core.Subscription {
	return b.out.Subscribe(func(res core.Result[T]) { fn(res.Value()) })
}

// Err returns the last error the stream delivered.
func (b *streamBinding[T]) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

func (b *streamBinding[T]) Unbind() {
	b.sub.Unsubscribe()
}

// ToStream turns b into a stream that emits the current value on Start and
// every change after it. The stream never completes; closing it with
// core.CloseStream detaches it from b.
func ToStream[T any](b Binding[T]) core.Stream[T] {
	node := core.NewNode[T]("binding")
	node.SetStart(func(context.Context) {
		node.Track(b.Subscribe(func(v T) { node.Push(core.Ok(v)) }))
		node.Push(core.Ok(b.Get()))
	})
	return node
}
