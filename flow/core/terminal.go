package core

import (
	"context"
	"errors"
	"sync"
)

// Terminal functions attach a collecting listener, start the stream and wait
// for Completed (or for ctx to end). They are the bridge from the push graph
// back to ordinary blocking Go code, mostly useful in tests and tools.

// ErrEmpty is returned by First when the stream completes without a value.
var ErrEmpty = errors.New("stream is empty")

// Collect gathers every envelope up to and including the first Completed.
// If ctx ends first, the envelopes seen so far are returned.
func Collect[T any](ctx context.Context, s Stream[T]) []Result[T] {
	var (
		mu      sync.Mutex
		results []Result[T]
		done    = make(chan struct{})
		once    sync.Once
	)

	sub := s.Subscribe(func(res Result[T]) {
		mu.Lock()
		select {
		case <-done:
			mu.Unlock()
			return
		default:
		}
		results = append(results, res)
		mu.Unlock()
		if res.IsCompleted() {
			once.Do(func() { close(done) })
		}
	})
	defer sub.Unsubscribe()

	s.Start(ctx)

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]Result[T], len(results))
	copy(out, results)
	return out
}

// Slice collects every value until Completed. The first error aborts the
// collection and is returned. A ctx that ends first returns ctx.Err().
func Slice[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	var (
		mu     sync.Mutex
		values []T
		err    error
		done   = make(chan struct{})
		once   sync.Once
	)
	finish := func() { once.Do(func() { close(done) }) }

	sub := s.Subscribe(func(res Result[T]) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			return
		}
		switch res.Kind() {
		case KindValue:
			values = append(values, res.Value())
		case KindError:
			err = res.Error()
			finish()
		case KindCompleted:
			finish()
		}
	})
	defer sub.Unsubscribe()

	s.Start(ctx)

	select {
	case <-done:
	case <-ctx.Done():
		mu.Lock()
		defer mu.Unlock()
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		return nil, err
	}
	return values, nil
}

// First returns the first value of the stream.
func First[T any](ctx context.Context, s Stream[T]) (T, error) {
	ch := make(chan outcome[T], 1)
	var once sync.Once
	deliver := func(o outcome[T]) {
		once.Do(func() { ch <- o })
	}

	sub := s.Subscribe(func(res Result[T]) {
		switch res.Kind() {
		case KindValue:
			deliver(outcome[T]{value: res.Value()})
		case KindError:
			deliver(outcome[T]{err: res.Error()})
		case KindCompleted:
			deliver(outcome[T]{err: ErrEmpty})
		}
	})
	defer sub.Unsubscribe()

	s.Start(ctx)

	select {
	case o := <-ch:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

type outcome[T any] struct {
	value T
	err   error
}

// Run drives the stream until Completed for its side effects only and
// returns the first error seen.
func Run[T any](ctx context.Context, s Stream[T]) error {
	_, err := Slice(ctx, s)
	return err
}
