package flow

import (
	"context"
	"iter"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Fixed sources queue their envelopes at construction and emit all of them,
// followed by Completed, when started. Listeners attached after Start see
// nothing from the batch.

// FromSlice creates a Stream that emits each element from the given slice.
// The slice is copied, so later changes to items are not observed.
func FromSlice[T any](items []T) Stream[T] {
	return core.FromValues(items...)
}

// FromValues creates a Stream that emits the given values.
func FromValues[T any](values ...T) Stream[T] {
	return core.FromValues(values...)
}

// FromResults creates a Stream that emits exactly the given envelopes.
// Unlike the other fixed sources it does not append Completed.
func FromResults[T any](results ...Result[T]) Stream[T] {
	return core.FromResults(results...)
}

// Just creates a Stream that emits a single value and then completes.
func Just[T any](value T) Stream[T] {
	return core.FromValues(value)
}

// Empty creates a Stream that emits no values and completes immediately.
func Empty[T any]() Stream[T] {
	return core.FromValues[T]()
}

// FromError creates a Stream that emits an error and completes.
func FromError[T any](err error) Stream[T] {
	return core.FromResults(core.Err[T](err), core.Completed[T]())
}

// Range creates a Stream that emits integers from start (inclusive) to end (exclusive).
// If start >= end, an empty stream is returned.
func Range(start, end int) Stream[int] {
	return Emit(func(_ context.Context, push func(Result[int])) {
		for i := start; i < end; i++ {
			push(Ok(i))
		}
		push(Completed[int]())
	})
}

// Repeat creates a Stream that emits the same value n times.
// A negative n is treated as zero: sources run synchronously on Start and
// cannot be infinite.
func Repeat[T any](value T, n int) Stream[T] {
	return Emit(func(_ context.Context, push func(Result[T])) {
		for i := 0; i < n; i++ {
			push(Ok(value))
		}
		push(Completed[T]())
	})
}

// FromIter creates a Stream from an iterator sequence. The sequence is
// consumed on Start. The stream completes when the iterator is exhausted.
func FromIter[T any](seq iter.Seq[T]) Stream[T] {
	return Emit(func(_ context.Context, push func(Result[T])) {
		for v := range seq {
			push(Ok(v))
		}
		push(Completed[T]())
	})
}

// Generate creates a Stream that calls fn until it reports false. An error
// from fn is emitted as an Error envelope and generation continues.
func Generate[T any](fn func() (T, bool, error)) Stream[T] {
	return Emit(func(_ context.Context, push func(Result[T])) {
		for {
			v, more, err := generateOne(fn)
			if err != nil {
				push(Err[T](err))
			} else if more {
				push(Ok(v))
			}
			if !more {
				break
			}
		}
		push(Completed[T]())
	})
}

func generateOne[T any](fn func() (T, bool, error)) (v T, more bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, more, err = zero, false, core.NewPanicError(r)
		}
	}()
	return fn()
}

// Defer creates a Stream whose parent is built by factory on the first
// Start only. This allows late binding of the stream to be produced.
func Defer[T any](factory func() Stream[T]) Stream[T] {
	node := core.NewNode[T]("defer")
	node.SetStart(func(ctx context.Context) {
		parent, err := core.Recover(func() (Stream[T], error) { return factory(), nil })
		if err != nil {
			node.Push(Err[T](err))
			node.Push(Completed[T]())
			return
		}
		node.Track(parent.Subscribe(node.Push))
		parent.Start(ctx)
	})
	return node
}

// NewSubject creates an externally fed source.
func NewSubject[T any]() *Subject[T] {
	return core.NewSubject[T]()
}
