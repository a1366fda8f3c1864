package core

import (
	"context"
)

// Emitter produces envelopes for a source stage. It runs once, when the
// stage starts, and pushes synchronously to the listeners attached so far.
// Emitters answer the question: "How is the stream's data produced?".
type Emitter[T any] func(ctx context.Context, push func(Result[T]))

// Emit creates a source stage from an Emitter.
func Emit[T any](emitter func(ctx context.Context, push func(Result[T]))) Stream[T] {
	node := NewNode[T]("source")
	node.SetStart(func(ctx context.Context) {
		emitter(ctx, node.Push)
	})
	return node
}

// FromResults creates a source that emits exactly the given envelopes, in
// order, when started. No Completed is appended.
func FromResults[T any](results ...Result[T]) Stream[T] {
	queued := append([]Result[T](nil), results...)
	return Emit(func(_ context.Context, push func(Result[T])) {
		for _, res := range queued {
			push(res)
		}
	})
}

// FromValues creates a source that emits each value followed by Completed.
func FromValues[T any](values ...T) Stream[T] {
	queued := append([]T(nil), values...)
	return Emit(func(_ context.Context, push func(Result[T])) {
		for _, v := range queued {
			push(Ok(v))
		}
		push(Completed[T]())
	})
}
