// Package flow provides a push-based reactive dataflow engine: stages that
// forward value, error and completion envelopes to their listeners, wired
// into a graph whose production starts lazily from the leaves.
//
// This package is the primary user-facing API. Most users should only
// need to import this package and the operator families they use. The
// flow/core subpackage contains the low-level abstractions.
package flow

import (
	"context"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Type aliases for core stream abstractions.
// These allow users to work with the framework without importing core directly.
type (
	// Result represents one envelope travelling through the graph.
	// It exists in one of three states: Value, Error, or Completed.
	Result[T any] = core.Result[T]

	// Stream is one stage of the graph.
	Stream[T any] = core.Stream[T]

	// Listener receives every envelope a stream pushes.
	Listener[T any] = core.Listener[T]

	// Subscription detaches a listener.
	Subscription = core.Subscription

	// Transformer builds a stage of type OUT on top of a Stream of type IN.
	Transformer[IN, OUT any] = core.Transformer[IN, OUT]

	// Mapper transforms individual items (1:1 cardinality) and implements Transformer.
	Mapper[IN, OUT any] = core.Mapper[IN, OUT]

	// FlatMapper transforms individual items (1:N cardinality) and implements Transformer.
	FlatMapper[IN, OUT any] = core.FlatMapper[IN, OUT]

	// Subject is an externally fed source.
	Subject[T any] = core.Subject[T]

	// Hooks are typed observation callbacks attached through the context.
	Hooks[T any] = core.Hooks[T]

	// ErrPanic is the error a recovered panic is converted into.
	ErrPanic = core.ErrPanic
)

var (
	// ErrCompleted is returned when pushing into a completed Subject.
	ErrCompleted = core.ErrCompleted
	// ErrEmpty is returned by First on a stream without values.
	ErrEmpty = core.ErrEmpty
)

// Result constructors - wrappers around core functions.

// Ok creates a Value envelope.
func Ok[T any](value T) Result[T] {
	return core.Ok(value)
}

// Err creates an Error envelope.
func Err[T any](err error) Result[T] {
	return core.Err[T](err)
}

// Completed creates the end-of-stream envelope.
func Completed[T any]() Result[T] {
	return core.Completed[T]()
}

// Mapper/FlatMapper constructors.

// Map creates a Mapper from a simple transformation function.
func Map[IN, OUT any](mapFunc func(IN) (OUT, error)) Mapper[IN, OUT] {
	return core.Map(mapFunc)
}

// FlatMap creates a FlatMapper from a function returning a slice.
func FlatMap[IN, OUT any](flatMapFunc func(IN) ([]OUT, error)) FlatMapper[IN, OUT] {
	return core.FlatMap(flatMapFunc)
}

// MapErr rewrites the errors of Error envelopes.
func MapErr[T any](fn func(error) error) core.ErrorMapper[T] {
	return core.MapErr[T](fn)
}

// WithHooks attaches typed hooks to ctx. Stages started with the returned
// context invoke them.
func WithHooks[T any](ctx context.Context, hooks Hooks[T]) context.Context {
	return core.WithHooks(ctx, hooks)
}

// Terminal operations.

// Slice starts the stream and collects its values until Completed.
func Slice[T any](ctx context.Context, in Stream[T]) ([]T, error) {
	return core.Slice(ctx, in)
}

// First returns the first value from the stream.
func First[T any](ctx context.Context, in Stream[T]) (T, error) {
	return core.First(ctx, in)
}

// Run drives the stream until Completed for side effects only.
func Run[T any](ctx context.Context, in Stream[T]) error {
	return core.Run(ctx, in)
}

// Collect gathers all envelopes (including errors) up to Completed.
func Collect[T any](ctx context.Context, stream Stream[T]) []Result[T] {
	return core.Collect(ctx, stream)
}

// Emit creates a source stage from a push function run on Start.
func Emit[T any](emitter func(ctx context.Context, push func(Result[T]))) Stream[T] {
	return core.Emit(emitter)
}
