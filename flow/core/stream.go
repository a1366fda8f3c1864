// Package core defines the core abstractions for push-based data flow:
// the Result envelope, streams (stages) and their listener registries,
// transformers, hooks, and the rebinding protocol shared by property
// adapters and bindings.
//
// NOTE: this package should have no dependencies outside the standard
// library and github.com/google/uuid, including other flow packages.
package core

import (
	"context"
)

// Listener receives every envelope a stream pushes, in emission order.
type Listener[T any] func(Result[T])

// Subscription detaches a listener or a change-notification callback.
// Unsubscribe is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// Stream is one stage of a dataflow graph. Data flows downstream through
// listeners; the decision to start producing flows upstream through Start.
// A stage starts its parents before it can emit, so by the time anything is
// produced every stage above it is already listening.
// Stream answers the question: "Where do the envelopes come from?".
type Stream[T any] interface {
	// ID identifies the stage in logs and hooks.
	ID() string

	// Subscribe attaches a listener. Listeners attached after an envelope
	// was emitted do not receive it.
	Subscribe(Listener[T]) Subscription

	// Start begins production. Repeated calls are no-ops.
	Start(context.Context)
	Started() bool

	OnResult(func(T)) Stream[T]
	OnError(func(error)) Stream[T]
	OnCompleted(func()) Stream[T]
}

// Transformer builds a stage of type OUT on top of a Stream of type IN.
// Transformers can be composed to build complex pipelines.
// They answer the question: "What operations are applied to the stream's data?".
type Transformer[IN, OUT any] interface {
	Apply(Stream[IN]) Stream[OUT]
}

// TransformerFunc adapts a plain function to Transformer.
type TransformerFunc[IN, OUT any] func(Stream[IN]) Stream[OUT]

func (f TransformerFunc[IN, OUT]) Apply(s Stream[IN]) Stream[OUT] {
	return f(s)
}
