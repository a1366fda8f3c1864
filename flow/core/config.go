package core

import (
	"context"
)

// configKey is a typed context key for config injection.
// Each config type gets its own unique key.
type configKey[C any] struct{}

// WithConfig attaches a configuration value to the context.
// The config is keyed by its type, so only one instance of each config type
// can be stored. Later calls with the same type will override earlier ones.
// Stages read their config when they start.
//
// Example:
//
//	ctx := core.WithConfig(ctx, &timing.Config{Window: time.Second})
func WithConfig[C any](ctx context.Context, cfg C) context.Context {
	return context.WithValue(ctx, configKey[C]{}, cfg)
}

// GetConfig retrieves a configuration of type C from the context.
// Returns the config and true if found, or zero value and false if not present.
func GetConfig[C any](ctx context.Context) (C, bool) {
	if ctx == nil {
		return *new(C), false
	}
	if cfg, ok := ctx.Value(configKey[C]{}).(C); ok {
		return cfg, true
	}
	return *new(C), false
}

// Dispatcher runs work on a context chosen by the environment, typically a
// single goroutine that owns the graph. Stages that produce envelopes off
// the caller's goroutine (timers, async producers) post their emissions
// through the dispatcher found in their start context.
type Dispatcher interface {
	Dispatch(func())
}

// DispatcherFunc adapts a plain function to Dispatcher.
type DispatcherFunc func(func())

func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

type dispatcherKey struct{}

// WithDispatcher attaches a dispatcher to the context.
func WithDispatcher(ctx context.Context, d Dispatcher) context.Context {
	return context.WithValue(ctx, dispatcherKey{}, d)
}

// GetDispatcher returns the dispatcher attached to ctx, if any.
func GetDispatcher(ctx context.Context) (Dispatcher, bool) {
	if ctx == nil {
		return nil, false
	}
	d, ok := ctx.Value(dispatcherKey{}).(Dispatcher)
	return d, ok && d != nil
}
