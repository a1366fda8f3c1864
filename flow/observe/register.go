package observe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/lguimbarda/min-rx/flow/core"
)

// This file provides convenience functions for creating typed hooks-based observers.
// Hooks are keyed by element type, so observers must be registered with the
// type of the stages they want to observe. Every stage of that type started
// with the returned context reports to them.
//
// Usage pattern:
//
//	ctx := observe.WithValueHook(ctx, func(v int) { fmt.Println("Value:", v) })
//	ctx = observe.WithErrorHook[int](ctx, func(err error) { log.Println(err) })
//	stream.Start(ctx)

// WithValueHook attaches a value observation hook for type T to the context.
// The callback fires for each value a stage emits.
func WithValueHook[T any](ctx context.Context, callback func(T)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnValue: callback,
	})
}

// WithErrorHook attaches an error observation hook for type T to the context.
func WithErrorHook[T any](ctx context.Context, callback func(error)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnError: callback,
	})
}

// WithStartHook attaches a stage start hook for type T to the context.
// The callback receives the stage id.
func WithStartHook[T any](ctx context.Context, callback func(stage string)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: callback,
	})
}

// WithCompleteHook attaches a completion hook for type T to the context.
func WithCompleteHook[T any](ctx context.Context, callback func()) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnComplete: callback,
	})
}

// Counter provides thread-safe counting of envelopes.
type Counter struct {
	starts    atomic.Int64
	values    atomic.Int64
	errors    atomic.Int64
	completed atomic.Int64
}

// Starts returns the number of stages started.
func (c *Counter) Starts() int64 { return c.starts.Load() }

// Values returns the count of values emitted.
func (c *Counter) Values() int64 { return c.values.Load() }

// Errors returns the count of errors emitted.
func (c *Counter) Errors() int64 { return c.errors.Load() }

// Completed returns the count of Completed envelopes emitted.
func (c *Counter) Completed() int64 { return c.completed.Load() }

// Total returns the total count of values and errors.
func (c *Counter) Total() int64 { return c.values.Load() + c.errors.Load() }

// WithCounter attaches counting hooks for type T and returns the counter for querying.
// Every stage of type T counts its own emissions, so a value that flows
// through three stages is counted three times.
func WithCounter[T any](ctx context.Context) (context.Context, *Counter) {
	counter := &Counter{}
	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnStart:    func(string) { counter.starts.Add(1) },
		OnValue:    func(T) { counter.values.Add(1) },
		OnError:    func(error) { counter.errors.Add(1) },
		OnComplete: func() { counter.completed.Add(1) },
	})
	return ctx, counter
}

// ErrorCollector collects all errors encountered in streams.
type ErrorCollector struct {
	mu     sync.Mutex
	errors []error
}

// Errors returns a copy of all collected errors.
func (c *ErrorCollector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// HasErrors returns true if any errors were collected.
func (c *ErrorCollector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

// Count returns the number of collected errors.
func (c *ErrorCollector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// WithErrorCollector attaches an error collecting hook for type T and returns the collector.
func WithErrorCollector[T any](ctx context.Context) (context.Context, *ErrorCollector) {
	collector := &ErrorCollector{}
	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnError: func(err error) {
			collector.mu.Lock()
			collector.errors = append(collector.errors, err)
			collector.mu.Unlock()
		},
	})
	return ctx, collector
}

// WithLogging attaches logging hooks for type T. Starts are logged at info
// level with the stage id, values at debug, errors at warn and completion
// at debug.
func WithLogging[T any](ctx context.Context, logger logrus.FieldLogger) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: func(stage string) {
			logger.WithField("stage", stage).Info("stage started")
		},
		OnValue: func(v T) {
			logger.WithField("value", v).Debug("value")
		},
		OnError: func(err error) {
			logger.WithError(err).Warn("error")
		},
		OnComplete: func() {
			logger.Debug("completed")
		},
	})
}
