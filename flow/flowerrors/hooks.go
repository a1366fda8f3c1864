package flowerrors

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/lguimbarda/min-rx/flow/core"
)

// The hooks below observe errors without touching the data flow. They see
// every Error emitted by any stage of element type T started with the
// returned context.

// ErrorCounter counts errors that match a predicate.
type ErrorCounter struct {
	predicate func(error) bool
	count     atomic.Int64
}

// Count returns the number of errors counted.
func (c *ErrorCounter) Count() int64 {
	return c.count.Load()
}

// WithErrorCounter attaches an error counting hook for type T and returns the counter.
// If predicate is nil, all errors are counted.
func WithErrorCounter[T any](ctx context.Context, predicate func(error) bool) (context.Context, *ErrorCounter) {
	if predicate == nil {
		predicate = func(error) bool { return true }
	}
	counter := &ErrorCounter{predicate: predicate}
	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnError: func(err error) {
			if counter.predicate(err) {
				counter.count.Add(1)
			}
		},
	})
	return ctx, counter
}

// ErrorCollector collects errors for later inspection.
type ErrorCollector struct {
	mu        sync.Mutex
	errors    []error
	predicate func(error) bool
	maxErrors int // 0 = unlimited
}

// ErrorCollectorOption configures an ErrorCollector.
type ErrorCollectorOption func(*ErrorCollector)

// WithPredicate filters which errors to collect.
func WithPredicate(predicate func(error) bool) ErrorCollectorOption {
	return func(c *ErrorCollector) {
		c.predicate = predicate
	}
}

// WithMaxErrors limits the number of errors to collect.
func WithMaxErrors(max int) ErrorCollectorOption {
	return func(c *ErrorCollector) {
		c.maxErrors = max
	}
}

func (c *ErrorCollector) add(err error) {
	if !c.predicate(err) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxErrors > 0 && len(c.errors) >= c.maxErrors {
		return
	}
	c.errors = append(c.errors, err)
}

// Errors returns a copy of all collected errors.
func (c *ErrorCollector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// Count returns the number of collected errors.
func (c *ErrorCollector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Err joins the collected errors with errors.Join. It is nil when nothing
// was collected.
func (c *ErrorCollector) Err() error {
	return errors.Join(c.Errors()...)
}

// WithErrorCollector attaches an error collecting hook for type T and returns the collector.
func WithErrorCollector[T any](ctx context.Context, opts ...ErrorCollectorOption) (context.Context, *ErrorCollector) {
	collector := &ErrorCollector{
		predicate: func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(collector)
	}
	return core.WithHooks(ctx, core.Hooks[T]{OnError: collector.add}), collector
}

// OnErrorDo attaches an error handler hook for type T.
func OnErrorDo[T any](ctx context.Context, handler func(error)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnError: handler,
	})
}
