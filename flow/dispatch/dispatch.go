// Package dispatch provides dispatchers for asynchronous stages.
//
// Buffer timers and async producers emit off the goroutine that drives the
// graph. A dispatcher attached to the start context with With receives those
// emissions instead, so that a composition root can funnel them onto one
// execution context.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gammazero/workerpool"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Dispatcher runs emission work on a chosen execution context.
type Dispatcher = core.Dispatcher

// Inline runs work immediately on the calling goroutine.
var Inline Dispatcher = core.DispatcherFunc(func(fn func()) { fn() })

// With attaches d to ctx. Stages started with the returned context post
// their asynchronous emissions to d.
func With(ctx context.Context, d Dispatcher) context.Context {
	return core.WithDispatcher(ctx, d)
}

// Loop runs dispatched work one function at a time, in submission order, on
// a single worker. The queue is unbounded, so Dispatch never blocks, even
// when called from work running on the loop.
type Loop struct {
	pool    *workerpool.WorkerPool
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

var _ Dispatcher = (*Loop)(nil)

// NewLoop starts a loop.
func NewLoop() *Loop {
	return &Loop{pool: workerpool.New(1)}
}

// Dispatch queues fn. Work dispatched after Close is dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	l.pool.Submit(fn)
}

// Flush waits until everything queued before the call has run. It must not
// be called from work running on the loop.
func (l *Loop) Flush() {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return
	}
	l.pool.SubmitWait(func() {})
}

// Pending returns the number of queued functions not yet started.
func (l *Loop) Pending() int {
	return l.pool.WaitingQueueSize()
}

// Dropped returns how many functions were dispatched after Close.
func (l *Loop) Dropped() int64 {
	return l.dropped.Load()
}

// Close runs the queued work and stops the loop.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.pool.StopWait()
	return nil
}
