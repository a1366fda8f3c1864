// Package parallel provides the sequencing stages, which run an
// asynchronous producer for every value: Sequential keeps input order,
// Concurrent emits in completion order.
package parallel

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"
	"go.uber.org/ratelimit"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Producer computes the output for one value. It runs off the caller's
// goroutine; ctx is the context the stage was started with.
type Producer[IN, OUT any] func(ctx context.Context, in IN) (OUT, error)

// Config holds defaults for sequencing stages, read from the start context
// with core.GetConfig. Options given to a stage take precedence.
type Config struct {
	// Workers bounds in-flight producers of Concurrent stages. 0 is unbounded.
	Workers int
	// RatePerSecond limits how often producers are invoked. 0 is unlimited.
	RatePerSecond int
}

type options struct {
	workers       int
	rate          int
	drainComplete bool
}

// Option configures a sequencing stage.
type Option func(*options)

// WithWorkers bounds the number of producers a Concurrent stage runs at
// once. Values are queued in a worker pool beyond that.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithRateLimit caps producer invocations at perSecond.
func WithRateLimit(perSecond int) Option {
	return func(o *options) {
		o.rate = perSecond
	}
}

// DrainBeforeComplete holds the parent's Completed back until every value
// received before it has been produced and emitted. Without it Completed is
// forwarded immediately, ahead of outstanding work.
func DrainBeforeComplete() Option {
	return func(o *options) {
		o.drainComplete = true
	}
}

// resolve merges context config with explicit options.
func resolve(ctx context.Context, opts []Option) options {
	var o options
	if cfg, ok := core.GetConfig[*Config](ctx); ok && cfg != nil {
		o.workers = cfg.Workers
		o.rate = cfg.RatePerSecond
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// limiter returns a function that blocks until the next invocation is allowed.
func (o options) limiter() func() {
	if o.rate <= 0 {
		return func() {}
	}
	rl := ratelimit.New(o.rate)
	return func() { rl.Take() }
}

// produceOne runs produce as a Future, recovering panics.
func produceOne[IN, OUT any](ctx context.Context, produce Producer[IN, OUT], in IN) *core.Future[OUT] {
	return core.Go(ctx, func(ctx context.Context) (OUT, error) {
		return produce(ctx, in)
	})
}

// Sequential queues incoming values in a FIFO and produces them one at a
// time: the drain loop awaits each producer before dequeuing the next value,
// so output order matches input order. Errors and Completed from the parent
// are forwarded immediately unless DrainBeforeComplete is set.
func Sequential[IN, OUT any](produce Producer[IN, OUT], opts ...Option) core.Transformer[IN, OUT] {
	return core.TransformerFunc[IN, OUT](func(s core.Stream[IN]) core.Stream[OUT] {
		node := core.NewNode[OUT]("sequential")
		node.SetStart(func(ctx context.Context) {
			o := resolve(ctx, opts)
			wait := o.limiter()
			ser := core.NewSerializer(ctx)

			var (
				mu       sync.Mutex
				queue    []core.Result[IN]
				draining bool
			)

			drain := func() {
				for {
					mu.Lock()
					if len(queue) == 0 {
						draining = false
						mu.Unlock()
						return
					}
					next := queue[0]
					queue = queue[1:]
					mu.Unlock()

					var out core.Result[OUT]
					if next.IsValue() {
						wait()
						out = produceOne(ctx, produce, next.Value()).Result()
					} else {
						out = core.Retype[OUT](next)
					}
					ser.Do(func() { node.Push(out) })
				}
			}

			node.Track(s.Subscribe(func(res core.Result[IN]) {
				if !res.IsValue() && !o.drainComplete {
					ser.Do(func() { node.Push(core.Retype[OUT](res)) })
					return
				}
				mu.Lock()
				queue = append(queue, res)
				start := !draining
				draining = true
				mu.Unlock()
				if start {
					go drain()
				}
			}))
			s.Start(ctx)
		})
		return node
	})
}

// Concurrent starts a producer for each value as soon as it arrives and
// emits the outputs in completion order. WithWorkers bounds concurrency
// with a worker pool; the pool is stopped when the stage is closed.
func Concurrent[IN, OUT any](produce Producer[IN, OUT], opts ...Option) core.Transformer[IN, OUT] {
	return core.TransformerFunc[IN, OUT](func(s core.Stream[IN]) core.Stream[OUT] {
		node := core.NewNode[OUT]("concurrent")
		node.SetStart(func(ctx context.Context) {
			o := resolve(ctx, opts)
			wait := o.limiter()
			ser := core.NewSerializer(ctx)

			var (
				mu       sync.Mutex
				inflight int
				held     []core.Result[OUT]
				stopped  bool
			)

			var pool *workerpool.WorkerPool
			if o.workers > 0 {
				pool = workerpool.New(o.workers)
				node.Defer(func() {
					mu.Lock()
					stopped = true
					mu.Unlock()
					pool.Stop()
				})
			}

			finish := func(out core.Result[OUT]) {
				ser.Do(func() { node.Push(out) })
				mu.Lock()
				inflight--
				var release []core.Result[OUT]
				if inflight == 0 {
					release, held = held, nil
				}
				mu.Unlock()
				for _, r := range release {
					ser.Do(func() { node.Push(r) })
				}
			}

			node.Track(s.Subscribe(func(res core.Result[IN]) {
				if !res.IsValue() {
					out := core.Retype[OUT](res)
					if o.drainComplete && res.IsCompleted() {
						mu.Lock()
						if inflight > 0 {
							held = append(held, out)
							mu.Unlock()
							return
						}
						mu.Unlock()
					}
					ser.Do(func() { node.Push(out) })
					return
				}

				in := res.Value()
				if pool != nil {
					// Values arriving after the pool stopped are dropped.
					mu.Lock()
					defer mu.Unlock()
					if stopped {
						return
					}
					inflight++
					fut := core.NewFuture[OUT]()
					pool.Submit(func() {
						wait()
						fut.Resolve(core.Recover(func() (OUT, error) { return produce(ctx, in) }))
						finish(fut.Result())
					})
					return
				}

				mu.Lock()
				inflight++
				mu.Unlock()
				go func() {
					wait()
					finish(produceOne(ctx, produce, in).Result())
				}()
			}))
			s.Start(ctx)
		})
		return node
	})
}
