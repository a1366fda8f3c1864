// Package timing provides stages driven by timers: time-windowed buffering,
// debouncing and throttling.
package timing

import (
	"context"
	"sync"
	"time"

	"github.com/lguimbarda/min-rx/flow/core"
)

// TimingConfig provides configuration for timing transformers.
type TimingConfig struct {
	// Window is the default window for Buffer and Debounce.
	// A value of 0 or negative falls back to DefaultWindow.
	Window time.Duration
}

// DefaultWindow is used when neither the stage nor the context config
// provides a window.
const DefaultWindow = 100 * time.Millisecond

// WithWindow returns a functional option that sets the window.
func WithWindow(d time.Duration) func(*TimingConfig) {
	return func(c *TimingConfig) {
		c.Window = d
	}
}

// NewConfig builds a TimingConfig from options, ready for core.WithConfig.
func NewConfig(opts ...func(*TimingConfig)) *TimingConfig {
	cfg := &TimingConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// effectiveWindow returns the window to use, considering
// context config and the explicitly provided value.
// If window > 0, it takes precedence. Otherwise, config from context is used.
func effectiveWindow(ctx context.Context, window time.Duration) time.Duration {
	if window > 0 {
		return window
	}
	if cfg, ok := core.GetConfig[*TimingConfig](ctx); ok && cfg.Window > 0 {
		return cfg.Window
	}
	return DefaultWindow
}

// Buffer collects values over a window and emits batch(pending) when it
// elapses. The window opens with the first value received while the stage is
// idle, and the stage goes idle again after each flush: a quiet stream emits
// nothing, and the next value starts a fresh window rather than waiting for a
// periodic tick. Errors and Completed pass through at once and do not flush
// the pending values.
//
// The flush runs on a timer goroutine. The pending list is guarded by the
// stage, and every emission goes through the Dispatcher found in the start
// context, or is serialized by the stage when there is none. A panic in
// batch is emitted as an Error envelope.
func Buffer[T, R any](window time.Duration, batch func(items []T) R) core.Transformer[T, R] {
	return core.TransformerFunc[T, R](func(s core.Stream[T]) core.Stream[R] {
		node := core.NewNode[R]("buffer")
		node.SetStart(func(ctx context.Context) {
			d := effectiveWindow(ctx, window)
			ser := core.NewSerializer(ctx)

			var (
				mu      sync.Mutex
				pending []T
				timer   *time.Timer
				closed  bool
			)

			flush := func() {
				ser.Do(func() {
					mu.Lock()
					items := pending
					pending = nil
					timer = nil
					mu.Unlock()

					out, err := core.Recover(func() (R, error) { return batch(items), nil })
					if err != nil {
						node.Push(core.Err[R](err))
						return
					}
					node.Push(core.Ok(out))
				})
			}

			node.Defer(func() {
				mu.Lock()
				defer mu.Unlock()
				closed = true
				if timer != nil {
					timer.Stop()
				}
			})

			node.Track(s.Subscribe(func(res core.Result[T]) {
				if !res.IsValue() {
					ser.Do(func() { node.Push(core.Retype[R](res)) })
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if closed {
					return
				}
				pending = append(pending, res.Value())
				if timer == nil {
					timer = time.AfterFunc(d, flush)
				}
			}))
			s.Start(ctx)
		})
		return node
	})
}

// BufferSlice is Buffer with a batch function that returns the items.
func BufferSlice[T any](window time.Duration) core.Transformer[T, []T] {
	return Buffer(window, func(items []T) []T { return items })
}

// Debounce creates a Transformer that only emits a value after window has
// passed without another value arriving. Useful for handling bursts of
// events where only the last one matters. Errors and Completed pass
// through at once; Completed drops a pending value.
func Debounce[T any](window time.Duration) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("debounce")
		node.SetStart(func(ctx context.Context) {
			d := effectiveWindow(ctx, window)
			ser := core.NewSerializer(ctx)

			var (
				mu      sync.Mutex
				timer   *time.Timer
				latest  T
				version uint64
			)

			node.Defer(func() {
				mu.Lock()
				defer mu.Unlock()
				if timer != nil {
					timer.Stop()
				}
			})

			node.Track(s.Subscribe(func(res core.Result[T]) {
				if !res.IsValue() {
					mu.Lock()
					if timer != nil && res.IsCompleted() {
						timer.Stop()
						version++
					}
					mu.Unlock()
					ser.Do(func() { node.Push(res) })
					return
				}

				mu.Lock()
				defer mu.Unlock()
				latest = res.Value()
				version++
				v := version
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(d, func() {
					mu.Lock()
					if v != version {
						mu.Unlock()
						return
					}
					value := latest
					timer = nil
					mu.Unlock()
					ser.Do(func() { node.Push(core.Ok(value)) })
				})
			}))
			s.Start(ctx)
		})
		return node
	})
}
