package filter

import (
	"context"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Take creates a Transformer that passes through only the first n values.
// After n values have been emitted the stage emits Completed and detaches
// from its parent. If n <= 0 the stage completes as soon as it starts,
// without starting its parent.
func Take[T any](n int) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("take")
		if n <= 0 {
			node.SetStart(func(context.Context) {
				node.Push(core.Completed[T]())
			})
			return node
		}

		count := 0
		done := false
		core.Attach(node, s, func(res core.Result[T]) {
			if done {
				return
			}
			if res.IsCompleted() {
				done = true
				node.Push(res)
				return
			}
			node.Push(res)
			// Only count values, not errors
			if res.IsValue() {
				count++
				if count >= n {
					done = true
					node.Push(core.Completed[T]())
					_ = node.Close()
				}
			}
		})
		return node
	})
}

// TakeWhile passes values through while predicate holds. The first value
// that fails it completes the stage. A panic in predicate is emitted as an
// Error envelope and does not complete the stage.
func TakeWhile[T any](predicate func(T) bool) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("takewhile")
		done := false
		core.Attach(node, s, func(res core.Result[T]) {
			if done {
				return
			}
			if !res.IsValue() {
				done = res.IsCompleted()
				node.Push(res)
				return
			}
			v := res.Value()
			ok, err := core.Recover(func() (bool, error) { return predicate(v), nil })
			switch {
			case err != nil:
				node.Push(core.Err[T](err))
			case ok:
				node.Push(res)
			default:
				done = true
				node.Push(core.Completed[T]())
				_ = node.Close()
			}
		})
		return node
	})
}

// Skip creates a Transformer that skips the first n values, then passes
// through the rest. If n <= 0, all values are passed through.
func Skip[T any](n int) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("skip")
		skipped := 0
		core.Attach(node, s, func(res core.Result[T]) {
			if res.IsValue() && skipped < n {
				skipped++
				return
			}
			node.Push(res)
		})
		return node
	})
}

// SkipWhile skips values while predicate holds. Once it fails, that value
// and every later one pass through.
func SkipWhile[T any](predicate func(T) bool) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("skipwhile")
		skipping := true
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() || !skipping {
				node.Push(res)
				return
			}
			v := res.Value()
			skip, err := core.Recover(func() (bool, error) { return predicate(v), nil })
			if err != nil {
				node.Push(core.Err[T](err))
				return
			}
			if !skip {
				skipping = false
				node.Push(res)
			}
		})
		return node
	})
}

// TakeUntil passes envelopes through until notifier emits its first value,
// then completes. The notifier is started together with the stage.
func TakeUntil[T, N any](notifier core.Stream[N]) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("takeuntil")
		done := false
		finish := func() {
			if done {
				return
			}
			done = true
			node.Push(core.Completed[T]())
			_ = node.Close()
		}
		node.SetStart(func(ctx context.Context) {
			node.Track(notifier.Subscribe(func(res core.Result[N]) {
				if res.IsValue() {
					finish()
				}
			}))
			node.Track(s.Subscribe(func(res core.Result[T]) {
				if done {
					return
				}
				if res.IsCompleted() {
					finish()
					return
				}
				node.Push(res)
			}))
			notifier.Start(ctx)
			if !done {
				s.Start(ctx)
			}
		})
		return node
	})
}
