package aggregate

import (
	"github.com/lguimbarda/min-rx/flow/core"
)

// Numeric is a constraint for numeric types that support arithmetic operations.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Aggregate folds every value into a running state and emits the state
// after each value. The initial state is not emitted. A panic in fold is
// emitted as an Error envelope and leaves the state unchanged. Errors and
// Completed pass through without touching the state.
func Aggregate[T, S any](initial S, fold func(state S, item T) S) core.Transformer[T, S] {
	return core.TransformerFunc[T, S](func(s core.Stream[T]) core.Stream[S] {
		node := core.NewNode[S]("aggregate")
		state := initial
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(core.Retype[S](res))
				return
			}
			item := res.Value()
			next, err := core.Recover(func() (S, error) { return fold(state, item), nil })
			if err != nil {
				node.Push(core.Err[S](err))
				return
			}
			state = next
			node.Push(core.Ok(state))
		})
		return node
	})
}

// Sum emits the running total of the values seen so far.
func Sum[T Numeric]() core.Transformer[T, T] {
	return Aggregate[T, T](0, func(acc, item T) T { return acc + item })
}

// Count emits the running number of values seen so far.
func Count[T any]() core.Transformer[T, int] {
	return Aggregate[T, int](0, func(acc int, _ T) int { return acc + 1 })
}

// Fold accumulates every value and emits only the final state, right before
// Completed. An empty stream emits initial.
func Fold[T, R any](initial R, folder func(acc R, item T) R) core.Transformer[T, R] {
	return core.TransformerFunc[T, R](func(s core.Stream[T]) core.Stream[R] {
		node := core.NewNode[R]("fold")
		acc := initial
		core.Attach(node, s, func(res core.Result[T]) {
			switch res.Kind() {
			case core.KindValue:
				item := res.Value()
				next, err := core.Recover(func() (R, error) { return folder(acc, item), nil })
				if err != nil {
					node.Push(core.Err[R](err))
					return
				}
				acc = next
			case core.KindError:
				node.Push(core.Retype[R](res))
			case core.KindCompleted:
				node.Push(core.Ok(acc))
				node.Push(core.Retype[R](res))
			}
		})
		return node
	})
}

// Reduce combines values pairwise, starting from the first value, and emits
// the result before Completed. An empty stream emits nothing.
func Reduce[T any](reducer func(acc, item T) T) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("reduce")
		var acc T
		hasValue := false
		core.Attach(node, s, func(res core.Result[T]) {
			switch res.Kind() {
			case core.KindValue:
				item := res.Value()
				if !hasValue {
					acc, hasValue = item, true
					return
				}
				next, err := core.Recover(func() (T, error) { return reducer(acc, item), nil })
				if err != nil {
					node.Push(core.Err[T](err))
					return
				}
				acc = next
			case core.KindError:
				node.Push(res)
			case core.KindCompleted:
				if hasValue {
					node.Push(core.Ok(acc))
				}
				node.Push(res)
			}
		})
		return node
	})
}

// Average emits the mean of all values before Completed. If the stream is
// empty, emits 0.
func Average[T Numeric]() core.Transformer[T, float64] {
	mean := Fold(meanAcc{}, func(a meanAcc, item T) meanAcc {
		return meanAcc{sum: a.sum + float64(item), count: a.count + 1}
	})
	return core.TransformerFunc[T, float64](func(s core.Stream[T]) core.Stream[float64] {
		return core.Map(func(a meanAcc) (float64, error) {
			if a.count == 0 {
				return 0, nil
			}
			return a.sum / float64(a.count), nil
		}).Apply(mean.Apply(s))
	})
}

type meanAcc struct {
	sum   float64
	count int
}
