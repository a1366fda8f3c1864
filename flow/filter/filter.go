// Package filter provides stages that decide which values continue
// downstream.
package filter

import (
	"github.com/lguimbarda/min-rx/flow/core"
)

// Filter creates a Transformer that only passes through items matching the predicate.
// Items that don't match are silently dropped. Errors and Completed are passed
// through unchanged. A panic in predicate is emitted as an Error envelope.
func Filter[T any](predicate func(T) bool) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("filter")
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(res)
				return
			}
			v := res.Value()
			keep, err := core.Recover(func() (bool, error) { return predicate(v), nil })
			if err != nil {
				node.Push(core.Err[T](err))
				return
			}
			if keep {
				node.Push(res)
			}
		})
		return node
	})
}

// Where is an alias of Filter.
func Where[T any](predicate func(T) bool) core.Transformer[T, T] {
	return Filter(predicate)
}

// MapWhere creates a Transformer that both filters and maps in a single pass.
// The function returns (value, true) to include the transformed value,
// or (_, false) to filter out the item. Errors in the input are passed through.
func MapWhere[IN, OUT any](fn func(IN) (OUT, bool)) core.Transformer[IN, OUT] {
	return core.TransformerFunc[IN, OUT](func(s core.Stream[IN]) core.Stream[OUT] {
		node := core.NewNode[OUT]("mapwhere")
		core.Attach(node, s, func(res core.Result[IN]) {
			if !res.IsValue() {
				node.Push(core.Retype[OUT](res))
				return
			}
			in := res.Value()
			out, err := core.Recover(func() (kept[OUT], error) {
				v, ok := fn(in)
				return kept[OUT]{v, ok}, nil
			})
			if err != nil {
				node.Push(core.Err[OUT](err))
				return
			}
			if out.ok {
				node.Push(core.Ok(out.value))
			}
		})
		return node
	})
}

type kept[V any] struct {
	value V
	ok    bool
}

// Exclude drops the values matching predicate. It is the inverse of Filter.
func Exclude[T any](predicate func(T) bool) core.Transformer[T, T] {
	return Filter(func(v T) bool { return !predicate(v) })
}
