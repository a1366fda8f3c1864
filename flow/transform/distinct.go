// Package transform provides one-parent stages that reshape a stream
// without aggregating it.
package transform

import (
	"github.com/lguimbarda/min-rx/flow/core"
)

// Distinct suppresses consecutive duplicates. The stage remembers the last
// value it emitted, starting from the zero value of T, and emits a value
// only when equals(value, previous) is false. A panic in equals is emitted
// as an Error envelope. Errors and Completed pass through; Completed does
// not reset the remembered value.
func Distinct[T any](equals func(a, b T) bool) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("distinct")
		var previous T
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(res)
				return
			}
			v := res.Value()
			same, err := core.Recover(func() (bool, error) { return equals(v, previous), nil })
			if err != nil {
				node.Push(core.Err[T](err))
				return
			}
			if same {
				return
			}
			previous = v
			node.Push(res)
		})
		return node
	})
}

// DistinctComparable is Distinct with ==.
func DistinctComparable[T comparable]() core.Transformer[T, T] {
	return Distinct(func(a, b T) bool { return a == b })
}

// Unique only emits values that haven't been seen before, over the whole
// stream. The set of seen values grows without bound.
func Unique[T comparable]() core.Transformer[T, T] {
	return UniqueBy(func(v T) T { return v })
}

// UniqueBy only emits values whose key, derived by keyFn, hasn't been seen
// before.
func UniqueBy[T any, K comparable](keyFn func(T) K) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("unique")
		seen := make(map[K]struct{})
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(res)
				return
			}
			v := res.Value()
			key, err := core.Recover(func() (K, error) { return keyFn(v), nil })
			if err != nil {
				node.Push(core.Err[T](err))
				return
			}
			if _, exists := seen[key]; exists {
				return
			}
			seen[key] = struct{}{}
			node.Push(res)
		})
		return node
	})
}
