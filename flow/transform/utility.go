package transform

import (
	"context"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Pairwise emits pairs of consecutive values. Each emission (except for the
// first value) holds the previous and the current value.
func Pairwise[T any]() core.Transformer[T, [2]T] {
	return core.TransformerFunc[T, [2]T](func(s core.Stream[T]) core.Stream[[2]T] {
		node := core.NewNode[[2]T]("pairwise")
		var prev T
		hasPrev := false
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(core.Retype[[2]T](res))
				return
			}
			curr := res.Value()
			if hasPrev {
				node.Push(core.Ok([2]T{prev, curr}))
			}
			prev, hasPrev = curr, true
		})
		return node
	})
}

// StartWith emits values as soon as the stage starts, before its parent is
// started.
func StartWith[T any](values ...T) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("startwith")
		node.SetStart(func(ctx context.Context) {
			for _, v := range values {
				node.Push(core.Ok(v))
			}
			node.Track(s.Subscribe(node.Push))
			s.Start(ctx)
		})
		return node
	})
}

// EndWith emits values right before the parent's Completed.
func EndWith[T any](values ...T) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("endwith")
		core.Attach(node, s, func(res core.Result[T]) {
			if res.IsCompleted() {
				for _, v := range values {
					node.Push(core.Ok(v))
				}
			}
			node.Push(res)
		})
		return node
	})
}

// DefaultIfEmpty emits defaultValue before Completed if the parent
// completes without emitting any value.
func DefaultIfEmpty[T any](defaultValue T) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("defaultifempty")
		hasEmitted := false
		core.Attach(node, s, func(res core.Result[T]) {
			switch {
			case res.IsValue():
				hasEmitted = true
			case res.IsCompleted() && !hasEmitted:
				node.Push(core.Ok(defaultValue))
			}
			node.Push(res)
		})
		return node
	})
}

// IgnoreElements drops every value, keeping only errors and Completed.
func IgnoreElements[T any]() core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("ignore")
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(res)
			}
		})
		return node
	})
}

// Indexed pairs a value with its 0-based position among the stream's values.
type Indexed[T any] struct {
	Index int
	Value T
}

// WithIndex wraps each value with its index.
func WithIndex[T any]() core.Transformer[T, Indexed[T]] {
	return core.TransformerFunc[T, Indexed[T]](func(s core.Stream[T]) core.Stream[Indexed[T]] {
		node := core.NewNode[Indexed[T]]("withindex")
		index := 0
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(core.Retype[Indexed[T]](res))
				return
			}
			node.Push(core.Ok(Indexed[T]{Index: index, Value: res.Value()}))
			index++
		})
		return node
	})
}
