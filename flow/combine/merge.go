// Package combine provides multi-parent stages.
package combine

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Merge keeps the last value received from each parent and, whenever a
// parent emits a value, emits combine applied to a snapshot of those
// values. Slots start at the zero value of T when the stage starts, so the
// other parents contribute their last known value or zero. An Error or
// Completed from a parent is forwarded at once and resets that parent's
// slot. A panic in combine is emitted as an Error envelope.
func Merge[T, R any](combine func(values []T) R, parents ...core.Stream[T]) core.Stream[R] {
	node := core.NewNode[R]("merge")
	node.SetStart(func(ctx context.Context) {
		var mu sync.Mutex
		slots := make([]T, len(parents))

		for i, parent := range parents {
			node.Track(parent.Subscribe(func(res core.Result[T]) {
				if !res.IsValue() {
					mu.Lock()
					var zero T
					slots[i] = zero
					mu.Unlock()
					node.Push(core.Retype[R](res))
					return
				}
				mu.Lock()
				slots[i] = res.Value()
				snapshot := slices.Clone(slots)
				mu.Unlock()

				out, err := core.Recover(func() (R, error) { return combine(snapshot), nil })
				if err != nil {
					node.Push(core.Err[R](err))
					return
				}
				node.Push(core.Ok(out))
			}))
		}
		for _, parent := range parents {
			parent.Start(ctx)
		}
	})
	return node
}

// CombineLatest is Merge with a combine that returns the snapshot itself.
func CombineLatest[T any](parents ...core.Stream[T]) core.Stream[[]T] {
	return Merge(func(values []T) []T { return values }, parents...)
}

// Concat starts every parent and forwards every envelope from every parent,
// untagged and unfiltered. Despite the name it does not concatenate: it is
// a broadcast union, and each parent's Completed is forwarded as it arrives.
// Use Union for a stream that completes once.
func Concat[T any](parents ...core.Stream[T]) core.Stream[T] {
	node := core.NewNode[T]("concat")
	node.SetStart(func(ctx context.Context) {
		for _, parent := range parents {
			node.Track(parent.Subscribe(node.Push))
		}
		for _, parent := range parents {
			parent.Start(ctx)
		}
	})
	return node
}

// Union forwards values and errors from every parent and emits a single
// Completed once all parents have completed. With no parents it completes
// on Start.
func Union[T any](parents ...core.Stream[T]) core.Stream[T] {
	node := core.NewNode[T]("union")
	node.SetStart(func(ctx context.Context) {
		if len(parents) == 0 {
			node.Push(core.Completed[T]())
			return
		}
		var mu sync.Mutex
		done := make([]bool, len(parents))
		for i, parent := range parents {
			node.Track(parent.Subscribe(func(res core.Result[T]) {
				if !res.IsCompleted() {
					node.Push(res)
					return
				}
				mu.Lock()
				already := done[i]
				done[i] = true
				all := !lo.Contains(done, false)
				mu.Unlock()
				if !already && all {
					node.Push(res)
				}
			}))
		}
		for _, parent := range parents {
			parent.Start(ctx)
		}
	})
	return node
}
