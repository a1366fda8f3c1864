// Package flowerrors provides consumer-side error handling for push streams:
// stages that observe, replace, rewrite or drop Error envelopes, and hooks
// that count or collect errors. There is deliberately no retry: a stage that
// has emitted an error has already moved on.
package flowerrors

import (
	"github.com/lguimbarda/min-rx/flow/core"
)

// errorStage builds a one-parent stage whose values and Completed pass
// through and whose errors are handed to onErr.
func errorStage[T any](name string, onErr func(node *core.Node[T], err error)) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T](name)
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsError() {
				node.Push(res)
				return
			}
			onErr(node, res.Error())
		})
		return node
	})
}

// OnError creates a Transformer that calls a handler function when an error occurs.
// The handler is called for side effects; the error still passes through the stream.
func OnError[T any](handler func(error)) core.Transformer[T, T] {
	return errorStage("onerror", func(node *core.Node[T], err error) {
		handler(err)
		node.Push(core.Err[T](err))
	})
}

// CatchError creates a Transformer that catches errors matching a predicate and handles them.
// If the handler returns a value, it replaces the error. If the handler returns an error,
// that error propagates. Non-matching errors pass through unchanged. A panic
// in the handler is emitted as an Error.
func CatchError[T any](predicate func(error) bool, handler func(error) (T, error)) core.Transformer[T, T] {
	return errorStage("catch", func(node *core.Node[T], err error) {
		if !predicate(err) {
			node.Push(core.Err[T](err))
			return
		}
		v, herr := core.Recover(func() (T, error) { return handler(err) })
		if herr != nil {
			node.Push(core.Err[T](herr))
			return
		}
		node.Push(core.Ok(v))
	})
}

// Catch replaces every error with the handler's result.
func Catch[T any](handler func(error) (T, error)) core.Transformer[T, T] {
	return CatchError(func(error) bool { return true }, handler)
}

// FilterErrors creates a Transformer that filters out errors matching a predicate.
// Matching errors are silently dropped; non-matching errors pass through.
func FilterErrors[T any](predicate func(error) bool) core.Transformer[T, T] {
	return errorStage("filtererrors", func(node *core.Node[T], err error) {
		if !predicate(err) {
			node.Push(core.Err[T](err))
		}
	})
}

// IgnoreErrors creates a Transformer that drops all error results.
// Values and Completed pass through.
func IgnoreErrors[T any]() core.Transformer[T, T] {
	return FilterErrors[T](func(error) bool { return true })
}

// MapErrors creates a Transformer that transforms errors using a mapping function.
// A nil result keeps the original error.
func MapErrors[T any](mapper func(error) error) core.Transformer[T, T] {
	return core.MapErr[T](mapper)
}

// WrapError is MapErrors under the name used for wrapping with context,
// typically fmt.Errorf("stage: %w", err).
func WrapError[T any](wrapper func(error) error) core.Transformer[T, T] {
	return MapErrors[T](wrapper)
}

// ErrorsOnly creates a Transformer that only passes through errors and
// Completed. Values are dropped.
func ErrorsOnly[T any]() core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("errorsonly")
		core.Attach(node, s, func(res core.Result[T]) {
			if !res.IsValue() {
				node.Push(res)
			}
		})
		return node
	})
}

// StopOnError forwards envelopes until the first error, which is forwarded
// and followed by Completed. The stage then detaches from its parent.
func StopOnError[T any]() core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("stoponerror")
		done := false
		core.Attach(node, s, func(res core.Result[T]) {
			if done {
				return
			}
			node.Push(res)
			switch {
			case res.IsError():
				done = true
				node.Push(core.Completed[T]())
				_ = node.Close()
			case res.IsCompleted():
				done = true
			}
		})
		return node
	})
}
