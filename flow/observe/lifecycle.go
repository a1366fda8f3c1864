package observe

import (
	"github.com/lguimbarda/min-rx/flow/core"
)

// Notification is a materialized envelope. It lets downstream stages treat
// values, errors and completion uniformly as plain values.
type Notification[T any] struct {
	Kind  core.Kind
	Value T
	Error error
}

// Result converts the notification back into an envelope.
func (n Notification[T]) Result() core.Result[T] {
	switch n.Kind {
	case core.KindValue:
		return core.Ok(n.Value)
	case core.KindError:
		return core.Err[T](n.Error)
	default:
		return core.Completed[T]()
	}
}

// Materialize turns every envelope into a Notification value. Completed is
// emitted as a notification and then as the stage's own Completed.
func Materialize[T any]() core.Transformer[T, Notification[T]] {
	return core.TransformerFunc[T, Notification[T]](func(s core.Stream[T]) core.Stream[Notification[T]] {
		node := core.NewNode[Notification[T]]("materialize")
		core.Attach(node, s, func(res core.Result[T]) {
			n := Notification[T]{Kind: res.Kind()}
			switch res.Kind() {
			case core.KindValue:
				n.Value = res.Value()
			case core.KindError:
				n.Error = res.Error()
			}
			node.Push(core.Ok(n))
			if res.IsCompleted() {
				node.Push(core.Completed[Notification[T]]())
			}
		})
		return node
	})
}

// Dematerialize reverses Materialize. Errors and Completed of the
// notification stream itself are forwarded; a Completed notification is
// forwarded once, whichever arrives first.
func Dematerialize[T any]() core.Transformer[Notification[T], T] {
	return core.TransformerFunc[Notification[T], T](func(s core.Stream[Notification[T]]) core.Stream[T] {
		node := core.NewNode[T]("dematerialize")
		done := false
		core.Attach(node, s, func(res core.Result[Notification[T]]) {
			if done {
				return
			}
			out := core.Completed[T]()
			switch {
			case res.IsValue():
				out = res.Value().Result()
			case res.IsError():
				out = core.Err[T](res.Error())
			}
			done = out.IsCompleted()
			node.Push(out)
		})
		return node
	})
}
