// Package property adapts a stream of host objects into a stream of one of
// their attributes. When a new host arrives the adapter detaches from the
// previous one, attaches to the new one and emits its value; while a host is
// attached, its change notifications re-read the attribute and emit it when
// it changed.
//
// Hosts opt into change notification by implementing core.Notifier, usually
// by embedding core.Observable and calling Changed from their setters.
package property

import (
	"github.com/lguimbarda/min-rx/flow/core"
)

// Of observes the attribute called name through get. Notifications for
// other attributes are ignored; an empty name reacts to every notification.
// A value is emitted on every new host, and on notifications only when it
// differs from the last one emitted.
func Of[H any, V comparable](name string, get func(H) V) core.Transformer[H, V] {
	return OfFunc(name, func(h H) (V, error) { return get(h), nil }, func(a, b V) bool { return a == b })
}

// OfFunc is Of for values that are not comparable or whose getter can fail.
// A nil equals falls back to reflect.DeepEqual. Errors and panics from get
// are emitted as Error envelopes.
func OfFunc[H, V any](name string, get func(H) (V, error), equals func(a, b V) bool) core.Transformer[H, V] {
	return core.TransformerFunc[H, V](func(s core.Stream[H]) core.Stream[V] {
		node := core.NewNode[V]("property")
		binder := core.NewRebinder(core.RebindOptions[H, V]{
			Attribute: name,
			Get:       get,
			Equal:     equals,
			OnValue:   func(v V) { node.Push(core.Ok(v)) },
			OnError:   func(err error) { node.Push(core.Err[V](err)) },
		})
		node.Defer(binder.Unbind)

		core.Attach(node, s, func(res core.Result[H]) {
			switch res.Kind() {
			case core.KindValue:
				binder.Rebind(res.Value())
			case core.KindError:
				node.Push(core.Retype[V](res))
			case core.KindCompleted:
				binder.Unbind()
				node.Push(core.Retype[V](res))
			}
		})
		return node
	})
}
