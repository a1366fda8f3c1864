package core

import (
	"reflect"
	"sync"
)

// RebindOptions configures a Rebinder.
type RebindOptions[H, V any] struct {
	// Attribute filters change notifications by name. Empty accepts all.
	Attribute string
	// Get reads the observed value from a host. It is never called with a
	// nil host.
	Get func(H) (V, error)
	// Equal decides whether a recomputed value counts as a change.
	// Defaults to reflect.DeepEqual.
	Equal func(a, b V) bool
	// OnValue receives the value after every rebind and after every change.
	OnValue func(V)
	// OnError receives failures and panics of Get and Equal.
	OnError func(error)
}

// Rebinder implements the rebinding protocol shared by property adapters
// and bindings. It is attached to at most one host at a time, and that host
// is always the most recently bound one: a replaced host's notifications are
// dropped even if they race with the replacement.
type Rebinder[H, V any] struct {
	opts RebindOptions[H, V]

	mu       sync.Mutex
	gen      uint64
	host     H
	hasHost  bool
	sub      Subscription
	value    V
	hasValue bool
}

// NewRebinder creates an unbound Rebinder.
func NewRebinder[H, V any](opts RebindOptions[H, V]) *Rebinder[H, V] {
	if opts.Equal == nil {
		opts.Equal = func(a, b V) bool { return reflect.DeepEqual(a, b) }
	}
	return &Rebinder[H, V]{opts: opts}
}

// Rebind detaches from the current host, attaches to host and emits the
// value read from it. The old subscription is dropped before the new one is
// made, and the new one is in place before the value is read, so no change
// on the new host can be missed. A nil host emits the zero value.
func (r *Rebinder[H, V]) Rebind(host H) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	old := r.sub
	r.sub = nil
	r.host = host
	r.hasHost = !IsNil(host)
	r.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}

	var sub Subscription
	if n, ok := any(host).(Notifier); ok && !IsNil(host) {
		sub = n.Watch(func(attribute string) {
			r.changed(gen, attribute)
		})
	}

	r.mu.Lock()
	if r.gen != gen {
		// Rebound again while subscribing.
		r.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}
	r.sub = sub
	r.mu.Unlock()

	value, err := r.read(host)
	if err != nil {
		r.fail(err)
		return
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return
	}
	r.value, r.hasValue = value, true
	r.mu.Unlock()

	if r.opts.OnValue != nil {
		r.opts.OnValue(value)
	}
}

// changed handles a notification delivered for the host bound at gen.
func (r *Rebinder[H, V]) changed(gen uint64, attribute string) {
	if r.opts.Attribute != "" && attribute != "" && attribute != r.opts.Attribute {
		return
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return
	}
	host := r.host
	r.mu.Unlock()

	value, err := r.read(host)
	if err != nil {
		r.fail(err)
		return
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return
	}
	prev, hasPrev := r.value, r.hasValue
	r.mu.Unlock()

	if hasPrev {
		same, err := Recover(func() (bool, error) { return r.opts.Equal(value, prev), nil })
		if err != nil {
			r.fail(err)
			return
		}
		if same {
			return
		}
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		return
	}
	r.value, r.hasValue = value, true
	r.mu.Unlock()

	if r.opts.OnValue != nil {
		r.opts.OnValue(value)
	}
}

// Refresh re-reads the current host as if it had notified a change.
func (r *Rebinder[H, V]) Refresh() {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()
	r.changed(gen, "")
}

func (r *Rebinder[H, V]) read(host H) (V, error) {
	if IsNil(host) || r.opts.Get == nil {
		var zero V
		return zero, nil
	}
	return Recover(func() (V, error) { return r.opts.Get(host) })
}

func (r *Rebinder[H, V]) fail(err error) {
	if r.opts.OnError != nil {
		r.opts.OnError(err)
	}
}

// Unbind drops the current host and its subscription. Later notifications
// from that host are ignored.
func (r *Rebinder[H, V]) Unbind() {
	r.mu.Lock()
	r.gen++
	old := r.sub
	r.sub = nil
	var zero H
	r.host, r.hasHost = zero, false
	r.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
}

// Host returns the currently bound host.
func (r *Rebinder[H, V]) Host() (H, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host, r.hasHost
}

// Value returns the last value read, and whether one has been read.
func (r *Rebinder[H, V]) Value() (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.hasValue
}

// IsNil reports whether v is nil or a nil pointer, map, slice, func, chan
// or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
