// Package binding provides current-value handles over mutable object graphs.
//
// Where a stream delivers a sequence of envelopes, a Binding always has a
// value: Get reads it synchronously and Subscribe reports later changes.
// Property and Path bindings follow a host binding with the same rebinding
// protocol as the property adapters: when the host is replaced they detach
// from the old one before attaching to the new one, so a discarded host can
// never report a change.
package binding

import (
	"errors"
	"reflect"
	"sync"

	"github.com/lguimbarda/min-rx/flow/core"
)

var (
	// ErrReadOnly is returned by Set on bindings that cannot be written.
	ErrReadOnly = errors.New("binding is read-only")
	// ErrNoHost is returned by Set when the host binding is currently nil.
	ErrNoHost = errors.New("binding has no host")
)

// Binding is a current-value handle.
type Binding[T any] interface {
	// Get returns the current value.
	Get() T
	// Set writes through to the bound source.
	Set(T) error
	// Subscribe registers fn for later changes. The current value is not
	// replayed.
	Subscribe(fn func(T)) core.Subscription
	// Unbind detaches the binding from its sources. It must be called
	// explicitly once the binding is no longer used.
	Unbind()
}

// Value is a two-way variable. It implements core.Notifier, so it can serve
// as the host of property adapters and Property bindings; changes are
// reported under the attribute "Value".
type Value[T any] struct {
	core.Observable

	mu     sync.RWMutex
	value  T
	equals func(a, b T) bool
}

var _ Binding[int] = (*Value[int])(nil)

// NewValue creates a variable holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		value:  initial,
		equals: func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores value and notifies watchers if it differs from the current one.
func (v *Value[T]) Set(value T) error {
	v.mu.Lock()
	if v.equals(v.value, value) {
		v.mu.Unlock()
		return nil
	}
	v.value = value
	v.mu.Unlock()

	v.Changed("Value")
	return nil
}

// Subscribe calls fn with the new value after every change.
func (v *Value[T]) Subscribe(fn func(T)) core.Subscription {
	return v.Watch(func(string) { fn(v.Get()) })
}

// Unbind is a no-op: a Value has no sources.
func (v *Value[T]) Unbind() {}

type constant[T any] struct {
	value T
}

// Const returns a read-only binding that never changes.
func Const[T any](value T) Binding[T] {
	return constant[T]{value: value}
}

func (c constant[T]) Get() T { return c.value }

func (c constant[T]) Set(T) error { return ErrReadOnly }

func (c constant[T]) Subscribe(func(T)) core.Subscription {
	return core.SubscriptionFunc(func() {})
}

func (c constant[T]) Unbind() {}
