package core

import (
	"sync"
)

type listenerEntry[T any] struct {
	id uint64
	fn Listener[T]
}

// Outlet is the ordered listener registry of a stage. Emit calls listeners
// inline, in registration order, on the caller's goroutine. The registry
// lock only guards the listener slice; it is never held while a listener
// runs, so listeners may subscribe, unsubscribe or emit re-entrantly.
type Outlet[T any] struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []listenerEntry[T]
}

// Subscribe appends a listener and returns a Subscription that removes it.
func (o *Outlet[T]) Subscribe(fn Listener[T]) Subscription {
	if fn == nil {
		return SubscriptionFunc(nil)
	}

	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.listeners = append(o.listeners, listenerEntry[T]{id: id, fn: fn})
	o.mu.Unlock()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { o.remove(id) })
	})
}

func (o *Outlet[T]) remove(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, l := range o.listeners {
		if l.id == id {
			// Copy rather than shift in place: an Emit in progress may hold
			// the old slice.
			next := make([]listenerEntry[T], 0, len(o.listeners)-1)
			next = append(next, o.listeners[:i]...)
			next = append(next, o.listeners[i+1:]...)
			o.listeners = next
			return
		}
	}
}

// Emit pushes res to every listener registered at the time of the call.
func (o *Outlet[T]) Emit(res Result[T]) {
	o.mu.RLock()
	snapshot := o.listeners
	o.mu.RUnlock()

	for _, l := range snapshot {
		l.fn(res)
	}
}

// Len returns the number of attached listeners.
func (o *Outlet[T]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.listeners)
}
