package core

import (
	"sync"
)

// Notifier is the change-notification capability a host object may
// implement. Watch registers fn to be called with the attribute name each
// time one of the host's attributes changes; an empty name means "anything
// may have changed". The returned Subscription detaches fn.
type Notifier interface {
	Watch(fn func(attribute string)) Subscription
}

// Observable is an embeddable Notifier implementation for host types.
//
//	type Person struct {
//	    core.Observable
//	    name string
//	}
//
//	func (p *Person) SetName(name string) {
//	    p.name = name
//	    p.Changed("Name")
//	}
type Observable struct {
	mu       sync.RWMutex
	nextID   uint64
	watchers []watcher
}

type watcher struct {
	id uint64
	fn func(string)
}

var _ Notifier = (*Observable)(nil)

// Watch registers a change callback.
func (o *Observable) Watch(fn func(attribute string)) Subscription {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.watchers = append(o.watchers, watcher{id: id, fn: fn})
	o.mu.Unlock()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, w := range o.watchers {
				if w.id == id {
					next := make([]watcher, 0, len(o.watchers)-1)
					next = append(next, o.watchers[:i]...)
					o.watchers = append(next, o.watchers[i+1:]...)
					return
				}
			}
		})
	})
}

// Changed notifies every watcher that attribute changed. Callbacks run
// outside the registry lock.
func (o *Observable) Changed(attribute string) {
	o.mu.RLock()
	snapshot := o.watchers
	o.mu.RUnlock()

	for _, w := range snapshot {
		w.fn(attribute)
	}
}

// Watchers returns the number of registered callbacks.
func (o *Observable) Watchers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.watchers)
}
