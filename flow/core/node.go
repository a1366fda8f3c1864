package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Node is the building block every stage embeds. It owns the stage's
// listener registry, its start flag and the hooks captured from the start
// context. Concrete stages provide the start behaviour with SetStart and
// push envelopes downstream with Push.
type Node[T any] struct {
	Outlet[T]

	name    string
	id      string
	started atomic.Bool
	hooks   atomic.Pointer[hookInvoker[T]]
	start   func(context.Context)

	mu      sync.Mutex
	cleanup []func()
	closed  bool
}

var _ Stream[int] = (*Node[int])(nil)

// NewNode creates an unstarted node. The name is a short description of the
// stage kind ("map", "merge", ...) used in IDs and logs.
func NewNode[T any](name string) *Node[T] {
	return &Node[T]{
		name: name,
		id:   name + "-" + uuid.NewString()[:8],
	}
}

// SetStart installs the function run by the first call to Start. It must be
// called before the node is started.
func (n *Node[T]) SetStart(start func(context.Context)) {
	n.start = start
}

// ID returns the stage identifier.
func (n *Node[T]) ID() string {
	return n.id
}

// Name returns the stage kind.
func (n *Node[T]) Name() string {
	return n.name
}

// Start captures hooks from ctx and runs the stage's start function once.
func (n *Node[T]) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !n.started.CompareAndSwap(false, true) {
		return
	}
	h := newHookInvoker[T](ctx)
	n.hooks.Store(h)
	h.invokeStart(n.id)

	if n.start != nil {
		n.start(ctx)
	}
}

// Started reports whether Start has been called.
func (n *Node[T]) Started() bool {
	return n.started.Load()
}

// Push runs the hooks for res and delivers it to every listener.
func (n *Node[T]) Push(res Result[T]) {
	if h := n.hooks.Load(); h != nil {
		h.invoke(res)
	}
	n.Emit(res)
}

// Subscribe attaches a listener to the node's outlet.
func (n *Node[T]) Subscribe(fn Listener[T]) Subscription {
	return n.Outlet.Subscribe(fn)
}

// OnResult attaches a listener for values only.
func (n *Node[T]) OnResult(fn func(T)) Stream[T] {
	n.Subscribe(func(res Result[T]) {
		if res.IsValue() {
			fn(res.Value())
		}
	})
	return n
}

// OnError attaches a listener for errors only.
func (n *Node[T]) OnError(fn func(error)) Stream[T] {
	n.Subscribe(func(res Result[T]) {
		if res.IsError() {
			fn(res.Error())
		}
	})
	return n
}

// OnCompleted attaches a listener for completion.
func (n *Node[T]) OnCompleted(fn func()) Stream[T] {
	n.Subscribe(func(res Result[T]) {
		if res.IsCompleted() {
			fn()
		}
	})
	return n
}

// Defer registers a cleanup function run by Close. If the node is already
// closed fn runs immediately.
func (n *Node[T]) Defer(fn func()) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		fn()
		return
	}
	n.cleanup = append(n.cleanup, fn)
	n.mu.Unlock()
}

// Track registers a subscription to drop when the node is closed.
func (n *Node[T]) Track(sub Subscription) {
	n.Defer(sub.Unsubscribe)
}

// Close detaches the node from its parents and releases stage resources
// (timers, bound hosts) in reverse registration order. Parents are not
// closed: they may feed other stages.
func (n *Node[T]) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	cleanup := n.cleanup
	n.cleanup = nil
	n.mu.Unlock()

	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i]()
	}
	return nil
}

// Attach wires node to a single parent: on start it subscribes handle to the
// parent and then starts the parent, so the listener is in place before the
// parent can emit.
func Attach[IN, OUT any](node *Node[OUT], parent Stream[IN], handle Listener[IN]) {
	node.SetStart(func(ctx context.Context) {
		node.Track(parent.Subscribe(handle))
		parent.Start(ctx)
	})
}

// Closer is implemented by stages that hold resources.
type Closer interface {
	Close() error
}

// CloseStream closes s if it implements Closer.
func CloseStream[T any](s Stream[T]) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
