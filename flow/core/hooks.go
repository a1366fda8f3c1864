package core

import (
	"context"
)

// Hooks holds typed observation callbacks for stages of element type T.
// All fields are optional - nil means no observation for that event.
// Hooks are captured when a stage starts and are invoked synchronously
// before each envelope reaches the stage's listeners, so they should be
// fast to avoid stalling the graph.
type Hooks[T any] struct {
	OnStart    func(stage string) // Stage started
	OnValue    func(T)            // Value emitted
	OnError    func(error)        // Error emitted
	OnComplete func()             // Completed emitted
}

// hooksKey is unexported to prevent collisions with user context keys.
type hooksKey[T any] struct{}

// hooksContainer holds multiple hook sets for FIFO invocation.
type hooksContainer[T any] struct {
	hookSets []*Hooks[T]
}

// WithHooks attaches typed hooks to the context.
// Multiple calls to WithHooks compose in FIFO order - hooks from earlier
// calls are invoked before hooks from later calls.
//
// Example:
//
//	ctx := core.WithHooks(ctx, core.Hooks[int]{
//	    OnValue: func(v int) { log.Printf("Value: %d", v) },
//	})
func WithHooks[T any](ctx context.Context, hooks Hooks[T]) context.Context {
	if ctx == nil {
		panic("nil context")
	}

	existing := getHooksContainer[T](ctx)
	if existing == nil {
		return context.WithValue(ctx, hooksKey[T]{}, &hooksContainer[T]{
			hookSets: []*Hooks[T]{&hooks},
		})
	}

	newContainer := &hooksContainer[T]{
		hookSets: make([]*Hooks[T], len(existing.hookSets)+1),
	}
	copy(newContainer.hookSets, existing.hookSets)
	newContainer.hookSets[len(existing.hookSets)] = &hooks

	return context.WithValue(ctx, hooksKey[T]{}, newContainer)
}

// getHooksContainer retrieves the hooks container from context.
// Returns nil if no hooks are registered for type T.
func getHooksContainer[T any](ctx context.Context) *hooksContainer[T] {
	if ctx == nil {
		return nil
	}
	if c, ok := ctx.Value(hooksKey[T]{}).(*hooksContainer[T]); ok {
		return c
	}
	return nil
}

// hookInvoker wraps a hooks container for efficient invocation.
// It caches whether specific hook types exist to avoid repeated nil checks.
type hookInvoker[T any] struct {
	container   *hooksContainer[T]
	hasStart    bool
	hasValue    bool
	hasError    bool
	hasComplete bool
}

// newHookInvoker creates a hook invoker for the given context.
// Stages call it once, when they start.
func newHookInvoker[T any](ctx context.Context) *hookInvoker[T] {
	container := getHooksContainer[T](ctx)
	if container == nil {
		return &hookInvoker[T]{}
	}

	invoker := &hookInvoker[T]{container: container}
	for _, h := range container.hookSets {
		if h.OnStart != nil {
			invoker.hasStart = true
		}
		if h.OnValue != nil {
			invoker.hasValue = true
		}
		if h.OnError != nil {
			invoker.hasError = true
		}
		if h.OnComplete != nil {
			invoker.hasComplete = true
		}
	}

	return invoker
}

func (h *hookInvoker[T]) invokeStart(stage string) {
	if !h.hasStart {
		return
	}
	for _, hooks := range h.container.hookSets {
		if hooks.OnStart != nil {
			hooks.OnStart(stage)
		}
	}
}

// invoke dispatches res to the hooks matching its variant.
func (h *hookInvoker[T]) invoke(res Result[T]) {
	if h.container == nil {
		return
	}
	switch res.Kind() {
	case KindValue:
		if !h.hasValue {
			return
		}
		v := res.Value()
		for _, hooks := range h.container.hookSets {
			if hooks.OnValue != nil {
				hooks.OnValue(v)
			}
		}
	case KindError:
		if !h.hasError {
			return
		}
		err := res.Error()
		for _, hooks := range h.container.hookSets {
			if hooks.OnError != nil {
				hooks.OnError(err)
			}
		}
	case KindCompleted:
		if !h.hasComplete {
			return
		}
		for _, hooks := range h.container.hookSets {
			if hooks.OnComplete != nil {
				hooks.OnComplete()
			}
		}
	}
}

// SafeHooks wraps Hooks[T] to recover from panics in hook functions.
// Use this when hooks are user-provided and panics should not unwind the graph.
type SafeHooks[T any] struct {
	Hooks[T]
	panicHandler func(any)
}

// NewSafeHooks creates SafeHooks from regular Hooks.
// If panicHandler is nil, panics are silently recovered.
func NewSafeHooks[T any](hooks Hooks[T], panicHandler func(any)) SafeHooks[T] {
	if panicHandler == nil {
		panicHandler = func(any) {}
	}

	safe := SafeHooks[T]{panicHandler: panicHandler}
	guard := func() {
		if r := recover(); r != nil {
			panicHandler(r)
		}
	}

	if hooks.OnStart != nil {
		original := hooks.OnStart
		safe.OnStart = func(stage string) {
			defer guard()
			original(stage)
		}
	}
	if hooks.OnValue != nil {
		original := hooks.OnValue
		safe.OnValue = func(v T) {
			defer guard()
			original(v)
		}
	}
	if hooks.OnError != nil {
		original := hooks.OnError
		safe.OnError = func(err error) {
			defer guard()
			original(err)
		}
	}
	if hooks.OnComplete != nil {
		original := hooks.OnComplete
		safe.OnComplete = func() {
			defer guard()
			original()
		}
	}

	return safe
}

// WithSafeHooks is a convenience function that wraps hooks with panic recovery
// before attaching them to the context.
func WithSafeHooks[T any](ctx context.Context, hooks Hooks[T], panicHandler func(any)) context.Context {
	safe := NewSafeHooks(hooks, panicHandler)
	return WithHooks(ctx, safe.Hooks)
}
