package binding

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/lguimbarda/min-rx/flow/core"
	"github.com/lguimbarda/min-rx/flow/property"
)

// PropertyBinding follows one attribute of the value held by a host binding.
type PropertyBinding[H, V any] struct {
	host    Binding[H]
	get     func(H) (V, error)
	set     func(H, V) error
	binder  *core.Rebinder[H, V]
	hostSub core.Subscription
	out     core.Outlet[V]

	mu      sync.Mutex
	lastErr error
}

var _ Binding[int] = (*PropertyBinding[string, int])(nil)

// Property binds to the attribute called name of the current host. get
// reads it; set writes it and may be nil for a read-only binding. The
// binding rebinds whenever host changes, and reports a change whenever the
// current host notifies name and the value read differs from the last one.
func Property[H, V any](host Binding[H], name string, get func(H) V, set func(H, V) error) *PropertyBinding[H, V] {
	return newProperty(host, name, func(h H) (V, error) { return get(h), nil }, set, nil)
}

func newProperty[H, V any](host Binding[H], name string, get func(H) (V, error), set func(H, V) error, equals func(a, b V) bool) *PropertyBinding[H, V] {
	p := &PropertyBinding[H, V]{host: host, get: get, set: set}
	p.binder = core.NewRebinder(core.RebindOptions[H, V]{
		Attribute: name,
		Get:       get,
		Equal:     equals,
		OnValue:   func(v V) { p.out.Emit(core.Ok(v)) },
		OnError:   p.fail,
	})
	p.hostSub = host.Subscribe(p.binder.Rebind)
	p.binder.Rebind(host.Get())
	return p
}

func (p *PropertyBinding[H, V]) fail(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// Get reads the attribute from the current host. A nil host, or a getter
// that fails, yields the zero value; the failure is kept for Err.
func (p *PropertyBinding[H, V]) Get() V {
	var zero V
	h, ok := p.binder.Host()
	if !ok {
		return zero
	}
	v, err := core.Recover(func() (V, error) { return p.get(h) })
	if err != nil {
		p.fail(err)
		return zero
	}
	return v
}

// Set writes value to the current host.
func (p *PropertyBinding[H, V]) Set(value V) error {
	if p.set == nil {
		return ErrReadOnly
	}
	h, ok := p.binder.Host()
	if !ok {
		return ErrNoHost
	}
	_, err := core.Recover(func() (struct{}, error) { return struct{}{}, p.set(h, value) })
	return err
}

// Subscribe registers fn for value changes.
func (p *PropertyBinding[H, V]) Subscribe(fn func(V)) core.Subscription {
	return p.out.Subscribe(func(res core.Result[V]) { fn(res.Value()) })
}

// Err returns the last getter failure, if any.
func (p *PropertyBinding[H, V]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Unbind detaches from the host binding and from the current host. The host
// binding itself is left bound.
func (p *PropertyBinding[H, V]) Unbind() {
	p.hostSub.Unsubscribe()
	p.binder.Unbind()
}

// Path binds to a dotted attribute path below the value of host, such as
// "Address.City". The path is resolved against H immediately and a bad
// segment is reported as a *property.PathError. The last segment can be
// written when it is an exported field of a struct pointer or when its host
// has a Set<Name> method; otherwise Set returns ErrReadOnly.
func Path[H, V any](host Binding[H], path string) (Binding[V], error) {
	hostType := reflect.TypeOf((*H)(nil)).Elem()
	accessors, err := property.Resolve(hostType, path)
	if err != nil {
		return nil, err
	}
	last := accessors[len(accessors)-1]
	want := reflect.TypeOf((*V)(nil)).Elem()
	if !last.Out.AssignableTo(want) {
		return nil, &property.PathError{
			Path:    path,
			Segment: last.Name,
			Type:    last.In,
			Err:     fmt.Errorf("value of type %v is not assignable to %v", last.Out, want),
		}
	}

	var (
		cur   Binding[any] = untyped[H]{host}
		links []Binding[any]
	)
	for i, acc := range accessors {
		var (
			set    func(any, any) error
			equals = property.Identical
		)
		if i == len(accessors)-1 {
			set = setter(acc)
			equals = reflect.DeepEqual
		}
		link := newProperty(cur, acc.Name, acc.Get, set, equals)
		links = append(links, link)
		cur = link
	}
	return &pathBinding[V]{tail: cur, links: links}, nil
}

// setter finds a way to write the segment described by acc, or returns nil.
func setter(acc property.Accessor) func(host, value any) error {
	if m, ok := acc.In.MethodByName("Set" + acc.Name); ok {
		in := 2
		if acc.In.Kind() == reflect.Interface {
			in = 1
		}
		mt := m.Type
		if mt.NumIn() == in && acc.Out.AssignableTo(mt.In(in-1)) && mt.NumOut() <= 1 {
			return func(host, value any) error {
				arg := reflect.ValueOf(value)
				if !arg.IsValid() {
					arg = reflect.Zero(acc.Out)
				}
				out := reflect.ValueOf(host).MethodByName("Set" + acc.Name).Call([]reflect.Value{arg})
				if len(out) == 1 {
					if err, ok := out[0].Interface().(error); ok {
						return err
					}
				}
				return nil
			}
		}
	}

	if acc.In.Kind() == reflect.Pointer && acc.In.Elem().Kind() == reflect.Struct {
		if f, ok := acc.In.Elem().FieldByName(acc.Name); ok && f.IsExported() && len(f.Index) == 1 {
			return func(host, value any) error {
				arg := reflect.ValueOf(value)
				if !arg.IsValid() {
					arg = reflect.Zero(f.Type)
				}
				reflect.ValueOf(host).Elem().Field(f.Index[0]).Set(arg)
				return nil
			}
		}
	}
	return nil
}

// untyped views a Binding[H] as a Binding[any].
type untyped[H any] struct {
	b Binding[H]
}

func (u untyped[H]) Get() any { return u.b.Get() }

func (u untyped[H]) Set(v any) error {
	h, ok := v.(H)
	if !ok && v != nil {
		return fmt.Errorf("binding: cannot set %T as %v", v, reflect.TypeOf((*H)(nil)).Elem())
	}
	return u.b.Set(h)
}

func (u untyped[H]) Subscribe(fn func(any)) core.Subscription {
	return u.b.Subscribe(func(h H) { fn(h) })
}

func (u untyped[H]) Unbind() {}

// pathBinding is the typed tail of a chain of property links.
type pathBinding[V any] struct {
	tail  Binding[any]
	links []Binding[any]
}

func (p *pathBinding[V]) Get() V {
	return typed[V](p.tail.Get())
}

func (p *pathBinding[V]) Set(v V) error {
	return p.tail.Set(v)
}

func (p *pathBinding[V]) Subscribe(fn func(V)) core.Subscription {
	return p.tail.Subscribe(func(v any) { fn(typed[V](v)) })
}

// Unbind detaches every link, tail first.
func (p *pathBinding[V]) Unbind() {
	for i := len(p.links) - 1; i >= 0; i-- {
		p.links[i].Unbind()
	}
}

func typed[V any](v any) V {
	if t, ok := v.(V); ok {
		return t
	}
	var zero V
	return zero
}
