package property

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lguimbarda/min-rx/flow/core"
)

// ErrUnknownSegment is wrapped by PathError when a segment names no field
// or getter method.
var ErrUnknownSegment = errors.New("unknown path segment")

// PathError reports a property path that cannot be resolved against a host
// type.
type PathError struct {
	Path    string
	Segment string
	Type    reflect.Type
	Err     error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("property path %q: segment %q on %v: %v", e.Path, e.Segment, e.Type, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Accessor reads one path segment from a host.
type Accessor struct {
	// Name is the segment, also used as the change-notification attribute.
	Name string
	// In is the host type the accessor was resolved on.
	In reflect.Type
	// Out is the type of the value it returns.
	Out reflect.Type

	get func(reflect.Value) (reflect.Value, error)
}

// Get reads the segment from host. A nil host, or a nil pointer on the way to
// a field, yields the zero value of Out.
func (a Accessor) Get(host any) (any, error) {
	if core.IsNil(host) {
		return reflect.Zero(a.Out).Interface(), nil
	}
	v, err := a.get(reflect.ValueOf(host))
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Resolve validates a dotted path such as "Address.City" against host type t
// and returns one accessor per segment. A segment names a getter method with
// no arguments returning a value (optionally followed by an error), or an
// exported struct field, looked up through pointers.
func Resolve(t reflect.Type, path string) ([]Accessor, error) {
	if path == "" {
		return nil, &PathError{Path: path, Type: t, Err: errors.New("empty path")}
	}
	segments := strings.Split(path, ".")
	accessors := make([]Accessor, 0, len(segments))
	for _, seg := range segments {
		acc, err := resolveSegment(t, seg)
		if err != nil {
			return nil, &PathError{Path: path, Segment: seg, Type: t, Err: err}
		}
		accessors = append(accessors, acc)
		t = acc.Out
	}
	return accessors, nil
}

func resolveSegment(t reflect.Type, seg string) (Accessor, error) {
	if seg == "" {
		return Accessor{}, errors.New("empty segment")
	}
	if m, ok := t.MethodByName(seg); ok && isGetter(m.Type, t.Kind() == reflect.Interface) {
		return methodAccessor(t, seg, m.Type), nil
	}

	st := t
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		if f, ok := st.FieldByName(seg); ok && f.IsExported() {
			index := f.Index
			return Accessor{
				Name: seg,
				In:   t,
				Out:  f.Type,
				get: func(v reflect.Value) (reflect.Value, error) {
					for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
						if v.IsNil() {
							return reflect.Zero(f.Type), nil
						}
						v = v.Elem()
					}
					fv, err := v.FieldByIndexErr(index)
					if err != nil {
						return reflect.Zero(f.Type), nil
					}
					return fv, nil
				},
			}, nil
		}
	}
	return Accessor{}, ErrUnknownSegment
}

// isGetter reports whether mt is func() V or func() (V, error). Method types
// taken from a concrete type include the receiver; interface ones do not.
func isGetter(mt reflect.Type, iface bool) bool {
	in := 1
	if iface {
		in = 0
	}
	if mt.NumIn() != in {
		return false
	}
	switch mt.NumOut() {
	case 1:
		return true
	case 2:
		return mt.Out(1) == errorType
	default:
		return false
	}
}

func methodAccessor(t reflect.Type, name string, mt reflect.Type) Accessor {
	return Accessor{
		Name: name,
		In:   t,
		Out:  mt.Out(0),
		get: func(v reflect.Value) (reflect.Value, error) {
			m := v.MethodByName(name)
			if !m.IsValid() {
				return reflect.Value{}, fmt.Errorf("%s: %w", name, ErrUnknownSegment)
			}
			out := m.Call(nil)
			if len(out) == 2 && !out[1].IsNil() {
				return reflect.Value{}, out[1].Interface().(error)
			}
			return out[0], nil
		},
	}
}

// Path observes a dotted attribute path. The path is resolved against H when
// Path is called, so a misspelled segment fails here with a *PathError
// rather than when values flow. The adapter is a chain of one property
// adapter per segment: each intermediate host emitted by a segment is
// observed by the next one, so replacing any object along the path rebinds
// everything below it.
func Path[H, V any](path string) (core.Transformer[H, V], error) {
	hostType := reflect.TypeOf((*H)(nil)).Elem()
	accessors, err := Resolve(hostType, path)
	if err != nil {
		return nil, err
	}
	last := accessors[len(accessors)-1].Out
	want := reflect.TypeOf((*V)(nil)).Elem()
	if !last.AssignableTo(want) {
		return nil, &PathError{
			Path:    path,
			Segment: accessors[len(accessors)-1].Name,
			Type:    accessors[len(accessors)-1].In,
			Err:     fmt.Errorf("value of type %v is not assignable to %v", last, want),
		}
	}

	return core.TransformerFunc[H, V](func(s core.Stream[H]) core.Stream[V] {
		var cur core.Stream[any] = core.Map(func(h H) (any, error) { return h, nil }).Apply(s)
		for i, acc := range accessors {
			equals := Identical
			if i == len(accessors)-1 {
				equals = reflect.DeepEqual
			}
			cur = OfFunc(acc.Name, acc.Get, equals).Apply(cur)
		}
		return core.Map(func(v any) (V, error) {
			if v == nil {
				var zero V
				return zero, nil
			}
			return v.(V), nil
		}).Apply(cur)
	}), nil
}

// MustPath is Path for paths known to be valid. It panics on a *PathError.
func MustPath[H, V any](path string) core.Transformer[H, V] {
	t, err := Path[H, V](path)
	if err != nil {
		panic(err)
	}
	return t
}

// Identical compares hosts by identity for reference kinds and by deep
// equality otherwise. Intermediate path segments use it so that replacing an
// object with an equal-looking one still rebinds the segments below it.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	default:
		return reflect.DeepEqual(a, b)
	}
}
