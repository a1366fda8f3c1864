package core

// Mapper transforms each value of a stream (1:1 cardinality). Errors and
// Completed pass through untouched.
// It answers the question: "What is done to each item in the flow?"
type Mapper[IN, OUT any] func(IN) (OUT, error)

// Map creates a Mapper from a transformation function. A returned error or a
// panic inside mapFunc is emitted downstream as an Error envelope.
func Map[IN, OUT any](mapFunc func(IN) (OUT, error)) Mapper[IN, OUT] {
	return mapFunc
}

// Apply builds the map stage on top of s.
func (m Mapper[IN, OUT]) Apply(s Stream[IN]) Stream[OUT] {
	node := NewNode[OUT]("map")
	Attach(node, s, func(res Result[IN]) {
		if !res.IsValue() {
			node.Push(Retype[OUT](res))
			return
		}
		in := res.Value()
		out, err := Recover(func() (OUT, error) { return m(in) })
		if err != nil {
			node.Push(Err[OUT](err))
			return
		}
		node.Push(Ok(out))
	})
	return node
}

// FlatMapper transforms each value into zero or more values.
// It answers the question: "How are items in the flow reduced or expanded?"
type FlatMapper[IN, OUT any] func(IN) ([]OUT, error)

// FlatMap creates a FlatMapper from a transformation function.
func FlatMap[IN, OUT any](flatMapFunc func(IN) ([]OUT, error)) FlatMapper[IN, OUT] {
	return flatMapFunc
}

// Apply builds the flat-map stage on top of s.
func (fm FlatMapper[IN, OUT]) Apply(s Stream[IN]) Stream[OUT] {
	node := NewNode[OUT]("flatmap")
	Attach(node, s, func(res Result[IN]) {
		if !res.IsValue() {
			node.Push(Retype[OUT](res))
			return
		}
		in := res.Value()
		outs, err := Recover(func() ([]OUT, error) { return fm(in) })
		if err != nil {
			node.Push(Err[OUT](err))
			return
		}
		for _, out := range outs {
			node.Push(Ok(out))
		}
	})
	return node
}

// ErrorMapper rewrites the error of each Error envelope. Values and
// Completed pass through untouched.
type ErrorMapper[T any] func(error) error

// MapErr creates an ErrorMapper. A nil return keeps the original error.
func MapErr[T any](fn func(error) error) ErrorMapper[T] {
	return fn
}

// Apply builds the error-mapping stage on top of s.
func (m ErrorMapper[T]) Apply(s Stream[T]) Stream[T] {
	node := NewNode[T]("maperr")
	Attach(node, s, func(res Result[T]) {
		if !res.IsError() {
			node.Push(res)
			return
		}
		orig := res.Error()
		mapped, err := Recover(func() (error, error) { return m(orig), nil })
		switch {
		case err != nil:
			node.Push(Err[T](err))
		case mapped == nil:
			node.Push(res)
		default:
			node.Push(Err[T](mapped))
		}
	})
	return node
}
