package core

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrPanic wraps a recovered panic value as an error.
// This is used when a user-provided function panics during stream processing.
// It includes a cleaned-up stack trace that excludes internal min-rx frames.
type ErrPanic struct {
	Value any
	Stack string // Cleaned stack trace
}

func (e ErrPanic) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// NewPanicError creates an ErrPanic from a recovered value with a cleaned stack trace.
// It captures the current stack and removes internal min-rx frames to show only
// user code, making it easier to identify where the panic originated.
func NewPanicError(recovered any) ErrPanic {
	return ErrPanic{
		Value: recovered,
		Stack: cleanStack(captureStack(4)), // skip: runtime.Callers, captureStack, NewPanicError, defer func
	}
}

// captureStack returns the current stack trace as a string.
func captureStack(skip int) string {
	const maxFrames = 32
	var pcs [maxFrames]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder

	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}

	return sb.String()
}

// cleanStack removes internal min-rx frames from a stack trace.
func cleanStack(stack string) string {
	lines := strings.Split(stack, "\n")
	var result []string
	var skipNext bool

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !strings.HasPrefix(line, "\t") {
			if strings.Contains(line, "github.com/lguimbarda/min-rx/flow/") {
				skipNext = true
				continue
			}
			skipNext = false
		} else if skipNext {
			continue
		}

		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// Kind identifies which variant a Result holds.
type Kind uint8

const (
	KindValue Kind = iota
	KindError
	KindCompleted
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindError:
		return "error"
	case KindCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// VariantError is the panic value raised when a Result is read as the wrong variant.
type VariantError struct {
	Want Kind
	Got  Kind
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("result: read as %s but holds %s", e.Want, e.Got)
}

// ErrCompleted is returned when something is pushed into a stage that has
// already emitted Completed.
var ErrCompleted = errors.New("stream already completed")

// Result is the envelope pushed through a stream graph.
// It exists in exactly one of three states:
//   - Value: successful processing result (IsValue() returns true)
//   - Error: processing failure that is non-fatal (IsError() returns true)
//   - Completed: the producing stage is done (IsCompleted() returns true)
//
// Errors are recoverable; the stream keeps delivering subsequent items.
type Result[OUT any] struct {
	value OUT
	err   error
	kind  Kind
}

// Ok creates a successful Result containing the given value.
func Ok[OUT any](value OUT) Result[OUT] {
	return Result[OUT]{value: value, kind: KindValue}
}

// Err creates an error Result. A nil error is replaced by a generic one so the
// envelope never reports IsError with nothing to show.
func Err[OUT any](err error) Result[OUT] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result[OUT]{err: err, kind: KindError}
}

// Completed creates the terminating Result.
func Completed[OUT any]() Result[OUT] {
	return Result[OUT]{kind: KindCompleted}
}

// Kind reports which variant this Result holds.
func (r Result[OUT]) Kind() Kind {
	return r.kind
}

// IsValue returns true if this Result contains a successful value.
func (r Result[OUT]) IsValue() bool {
	return r.kind == KindValue
}

// IsError returns true if this Result contains a processing error.
func (r Result[OUT]) IsError() bool {
	return r.kind == KindError
}

// IsCompleted returns true if this Result terminates the stream.
func (r Result[OUT]) IsCompleted() bool {
	return r.kind == KindCompleted
}

// Value returns the contained value. It panics with *VariantError if the
// Result is not a value.
func (r Result[OUT]) Value() OUT {
	if r.kind != KindValue {
		panic(&VariantError{Want: KindValue, Got: r.kind})
	}
	return r.value
}

// Error returns the contained error. It panics with *VariantError if the
// Result is not an error.
func (r Result[OUT]) Error() error {
	if r.kind != KindError {
		panic(&VariantError{Want: KindError, Got: r.kind})
	}
	return r.err
}

// Unwrap returns the value and error together without checking the variant.
// Completed results return the zero value and a nil error.
func (r Result[OUT]) Unwrap() (OUT, error) {
	return r.value, r.err
}

func (r Result[OUT]) String() string {
	switch r.kind {
	case KindValue:
		return fmt.Sprintf("Value(%v)", r.value)
	case KindError:
		return fmt.Sprintf("Error(%v)", r.err)
	default:
		return "Completed"
	}
}

// Retype converts an Error or Completed Result into the same variant for
// another element type. It is how one-parent stages pass those envelopes
// through unchanged. Calling it on a value panics with *VariantError.
func Retype[OUT, IN any](r Result[IN]) Result[OUT] {
	switch r.kind {
	case KindError:
		return Err[OUT](r.err)
	case KindCompleted:
		return Completed[OUT]()
	default:
		panic(&VariantError{Want: KindError, Got: r.kind})
	}
}

// Recover runs fn and converts a panic into an ErrPanic error.
func Recover[OUT any](fn func() (OUT, error)) (out OUT, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r)
		}
	}()
	return fn()
}
