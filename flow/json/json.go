// Package json provides stream adapters for JSON encoding and decoding.
// It enables parsing JSON data as part of flow pipelines.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Decode creates a Transformer that decodes JSON strings into typed values.
// Each input string is expected to be a valid JSON document.
// Invalid JSON results in an error Result that passes through the stream.
func Decode[T any]() core.Transformer[string, T] {
	return core.Map(func(s string) (T, error) {
		var value T
		err := json.Unmarshal([]byte(s), &value)
		return value, err
	})
}

// DecodeBytes creates a Transformer that decodes JSON byte slices into typed values.
func DecodeBytes[T any]() core.Transformer[[]byte, T] {
	return core.Map(func(b []byte) (T, error) {
		var value T
		err := json.Unmarshal(b, &value)
		return value, err
	})
}

// Encode creates a Transformer that encodes typed values into JSON strings.
func Encode[T any]() core.Transformer[T, string] {
	return core.Map(func(v T) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	})
}

// EncodeBytes creates a Transformer that encodes typed values into JSON byte slices.
func EncodeBytes[T any]() core.Transformer[T, []byte] {
	return core.Map(func(v T) ([]byte, error) {
		return json.Marshal(v)
	})
}

// DecodeStream creates a Stream that reads newline-delimited JSON (JSON
// Lines) from r on Start and emits each decoded object, then Completed.
// A document that does not match T is emitted as an Error and reading
// continues; malformed JSON ends the stream with an Error. The reader is
// consumed synchronously, so r should not block indefinitely.
func DecodeStream[T any](r io.Reader) core.Stream[T] {
	return core.Emit(func(ctx context.Context, push func(core.Result[T])) {
		dec := json.NewDecoder(r)
		for ctx.Err() == nil {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				if !errors.Is(err, io.EOF) {
					push(core.Err[T](err))
				}
				break
			}
			var value T
			if err := json.Unmarshal(raw, &value); err != nil {
				push(core.Err[T](err))
				continue
			}
			push(core.Ok(value))
		}
		push(core.Completed[T]())
	})
}

// DecodeArray creates a Stream that reads a JSON array from r on Start and
// emits each element.
func DecodeArray[T any](r io.Reader) core.Stream[T] {
	return core.Emit(func(ctx context.Context, push func(core.Result[T])) {
		defer push(core.Completed[T]())

		dec := json.NewDecoder(r)
		tok, err := dec.Token()
		if err != nil {
			push(core.Err[T](err))
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			push(core.Err[T](errors.New("json: expected array")))
			return
		}
		for dec.More() && ctx.Err() == nil {
			var value T
			if err := dec.Decode(&value); err != nil {
				push(core.Err[T](err))
				return
			}
			push(core.Ok(value))
		}
	})
}

// WriteLines creates a Transformer that writes each value to w as one line
// of JSON and passes the value on. Write failures are emitted as Error
// envelopes in place of the value. Writes are serialized, so w may be
// shared by stages delivering from different goroutines.
func WriteLines[T any](w io.Writer) core.Transformer[T, T] {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return core.Map(func(v T) (T, error) {
		mu.Lock()
		defer mu.Unlock()
		return v, enc.Encode(v)
	})
}
