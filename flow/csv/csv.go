// Package csv provides stream adapters for CSV encoding and decoding.
// It enables reading and writing CSV data as part of flow pipelines.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/lguimbarda/min-rx/flow/core"
)

// ReaderOption configures a CSV reader.
type ReaderOption func(*csv.Reader)

// WithComma sets the field delimiter (default is ',').
func WithComma(comma rune) ReaderOption {
	return func(r *csv.Reader) {
		r.Comma = comma
	}
}

// WithComment sets the comment character. Lines beginning with this
// character are ignored.
func WithComment(comment rune) ReaderOption {
	return func(r *csv.Reader) {
		r.Comment = comment
	}
}

// WithFieldsPerRecord sets the expected number of fields per record.
// If positive, each record must have exactly that many fields.
// If 0, the number is set to the first record's field count.
// If negative, no check is made and records may have variable fields.
func WithFieldsPerRecord(n int) ReaderOption {
	return func(r *csv.Reader) {
		r.FieldsPerRecord = n
	}
}

// WithLazyQuotes allows lazy quotes in quoted fields.
func WithLazyQuotes(lazy bool) ReaderOption {
	return func(r *csv.Reader) {
		r.LazyQuotes = lazy
	}
}

// WithTrimLeadingSpace trims leading whitespace from fields.
func WithTrimLeadingSpace(trim bool) ReaderOption {
	return func(r *csv.Reader) {
		r.TrimLeadingSpace = trim
	}
}

// ReadRecords creates a Stream that emits each row of a CSV file as a
// string slice when started, then Completed.
func ReadRecords(path string, opts ...ReaderOption) core.Stream[[]string] {
	return core.Emit(func(ctx context.Context, push func(core.Result[[]string])) {
		defer push(core.Completed[[]string]())

		file, err := os.Open(path)
		if err != nil {
			push(core.Err[[]string](err))
			return
		}
		defer file.Close()
		read(ctx, file, opts, push)
	})
}

// ReadRecordsFrom creates a Stream that reads CSV records from r.
func ReadRecordsFrom(r io.Reader, opts ...ReaderOption) core.Stream[[]string] {
	return core.Emit(func(ctx context.Context, push func(core.Result[[]string])) {
		read(ctx, r, opts, push)
		push(core.Completed[[]string]())
	})
}

// read emits records until EOF. A malformed record is emitted as an Error
// and reading continues; any other read failure ends the stream.
func read(ctx context.Context, r io.Reader, opts []ReaderOption, push func(core.Result[[]string])) {
	reader := newReader(r, opts)
	for ctx.Err() == nil {
		record, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			push(core.Err[[]string](err))
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return
		}
		push(core.Ok(record))
	}
}

func newReader(r io.Reader, opts []ReaderOption) *csv.Reader {
	reader := csv.NewReader(r)
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// SkipHeader creates a Transformer that drops the first value (the header
// row). Errors before it pass through and do not count as the header.
func SkipHeader() core.Transformer[[]string, []string] {
	return core.TransformerFunc[[]string, []string](func(s core.Stream[[]string]) core.Stream[[]string] {
		node := core.NewNode[[]string]("skipheader")
		skipped := false
		core.Attach(node, s, func(res core.Result[[]string]) {
			if !skipped && res.IsValue() {
				skipped = true
				return
			}
			node.Push(res)
		})
		return node
	})
}

// Decode creates a Transformer that parses each value as a self-contained
// CSV document and emits its records. A document that fails to parse
// yields a single Error and none of its records.
func Decode(opts ...ReaderOption) core.Transformer[[]byte, []string] {
	return core.TransformerFunc[[]byte, []string](func(s core.Stream[[]byte]) core.Stream[[]string] {
		node := core.NewNode[[]string]("csvdecode")
		core.Attach(node, s, func(res core.Result[[]byte]) {
			if !res.IsValue() {
				node.Push(core.Retype[[]string](res))
				return
			}
			records, err := newReader(bytes.NewReader(res.Value()), opts).ReadAll()
			for _, record := range records {
				node.Push(core.Ok(record))
			}
			if err != nil {
				node.Push(core.Err[[]string](err))
			}
		})
		return node
	})
}

// WriterOption configures a CSV writer.
type WriterOption func(*csv.Writer)

// WithWriterComma sets the field delimiter for writing (default is ',').
func WithWriterComma(comma rune) WriterOption {
	return func(w *csv.Writer) {
		w.Comma = comma
	}
}

// WithUseCRLF sets whether to use \r\n as the line terminator.
func WithUseCRLF(useCRLF bool) WriterOption {
	return func(w *csv.Writer) {
		w.UseCRLF = useCRLF
	}
}

func newWriter(w io.Writer, opts []WriterOption) *csv.Writer {
	writer := csv.NewWriter(w)
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// Encode creates a Transformer that encodes each record to one CSV line.
func Encode(opts ...WriterOption) core.Transformer[[]string, []byte] {
	return core.Map(func(record []string) ([]byte, error) {
		var buf bytes.Buffer
		writer := newWriter(&buf, opts)
		if err := writer.Write(record); err != nil {
			return nil, err
		}
		writer.Flush()
		return buf.Bytes(), writer.Error()
	})
}

// WriteRecordsTo creates a Transformer that writes each record to w and
// passes it on. Every record is flushed before it is passed on.
func WriteRecordsTo(w io.Writer, opts ...WriterOption) core.Transformer[[]string, []string] {
	var mu sync.Mutex
	writer := newWriter(w, opts)
	return core.Map(func(record []string) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		if err := writer.Write(record); err != nil {
			return nil, err
		}
		writer.Flush()
		return record, writer.Error()
	})
}
