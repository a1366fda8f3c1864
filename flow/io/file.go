// Package io provides stream adapters for file I/O operations.
// It enables reading from and writing to files as part of flow pipelines.
package io

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/lguimbarda/min-rx/flow/core"
)

// ReadLines creates a Stream that emits each line from the given file path
// when started, then Completed. Lines are emitted without the trailing
// newline. If the file cannot be opened the stream emits an Error and
// completes.
func ReadLines(path string) core.Stream[string] {
	return core.Emit(func(ctx context.Context, push func(core.Result[string])) {
		defer push(core.Completed[string]())

		file, err := os.Open(path)
		if err != nil {
			push(core.Err[string](err))
			return
		}
		defer file.Close()
		scan(ctx, file, push)
	})
}

// ReadLinesFrom creates a Stream that reads lines from r when started.
// The reader is consumed synchronously on the starting goroutine.
func ReadLinesFrom(r io.Reader) core.Stream[string] {
	return core.Emit(func(ctx context.Context, push func(core.Result[string])) {
		scan(ctx, r, push)
		push(core.Completed[string]())
	})
}

func scan(ctx context.Context, r io.Reader, push func(core.Result[string])) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		push(core.Ok(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		push(core.Err[string](err))
	}
}

// ReadBytes creates a Stream that reads the file in chunks of chunkSize
// bytes. Each chunk is a fresh slice.
func ReadBytes(path string, chunkSize int) core.Stream[[]byte] {
	return core.Emit(func(ctx context.Context, push func(core.Result[[]byte])) {
		defer push(core.Completed[[]byte]())

		file, err := os.Open(path)
		if err != nil {
			push(core.Err[[]byte](err))
			return
		}
		defer file.Close()

		buf := make([]byte, chunkSize)
		for ctx.Err() == nil {
			n, err := file.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				push(core.Ok(chunk))
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				push(core.Err[[]byte](err))
				return
			}
		}
	})
}

// WriteLines creates a Transformer that writes each string to a file, one
// per line, and passes it on. The file is created or truncated when the
// first value arrives and closed on Completed or when the stage is closed.
func WriteLines(path string) core.Transformer[string, string] {
	return WriteLinesWithOptions(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}

// AppendLines is WriteLines without truncation.
func AppendLines(path string) core.Transformer[string, string] {
	return WriteLinesWithOptions(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// WriteLinesWithOptions creates a Transformer that writes lines with custom
// file options. An open failure is emitted as an Error in place of each
// value until the stage completes.
func WriteLinesWithOptions(path string, flag int, perm os.FileMode) core.Transformer[string, string] {
	return core.TransformerFunc[string, string](func(s core.Stream[string]) core.Stream[string] {
		node := core.NewNode[string]("writelines")

		var (
			mu   sync.Mutex
			file *os.File
		)
		release := func() {
			mu.Lock()
			defer mu.Unlock()
			if file != nil {
				_ = file.Close()
				file = nil
			}
		}
		node.Defer(release)

		core.Attach(node, s, func(res core.Result[string]) {
			if res.IsCompleted() {
				release()
			}
			if !res.IsValue() {
				node.Push(res)
				return
			}

			mu.Lock()
			var err error
			if file == nil {
				file, err = os.OpenFile(path, flag, perm)
				if err != nil {
					file = nil
				}
			}
			if err == nil {
				_, err = io.WriteString(file, res.Value()+"\n")
			}
			mu.Unlock()

			if err != nil {
				node.Push(core.Err[string](err))
				return
			}
			node.Push(res)
		})
		return node
	})
}

// WriteTo creates a Transformer that writes each string to w followed by a
// newline and passes it on. Writes are serialized.
func WriteTo(w io.Writer) core.Transformer[string, string] {
	var mu sync.Mutex
	return core.Map(func(line string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		_, err := io.WriteString(w, line+"\n")
		return line, err
	})
}
