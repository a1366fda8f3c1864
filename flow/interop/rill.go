// Package interop bridges push streams and rill's channel pipelines.
package interop

import (
	"context"
	"sync"

	"github.com/destel/rill"

	"github.com/lguimbarda/min-rx/flow/core"
)

// ToRill starts s and forwards its envelopes into a rill stream: values and
// errors become rill.Try items and Completed closes the channel. The
// returned channel holds up to buffer items; beyond that, the goroutine
// emitting into s blocks until the consumer catches up or ctx ends. When ctx
// ends the bridge detaches from s and closes the channel.
//
// s is started on a new goroutine, so a synchronous source does not block
// the caller of ToRill.
func ToRill[T any](ctx context.Context, s core.Stream[T], buffer int) <-chan rill.Try[T] {
	if buffer < 0 {
		buffer = 0
	}
	out := make(chan rill.Try[T], buffer)

	var (
		mu     sync.Mutex
		closed bool
		done   = make(chan struct{})
	)
	// finish runs under mu.
	finish := func() {
		if !closed {
			closed = true
			close(out)
			close(done)
		}
	}

	sub := s.Subscribe(func(res core.Result[T]) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		var item rill.Try[T]
		switch res.Kind() {
		case core.KindValue:
			item.Value = res.Value()
		case core.KindError:
			item.Error = res.Error()
		case core.KindCompleted:
			finish()
			return
		}
		select {
		case out <- item:
		case <-ctx.Done():
			finish()
		}
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		sub.Unsubscribe()
		mu.Lock()
		finish()
		mu.Unlock()
	}()
	go s.Start(ctx)
	return out
}

// FromRill turns a rill stream into a push source. Items are read on a
// goroutine started by Start and emitted through the stage's serializer:
// rill.Try values become Value envelopes, errors become Error envelopes and
// the channel closing becomes Completed. If the start context ends first the
// stage emits the context error and Completed, then drains in in the
// background so that upstream rill stages can finish.
func FromRill[T any](in <-chan rill.Try[T]) core.Stream[T] {
	node := core.NewNode[T]("rill")
	node.SetStart(func(ctx context.Context) {
		ser := core.NewSerializer(ctx)
		go func() {
			for {
				select {
				case item, ok := <-in:
					if !ok {
						ser.Do(func() { node.Push(core.Completed[T]()) })
						return
					}
					res := core.Ok(item.Value)
					if item.Error != nil {
						res = core.Err[T](item.Error)
					}
					ser.Do(func() { node.Push(res) })
				case <-ctx.Done():
					err := ctx.Err()
					ser.Do(func() {
						node.Push(core.Err[T](err))
						node.Push(core.Completed[T]())
					})
					rill.DrainNB(in)
					return
				}
			}
		}()
	})
	return node
}
