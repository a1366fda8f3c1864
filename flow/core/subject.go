package core

import (
	"sync"
	"sync/atomic"
)

// Subject is an externally fed source: callers push envelopes into it with
// Emit, EmitError and Complete. Pushes go straight to the listeners attached
// at that moment; nothing is buffered or replayed, before or after Start.
//
// Sends are serialized. Whichever caller finds the subject idle delivers,
// and envelopes sent meanwhile (from other goroutines or from a listener
// of this subject) are queued and delivered by it in send order. Such a
// Send may return before its envelope reaches the listeners. Completed is
// always the last envelope delivered.
type Subject[T any] struct {
	*Node[T]

	sendMu   sync.Mutex
	queue    []Result[T]
	draining bool

	completed atomic.Bool
}

// NewSubject creates an open sink.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{Node: NewNode[T]("subject")}
}

// Emit pushes a value. It returns ErrCompleted once Complete has been called.
func (s *Subject[T]) Emit(value T) error {
	return s.Send(Ok(value))
}

// EmitError pushes an error envelope.
func (s *Subject[T]) EmitError(err error) error {
	return s.Send(Err[T](err))
}

// Complete pushes Completed. Only the first call has any effect.
func (s *Subject[T]) Complete() error {
	return s.Send(Completed[T]())
}

// Send pushes an arbitrary envelope.
func (s *Subject[T]) Send(res Result[T]) error {
	s.sendMu.Lock()
	if s.completed.Load() {
		s.sendMu.Unlock()
		return ErrCompleted
	}
	if res.IsCompleted() {
		s.completed.Store(true)
	}
	s.queue = append(s.queue, res)
	if s.draining {
		s.sendMu.Unlock()
		return nil
	}
	s.draining = true
	s.sendMu.Unlock()

	s.drain()
	return nil
}

// drain delivers queued envelopes until the queue is empty. A panicking
// listener drops whatever is still queued and frees the subject for the
// next sender.
func (s *Subject[T]) drain() {
	done := false
	defer func() {
		if !done {
			s.sendMu.Lock()
			s.queue, s.draining = nil, false
			s.sendMu.Unlock()
		}
	}()

	s.sendMu.Lock()
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = Result[T]{}
		s.queue = s.queue[1:]
		s.sendMu.Unlock()

		s.Push(next)

		s.sendMu.Lock()
	}
	s.queue, s.draining = s.queue[:0], false
	s.sendMu.Unlock()
	done = true
}

// IsCompleted reports whether Complete has been called.
func (s *Subject[T]) IsCompleted() bool {
	return s.completed.Load()
}
