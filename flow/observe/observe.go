// Package observe provides observation for push streams: typed hooks
// registered through the context (counters, collectors, logging, metrics)
// and pass-through stages that inspect the envelopes flowing through them.
package observe

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lguimbarda/min-rx/flow/core"
)

// StreamMetrics holds statistics about a stream's execution.
type StreamMetrics struct {
	// Counts
	TotalItems int64
	ValueCount int64
	ErrorCount int64

	// Timing
	StartTime     time.Time
	EndTime       time.Time
	FirstItemTime time.Time
	LastItemTime  time.Time

	// Throughput
	ItemsPerSecond float64

	// Latency (time between items)
	MinLatency time.Duration
	MaxLatency time.Duration
	AvgLatency time.Duration
}

// Duration returns the time between start and completion.
func (m StreamMetrics) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Meter creates a pass-through stage that collects metrics about the
// envelopes it forwards. onComplete is called with the final metrics when
// Completed arrives, before it is forwarded.
func Meter[T any](onComplete func(StreamMetrics)) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("meter")

		var (
			metrics      StreamMetrics
			lastItemTime time.Time
			totalLatency time.Duration
			latencyCount int64
			started      bool
		)

		core.Attach(node, s, func(res core.Result[T]) {
			now := time.Now()
			if !started {
				started = true
				metrics = StreamMetrics{StartTime: now, MinLatency: time.Duration(1<<63 - 1)}
			}

			if res.IsCompleted() {
				metrics.EndTime = now
				if metrics.TotalItems > 0 {
					if d := metrics.EndTime.Sub(metrics.StartTime).Seconds(); d > 0 {
						metrics.ItemsPerSecond = float64(metrics.TotalItems) / d
					}
					if latencyCount > 0 {
						metrics.AvgLatency = totalLatency / time.Duration(latencyCount)
					}
				}
				if latencyCount == 0 {
					metrics.MinLatency = 0
				}
				if onComplete != nil {
					onComplete(metrics)
				}
				node.Push(res)
				return
			}

			metrics.TotalItems++
			if metrics.TotalItems == 1 {
				metrics.FirstItemTime = now
			}
			metrics.LastItemTime = now

			if !lastItemTime.IsZero() {
				latency := now.Sub(lastItemTime)
				metrics.MinLatency = min(metrics.MinLatency, latency)
				metrics.MaxLatency = max(metrics.MaxLatency, latency)
				totalLatency += latency
				latencyCount++
			}
			lastItemTime = now

			if res.IsError() {
				metrics.ErrorCount++
			} else {
				metrics.ValueCount++
			}
			node.Push(res)
		})
		return node
	})
}

// LiveMetrics holds real-time metrics that can be read concurrently.
type LiveMetrics struct {
	totalItems   atomic.Int64
	valueCount   atomic.Int64
	errorCount   atomic.Int64
	completed    atomic.Bool
	startTime    atomic.Int64 // Unix nano
	lastItemTime atomic.Int64 // Unix nano
}

// TotalItems returns the total number of items processed.
func (m *LiveMetrics) TotalItems() int64 { return m.totalItems.Load() }

// ValueCount returns the number of successful values.
func (m *LiveMetrics) ValueCount() int64 { return m.valueCount.Load() }

// ErrorCount returns the number of errors.
func (m *LiveMetrics) ErrorCount() int64 { return m.errorCount.Load() }

// Completed reports whether Completed has passed through.
func (m *LiveMetrics) Completed() bool { return m.completed.Load() }

// StartTime returns when the stage started.
func (m *LiveMetrics) StartTime() time.Time {
	return time.Unix(0, m.startTime.Load())
}

// LastItemTime returns when the last item was processed.
func (m *LiveMetrics) LastItemTime() time.Time {
	return time.Unix(0, m.lastItemTime.Load())
}

// Duration returns how long the stage has been running.
func (m *LiveMetrics) Duration() time.Duration {
	start := m.startTime.Load()
	if start == 0 {
		return 0
	}
	return time.Since(time.Unix(0, start))
}

// ItemsPerSecond returns the current throughput.
func (m *LiveMetrics) ItemsPerSecond() float64 {
	duration := m.Duration().Seconds()
	if duration <= 0 {
		return 0
	}
	return float64(m.TotalItems()) / duration
}

// MeterLive creates a pass-through stage that updates metrics which can be
// read concurrently while the graph is running.
func MeterLive[T any](metrics *LiveMetrics) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("meterlive")
		core.Attach(node, s, func(res core.Result[T]) {
			metrics.startTime.CompareAndSwap(0, time.Now().UnixNano())
			switch res.Kind() {
			case core.KindValue:
				metrics.totalItems.Add(1)
				metrics.valueCount.Add(1)
				metrics.lastItemTime.Store(time.Now().UnixNano())
			case core.KindError:
				metrics.totalItems.Add(1)
				metrics.errorCount.Add(1)
				metrics.lastItemTime.Store(time.Now().UnixNano())
			case core.KindCompleted:
				metrics.completed.Store(true)
			}
			node.Push(res)
		})
		return node
	})
}

// Spy creates a pass-through stage that shows every envelope to inspector,
// including errors and Completed, before forwarding it.
func Spy[T any](inspector func(core.Result[T])) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("spy")
		core.Attach(node, s, func(res core.Result[T]) {
			if inspector != nil {
				inspector(res)
			}
			node.Push(res)
		})
		return node
	})
}

// Tap is Spy for values only. A panic in fn is emitted as an Error in place
// of the value.
func Tap[T any](fn func(T)) core.Transformer[T, T] {
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("tap")
		core.Attach(node, s, func(res core.Result[T]) {
			if res.IsValue() {
				v := res.Value()
				if _, err := core.Recover(func() (struct{}, error) { fn(v); return struct{}{}, nil }); err != nil {
					node.Push(core.Err[T](err))
					return
				}
			}
			node.Push(res)
		})
		return node
	})
}

// Histogram tracks the distribution of values.
type Histogram[T comparable] struct {
	mu     sync.RWMutex
	counts map[T]int64
	total  int64
}

// NewHistogram creates a new histogram.
func NewHistogram[T comparable]() *Histogram[T] {
	return &Histogram[T]{
		counts: make(map[T]int64),
	}
}

// Add records a value.
func (h *Histogram[T]) Add(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[value]++
	h.total++
}

// Count returns the count for a specific value.
func (h *Histogram[T]) Count(value T) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[value]
}

// Total returns the total count.
func (h *Histogram[T]) Total() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Counts returns a copy of all counts.
func (h *Histogram[T]) Counts() map[T]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make(map[T]int64, len(h.counts))
	for k, v := range h.counts {
		result[k] = v
	}
	return result
}

// MeterHistogram creates a pass-through stage that records value
// distribution.
func MeterHistogram[T comparable](histogram *Histogram[T]) core.Transformer[T, T] {
	return Spy(func(res core.Result[T]) {
		if res.IsValue() {
			histogram.Add(res.Value())
		}
	})
}
