package aggregate

import (
	"context"

	"github.com/lguimbarda/min-rx/flow/core"
)

// AggregateConfig provides configuration for aggregate transformers.
type AggregateConfig struct {
	// BatchSize specifies the default batch size for batching operations.
	// A value of 0 or negative will use the function-level default.
	BatchSize int
}

// WithBatchSize returns a functional option that sets the batch size.
func WithBatchSize(size int) func(*AggregateConfig) {
	return func(c *AggregateConfig) {
		c.BatchSize = size
	}
}

// NewConfig builds an AggregateConfig from options, ready for core.WithConfig.
func NewConfig(opts ...func(*AggregateConfig)) *AggregateConfig {
	cfg := &AggregateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// effectiveBatchSize returns the batch size to use, considering
// context config and the explicitly provided value.
// If size > 0, it takes precedence. Otherwise, config from context is used.
// Returns 0 if neither provides a valid value (caller must handle).
func effectiveBatchSize(ctx context.Context, size int) int {
	if size > 0 {
		return size
	}
	if cfg, ok := core.GetConfig[*AggregateConfig](ctx); ok && cfg.BatchSize > 0 {
		return cfg.BatchSize
	}
	return 0 // Caller must handle zero case (usually panic)
}

// Batch creates a Transformer that collects values into batches of the
// specified size. A full batch is emitted as a slice. The final partial batch
// is emitted before Completed; errors flush the current batch first.
// The size is resolved when the stage starts; if size <= 0 and no context
// config provides a valid size, Start panics.
func Batch[T any](size int) core.Transformer[T, []T] {
	return core.TransformerFunc[T, []T](func(s core.Stream[T]) core.Stream[[]T] {
		node := core.NewNode[[]T]("batch")
		node.SetStart(func(ctx context.Context) {
			batchSize := effectiveBatchSize(ctx, size)
			if batchSize <= 0 {
				panic("Batch size must be > 0")
			}
			batch := make([]T, 0, batchSize)
			flush := func() {
				if len(batch) == 0 {
					return
				}
				batchCopy := make([]T, len(batch))
				copy(batchCopy, batch)
				batch = batch[:0]
				node.Push(core.Ok(batchCopy))
			}

			node.Track(s.Subscribe(func(res core.Result[T]) {
				if !res.IsValue() {
					flush()
					node.Push(core.Retype[[]T](res))
					return
				}
				batch = append(batch, res.Value())
				if len(batch) >= batchSize {
					flush()
				}
			}))
			s.Start(ctx)
		})
		return node
	})
}

// Chunk is an alias of Batch.
func Chunk[T any](size int) core.Transformer[T, []T] {
	return Batch[T](size)
}

// GroupBy groups values by a key function and emits the groups as a single
// map before Completed. This is a collecting operation: it waits for the
// entire stream.
func GroupBy[T any, K comparable](keyFn func(T) K) core.Transformer[T, map[K][]T] {
	return core.TransformerFunc[T, map[K][]T](func(s core.Stream[T]) core.Stream[map[K][]T] {
		fold := Fold(map[K][]T{}, func(groups map[K][]T, item T) map[K][]T {
			key := keyFn(item)
			groups[key] = append(groups[key], item)
			return groups
		})
		return fold.Apply(s)
	})
}
