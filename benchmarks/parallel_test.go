package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/destel/rill"
	"github.com/lguimbarda/min-rx/flow"
	"github.com/lguimbarda/min-rx/flow/core"
	"github.com/lguimbarda/min-rx/flow/parallel"
	lop "github.com/samber/lo/parallel"
)

// =============================================================================
// Parallel Map Benchmarks - producers slow enough to be worth spreading out
// =============================================================================

func expensiveSquare(x int) int {
	time.Sleep(time.Microsecond)
	return x * x
}

func expensiveSquareCtx(_ context.Context, x int) (int, error) {
	return expensiveSquare(x), nil
}

var workerCounts = []int{1, 2, 4, 8, 16}

// byWorkers runs one sub-benchmark per worker count over MediumSize values.
func byWorkers(b *testing.B, run func(data []int, workers int)) {
	data := generateInts(MediumSize)
	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				run(data, workers)
			}
		})
	}
}

func BenchmarkParallelMap_MinRx(b *testing.B) {
	byWorkers(b, func(data []int, workers int) {
		mapped := parallel.Concurrent(expensiveSquareCtx,
			parallel.WithWorkers(workers),
			parallel.DrainBeforeComplete(),
		).Apply(flow.FromSlice(data))
		_, _ = core.Slice(ctx, mapped)
	})
}

func BenchmarkParallelMap_Rill(b *testing.B) {
	byWorkers(b, func(data []int, workers int) {
		mapped := rill.Map(rill.FromSlice(data, nil), workers, func(x int) (int, error) {
			return expensiveSquare(x), nil
		})
		_, _ = rill.ToSlice(mapped)
	})
}

// Unbounded: one goroutine per value.
func BenchmarkParallelMap_MinRx_Unbounded(b *testing.B) {
	data := generateInts(MediumSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		mapped := parallel.Concurrent(expensiveSquareCtx, parallel.DrainBeforeComplete()).Apply(flow.FromSlice(data))
		_, _ = core.Slice(ctx, mapped)
	}
}

// Sequential keeps input order with one producer in flight.
func BenchmarkParallelMap_MinRx_Sequential(b *testing.B) {
	data := generateInts(MediumSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		mapped := parallel.Sequential(expensiveSquareCtx, parallel.DrainBeforeComplete()).Apply(flow.FromSlice(data))
		_, _ = core.Slice(ctx, mapped)
	}
}

// lo's parallel Map always uses one goroutine per element.
func BenchmarkParallelMap_Lo(b *testing.B) {
	data := generateInts(MediumSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = lop.Map(data, func(x, _ int) int { return expensiveSquare(x) })
	}
}

func BenchmarkParallelMap_RawLoop(b *testing.B) {
	data := generateInts(MediumSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		out := make([]int, len(data))
		for j, x := range data {
			out[j] = expensiveSquare(x)
		}
		_ = out
	}
}
