// Package benchmarks compares min-rx against channel-based and slice-based
// Go stream libraries, and measures the push paths only min-rx has.
package benchmarks

import (
	"context"
	"testing"
)

const MediumSize = 1_000

var sizes = []struct {
	name string
	n    int
}{
	{"small", 100},
	{"medium", MediumSize},
	{"large", 10_000},
}

var ctx = context.Background()

// contender is one implementation of a benchmarked operation over a slice.
type contender struct {
	name string
	run  func(data []int)
}

// compare runs every contender at every size as name/size sub-benchmarks.
func compare(b *testing.B, contenders []contender) {
	for _, c := range contenders {
		b.Run(c.name, func(b *testing.B) {
			for _, size := range sizes {
				data := generateInts(size.n)
				b.Run(size.name, func(b *testing.B) {
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						c.run(data)
					}
				})
			}
		})
	}
}

func generateInts(n int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = i
	}
	return data
}

// min-rx mappers take the (OUT, error) shape.
func squareWithErr(x int) (int, error) { return x * x, nil }

func square(x int) int { return x * x }

func isEven(x int) bool { return x%2 == 0 }

func add(a, b int) int { return a + b }
