package timing

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/lguimbarda/min-rx/flow/core"
)

// Throttle lets at most burst values through per interval and drops the
// rest. There is no backpressure in the graph, so excess values are
// discarded rather than delayed. Errors and Completed always pass.
func Throttle[T any](interval time.Duration, burst int) core.Transformer[T, T] {
	if burst <= 0 {
		burst = 1
	}
	return core.TransformerFunc[T, T](func(s core.Stream[T]) core.Stream[T] {
		node := core.NewNode[T]("throttle")
		limiter := rate.NewLimiter(rate.Every(interval), burst)
		core.Attach(node, s, func(res core.Result[T]) {
			if res.IsValue() && !limiter.Allow() {
				return
			}
			node.Push(res)
		})
		return node
	})
}
