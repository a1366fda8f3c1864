package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lguimbarda/min-rx/flow/core"
)

// WithMetrics attaches hooks for type T that record OpenTelemetry counters
// on meter: <prefix>.starts, <prefix>.values, <prefix>.errors and
// <prefix>.completed. Measurements carry a "stage" attribute on starts only,
// since the other hooks do not know which stage they observe.
func WithMetrics[T any](ctx context.Context, meter metric.Meter, prefix string) (context.Context, error) {
	starts, err := meter.Int64Counter(prefix+".starts", metric.WithDescription("stages started"))
	if err != nil {
		return ctx, fmt.Errorf("create starts counter: %w", err)
	}
	values, err := meter.Int64Counter(prefix+".values", metric.WithDescription("values emitted"))
	if err != nil {
		return ctx, fmt.Errorf("create values counter: %w", err)
	}
	errs, err := meter.Int64Counter(prefix+".errors", metric.WithDescription("errors emitted"))
	if err != nil {
		return ctx, fmt.Errorf("create errors counter: %w", err)
	}
	completed, err := meter.Int64Counter(prefix+".completed", metric.WithDescription("completions emitted"))
	if err != nil {
		return ctx, fmt.Errorf("create completed counter: %w", err)
	}

	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: func(stage string) {
			starts.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
		},
		OnValue:    func(T) { values.Add(ctx, 1) },
		OnError:    func(error) { errs.Add(ctx, 1) },
		OnComplete: func() { completed.Add(ctx, 1) },
	}), nil
}
