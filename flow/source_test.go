package flow_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/lguimbarda/min-rx/flow"
)

func TestFromSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		expected []int
	}{
		{
			name:     "empty slice",
			input:    []int{},
			expected: []int{},
		},
		{
			name:     "single element",
			input:    []int{42},
			expected: []int{42},
		},
		{
			name:     "multiple elements",
			input:    []int{1, 2, 3, 4, 5},
			expected: []int{1, 2, 3, 4, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			stream := flow.FromSlice(tt.input)
			result, err := flow.Slice(ctx, stream)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d elements, got %d", len(tt.expected), len(result))
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("element %d: expected %d, got %d", i, tt.expected[i], v)
				}
			}
		})
	}
}

func TestFromSlice_CopiesInput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	items := []int{1, 2, 3}
	stream := flow.FromSlice(items)
	items[0] = 100

	result, err := flow.Slice(ctx, stream)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(result, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", result)
	}
}

func TestFixedSources(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		stream flow.Stream[int]
		want   []string
	}{
		{"values", flow.FromValues(1, 2, 3), []string{"Value(1)", "Value(2)", "Value(3)", "Completed"}},
		{"just", flow.Just(7), []string{"Value(7)", "Completed"}},
		{"empty", flow.Empty[int](), []string{"Completed"}},
		{"error", flow.FromError[int](boom), []string{"Error(boom)", "Completed"}},
		{"range", flow.Range(2, 5), []string{"Value(2)", "Value(3)", "Value(4)", "Completed"}},
		{"empty range", flow.Range(5, 2), []string{"Completed"}},
		{"repeat", flow.Repeat(9, 2), []string{"Value(9)", "Value(9)", "Completed"}},
		{"negative repeat", flow.Repeat(9, -1), []string{"Completed"}},
		{"iter", flow.FromIter(slices.Values([]int{4, 5})), []string{"Value(4)", "Value(5)", "Completed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			got := render(flow.Collect(ctx, tt.stream))
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromResults_DoesNotComplete(t *testing.T) {
	stream := flow.FromResults(flow.Ok(1), flow.Err[int](errors.New("x")))

	var got []flow.Result[int]
	stream.Subscribe(func(res flow.Result[int]) { got = append(got, res) })
	stream.Start(context.Background())

	if len(got) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(got))
	}
	if !got[0].IsValue() || !got[1].IsError() {
		t.Errorf("unexpected envelopes: %v", got)
	}
}

func TestGenerate(t *testing.T) {
	t.Run("stops when exhausted", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		n := 0
		stream := flow.Generate(func() (int, bool, error) {
			n++
			return n, n <= 3, nil
		})

		result, err := flow.Slice(ctx, stream)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(result, []int{1, 2, 3}) {
			t.Errorf("expected [1 2 3], got %v", result)
		}
	})

	t.Run("errors do not stop generation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		n := 0
		stream := flow.Generate(func() (int, bool, error) {
			n++
			if n == 2 {
				return 0, true, errors.New("skip")
			}
			return n, n < 3, nil
		})

		got := render(flow.Collect(ctx, stream))
		want := []string{"Value(1)", "Error(skip)", "Completed"}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("panic ends generation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		stream := flow.Generate(func() (int, bool, error) {
			panic("generator failed")
		})

		results := flow.Collect(ctx, stream)
		if len(results) != 2 {
			t.Fatalf("expected 2 envelopes, got %v", results)
		}
		var perr flow.ErrPanic
		if !errors.As(results[0].Error(), &perr) {
			t.Errorf("expected ErrPanic, got %v", results[0].Error())
		}
		if !results[1].IsCompleted() {
			t.Error("expected Completed last")
		}
	})
}

func TestDefer(t *testing.T) {
	t.Run("creates stream lazily", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		callCount := 0
		factory := func() flow.Stream[int] {
			callCount++
			return flow.FromSlice([]int{1, 2, 3})
		}

		stream := flow.Defer(factory)

		// Factory should not be called until Start
		if callCount != 0 {
			t.Errorf("expected factory not to be called yet, but was called %d times", callCount)
		}

		result, err := flow.Slice(ctx, stream)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if callCount != 1 {
			t.Errorf("expected factory to be called once, but was called %d times", callCount)
		}

		if len(result) != 3 {
			t.Errorf("expected 3 elements, got %d", len(result))
		}

		stream.Start(ctx)
		if callCount != 1 {
			t.Errorf("restart called the factory again: %d", callCount)
		}
	})

	t.Run("factory panic", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		stream := flow.Defer(func() flow.Stream[int] { panic("no stream") })
		results := flow.Collect(ctx, stream)
		if len(results) != 2 || !results[0].IsError() || !results[1].IsCompleted() {
			t.Errorf("expected Error then Completed, got %v", results)
		}
	})
}

func TestSubject(t *testing.T) {
	subject := flow.NewSubject[string]()

	var got []string
	subject.Subscribe(func(res flow.Result[string]) { got = append(got, res.String()) })

	// Pushes work before Start.
	if err := subject.Emit("a"); err != nil {
		t.Fatal(err)
	}
	subject.Start(context.Background())
	if err := subject.EmitError(errors.New("bad")); err != nil {
		t.Fatal(err)
	}
	if err := subject.Complete(); err != nil {
		t.Fatal(err)
	}

	if err := subject.Emit("b"); !errors.Is(err, flow.ErrCompleted) {
		t.Errorf("Emit after Complete = %v, want ErrCompleted", err)
	}
	if err := subject.Complete(); !errors.Is(err, flow.ErrCompleted) {
		t.Errorf("second Complete = %v, want ErrCompleted", err)
	}

	want := []string{"Value(a)", "Error(bad)", "Completed"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLateListenerSeesNothing(t *testing.T) {
	stream := flow.FromValues(1, 2, 3)
	stream.Start(context.Background())

	var got []flow.Result[int]
	stream.Subscribe(func(res flow.Result[int]) { got = append(got, res) })
	stream.Start(context.Background())

	if len(got) != 0 {
		t.Errorf("late listener received %v", got)
	}
}

func render[T any](results []flow.Result[T]) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.String()
	}
	return out
}
