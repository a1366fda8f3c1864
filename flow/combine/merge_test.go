package combine_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/lguimbarda/min-rx/flow"
	"github.com/lguimbarda/min-rx/flow/combine"
	"github.com/lguimbarda/min-rx/flow/core"
)

func TestMergeUsesLastKnownValues(t *testing.T) {
	a := flow.NewSubject[int]()
	b := flow.NewSubject[int]()
	merged := combine.Merge(func(v []int) int { return v[0]*10 + v[1] }, a, b)

	var got []int
	merged.OnResult(func(v int) { got = append(got, v) }).Start(context.Background())

	_ = a.Emit(1) // b still zero
	_ = b.Emit(2)
	_ = b.Emit(3)
	_ = a.Emit(4)

	want := []int{10, 12, 13, 43}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMergeForwardsTerminalsAndResetsSlot(t *testing.T) {
	boom := errors.New("boom")
	a := flow.NewSubject[int]()
	b := flow.NewSubject[int]()
	merged := combine.Merge(func(v []int) int { return v[0] + v[1] }, a, b)

	var envelopes []flow.Result[int]
	merged.Subscribe(func(res flow.Result[int]) { envelopes = append(envelopes, res) })
	merged.Start(context.Background())

	_ = a.Emit(5)
	_ = b.Emit(1)
	_ = a.EmitError(boom) // resets slot 0
	_ = b.Emit(2)
	_ = b.Complete() // forwarded without waiting for a

	if len(envelopes) != 5 {
		t.Fatalf("got %d envelopes: %v", len(envelopes), envelopes)
	}
	if envelopes[1].Value() != 6 {
		t.Errorf("envelopes[1] = %v, want 6", envelopes[1])
	}
	if !errors.Is(envelopes[2].Error(), boom) {
		t.Errorf("envelopes[2] = %v, want boom", envelopes[2])
	}
	if envelopes[3].Value() != 2 {
		t.Errorf("envelopes[3] = %v, want 2 after the reset", envelopes[3])
	}
	if !envelopes[4].IsCompleted() {
		t.Errorf("envelopes[4] = %v, want Completed", envelopes[4])
	}
}

func TestMergeCombinePanic(t *testing.T) {
	merged := combine.Merge(func(v []int) int { panic("no") }, flow.FromValues(1))
	results := flow.Collect(context.Background(), merged)
	var pe core.ErrPanic
	if len(results) != 2 || !errors.As(results[0].Error(), &pe) {
		t.Errorf("results = %v, want ErrPanic then Completed", results)
	}
}

func TestCombineLatest(t *testing.T) {
	a := flow.NewSubject[string]()
	b := flow.NewSubject[string]()
	var got [][]string
	combine.CombineLatest(a, b).
		OnResult(func(v []string) { got = append(got, v) }).
		Start(context.Background())

	_ = a.Emit("x")
	_ = b.Emit("y")

	if len(got) != 2 || !slices.Equal(got[0], []string{"x", ""}) || !slices.Equal(got[1], []string{"x", "y"}) {
		t.Errorf("got %v", got)
	}
}

func TestConcatIsBroadcast(t *testing.T) {
	a := flow.NewSubject[int]()
	b := flow.NewSubject[int]()
	var envelopes []string
	c := combine.Concat(a, b)
	c.Subscribe(func(res flow.Result[int]) { envelopes = append(envelopes, res.String()) })
	c.Start(context.Background())

	_ = b.Emit(2)
	_ = a.Emit(1)
	_ = a.Complete()
	_ = b.Emit(3)

	want := []string{
		flow.Ok(2).String(),
		flow.Ok(1).String(),
		flow.Completed[int]().String(),
		flow.Ok(3).String(),
	}
	if !slices.Equal(envelopes, want) {
		t.Errorf("got %v, want %v", envelopes, want)
	}
}

func TestUnion(t *testing.T) {
	got, err := flow.Slice(context.Background(), combine.Union(
		flow.FromValues(1, 2),
		flow.FromValues(3),
		flow.Empty[int](),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}

	results := flow.Collect(context.Background(), combine.Union[int]())
	if len(results) != 1 || !results[0].IsCompleted() {
		t.Errorf("empty union = %v, want [Completed]", results)
	}
}
