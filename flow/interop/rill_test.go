package interop

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/destel/rill"

	"github.com/lguimbarda/min-rx/flow/core"
)

func TestToRill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	src := core.FromValues(1, 2, 3, 4)
	doubled := rill.Map(ToRill(ctx, src, 2), 1, func(x int) (int, error) {
		return x * 2, nil
	})
	got, err := rill.ToSlice(doubled)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{2, 4, 6, 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestToRillForwardsErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	boom := errors.New("boom")
	src := core.FromResults(core.Ok(1), core.Err[int](boom), core.Ok(2), core.Completed[int]())

	var items []rill.Try[int]
	for item := range ToRill(ctx, src, 0) {
		items = append(items, item)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].Value != 1 || !errors.Is(items[1].Error, boom) || items[2].Value != 2 {
		t.Errorf("items = %+v", items)
	}
}

func TestToRillClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := core.NewSubject[int]()
	out := ToRill[int](ctx, src, 1)

	cancel()
	select {
	case _, ok := <-out:
		for ok {
			_, ok = <-out
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	deadline := time.Now().Add(time.Second)
	for src.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if src.Len() != 0 {
		t.Errorf("bridge still subscribed after cancel")
	}
}

func TestFromRill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	boom := errors.New("boom")
	in := rill.Map(rill.FromSlice([]int{1, 2, 3}, nil), 1, func(x int) (int, error) {
		if x == 2 {
			return 0, boom
		}
		return x * 10, nil
	})

	results := core.Collect(ctx, FromRill(in))
	if len(results) != 4 {
		t.Fatalf("got %v, want 4 envelopes", results)
	}
	if results[0].Value() != 10 || !errors.Is(results[1].Error(), boom) ||
		results[2].Value() != 30 || !results[3].IsCompleted() {
		t.Errorf("results = %v", results)
	}
}

func TestFromRillCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan rill.Try[int])

	done := make(chan []core.Result[int], 1)
	go func() { done <- core.Collect(ctx, FromRill(in)) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case results := <-done:
		for _, res := range results {
			if res.IsValue() {
				t.Errorf("unexpected value %v", res)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("Collect did not return after cancel")
	}
	close(in)
}

func TestRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := core.Slice(ctx, FromRill(ToRill(ctx, core.FromValues("a", "b", "c"), 0)))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
