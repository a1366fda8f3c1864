package property

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/lguimbarda/min-rx/flow/core"
)

type address struct {
	core.Observable
	city string
}

func (a *address) City() string { return a.city }

func (a *address) SetCity(city string) {
	a.city = city
	a.Changed("City")
}

type person struct {
	core.Observable
	name    string
	address *address
	Label   string
}

func (p *person) Name() string { return p.name }

func (p *person) SetName(name string) {
	p.name = name
	p.Changed("Name")
}

func (p *person) Address() *address { return p.address }

func (p *person) SetAddress(a *address) {
	p.address = a
	p.Changed("Address")
}

// record subscribes to s, starts it and returns the envelopes it delivers.
func record[T any](s core.Stream[T]) *[]core.Result[T] {
	var got []core.Result[T]
	s.Subscribe(func(res core.Result[T]) { got = append(got, res) })
	s.Start(context.Background())
	return &got
}

func values[T any](results []core.Result[T]) []T {
	var out []T
	for _, r := range results {
		if r.IsValue() {
			out = append(out, r.Value())
		}
	}
	return out
}

func TestOfRebindsToLatestHost(t *testing.T) {
	hosts := core.NewSubject[*person]()
	got := record(Of("Name", (*person).Name).Apply(hosts))

	x := &person{name: "X"}
	_ = hosts.Emit(x)
	x.SetName("Y")

	z := &person{name: "Z"}
	_ = hosts.Emit(z)
	x.SetName("ignored")
	z.SetName("Z")

	want := []string{"X", "Y", "Z"}
	if v := values(*got); !reflect.DeepEqual(v, want) {
		t.Errorf("values = %v, want %v", v, want)
	}
	if x.Watchers() != 0 {
		t.Errorf("discarded host has %d watchers", x.Watchers())
	}
	if z.Watchers() != 1 {
		t.Errorf("current host has %d watchers, want 1", z.Watchers())
	}
}

func TestOfIgnoresOtherAttributes(t *testing.T) {
	hosts := core.NewSubject[*person]()
	got := record(Of("Name", (*person).Name).Apply(hosts))

	p := &person{name: "a"}
	_ = hosts.Emit(p)
	p.name = "b"
	p.Changed("Address")
	p.Changed("Name")

	want := []string{"a", "b"}
	if v := values(*got); !reflect.DeepEqual(v, want) {
		t.Errorf("values = %v, want %v", v, want)
	}
}

func TestOfNilHostEmitsZero(t *testing.T) {
	hosts := core.NewSubject[*person]()
	got := record(Of("Name", (*person).Name).Apply(hosts))

	_ = hosts.Emit(&person{name: "a"})
	_ = hosts.Emit(nil)

	want := []string{"a", ""}
	if v := values(*got); !reflect.DeepEqual(v, want) {
		t.Errorf("values = %v, want %v", v, want)
	}
}

func TestOfCompletedUnbinds(t *testing.T) {
	hosts := core.NewSubject[*person]()
	got := record(Of("Name", (*person).Name).Apply(hosts))

	p := &person{name: "a"}
	_ = hosts.Emit(p)
	_ = hosts.Complete()
	p.SetName("b")

	if len(*got) != 2 || !(*got)[1].IsCompleted() {
		t.Fatalf("got %v, want [a Completed]", *got)
	}
	if p.Watchers() != 0 {
		t.Errorf("host still has %d watchers after Completed", p.Watchers())
	}
}

func TestOfForwardsErrors(t *testing.T) {
	boom := errors.New("boom")
	hosts := core.NewSubject[*person]()
	got := record(Of("Name", (*person).Name).Apply(hosts))

	_ = hosts.EmitError(boom)

	if len(*got) != 1 || !errors.Is((*got)[0].Error(), boom) {
		t.Errorf("got %v, want the upstream error", *got)
	}
}

func TestOfFuncGetterFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		get   func(*person) (int, error)
		check func(error) bool
	}{
		{
			name:  "error",
			get:   func(*person) (int, error) { return 0, boom },
			check: func(err error) bool { return errors.Is(err, boom) },
		},
		{
			name: "panic",
			get:  func(*person) (int, error) { panic("getter") },
			check: func(err error) bool {
				var p core.ErrPanic
				return errors.As(err, &p)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hosts := core.NewSubject[*person]()
			got := record(OfFunc("Name", tt.get, nil).Apply(hosts))
			_ = hosts.Emit(&person{})
			if len(*got) != 1 || !(*got)[0].IsError() || !tt.check((*got)[0].Error()) {
				t.Errorf("got %v", *got)
			}
		})
	}
}

func TestOfFuncEqualsPanic(t *testing.T) {
	hosts := core.NewSubject[*person]()
	stage := OfFunc("Name", func(p *person) (string, error) { return p.Name(), nil },
		func(a, b string) bool { panic("bad equals") })
	got := record(stage.Apply(hosts))

	a := &person{name: "A"}
	_ = hosts.Emit(a)
	a.SetName("X")

	if len(*got) != 2 || !(*got)[1].IsError() {
		t.Fatalf("got %v, want Value(A) then an Error", *got)
	}
	var p core.ErrPanic
	if !errors.As((*got)[1].Error(), &p) {
		t.Errorf("error = %v, want ErrPanic", (*got)[1].Error())
	}

	// The stage keeps working after the fault.
	_ = hosts.Emit(&person{name: "B"})
	if v := values(*got); len(v) != 2 || v[1] != "B" {
		t.Errorf("values = %v, want [A B]", v)
	}
}

func TestOfUncomparableDynamicValue(t *testing.T) {
	hosts := core.NewSubject[*person]()
	got := record(Of("Label", func(p *person) any { return []string{p.Label} }).Apply(hosts))

	h := &person{Label: "x"}
	_ = hosts.Emit(h)
	h.Changed("Label")

	if len(*got) != 2 || !(*got)[0].IsValue() || !(*got)[1].IsError() {
		t.Errorf("got %v, want a value then an Error from the comparison", *got)
	}
}
