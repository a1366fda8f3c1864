package property

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lguimbarda/min-rx/flow/core"
)

func TestResolve(t *testing.T) {
	hostType := reflect.TypeOf(&person{})
	tests := []struct {
		path    string
		wantErr bool
		outs    []reflect.Type
	}{
		{path: "Name", outs: []reflect.Type{reflect.TypeOf("")}},
		{path: "Label", outs: []reflect.Type{reflect.TypeOf("")}},
		{path: "Address.City", outs: []reflect.Type{reflect.TypeOf(&address{}), reflect.TypeOf("")}},
		{path: "", wantErr: true},
		{path: "Missing", wantErr: true},
		{path: "name", wantErr: true},
		{path: "Address.Street", wantErr: true},
		{path: "Address..City", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			accs, err := Resolve(hostType, tt.path)
			if tt.wantErr {
				var pe *PathError
				if !errors.As(err, &pe) {
					t.Fatalf("err = %v, want *PathError", err)
				}
				if pe.Path != tt.path {
					t.Errorf("PathError.Path = %q, want %q", pe.Path, tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(accs) != len(tt.outs) {
				t.Fatalf("got %d accessors, want %d", len(accs), len(tt.outs))
			}
			for i, acc := range accs {
				if acc.Out != tt.outs[i] {
					t.Errorf("accessor %d Out = %v, want %v", i, acc.Out, tt.outs[i])
				}
			}
		})
	}
}

func TestResolveUnknownSegmentIsWrapped(t *testing.T) {
	_, err := Resolve(reflect.TypeOf(&person{}), "Address.Zip")
	if !errors.Is(err, ErrUnknownSegment) {
		t.Fatalf("err = %v, want ErrUnknownSegment", err)
	}
	var pe *PathError
	if errors.As(err, &pe) && pe.Segment != "Zip" {
		t.Errorf("Segment = %q, want Zip", pe.Segment)
	}
}

func TestAccessorNilHost(t *testing.T) {
	accs, err := Resolve(reflect.TypeOf(&person{}), "Label")
	if err != nil {
		t.Fatal(err)
	}
	v, err := accs[0].Get((*person)(nil))
	if err != nil || v != "" {
		t.Errorf("Get(nil) = %v, %v; want zero value", v, err)
	}
}

func TestPathRebindsAlongTheChain(t *testing.T) {
	city, err := Path[*person, string]("Address.City")
	if err != nil {
		t.Fatal(err)
	}
	hosts := core.NewSubject[*person]()
	got := record(city.Apply(hosts))

	home := &address{city: "Lyon"}
	p := &person{address: home}
	_ = hosts.Emit(p)
	home.SetCity("Paris")

	work := &address{city: "Nantes"}
	p.SetAddress(work)
	home.SetCity("stale")
	work.SetCity("Brest")

	_ = hosts.Emit(&person{})

	want := []string{"Lyon", "Paris", "Nantes", "Brest", ""}
	if v := values(*got); !reflect.DeepEqual(v, want) {
		t.Errorf("values = %v, want %v", v, want)
	}
	if home.Watchers() != 0 {
		t.Errorf("replaced address has %d watchers", home.Watchers())
	}
}

func TestPathRejectsWrongValueType(t *testing.T) {
	_, err := Path[*person, int]("Name")
	var pe *PathError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PathError", err)
	}
}

func TestMustPathPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustPath did not panic on an invalid path")
		}
	}()
	MustPath[*person, string]("Nope")
}
