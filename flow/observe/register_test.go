package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/lguimbarda/min-rx/flow/core"
)

func failOnZero(x int) (int, error) {
	if x == 0 {
		return 0, errors.New("zero")
	}
	return x * 2, nil
}

func TestWithCounter(t *testing.T) {
	ctx, counter := WithCounter[int](context.Background())

	stream := core.Map(failOnZero).Apply(core.FromValues(1, 0, 2))
	_ = core.Collect(ctx, stream)

	// Source and map both count: 2 stages, 3+2 values, 1 error, 2 completions.
	tests := []struct {
		name string
		got  int64
		want int64
	}{
		{"starts", counter.Starts(), 2},
		{"values", counter.Values(), 5},
		{"errors", counter.Errors(), 1},
		{"completed", counter.Completed(), 2},
		{"total", counter.Total(), 6},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestTypedHooksOnlySeeTheirType(t *testing.T) {
	var ints, strs int
	ctx := WithValueHook(context.Background(), func(int) { ints++ })
	ctx = WithValueHook(ctx, func(string) { strs++ })

	toString := core.Map(func(x int) (string, error) { return "x", nil })
	_ = core.Collect(ctx, toString.Apply(core.FromValues(1, 2)))

	if ints != 2 || strs != 2 {
		t.Errorf("ints = %d strs = %d, want 2 and 2", ints, strs)
	}
}

func TestStartAndCompleteHooks(t *testing.T) {
	var stages []string
	completions := 0
	ctx := WithStartHook[int](context.Background(), func(stage string) { stages = append(stages, stage) })
	ctx = WithCompleteHook[int](ctx, func() { completions++ })

	src := core.FromValues(1)
	_ = core.Collect(ctx, src)

	if len(stages) != 1 || stages[0] != src.ID() {
		t.Errorf("stages = %v, want [%s]", stages, src.ID())
	}
	if completions != 1 {
		t.Errorf("completions = %d, want 1", completions)
	}
}

func TestWithErrorCollector(t *testing.T) {
	ctx, collector := WithErrorCollector[int](context.Background())
	ctx = WithErrorHook[int](ctx, func(error) {})

	_ = core.Collect(ctx, core.Map(failOnZero).Apply(core.FromValues(0, 1, 0)))

	if !collector.HasErrors() || collector.Count() != 2 {
		t.Fatalf("collected %d errors, want 2", collector.Count())
	}
	for _, err := range collector.Errors() {
		if err.Error() != "zero" {
			t.Errorf("unexpected error %v", err)
		}
	}
}

func TestWithLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	ctx := WithLogging[int](context.Background(), logger)
	src := core.FromResults(core.Ok(1), core.Err[int](errors.New("bad")), core.Completed[int]())
	_ = core.Collect(ctx, src)

	entries := hook.AllEntries()
	want := []struct {
		level logrus.Level
		msg   string
	}{
		{logrus.InfoLevel, "stage started"},
		{logrus.DebugLevel, "value"},
		{logrus.WarnLevel, "error"},
		{logrus.DebugLevel, "completed"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d log entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Level != w.level || entries[i].Message != w.msg {
			t.Errorf("entry %d = %s %q, want %s %q", i, entries[i].Level, entries[i].Message, w.level, w.msg)
		}
	}
	if entries[0].Data["stage"] != src.ID() {
		t.Errorf("start entry stage = %v, want %s", entries[0].Data["stage"], src.ID())
	}
	if entries[1].Data["value"] != 1 {
		t.Errorf("value entry = %v", entries[1].Data["value"])
	}
}
