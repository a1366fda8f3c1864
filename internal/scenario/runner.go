package scenario

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/lguimbarda/min-rx/flow"
	"github.com/lguimbarda/min-rx/flow/binding"
	"github.com/lguimbarda/min-rx/flow/core"
	"github.com/lguimbarda/min-rx/flow/dispatch"
	"github.com/lguimbarda/min-rx/flow/flowerrors"
	jsonflow "github.com/lguimbarda/min-rx/flow/json"
	"github.com/lguimbarda/min-rx/flow/observe"
	"github.com/lguimbarda/min-rx/flow/parallel"
	sqlflow "github.com/lguimbarda/min-rx/flow/sql"
	"github.com/lguimbarda/min-rx/flow/timing"
	"github.com/lguimbarda/min-rx/flow/transform"
)

const (
	createJournal = `CREATE TABLE IF NOT EXISTS journal (
		scenario TEXT NOT NULL,
		seq      INTEGER NOT NULL,
		command  TEXT NOT NULL,
		cart     TEXT,
		item     TEXT,
		qty      INTEGER,
		price    REAL
	)`
	insertJournal = `INSERT INTO journal (scenario, seq, command, cart, item, qty, price) VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// Options configures a run.
type Options struct {
	// Window is the journal batching window. 0 uses timing.DefaultWindow.
	Window time.Duration
	// Rate caps applied commands per second. 0 is unlimited.
	Rate int
	// DB, when set, receives one journal row per applied command.
	DB *sql.DB
	// Journal, when set, receives one JSON line per applied command.
	Journal io.Writer
	// Logger receives stage logs. Nil discards them.
	Logger logrus.FieldLogger
}

// Event is a step numbered in feed order.
type Event struct {
	Seq int `json:"seq"`
	Step
}

func (e Event) String() string {
	return fmt.Sprintf("#%d %s", e.Seq, e.Step)
}

// Report is what a run produced.
type Report struct {
	Name string
	// Applied counts the commands the view-model accepted.
	Applied int
	// Rejected holds invalid steps and commands the view-model refused.
	Rejected []error
	// Totals lists the selected cart's total each time it changed,
	// including changes caused by switching carts.
	Totals []float64
	// Journal holds applied commands in the batches the buffer emitted.
	Journal [][]string
	// Persisted counts journal rows written to the database.
	Persisted int64
	// Final is the total of every cart at the end of the run.
	Final map[string]float64
}

type recorder struct {
	mu     sync.Mutex
	report Report
}

func (r *recorder) do(fn func(*Report)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.report)
}

// Run replays sc. The graph is:
//
//	commands (subject) -> validate -> apply (sequential) -> journal (buffer)
//	                                                      -> persist (sql, optional)
//	                                                      -> json lines (optional)
//	view-model Total binding -> distinct -> totals
//
// Run returns once every applied command has reached the journal, or with
// ctx.Err() if ctx ends first.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField("scenario", sc.Name)

	vm, err := NewViewModel(sc.Carts)
	if err != nil {
		return nil, err
	}
	defer vm.Close()

	loop := dispatch.NewLoop()
	defer loop.Close()

	ctx = dispatch.With(ctx, loop)
	ctx = core.WithConfig(ctx, &parallel.Config{RatePerSecond: opts.Rate})
	ctx = core.WithConfig(ctx, timing.NewConfig(timing.WithWindow(opts.Window)))
	ctx = observe.WithLogging[Event](ctx, logger)
	ctx = observe.WithLogging[float64](ctx, logger)

	if opts.DB != nil {
		if err := flow.Run(ctx, sqlflow.ExecOnce(opts.DB, createJournal)); err != nil {
			return nil, fmt.Errorf("failed to create journal table: %w", err)
		}
	}

	rec := &recorder{report: Report{Name: sc.Name}}
	reject := func(err error) {
		rec.do(func(r *Report) { r.Rejected = append(r.Rejected, err) })
	}

	// Command sink, owned here and fed below.
	commands := flow.NewSubject[Step]()

	seq := 0
	events := flow.Map(func(s Step) (Event, error) {
		seq++
		if err := s.Validate(); err != nil {
			return Event{}, fmt.Errorf("step %d: %w", seq, err)
		}
		return Event{Seq: seq, Step: s}, nil
	}).Apply(commands)
	events.OnError(reject)

	applied := parallel.Sequential(func(_ context.Context, ev Event) (Event, error) {
		if err := vm.Apply(ev.Step); err != nil {
			return Event{}, fmt.Errorf("step %d: %w", ev.Seq, err)
		}
		return ev, nil
	}, parallel.DrainBeforeComplete()).Apply(flowerrors.IgnoreErrors[Event]().Apply(events))

	var (
		inflight sync.WaitGroup
		done     = make(chan struct{})
	)
	applied.Subscribe(func(res flow.Result[Event]) {
		switch res.Kind() {
		case core.KindValue:
			inflight.Add(1)
			rec.do(func(r *Report) { r.Applied++ })
		case core.KindError:
			reject(res.Error())
		case core.KindCompleted:
			close(done)
		}
	})

	journal := timing.Buffer(0, func(items []Event) []string {
		return lo.Map(items, func(e Event, _ int) string { return e.String() })
	}).Apply(applied)
	journal.OnResult(func(batch []string) {
		rec.do(func(r *Report) { r.Journal = append(r.Journal, batch) })
		inflight.Add(-len(batch))
	})

	totals := transform.DistinctComparable[float64]().Apply(binding.ToStream(vm.Total))
	totals.OnResult(func(v float64) {
		rec.do(func(r *Report) { r.Totals = append(r.Totals, v) })
	})

	tails := []interface{ Start(context.Context) }{totals, journal}
	if opts.DB != nil {
		persisted := sqlflow.Exec(opts.DB, insertJournal, func(e Event) []any {
			return []any{sc.Name, e.Seq, e.Command, e.Cart, e.Item, e.Qty, e.Price}
		}).Apply(applied)
		persisted.OnResult(func(res sqlflow.ExecResult) {
			rec.do(func(r *Report) { r.Persisted += res.RowsAffected })
		})
		persisted.OnError(reject)
		tails = append(tails, persisted)
	}
	if opts.Journal != nil {
		written := jsonflow.WriteLines[Event](opts.Journal).Apply(applied)
		written.OnError(reject)
		tails = append(tails, written)
	}
	for _, tail := range tails {
		tail.Start(ctx)
	}
	defer func() {
		_ = core.CloseStream(totals)
		_ = core.CloseStream(journal)
	}()

	if err := feed(ctx, commands, sc.Steps); err != nil {
		return nil, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	drained := make(chan struct{})
	go func() {
		inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	loop.Flush()

	var report Report
	rec.do(func(r *Report) {
		r.Final = vm.Totals()
		report = *r
	})
	logger.WithFields(logrus.Fields{
		"applied":  report.Applied,
		"rejected": len(report.Rejected),
	}).Info("scenario finished")
	return &report, nil
}

// feed pushes steps into the sink, pausing on wait steps, and completes it.
func feed(ctx context.Context, commands *flow.Subject[Step], steps []Step) error {
	for _, step := range steps {
		if step.Command == CommandWait && step.Wait > 0 {
			select {
			case <-time.After(step.Wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if err := commands.Emit(step); err != nil {
			return err
		}
	}
	return commands.Complete()
}
