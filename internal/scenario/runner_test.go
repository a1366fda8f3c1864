package scenario

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session() *Scenario {
	return &Scenario{
		Name:  "session",
		Carts: []string{"a", "b"},
		Steps: []Step{
			{Command: CommandAdd, Item: "apple", Qty: 2, Price: 1.5},
			{Command: CommandAdd, Item: "pear", Qty: 1, Price: 2},
			{Command: CommandRemove, Item: "kiwi"},
			{Command: "checkout"},
			{Command: CommandSwitch, Cart: "b"},
			{Command: CommandAdd, Item: "milk", Qty: 1, Price: 1, Cart: "a"},
			{Command: CommandAdd, Item: "bread", Qty: 2, Price: 2.5},
		},
	}
}

func containsError(errs []error, target error) bool {
	return lo.ContainsBy(errs, func(err error) bool { return errors.Is(err, target) })
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := Run(ctx, session(), Options{Window: 10 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, "session", report.Name)
	assert.Equal(t, 5, report.Applied)
	require.Len(t, report.Rejected, 2)
	assert.True(t, containsError(report.Rejected, ErrUnknownItem))
	assert.True(t, containsError(report.Rejected, ErrUnknownCommand))

	// Cart a reaches 3 then 5; the switch shows b at 0; milk goes to a and
	// is not seen; bread brings b to 5.
	assert.Equal(t, []float64{3, 5, 0, 5}, report.Totals)

	assert.Equal(t, []string{
		"#1 add apple x2 @1.50",
		"#2 add pear x1 @2.00",
		"#5 switch b",
		"#6 add milk x1 @1.00",
		"#7 add bread x2 @2.50",
	}, lo.Flatten(report.Journal))

	assert.Equal(t, map[string]float64{"a": 6, "b": 5}, report.Final)
	assert.Zero(t, report.Persisted)
}

func TestRun_Persists(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	report, err := Run(ctx, session(), Options{Window: 10 * time.Millisecond, DB: db})
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.Persisted)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM journal WHERE scenario = ?`, "session").Scan(&count))
	assert.Equal(t, 5, count)

	var command, cart string
	require.NoError(t, db.QueryRow(`SELECT command, cart FROM journal WHERE seq = 5`).Scan(&command, &cart))
	assert.Equal(t, CommandSwitch, command)
	assert.Equal(t, "b", cart)
}

func TestRun_JSONJournal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	_, err := Run(ctx, session(), Options{Window: 10 * time.Millisecond, Journal: &buf})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.JSONEq(t, `{"seq":1,"command":"add","item":"apple","qty":2,"price":1.5}`, lines[0])
	assert.JSONEq(t, `{"seq":5,"command":"switch","cart":"b"}`, lines[2])
}

func TestRun_Logs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := Run(ctx, session(), Options{Window: 10 * time.Millisecond, Logger: logger})
	require.NoError(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "scenario finished", last.Message)
	assert.Equal(t, "session", last.Data["scenario"])
	assert.Equal(t, 5, last.Data["applied"])

	warnings := lo.Filter(hook.AllEntries(), func(e *logrus.Entry, _ int) bool {
		return e.Level == logrus.WarnLevel
	})
	assert.NotEmpty(t, warnings, "rejected steps are logged as errors")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sc := &Scenario{
		Name:  "slow",
		Carts: []string{"a"},
		Steps: []Step{
			{Command: CommandAdd, Item: "apple", Qty: 1, Price: 1},
			{Command: CommandWait, Wait: time.Second},
		},
	}
	_, err := Run(ctx, sc, Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
