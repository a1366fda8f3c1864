package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/lguimbarda/min-rx/internal/scenario"
)

// reportJSON is the json rendering of a scenario.Report.
type reportJSON struct {
	Name      string             `json:"name"`
	Applied   int                `json:"applied"`
	Rejected  []string           `json:"rejected"`
	Totals    []float64          `json:"totals"`
	Journal   [][]string         `json:"journal"`
	Persisted int64              `json:"persisted,omitempty"`
	Final     map[string]float64 `json:"final"`
}

func writeReport(w io.Writer, format string, r *scenario.Report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reportJSON{
			Name:      r.Name,
			Applied:   r.Applied,
			Rejected:  lo.Map(r.Rejected, func(err error, _ int) string { return err.Error() }),
			Totals:    r.Totals,
			Journal:   r.Journal,
			Persisted: r.Persisted,
			Final:     r.Final,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s: %d applied, %d rejected\n", r.Name, r.Applied, len(r.Rejected))
	fmt.Fprintf(&b, "totals: %s\n", strings.Join(lo.Map(r.Totals, func(v float64, _ int) string {
		return fmt.Sprintf("%.2f", v)
	}), " "))
	for i, batch := range r.Journal {
		fmt.Fprintf(&b, "batch %d: %s\n", i+1, strings.Join(batch, ", "))
	}
	for _, err := range r.Rejected {
		fmt.Fprintf(&b, "rejected: %v\n", err)
	}
	carts := lo.Keys(r.Final)
	sort.Strings(carts)
	for _, name := range carts {
		fmt.Fprintf(&b, "cart %s: %.2f\n", name, r.Final[name])
	}
	if r.Persisted > 0 {
		fmt.Fprintf(&b, "persisted: %d\n", r.Persisted)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
