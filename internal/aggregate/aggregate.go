// Package aggregate collapses a high-frequency sensor table to one row per
// daily key, producing the per-metric summary statistics the merge stage
// joins on. Aggregation is a pure function of its input table.
//
// Standard deviations here and everywhere downstream use the sample
// convention (n-1 divisor). A group with a single observation has std 0, not
// NaN, so missingness never leaks out of a group that was actually observed.
package aggregate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

type group struct {
	key    table.Key
	values map[string][]float64 // metric -> non-null observations
}

// Daily collapses the raw sensor table for src into one row per daily key.
// The input table is not modified. The result is sorted by
// (id, study_interval, day_in_study) and is guaranteed key-unique by
// construction.
func Daily(src schema.Source, raw *table.Table) (*table.Table, error) {
	if src.Daily {
		return nil, fmt.Errorf("source %q is already daily; nothing to aggregate", src.Name)
	}
	if err := checkColumns(src, raw); err != nil {
		return nil, err
	}

	dayCol := "day_in_study"
	if src.DayColumn != "" {
		dayCol = src.DayColumn
	}

	metrics := make(map[string]*table.Column)
	for _, m := range src.MetricColumns {
		metrics[m] = raw.Column(m)
	}

	groups := make(map[table.Key]*group)
	var order []table.Key
	for i := 0; i < raw.NumRows(); i++ {
		k, err := keyAt(raw, dayCol, i)
		if err != nil {
			return nil, fmt.Errorf("source %q row %d: %w", src.Name, i, err)
		}
		g, ok := groups[k]
		if !ok {
			g = &group{key: k, values: make(map[string][]float64)}
			groups[k] = g
			order = append(order, k)
		}
		for m, c := range metrics {
			if v, ok := c.Float(i); ok {
				g.values[m] = append(g.values[m], v)
			}
		}
	}
	sort.Slice(order, func(a, b int) bool { return order[a].Less(order[b]) })

	out := newDailyTable(src, len(order))
	for row, k := range order {
		g := groups[k]
		setKey(out, row, k)
		for _, ac := range src.AggColumns {
			vals := g.values[ac.Metric]
			if len(vals) == 0 {
				continue // stays null; the imputer handles it downstream
			}
			out.Column(ac.Output).SetFloat(row, applyOp(ac.Op, vals))
		}
		if src.CountColumn != "" {
			out.Column(src.CountColumn).SetFloat(row, float64(len(g.values[src.CountMetric])))
		}
	}
	return out, nil
}

func applyOp(op schema.AggOp, vals []float64) float64 {
	switch op {
	case schema.AggMean:
		return stat.Mean(vals, nil)
	case schema.AggMin:
		min := vals[0]
		for _, v := range vals[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case schema.AggMax:
		max := vals[0]
		for _, v := range vals[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case schema.AggStd:
		if len(vals) < 2 {
			return 0
		}
		return stat.StdDev(vals, nil)
	}
	panic(fmt.Sprintf("unknown aggregation op %q", op))
}

func checkColumns(src schema.Source, raw *table.Table) error {
	for _, col := range src.RequiredColumns() {
		if !raw.HasColumn(col) {
			return &quality.SchemaError{Source: src.Name, Column: col}
		}
	}
	return nil
}

// keyAt reads the daily key, honouring a source-specific day column name.
func keyAt(t *table.Table, dayCol string, i int) (table.Key, error) {
	if dayCol == "day_in_study" {
		return t.KeyAt(i)
	}
	k, err := partialKeyAt(t, i)
	if err != nil {
		return k, err
	}
	c := t.Column(dayCol)
	if c == nil {
		return k, fmt.Errorf("day column %q not found", dayCol)
	}
	if v, ok := c.Float(i); ok {
		k.Day = int(v)
	}
	return k, nil
}

func partialKeyAt(t *table.Table, i int) (table.Key, error) {
	// Like Table.KeyAt but without requiring a day_in_study column.
	var k table.Key
	idc := t.Column("id")
	ivc := t.Column("study_interval")
	wc := t.Column("is_weekend")
	if idc == nil || ivc == nil || wc == nil {
		return k, fmt.Errorf("key columns incomplete")
	}
	if s, ok := idc.StringAt(i); ok {
		k.ID = s
	}
	if s, ok := ivc.StringAt(i); ok {
		k.StudyInterval = s
	}
	if v, ok := wc.Float(i); ok {
		k.IsWeekend = v != 0
	}
	return k, nil
}

func newDailyTable(src schema.Source, n int) *table.Table {
	out := table.New()
	out.MustAddColumn(table.NewStringColumn("id", n))
	out.MustAddColumn(table.NewStringColumn("study_interval", n))
	out.MustAddColumn(table.NewFloatColumn("is_weekend", n))
	out.MustAddColumn(table.NewFloatColumn("day_in_study", n))
	for _, ac := range src.AggColumns {
		out.MustAddColumn(table.NewFloatColumn(ac.Output, n))
	}
	if src.CountColumn != "" {
		out.MustAddColumn(table.NewFloatColumn(src.CountColumn, n))
	}
	return out
}

func setKey(t *table.Table, row int, k table.Key) {
	t.Column("id").SetString(row, k.ID)
	t.Column("study_interval").SetString(row, k.StudyInterval)
	w := 0.0
	if k.IsWeekend {
		w = 1
	}
	t.Column("is_weekend").SetFloat(row, w)
	t.Column("day_in_study").SetFloat(row, float64(k.Day))
}
