// Package merge outer-joins the six per-day tables into one wide daily table
// on the shared key tuple. The self-report table drives the join; every key
// present in any input survives, with nulls where a source had no matching
// day.
package merge

import (
	"fmt"
	"sort"

	"github.com/lunaria-health/innerweather/internal/monitoring"
	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// Input pairs a per-day table with the source name used in diagnostics.
type Input struct {
	Name  string
	Table *table.Table
}

// Outer joins the inputs on the shared daily key. The first input is the base
// table. Duplicate keys inside any single input are an integrity error: the
// aggregator must already have collapsed them, so finding one here signals an
// upstream bug rather than something to be silently summed.
func Outer(inputs []Input) (*table.Table, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no tables to merge")
	}

	keySet := make(map[string]bool)
	for _, k := range schema.JoinKeys {
		keySet[k] = true
	}

	// Index every input by key and collect the key union in first-seen order.
	indexes := make([]map[table.Key]int, len(inputs))
	var union []table.Key
	seen := make(map[table.Key]bool)
	for n, in := range inputs {
		idx := make(map[table.Key]int, in.Table.NumRows())
		for i := 0; i < in.Table.NumRows(); i++ {
			k, err := in.Table.KeyAt(i)
			if err != nil {
				return nil, fmt.Errorf("source %q row %d: %w", in.Name, i, err)
			}
			if prev, dup := idx[k]; dup {
				return nil, &quality.IntegrityError{
					Stage:  "merge",
					Detail: fmt.Sprintf("source %q has duplicate key %s (rows %d and %d)", in.Name, k, prev, i),
				}
			}
			idx[k] = i
			if !seen[k] {
				seen[k] = true
				union = append(union, k)
			}
		}
		indexes[n] = idx
	}
	sort.Slice(union, func(a, b int) bool { return union[a].Less(union[b]) })

	if len(union) < inputs[0].Table.NumRows() {
		return nil, &quality.IntegrityError{
			Stage:  "merge",
			Detail: fmt.Sprintf("union has %d keys but base table %q has %d rows", len(union), inputs[0].Name, inputs[0].Table.NumRows()),
		}
	}

	n := len(union)
	out := table.New()
	out.MustAddColumn(table.NewStringColumn("id", n))
	out.MustAddColumn(table.NewStringColumn("study_interval", n))
	out.MustAddColumn(table.NewFloatColumn("is_weekend", n))
	out.MustAddColumn(table.NewFloatColumn("day_in_study", n))
	for row, k := range union {
		out.Column("id").SetString(row, k.ID)
		out.Column("study_interval").SetString(row, k.StudyInterval)
		w := 0.0
		if k.IsWeekend {
			w = 1
		}
		out.Column("is_weekend").SetFloat(row, w)
		out.Column("day_in_study").SetFloat(row, float64(k.Day))
	}

	for ni, in := range inputs {
		for _, name := range in.Table.Names() {
			if keySet[name] {
				continue
			}
			src := in.Table.Column(name)
			var dst *table.Column
			if src.Kind == table.String {
				dst = table.NewStringColumn(name, n)
			} else {
				dst = table.NewFloatColumn(name, n)
			}
			if err := out.AddColumn(dst); err != nil {
				return nil, &quality.IntegrityError{
					Stage:  "merge",
					Detail: fmt.Sprintf("source %q: %v", in.Name, err),
				}
			}
			for row, k := range union {
				srcRow, ok := indexes[ni][k]
				if !ok {
					continue // stays null: this source had no row for the key
				}
				if src.Kind == table.String {
					if v, present := src.StringAt(srcRow); present {
						dst.SetString(row, v)
					}
				} else {
					if v, present := src.Float(srcRow); present {
						dst.SetFloat(row, v)
					}
				}
			}
		}
		monitoring.Logf("merge: after %s: %d rows, %d columns", in.Name, out.NumRows(), out.NumCols())
	}
	return out, nil
}
