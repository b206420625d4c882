// Package temporal derives lag, delta and trailing-window features from the
// normalized daily table, plus the blended burden target for body-state
// scoring. All temporal work is confined to a single participant's
// day-ordered sequence; the builder sorts internally and walks sequences one
// at a time, so it is structurally impossible for one participant's history
// to leak into another's features, and input row order cannot change the
// result.
package temporal

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// Window is the trailing rolling window length: the current row plus up to
// two prior rows of the same participant sequence.
const Window = 3

// Blended burden weights over mean symptom burden, the stress component and
// one minus the recovery component.
const (
	WeightSymptoms = 0.55
	WeightStress   = 0.30
	WeightRecovery = 0.15
)

// Build appends the temporal feature columns to the normalized table:
// <col>_lag1, <col>_delta, <col>_roll3_mean and <col>_roll3_std for each base
// column, the cyclical day-of-cycle encodings, and the blended burden columns
// (symptom_burden, blended_burden, target).
//
// Lag and delta are null on each sequence's first row; those boundary nulls
// are left for a median imputer fitted on the defined rows. The target is
// null on each sequence's last row and stays null.
func Build(t *table.Table) error {
	if err := t.SortByKey(schema.SortKeys...); err != nil {
		return err
	}
	n := t.NumRows()

	bases := make([]*table.Column, 0, len(schema.TemporalBaseColumns))
	for _, name := range schema.TemporalBaseColumns {
		c := t.Column(name)
		if c == nil {
			return &quality.SchemaError{Source: "normalized", Column: name}
		}
		bases = append(bases, c)
	}

	type derived struct {
		lag1, delta, rollMean, rollStd *table.Column
	}
	cols := make([]derived, len(bases))
	for i, base := range bases {
		cols[i] = derived{
			lag1:     table.NewFloatColumn(base.Name+"_lag1", n),
			delta:    table.NewFloatColumn(base.Name+"_delta", n),
			rollMean: table.NewFloatColumn(base.Name+"_roll3_mean", n),
			rollStd:  table.NewFloatColumn(base.Name+"_roll3_std", n),
		}
	}

	for _, seq := range sequences(t) {
		for bi, base := range bases {
			window := make([]float64, 0, Window)
			var prev float64
			var prevOK bool
			for _, row := range seq {
				v, ok := base.Float(row)
				if prevOK {
					cols[bi].lag1.SetFloat(row, prev)
					if ok {
						cols[bi].delta.SetFloat(row, v-prev)
					}
				}
				if ok {
					window = append(window, v)
					if len(window) > Window {
						window = window[1:]
					}
					cols[bi].rollMean.SetFloat(row, stat.Mean(window, nil))
					sd := 0.0
					if len(window) >= 2 {
						sd = stat.StdDev(window, nil)
					}
					cols[bi].rollStd.SetFloat(row, sd)
				}
				prev, prevOK = v, ok
			}
		}
	}

	for _, d := range cols {
		for _, c := range []*table.Column{d.lag1, d.delta, d.rollMean, d.rollStd} {
			if err := t.AddColumn(c); err != nil {
				return err
			}
		}
	}

	if err := addCycleEncodings(t); err != nil {
		return err
	}
	return addBlendedBurden(t)
}

// sequences returns row-index runs sharing (id, study_interval), assuming
// the table is already sorted by the sort keys.
func sequences(t *table.Table) [][]int {
	ids := t.Column("id")
	intervals := t.Column("study_interval")
	var out [][]int
	var cur []int
	var curID, curInterval string
	for i := 0; i < t.NumRows(); i++ {
		id, _ := ids.StringAt(i)
		interval, _ := intervals.StringAt(i)
		if len(cur) > 0 && (id != curID || interval != curInterval) {
			out = append(out, cur)
			cur = nil
		}
		curID, curInterval = id, interval
		cur = append(cur, i)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// addCycleEncodings adds sin/cos encodings of the 28-day cycle position. The
// day column is min-max scaled by this point, so the raw study day is
// recovered from the fixed study range first.
func addCycleEncodings(t *table.Table) error {
	dc := t.Column("day_in_study")
	if dc == nil {
		return &quality.SchemaError{Source: "normalized", Column: "day_in_study"}
	}
	n := t.NumRows()
	sin := table.NewFloatColumn("cycle_sin_28", n)
	cos := table.NewFloatColumn("cycle_cos_28", n)
	span := float64(schema.StudyDayMax - schema.StudyDayMin)
	for i := 0; i < n; i++ {
		v, ok := dc.Float(i)
		if !ok {
			continue
		}
		day := float64(schema.StudyDayMin) + v*span
		angle := 2 * math.Pi * day / 28.0
		sin.SetFloat(i, math.Sin(angle))
		cos.SetFloat(i, math.Cos(angle))
	}
	if err := t.AddColumn(sin); err != nil {
		return err
	}
	return t.AddColumn(cos)
}

// addBlendedBurden derives the body-state proxy target:
//
//	symptom_burden = mean of the 12 scaled symptom columns
//	blended_burden = 0.55*symptom_burden + 0.30*stress + 0.15*(1 - recovery)
//	target         = 100 * (1 - next day's blended_burden), per sequence
//
// The stress component is the scaled stress ordinal; the recovery component
// is one minus the scaled sleepissue ordinal, so all terms lie in [0,1] and
// the target lies in [0,100]. The target is undefined at each sequence's last
// observed day.
func addBlendedBurden(t *table.Table) error {
	ordinals := make([]*table.Column, 0, len(schema.OrdinalColumns))
	for _, name := range schema.OrdinalColumns {
		c := t.Column(name)
		if c == nil {
			return &quality.SchemaError{Source: "normalized", Column: name}
		}
		ordinals = append(ordinals, c)
	}
	stress := t.Column("stress")
	sleepIssue := t.Column("sleepissue")

	n := t.NumRows()
	burden := table.NewFloatColumn("symptom_burden", n)
	blended := table.NewFloatColumn("blended_burden", n)
	target := table.NewFloatColumn("target", n)

	for i := 0; i < n; i++ {
		var sum float64
		count := 0
		for _, c := range ordinals {
			if v, ok := c.Float(i); ok {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}
		sb := sum / float64(count)
		burden.SetFloat(i, sb)

		sv, sok := stress.Float(i)
		iv, iok := sleepIssue.Float(i)
		if !sok || !iok {
			continue
		}
		recovery := 1 - iv
		blended.SetFloat(i, WeightSymptoms*sb+WeightStress*sv+WeightRecovery*(1-recovery))
	}

	for _, seq := range sequences(t) {
		for j, row := range seq {
			if j+1 >= len(seq) {
				continue // last observed day: no next day to shift into
			}
			if v, ok := blended.Float(seq[j+1]); ok {
				target.SetFloat(row, 100*(1-v))
			}
		}
	}

	for _, c := range []*table.Column{burden, blended, target} {
		if err := t.AddColumn(c); err != nil {
			return err
		}
	}
	return nil
}
