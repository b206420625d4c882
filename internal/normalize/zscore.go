package normalize

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// Baseline is one participant's mean and sample std for one column, computed
// over their own non-missing observations. Retaining baselines is what makes
// the z-score reversible: raw = z*Std + Mean.
type Baseline struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	N    int     `json:"n"`
}

// Baselines maps column -> participant id -> baseline. It is computed once
// per run before the transform pass and passed explicitly into ZScore; there
// is no hidden per-participant cursor.
type Baselines map[string]map[string]Baseline

// ComputeBaselines derives per-participant baselines for every
// continuous-personal column present in the table.
func ComputeBaselines(t *table.Table) (Baselines, error) {
	ids := t.Column("id")
	if ids == nil {
		return nil, &quality.SchemaError{Source: "merged", Column: "id"}
	}
	out := make(Baselines)
	for _, name := range schema.ContinuousPersonalColumns {
		c := t.Column(name)
		if c == nil {
			return nil, &quality.SchemaError{Source: "merged", Column: name}
		}
		byID := make(map[string][]float64)
		for i := 0; i < c.Len(); i++ {
			id, ok := ids.StringAt(i)
			if !ok {
				continue
			}
			if v, present := c.Float(i); present {
				byID[id] = append(byID[id], v)
			}
		}
		col := make(map[string]Baseline, len(byID))
		for id, vals := range byID {
			b := Baseline{Mean: stat.Mean(vals, nil), N: len(vals)}
			if len(vals) >= 2 {
				b.Std = stat.StdDev(vals, nil)
			}
			col[id] = b
		}
		out[name] = col
	}
	return out, nil
}

// ZScore transforms every continuous-personal column against the
// participant's own baseline: (value - mean) / std.
//
// Two deliberate contracts, not crash paths:
//   - a participant with zero observations of a column keeps nulls for that
//     column (deferred to the imputer; no mean is fabricated);
//   - a participant with zero variance (std == 0) gets z = 0 for all their
//     observations and a data-quality warning.
func ZScore(t *table.Table, baselines Baselines, warnings *quality.Collector) error {
	ids := t.Column("id")
	if ids == nil {
		return &quality.SchemaError{Source: "merged", Column: "id"}
	}
	for _, name := range schema.ContinuousPersonalColumns {
		c := t.Column(name)
		if c == nil {
			return &quality.SchemaError{Source: "merged", Column: name}
		}
		col, ok := baselines[name]
		if !ok {
			return fmt.Errorf("no baselines computed for column %q", name)
		}
		warned := make(map[string]bool)
		for i := 0; i < c.Len(); i++ {
			v, present := c.Float(i)
			if !present {
				continue
			}
			id, _ := ids.StringAt(i)
			b, has := col[id]
			if !has || b.N == 0 {
				// No baseline exists, so the raw value cannot be normalized
				// against anything; treat as missing.
				c.SetNull(i)
				continue
			}
			if b.Std == 0 {
				c.SetFloat(i, 0)
				if warnings != nil && !warned[id] {
					warned[id] = true
					warnings.Add(quality.Warning{
						Stage:   "zscore",
						Column:  name,
						Key:     fmt.Sprintf("(id=%s)", id),
						Message: "zero variance across participant observations; z-scores set to 0",
					})
				}
				continue
			}
			c.SetFloat(i, (v-b.Mean)/b.Std)
		}
	}
	return nil
}
