// Package impute fills the missing values the encoder left behind,
// column-class aware: z-scored columns get 0 (the participant's own mean
// under z-score semantics), everything else gets the column's median computed
// over the fitting population only. Fitting and applying are split so a
// training-fold imputer can be applied to held-out rows without leakage.
package impute

import (
	"fmt"
	"sort"

	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// Stats records what the imputer did to one column; the pipeline surfaces
// these in the run report rather than discarding them.
type Stats struct {
	Column    string  `json:"column"`
	Strategy  string  `json:"strategy"` // "zero" or "median"
	FillValue float64 `json:"fill_value"`
	Imputed   int     `json:"imputed"`
	Rows      int     `json:"rows"`
	Fraction  float64 `json:"fraction"`
}

// Imputer holds the per-column fill values learned from the fit population.
type Imputer struct {
	medians map[string]float64
}

// Fit learns the median of every median-imputed column from the given table.
// For the exploratory normalization this is the whole dataset; for model
// feeding it must be the training split only.
func Fit(t *table.Table) (*Imputer, error) {
	im := &Imputer{medians: make(map[string]float64)}
	for _, name := range t.Names() {
		c := t.Column(name)
		if c.Kind != table.Float || strategyFor(name) != "median" {
			continue
		}
		vals := c.NonNull()
		if len(vals) == 0 {
			// Nothing to learn from; fall back to 0 so Apply can still
			// guarantee a fully dense output.
			im.medians[name] = 0
			continue
		}
		im.medians[name] = median(vals)
	}
	return im, nil
}

// Apply fills every missing float cell in place and returns per-column stats.
// After Apply no float column contains a null, except label columns, which
// are legitimately undefined at series boundaries.
func (im *Imputer) Apply(t *table.Table) ([]Stats, error) {
	var out []Stats
	for _, name := range t.Names() {
		c := t.Column(name)
		if c.Kind != table.Float {
			continue
		}
		strategy := strategyFor(name)
		if strategy == "none" {
			continue
		}
		fill := 0.0
		if strategy == "median" {
			v, ok := im.medians[name]
			if !ok {
				return nil, fmt.Errorf("imputer was not fitted for column %q", name)
			}
			fill = v
		}
		st := Stats{Column: name, Strategy: strategy, FillValue: fill, Rows: c.Len()}
		for i := 0; i < c.Len(); i++ {
			if c.Null[i] {
				c.SetFloat(i, fill)
				st.Imputed++
			}
		}
		if st.Rows > 0 {
			st.Fraction = float64(st.Imputed) / float64(st.Rows)
		}
		if st.Imputed > 0 {
			out = append(out, st)
		}
	}
	return out, nil
}

// Medians exposes the learned fill values, keyed by column.
func (im *Imputer) Medians() map[string]float64 {
	out := make(map[string]float64, len(im.medians))
	for k, v := range im.medians {
		out[k] = v
	}
	return out
}

func strategyFor(col string) string {
	switch {
	case schema.IsLabel(col):
		return "none"
	case schema.IsContinuousPersonal(col):
		return "zero"
	}
	return "median"
}

// median uses midpoint interpolation on the sorted values, matching the
// convention the intermediate artifacts were documented with.
func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
