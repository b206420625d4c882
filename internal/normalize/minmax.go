package normalize

import (
	"sort"

	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// ScaleBounds is the fixed theoretical range used to min-max scale a column.
// Scaling against theoretical rather than empirical bounds keeps the encoding
// stable across re-runs over different row subsets, and makes it invertible
// without retaining per-run state.
type ScaleBounds struct {
	Min float64
	Max float64
}

// MinMaxBounds returns the fixed bounds for every column the scaler touches:
// ordinal columns (0..5), flow_volume (0..7), coverage ratios (0..1, a
// no-op kept for schema uniformity) and day_in_study over the study range.
func MinMaxBounds() map[string]ScaleBounds {
	bounds := make(map[string]ScaleBounds)
	for _, c := range schema.OrdinalColumns {
		bounds[c] = ScaleBounds{0, schema.OrdinalMax}
	}
	bounds["flow_volume"] = ScaleBounds{0, schema.FlowVolumeMax}
	for _, countCol := range schema.CountColumns {
		bounds[schema.CoverageColumnFor(countCol)] = ScaleBounds{0, 1}
	}
	bounds["day_in_study"] = ScaleBounds{schema.StudyDayMin, schema.StudyDayMax}
	return bounds
}

// MinMaxScale rescales the ordinal, coverage and time columns to [0,1] using
// their fixed theoretical bounds. Columns are visited in sorted name order so
// a missing-column error always names the same column.
func MinMaxScale(t *table.Table) error {
	bounds := MinMaxBounds()
	names := make([]string, 0, len(bounds))
	for name := range bounds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := bounds[name]
		c := t.Column(name)
		if c == nil {
			return &quality.SchemaError{Source: "merged", Column: name}
		}
		span := b.Max - b.Min
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				c.SetFloat(i, (v-b.Min)/span)
			}
		}
	}
	return nil
}
