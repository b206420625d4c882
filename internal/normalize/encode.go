package normalize

import (
	"fmt"

	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// EncodeOrdinals replaces the twelve symptom columns and flow_volume with
// float columns holding their integer rank. Unknown labels are fatal.
func EncodeOrdinals(t *table.Table) error {
	for _, name := range schema.OrdinalColumns {
		if err := encodeOrdinal(t, name, schema.OrdinalScale); err != nil {
			return err
		}
	}
	return encodeOrdinal(t, "flow_volume", schema.FlowVolumeScale)
}

func encodeOrdinal(t *table.Table, name string, scale map[string]int) error {
	c := t.Column(name)
	if c == nil {
		return &quality.SchemaError{Source: "merged", Column: name}
	}
	if c.Kind != table.String {
		return fmt.Errorf("column %q already numeric; ordinal encoding expects labels", name)
	}
	encoded := table.NewFloatColumn(name, c.Len())
	for i := 0; i < c.Len(); i++ {
		v, ok := c.StringAt(i)
		if !ok {
			continue
		}
		rank, known := scale[v]
		if !known {
			k, _ := t.KeyAt(i)
			return &quality.EncodingError{Column: name, Key: k, Value: v}
		}
		encoded.SetFloat(i, float64(rank))
	}
	return t.ReplaceColumn(name, encoded)
}

// EncodeOneHot expands the phase and flow_color columns into one indicator
// column per fixed category. For a non-null source value exactly one
// indicator is 1; a null source leaves all indicators 0 and records the row
// for imputation review rather than fabricating a default category.
func EncodeOneHot(t *table.Table, warnings *quality.Collector) error {
	if err := oneHot(t, "phase", schema.PhaseCategories, warnings); err != nil {
		return err
	}
	return oneHot(t, "flow_color", schema.FlowColorCategories, warnings)
}

func oneHot(t *table.Table, name string, categories []string, warnings *quality.Collector) error {
	c := t.Column(name)
	if c == nil {
		return &quality.SchemaError{Source: "merged", Column: name}
	}
	indicators := make([]*table.Column, len(categories))
	catIndex := make(map[string]int, len(categories))
	for i, cat := range categories {
		indicators[i] = table.NewFloatColumn(fmt.Sprintf("%s_%s", name, cat), c.Len())
		catIndex[cat] = i
	}
	for row := 0; row < c.Len(); row++ {
		for _, ind := range indicators {
			ind.SetFloat(row, 0)
		}
		v, ok := c.StringAt(row)
		if !ok {
			if warnings != nil {
				k, _ := t.KeyAt(row)
				warnings.Add(quality.Warning{
					Stage:   "encode",
					Column:  name,
					Key:     k.String(),
					Message: "null nominal category; all indicators left 0, flagged for imputation review",
				})
			}
			continue
		}
		i, known := catIndex[v]
		if !known {
			k, _ := t.KeyAt(row)
			return &quality.EncodingError{Column: name, Key: k, Value: v}
		}
		indicators[i].SetFloat(row, 1)
	}
	if err := t.DropColumn(name); err != nil {
		return err
	}
	for _, ind := range indicators {
		if err := t.AddColumn(ind); err != nil {
			return err
		}
	}
	return nil
}

// CoverageRatios converts each raw per-day sample count into the fraction of
// that sensor's expected daily maximum, clipped to [0,1], then removes the
// raw count column from the schema entirely so absolute counts cannot leak
// into later stages. Columns are processed in CountColumns order so the
// coverage columns land in the same position on every run.
func CoverageRatios(t *table.Table) error {
	for _, countCol := range schema.CountColumns {
		expected := schema.ExpectedDailySamples[countCol]
		c := t.Column(countCol)
		if c == nil {
			return &quality.SchemaError{Source: "merged", Column: countCol}
		}
		ratio := table.NewFloatColumn(schema.CoverageColumnFor(countCol), c.Len())
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Float(i)
			if !ok {
				continue
			}
			r := v / float64(expected)
			if r > 1 {
				r = 1
			}
			if r < 0 {
				r = 0
			}
			ratio.SetFloat(i, r)
		}
		if err := t.AddColumn(ratio); err != nil {
			return err
		}
		if err := t.DropColumn(countCol); err != nil {
			return err
		}
	}
	return nil
}
