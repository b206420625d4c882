// Package normalize implements the cleaning and encoding stages over the
// merged daily table: mixed-encoding repair, ordinal and one-hot encoding,
// coverage ratios, per-participant z-scoring and fixed-bound min-max scaling.
// Every encoding is reversible; the inverse transforms live in invert.go.
//
// The stage functions mutate the table they are given. The pipeline
// orchestrator owns cloning, so each logical stage still behaves as a pure
// table-in, table-out boundary.
package normalize

import (
	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// Clean repairs self-report columns that mix numeric severity codes ("1".."5")
// with text labels on the same scale, mapping every numeric code to its
// canonical label before ordinal encoding. A value that is neither a known
// code nor a known label is an encoding error, not something to coerce.
func Clean(t *table.Table) error {
	for _, name := range schema.MixedEncodingColumns {
		c := t.Column(name)
		if c == nil {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			v, ok := c.StringAt(i)
			if !ok {
				continue
			}
			if label, isCode := schema.NumericToOrdinal[v]; isCode {
				c.SetString(i, label)
				continue
			}
			if _, known := schema.OrdinalScale[v]; !known {
				k, _ := t.KeyAt(i)
				return &quality.EncodingError{Column: name, Key: k, Value: v}
			}
		}
	}
	return nil
}
