// Package quality defines the pipeline's error taxonomy and the non-fatal
// data-quality warning collector. Schema, encoding and integrity errors abort
// a run; warnings accumulate into the run report.
package quality

import (
	"fmt"

	"github.com/lunaria-health/innerweather/internal/table"
)

// SchemaError reports an input file missing an expected column or key.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: source %q is missing column %q", e.Source, e.Column)
}

// EncodingError reports a categorical value outside the known label set.
type EncodingError struct {
	Column string
	Key    table.Key
	Value  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error: column %q row %s has unknown value %q", e.Column, e.Key, e.Value)
}

// IntegrityError reports a violated pipeline invariant, such as duplicate
// daily keys surviving aggregation.
type IntegrityError struct {
	Stage  string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error in %s: %s", e.Stage, e.Detail)
}
