// Package pipeline orchestrates the batch transform from the six raw study
// exports to the model-ready daily feature table:
//
//	aggregate -> merge -> clean -> encode -> impute -> temporal
//
// Each stage is a function over an in-memory table; CSV hand-off between
// stages is a durability feature, not a structural one. A fatal error at any
// stage aborts the whole run: partial output is worse than no output.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lunaria-health/innerweather/internal/aggregate"
	"github.com/lunaria-health/innerweather/internal/impute"
	"github.com/lunaria-health/innerweather/internal/merge"
	"github.com/lunaria-health/innerweather/internal/monitoring"
	"github.com/lunaria-health/innerweather/internal/normalize"
	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
	"github.com/lunaria-health/innerweather/internal/temporal"
)

// Config controls one batch run.
type Config struct {
	DataDir   string // directory holding the six input CSVs
	OutputDir string // where merged/final CSVs and the report land; empty disables persistence

	// HighMissingness is the per-column missing fraction above which a
	// data-quality warning is raised. Zero means use the default.
	HighMissingness float64
}

const defaultHighMissingness = 0.5

// Result is everything a completed run produced.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Merged is the intermediate audit artifact: original labels, raw units,
	// nulls intact. It is what makes every later encoding invertible.
	Merged *table.Table
	// Final is the fully numeric, dense daily feature table.
	Final *table.Table

	Baselines  normalize.Baselines
	Imputation []impute.Stats
	Warnings   []quality.Warning
	RowCounts  map[string]int
}

// Run executes the whole pipeline over the files in cfg.DataDir.
func Run(cfg Config) (*Result, error) {
	raw := make(map[string]*table.Table, len(schema.Sources))
	for _, src := range schema.Sources {
		path := filepath.Join(cfg.DataDir, src.Filename)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		t, err := table.ReadCSV(f, src.CSVStringColumns())
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", src.Filename, err)
		}
		raw[src.Name] = t
	}

	result, err := Transform(cfg, raw)
	if err != nil {
		return nil, err
	}
	if cfg.OutputDir != "" {
		if err := persist(cfg.OutputDir, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Transform runs every stage over already-loaded source tables. Split from
// Run so tests and embedders can drive the pipeline without touching disk.
func Transform(cfg Config, raw map[string]*table.Table) (*Result, error) {
	result := &Result{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		RowCounts: make(map[string]int),
	}
	warnings := quality.NewCollector()

	inputs := make([]merge.Input, 0, len(schema.Sources))
	for _, src := range schema.Sources {
		t, ok := raw[src.Name]
		if !ok {
			return nil, fmt.Errorf("source table %q not provided", src.Name)
		}
		if src.Daily {
			if err := checkDailySource(src, t); err != nil {
				return nil, err
			}
			inputs = append(inputs, merge.Input{Name: src.Name, Table: t})
		} else {
			daily, err := aggregate.Daily(src, t)
			if err != nil {
				return nil, fmt.Errorf("aggregate %s: %w", src.Name, err)
			}
			monitoring.Logf("aggregate: %s: %d raw rows -> %d daily rows", src.Name, t.NumRows(), daily.NumRows())
			inputs = append(inputs, merge.Input{Name: src.Name, Table: daily})
		}
		result.RowCounts[src.Name] = t.NumRows()
	}

	merged, err := merge.Outer(inputs)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	result.RowCounts["merged"] = merged.NumRows()
	reportMissingness(cfg, merged, warnings)

	// Retain the label-bearing intermediate before any encoding touches it.
	result.Merged = merged.Clone()

	if err := normalize.Clean(merged); err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	if err := normalize.EncodeOrdinals(merged); err != nil {
		return nil, fmt.Errorf("encode ordinals: %w", err)
	}
	if err := normalize.EncodeOneHot(merged, warnings); err != nil {
		return nil, fmt.Errorf("encode one-hot: %w", err)
	}
	if err := normalize.CoverageRatios(merged); err != nil {
		return nil, fmt.Errorf("coverage ratios: %w", err)
	}

	baselines, err := normalize.ComputeBaselines(merged)
	if err != nil {
		return nil, fmt.Errorf("baselines: %w", err)
	}
	result.Baselines = baselines
	if err := normalize.ZScore(merged, baselines, warnings); err != nil {
		return nil, fmt.Errorf("zscore: %w", err)
	}
	if err := normalize.MinMaxScale(merged); err != nil {
		return nil, fmt.Errorf("minmax: %w", err)
	}

	imputer, err := impute.Fit(merged)
	if err != nil {
		return nil, fmt.Errorf("impute fit: %w", err)
	}
	stats, err := imputer.Apply(merged)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	result.Imputation = append(result.Imputation, stats...)

	if err := temporal.Build(merged); err != nil {
		return nil, fmt.Errorf("temporal: %w", err)
	}

	// Second imputation pass fills the lag/rolling boundary nulls, fitted
	// only on rows where the feature is defined.
	boundary, err := impute.Fit(merged)
	if err != nil {
		return nil, fmt.Errorf("boundary impute fit: %w", err)
	}
	stats, err = boundary.Apply(merged)
	if err != nil {
		return nil, fmt.Errorf("boundary impute: %w", err)
	}
	result.Imputation = append(result.Imputation, stats...)

	if err := checkDense(merged); err != nil {
		return nil, err
	}

	result.Final = merged
	result.RowCounts["final"] = merged.NumRows()
	result.Warnings = warnings.Warnings()
	result.FinishedAt = time.Now()
	monitoring.Logf("pipeline run %s: %d rows, %d columns, %d warnings",
		result.RunID, merged.NumRows(), merged.NumCols(), len(result.Warnings))
	return result, nil
}

// checkDailySource validates the already-daily self-report table's schema and
// key uniqueness before it drives the merge.
func checkDailySource(src schema.Source, t *table.Table) error {
	for _, col := range src.RequiredColumns() {
		if !t.HasColumn(col) {
			return &quality.SchemaError{Source: src.Name, Column: col}
		}
	}
	return nil
}

// checkDense enforces the imputer guarantee: no float column except labels
// may contain a null in the final table.
func checkDense(t *table.Table) error {
	for _, name := range t.Names() {
		c := t.Column(name)
		if c.Kind != table.Float || schema.IsLabel(name) {
			continue
		}
		if n := c.NullCount(); n > 0 {
			return &quality.IntegrityError{
				Stage:  "impute",
				Detail: fmt.Sprintf("column %q still has %d missing values after imputation", name, n),
			}
		}
	}
	return nil
}

func reportMissingness(cfg Config, t *table.Table, warnings *quality.Collector) {
	threshold := cfg.HighMissingness
	if threshold == 0 {
		threshold = defaultHighMissingness
	}
	rows := t.NumRows()
	if rows == 0 {
		return
	}
	for _, name := range t.Names() {
		frac := float64(t.Column(name).NullCount()) / float64(rows)
		if frac > threshold {
			warnings.Add(quality.Warning{
				Stage:   "merge",
				Column:  name,
				Message: fmt.Sprintf("%.1f%% missing after merge", frac*100),
			})
		}
	}
}

func persist(dir string, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	files := map[string]*table.Table{
		"merged_daily.csv":   result.Merged,
		"features_daily.csv": result.Final,
	}
	for name, t := range files {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		err = t.WriteCSV(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
