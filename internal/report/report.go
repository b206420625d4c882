// Package report renders a pipeline run into its QA artifacts: a JSON
// summary, an HTML chart page and a z-score distribution plot. The report is
// where imputation counts and data-quality warnings end up instead of being
// silently discarded.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lunaria-health/innerweather/internal/impute"
	"github.com/lunaria-health/innerweather/internal/pipeline"
	"github.com/lunaria-health/innerweather/internal/quality"
)

// Summary is the JSON-serializable digest of a run.
type Summary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	RowCounts  map[string]int     `json:"row_counts"`
	Columns    int                `json:"final_columns"`
	Imputation []impute.Stats     `json:"imputation"`
	Warnings   []quality.Warning  `json:"warnings"`
}

// Summarize builds the report digest from a completed run.
func Summarize(res *pipeline.Result) Summary {
	return Summary{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		DurationMS: res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
		RowCounts:  res.RowCounts,
		Columns:    res.Final.NumCols(),
		Imputation: res.Imputation,
		Warnings:   res.Warnings,
	}
}

// Write renders all report artifacts into dir: report.json, charts.html and
// zscore_hist.png.
func Write(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}

	summary := Summarize(res)
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write report.json: %w", err)
	}

	if err := writeCharts(filepath.Join(dir, "charts.html"), summary, res); err != nil {
		return err
	}
	return writeZScoreHistogram(filepath.Join(dir, "zscore_hist.png"), res)
}
