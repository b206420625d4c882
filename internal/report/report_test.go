package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lunaria-health/innerweather/internal/impute"
	"github.com/lunaria-health/innerweather/internal/pipeline"
	"github.com/lunaria-health/innerweather/internal/quality"
	"github.com/lunaria-health/innerweather/internal/table"
)

// fakeResult builds the smallest pipeline result the report package accepts.
func fakeResult(t *testing.T) *pipeline.Result {
	t.Helper()
	final := table.New()
	day := table.NewFloatColumn("day_in_study", 2)
	day.SetFloat(0, 0)
	day.SetFloat(1, 0.5)
	final.MustAddColumn(day)
	cov := table.NewFloatColumn("wrist_temp_coverage", 2)
	cov.SetFloat(0, 0.8)
	cov.SetFloat(1, 0.6)
	final.MustAddColumn(cov)
	z := table.NewFloatColumn("rmssd_mean", 2)
	z.SetFloat(0, -0.5)
	z.SetFloat(1, 0.5)
	final.MustAddColumn(z)

	started := time.Now().Add(-2 * time.Second)
	return &pipeline.Result{
		RunID:      "test-run",
		StartedAt:  started,
		FinishedAt: time.Now(),
		Final:      final,
		Imputation: []impute.Stats{
			{Column: "symptom_burden", Strategy: "median", Imputed: 1, Rows: 10, Fraction: 0.1},
			{Column: "lh", Strategy: "zero", Imputed: 3, Rows: 10, Fraction: 0.3},
		},
		Warnings:  []quality.Warning{{Stage: "merge", Column: "lh", Message: "60.0% missing after merge"}},
		RowCounts: map[string]int{"merged": 10, "final": 10},
	}
}

func TestSummarize(t *testing.T) {
	res := fakeResult(t)
	s := Summarize(res)

	if s.RunID != "test-run" {
		t.Errorf("RunID = %q", s.RunID)
	}
	if s.Columns != 3 {
		t.Errorf("Columns = %d, want 3", s.Columns)
	}
	if s.DurationMS <= 0 {
		t.Errorf("DurationMS = %d, want positive", s.DurationMS)
	}
	if len(s.Imputation) != 2 || len(s.Warnings) != 1 {
		t.Errorf("summary carries %d imputation rows, %d warnings", len(s.Imputation), len(s.Warnings))
	}
}

func TestWriteProducesArtifacts(t *testing.T) {
	dir := t.TempDir()
	res := fakeResult(t)

	if err := Write(dir, res); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, name := range []string{"report.json", "charts.html", "zscore_hist.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", name)
		}
	}

	// report.json is valid and round-trips the summary fields.
	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("reading report.json: %v", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("report.json is not valid JSON: %v", err)
	}
	if s.RunID != res.RunID {
		t.Errorf("round-tripped RunID = %q, want %q", s.RunID, res.RunID)
	}
}

func TestImputationBarDoesNotMutateSummary(t *testing.T) {
	s := Summarize(fakeResult(t))
	first := s.Imputation[0].Column
	imputationBar(s)
	if s.Imputation[0].Column != first {
		t.Error("chart building must not reorder the summary's imputation slice")
	}
}
