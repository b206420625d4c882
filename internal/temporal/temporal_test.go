package temporal

import (
	"math"
	"testing"

	"github.com/lunaria-health/innerweather/internal/schema"
	"github.com/lunaria-health/innerweather/internal/table"
)

// row is one participant-day of normalized input for the builder.
type row struct {
	id      string
	day     float64 // min-max scaled study day
	lh      float64
	ordinal float64 // value assigned to all 12 scaled symptom columns
}

// normalizedTable builds a table with the columns the temporal builder
// requires. Base columns other than lh are left at 0.
func normalizedTable(t *testing.T, rows []row) *table.Table {
	t.Helper()
	n := len(rows)
	tbl := table.New()
	id := table.NewStringColumn("id", n)
	interval := table.NewStringColumn("study_interval", n)
	day := table.NewFloatColumn("day_in_study", n)
	for i, r := range rows {
		id.SetString(i, r.id)
		interval.SetString(i, "i1")
		day.SetFloat(i, r.day)
	}
	tbl.MustAddColumn(id)
	tbl.MustAddColumn(interval)
	tbl.MustAddColumn(day)
	for _, name := range schema.TemporalBaseColumns {
		c := table.NewFloatColumn(name, n)
		for i, r := range rows {
			if name == "lh" {
				c.SetFloat(i, r.lh)
			} else {
				c.SetFloat(i, 0)
			}
		}
		tbl.MustAddColumn(c)
	}
	for _, name := range schema.OrdinalColumns {
		c := table.NewFloatColumn(name, n)
		for i, r := range rows {
			c.SetFloat(i, r.ordinal)
		}
		tbl.MustAddColumn(c)
	}
	return tbl
}

func mustFloat(t *testing.T, tbl *table.Table, col string, row int) float64 {
	t.Helper()
	v, ok := tbl.Column(col).Float(row)
	if !ok {
		t.Fatalf("%s row %d is null", col, row)
	}
	return v
}

func TestBuildLagDeltaRolling(t *testing.T) {
	tbl := normalizedTable(t, []row{
		{"p1", 0.0, 1.0, 0},
		{"p1", 0.1, 2.0, 0},
		{"p1", 0.2, 4.0, 0},
		{"p1", 0.3, 4.0, 0},
	})
	if err := Build(tbl); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// First row of the sequence has no predecessor.
	if _, ok := tbl.Column("lh_lag1").Float(0); ok {
		t.Error("lag on the first sequence row should be null")
	}
	if _, ok := tbl.Column("lh_delta").Float(0); ok {
		t.Error("delta on the first sequence row should be null")
	}

	if v := mustFloat(t, tbl, "lh_lag1", 2); v != 2 {
		t.Errorf("lag1 row 2 = %v, want 2", v)
	}
	if v := mustFloat(t, tbl, "lh_delta", 2); v != 2 {
		t.Errorf("delta row 2 = %v, want 2", v)
	}

	// Rolling window is the current row plus up to two prior rows.
	if v := mustFloat(t, tbl, "lh_roll3_mean", 0); v != 1 {
		t.Errorf("roll3_mean row 0 = %v, want 1 (window of one)", v)
	}
	if v := mustFloat(t, tbl, "lh_roll3_std", 0); v != 0 {
		t.Errorf("roll3_std row 0 = %v, want 0 for a single observation", v)
	}
	if v := mustFloat(t, tbl, "lh_roll3_mean", 2); math.Abs(v-7.0/3.0) > 1e-12 {
		t.Errorf("roll3_mean row 2 = %v, want 7/3", v)
	}
	// Row 3 window is {2, 4, 4}: the day-0 value has slid out.
	if v := mustFloat(t, tbl, "lh_roll3_mean", 3); math.Abs(v-10.0/3.0) > 1e-12 {
		t.Errorf("roll3_mean row 3 = %v, want 10/3", v)
	}
}

func TestBuildParticipantIsolation(t *testing.T) {
	tbl := normalizedTable(t, []row{
		{"p1", 0.0, 1.0, 0},
		{"p1", 0.1, 2.0, 0},
		{"p2", 0.0, 9.0, 0},
	})
	if err := Build(tbl); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// p2's single row must not see p1's history.
	if _, ok := tbl.Column("lh_lag1").Float(2); ok {
		t.Error("p2's first row lag should be null, not p1's last value")
	}
	if v := mustFloat(t, tbl, "lh_roll3_mean", 2); v != 9 {
		t.Errorf("p2 roll3_mean = %v, want 9 (own value only)", v)
	}
}

func TestBuildOrderIndependence(t *testing.T) {
	rows := []row{
		{"p1", 0.0, 1.0, 0.2},
		{"p1", 0.1, 2.0, 0.2},
		{"p2", 0.0, 5.0, 0.4},
		{"p2", 0.1, 7.0, 0.4},
	}
	sorted := normalizedTable(t, rows)
	shuffled := normalizedTable(t, []row{rows[3], rows[0], rows[2], rows[1]})

	if err := Build(sorted); err != nil {
		t.Fatalf("Build(sorted) failed: %v", err)
	}
	if err := Build(shuffled); err != nil {
		t.Fatalf("Build(shuffled) failed: %v", err)
	}

	for _, col := range []string{"lh_lag1", "lh_delta", "lh_roll3_mean", "target"} {
		a, b := sorted.Column(col), shuffled.Column(col)
		for i := 0; i < sorted.NumRows(); i++ {
			av, aok := a.Float(i)
			bv, bok := b.Float(i)
			if aok != bok || (aok && math.Abs(av-bv) > 1e-12) {
				t.Errorf("%s row %d differs between input orders: %v/%v vs %v/%v", col, i, av, aok, bv, bok)
			}
		}
	}
}

func TestBuildCycleEncodings(t *testing.T) {
	// Scaled day 0 is raw study day 1.
	tbl := normalizedTable(t, []row{{"p1", 0.0, 0, 0}})
	if err := Build(tbl); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	wantSin := math.Sin(2 * math.Pi * 1 / 28)
	wantCos := math.Cos(2 * math.Pi * 1 / 28)
	if v := mustFloat(t, tbl, "cycle_sin_28", 0); math.Abs(v-wantSin) > 1e-12 {
		t.Errorf("cycle_sin_28 = %v, want %v", v, wantSin)
	}
	if v := mustFloat(t, tbl, "cycle_cos_28", 0); math.Abs(v-wantCos) > 1e-12 {
		t.Errorf("cycle_cos_28 = %v, want %v", v, wantCos)
	}
}

func TestBuildBlendedBurdenAndTarget(t *testing.T) {
	tbl := normalizedTable(t, []row{
		{"p1", 0.0, 0, 0.2},
		{"p1", 0.1, 0, 0.6},
	})
	if err := Build(tbl); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// All twelve symptoms are 0.6 on day 2, so burden is 0.6; stress is 0.6
	// and recovery is 1-0.6, giving blended 0.55*0.6 + 0.30*0.6 + 0.15*0.6.
	wantBlended := WeightSymptoms*0.6 + WeightStress*0.6 + WeightRecovery*0.6
	if v := mustFloat(t, tbl, "blended_burden", 1); math.Abs(v-wantBlended) > 1e-12 {
		t.Errorf("blended_burden day 2 = %v, want %v", v, wantBlended)
	}

	// Day 1's target is tomorrow's wellbeing: 100 * (1 - day 2 blended).
	if v := mustFloat(t, tbl, "target", 0); math.Abs(v-100*(1-wantBlended)) > 1e-9 {
		t.Errorf("target day 1 = %v, want %v", v, 100*(1-wantBlended))
	}
	// The last observed day has no tomorrow.
	if _, ok := tbl.Column("target").Float(1); ok {
		t.Error("target on the last sequence day should be null")
	}
}

func TestBuildMissingBaseColumnIsError(t *testing.T) {
	tbl := table.New()
	tbl.MustAddColumn(table.NewStringColumn("id", 0))
	tbl.MustAddColumn(table.NewStringColumn("study_interval", 0))
	tbl.MustAddColumn(table.NewFloatColumn("day_in_study", 0))
	if err := Build(tbl); err == nil {
		t.Error("expected error when base columns are missing")
	}
}
