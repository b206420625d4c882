package impute

import (
	"testing"

	"github.com/lunaria-health/innerweather/internal/table"
)

// featureTable builds a small numeric table with one column of each
// imputation class: a z-scored hormone, a generic median column and the
// target label.
func featureTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New()

	lh := table.NewFloatColumn("lh", 4) // continuous-personal: zero strategy
	lh.SetFloat(0, -1)
	lh.SetFloat(2, 1)

	burden := table.NewFloatColumn("symptom_burden", 4) // median strategy
	burden.SetFloat(0, 0.2)
	burden.SetFloat(1, 0.4)
	burden.SetFloat(3, 0.9)

	target := table.NewFloatColumn("target", 4) // label: never imputed
	target.SetFloat(0, 60)

	tbl.MustAddColumn(lh)
	tbl.MustAddColumn(burden)
	tbl.MustAddColumn(target)
	return tbl
}

func TestFitLearnsMediansOnly(t *testing.T) {
	tbl := featureTable(t)
	im, err := Fit(tbl)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	medians := im.Medians()
	if _, ok := medians["lh"]; ok {
		t.Error("zero-strategy column should not get a fitted median")
	}
	if _, ok := medians["target"]; ok {
		t.Error("label column should not get a fitted median")
	}
	if got := medians["symptom_burden"]; got != 0.4 {
		t.Errorf("median = %v, want 0.4", got)
	}
}

func TestFitEvenCountUsesMidpoint(t *testing.T) {
	tbl := table.New()
	c := table.NewFloatColumn("symptom_burden", 4)
	for i, v := range []float64{1, 2, 3, 4} {
		c.SetFloat(i, v)
	}
	tbl.MustAddColumn(c)

	im, err := Fit(tbl)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if got := im.Medians()["symptom_burden"]; got != 2.5 {
		t.Errorf("even-count median = %v, want 2.5 (midpoint)", got)
	}
}

func TestApplyFillsByStrategy(t *testing.T) {
	tbl := featureTable(t)
	im, err := Fit(tbl)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	stats, err := im.Apply(tbl)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Z-scored column: missing means "at my own baseline", so fill 0.
	for _, i := range []int{1, 3} {
		if v, ok := tbl.Column("lh").Float(i); !ok || v != 0 {
			t.Errorf("lh row %d = %v, %v; want 0", i, v, ok)
		}
	}
	// Generic column: population median.
	if v, ok := tbl.Column("symptom_burden").Float(2); !ok || v != 0.4 {
		t.Errorf("symptom_burden row 2 = %v, %v; want 0.4", v, ok)
	}
	// Label: untouched.
	if tbl.Column("target").NullCount() != 3 {
		t.Error("label nulls must survive imputation")
	}

	byCol := make(map[string]Stats)
	for _, s := range stats {
		byCol[s.Column] = s
	}
	if s := byCol["lh"]; s.Strategy != "zero" || s.Imputed != 2 {
		t.Errorf("lh stats = %+v, want zero strategy, 2 imputed", s)
	}
	if s := byCol["symptom_burden"]; s.Strategy != "median" || s.FillValue != 0.4 {
		t.Errorf("symptom_burden stats = %+v", s)
	}
	if _, ok := byCol["target"]; ok {
		t.Error("label column should not appear in imputation stats")
	}
}

func TestApplyGuaranteesDensity(t *testing.T) {
	tbl := featureTable(t)
	im, err := Fit(tbl)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := im.Apply(tbl); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for _, name := range tbl.Names() {
		if name == "target" {
			continue
		}
		if n := tbl.Column(name).NullCount(); n != 0 {
			t.Errorf("column %q still has %d nulls", name, n)
		}
	}
}

func TestApplyUnfittedColumnIsError(t *testing.T) {
	fitTbl := table.New()
	fitTbl.MustAddColumn(table.NewFloatColumn("a", 0))
	im, err := Fit(fitTbl)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	applyTbl := table.New()
	c := table.NewFloatColumn("b", 1)
	applyTbl.MustAddColumn(c)
	if _, err := im.Apply(applyTbl); err == nil {
		t.Error("applying to a column the imputer never saw should fail")
	}
}

func TestFitEmptyColumnFallsBackToZero(t *testing.T) {
	tbl := table.New()
	tbl.MustAddColumn(table.NewFloatColumn("all_missing", 3))

	im, err := Fit(tbl)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if got := im.Medians()["all_missing"]; got != 0 {
		t.Errorf("empty-column fallback = %v, want 0", got)
	}
	if _, err := im.Apply(tbl); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if tbl.Column("all_missing").NullCount() != 0 {
		t.Error("all-missing column should be filled with the fallback")
	}
}
