package predict

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/lunaria-health/innerweather/internal/history"
	"github.com/lunaria-health/innerweather/internal/schema"
)

func ptrF(v float64) *float64 { return &v }

func baseInput() Input {
	return Input{
		UserID:          "u1",
		Date:            "2026-08-29",
		RMSSDMean:       0.3,
		WristTempMean:   -0.2,
		Estrogen:        0.8,
		PDG:             -0.4,
		LH:              ptrF(0.6),
		StressScoreMean: 0.1,
		OxygenRatioMean: 0.0,
		DayInStudy:      0.5,
	}
}

func TestFeaturesWithoutHistoryUsesCurrentAsProxy(t *testing.T) {
	f := Features(baseInput(), nil)

	// With no history the current value stands proxy for its rolling windows
	// and lags, and changes are zero.
	if f["lh_roll7"] != 0.6 || f["lh_lag3"] != 0.6 {
		t.Errorf("proxy features = roll7 %v, lag3 %v; want 0.6 for both", f["lh_roll7"], f["lh_lag3"])
	}
	if f["lh_change1"] != 0 || f["estrogen_std7"] != 0 {
		t.Errorf("change/std features should be 0 without history")
	}
	if f["lh_surge"] != 1 {
		t.Errorf("lh_surge = %v, want 1 for lh > 0.5", f["lh_surge"])
	}
	if f["lh_very_high"] != 0 {
		t.Errorf("lh_very_high = %v, want 0 for lh <= 1", f["lh_very_high"])
	}
}

func TestFeaturesRatiosGuarded(t *testing.T) {
	in := baseInput()
	in.Estrogen = 0
	in.PDG = 0
	f := Features(in, nil)
	for _, name := range []string{"estrogen_pdg_ratio", "lh_pdg_ratio", "lh_estrogen_ratio"} {
		if math.IsInf(f[name], 0) || math.IsNaN(f[name]) {
			t.Errorf("%s = %v; division must be guarded against zero denominators", name, f[name])
		}
	}
}

func TestFeaturesWithHistoryWindows(t *testing.T) {
	var hist []history.Day
	for i := 0; i < 7; i++ {
		hist = append(hist, history.Day{
			UserID: "u1",
			LH:     ptrF(float64(i)), // 0..6, chronological
		})
	}
	in := baseInput()
	in.LH = ptrF(10)
	f := Features(in, hist)

	// roll3 covers the last three stored values {4,5,6}.
	if got := f["lh_roll3"]; math.Abs(got-5) > 1e-12 {
		t.Errorf("lh_roll3 = %v, want 5", got)
	}
	if got := f["lh_lag1"]; got != 6 {
		t.Errorf("lh_lag1 = %v, want 6 (yesterday)", got)
	}
	if got := f["lh_change1"]; got != 4 {
		t.Errorf("lh_change1 = %v, want 10-6", got)
	}
	// A 14-day window cannot be filled from 7 days; the current value stands in.
	if got := f["lh_roll14"]; got != 10 {
		t.Errorf("lh_roll14 = %v, want current-value proxy 10", got)
	}
}

func TestVectorAlignsWithFeatureNames(t *testing.T) {
	f := Features(baseInput(), nil)
	vec := Vector(f)
	names := FeatureNames()
	if len(vec) != len(names) {
		t.Fatalf("vector length %d != %d names", len(vec), len(names))
	}
	for i, name := range names {
		if vec[i] != f[name] {
			t.Errorf("vec[%d] (%s) = %v, want %v", i, name, vec[i], f[name])
		}
	}
}

func TestEstimateLHRangeAndPeak(t *testing.T) {
	// Mid-cycle day 14 with high estrogen and low progesterone is the
	// strongest surge evidence the estimator accepts.
	peak, peakConf := EstimateLH(14.0/28.0, 2, -2, -2)
	trough, troughConf := EstimateLH(24.0/28.0, -2, 2, 2)
	if peak <= trough {
		t.Errorf("peak %v should exceed trough %v", peak, trough)
	}
	for _, v := range []float64{peak, trough} {
		if v < -1 || v > 1 {
			t.Errorf("estimate %v outside [-1,1]", v)
		}
	}
	// Mid-surge with estrogen pinned high maxes both confidence factors; a
	// late-luteal day with estrogen low supports neither.
	if peakConf != 1 {
		t.Errorf("peak confidence = %v, want 1", peakConf)
	}
	if troughConf != 0 {
		t.Errorf("trough confidence = %v, want 0", troughConf)
	}
	for _, c := range []float64{peakConf, troughConf} {
		if c < 0 || c > 1 {
			t.Errorf("confidence %v outside [0,1]", c)
		}
	}
}

func TestRangeModelOutOfRangeFraction(t *testing.T) {
	cols := map[string][]float64{}
	for i := 0; i < 2; i++ {
		name := []string{"a", "b"}[i]
		vals := make([]float64, 200)
		for j := range vals {
			vals[j] = float64(j) // 0..199
		}
		cols[name] = vals
	}
	rm := FitRanges(cols)

	inside := map[string]float64{"a": 100, "b": 100}
	if frac := rm.OutOfRangeFraction(inside); frac != 0 {
		t.Errorf("in-range row fraction = %v, want 0", frac)
	}
	half := map[string]float64{"a": 100, "b": 1e6}
	if frac := rm.OutOfRangeFraction(half); frac != 0.5 {
		t.Errorf("half-out row fraction = %v, want 0.5", frac)
	}
	// Unknown features are skipped, not counted as outliers.
	unknown := map[string]float64{"zzz": 1e9}
	if frac := rm.OutOfRangeFraction(unknown); frac != 0 {
		t.Errorf("unknown-only fraction = %v, want 0", frac)
	}
}

func TestConfidenceBounds(t *testing.T) {
	rm := RangeModel{}
	full := Confidence(rm, map[string]float64{}, []float64{1, 1, 1})
	if full != 100 {
		t.Errorf("full coverage, all in range: confidence = %v, want 100", full)
	}
	low := Confidence(rm, map[string]float64{}, []float64{0, 0})
	if low < 0 || low > 100 {
		t.Errorf("confidence %v outside [0,100]", low)
	}
	if low >= full {
		t.Error("zero coverage should reduce confidence")
	}
}

func TestBaselinePhaseFollowsCycle(t *testing.T) {
	day := func(d float64) []float64 {
		f := Features(Input{DayInStudy: d / 28.0, LH: ptrF(0)}, nil)
		return Vector(f)
	}

	var b Baseline
	phase, probs, err := b.PredictPhase(day(2))
	if err != nil {
		t.Fatalf("PredictPhase failed: %v", err)
	}
	if phase != schema.PhaseMenstrual {
		t.Errorf("day 2 phase = %q, want Menstrual", phase)
	}
	var total float64
	for _, p := range probs {
		total += p
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("probabilities sum to %v, want 1", total)
	}

	phase, _, err = b.PredictPhase(day(22))
	if err != nil {
		t.Fatalf("PredictPhase failed: %v", err)
	}
	if phase != schema.PhaseLuteal {
		t.Errorf("day 22 phase = %q, want Luteal", phase)
	}
}

func TestBaselineScoreBounds(t *testing.T) {
	var b Baseline
	for _, stress := range []float64{-3, 0, 3} {
		f := Features(Input{StressScoreMean: stress, LH: ptrF(0)}, nil)
		score, err := b.PredictScore(Vector(f))
		if err != nil {
			t.Fatalf("PredictScore failed: %v", err)
		}
		if score < 0 || score > 100 {
			t.Errorf("score %v outside [0,100]", score)
		}
	}
}

func TestPredictorEndToEnd(t *testing.T) {
	db, err := history.NewDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	p := &Predictor{
		Phase:  Baseline{},
		Score:  Baseline{},
		Ranges: RangeModel{},
		Hist:   db,
	}

	in := baseInput()
	in.LH = nil // force estimation
	pred, err := p.Predict(in, []float64{0.9, 0.8})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if !pred.LHEstimated {
		t.Error("LHEstimated should be set when LH was absent")
	}
	if pred.LHConfidence < 0 || pred.LHConfidence >= 1 {
		t.Errorf("estimation confidence = %v, want [0,1) for an estimated LH", pred.LHConfidence)
	}
	wantEst, wantConf := EstimateLH(in.DayInStudy, in.Estrogen, in.PDG, in.WristTempMean)
	if pred.LHConfidence != wantConf {
		t.Errorf("estimation confidence = %v, want %v", pred.LHConfidence, wantConf)
	}
	if pred.Phase == "" || pred.Mood == "" || pred.Recommendation == "" {
		t.Errorf("incomplete prediction: %+v", pred)
	}
	if pred.Confidence < 0 || pred.Confidence > 100 {
		t.Errorf("confidence %v outside [0,100]", pred.Confidence)
	}
	if pred.Score < 0 || pred.Score > 100 {
		t.Errorf("score %v outside [0,100]", pred.Score)
	}

	// The day was persisted into the rolling history store.
	hist, err := db.History("u1", 21)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected the predicted day to be stored, got %d rows", len(hist))
	}
	if hist[0].PredictedPhase == nil || *hist[0].PredictedPhase != pred.Phase {
		t.Error("stored phase does not match the prediction")
	}
	if hist[0].LH == nil || *hist[0].LH != wantEst {
		t.Errorf("stored LH = %v, want the estimate %v", hist[0].LH, wantEst)
	}
}

func TestPredictorMeasuredLHKeepsFullConfidence(t *testing.T) {
	db, err := history.NewDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close()

	p := &Predictor{Phase: Baseline{}, Score: Baseline{}, Hist: db}
	pred, err := p.Predict(baseInput(), nil)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.LHEstimated {
		t.Error("measured LH should not be flagged as estimated")
	}
	if pred.LHConfidence != 1 {
		t.Errorf("measured LH confidence = %v, want 1", pred.LHConfidence)
	}
}

func TestMoodMapping(t *testing.T) {
	moods := map[string]string{
		schema.PhaseMenstrual:  "Rainy",
		schema.PhaseFollicular: "Clearing",
		schema.PhaseFertility:  "Sunny",
		schema.PhaseLuteal:     "Cloudy",
	}
	for phase, want := range moods {
		if got := MoodFor(phase); got != want {
			t.Errorf("MoodFor(%s) = %q, want %q", phase, got, want)
		}
	}
	if MoodFor("???") != "Unknown" {
		t.Error("unknown phase should map to Unknown")
	}
}

func TestRecommendationTiers(t *testing.T) {
	confident := Recommendation(schema.PhaseFollicular, 80, true)
	tentative := Recommendation(schema.PhaseFollicular, 80, false)
	if confident == tentative {
		t.Error("unconfident phase call should soften the wording")
	}
	strained := Recommendation(schema.PhaseFollicular, 20, true)
	if strained == confident {
		t.Error("low score should change the guidance")
	}
}
