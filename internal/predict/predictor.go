package predict

import (
	"fmt"

	"github.com/lunaria-health/innerweather/internal/history"
	"github.com/lunaria-health/innerweather/internal/schema"
)

// PhaseEstimator is a trained cycle-phase classifier. The feature vector is
// aligned with FeatureNames; the returned label is one of the four phase
// categories and probs maps every category to its class probability.
type PhaseEstimator interface {
	PredictPhase(features []float64) (phase string, probs map[string]float64, err error)
}

// ScoreEstimator is a trained body-state regressor returning a continuous
// score in [0,100], higher meaning a better-feeling day.
type ScoreEstimator interface {
	PredictScore(features []float64) (float64, error)
}

// Per-phase acceptance thresholds on the winning class probability. Luteal
// and fertile-window calls drive the most consequential guidance, so they
// demand more certainty before the phase is reported as confident.
var phaseThresholds = map[string]float64{
	schema.PhaseLuteal:     0.60,
	schema.PhaseFertility:  0.55,
	schema.PhaseFollicular: 0.50,
	schema.PhaseMenstrual:  0.50,
}

// historyWindowDays bounds how far back the feature windows reach; the
// longest rolling window is 21 days.
const historyWindowDays = 21

// Prediction is the full serving result for one user-day. LHConfidence is the
// estimation confidence when LH was inferred, and 1 when it was measured.
type Prediction struct {
	UserID         string              `json:"user_id"`
	Date           string              `json:"date"`
	Phase          string              `json:"phase"`
	PhaseConfident bool                `json:"phase_confident"`
	Probabilities  map[string]float64  `json:"probabilities,omitempty"`
	Score          float64             `json:"score"`
	Confidence     float64             `json:"confidence"`
	Mood           string              `json:"mood"`
	Recommendation string              `json:"recommendation"`
	LHEstimated    bool                `json:"lh_estimated"`
	LHConfidence   float64             `json:"lh_estimation_confidence"`
	HistoryDays    int                 `json:"history_days"`
	CycleStats     *history.CycleStats `json:"cycle_stats,omitempty"`
}

// Predictor wires the estimators, the training range model and the per-user
// history store into one serving call.
type Predictor struct {
	Phase  PhaseEstimator
	Score  ScoreEstimator
	Ranges RangeModel
	Hist   *history.DB
}

// Predict runs the full serving path for one day: load history, estimate LH
// if absent, engineer the feature row, call both estimators, attach
// confidence and guidance, and persist the day back into the history store.
func (p *Predictor) Predict(in Input, coverage []float64) (*Prediction, error) {
	hist, err := p.Hist.History(in.UserID, historyWindowDays)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", in.UserID, err)
	}

	lhEstimated := false
	lhConfidence := 1.0
	if in.LH == nil {
		est, conf := EstimateLH(in.DayInStudy, in.Estrogen, in.PDG, in.WristTempMean)
		in.LH = &est
		lhEstimated = true
		lhConfidence = conf
	}

	features := Features(in, hist)
	vec := Vector(features)

	phase, probs, err := p.Phase.PredictPhase(vec)
	if err != nil {
		return nil, fmt.Errorf("phase estimation: %w", err)
	}
	score, err := p.Score.PredictScore(vec)
	if err != nil {
		return nil, fmt.Errorf("score estimation: %w", err)
	}

	conf := Confidence(p.Ranges, features, coverage)
	confident := probs[phase] >= phaseThresholds[phase]

	pred := &Prediction{
		UserID:         in.UserID,
		Date:           in.Date,
		Phase:          phase,
		PhaseConfident: confident,
		Probabilities:  probs,
		Score:          score,
		Confidence:     conf,
		Mood:           MoodFor(phase),
		Recommendation: Recommendation(phase, score, confident),
		LHEstimated:    lhEstimated,
		LHConfidence:   lhConfidence,
		HistoryDays:    len(hist),
	}

	if err := p.storeDay(in, pred); err != nil {
		return nil, err
	}
	if stats, err := p.Hist.Stats(in.UserID); err == nil && stats != (history.CycleStats{}) {
		pred.CycleStats = &stats
	}
	return pred, nil
}

func (p *Predictor) storeDay(in Input, pred *Prediction) error {
	day := history.Day{
		UserID:          in.UserID,
		Date:            in.Date,
		RMSSDMean:       ptr(in.RMSSDMean),
		WristTempMean:   ptr(in.WristTempMean),
		Estrogen:        ptr(in.Estrogen),
		PDG:             ptr(in.PDG),
		LH:              in.LH,
		StressScoreMean: ptr(in.StressScoreMean),
		OxygenRatioMean: ptr(in.OxygenRatioMean),
		DayInStudy:      ptr(in.DayInStudy),
		PredictedPhase:  &pred.Phase,
		Confidence:      ptr(pred.Confidence),
	}
	if err := p.Hist.AddDay(&day); err != nil {
		return fmt.Errorf("storing day for %s: %w", in.UserID, err)
	}
	return nil
}

func ptr(v float64) *float64 { return &v }
