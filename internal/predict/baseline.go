package predict

import (
	"math"

	"github.com/lunaria-health/innerweather/internal/schema"
)

// Baseline is the rule-based fallback used when no trained estimator
// artifacts are deployed. Phase comes from the calendar position of the
// 28-day cycle nudged by the hormone panel; the body-state score blends
// stress, recovery and oxygenation. It exists so the serving path stays up
// during model rollouts, not to compete with a trained model.
type Baseline struct{}

var featureIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, name := range FeatureNames() {
		idx[name] = i
	}
	return idx
}()

func at(features []float64, name string) float64 {
	i, ok := featureIndex[name]
	if !ok || i >= len(features) {
		return 0
	}
	return features[i]
}

// PredictPhase assigns calendar-based phase scores, boosts the fertile window
// on an LH surge and the luteal call on high progesterone, then normalizes
// the scores into pseudo-probabilities.
func (Baseline) PredictPhase(features []float64) (string, map[string]float64, error) {
	cycleDay := math.Mod(at(features, "day_in_study")*28, 28)

	scores := map[string]float64{
		schema.PhaseMenstrual:  phaseAffinity(cycleDay, 2.5, 3.5),
		schema.PhaseFollicular: phaseAffinity(cycleDay, 8.5, 4.5),
		schema.PhaseFertility:  phaseAffinity(cycleDay, 14, 2.5),
		schema.PhaseLuteal:     phaseAffinity(cycleDay, 22, 4.5),
	}
	if at(features, "lh_surge") > 0 {
		scores[schema.PhaseFertility] *= 1.6
	}
	if at(features, "pdg") > 0.5 {
		scores[schema.PhaseLuteal] *= 1.4
	}
	if at(features, "estrogen") < -0.5 && cycleDay < 7 {
		scores[schema.PhaseMenstrual] *= 1.3
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	best, bestProb := "", -1.0
	probs := make(map[string]float64, len(scores))
	for _, phase := range schema.PhaseCategories {
		probs[phase] = scores[phase] / total
		if probs[phase] > bestProb {
			best, bestProb = phase, probs[phase]
		}
	}
	return best, probs, nil
}

// PredictScore maps day-level strain signals onto [0,100]. Low stress, high
// HRV and normal oxygenation pull the score up.
func (Baseline) PredictScore(features []float64) (float64, error) {
	stress := at(features, "stress_score_mean")
	rmssd := at(features, "rmssd_mean")
	oxygen := at(features, "oxygen_ratio_mean")

	score := 60.0
	score -= 25 * clampSym(stress, 2) // z-scored stress, higher is worse
	score += 15 * clampSym(rmssd, 2)
	score -= 10 * math.Abs(clampSym(oxygen, 2))
	return math.Max(0, math.Min(100, score)), nil
}

// phaseAffinity is a gaussian bump centred on the phase's typical cycle day,
// wrapped at the 28-day boundary.
func phaseAffinity(day, center, width float64) float64 {
	d := math.Abs(day - center)
	if d > 14 {
		d = 28 - d
	}
	return math.Exp(-d * d / (2 * width * width))
}

func clampSym(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v)) / limit
}
