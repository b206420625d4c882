package predict

// RangeModel holds the training set's 1st-99th percentile band per feature.
// A serving row with many features outside its band is far from anything the
// model saw during training, so its prediction deserves less trust.
type RangeModel struct {
	Low  map[string]float64 `json:"low"`
	High map[string]float64 `json:"high"`
}

// FitRanges learns the percentile band from training feature columns.
func FitRanges(cols map[string][]float64) RangeModel {
	rm := RangeModel{
		Low:  make(map[string]float64, len(cols)),
		High: make(map[string]float64, len(cols)),
	}
	for name, vals := range cols {
		if len(vals) == 0 {
			continue
		}
		rm.Low[name] = quantile(vals, 0.01)
		rm.High[name] = quantile(vals, 0.99)
	}
	return rm
}

// OutOfRangeFraction is the share of known features falling outside the
// training band. Features the model has no band for are skipped.
func (rm RangeModel) OutOfRangeFraction(f map[string]float64) float64 {
	var total, outside int
	for name, v := range f {
		lo, okLo := rm.Low[name]
		hi, okHi := rm.High[name]
		if !okLo || !okHi {
			continue
		}
		total++
		if v < lo || v > hi {
			outside++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(outside) / float64(total)
}

// Confidence scores a serving row in [0,100]: sensor coverage says how much
// of the day the wearables actually observed, and the in-range fraction says
// how familiar the row looks to the model. Coverage carries more weight
// because a sparsely-observed day is untrustworthy even when its values look
// ordinary.
func Confidence(rm RangeModel, f map[string]float64, coverage []float64) float64 {
	cov := 1.0
	if len(coverage) > 0 {
		cov = clamp01(mean(coverage))
	}
	inRange := 1 - rm.OutOfRangeFraction(f)
	return 100 * (0.6*cov + 0.4*inRange)
}
