// Package predict is the boundary between the pipeline and the external
// phase/body-state estimators. It assembles the fixed-schema feature row a
// serving call needs — engineered hormone features, cyclical encodings and
// history-backed rolling windows — and interprets the estimator's output
// range, attaching a confidence derived from sensor coverage and from how far
// the day's features stray outside the training distribution.
package predict

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/lunaria-health/innerweather/internal/history"
)

// Input is the day's normalized feature set as submitted by the app: the
// eight z-scored/scaled values the wearable and lab panel provide. LH may be
// absent; it is then estimated from the other hormones.
type Input struct {
	UserID          string
	Date            string // YYYY-MM-DD
	RMSSDMean       float64
	WristTempMean   float64
	Estrogen        float64
	PDG             float64
	LH              *float64
	StressScoreMean float64
	OxygenRatioMean float64
	DayInStudy      float64 // min-max scaled study day
}

// rolling/lag layout applied to each history-tracked column.
var (
	historyColumns = []string{
		"wrist_temp_mean", "rmssd_mean", "stress_score_mean", "lh", "estrogen", "pdg",
	}
	rollWindows = []int{3, 7, 14, 21}
	lagOffsets  = []int{1, 3, 7}
)

// minHistoryDays is how many stored days are needed before real windows are
// used instead of the current-value proxy.
const minHistoryDays = 3

// FeatureNames returns the canonical feature order the estimators are trained
// against. Every Features call produces values aligned with this order.
func FeatureNames() []string {
	names := []string{
		"rmssd_mean", "wrist_temp_mean", "estrogen", "pdg", "lh",
		"stress_score_mean", "oxygen_ratio_mean", "day_in_study",
		"cycle_sin_28", "cycle_cos_28", "cycle_sin_14", "cycle_cos_14",
		"estrogen_pdg_ratio", "pdg_estrogen_ratio", "lh_estrogen_ratio", "lh_pdg_ratio",
		"lh_surge", "lh_very_high", "hormone_sum", "hormone_product",
	}
	for _, col := range historyColumns {
		for _, w := range rollWindows {
			names = append(names, fmt.Sprintf("%s_roll%d", col, w))
		}
		for _, l := range lagOffsets {
			names = append(names, fmt.Sprintf("%s_lag%d", col, l))
		}
		names = append(names, col+"_change1", col+"_change3", col+"_std7")
	}
	return names
}

// Features engineers the full feature vector for one day, using up to 21 days
// of stored history for the rolling and lag features. With fewer than three
// stored days the current value stands proxy for its own history and changes
// are 0.
//
// The cycle_sin/cos encodings take the min-max scaled study day as the cycle
// position, so their angle is 2π times the fractional part of the scaled day.
// The batch feature table derives the same-named columns from the raw study
// day instead; the deployed estimators are trained against the scaled-day
// convention used here, so any retraining from the batch table must re-derive
// these four columns to match.
func Features(in Input, hist []history.Day) map[string]float64 {
	f := map[string]float64{
		"rmssd_mean":        in.RMSSDMean,
		"wrist_temp_mean":   in.WristTempMean,
		"estrogen":          in.Estrogen,
		"pdg":               in.PDG,
		"stress_score_mean": in.StressScoreMean,
		"oxygen_ratio_mean": in.OxygenRatioMean,
		"day_in_study":      in.DayInStudy,
	}
	if in.LH != nil {
		f["lh"] = *in.LH
	}

	f["cycle_sin_28"] = math.Sin(2 * math.Pi * math.Mod(in.DayInStudy*28, 28) / 28)
	f["cycle_cos_28"] = math.Cos(2 * math.Pi * math.Mod(in.DayInStudy*28, 28) / 28)
	f["cycle_sin_14"] = math.Sin(2 * math.Pi * math.Mod(in.DayInStudy*14, 14) / 14)
	f["cycle_cos_14"] = math.Cos(2 * math.Pi * math.Mod(in.DayInStudy*14, 14) / 14)

	lh := f["lh"]
	f["estrogen_pdg_ratio"] = in.Estrogen / (math.Abs(in.PDG) + 0.1)
	f["pdg_estrogen_ratio"] = in.PDG / (math.Abs(in.Estrogen) + 0.1)
	f["lh_estrogen_ratio"] = lh / (math.Abs(in.Estrogen) + 0.1)
	f["lh_pdg_ratio"] = lh / (math.Abs(in.PDG) + 0.1)
	f["lh_surge"] = boolFeature(lh > 0.5)
	f["lh_very_high"] = boolFeature(lh > 1.0)
	f["hormone_sum"] = lh + in.Estrogen + in.PDG
	f["hormone_product"] = lh * in.Estrogen * in.PDG

	values := historyValues(hist)
	for _, col := range historyColumns {
		current := f[col]
		vals := values[col]
		useHistory := len(hist) >= minHistoryDays

		for _, w := range rollWindows {
			name := fmt.Sprintf("%s_roll%d", col, w)
			if useHistory && len(vals) >= w {
				f[name] = mean(vals[len(vals)-w:])
			} else {
				f[name] = current
			}
		}
		for _, l := range lagOffsets {
			name := fmt.Sprintf("%s_lag%d", col, l)
			if useHistory && len(vals) >= l {
				f[name] = vals[len(vals)-l]
			} else {
				f[name] = current
			}
		}
		f[col+"_change1"] = 0
		f[col+"_change3"] = 0
		f[col+"_std7"] = 0
		if useHistory {
			if len(vals) >= 1 {
				f[col+"_change1"] = current - vals[len(vals)-1]
			}
			if len(vals) >= 3 {
				f[col+"_change3"] = current - vals[len(vals)-3]
			}
			if len(vals) >= 7 {
				f[col+"_std7"] = stddevPop(vals[len(vals)-7:])
			}
		}
	}
	return f
}

// Vector flattens an engineered feature map into FeatureNames order. Missing
// entries become 0 so the estimator always sees a dense row.
func Vector(f map[string]float64) []float64 {
	names := FeatureNames()
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = f[name]
	}
	return out
}

func historyValues(hist []history.Day) map[string][]float64 {
	out := make(map[string][]float64, len(historyColumns))
	for _, d := range hist {
		appendIf(out, "wrist_temp_mean", d.WristTempMean)
		appendIf(out, "rmssd_mean", d.RMSSDMean)
		appendIf(out, "stress_score_mean", d.StressScoreMean)
		appendIf(out, "lh", d.LH)
		appendIf(out, "estrogen", d.Estrogen)
		appendIf(out, "pdg", d.PDG)
	}
	return out
}

func appendIf(m map[string][]float64, col string, v *float64) {
	if v != nil {
		m[col] = append(m[col], *v)
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func mean(vals []float64) float64 {
	return stat.Mean(vals, nil)
}

// stddevPop is the population std of a short serving window, matching how the
// std7 feature was built for training.
func stddevPop(vals []float64) float64 {
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// quantile returns the q-th empirical quantile of vals, used by the range
// model fit.
func quantile(vals []float64, q float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	return stat.Quantile(q, stat.Empirical, s, nil)
}
