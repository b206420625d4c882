// Package schema holds the process-wide, immutable configuration of the daily
// feature pipeline: the shared key tuple, the fixed encoding dictionaries, the
// per-sensor expected sample maxima and the column classes that route each
// column through the right encoding path. Nothing here is mutated at runtime.
package schema

// JoinKeys is the shared daily-record key tuple, in canonical order.
var JoinKeys = []string{"id", "study_interval", "is_weekend", "day_in_study"}

// SortKeys orders the merged table for output and temporal work.
var SortKeys = []string{"id", "study_interval", "day_in_study"}

// Study day range used for min-max scaling day_in_study. Fixed by the study
// protocol rather than derived from the data so scaling is stable across
// re-runs over row subsets.
const (
	StudyDayMin = 1
	StudyDayMax = 84
)

// NumericToOrdinal repairs the mixed encoding in self-report exports where
// some rows carry the numeric severity code as text instead of the label.
var NumericToOrdinal = map[string]string{
	"1": "Very Low/Little",
	"2": "Low",
	"3": "Moderate",
	"4": "High",
	"5": "Very High",
}

// MixedEncodingColumns are the self-report columns known to mix numeric codes
// with text labels on the same ordinal scale.
var MixedEncodingColumns = []string{"headaches", "stress"}

// OrdinalScale maps symptom severity labels to their 0..5 integer rank.
var OrdinalScale = map[string]int{
	"Not at all":      0,
	"Very Low/Little": 1,
	"Very Low":        1,
	"Low":             2,
	"Moderate":        3,
	"High":            4,
	"Very High":       5,
}

// OrdinalMax is the top rank of the symptom severity scale.
const OrdinalMax = 5

// OrdinalColumns are the twelve 0..5 symptom severity columns.
var OrdinalColumns = []string{
	"appetite", "exerciselevel", "headaches", "cramps", "sorebreasts",
	"fatigue", "sleepissue", "moodswing", "stress", "foodcravings",
	"indigestion", "bloating",
}

// FlowVolumeScale maps menstrual flow labels to their 0..7 integer rank.
var FlowVolumeScale = map[string]int{
	"Not at all":            0,
	"Spotting / Very Light": 1,
	"Light":                 2,
	"Somewhat Light":        3,
	"Moderate":              4,
	"Somewhat Heavy":        5,
	"Heavy":                 6,
	"Very Heavy":            7,
}

// FlowVolumeMax is the top rank of the flow volume scale.
const FlowVolumeMax = 7

// The four cycle phase classes.
const (
	PhaseFertility  = "Fertility"
	PhaseFollicular = "Follicular"
	PhaseLuteal     = "Luteal"
	PhaseMenstrual  = "Menstrual"
)

// PhaseCategories are the phase classes in one-hot column order.
var PhaseCategories = []string{PhaseFertility, PhaseFollicular, PhaseLuteal, PhaseMenstrual}

// FlowColorCategories are the nine flow color classes, in one-hot column order.
var FlowColorCategories = []string{
	"None", "Bright Red", "Dark Red", "Brown", "Dark Brown",
	"Black", "Pink", "Orange", "Gray",
}

// CountColumns lists the raw sensor count columns in output schema order.
// Anything deriving per-sensor columns must range over this slice, not
// ExpectedDailySamples, so the emitted column order is fixed across runs.
var CountColumns = []string{
	"wrist_temp_count", "oxygen_ratio_count", "hrv_count", "stress_count",
}

// ExpectedDailySamples maps each sensor count column to the number of samples
// a full day of recording would produce. Counts divided by these maxima give
// the 0..1 coverage ratios.
var ExpectedDailySamples = map[string]int{
	"wrist_temp_count":   1440, // 1 per minute
	"oxygen_ratio_count": 1440, // 1 per minute
	"hrv_count":          288,  // 1 per 5 minutes
	"stress_count":       4,    // irregular, typically up to 4 per day
}

// CoverageColumnFor derives the coverage ratio column name from its raw count
// column name.
func CoverageColumnFor(countCol string) string {
	const suffix = "_count"
	return countCol[:len(countCol)-len(suffix)] + "_coverage"
}

// ContinuousPersonalColumns are the sensor and hormone columns that are
// z-scored against each participant's own baseline.
var ContinuousPersonalColumns = []string{
	"wrist_temp_mean", "wrist_temp_min", "wrist_temp_max", "wrist_temp_std",
	"oxygen_ratio_mean", "oxygen_ratio_min", "oxygen_ratio_max", "oxygen_ratio_std",
	"rmssd_mean", "rmssd_std", "coverage_mean", "low_frequency_mean", "high_frequency_mean",
	"stress_score_mean", "stress_score_max",
	"sleep_points_mean", "responsiveness_points_mean", "exertion_points_mean",
	"nightly_temp_mean", "baseline_rel_sample_sum", "baseline_rel_sample_sum_sq",
	"baseline_rel_nightly_std", "baseline_rel_sample_std",
	"lh", "estrogen", "pdg",
}

// TemporalBaseColumns are the normalized columns the temporal feature builder
// derives lag/delta/rolling features from.
var TemporalBaseColumns = []string{
	"lh", "estrogen", "pdg",
	"wrist_temp_mean", "nightly_temp_mean", "rmssd_mean",
	"stress_score_mean", "stress_score_max",
	"sleep_points_mean", "responsiveness_points_mean", "exertion_points_mean",
}

// LabelColumns are model targets, never imputed: a label undefined at a
// series boundary stays undefined.
var LabelColumns = []string{"target"}

// IsLabel reports whether the column is a model target.
func IsLabel(col string) bool {
	for _, c := range LabelColumns {
		if c == col {
			return true
		}
	}
	return false
}

// IsContinuousPersonal reports whether the column is z-scored per participant.
func IsContinuousPersonal(col string) bool {
	for _, c := range ContinuousPersonalColumns {
		if c == col {
			return true
		}
	}
	return false
}

// IsOrdinal reports whether the column is a 0..5 symptom severity column.
func IsOrdinal(col string) bool {
	for _, c := range OrdinalColumns {
		if c == col {
			return true
		}
	}
	return false
}
