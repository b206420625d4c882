package schema

// AggOp names a per-group summary statistic.
type AggOp string

const (
	AggMean AggOp = "mean"
	AggMin  AggOp = "min"
	AggMax  AggOp = "max"
	AggStd  AggOp = "std"
)

// AggColumn maps one raw metric and statistic to its daily output column.
type AggColumn struct {
	Metric string
	Op     AggOp
	Output string
}

// Source describes one of the six input CSV files: its filename, sampling
// granularity, the raw metric columns it carries and the daily aggregate
// columns the aggregator derives from them.
type Source struct {
	Name     string // logical name used in diagnostics
	Filename string
	// MetricColumns are the raw per-sample measurement columns the file must
	// carry in addition to the join keys.
	MetricColumns []string
	// StringColumns are parsed as text rather than numbers.
	StringColumns []string
	// AggColumns are the daily statistics derived per group.
	AggColumns []AggColumn
	// CountMetric/CountColumn name the metric whose non-null observations are
	// counted per day and the output count column; empty for no count.
	CountMetric string
	CountColumn string
	// DayColumn is the raw column holding the day key when the file does not
	// call it day_in_study (the per-sleep-session export keys on the night's
	// start day).
	DayColumn string
	// Daily marks sources already at one row per day; the aggregator skips
	// them.
	Daily bool
}

func stats(metric, prefix string) []AggColumn {
	return []AggColumn{
		{metric, AggMean, prefix + "_mean"},
		{metric, AggMin, prefix + "_min"},
		{metric, AggMax, prefix + "_max"},
		{metric, AggStd, prefix + "_std"},
	}
}

// Sensor sources, all keyed by the shared join tuple.
var (
	WristTemperature = Source{
		Name:          "wrist_temperature",
		Filename:      "wrist_temperature.csv",
		MetricColumns: []string{"temperature_diff_from_baseline"},
		AggColumns:    stats("temperature_diff_from_baseline", "wrist_temp"),
		CountMetric:   "temperature_diff_from_baseline",
		CountColumn:   "wrist_temp_count",
	}
	OxygenVariation = Source{
		Name:          "estimated_oxygen_variation",
		Filename:      "estimated_oxygen_variation.csv",
		MetricColumns: []string{"infrared_to_red_signal_ratio"},
		AggColumns:    stats("infrared_to_red_signal_ratio", "oxygen_ratio"),
		CountMetric:   "infrared_to_red_signal_ratio",
		CountColumn:   "oxygen_ratio_count",
	}
	HeartRateVariability = Source{
		Name:          "heart_rate_variability_details",
		Filename:      "heart_rate_variability_details.csv",
		MetricColumns: []string{"rmssd", "coverage", "low_frequency", "high_frequency"},
		AggColumns: []AggColumn{
			{"rmssd", AggMean, "rmssd_mean"},
			{"rmssd", AggStd, "rmssd_std"},
			{"coverage", AggMean, "coverage_mean"},
			{"low_frequency", AggMean, "low_frequency_mean"},
			{"high_frequency", AggMean, "high_frequency_mean"},
		},
		CountMetric: "rmssd",
		CountColumn: "hrv_count",
	}
	StressScore = Source{
		Name:     "stress_score",
		Filename: "stress_score.csv",
		MetricColumns: []string{
			"stress_score", "sleep_points", "responsiveness_points", "exertion_points",
		},
		AggColumns: []AggColumn{
			{"stress_score", AggMean, "stress_score_mean"},
			{"stress_score", AggMax, "stress_score_max"},
			{"sleep_points", AggMean, "sleep_points_mean"},
			{"responsiveness_points", AggMean, "responsiveness_points_mean"},
			{"exertion_points", AggMean, "exertion_points_mean"},
		},
		CountMetric: "stress_score",
		CountColumn: "stress_count",
	}
	ComputedTemperature = Source{
		Name:     "computed_temperature",
		Filename: "computed_temperature.csv",
		MetricColumns: []string{
			"nightly_temperature", "baseline_relative_sample_sum",
			"baseline_relative_sample_sum_of_squares",
			"baseline_relative_nightly_standard_deviation",
			"baseline_relative_sample_standard_deviation",
		},
		AggColumns: []AggColumn{
			{"nightly_temperature", AggMean, "nightly_temp_mean"},
			{"baseline_relative_sample_sum", AggMean, "baseline_rel_sample_sum"},
			{"baseline_relative_sample_sum_of_squares", AggMean, "baseline_rel_sample_sum_sq"},
			{"baseline_relative_nightly_standard_deviation", AggMean, "baseline_rel_nightly_std"},
			{"baseline_relative_sample_standard_deviation", AggMean, "baseline_rel_sample_std"},
		},
		DayColumn: "sleep_start_day_in_study",
	}
	HormonesSelfReport = Source{
		Name:          "hormones_and_selfreport",
		Filename:      "hormones_and_selfreport.csv",
		Daily:         true,
		MetricColumns: []string{"lh", "estrogen", "pdg"},
		StringColumns: append(append([]string{}, OrdinalColumns...),
			"flow_volume", "flow_color", "phase"),
	}
)

// Sources lists all six input files in documented merge order: the daily
// self-report table drives the join, the aggregated sensor tables follow.
var Sources = []Source{
	HormonesSelfReport,
	WristTemperature,
	OxygenVariation,
	HeartRateVariability,
	StressScore,
	ComputedTemperature,
}

// CSVStringColumns returns the string-typed column set for reading a source
// file; identifiers are always text.
func (s Source) CSVStringColumns() map[string]bool {
	cols := map[string]bool{"id": true, "study_interval": true}
	for _, c := range s.StringColumns {
		cols[c] = true
	}
	return cols
}

// RequiredColumns returns every column the source file must carry: the join
// keys plus its metric columns. A missing column is a schema error.
func (s Source) RequiredColumns() []string {
	cols := append([]string{}, JoinKeys...)
	if s.DayColumn != "" {
		// The raw file keys on its own day column instead of day_in_study.
		cols = cols[:0]
		for _, k := range JoinKeys {
			if k == "day_in_study" {
				cols = append(cols, s.DayColumn)
			} else {
				cols = append(cols, k)
			}
		}
	}
	return append(cols, s.MetricColumns...)
}
