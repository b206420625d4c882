package predict

import "github.com/lunaria-health/innerweather/internal/schema"

// MoodFor maps a cycle phase to the inner-weather mood shown in the app.
func MoodFor(phase string) string {
	switch phase {
	case schema.PhaseMenstrual:
		return "Rainy"
	case schema.PhaseFollicular:
		return "Clearing"
	case schema.PhaseFertility:
		return "Sunny"
	case schema.PhaseLuteal:
		return "Cloudy"
	}
	return "Unknown"
}

// Recommendation builds the guidance string for a prediction. The score tiers
// modulate the phase advice; an unconfident phase call softens the wording
// rather than suppressing it.
func Recommendation(phase string, score float64, confident bool) string {
	var base string
	switch phase {
	case schema.PhaseMenstrual:
		base = "Your body is asking for rest. Keep the schedule light and prioritize warmth and sleep."
	case schema.PhaseFollicular:
		base = "Energy is trending up. A good window for harder training and new projects."
	case schema.PhaseFertility:
		base = "You are near peak energy and the fertile window. Plan demanding days now."
	case schema.PhaseLuteal:
		base = "Winding-down phase. Favor steady routines and earlier nights."
	default:
		base = "Keep tracking daily to sharpen your forecast."
	}

	switch {
	case score < 35:
		base += " Today's body signals look strained; treat it as a recovery day regardless of phase."
	case score >= 75:
		base += " Signals look strong today."
	}

	if !confident {
		base = "Phase reading is tentative today. " + base
	}
	return base
}
