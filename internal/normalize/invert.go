package normalize

import (
	"fmt"
	"math"

	"github.com/lunaria-health/innerweather/internal/schema"
)

// InvertZScore recovers the raw measurement from a z-scored value and the
// participant baseline it was normalized against.
func InvertZScore(z float64, b Baseline) float64 {
	return z*b.Std + b.Mean
}

// InvertOrdinal recovers the integer rank from a min-max scaled ordinal value
// given the scale's top rank (5 for symptoms, 7 for flow_volume).
func InvertOrdinal(scaled float64, maxRank int) int {
	return int(math.Round(scaled * float64(maxRank)))
}

// OrdinalLabel recovers the canonical text label for a symptom severity rank.
func OrdinalLabel(rank int) (string, error) {
	// The scale maps two labels to rank 1; "Very Low/Little" is canonical.
	labels := map[int]string{
		0: "Not at all",
		1: "Very Low/Little",
		2: "Low",
		3: "Moderate",
		4: "High",
		5: "Very High",
	}
	label, ok := labels[rank]
	if !ok {
		return "", fmt.Errorf("no symptom label for rank %d", rank)
	}
	return label, nil
}

// FlowVolumeLabel recovers the text label for a flow volume rank.
func FlowVolumeLabel(rank int) (string, error) {
	for label, r := range schema.FlowVolumeScale {
		if r == rank {
			return label, nil
		}
	}
	return "", fmt.Errorf("no flow volume label for rank %d", rank)
}
