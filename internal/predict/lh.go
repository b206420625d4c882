package predict

import "math"

// EstimateLH infers a z-scale LH value when the panel did not measure it.
// The estimate blends where the participant is in a 28-day cycle with the
// hormones that co-move with LH: the mid-cycle surge rides on high estrogen
// and not-yet-risen progesterone, and a slight wrist-temperature dip precedes
// ovulation. Weights: 0.4 cycle day, 0.3 estrogen, 0.2 PDG, 0.1 temperature.
// The blend is mapped from [0,1] to [-1,1] to sit on the z scale.
//
// The second return is a [0,1] confidence in the estimate: the mean of the
// cycle-day and estrogen factors, since those two carry most of the signal.
// It peaks when the day sits mid-surge with estrogen high, and falls toward 0
// when neither supports an LH surge.
func EstimateLH(dayInStudy, estrogen, pdg, wristTemp float64) (estimate, confidence float64) {
	cycleDay := math.Mod(dayInStudy*28, 28)

	// Peak likelihood around days 12-16.
	var dayFactor float64
	switch {
	case cycleDay >= 12 && cycleDay <= 16:
		dayFactor = 1 - math.Abs(cycleDay-14)/2
	case cycleDay >= 10 && cycleDay < 12:
		dayFactor = (cycleDay - 10) / 2 * 0.5
	case cycleDay > 16 && cycleDay <= 18:
		dayFactor = (18 - cycleDay) / 2 * 0.5
	}

	estrogenFactor := clamp01((estrogen + 2) / 4)
	pdgFactor := clamp01(1 - (pdg+2)/4)
	tempFactor := clamp01((-wristTemp + 2) / 4)

	blend := 0.4*dayFactor + 0.3*estrogenFactor + 0.2*pdgFactor + 0.1*tempFactor
	return blend*2 - 1, (dayFactor + estrogenFactor) / 2
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
