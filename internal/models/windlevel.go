package models

// Beaufort scale bucket upper bounds in m/s.
// Reference: https://en.wikipedia.org/wiki/Beaufort_scale
var windLevelMax = []float64{0.3, 1.6, 4, 6, 8, 11, 14, 18, 21, 25, 29, 33}

// WindLevel maps a wind speed in m/s to its Beaufort-like level index: the
// first bucket whose upper bound strictly exceeds the speed.
func WindLevel(speed float64) int {
	for i, max := range windLevelMax {
		if speed < max {
			return i
		}
	}
	return len(windLevelMax)
}
