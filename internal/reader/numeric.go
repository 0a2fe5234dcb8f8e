package reader

import "math"

func inf(sign int) float64 {
	if sign < 0 {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

func nan() float64 { return math.NaN() }
