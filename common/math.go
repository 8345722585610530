package common

import "math"

// Sqrt2Minus2 is the diagonal correction term of the octile distance.
const Sqrt2Minus2 = math.Sqrt2 - 2

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func AbsInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Octile returns the 8-way grid distance between two cells when orthogonal
// steps cost 1 and diagonal steps cost sqrt(2).
func Octile(x1, y1, x2, y2 int) float64 {
	dx := float64(AbsInt(x1 - x2))
	dy := float64(AbsInt(y1 - y2))
	return dx + dy + Sqrt2Minus2*math.Min(dx, dy)
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
