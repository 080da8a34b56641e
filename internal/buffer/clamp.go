package buffer

import "math"

// ClampByte converts a channel value to a byte: NaN becomes 0, values are
// clamped to [0,255] and rounded half to even.
func ClampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}

// RoundHalfUp rounds to the nearest integer, ties toward positive infinity.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// ClampFloat limits v to [lo, hi]. NaN maps to lo.
func ClampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
