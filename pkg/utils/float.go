package utils

import "math"

// Epsilon is the tolerance used when comparing timeline seconds.
const Epsilon = 1e-9

// NearlyEqual compares two float64 values within Epsilon.
func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
