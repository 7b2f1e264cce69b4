// Package utils contains small shared numeric helpers.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual reports whether two floats are within epsilon of each
// other.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) <= epsilon
}
