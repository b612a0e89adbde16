// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/finance-calculators/pkg/constants"
)

// RoundTo rounds half away from zero to the given number of decimals.
// Negative decimals leave the value untouched.
func RoundTo(val float64, decimals int) float64 {
	if decimals < 0 {
		return val
	}
	scale := math.Pow(10, float64(decimals))
	rounded := math.Round(val*scale) / scale
	if math.IsInf(rounded, 0) || math.IsNaN(rounded) {
		return val
	}
	return rounded
}

// Clamp limits val to [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// OnStep reports whether val lies on the grid base + k*step for an integer
// k, allowing for binary floating point error.
func OnStep(val, base, step float64) bool {
	if step <= 0 {
		return true
	}
	q := (val - base) / step
	return math.Abs(q-math.Round(q)) <= constants.StepTolerance*math.Max(1, math.Abs(q))
}

// SnapToStep moves val to the nearest point of the grid base + k*step.
func SnapToStep(val, base, step float64) float64 {
	if step <= 0 {
		return val
	}
	return base + math.Round((val-base)/step)*step
}
