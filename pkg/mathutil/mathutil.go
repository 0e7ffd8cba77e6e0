// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/uldisg/cropwise/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Compound applies a yearly rate over the given number of years and
// returns the growth factor, e.g. Compound(0.02, 2) = 1.0404.
func Compound(rate float64, years int) float64 {
	if years <= 0 {
		return 1.0
	}
	return math.Pow(1.0+rate, float64(years))
}
