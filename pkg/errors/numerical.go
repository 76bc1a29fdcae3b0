package errors

import (
	"math"
)

// CheckFinite returns a NumericDegeneracyError if any value is NaN or Inf.
// Used at statistic boundaries so a degenerate intermediate fails the run
// instead of leaking into the report.
func CheckFinite(op string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericDegeneracyError(op, "non-finite value in computation")
		}
	}
	return nil
}

// CheckVariance returns a NumericDegeneracyError if the sum of squared
// deviations is zero, i.e. the input is constant.
func CheckVariance(op string, ss float64) error {
	if ss == 0 || math.IsNaN(ss) {
		return NewNumericDegeneracyError(op, "zero variance in input")
	}
	return nil
}

// SafeDivide performs division with protection against division by zero.
// Returns 0 if the denominator is zero or close to zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
