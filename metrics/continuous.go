// Package metrics computes scalar performance values from aligned
// prediction and ground-truth vectors. Continuous-response metrics live in
// this file; binary-response metrics in classification.go. Every function
// takes gonum vectors and returns a single float64 plus an error, so the
// evaluation engine can treat all metrics uniformly.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/modeleval/pkg/errors"
)

// validatePair checks both vectors are non-empty and aligned.
func validatePair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Enhancement computes the hit-rate-at-depth-m divided by the overall base
// rate of actives. Observations are ranked by predicted score descending;
// the response values themselves are the activity signal, so for a binary
// 0/1 response this is (hits(m)/m) / (actives/n) and for a continuous
// response it is the mean response of the top m over the grand mean.
//
// At m = n the top-m hit rate is the base rate and the enhancement is
// exactly 1.
func Enhancement(scores, yTrue *mat.VecDense, m int) (float64, error) {
	n, err := validatePair("Enhancement", yTrue, scores)
	if err != nil {
		return 0, err
	}
	if m <= 0 {
		return 0, errors.NewValueError("Enhancement", "depth m must be positive")
	}
	if m > n {
		return 0, errors.NewInvalidDepthError(m, n)
	}

	var total float64
	for i := 0; i < n; i++ {
		total += yTrue.AtVec(i)
	}
	baseRate := total / float64(n)
	if baseRate == 0 {
		return 0, errors.NewNumericDegeneracyError("Enhancement", "zero base rate: no actives in response")
	}

	order := DescendingOrder(scores)
	var hits float64
	for i := 0; i < m; i++ {
		hits += yTrue.AtVec(order[i])
	}

	return (hits / float64(m)) / baseRate, nil
}

// RSquared computes the squared Pearson correlation between prediction and
// truth. Note this is correlation-based, not 1 - RSS/TSS, so a linearly
// rescaled prediction scores the same.
func RSquared(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("RSquared", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	t := make([]float64, n)
	p := make([]float64, n)
	for i := 0; i < n; i++ {
		t[i] = yTrue.AtVec(i)
		p[i] = yPred.AtVec(i)
	}
	if err := checkSpread("RSquared", t); err != nil {
		return 0, err
	}
	if err := checkSpread("RSquared", p); err != nil {
		return 0, err
	}

	r := stat.Correlation(t, p, nil)
	if err := errors.CheckFinite("RSquared", r); err != nil {
		return 0, err
	}
	return r * r, nil
}

// RMSE computes the root mean squared residual.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("RMSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(n)), nil
}

// SpearmanRho computes the Spearman rank correlation: Pearson correlation
// of the midranks of both vectors.
func SpearmanRho(yTrue, yPred *mat.VecDense) (float64, error) {
	_, err := validatePair("SpearmanRho", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	rt := AverageRanks(yTrue)
	rp := AverageRanks(yPred)
	if err := checkSpread("SpearmanRho", rt); err != nil {
		return 0, err
	}
	if err := checkSpread("SpearmanRho", rp); err != nil {
		return 0, err
	}

	rho := stat.Correlation(rt, rp, nil)
	if err := errors.CheckFinite("SpearmanRho", rho); err != nil {
		return 0, err
	}
	return rho, nil
}

// checkSpread fails with a NumericDegeneracyError when values are constant,
// which would put NaN into a correlation.
func checkSpread(op string, values []float64) error {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return nil
		}
	}
	return errors.NewNumericDegeneracyError(op, "zero variance in input")
}
