// Package anova fits the two-factor additive model behind the split
// comparison: metric value ~ split (blocking factor) + treatment
// (descriptor/method combination), decomposes the variance, and computes
// Tukey-Kramer adjusted pairwise significance for every treatment pair.
package anova

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/modeleval/pkg/errors"
)

// Row is one source line of an ANOVA table.
type Row struct {
	Source string
	DF     int
	SS     float64
	MS     float64
	F      float64
	P      PValue
}

// Table holds both decompositions of the fitted model: the aggregate
// Model/Error/Total split and the sequential (type-I) Split/Treatment
// split of the model deviance, plus the summary statistics.
//
// Invariants: Total.DF = Model.DF + Error.DF, Total.SS = Model.SS +
// Error.SS, and Model.SS = Split.SS + Treatment.SS.
type Table struct {
	Model Row
	Error Row
	Total Row

	Split     Row
	Treatment Row

	RSquared float64
	// CoefVar is 100·RootMSE/Mean. A zero grand mean makes it undefined;
	// it is rendered as 0 and reported through the warning handler.
	CoefVar float64
	RootMSE float64
	Mean    float64
}

// fit is the materialized two-factor model: level-indexed observations and
// the fitted values of the full (split + treatment) model.
type fit struct {
	y        []float64
	splitIdx []int
	trtIdx   []int
	s, k     int
	fitted   []float64
}

// decompose fits metric ~ split + treatment by least squares and builds
// the ANOVA table. splitIdx and trtIdx hold 0-based level indices; s and k
// count the levels. The sequential decomposition enters split first, so
// the treatment sum of squares is adjusted for the blocking factor.
func decompose(y []float64, splitIdx, trtIdx []int, s, k int, treatmentLabel string) (*Table, *fit, error) {
	n := len(y)
	if n == 0 {
		return nil, nil, errors.NewValueError("anova.decompose", "empty table")
	}
	if len(splitIdx) != n || len(trtIdx) != n {
		return nil, nil, errors.NewDimensionError("anova.decompose", n, len(splitIdx), 0)
	}
	if k < 2 {
		return nil, nil, errors.NewValueError("anova.decompose", "need at least two treatments to compare")
	}
	if s < 2 {
		return nil, nil, errors.NewValueError("anova.decompose", "need at least two splits")
	}

	dfSplit := s - 1
	dfTrt := k - 1
	dfModel := dfSplit + dfTrt
	dfTotal := n - 1
	dfError := dfTotal - dfModel
	if dfError <= 0 {
		return nil, nil, errors.NewNumericDegeneracyError("anova.decompose", "no error degrees of freedom left")
	}

	var grand float64
	for _, v := range y {
		grand += v
	}
	grand /= float64(n)

	var totalSS float64
	for _, v := range y {
		d := v - grand
		totalSS += d * d
	}
	if err := errors.CheckVariance("anova.decompose", totalSS); err != nil {
		return nil, nil, err
	}

	// Reference-level dummy coding keeps both design matrices full rank:
	// intercept + (s-1) split dummies, then + (k-1) treatment dummies.
	splitOnly := designMatrix(n, splitIdx, s, nil, 0)
	full := designMatrix(n, splitIdx, s, trtIdx, k)

	rssSplit, _, err := leastSquaresRSS(y, splitOnly)
	if err != nil {
		return nil, nil, err
	}
	rssFull, fitted, err := leastSquaresRSS(y, full)
	if err != nil {
		return nil, nil, err
	}

	// Sequential sums of squares. Clamp tiny negatives from floating
	// point noise.
	splitSS := clampNonNeg(totalSS - rssSplit)
	trtSS := clampNonNeg(rssSplit - rssFull)
	modelSS := splitSS + trtSS
	errorSS := clampNonNeg(rssFull)

	errorMS := errorSS / float64(dfError)
	if errorMS == 0 {
		return nil, nil, errors.NewNumericDegeneracyError("anova.decompose", "zero error mean square")
	}
	modelMS := modelSS / float64(dfModel)
	splitMS := splitSS / float64(dfSplit)
	trtMS := trtSS / float64(dfTrt)

	fModel := modelMS / errorMS
	fSplit := splitMS / errorMS
	fTrt := trtMS / errorMS
	if err := errors.CheckFinite("anova.decompose", fModel, fSplit, fTrt); err != nil {
		return nil, nil, err
	}

	if grand == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("coefficient of variation", "zero grand mean", 0))
	}

	table := &Table{
		Model: Row{
			Source: "Model", DF: dfModel, SS: modelSS, MS: modelMS,
			F: fModel, P: PValue{fSurvival(fModel, dfModel, dfError)},
		},
		Error: Row{Source: "Error", DF: dfError, SS: errorSS, MS: errorMS},
		Total: Row{Source: "Corrected Total", DF: dfTotal, SS: totalSS},
		Split: Row{
			Source: "Split", DF: dfSplit, SS: splitSS, MS: splitMS,
			F: fSplit, P: PValue{fSurvival(fSplit, dfSplit, dfError)},
		},
		Treatment: Row{
			Source: treatmentLabel, DF: dfTrt, SS: trtSS, MS: trtMS,
			F: fTrt, P: PValue{fSurvival(fTrt, dfTrt, dfError)},
		},
		RSquared: modelSS / totalSS,
		CoefVar:  100 * errors.SafeDivide(math.Sqrt(errorMS), grand),
		RootMSE:  math.Sqrt(errorMS),
		Mean:     grand,
	}

	return table, &fit{y: y, splitIdx: splitIdx, trtIdx: trtIdx, s: s, k: k, fitted: fitted}, nil
}

// designMatrix builds an intercept column, s-1 split dummies and, when
// k > 0, k-1 treatment dummies. The first level of each factor is the
// reference.
func designMatrix(n int, splitIdx []int, s int, trtIdx []int, k int) *mat.Dense {
	cols := 1 + (s - 1)
	if k > 0 {
		cols += k - 1
	}
	X := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		if si := splitIdx[i]; si > 0 {
			X.Set(i, si, 1)
		}
		if k > 0 {
			if ti := trtIdx[i]; ti > 0 {
				X.Set(i, s-1+ti, 1)
			}
		}
	}
	return X
}

// leastSquaresRSS solves y = X beta by QR and returns the residual sum of
// squares together with the fitted values.
func leastSquaresRSS(y []float64, X *mat.Dense) (float64, []float64, error) {
	n, _ := X.Dims()
	b := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		b.Set(i, 0, y[i])
	}

	var qr mat.QR
	qr.Factorize(X)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, b); err != nil {
		return 0, nil, errors.Wrap(errors.ErrSingularMatrix, "anova.leastSquaresRSS")
	}

	var fittedMat mat.Dense
	fittedMat.Mul(X, &beta)

	fitted := make([]float64, n)
	var rss float64
	for i := 0; i < n; i++ {
		fitted[i] = fittedMat.At(i, 0)
		d := y[i] - fitted[i]
		rss += d * d
	}
	return rss, fitted, nil
}

// fSurvival is the right-tail p-value of the F distribution.
func fSurvival(f float64, df1, df2 int) float64 {
	if f <= 0 {
		return 1
	}
	dist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return dist.Survival(f)
}

func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
