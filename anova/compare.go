package anova

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modeleval/pkg/errors"
)

// PairwiseMatrix is the symmetric k×k matrix of Tukey-Kramer adjusted
// p-values between treatment levels, iterated in ascending treatment-id
// order. The diagonal is NaN: there is no self-comparison.
type PairwiseMatrix struct {
	k int
	p *mat.SymDense
}

// Dim returns the number of treatment levels k.
func (m *PairwiseMatrix) Dim() int { return m.k }

// At returns the adjusted p-value for levels i and j (0-based). The
// diagonal is NaN.
func (m *PairwiseMatrix) At(i, j int) float64 {
	if i == j {
		return math.NaN()
	}
	return m.p.At(i, j)
}

// Linear returns the upper-triangular p-values in the standard pairwise
// enumeration order: (1,2), (1,3), ..., (1,k), (2,3), ...
func (m *PairwiseMatrix) Linear() []float64 {
	out := make([]float64, 0, m.k*(m.k-1)/2)
	for i := 0; i < m.k; i++ {
		for j := i + 1; j < m.k; j++ {
			out = append(out, m.p.At(i, j))
		}
	}
	return out
}

// PairIndex maps a 1-based level pair (i, j), i < j, to its 1-based
// position in the upper-triangular enumeration:
// idx(i,j) = k(i-1) - i(i-1)/2 + (j-i).
func PairIndex(k, i, j int) int {
	return k*(i-1) - i*(i-1)/2 + (j - i)
}

// lsMeans returns the least-squares mean per treatment level: the mean of
// the full-model fitted values over the rows of that level.
func lsMeans(f *fit) []float64 {
	sums := make([]float64, f.k)
	counts := make([]int, f.k)
	for i, t := range f.trtIdx {
		sums[t] += f.fitted[i]
		counts[t]++
	}
	means := make([]float64, f.k)
	for t := range sums {
		if counts[t] > 0 {
			means[t] = sums[t] / float64(counts[t])
		}
	}
	return means
}

// tukeyKramer computes the adjusted pairwise p-value matrix from the
// one-way layout on the same response with treatment as the sole grouping
// factor. Unequal group sizes enter through the Kramer standard error
// sqrt(MSE/2 · (1/n_i + 1/n_j)).
func tukeyKramer(y []float64, trtIdx []int, k int) (*PairwiseMatrix, []float64, []int, error) {
	n := len(y)
	if k < 2 {
		return nil, nil, nil, errors.NewValueError("anova.tukeyKramer", "need at least two treatments")
	}

	sums := make([]float64, k)
	counts := make([]int, k)
	for i, t := range trtIdx {
		sums[t] += y[i]
		counts[t]++
	}
	means := make([]float64, k)
	for t := range means {
		if counts[t] == 0 {
			return nil, nil, nil, errors.NewValueError("anova.tukeyKramer", "treatment level with no rows")
		}
		means[t] = sums[t] / float64(counts[t])
	}

	dfWithin := n - k
	if dfWithin <= 0 {
		return nil, nil, nil, errors.NewNumericDegeneracyError("anova.tukeyKramer", "no within-group degrees of freedom")
	}
	var ssWithin float64
	for i, t := range trtIdx {
		d := y[i] - means[t]
		ssWithin += d * d
	}
	mse := ssWithin / float64(dfWithin)
	if mse == 0 {
		return nil, nil, nil, errors.NewNumericDegeneracyError("anova.tukeyKramer", "zero within-group variance")
	}

	dist := StudentizedRange{K: k, Df: float64(dfWithin)}
	p := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		p.SetSym(i, i, math.NaN())
		for j := i + 1; j < k; j++ {
			se := math.Sqrt(mse / 2 * (1/float64(counts[i]) + 1/float64(counts[j])))
			q := math.Abs(means[i]-means[j]) / se
			if err := errors.CheckFinite("anova.tukeyKramer", q); err != nil {
				return nil, nil, nil, err
			}
			p.SetSym(i, j, dist.Survival(q))
		}
	}

	return &PairwiseMatrix{k: k, p: p}, means, counts, nil
}
