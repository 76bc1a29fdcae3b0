package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DescendingOrder returns the permutation that visits scores from highest
// to lowest. The sort is stable, so ties keep their original order and the
// ranking is deterministic across runs.
func DescendingOrder(scores *mat.VecDense) []int {
	n := scores.Len()
	order := make([]int, n)
	for i := 0; i < n; i++ {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores.AtVec(order[a]) > scores.AtVec(order[b])
	})
	return order
}

// AverageRanks returns 1-based ranks of the values with tied values
// assigned the mean of the ranks they span (midranks).
func AverageRanks(v *mat.VecDense) []float64 {
	n := v.Len()
	order := make([]int, n)
	for i := 0; i < n; i++ {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return v.AtVec(order[a]) < v.AtVec(order[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && v.AtVec(order[j+1]) == v.AtVec(order[i]) {
			j++
		}
		// Positions i..j hold a tie group; each gets the midrank.
		mid := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = mid
		}
		i = j + 1
	}
	return ranks
}
