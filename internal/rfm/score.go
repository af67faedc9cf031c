package rfm

import (
	"math"
	"sort"
)

// Bins is the number of score labels; scores run from 1 (worst) to Bins (best).
const Bins = 5

// firstRank ranks values ascending from 1. Equal values are ranked in input
// order, so every position gets a distinct rank.
func firstRank(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for pos, i := range idx {
		ranks[i] = float64(pos + 1)
	}
	return ranks
}

// quantileEdges returns bins+1 cut points at equal population quantiles of
// sorted, using linear interpolation between neighbours.
func quantileEdges(sorted []float64, bins int) []float64 {
	n := len(sorted)
	edges := make([]float64, bins+1)
	for k := 0; k <= bins; k++ {
		pos := float64(k) / float64(bins) * float64(n-1)
		lo := int(math.Floor(pos))
		if lo >= n-1 {
			edges[k] = sorted[n-1]
			continue
		}
		frac := pos - float64(lo)
		edges[k] = sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
	}
	return edges
}

// widthEdges returns bins+1 equally spaced cut points over [min, max]. A
// zero-width range is widened by 0.1% on both sides; otherwise the lowest
// edge is pushed down by 0.1% of the range so the minimum falls in bin 1.
func widthEdges(min, max float64, bins int) []float64 {
	widened := min == max
	if widened {
		pad := 0.001
		if min != 0 {
			pad = 0.001 * math.Abs(min)
		}
		min, max = min-pad, max+pad
	}
	edges := make([]float64, bins+1)
	step := (max - min) / float64(bins)
	for k := range edges {
		edges[k] = min + float64(k)*step
	}
	edges[bins] = max
	if !widened {
		edges[0] -= 0.001 * (max - min)
	}
	return edges
}

func strictlyIncreasing(edges []float64) bool {
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return false
		}
	}
	return true
}

// bin returns the 1-based right-closed interval of edges containing x. The
// lowest edge is inclusive.
func bin(x float64, edges []float64) int {
	for k := 1; k < len(edges); k++ {
		if x <= edges[k] {
			return k
		}
	}
	return len(edges) - 1
}

// Score assigns each value a label 1..Bins. Values are first replaced by
// their first-occurrence rank, then cut into equal-population bins. When the
// quantile edges collapse, equal-width bins over the ranked values are used
// instead. negate reverses the ordering so that small values score high.
func Score(values []float64, negate bool) []int {
	if len(values) == 0 {
		return nil
	}
	ranked := firstRank(values)
	if negate {
		for i := range ranked {
			ranked[i] = -ranked[i]
		}
	}

	sorted := append([]float64(nil), ranked...)
	sort.Float64s(sorted)

	edges := quantileEdges(sorted, Bins)
	if !strictlyIncreasing(edges) {
		edges = widthEdges(sorted[0], sorted[len(sorted)-1], Bins)
	}

	scores := make([]int, len(ranked))
	for i, x := range ranked {
		scores[i] = bin(x, edges)
	}
	return scores
}
