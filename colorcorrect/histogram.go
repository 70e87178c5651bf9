/*
NAME
  histogram.go

DESCRIPTION
  histogram.go implements the shared 1-D histogram-matching routine used
  by the LAB and HSV color-correction methods.
*/

package colorcorrect

import "sort"

// matchHistogram maps each value in source onto reference's distribution
// via full CDF quantile mapping: both slices are sorted; equal lengths
// map rank to rank; otherwise reference is sampled at the truncated
// quantile index `floor((rank / (n_source-1)) * (n_reference-1))`;
// matched values are scattered back to source's original positions.
func matchHistogram(source, reference []float64) []float64 {
	n := len(source)
	matched := make([]float64, n)
	if n == 0 {
		return matched
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return source[order[a]] < source[order[b]] })

	ref := append([]float64(nil), reference...)
	sort.Float64s(ref)
	nRef := len(ref)

	if nRef == n {
		for rank, idx := range order {
			matched[idx] = ref[rank]
		}
		return matched
	}

	for rank, idx := range order {
		pos := 0
		if n > 1 {
			pos = int(float64(rank) / float64(n-1) * float64(nRef-1))
		}
		if pos > nRef-1 {
			pos = nRef - 1
		}
		matched[idx] = ref[pos]
	}
	return matched
}
