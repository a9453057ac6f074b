package spectrogram

import (
	"math"
	"sort"
)

// PermutationEntropy returns the normalized permutation entropy of x for the
// given embedding order with unit delay. Sequences shorter than order have no
// patterns and yield 0.
func PermutationEntropy(x []float64, order int) float64 {
	n := len(x) - order + 1
	if order < 2 || n <= 0 {
		return 0
	}

	counts := make(map[int]int)
	idx := make([]int, order)

	for i := 0; i < n; i++ {
		for j := range idx {
			idx[j] = j
		}
		window := x[i : i+order]
		sort.SliceStable(idx, func(a, b int) bool {
			return window[idx[a]] < window[idx[b]]
		})

		hash, mult := 0, 1
		for _, k := range idx {
			hash += k * mult
			mult *= order
		}
		counts[hash]++
	}

	var pe float64
	for _, c := range counts {
		p := float64(c) / float64(n)
		pe -= p * math.Log2(p)
	}

	return pe / math.Log2(factorial(order))
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
