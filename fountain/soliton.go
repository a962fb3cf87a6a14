package fountain

import (
	"math"
	"math/rand"
	"sort"
)

// soliton is a robust soliton distribution over degrees 1..k, stored as a CDF.
//
//	ρ(1) = 1/k, ρ(d) = 1/(d(d−1))
//	R    = c·ln(k/δ)·√k
//	τ(d) = R/(d·k) for d < k/R, τ(k/R) = R·ln(R/δ)/k, else 0
//	μ(d) = (ρ(d)+τ(d)) / Σ(ρ+τ)
type soliton struct {
	cdf []float64 // cdf[d-1] = P(degree ≤ d)
}

func newSoliton(k int, c, delta float64) *soliton {
	if k <= 1 {
		return &soliton{cdf: []float64{1}}
	}
	kf := float64(k)
	w := make([]float64, k+1)
	w[1] = 1 / kf
	for d := 2; d <= k; d++ {
		w[d] = 1 / (float64(d) * float64(d-1))
	}

	r := c * math.Log(kf/delta) * math.Sqrt(kf)
	if r > 0 {
		pivot := int(math.Floor(kf / r))
		pivot = max(1, min(pivot, k))
		for d := 1; d < pivot; d++ {
			w[d] += r / (float64(d) * kf)
		}
		if spike := r * math.Log(r/delta) / kf; spike > 0 {
			w[pivot] += spike
		}
	}

	var sum float64
	for d := 1; d <= k; d++ {
		sum += w[d]
	}
	cdf := make([]float64, k)
	var acc float64
	for d := 1; d <= k; d++ {
		acc += w[d] / sum
		cdf[d-1] = acc
	}
	cdf[k-1] = 1
	return &soliton{cdf: cdf}
}

// degree draws one degree.
func (s *soliton) degree(rng *rand.Rand) int {
	u := rng.Float64()
	return sort.SearchFloat64s(s.cdf, u) + 1
}

// pick draws d distinct indices from [0, k) by a partial Fisher–Yates
// shuffle and returns them sorted.
func pick(rng *rand.Rand, k, d int) []int {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < d; i++ {
		j := i + rng.Intn(k-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := idx[:d:d]
	sort.Ints(out)
	return out
}
