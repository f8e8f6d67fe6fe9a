// Package wavelet implements the Haar discrete wavelet transform and band
// statistics used to reduce the blended chaos/harmonic stream to a compact,
// hashable feature set.
package wavelet

import (
	"fmt"
	"math"

	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

// haarScale is 1/sqrt(2), the Haar wavelet's orthonormal scaling factor.
var haarScale = 1 / math.Sqrt2

// Decompose runs a levels-deep Haar DWT on x, returning [A_L, D_L, D_{L-1},
// ..., D_1]: the final approximation band followed by detail bands from
// coarsest to finest. An odd-length band is truncated by one sample before
// splitting, matching the reference implementation.
func Decompose(x []float64, levels int) ([][]float64, error) {
	if levels <= 0 {
		return nil, qlxerr.Input("wavelet.Decompose", "levels must be positive, got %d", levels)
	}
	if len(x) < 1<<uint(levels) {
		return nil, qlxerr.Input("wavelet.Decompose", "input length %d too short for %d levels", len(x), levels)
	}

	a := append([]float64(nil), x...)
	details := make([][]float64, 0, levels)

	for l := 0; l < levels; l++ {
		if len(a)%2 == 1 {
			a = a[:len(a)-1]
		}
		half := len(a) / 2
		aNext := make([]float64, half)
		dNext := make([]float64, half)
		for i := 0; i < half; i++ {
			even := a[2*i]
			odd := a[2*i+1]
			aNext[i] = even*haarScale + odd*haarScale
			dNext[i] = even*haarScale - odd*haarScale
		}
		details = append(details, dNext)
		a = aNext
	}

	bands := make([][]float64, 0, levels+1)
	bands = append(bands, a)
	for i := len(details) - 1; i >= 0; i-- {
		bands = append(bands, details[i])
	}
	return bands, nil
}

// BandNames returns the band labels for a levels-deep decomposition, in the
// same order Decompose returns bands: "A_L" then "D_L" down to "D_1".
func BandNames(levels int) []string {
	names := make([]string, 0, levels+1)
	names = append(names, fmt.Sprintf("A_%d", levels))
	for i := levels; i >= 1; i-- {
		names = append(names, fmt.Sprintf("D_%d", i))
	}
	return names
}

// BandStat is one band's summary statistics.
type BandStat struct {
	Band    string
	Mean    float64
	Std     float64
	Entropy float64
}

// Stats computes mean, std, and normalized Shannon entropy for each band,
// after scaling every sample by phi. bins controls the entropy histogram
// resolution.
func Stats(bands [][]float64, levels int, phi float64, bins int) []BandStat {
	names := BandNames(levels)
	out := make([]BandStat, len(bands))
	for i, b := range bands {
		scaled := make([]float64, len(b))
		for j, v := range b {
			scaled[j] = v * phi
		}
		out[i] = BandStat{
			Band:    names[i],
			Mean:    mean(scaled),
			Std:     std(scaled) + 1e-15,
			Entropy: shannonEntropy(scaled, bins),
		}
	}
	return out
}

func mean(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func std(x []float64) float64 {
	m := mean(x)
	var variance float64
	for _, v := range x {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(x)))
}

// shannonEntropy computes a histogram-based Shannon entropy over x, rescaled
// to [0, 1] by the range, and normalized by log2(bins) so the result falls
// in [0, 1].
func shannonEntropy(x []float64, bins int) float64 {
	if len(x) == 0 {
		return 0
	}
	lo, hi := x[0], x[0]
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo + 1e-15

	counts := make([]int, bins)
	for _, v := range x {
		norm := (v - lo) / span
		idx := int(norm * float64(bins))
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	total := float64(len(x))
	var h float64
	for _, c := range counts {
		p := float64(c)/total + 1e-12
		h -= p * math.Log2(p)
	}
	return h / math.Log2(float64(bins))
}
