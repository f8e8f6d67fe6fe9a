// Package sts implements the STS-min statistical test battery: six
// hypothesis tests over a 0/1 bit sequence, each with a published
// asymptotic p-value, run behind three whitening front-ends.
package sts

import (
	"encoding/json"
	"math"
	"math/cmplx"
)

var sqrt2 = math.Sqrt2

// Result is one test's outcome. Extra carries test-specific fields (N, M,
// pi, ApEn, df, ...) folded into the JSON object alongside p/stat/note.
type Result struct {
	P     float64
	Stat  float64
	Notes string
	Extra map[string]any
}

// MarshalJSON flattens Result into {"p":...,"stat":...,"note"?:...,...extra}.
func (r Result) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["p"] = r.P
	m["stat"] = r.Stat
	if r.Notes != "" {
		m["note"] = r.Notes
	}
	return json.Marshal(m)
}

func normalCDF(z float64) float64 {
	return 0.5 * (1.0 + math.Erf(z/sqrt2))
}

// WilsonHilfertyUpperChiSquare approximates the upper-tail p-value of a
// chi-square statistic x with k degrees of freedom.
func WilsonHilfertyUpperChiSquare(x float64, k int) float64 {
	if k <= 0 || x < 0 {
		return 1.0
	}
	kf := float64(k)
	z := (math.Cbrt(x/kf) - (1 - 2.0/(9.0*kf))) / math.Sqrt(2.0/(9.0*kf))
	return 0.5 * math.Erfc(z/sqrt2)
}

// FrequencyMonobit is the monobit frequency test.
func FrequencyMonobit(bits []byte) Result {
	n := len(bits)
	if n == 0 {
		return Result{P: 0, Stat: 0}
	}
	var s int64
	for _, b := range bits {
		s += int64(b)*2 - 1
	}
	sobs := math.Abs(float64(s)) / math.Sqrt(float64(n))
	p := math.Erfc(sobs / sqrt2)
	return Result{P: p, Stat: sobs}
}

// BlockFrequency partitions bits into non-overlapping blocks of size m and
// tests block-wise proportions against 1/2.
func BlockFrequency(bits []byte, m int) Result {
	n := len(bits)
	blocks := n / m
	if blocks == 0 {
		return Result{P: 0, Stat: 0, Notes: "short"}
	}

	var chi2 float64
	for blk := 0; blk < blocks; blk++ {
		var ones int
		for i := 0; i < m; i++ {
			ones += int(bits[blk*m+i])
		}
		pi := float64(ones) / float64(m)
		d := pi - 0.5
		chi2 += d * d
	}
	chi2 *= 4.0 * float64(m)

	p := WilsonHilfertyUpperChiSquare(chi2, blocks)
	return Result{P: p, Stat: chi2, Extra: map[string]any{"N": blocks, "M": m}}
}

// RunsTest counts bit-value transitions and compares against the expected
// count under randomness, after a pre-check on the global proportion of 1s.
func RunsTest(bits []byte) Result {
	n := len(bits)
	if n < 2 {
		return Result{P: 0, Stat: 0, Notes: "short"}
	}
	var ones int
	for _, b := range bits {
		ones += int(b)
	}
	pi := float64(ones) / float64(n)
	tau := 2.0 / math.Sqrt(float64(n))
	if math.Abs(pi-0.5) >= tau {
		return Result{P: 0, Stat: pi, Notes: "pi off 0.5"}
	}

	v := 1
	for i := 1; i < n; i++ {
		if bits[i] != bits[i-1] {
			v++
		}
	}
	num := math.Abs(float64(v) - 2.0*float64(n)*pi*(1.0-pi))
	den := 2.0 * math.Sqrt(2.0*float64(n)) * pi * (1.0 - pi)
	p := math.Erfc(num / den)
	return Result{P: p, Stat: float64(v), Extra: map[string]any{"pi": pi}}
}

// CusumForward is the forward cumulative-sums test.
func CusumForward(bits []byte) Result {
	n := len(bits)
	if n == 0 {
		return Result{P: 0, Stat: 0}
	}

	var running int64
	var z float64
	for _, b := range bits {
		running += int64(b)*2 - 1
		if abs := math.Abs(float64(running)); abs > z {
			z = abs
		}
	}
	if z == 0 {
		return Result{P: 1, Stat: 0}
	}

	nf := float64(n)
	t := z / math.Sqrt(nf)
	kmin1 := int(math.Ceil((-nf/z + 1.0) / 4.0))
	kmax1 := int(math.Floor((nf/z - 1.0) / 4.0))
	kmin2 := int(math.Ceil((-nf/z - 3.0) / 4.0))
	kmax2 := int(math.Floor((nf/z - 3.0) / 4.0))

	var sum1, sum2 float64
	for k := kmin1; k <= kmax1; k++ {
		kf := float64(k)
		sum1 += normalCDF((4*kf+1)*t) - normalCDF((4*kf-1)*t)
	}
	for k := kmin2; k <= kmax2; k++ {
		kf := float64(k)
		sum2 += normalCDF((4*kf+3)*t) - normalCDF((4*kf+1)*t)
	}

	p := 1.0 - sum1 + sum2
	p = math.Min(1.0, math.Max(0.0, p))
	return Result{P: p, Stat: z}
}

// DFTSpectral counts Fourier magnitudes below a threshold expected under
// randomness.
func DFTSpectral(bits []byte) Result {
	n := len(bits)
	if n < 64 {
		return Result{P: 0, Stat: 0, Notes: "short"}
	}

	x := make([]complex128, n)
	for i, b := range bits {
		x[i] = complex(float64(b)*2-1, 0)
	}
	spectrum := dft(x)

	half := n / 2
	thresh := math.Sqrt(math.Log(1.0/0.05) * float64(n))
	var n1 int
	for k := 1; k < half; k++ {
		if cmplx.Abs(spectrum[k]) < thresh {
			n1++
		}
	}

	n0 := 0.95 * float64(n) / 2.0
	variance := float64(n) * 0.95 * 0.05 / 4.0
	d := (float64(n1) - n0) / math.Sqrt(variance)
	p := math.Erfc(math.Abs(d) / sqrt2)
	return Result{P: p, Stat: d, Extra: map[string]any{"N1": n1, "T": thresh}}
}

// ApproxEntropy computes the approximate entropy test for pattern length m
// (the battery pins m=2).
func ApproxEntropy(bits []byte, m int) Result {
	n := len(bits)
	if n < m+1 {
		return Result{P: 0, Stat: 0, Notes: "short"}
	}

	phiM := phiStat(bits, m)
	phiM1 := phiStat(bits, m+1)
	apEn := phiM - phiM1
	chi2 := 2.0 * float64(n) * (math.Ln2 - apEn)
	df := (1 << uint(m)) - 1

	p := WilsonHilfertyUpperChiSquare(chi2, df)
	return Result{P: p, Stat: chi2, Extra: map[string]any{"ApEn": apEn, "df": df}}
}

// phiStat computes the approximate-entropy phi(m) statistic: the overlap-
// counted distribution of m-bit windows (wrapping the sequence), weighted
// by log-probability.
func phiStat(bits []byte, m int) float64 {
	n := len(bits)
	k := 1 << uint(m)
	mask := k - 1
	counts := make([]int64, k)

	extended := make([]byte, n+m)
	copy(extended, bits)
	copy(extended[n:], bits[:m])

	var val int
	for i := 0; i < m; i++ {
		val = ((val << 1) & mask) | int(extended[i])
	}
	for i := 0; i < n; i++ {
		val = ((val << 1) & mask) | int(extended[i+m])
		counts[val]++
	}

	var sum float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(n)
		sum += p * math.Log(p)
	}
	return sum
}

// Report aggregates the battery's results.
type Report struct {
	Suite    string
	Alpha    float64
	NBits    int
	BlockM   int
	Results  map[string]Result
	AllPass  bool
	MinP     float64
	Failures []string
}

// MarshalJSON mirrors the original report shape: top-level suite metadata,
// a nested "results" object, and a "summary" block.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"suite":   r.Suite,
		"alpha":   r.Alpha,
		"n_bits":  r.NBits,
		"block_M": r.BlockM,
		"results": r.Results,
		"summary": map[string]any{
			"all_pass": r.AllPass,
			"min_p":    r.MinP,
			"failures": r.Failures,
		},
	})
}

// RunSuite runs all six tests over bits and aggregates pass/fail at
// significance alpha.
func RunSuite(bits []byte, alpha float64, blockM int) Report {
	results := map[string]Result{
		"frequency_monobit": FrequencyMonobit(bits),
		"block_frequency":   BlockFrequency(bits, blockM),
		"runs_test":         RunsTest(bits),
		"cusum_forward":     CusumForward(bits),
		"dft_spectral":      DFTSpectral(bits),
		"approx_entropy_m2": ApproxEntropy(bits, 2),
	}

	order := []string{"frequency_monobit", "block_frequency", "runs_test", "cusum_forward", "dft_spectral", "approx_entropy_m2"}
	var failures []string
	minP := 1.0
	for _, name := range order {
		r := results[name]
		if r.P < minP {
			minP = r.P
		}
		if r.P < alpha {
			failures = append(failures, name)
		}
	}

	return Report{
		Suite:    "qlx-sts-min",
		Alpha:    alpha,
		NBits:    len(bits),
		BlockM:   blockM,
		Results:  results,
		AllPass:  len(failures) == 0,
		MinP:     minP,
		Failures: failures,
	}
}
