// Package chaos produces the deterministic blended stream at the root of
// the HFP pipeline: a logistic-map chaos trajectory mixed with a
// phi-weighted harmonic comb, both driven entirely by a seed hash so the
// same seed always reproduces the same stream.
package chaos

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"golang.org/x/crypto/chacha20"

	"github.com/qlx-labs/hfp/pkg/constants"
	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

// Params controls stream generation. The zero value is not usable; callers
// should start from Default() and override fields as needed.
type Params struct {
	N            int
	R            float64
	BurnIn       int
	Harmonics    []float64
	Phi          float64
	CarrierGain  float64
}

// Default returns the pipeline's standard parameter set.
func Default() Params {
	return Params{
		N:           constants.StreamLength,
		R:           constants.LogisticR,
		BurnIn:      constants.ChaosBurnIn,
		Harmonics:   append([]float64(nil), constants.DefaultHarmonics...),
		Phi:         constants.Phi,
		CarrierGain: constants.CarrierGain,
	}
}

// Stream derives the blended chaos+harmonic signal for seed under p. It
// returns N samples, z-score normalized to zero mean and unit variance.
func Stream(seed []byte, p Params) ([]float64, error) {
	if p.N <= 0 {
		return nil, qlxerr.Input("chaos.Stream", "N must be positive, got %d", p.N)
	}
	if len(p.Harmonics) == 0 {
		return nil, qlxerr.Input("chaos.Stream", "Harmonics must be non-empty")
	}

	spHash := sha256.Sum256(seed)

	x0Raw := float64(binary.BigEndian.Uint32(spHash[0:4])) / 4294967296.0
	x0 := 0.2 + 0.6*x0Raw
	chaosTrace := logisticMap(p.N, p.R, x0, p.BurnIn)
	chaosTrace = zScore(chaosTrace)

	phaseSeed := binary.BigEndian.Uint32(spHash[4:8])
	carriers, err := harmonicComb(p.N, p.Harmonics, p.Phi, phaseSeed)
	if err != nil {
		return nil, err
	}

	blend := make([]float64, p.N)
	for i := range blend {
		blend[i] = chaosTrace[i] + p.CarrierGain*carriers[i]
	}
	return zScore(blend), nil
}

// logisticMap iterates x_{i+1} = r*x_i*(1-x_i) for n+burn steps starting at
// x0, discarding the first burn samples as warm-up.
func logisticMap(n int, r, x0 float64, burn int) []float64 {
	total := n + burn
	x := make([]float64, total)
	x[0] = x0
	for i := 1; i < total; i++ {
		x[i] = r * x[i-1] * (1 - x[i-1])
	}
	return x[burn:]
}

// harmonicComb sums phi^-i weighted sinusoids at each frequency in freqs,
// each with an independent phase drawn from a ChaCha20 keystream seeded
// deterministically from phaseSeed, and normalizes by the total weight.
func harmonicComb(n int, freqs []float64, phi float64, phaseSeed uint32) ([]float64, error) {
	phases, err := phaseSequence(phaseSeed, len(freqs))
	if err != nil {
		return nil, err
	}

	s := make([]float64, n)
	var wTotal float64
	for i, f := range freqs {
		w := math.Pow(phi, -float64(i+1))
		wTotal += w
		phase := phases[i] * 2 * math.Pi
		for t := 0; t < n; t++ {
			s[t] += w * math.Sin(2*math.Pi*f*float64(t)+phase)
		}
	}
	norm := wTotal + 1e-15
	for t := range s {
		s[t] /= norm
	}
	return s, nil
}

// phaseSequence derives count deterministic values in [0, 1) from a
// ChaCha20 keystream keyed by phaseSeed, used as the harmonic comb's phase
// RNG. Each value consumes 8 keystream bytes interpreted as a big-endian
// uint64 scaled into the unit interval.
func phaseSequence(phaseSeed uint32, count int) ([]float64, error) {
	var seedBytes [4]byte
	binary.BigEndian.PutUint32(seedBytes[:], phaseSeed)
	key := sha256.Sum256(seedBytes[:])

	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.InputError, "chaos.phaseSequence", "init chacha20 keystream", err)
	}

	keystream := make([]byte, count*8)
	cipher.XORKeyStream(keystream, keystream)

	out := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.BigEndian.Uint64(keystream[i*8 : i*8+8])
		out[i] = float64(bits>>11) / float64(1<<53)
	}
	return out, nil
}

// zScore returns (x - mean(x)) / (std(x) + eps).
func zScore(x []float64) []float64 {
	n := float64(len(x))
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= n

	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= n
	std := math.Sqrt(variance)

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - mean) / (std + 1e-12)
	}
	return out
}
