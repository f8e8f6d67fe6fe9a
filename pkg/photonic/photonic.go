// Package photonic maps band statistics to a bounded, quantized six-channel
// control envelope and assembles it into the wire shape consumed by
// pkg/signing and the controller-side verifier.
package photonic

import (
	"math"
	"math/rand"

	"github.com/qlx-labs/hfp/pkg/hfp"
	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

// bound is a parameter's declared open interval (lo, hi).
type bound struct {
	lo, hi float64
}

var (
	boundIBias  = bound{15.0, 50.0}
	boundPhi    = bound{0.0, math.Pi}
	boundKappa  = bound{0.05, 0.90}
	boundTau    = bound{50.0, 300.0}
	boundDeltaF = bound{-10.0, 10.0}
	boundAlpha  = bound{2.0, 6.0}
)

// Params holds the six bounded photonic parameter arrays, each of length
// band_count.
type Params struct {
	IBiasMA   []float64
	PhiRad    []float64
	Kappa     []float64
	TauPS     []float64
	DeltaFGHz []float64
	Alpha     []float64
}

// QuantMode selects the DAC rounding rule.
type QuantMode string

const (
	QuantNearest    QuantMode = "nearest"
	QuantFloor      QuantMode = "floor"
	QuantStochastic QuantMode = "stochastic"
)

// ApplyWindow is the envelope's apply-timing block.
type ApplyWindow struct {
	At      string
	RampMS  int
	HoldMS  int
	TTLMS   int
}

// DACConfig is the envelope's DAC hardware configuration block.
type DACConfig struct {
	WidthBits      int
	SampleRateGSa  int
	Quantization   QuantMode
}

// SigningBlock is the envelope's signature metadata, attached only after
// the signature has been computed over the envelope without this member.
type SigningBlock struct {
	Alg       string
	KeyID     string
	Nonce     string
	Timestamp string
	Sig       string
}

// Envelope is the full photonic control envelope.
type Envelope struct {
	Version   string
	SessionID string
	HFPHash   string
	BandCount int
	Mode      string
	Apply     ApplyWindow
	Params    Params
	DAC       DACConfig
	Signing   *SigningBlock
}

// ToValue converts the envelope into the generic tree canonjson.Bytes
// consumes. Signing is included only when non-nil, matching the "presence
// marks a finalized envelope" invariant.
func (e *Envelope) ToValue() any {
	v := map[string]any{
		"version":    e.Version,
		"session_id": e.SessionID,
		"hfp_hash":   e.HFPHash,
		"band_count": int64(e.BandCount),
		"mode":       e.Mode,
		"apply": map[string]any{
			"at":       e.Apply.At,
			"ramp_ms":  int64(e.Apply.RampMS),
			"hold_ms":  int64(e.Apply.HoldMS),
			"ttl_ms":   int64(e.Apply.TTLMS),
		},
		"params": map[string]any{
			"I_bias_mA":   e.Params.IBiasMA,
			"phi_rad":     e.Params.PhiRad,
			"kappa":       e.Params.Kappa,
			"tau_ps":      e.Params.TauPS,
			"delta_f_GHz": e.Params.DeltaFGHz,
			"alpha":       e.Params.Alpha,
		},
		"dac": map[string]any{
			"width_bits":       int64(e.DAC.WidthBits),
			"sample_rate_GSa":  int64(e.DAC.SampleRateGSa),
			"quantization":     string(e.DAC.Quantization),
		},
	}
	if e.Signing != nil {
		v["signing"] = map[string]any{
			"alg":       e.Signing.Alg,
			"key_id":    e.Signing.KeyID,
			"nonce":     e.Signing.Nonce,
			"timestamp": e.Signing.Timestamp,
			"sig":       e.Signing.Sig,
		}
	}
	return v
}

// normTo affinely maps x (given its observed min/max) into [lo, hi].
func normTo(lo, hi float64, x []float64) []float64 {
	mn, mx := x[0], x[0]
	for _, v := range x {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	denom := (mx - mn) + 1e-15
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = lo + (hi-lo)*(v-mn)/denom
	}
	return out
}

// roll performs a cyclic right shift of x by k positions.
func roll(x []float64, k int) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	k = ((k % n) + n) % n
	out := make([]float64, n)
	for i, v := range x {
		out[(i+k)%n] = v
	}
	return out
}

// epsilon returns the open-interval clipping margin for a bound at the
// given DAC width.
func epsilon(b bound, bits int) float64 {
	levels := math.Pow(2, float64(bits)) - 1
	return (b.hi - b.lo) / levels
}

// clipOpen clips every element of x to [lo+eps, hi-eps].
func clipOpen(x []float64, b bound, bits int) []float64 {
	eps := epsilon(b, bits)
	lo, hi := b.lo+eps, b.hi-eps
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, lo), hi)
	}
	return out
}

// Map implements the six-parameter affine mapping table: means/stds/ents
// (and their rolled variants) normalized into each parameter's declared
// open interval, then clipped to that interval's open form at dacBits.
func Map(stats []hfp.BandStat, dacBits int) (Params, error) {
	if len(stats) == 0 {
		return Params{}, qlxerr.Input("photonic.Map", "band stats must be non-empty")
	}

	means := make([]float64, len(stats))
	stds := make([]float64, len(stats))
	ents := make([]float64, len(stats))
	for i, s := range stats {
		means[i] = s.Mean
		stds[i] = s.Std
		ents[i] = s.Entropy
	}

	iBias := clipOpen(normTo(boundIBias.lo, boundIBias.hi, means), boundIBias, dacBits)
	phiRad := clipOpen(normTo(boundPhi.lo, boundPhi.hi, ents), boundPhi, dacBits)
	kappa := clipOpen(normTo(boundKappa.lo, boundKappa.hi, stds), boundKappa, dacBits)
	tau := clipOpen(normTo(boundTau.lo, boundTau.hi, roll(ents, 1)), boundTau, dacBits)
	deltaF := clipOpen(normTo(boundDeltaF.lo, boundDeltaF.hi, roll(means, 1)), boundDeltaF, dacBits)
	alpha := clipOpen(normTo(boundAlpha.lo, boundAlpha.hi, roll(stds, 2)), boundAlpha, dacBits)

	return Params{
		IBiasMA:   iBias,
		PhiRad:    phiRad,
		Kappa:     kappa,
		TauPS:     tau,
		DeltaFGHz: deltaF,
		Alpha:     alpha,
	}, nil
}

// Quantize rounds arr to a bits-wide DAC grid over [lo, hi] under mode,
// then maps the integer levels back to the open interval [lo+eps, hi-eps].
// rng is required only for QuantStochastic and must never be a
// package-global RNG.
func Quantize(arr []float64, lo, hi float64, bits int, mode QuantMode, rng *rand.Rand) ([]float64, error) {
	if mode == QuantStochastic && rng == nil {
		return nil, qlxerr.Input("photonic.Quantize", "stochastic mode requires a caller-provided RNG")
	}
	b := bound{lo, hi}
	levels := math.Pow(2, float64(bits)) - 1
	eps := epsilon(b, bits)
	openLo, openHi := lo+eps, hi-eps

	out := make([]float64, len(arr))
	for i, v := range arr {
		clamped := math.Min(math.Max(v, lo), hi)
		norm := (clamped - lo) / (hi - lo)
		x := norm * levels

		var xi float64
		switch mode {
		case QuantNearest:
			xi = math.RoundToEven(x)
		case QuantFloor:
			xi = math.Floor(x)
		case QuantStochastic:
			fl := math.Floor(x)
			frac := x - fl
			if rng.Float64() < frac {
				xi = fl + 1
			} else {
				xi = fl
			}
		default:
			return nil, qlxerr.Input("photonic.Quantize", "unknown quantization mode %q", mode)
		}

		y := (xi/levels)*(hi-lo) + lo
		out[i] = math.Min(math.Max(y, openLo), openHi)
	}
	return out, nil
}

// QuantizeParams quantizes every channel of p at bits/mode, returning a new
// Params. rng is consulted only for QuantStochastic.
func QuantizeParams(p Params, bits int, mode QuantMode, rng *rand.Rand) (Params, error) {
	var out Params
	var err error
	if out.IBiasMA, err = Quantize(p.IBiasMA, boundIBias.lo, boundIBias.hi, bits, mode, rng); err != nil {
		return Params{}, err
	}
	if out.PhiRad, err = Quantize(p.PhiRad, boundPhi.lo, boundPhi.hi, bits, mode, rng); err != nil {
		return Params{}, err
	}
	if out.Kappa, err = Quantize(p.Kappa, boundKappa.lo, boundKappa.hi, bits, mode, rng); err != nil {
		return Params{}, err
	}
	if out.TauPS, err = Quantize(p.TauPS, boundTau.lo, boundTau.hi, bits, mode, rng); err != nil {
		return Params{}, err
	}
	if out.DeltaFGHz, err = Quantize(p.DeltaFGHz, boundDeltaF.lo, boundDeltaF.hi, bits, mode, rng); err != nil {
		return Params{}, err
	}
	if out.Alpha, err = Quantize(p.Alpha, boundAlpha.lo, boundAlpha.hi, bits, mode, rng); err != nil {
		return Params{}, err
	}
	return out, nil
}

// MakeEnvelope assembles a signed-pending envelope from a quantized
// parameter set, rejecting unequal-length channels.
func MakeEnvelope(sessionID, hfpHash, mode string, p Params, dacBits, sampleRateGSa int, quant QuantMode, apply ApplyWindow) (*Envelope, error) {
	n := len(p.IBiasMA)
	lens := []int{len(p.PhiRad), len(p.Kappa), len(p.TauPS), len(p.DeltaFGHz), len(p.Alpha)}
	for _, l := range lens {
		if l != n {
			return nil, qlxerr.Input("photonic.MakeEnvelope", "parameter arrays have unequal length: %d vs %d", n, l)
		}
	}

	return &Envelope{
		Version:   "P-0.2",
		SessionID: sessionID,
		HFPHash:   hfpHash,
		BandCount: n,
		Mode:      mode,
		Apply:     apply,
		Params:    p,
		DAC: DACConfig{
			WidthBits:     dacBits,
			SampleRateGSa: sampleRateGSa,
			Quantization:  quant,
		},
	}, nil
}

// DefaultApplyWindow returns the envelope's default apply-timing block,
// with `at` supplied by the caller (ISO-8601 UTC seconds).
func DefaultApplyWindow(at string) ApplyWindow {
	return ApplyWindow{At: at, RampMS: 10, HoldMS: 2000, TTLMS: 10000}
}

// Bounds returns the declared (lo, hi) open interval for a named
// parameter channel, used by the controller-side verifier.
func Bounds(name string) (lo, hi float64, ok bool) {
	switch name {
	case "I_bias_mA":
		return boundIBias.lo, boundIBias.hi, true
	case "phi_rad":
		return boundPhi.lo, boundPhi.hi, true
	case "kappa":
		return boundKappa.lo, boundKappa.hi, true
	case "tau_ps":
		return boundTau.lo, boundTau.hi, true
	case "delta_f_GHz":
		return boundDeltaF.lo, boundDeltaF.hi, true
	case "alpha":
		return boundAlpha.lo, boundAlpha.hi, true
	default:
		return 0, 0, false
	}
}

// Epsilon exposes the open-interval clipping margin for a named channel at
// the given DAC width, used by the controller-side verifier.
func Epsilon(name string, bits int) (float64, bool) {
	lo, hi, ok := Bounds(name)
	if !ok {
		return 0, false
	}
	return epsilon(bound{lo, hi}, bits), true
}
