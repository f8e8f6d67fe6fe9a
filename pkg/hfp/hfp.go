// Package hfp assembles the Harmonic Fingerprint core and full records from
// a seed phrase: it drives pkg/chaos and pkg/wavelet, canonicalizes the
// result, and computes the SHA-512 fingerprint hash that downstream
// components (pkg/photonic, pkg/kdf) bind to.
package hfp

import (
	"crypto/sha512"
	"encoding/hex"
	"time"

	"github.com/qlx-labs/hfp/pkg/canonjson"
	"github.com/qlx-labs/hfp/pkg/chaos"
	"github.com/qlx-labs/hfp/pkg/constants"
	"github.com/qlx-labs/hfp/pkg/qlxerr"
	"github.com/qlx-labs/hfp/pkg/wavelet"
)

// BandStat mirrors wavelet.BandStat with the exact member names the
// canonical record uses.
type BandStat struct {
	Band    string
	Mean    float64
	Std     float64
	Entropy float64
}

// ChaosSpec records the chaos generator's fixed parameters, carried in the
// core record so the fingerprint binds to the algorithm, not just its
// output.
type ChaosSpec struct {
	Type   string
	R      float64
	BurnIn int
}

// MixerSpec records the blend weight applied to the harmonic comb.
type MixerSpec struct {
	CarrierGain float64
}

// CoreRecord is the stable, timestamp-free record hashed to produce the
// fingerprint.
type CoreRecord struct {
	Version       string
	WaveletBasis  string
	Levels        int
	SeedHarmonics []float64
	Phi           float64
	Chaos         ChaosSpec
	Mixer         MixerSpec
	BandStats     []BandStat
}

// FullRecord is the core record plus the runtime fields attached after the
// fingerprint is fixed.
type FullRecord struct {
	CoreRecord
	Timestamp       float64
	FingerprintHash string
}

// ToValue converts CoreRecord into the generic tree canonjson.Bytes
// consumes.
func (c *CoreRecord) ToValue() any {
	harmonics := make([]any, len(c.SeedHarmonics))
	for i, h := range c.SeedHarmonics {
		harmonics[i] = h
	}
	bandStats := make([]any, len(c.BandStats))
	for i, b := range c.BandStats {
		bandStats[i] = map[string]any{
			"band":    b.Band,
			"mean":    b.Mean,
			"std":     b.Std,
			"entropy": b.Entropy,
		}
	}
	return map[string]any{
		"version":        c.Version,
		"wavelet_basis":  c.WaveletBasis,
		"levels":         int64(c.Levels),
		"seed_harmonics": harmonics,
		"phi":            c.Phi,
		"chaos": map[string]any{
			"type":    c.Chaos.Type,
			"params":  map[string]any{"r": c.Chaos.R},
			"burn_in": int64(c.Chaos.BurnIn),
		},
		"mixer": map[string]any{
			"carrier_gain": c.Mixer.CarrierGain,
		},
		"band_stats": bandStats,
	}
}

// ToValue converts FullRecord into the generic tree canonjson.Bytes
// consumes. The full record is never itself hashed; it is written to
// hfp_full.json for callers, so its canonical form matters only for
// round-trip tests, not for the fingerprint.
func (f *FullRecord) ToValue() any {
	v := f.CoreRecord.ToValue().(map[string]any)
	v["timestamp"] = f.Timestamp
	v["fingerprint_hash"] = f.FingerprintHash
	return v
}

// AssembleCore runs the chaos+wavelet pipeline for seed and returns the
// core record together with the raw blended stream (needed by pkg/sts).
func AssembleCore(seed string, levels int, harmonics []float64, carrierGain float64, n int) (*CoreRecord, []float64, error) {
	p := chaos.Default()
	p.N = n
	p.Harmonics = harmonics
	p.CarrierGain = carrierGain

	stream, err := chaos.Stream([]byte(seed), p)
	if err != nil {
		return nil, nil, err
	}

	bands, err := wavelet.Decompose(stream, levels)
	if err != nil {
		return nil, nil, err
	}
	stats := wavelet.Stats(bands, levels, constants.Phi, constants.HistogramBins)

	bandStats := make([]BandStat, len(stats))
	for i, s := range stats {
		bandStats[i] = BandStat{Band: s.Band, Mean: s.Mean, Std: s.Std, Entropy: s.Entropy}
	}

	core := &CoreRecord{
		Version:       "HFP-0.1",
		WaveletBasis:  "haar",
		Levels:        levels,
		SeedHarmonics: append([]float64(nil), harmonics...),
		Phi:           constants.Phi,
		Chaos:         ChaosSpec{Type: "logistic", R: p.R, BurnIn: p.BurnIn},
		Mixer:         MixerSpec{CarrierGain: carrierGain},
		BandStats:     bandStats,
	}
	return core, stream, nil
}

// Fingerprint canonicalizes core and returns its SHA-512 hash as lowercase
// hex.
func Fingerprint(core *CoreRecord) (string, error) {
	bytes, err := canonjson.Bytes(core.ToValue())
	if err != nil {
		return "", qlxerr.Wrap(qlxerr.EncodingError, "hfp.Fingerprint", "canonicalize core record", err)
	}
	sum := sha512.Sum512(bytes)
	return hex.EncodeToString(sum[:]), nil
}

// AssembleFull attaches the wall-clock timestamp (via now, never time.Now
// directly) and fp to core, producing the full record.
func AssembleFull(core *CoreRecord, fp string, now func() time.Time) *FullRecord {
	return &FullRecord{
		CoreRecord:      *core,
		Timestamp:       float64(now().UnixNano()) / 1e9,
		FingerprintHash: fp,
	}
}

// FingerprintSaltBytes decodes the first 16 raw bytes of a hex fingerprint
// hash, the salt source every pkg/kdf function uses.
func FingerprintSaltBytes(fingerprintHex string) ([]byte, error) {
	if len(fingerprintHex) < 32 {
		return nil, qlxerr.Input("hfp.FingerprintSaltBytes", "fingerprint hex too short: %d chars", len(fingerprintHex))
	}
	salt, err := hex.DecodeString(fingerprintHex[:32])
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.InputError, "hfp.FingerprintSaltBytes", "decode fingerprint hex prefix", err)
	}
	return salt, nil
}
