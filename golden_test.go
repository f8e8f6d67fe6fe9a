// Package main provides end-to-end golden tests for the HFP/photonic
// pipeline: fingerprint determinism, envelope bounds, signature round-trip,
// KDF stability, and the STS-min battery.
package main

import (
	"encoding/hex"
	"math/rand"
	"testing"
	"time"

	"github.com/qlx-labs/hfp/pkg/constants"
	"github.com/qlx-labs/hfp/pkg/hfp"
	"github.com/qlx-labs/hfp/pkg/kdf"
	"github.com/qlx-labs/hfp/pkg/photonic"
	"github.com/qlx-labs/hfp/pkg/signing"
	"github.com/qlx-labs/hfp/pkg/sts"
)

const demoSeed = "qlx-demo-seed-phi369"

func assembleDemo(t *testing.T, seed string) (*hfp.CoreRecord, []float64, string) {
	t.Helper()
	core, stream, err := hfp.AssembleCore(seed, constants.DefaultLevels, constants.DefaultHarmonics, constants.CarrierGain, constants.StreamLength)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}
	fp, err := hfp.Fingerprint(core)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	return core, stream, fp
}

// TestHFPReproAndSensitivity mirrors test_hfp_repro.py: the same seed
// reproduces the same fingerprint, and a one-character seed change flips it.
func TestHFPReproAndSensitivity(t *testing.T) {
	_, _, fp1 := assembleDemo(t, demoSeed)
	_, _, fp2 := assembleDemo(t, demoSeed)
	if fp1 != fp2 {
		t.Fatalf("expected deterministic fingerprint, got %q vs %q", fp1, fp2)
	}

	_, _, fp3 := assembleDemo(t, demoSeed+"-delta")
	if fp3 == fp1 {
		t.Fatalf("expected fingerprint to change with seed")
	}
}

// TestAssembleFullTimestampExcludedFromHash checks that two FullRecords
// built from the same core at different wall-clock times still carry the
// same fingerprint hash (the core is what's hashed, not the full record).
func TestAssembleFullTimestampExcludedFromHash(t *testing.T) {
	core, _, fp := assembleDemo(t, demoSeed)
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2030, 6, 15, 12, 30, 0, 0, time.UTC)

	full1 := hfp.AssembleFull(core, fp, func() time.Time { return t1 })
	full2 := hfp.AssembleFull(core, fp, func() time.Time { return t2 })

	if full1.FingerprintHash != full2.FingerprintHash {
		t.Fatalf("fingerprint hash should not depend on timestamp")
	}
	if full1.Timestamp == full2.Timestamp {
		t.Fatalf("expected distinct timestamps from distinct clocks")
	}
}

// TestPhotonicParamsStrictlyInsideBounds mirrors test_bounds.py.
func TestPhotonicParamsStrictlyInsideBounds(t *testing.T) {
	core, _, _ := assembleDemo(t, demoSeed)
	params, err := photonic.Map(core.BandStats, constants.DefaultDACBits)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	checks := map[string][]float64{
		"I_bias_mA":   params.IBiasMA,
		"phi_rad":     params.PhiRad,
		"kappa":       params.Kappa,
		"tau_ps":      params.TauPS,
		"delta_f_GHz": params.DeltaFGHz,
		"alpha":       params.Alpha,
	}
	for name, vals := range checks {
		lo, hi, ok := photonic.Bounds(name)
		if !ok {
			t.Fatalf("no bounds registered for %s", name)
		}
		if len(vals) == 0 {
			t.Fatalf("%s: empty parameter array", name)
		}
		mn, mx := vals[0], vals[0]
		for _, v := range vals {
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}
		if !(mn > lo && mx < hi) {
			t.Errorf("%s out of open interval (%v,%v): min=%v max=%v", name, lo, hi, mn, mx)
		}
	}
}

// TestEnvelopeHMACRoundTrip builds a signed envelope and verifies it with
// the same and a different key.
func TestEnvelopeHMACRoundTrip(t *testing.T) {
	core, _, fp := assembleDemo(t, demoSeed)
	params, err := photonic.Map(core.BandStats, constants.DefaultDACBits)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	quantized, err := photonic.QuantizeParams(params, constants.DefaultDACBits, photonic.QuantNearest, nil)
	if err != nil {
		t.Fatalf("QuantizeParams: %v", err)
	}
	apply := photonic.DefaultApplyWindow("2026-07-30T00:00:00Z")
	env, err := photonic.MakeEnvelope("session-1", fp, "calibrate", quantized, constants.DefaultDACBits, constants.DefaultSampleRateGSa, photonic.QuantNearest, apply)
	if err != nil {
		t.Fatalf("MakeEnvelope: %v", err)
	}

	key, _ := hex.DecodeString("00112233445566778899aabbccddeeff0011223344556677889900112233445")
	if len(key)%2 != 0 {
		key, _ = hex.DecodeString("00112233445566778899aabbccddeeff0011223344556677889900112233")
	}
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	if err := signing.SignHMAC(env, key, "test-key", now); err != nil {
		t.Fatalf("SignHMAC: %v", err)
	}

	ok, known, err := signing.Verify(env, key, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !known || !ok {
		t.Fatalf("expected signature to verify, got ok=%v known=%v", ok, known)
	}

	wrongKey := append([]byte(nil), key...)
	wrongKey[0] ^= 0xFF
	ok, known, err = signing.Verify(env, wrongKey, nil)
	if err != nil {
		t.Fatalf("Verify with wrong key: %v", err)
	}
	if !known || ok {
		t.Fatalf("expected signature verification to fail with wrong key")
	}
}

// TestKDFLengthsAndStability mirrors test_kdfs.py: all three KDFs produce
// stable, correctly-sized, mutually distinct keys for the same inputs.
func TestKDFLengthsAndStability(t *testing.T) {
	_, _, fp := assembleDemo(t, demoSeed)
	pw := []byte("demo-password")

	k1, err := kdf.DeriveHKDF(pw, fp, 32)
	if err != nil {
		t.Fatalf("DeriveHKDF: %v", err)
	}
	k1b, err := kdf.DeriveHKDF(pw, fp, 32)
	if err != nil {
		t.Fatalf("DeriveHKDF: %v", err)
	}
	if len(k1) != 32 || hex.EncodeToString(k1) != hex.EncodeToString(k1b) {
		t.Fatalf("expected stable 32-byte HKDF key")
	}

	k2, err := kdf.DeriveScrypt(pw, fp, 32, constants.DefaultScryptN, constants.DefaultScryptR, constants.DefaultScryptP)
	if err != nil {
		t.Fatalf("DeriveScrypt: %v", err)
	}
	k2b, err := kdf.DeriveScrypt(pw, fp, 32, constants.DefaultScryptN, constants.DefaultScryptR, constants.DefaultScryptP)
	if err != nil {
		t.Fatalf("DeriveScrypt: %v", err)
	}
	if len(k2) != 32 || hex.EncodeToString(k2) != hex.EncodeToString(k2b) {
		t.Fatalf("expected stable 32-byte scrypt key")
	}

	k3, err := kdf.DeriveArgon2id(pw, fp, 32, constants.DefaultArgon2TimeCost, constants.DefaultArgon2MemoryKiB, constants.DefaultArgon2Parallelism)
	if err != nil {
		t.Fatalf("DeriveArgon2id: %v", err)
	}
	k3b, err := kdf.DeriveArgon2id(pw, fp, 32, constants.DefaultArgon2TimeCost, constants.DefaultArgon2MemoryKiB, constants.DefaultArgon2Parallelism)
	if err != nil {
		t.Fatalf("DeriveArgon2id: %v", err)
	}
	if len(k3) != 32 || hex.EncodeToString(k3) != hex.EncodeToString(k3b) {
		t.Fatalf("expected stable 32-byte argon2id key")
	}

	if hex.EncodeToString(k1) == hex.EncodeToString(k2) ||
		hex.EncodeToString(k1) == hex.EncodeToString(k3) ||
		hex.EncodeToString(k2) == hex.EncodeToString(k3) {
		t.Fatalf("expected distinct keys across KDF families")
	}
}

// TestSTSReportOnHFPStreamWithSHA512Whitening runs the battery over the
// SHA-512-whitened default-length blended stream and checks the report's
// bit count and that min_p lies in [0, 1]; it does not assert all_pass.
func TestSTSReportOnHFPStreamWithSHA512Whitening(t *testing.T) {
	_, stream, _ := assembleDemo(t, demoSeed)

	raw := sts.Threshold(stream, 0.0)
	bits, err := sts.Whiten(raw, sts.WhitenSHA512)
	if err != nil {
		t.Fatalf("Whiten: %v", err)
	}

	report := sts.RunSuite(bits, 0.001, 64)
	if report.NBits != len(bits) {
		t.Fatalf("report NBits = %d, want %d", report.NBits, len(bits))
	}
	if report.MinP < 0 || report.MinP > 1 {
		t.Fatalf("min_p out of range: %v", report.MinP)
	}
}

// TestUnequalLengthEnvelopeRejected checks that MakeEnvelope refuses a
// parameter set whose I_bias_mA array is one element shorter than the
// other five channels.
func TestUnequalLengthEnvelopeRejected(t *testing.T) {
	core, _, fp := assembleDemo(t, demoSeed)
	params, err := photonic.Map(core.BandStats, constants.DefaultDACBits)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	quantized, err := photonic.QuantizeParams(params, constants.DefaultDACBits, photonic.QuantNearest, nil)
	if err != nil {
		t.Fatalf("QuantizeParams: %v", err)
	}

	truncated := quantized
	truncated.IBiasMA = truncated.IBiasMA[:len(truncated.IBiasMA)-1]

	apply := photonic.DefaultApplyWindow("2026-07-30T00:00:00Z")
	_, err = photonic.MakeEnvelope("session-2", fp, "calibrate", truncated, constants.DefaultDACBits, constants.DefaultSampleRateGSa, photonic.QuantNearest, apply)
	if err == nil {
		t.Fatalf("expected MakeEnvelope to reject unequal-length parameter arrays")
	}
}

// TestQuantizeStochasticRequiresCallerRNG ensures the stochastic DAC path
// never silently falls back to a package-global RNG.
func TestQuantizeStochasticRequiresCallerRNG(t *testing.T) {
	core, _, _ := assembleDemo(t, demoSeed)
	params, err := photonic.Map(core.BandStats, constants.DefaultDACBits)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	if _, err := photonic.QuantizeParams(params, constants.DefaultDACBits, photonic.QuantStochastic, nil); err == nil {
		t.Fatalf("expected an error when stochastic quantization is requested without an RNG")
	}

	rng := rand.New(rand.NewSource(1))
	if _, err := photonic.QuantizeParams(params, constants.DefaultDACBits, photonic.QuantStochastic, rng); err != nil {
		t.Fatalf("QuantizeParams with RNG: %v", err)
	}
}
