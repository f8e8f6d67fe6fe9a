package hfp

import (
	"strings"
	"testing"
	"time"

	"github.com/qlx-labs/hfp/pkg/constants"
)

func TestAssembleCoreAndFingerprintDeterministic(t *testing.T) {
	core1, stream1, err := AssembleCore("qlx-demo-seed-phi369", 5, constants.DefaultHarmonics, constants.CarrierGain, 1024)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}
	core2, stream2, err := AssembleCore("qlx-demo-seed-phi369", 5, constants.DefaultHarmonics, constants.CarrierGain, 1024)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}

	fp1, err := Fingerprint(core1)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fp2, err := Fingerprint(core2)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp1 != fp2 {
		t.Fatalf("expected deterministic fingerprint, got %s != %s", fp1, fp2)
	}
	if len(fp1) != 128 {
		t.Errorf("expected 128 hex chars (SHA-512), got %d", len(fp1))
	}
	if len(stream1) != len(stream2) {
		t.Errorf("expected equal-length streams")
	}
}

func TestFingerprintDiffersBySeed(t *testing.T) {
	coreA, _, err := AssembleCore("seed-a", 4, constants.DefaultHarmonics, constants.CarrierGain, 512)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}
	coreB, _, err := AssembleCore("seed-b", 4, constants.DefaultHarmonics, constants.CarrierGain, 512)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}
	fpA, _ := Fingerprint(coreA)
	fpB, _ := Fingerprint(coreB)
	if fpA == fpB {
		t.Fatal("expected different seeds to produce different fingerprints")
	}
}

func TestAssembleFullExcludesTimestampFromHash(t *testing.T) {
	core, _, err := AssembleCore("ts-check", 3, constants.DefaultHarmonics, constants.CarrierGain, 256)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}
	fp, err := Fingerprint(core)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	full1 := AssembleFull(core, fp, func() time.Time { return fixed })
	full2 := AssembleFull(core, fp, func() time.Time { return fixed.Add(time.Hour) })

	if full1.FingerprintHash != full2.FingerprintHash {
		t.Error("fingerprint hash must not depend on timestamp")
	}
	if full1.Timestamp == full2.Timestamp {
		t.Error("expected different injected clocks to produce different timestamps")
	}
}

func TestCoreRecordToValueShape(t *testing.T) {
	core, _, err := AssembleCore("shape-check", 2, []float64{3, 6, 9}, 0.3, 64)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}
	v := core.ToValue().(map[string]any)
	if v["version"] != "HFP-0.1" {
		t.Errorf("version = %v", v["version"])
	}
	if v["wavelet_basis"] != "haar" {
		t.Errorf("wavelet_basis = %v", v["wavelet_basis"])
	}
	chaosBlock, ok := v["chaos"].(map[string]any)
	if !ok {
		t.Fatalf("expected chaos block to be a map")
	}
	if chaosBlock["type"] != "logistic" {
		t.Errorf("chaos.type = %v", chaosBlock["type"])
	}
}

func TestFingerprintSaltBytesLength(t *testing.T) {
	core, _, err := AssembleCore("salt-check", 2, constants.DefaultHarmonics, constants.CarrierGain, 128)
	if err != nil {
		t.Fatalf("AssembleCore: %v", err)
	}
	fp, err := Fingerprint(core)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	salt, err := FingerprintSaltBytes(fp)
	if err != nil {
		t.Fatalf("FingerprintSaltBytes: %v", err)
	}
	if len(salt) != 16 {
		t.Errorf("expected 16-byte salt, got %d", len(salt))
	}
}

func TestFingerprintSaltBytesRejectsShortHex(t *testing.T) {
	if _, err := FingerprintSaltBytes("abcd"); err == nil {
		t.Error("expected error for too-short fingerprint hex")
	}
}

func TestFingerprintSaltBytesRejectsNonHex(t *testing.T) {
	if _, err := FingerprintSaltBytes(strings.Repeat("zz", 16)); err == nil {
		t.Error("expected error for non-hex fingerprint")
	}
}
