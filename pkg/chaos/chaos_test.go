package chaos

import (
	"math"
	"testing"
)

func TestStreamDeterministic(t *testing.T) {
	p := Default()
	p.N = 512
	a, err := Stream([]byte("qlx-demo-seed-phi369"), p)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	b, err := Stream([]byte("qlx-demo-seed-phi369"), p)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("stream not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestStreamDiffersBySeed(t *testing.T) {
	p := Default()
	p.N = 512
	a, err := Stream([]byte("seed-one"), p)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	b, err := Stream([]byte("seed-two"), p)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to produce different streams")
	}
}

func TestStreamIsNormalized(t *testing.T) {
	p := Default()
	p.N = 4096
	x, err := Stream([]byte("normalization-check"), p)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	if math.Abs(mean) > 1e-6 {
		t.Errorf("expected near-zero mean, got %v", mean)
	}

	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(x))
	std := math.Sqrt(variance)
	if math.Abs(std-1) > 1e-3 {
		t.Errorf("expected unit std, got %v", std)
	}
}

func TestStreamRejectsInvalidParams(t *testing.T) {
	p := Default()
	p.N = 0
	if _, err := Stream([]byte("x"), p); err == nil {
		t.Error("expected error for N=0")
	}

	p2 := Default()
	p2.Harmonics = nil
	if _, err := Stream([]byte("x"), p2); err == nil {
		t.Error("expected error for empty harmonics")
	}
}

func TestLogisticMapBurnIn(t *testing.T) {
	x := logisticMap(10, 3.99, 0.372, 5)
	if len(x) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(x))
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("logistic map produced non-finite value: %v", v)
		}
	}
}

func TestPhaseSequenceDeterministic(t *testing.T) {
	a, err := phaseSequence(12345, 7)
	if err != nil {
		t.Fatalf("phaseSequence: %v", err)
	}
	b, err := phaseSequence(12345, 7)
	if err != nil {
		t.Fatalf("phaseSequence: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("phase sequence not deterministic at %d", i)
		}
		if a[i] < 0 || a[i] >= 1 {
			t.Fatalf("phase value %v out of [0,1) range", a[i])
		}
	}
}
