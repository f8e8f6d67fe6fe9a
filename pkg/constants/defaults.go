// Package constants defines the cross-cutting default values named in the
// HFP/photonic pipeline: stream length, chaos/mixer parameters, DAC grid,
// envelope timing, and KDF defaults.
package constants

import "time"

// Stream Configuration
const (
	// StreamLength is the default blended-stream sample count N.
	StreamLength = 8192

	// DefaultLevels is the default Haar DWT decomposition depth.
	DefaultLevels = 5

	// HistogramBins is the bin count for band-entropy histograms.
	HistogramBins = 64

	// Phi is the golden ratio used for harmonic weighting and band
	// coefficient scaling.
	Phi = 1.61803398875
)

// Chaos Configuration
const (
	// LogisticR is the logistic-map growth parameter.
	LogisticR = 3.99

	// ChaosBurnIn is the number of discarded logistic-map warm-up steps.
	ChaosBurnIn = 2048
)

// Mixer Configuration
const (
	// CarrierGain is the default weight of the harmonic comb in the blend.
	CarrierGain = 0.30
)

// DefaultHarmonics is the default seed-harmonic frequency list.
var DefaultHarmonics = []float64{3, 6, 9, 27, 54, 111, 216}

// Photonic/DAC Configuration
const (
	// DefaultDACBits is the default DAC quantization width.
	DefaultDACBits = 14

	// DefaultSampleRateGSa is the default DAC sample rate in GSa/s.
	DefaultSampleRateGSa = 64

	// DefaultRampMS, DefaultHoldMS, DefaultTTLMS are the envelope's
	// default apply-window timings.
	DefaultRampMS = 10
	DefaultHoldMS = 2000
	DefaultTTLMS  = 10000
)

// VNShuffleSeed is the fixed seed for the von Neumann whitening shuffle,
// pinned so independent ports reproduce the same post-whitening sequence.
const VNShuffleSeed = 12345

// KDF Configuration
const (
	DefaultKeyLen = 32

	DefaultArgon2TimeCost    = 2
	DefaultArgon2MemoryKiB   = 64 * 1024
	DefaultArgon2Parallelism = 1

	DefaultScryptN = 1 << 14
	DefaultScryptR = 8
	DefaultScryptP = 1
	MinScryptN     = 1 << 12
)

// STS Configuration
const (
	DefaultSTSBits   = 200000
	DefaultAlpha     = 0.01
	DefaultBlockSize = 256
)

// MaxClockSkew bounds how far a signing timestamp may drift from wall
// clock when a verifier chooses to sanity-check it (the core itself never
// enforces this; it is provided for callers building their own checks).
const MaxClockSkew = 120 * time.Second
