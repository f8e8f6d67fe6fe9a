// Command qlx-verify is the controller-side envelope verifier: it checks
// that a signed photonic control envelope has matching array lengths,
// in-bounds (open-interval) parameter values, and - when a key is
// supplied - a valid signature. Grounded on controller_verify.py.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/qlx-labs/hfp/pkg/keymaterial"
	"github.com/qlx-labs/hfp/pkg/photonic"
	"github.com/qlx-labs/hfp/pkg/signing"
)

type report struct {
	OK     bool            `json:"ok"`
	Errors []string        `json:"errors"`
	Checks map[string]any  `json:"checks"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: qlx-verify <envelope.json> [--hmac-key-hex HEX] [--ed25519-pub-hex HEX]")
		os.Exit(2)
	}

	envelopePath := os.Args[1]
	var hmacKeyHex, ed25519PubHex string
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--hmac-key-hex":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --hmac-key-hex requires a value")
				os.Exit(2)
			}
			hmacKeyHex = args[i+1]
			i++
		case "--ed25519-pub-hex":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --ed25519-pub-hex requires a value")
				os.Exit(2)
			}
			ed25519PubHex = args[i+1]
			i++
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown option: %s\n", args[i])
			os.Exit(2)
		}
	}

	rep := report{Checks: map[string]any{}}

	data, err := os.ReadFile(envelopePath)
	if err != nil {
		printAndExit(report{OK: false, Errors: []string{fmt.Sprintf("load error: %v", err)}}, 2)
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		printAndExit(report{OK: false, Errors: []string{fmt.Sprintf("load error: %v", err)}}, 2)
	}

	lengthsOK := true
	paramNames := []string{"I_bias_mA", "phi_rad", "kappa", "tau_ps", "delta_f_GHz", "alpha"}
	for _, name := range paramNames {
		arr := paramArray(env, name)
		if len(arr) != env.BandCount {
			lengthsOK = false
			rep.Errors = append(rep.Errors, fmt.Sprintf("length: %s has %d != band_count %d", name, len(arr), env.BandCount))
		}
	}
	rep.Checks["lengths_ok"] = lengthsOK

	rangesOK := true
	for _, name := range paramNames {
		arr := paramArray(env, name)
		if !openIntervalOK(name, arr, env.DAC.WidthBits) {
			rangesOK = false
			lo, hi, _ := photonic.Bounds(name)
			rep.Errors = append(rep.Errors, fmt.Sprintf("range: %s not in (%v,%v) open by 1 LSB", name, lo, hi))
		}
	}
	rep.Checks["ranges_ok"] = rangesOK

	alg := ""
	if env.Signing != nil {
		alg = strings.ToUpper(env.Signing.Alg)
	}
	var sigOK *bool
	var sigErr string

	switch {
	case alg == "ED25519":
		if ed25519PubHex != "" {
			ok, verifyErr := verifyEd25519(env, ed25519PubHex)
			sigOK = &ok
			if verifyErr != nil {
				sigErr = verifyErr.Error()
			}
		} else {
			sigErr = "pub key not provided; signature check skipped"
		}
	case alg == "HMAC-SHA256" || alg == "HMAC_SHA256" || alg == "HMAC":
		if hmacKeyHex != "" {
			ok, verifyErr := verifyHMAC(env, hmacKeyHex)
			sigOK = &ok
			if verifyErr != nil {
				sigErr = verifyErr.Error()
			}
		} else {
			sigErr = "HMAC key not provided; signature check skipped"
		}
	default:
		sigErr = "unknown or missing signing.alg; signature check skipped"
	}

	rep.Checks["sig_alg"] = alg
	rep.Checks["sig_ok"] = sigOK
	if sigErr != "" {
		rep.Errors = append(rep.Errors, fmt.Sprintf("sign: %s", sigErr))
	}

	ok := lengthsOK && rangesOK && (sigOK == nil || *sigOK)
	rep.OK = ok

	exit := 0
	if !ok {
		exit = 2
	}
	printAndExit(rep, exit)
}

func paramArray(env *photonic.Envelope, name string) []float64 {
	switch name {
	case "I_bias_mA":
		return env.Params.IBiasMA
	case "phi_rad":
		return env.Params.PhiRad
	case "kappa":
		return env.Params.Kappa
	case "tau_ps":
		return env.Params.TauPS
	case "delta_f_GHz":
		return env.Params.DeltaFGHz
	case "alpha":
		return env.Params.Alpha
	default:
		return nil
	}
}

func openIntervalOK(name string, vals []float64, bits int) bool {
	if len(vals) == 0 {
		return false
	}
	lo, hi, ok := photonic.Bounds(name)
	if !ok {
		return false
	}
	eps, _ := photonic.Epsilon(name, bits)
	tol := eps * 1e-6
	if tol < 1e-12 {
		tol = 1e-12
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
	return mn >= lo+eps-tol && mx <= hi-eps+tol
}

func verifyHMAC(env *photonic.Envelope, keyHex string) (bool, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return false, fmt.Errorf("invalid hmac key hex: %w", err)
	}
	ok, known, err := signing.Verify(env, key, nil)
	if err != nil {
		return false, err
	}
	if !known {
		return false, fmt.Errorf("HMAC mismatch")
	}
	if !ok {
		return false, fmt.Errorf("HMAC mismatch")
	}
	return true, nil
}

func verifyEd25519(env *photonic.Envelope, pubHex string) (bool, error) {
	pub, err := keymaterial.ParsePublicHex(pubHex)
	if err != nil {
		return false, fmt.Errorf("invalid ed25519 public key: %w", err)
	}
	ok, known, err := signing.Verify(env, nil, pub)
	if err != nil {
		return false, err
	}
	if !known || !ok {
		return false, fmt.Errorf("Ed25519 verify returned false")
	}
	return true, nil
}

// decodeEnvelope unmarshals the on-disk envelope JSON into the Envelope
// shape used by pkg/photonic and pkg/signing.
func decodeEnvelope(data []byte) (*photonic.Envelope, error) {
	var raw struct {
		Version   string `json:"version"`
		SessionID string `json:"session_id"`
		HFPHash   string `json:"hfp_hash"`
		BandCount int    `json:"band_count"`
		Mode      string `json:"mode"`
		Apply     struct {
			At     string `json:"at"`
			RampMS int    `json:"ramp_ms"`
			HoldMS int    `json:"hold_ms"`
			TTLMS  int    `json:"ttl_ms"`
		} `json:"apply"`
		Params struct {
			IBiasMA   []float64 `json:"I_bias_mA"`
			PhiRad    []float64 `json:"phi_rad"`
			Kappa     []float64 `json:"kappa"`
			TauPS     []float64 `json:"tau_ps"`
			DeltaFGHz []float64 `json:"delta_f_GHz"`
			Alpha     []float64 `json:"alpha"`
		} `json:"params"`
		DAC struct {
			WidthBits     int    `json:"width_bits"`
			SampleRateGSa int    `json:"sample_rate_gsa"`
			Quantization  string `json:"quantization"`
		} `json:"dac"`
		Signing *struct {
			Alg       string `json:"alg"`
			KeyID     string `json:"key_id"`
			Nonce     string `json:"nonce"`
			Timestamp string `json:"timestamp"`
			Sig       string `json:"sig"`
		} `json:"signing"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	env := &photonic.Envelope{
		Version:   raw.Version,
		SessionID: raw.SessionID,
		HFPHash:   raw.HFPHash,
		BandCount: raw.BandCount,
		Mode:      raw.Mode,
		Apply: photonic.ApplyWindow{
			At:     raw.Apply.At,
			RampMS: raw.Apply.RampMS,
			HoldMS: raw.Apply.HoldMS,
			TTLMS:  raw.Apply.TTLMS,
		},
		Params: photonic.Params{
			IBiasMA:   raw.Params.IBiasMA,
			PhiRad:    raw.Params.PhiRad,
			Kappa:     raw.Params.Kappa,
			TauPS:     raw.Params.TauPS,
			DeltaFGHz: raw.Params.DeltaFGHz,
			Alpha:     raw.Params.Alpha,
		},
		DAC: photonic.DACConfig{
			WidthBits:     raw.DAC.WidthBits,
			SampleRateGSa: raw.DAC.SampleRateGSa,
			Quantization:  photonic.QuantMode(raw.DAC.Quantization),
		},
	}
	if raw.Signing != nil {
		env.Signing = &photonic.SigningBlock{
			Alg:       raw.Signing.Alg,
			KeyID:     raw.Signing.KeyID,
			Nonce:     raw.Signing.Nonce,
			Timestamp: raw.Signing.Timestamp,
			Sig:       raw.Signing.Sig,
		}
	}
	return env, nil
}

func printAndExit(rep report, code int) {
	js, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(js))
	os.Exit(code)
}
