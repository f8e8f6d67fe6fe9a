// Package main implements the qlx CLI: a thin caller over the pipeline's
// exported packages, in the same manual os.Args-dispatch style as
// cmd/bee/main.go.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	mathrand "math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/qlx-labs/hfp/pkg/canonjson"
	"github.com/qlx-labs/hfp/pkg/constants"
	"github.com/qlx-labs/hfp/pkg/hfp"
	"github.com/qlx-labs/hfp/pkg/kdf"
	"github.com/qlx-labs/hfp/pkg/keymaterial"
	"github.com/qlx-labs/hfp/pkg/photonic"
	"github.com/qlx-labs/hfp/pkg/signing"
	"github.com/qlx-labs/hfp/pkg/sts"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	var err error
	switch command {
	case "version", "--version", "-v":
		fmt.Printf("qlx %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	case "hfp":
		err = hfpCommand(os.Args[2:])
	case "key":
		err = keyCommand(os.Args[2:])
	case "export":
		err = exportCommand(os.Args[2:])
	case "sts":
		err = stsCommand(os.Args[2:])
	case "keygen":
		err = keygenCommand(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`qlx v%s - Harmonic Fingerprint / photonic control envelope toolkit

Usage:
  qlx <command> [options]

Commands:
  hfp      Assemble a Harmonic Fingerprint from a seed phrase
  key      Derive a key bound to a fingerprint via hkdf/scrypt/argon2id
  export   Assemble, sign, and write the hfp/envelope artifacts to a directory
  sts      Run the STS-min statistical battery against the blended stream
  keygen   Generate and persist an Ed25519 keypair
  version  Show version information
  help     Show this help message

Examples:
  qlx hfp --seed "my seed phrase" --levels 5
  qlx key --seed "my seed phrase" --pw "a password" --kdf hkdf --length 32
  qlx export --seed "my seed phrase" --levels 5 --dac-bits 14 --sample-gsa 64 --quant nearest --sig-alg hmac --key deadbeef --out ./out
  qlx sts --seed "my seed phrase" --n-bits 200000 --alpha 0.01 --block 256 --whiten sha512
  qlx keygen --out keypair.json

`, version)
}

// parseFlags scans a flat "--key value" argument list, the same manual
// per-subcommand scanner shape as cmd/bee/main.go's putCommand.
func parseFlags(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args)/2)
	i := 0
	for i < len(args) {
		arg := args[i]
		if len(arg) < 3 || arg[0] != '-' || arg[1] != '-' {
			return nil, fmt.Errorf("unexpected argument: %s", arg)
		}
		key := arg[2:]
		if i+1 >= len(args) {
			return nil, fmt.Errorf("--%s requires a value", key)
		}
		out[key] = args[i+1]
		i += 2
	}
	return out, nil
}

func flagString(flags map[string]string, key, def string) string {
	if v, ok := flags[key]; ok {
		return v
	}
	return def
}

func flagInt(flags map[string]string, key string, def int) (int, error) {
	v, ok := flags[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("--%s must be an integer: %w", key, err)
	}
	return n, nil
}

func flagFloat(flags map[string]string, key string, def float64) (float64, error) {
	v, ok := flags[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("--%s must be a number: %w", key, err)
	}
	return f, nil
}

func hfpCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	seed := flagString(flags, "seed", "qlx-demo-seed-phi369")
	levels, err := flagInt(flags, "levels", constants.DefaultLevels)
	if err != nil {
		return err
	}

	core, _, err := hfp.AssembleCore(seed, levels, constants.DefaultHarmonics, constants.CarrierGain, constants.StreamLength)
	if err != nil {
		return err
	}
	fp, err := hfp.Fingerprint(core)
	if err != nil {
		return err
	}
	full := hfp.AssembleFull(core, fp, time.Now)

	coreBytes, err := canonjson.Bytes(core.ToValue())
	if err != nil {
		return err
	}
	fullBytes, err := canonjson.Bytes(full.ToValue())
	if err != nil {
		return err
	}

	if dir, ok := flags["json-out"]; ok {
		if err := writeArtifact(dir, "hfp_core.json", coreBytes); err != nil {
			return err
		}
		if err := writeArtifact(dir, "hfp_full.json", fullBytes); err != nil {
			return err
		}
	}

	fmt.Println(string(fullBytes))
	return nil
}

func keyCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	seed := flagString(flags, "seed", "qlx-demo-seed-phi369")
	pw := flagString(flags, "pw", "")
	kdfName := flagString(flags, "kdf", "hkdf")
	length, err := flagInt(flags, "length", constants.DefaultKeyLen)
	if err != nil {
		return err
	}
	levels, err := flagInt(flags, "levels", constants.DefaultLevels)
	if err != nil {
		return err
	}

	core, _, err := hfp.AssembleCore(seed, levels, constants.DefaultHarmonics, constants.CarrierGain, constants.StreamLength)
	if err != nil {
		return err
	}
	fp, err := hfp.Fingerprint(core)
	if err != nil {
		return err
	}

	var key []byte
	switch kdfName {
	case "hkdf":
		key, err = kdf.DeriveHKDF([]byte(pw), fp, length)
	case "scrypt":
		key, err = kdf.DeriveScrypt([]byte(pw), fp, length, constants.DefaultScryptN, constants.DefaultScryptR, constants.DefaultScryptP)
	case "argon2id":
		timeCost, ferr := flagInt(flags, "time-cost", constants.DefaultArgon2TimeCost)
		if ferr != nil {
			return ferr
		}
		memKiB, ferr := flagInt(flags, "memory-kib", constants.DefaultArgon2MemoryKiB)
		if ferr != nil {
			return ferr
		}
		parallelism, ferr := flagInt(flags, "parallelism", constants.DefaultArgon2Parallelism)
		if ferr != nil {
			return ferr
		}
		key, err = kdf.DeriveArgon2id([]byte(pw), fp, length, timeCost, memKiB, parallelism)
	default:
		return fmt.Errorf("unknown kdf: %s", kdfName)
	}
	if err != nil {
		return err
	}

	fmt.Printf("fingerprint: %s\n", fp)
	fmt.Printf("key (%d bytes): %s\n", len(key), hex.EncodeToString(key))
	return nil
}

func exportCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	seed := flagString(flags, "seed", "qlx-demo-seed-phi369")
	out := flagString(flags, "out", ".")
	levels, err := flagInt(flags, "levels", constants.DefaultLevels)
	if err != nil {
		return err
	}
	dacBits, err := flagInt(flags, "dac-bits", constants.DefaultDACBits)
	if err != nil {
		return err
	}
	sampleGSa, err := flagInt(flags, "sample-gsa", constants.DefaultSampleRateGSa)
	if err != nil {
		return err
	}
	quant := photonic.QuantMode(flagString(flags, "quant", string(photonic.QuantNearest)))
	sigAlg := flagString(flags, "sig-alg", "hmac")

	core, _, err := hfp.AssembleCore(seed, levels, constants.DefaultHarmonics, constants.CarrierGain, constants.StreamLength)
	if err != nil {
		return err
	}
	fp, err := hfp.Fingerprint(core)
	if err != nil {
		return err
	}
	full := hfp.AssembleFull(core, fp, time.Now)

	bandStats := make([]hfp.BandStat, len(core.BandStats))
	copy(bandStats, core.BandStats)
	params, err := photonic.Map(bandStats, dacBits)
	if err != nil {
		return err
	}

	var qrng *mathrand.Rand
	if quant == photonic.QuantStochastic {
		qrng = mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	}
	quantized, err := photonic.QuantizeParams(params, dacBits, quant, qrng)
	if err != nil {
		return err
	}

	sessionID := uuid.New().String()
	apply := photonic.DefaultApplyWindow(time.Now().UTC().Format(time.RFC3339))
	env, err := photonic.MakeEnvelope(sessionID, fp, "calibrate", quantized, dacBits, sampleGSa, quant, apply)
	if err != nil {
		return err
	}

	switch sigAlg {
	case "hmac":
		keyHex, ok := flags["key"]
		if !ok {
			return fmt.Errorf("--sig-alg hmac requires --key (hex)")
		}
		key, decErr := hex.DecodeString(keyHex)
		if decErr != nil {
			return fmt.Errorf("invalid --key hex: %w", decErr)
		}
		if err := signing.SignHMAC(env, key, "cli", time.Now()); err != nil {
			return err
		}
	case "ed25519":
		privHex, ok := flags["ed25519-priv-hex"]
		if !ok {
			return fmt.Errorf("--sig-alg ed25519 requires --ed25519-priv-hex")
		}
		priv, perr := keymaterial.ParsePrivateHex(privHex)
		if perr != nil {
			return perr
		}
		if err := signing.SignEd25519(env, priv, "cli", time.Now()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown sig-alg: %s", sigAlg)
	}

	coreBytes, err := canonjson.Bytes(core.ToValue())
	if err != nil {
		return err
	}
	fullBytes, err := canonjson.Bytes(full.ToValue())
	if err != nil {
		return err
	}
	envBytes, err := canonjson.Bytes(env.ToValue())
	if err != nil {
		return err
	}

	if err := writeArtifact(out, "hfp_core.json", coreBytes); err != nil {
		return err
	}
	if err := writeArtifact(out, "hfp_full.json", fullBytes); err != nil {
		return err
	}
	if err := writeArtifact(out, "photonic_env_signed.json", envBytes); err != nil {
		return err
	}

	fmt.Printf("wrote hfp_core.json, hfp_full.json, photonic_env_signed.json to %s\n", out)
	return nil
}

func stsCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	seed := flagString(flags, "seed", "qlx-demo-seed-phi369")
	nBits, err := flagInt(flags, "n-bits", constants.DefaultSTSBits)
	if err != nil {
		return err
	}
	alpha, err := flagFloat(flags, "alpha", constants.DefaultAlpha)
	if err != nil {
		return err
	}
	block, err := flagInt(flags, "block", constants.DefaultBlockSize)
	if err != nil {
		return err
	}
	whiten := sts.WhitenMode(flagString(flags, "whiten", string(sts.WhitenSHA512)))

	const chunkIn, chunkOut = 4096, 512
	nStream := nBits
	if whiten == sts.WhitenSHA512 {
		needChunks := (nBits + chunkOut - 1) / chunkOut
		nStream = needChunks * chunkIn
	}

	core, stream, err := hfp.AssembleCore(seed, constants.DefaultLevels, constants.DefaultHarmonics, constants.CarrierGain, nStream)
	if err != nil {
		return err
	}
	_ = core

	rawBits := sts.Threshold(stream, 0.0)
	bits, err := sts.Whiten(rawBits, whiten)
	if err != nil {
		return err
	}
	if len(bits) > nBits {
		bits = bits[:nBits]
	}

	report := sts.RunSuite(bits, alpha, block)

	js, err := marshalIndent(report)
	if err != nil {
		return err
	}
	fmt.Println(string(js))

	if !report.AllPass {
		os.Exit(2)
	}
	return nil
}

func keygenCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	out := flagString(flags, "out", "qlx-ed25519.json")

	kp, err := keymaterial.Generate()
	if err != nil {
		return err
	}
	if err := kp.SaveToFile(out); err != nil {
		return err
	}
	fmt.Printf("generated Ed25519 keypair, saved to %s\n", out)
	fmt.Printf("public key: %s\n", hex.EncodeToString(kp.PublicKey))
	return nil
}

func writeArtifact(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// marshalIndent renders a JSON-marshalable value with two-space indentation,
// matching the reference tool's `json.dumps(report, indent=2)` output for
// the sts report (this is display output, not a hashed/signed artifact, so
// encoding/json is used directly rather than canonjson).
func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
