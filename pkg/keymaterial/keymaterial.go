// Package keymaterial manages the Ed25519 signing keypairs used by
// pkg/signing, providing generation and JSON persistence for the export
// CLI's --sig-alg ed25519 path.
package keymaterial

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

// KeyPair holds an Ed25519 signing keypair.
type KeyPair struct {
	PublicKey  ed25519.PublicKey  `json:"public_key_hex"`
	PrivateKey ed25519.PrivateKey `json:"private_key_hex"`
}

// Generate creates a fresh Ed25519 keypair.
func Generate() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.SignatureError, "keymaterial.Generate", "key generation failed", err)
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// keyPairJSON is the on-disk shape: hex-encoded keys instead of raw bytes,
// so the file is readable and greppable like the rest of this module's
// artifacts.
type keyPairJSON struct {
	PublicKeyHex  string `json:"public_key_hex"`
	PrivateKeyHex string `json:"private_key_hex"`
}

// SaveToFile writes the keypair to filename as JSON with restricted
// permissions, creating parent directories as needed.
func (kp *KeyPair) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return qlxerr.Wrap(qlxerr.InputError, "keymaterial.SaveToFile", "create directory", err)
		}
	}

	data, err := json.MarshalIndent(keyPairJSON{
		PublicKeyHex:  hex.EncodeToString(kp.PublicKey),
		PrivateKeyHex: hex.EncodeToString(kp.PrivateKey),
	}, "", "  ")
	if err != nil {
		return qlxerr.Wrap(qlxerr.EncodingError, "keymaterial.SaveToFile", "marshal keypair", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return qlxerr.Wrap(qlxerr.InputError, "keymaterial.SaveToFile", "write file", err)
	}
	return nil
}

// LoadFromFile loads a keypair previously written by SaveToFile.
func LoadFromFile(filename string) (*KeyPair, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.InputError, "keymaterial.LoadFromFile", "read file", err)
	}

	var raw keyPairJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, qlxerr.Wrap(qlxerr.EncodingError, "keymaterial.LoadFromFile", "unmarshal keypair", err)
	}

	pub, err := hex.DecodeString(raw.PublicKeyHex)
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.SignatureError, "keymaterial.LoadFromFile", "decode public key hex", err)
	}
	priv, err := hex.DecodeString(raw.PrivateKeyHex)
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.SignatureError, "keymaterial.LoadFromFile", "decode private key hex", err)
	}
	if len(pub) != ed25519.PublicKeySize || len(priv) != ed25519.PrivateKeySize {
		return nil, qlxerr.New(qlxerr.SignatureError, "keymaterial.LoadFromFile",
			fmt.Sprintf("wrong key length: pub=%d priv=%d", len(pub), len(priv)))
	}

	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// ParsePrivateHex decodes a hex-encoded Ed25519 private key, as accepted by
// the --ed25519-priv-hex CLI flag.
func ParsePrivateHex(h string) (ed25519.PrivateKey, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.SignatureError, "keymaterial.ParsePrivateHex", "decode hex", err)
	}
	if len(b) != ed25519.PrivateKeySize {
		return nil, qlxerr.New(qlxerr.SignatureError, "keymaterial.ParsePrivateHex",
			fmt.Sprintf("wrong private key length: got %d, want %d", len(b), ed25519.PrivateKeySize))
	}
	return ed25519.PrivateKey(b), nil
}

// ParsePublicHex decodes a hex-encoded Ed25519 public key, as accepted by
// the --ed25519-pub-hex verifier flag.
func ParsePublicHex(h string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.SignatureError, "keymaterial.ParsePublicHex", "decode hex", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, qlxerr.New(qlxerr.SignatureError, "keymaterial.ParsePublicHex",
			fmt.Sprintf("wrong public key length: got %d, want %d", len(b), ed25519.PublicKeySize))
	}
	return ed25519.PublicKey(b), nil
}
