// Package signing attaches and verifies detached signatures over a
// photonic control envelope's canonical bytes, following the same
// encode-without-signature-then-attach sequence as the teacher's
// wire.BaseFrame.Sign/Verify.
package signing

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/qlx-labs/hfp/pkg/canonjson"
	"github.com/qlx-labs/hfp/pkg/photonic"
	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

const (
	AlgHMACSHA256 = "HMAC-SHA256"
	AlgEd25519    = "Ed25519"
)

// signingBytes canonicalizes env with its "signing" member excluded,
// matching the invariant that signing is absent during signature
// computation.
func signingBytes(env *photonic.Envelope) ([]byte, error) {
	v, ok := env.ToValue().(map[string]any)
	if !ok {
		return nil, qlxerr.Encoding("signing.signingBytes", "envelope ToValue did not return a map")
	}
	bytes, err := canonjson.EncodeForSigning(v, "signing")
	if err != nil {
		return nil, qlxerr.Wrap(qlxerr.EncodingError, "signing.signingBytes", "canonicalize envelope", err)
	}
	return bytes, nil
}

// SignHMAC computes sig = HMAC-SHA256(key, canonical_bytes(envelope)) and
// attaches it as the envelope's signing block.
func SignHMAC(env *photonic.Envelope, key []byte, keyID string, now time.Time) error {
	data, err := signingBytes(env)
	if err != nil {
		return err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	sig := mac.Sum(nil)

	env.Signing = &photonic.SigningBlock{
		Alg:       AlgHMACSHA256,
		KeyID:     keyID,
		Nonce:     "",
		Timestamp: now.UTC().Format(time.RFC3339),
		Sig:       hex.EncodeToString(sig),
	}
	return nil
}

// SignEd25519 computes a detached Ed25519 signature over the envelope's
// canonical bytes and attaches it as the envelope's signing block.
func SignEd25519(env *photonic.Envelope, priv ed25519.PrivateKey, keyID string, now time.Time) error {
	data, err := signingBytes(env)
	if err != nil {
		return err
	}
	sig := ed25519.Sign(priv, data)

	env.Signing = &photonic.SigningBlock{
		Alg:       AlgEd25519,
		KeyID:     keyID,
		Nonce:     "",
		Timestamp: now.UTC().Format(time.RFC3339),
		Sig:       hex.EncodeToString(sig),
	}
	return nil
}

// Verify strips the signing block, recomputes the signature over the
// remainder, and compares. known is false when no signing block is present
// or its alg is not recognized — distinct from a recognized-but-failing
// verification (ok=false, known=true).
func Verify(env *photonic.Envelope, hmacKey []byte, pub ed25519.PublicKey) (ok bool, known bool, err error) {
	if env.Signing == nil {
		return false, false, nil
	}

	signing := env.Signing
	unsigned := &photonic.Envelope{
		Version:   env.Version,
		SessionID: env.SessionID,
		HFPHash:   env.HFPHash,
		BandCount: env.BandCount,
		Mode:      env.Mode,
		Apply:     env.Apply,
		Params:    env.Params,
		DAC:       env.DAC,
		Signing:   nil,
	}
	data, err := signingBytes(unsigned)
	if err != nil {
		return false, false, err
	}

	sigBytes, decErr := hex.DecodeString(signing.Sig)
	if decErr != nil {
		return false, false, qlxerr.Wrap(qlxerr.SignatureError, "signing.Verify", "decode sig hex", decErr)
	}

	switch signing.Alg {
	case AlgHMACSHA256:
		if hmacKey == nil {
			return false, true, qlxerr.Signature("signing.Verify", "HMAC verification requires a key")
		}
		mac := hmac.New(sha256.New, hmacKey)
		mac.Write(data)
		expected := mac.Sum(nil)
		return hmac.Equal(expected, sigBytes), true, nil
	case AlgEd25519:
		if pub == nil {
			return false, true, qlxerr.Signature("signing.Verify", "Ed25519 verification requires a public key")
		}
		return ed25519.Verify(pub, data, sigBytes), true, nil
	default:
		return false, false, nil
	}
}
