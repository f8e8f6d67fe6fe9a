// Package kdf derives symmetric keys bound to an HFP fingerprint using
// three independent KDFs, each salted from the fingerprint's first 16 raw
// bytes so a key can never be derived without the fingerprint that
// produced it.
package kdf

import (
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"

	"github.com/qlx-labs/hfp/pkg/constants"
	"github.com/qlx-labs/hfp/pkg/hfp"
	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

const hkdfInfo = "QLX-HFP-KDF"

// DeriveHKDF expands password into keyLen octets via HKDF-SHA512, salted
// from the fingerprint.
func DeriveHKDF(password []byte, fingerprintHex string, keyLen int) ([]byte, error) {
	salt, err := hfp.FingerprintSaltBytes(fingerprintHex)
	if err != nil {
		return nil, err
	}
	r := hkdf.New(sha512.New, password, salt, []byte(hkdfInfo))
	out := make([]byte, keyLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, qlxerr.Wrap(qlxerr.ResourceLimit, "kdf.DeriveHKDF", "expand", err)
	}
	return out, nil
}

// DeriveScrypt derives keyLen octets via scrypt, auto-halving n down to
// constants.MinScryptN when the runtime rejects the requested cost
// parameters (an over-large memory/CPU request), then surfacing a
// ResourceLimit error if even the floor fails.
func DeriveScrypt(password []byte, fingerprintHex string, keyLen, n, r, p int) ([]byte, error) {
	salt, err := hfp.FingerprintSaltBytes(fingerprintHex)
	if err != nil {
		return nil, err
	}

	for candidate := n; candidate >= constants.MinScryptN; candidate /= 2 {
		key, scryptErr := scrypt.Key(password, salt, candidate, r, p, keyLen)
		if scryptErr == nil {
			return key, nil
		}
		if candidate == constants.MinScryptN {
			return nil, qlxerr.Wrap(qlxerr.ResourceLimit, "kdf.DeriveScrypt",
				"scrypt rejected cost parameters even at floor N", scryptErr)
		}
	}
	return nil, qlxerr.Resource("kdf.DeriveScrypt", "no N from %d down to the floor %d was accepted", n, constants.MinScryptN)
}

// DeriveArgon2id derives keyLen octets via Argon2id with the given cost
// parameters. Defaults, if any, are the CLI boundary's responsibility, not
// this package's.
func DeriveArgon2id(password []byte, fingerprintHex string, keyLen, timeCost, memoryKiB, parallelism int) ([]byte, error) {
	salt, err := hfp.FingerprintSaltBytes(fingerprintHex)
	if err != nil {
		return nil, err
	}
	key := argon2.IDKey(password, salt, uint32(timeCost), uint32(memoryKiB), uint8(parallelism), uint32(keyLen))
	return key, nil
}
