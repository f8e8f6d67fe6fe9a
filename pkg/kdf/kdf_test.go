package kdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/qlx-labs/hfp/pkg/constants"
	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

const testFP = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f9"

func TestDeriveHKDFLengthAndDeterminism(t *testing.T) {
	a, err := DeriveHKDF([]byte("pw"), testFP, 32)
	if err != nil {
		t.Fatalf("DeriveHKDF: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a))
	}
	b, err := DeriveHKDF([]byte("pw"), testFP, 32)
	if err != nil {
		t.Fatalf("DeriveHKDF: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("expected deterministic output for same inputs")
	}
}

func TestDeriveScryptLengthAndDeterminism(t *testing.T) {
	a, err := DeriveScrypt([]byte("pw"), testFP, 32, constants.DefaultScryptN, constants.DefaultScryptR, constants.DefaultScryptP)
	if err != nil {
		t.Fatalf("DeriveScrypt: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a))
	}
	b, err := DeriveScrypt([]byte("pw"), testFP, 32, constants.DefaultScryptN, constants.DefaultScryptR, constants.DefaultScryptP)
	if err != nil {
		t.Fatalf("DeriveScrypt: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("expected deterministic output for same inputs")
	}
}

func TestDeriveArgon2idLengthAndDeterminism(t *testing.T) {
	a, err := DeriveArgon2id([]byte("pw"), testFP, 32, constants.DefaultArgon2TimeCost, constants.DefaultArgon2MemoryKiB, constants.DefaultArgon2Parallelism)
	if err != nil {
		t.Fatalf("DeriveArgon2id: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a))
	}
	b, err := DeriveArgon2id([]byte("pw"), testFP, 32, constants.DefaultArgon2TimeCost, constants.DefaultArgon2MemoryKiB, constants.DefaultArgon2Parallelism)
	if err != nil {
		t.Fatalf("DeriveArgon2id: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("expected deterministic output for same inputs")
	}
}

func TestKDFsProduceDistinctKeys(t *testing.T) {
	h, err := DeriveHKDF([]byte("pw"), testFP, 32)
	if err != nil {
		t.Fatalf("DeriveHKDF: %v", err)
	}
	s, err := DeriveScrypt([]byte("pw"), testFP, 32, constants.DefaultScryptN, constants.DefaultScryptR, constants.DefaultScryptP)
	if err != nil {
		t.Fatalf("DeriveScrypt: %v", err)
	}
	a, err := DeriveArgon2id([]byte("pw"), testFP, 32, constants.DefaultArgon2TimeCost, constants.DefaultArgon2MemoryKiB, constants.DefaultArgon2Parallelism)
	if err != nil {
		t.Fatalf("DeriveArgon2id: %v", err)
	}
	if bytes.Equal(h, s) || bytes.Equal(h, a) || bytes.Equal(s, a) {
		t.Error("expected the three KDFs to produce distinct keys for the same password/fingerprint")
	}
}

func TestDeriveScryptBelowFloorReturnsResourceLimit(t *testing.T) {
	_, err := DeriveScrypt([]byte("pw"), testFP, 32, 100, 8, 1)
	if err == nil {
		t.Error("expected an error when n starts below the scrypt cost floor")
	}
	if !errors.Is(err, qlxerr.New(qlxerr.ResourceLimit, "", "")) {
		t.Errorf("expected a ResourceLimit error, got %v", err)
	}
}
