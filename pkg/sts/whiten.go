package sts

import (
	"crypto/sha512"
	"encoding/binary"
	"math/rand"

	"github.com/qlx-labs/hfp/pkg/constants"
	"github.com/qlx-labs/hfp/pkg/qlxerr"
)

// WhitenMode selects a bit-stream whitening front-end.
type WhitenMode string

const (
	WhitenNone       WhitenMode = "none"
	WhitenVonNeumann WhitenMode = "vn"
	WhitenSHA512     WhitenMode = "sha512"
)

// Threshold converts a real-valued stream to 0/1 octets by sign, `1` where
// x > thresh.
func Threshold(x []float64, thresh float64) []byte {
	out := make([]byte, len(x))
	for i, v := range x {
		if v > thresh {
			out[i] = 1
		}
	}
	return out
}

// Whiten applies the named front-end to a thresholded bit sequence.
func Whiten(bits []byte, mode WhitenMode) ([]byte, error) {
	switch mode {
	case WhitenNone:
		return bits, nil
	case WhitenVonNeumann:
		return vonNeumann(bits), nil
	case WhitenSHA512:
		return sha512Whiten(bits), nil
	default:
		return nil, qlxerr.Input("sts.Whiten", "unknown whitening mode %q", mode)
	}
}

// vonNeumann extracts one bit per non-overlapping pair: (1,0) -> 1, (0,1)
// -> 0, (0,0)/(1,1) dropped. The survivors are then shuffled with a fixed
// seed so the post-whitening sequence is reproducible.
func vonNeumann(bits []byte) []byte {
	pairs := len(bits) / 2
	var ones, zeros int
	for i := 0; i < pairs; i++ {
		even, odd := bits[2*i], bits[2*i+1]
		switch {
		case even == 1 && odd == 0:
			ones++
		case even == 0 && odd == 1:
			zeros++
		}
	}

	out := make([]byte, ones+zeros)
	for i := 0; i < ones; i++ {
		out[i] = 1
	}
	if len(out) == 0 {
		return out
	}

	rng := rand.New(rand.NewSource(constants.VNShuffleSeed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// sha512Whiten consumes 4096-bit input blocks (the final block may be
// shorter), packs each to big-endian-bit-ordered octets, prepends an
// 8-byte big-endian block counter starting at 0, SHA-512 hashes, and
// unpacks the 512-bit digest back to bits, concatenating across blocks.
func sha512Whiten(bits []byte) []byte {
	const chunkIn = 4096
	var out []byte
	var counter uint64

	for i := 0; i < len(bits); i += chunkIn {
		end := i + chunkIn
		if end > len(bits) {
			end = len(bits)
		}
		chunk := bits[i:end]
		if len(chunk) == 0 {
			break
		}

		packed := packBitsBig(chunk)
		var counterBytes [8]byte
		binary.BigEndian.PutUint64(counterBytes[:], counter)

		h := sha512.New()
		h.Write(counterBytes[:])
		h.Write(packed)
		digest := h.Sum(nil)

		out = append(out, unpackBitsBig(digest)...)
		counter++
	}
	return out
}

// packBitsBig packs a 0/1 octet slice into bytes, most-significant-bit
// first, zero-padding an incomplete final byte.
func packBitsBig(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(7-(i%8))
		}
	}
	return out
}

// unpackBitsBig expands bytes into a 0/1 octet slice, most-significant-bit
// first.
func unpackBitsBig(data []byte) []byte {
	out := make([]byte, len(data)*8)
	for i, by := range data {
		for bit := 0; bit < 8; bit++ {
			if by&(1<<uint(7-bit)) != 0 {
				out[i*8+bit] = 1
			}
		}
	}
	return out
}
