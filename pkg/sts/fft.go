package sts

import (
	"math"
	"math/cmplx"
)

// fftRadix2 runs an in-place iterative Cooley-Tukey FFT on a, whose length
// must be a power of two. invert selects the inverse transform (with 1/n
// scaling).
func fftRadix2(a []complex128, invert bool) {
	n := len(a)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		if invert {
			ang = -ang
		}
		wlen := cmplx.Rect(1, ang)
		half := length / 2
		for i := 0; i < n; i += length {
			w := complex(1.0, 0.0)
			for j := 0; j < half; j++ {
				u := a[i+j]
				v := a[i+j+half] * w
				a[i+j] = u + v
				a[i+j+half] = u - v
				w *= wlen
			}
		}
	}

	if invert {
		ninv := complex(1/float64(n), 0)
		for i := range a {
			a[i] *= ninv
		}
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// dft computes the discrete Fourier transform of x for an arbitrary
// (non-power-of-two) length via Bluestein's chirp-z algorithm, reducing the
// problem to a convolution computed with fftRadix2. The DFT spectral test
// only needs bin magnitudes, so the forward/inverse sign convention here is
// arbitrary as long as it's applied consistently.
func dft(x []complex128) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []complex128{x[0]}
	}

	m := nextPow2(2*n - 1)
	chirp := make([]complex128, n)
	aPad := make([]complex128, m)
	bPad := make([]complex128, m)

	for k := 0; k < n; k++ {
		ang := -math.Pi * float64(k) * float64(k) / float64(n)
		chirp[k] = cmplx.Rect(1, ang)
		aPad[k] = x[k] * chirp[k]
	}
	bPad[0] = cmplx.Conj(chirp[0])
	for k := 1; k < n; k++ {
		c := cmplx.Conj(chirp[k])
		bPad[k] = c
		bPad[m-k] = c
	}

	fftRadix2(aPad, false)
	fftRadix2(bPad, false)
	for i := range aPad {
		aPad[i] *= bPad[i]
	}
	fftRadix2(aPad, true)

	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		out[k] = aPad[k] * chirp[k]
	}
	return out
}
