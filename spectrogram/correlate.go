package spectrogram

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Energy is the sum of squared intensities, which is also the peak of the
// image's auto-correlation.
func Energy(img Image) float64 {
	var e float64
	for _, c := range img {
		for _, v := range c {
			e += float64(v) * float64(v)
		}
	}
	return e
}

// CrossCorrelationPeak returns the maximum of the full 2-D cross-correlation
// of a and b, computed in the frequency domain on zero padded copies.
func CrossCorrelationPeak(a, b Image) float64 {
	if len(a) == 0 || len(b) == 0 || a.Rows() == 0 || b.Rows() == 0 {
		return 0
	}

	rows := nextPow2(a.Rows() + b.Rows() - 1)
	cols := nextPow2(len(a) + len(b) - 1)

	fa := fft.FFT2Real(padded(a, rows, cols))
	fb := fft.FFT2Real(padded(b, rows, cols))

	for r := range fa {
		for c := range fa[r] {
			fa[r][c] *= cmplx.Conj(fb[r][c])
		}
	}

	corr := fft.IFFT2(fa)

	peak := real(corr[0][0])
	for r := range corr {
		for c := range corr[r] {
			if v := real(corr[r][c]); v > peak {
				peak = v
			}
		}
	}

	return peak
}

// padded lays img out row-major in a rows x cols zero matrix.
func padded(img Image, rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		m[r] = make([]float64, cols)
	}
	for c, col := range img {
		for r, v := range col {
			m[r][c] = float64(v)
		}
	}
	return m
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
