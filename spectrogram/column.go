package spectrogram

import (
	"math"
	"math/cmplx"

	"acoustic-listener/config"

	"github.com/mjibson/go-dsp/fft"
)

const shortNormalize = 1.0 / 32768

// Column is one block's magnitude spectrum scaled to 0-255. Index 0 holds the
// highest frequency bin, the last index the bin next to DC.
type Column []uint8

// Image is a spectrogram stored column by column.
type Image []Column

// Rows returns the number of frequency rows, 0 for an empty image.
func (img Image) Rows() int {
	if len(img) == 0 {
		return 0
	}
	return len(img[0])
}

// Clone copies img including its columns.
func (img Image) Clone() Image {
	out := make(Image, len(img))
	for i, c := range img {
		out[i] = append(Column(nil), c...)
	}
	return out
}

// Floats converts img into a float matrix with the same layout.
func (img Image) Floats() [][]float64 {
	out := make([][]float64, len(img))
	for i, c := range img {
		col := make([]float64, len(c))
		for r, v := range c {
			col[r] = float64(v)
		}
		out[i] = col
	}
	return out
}

// RMS returns the root-mean-square amplitude of samples normalized to [-1, 1].
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sumSquares float64
	for _, s := range samples {
		n := float64(s) * shortNormalize
		sumSquares += n * n
	}

	return math.Sqrt(sumSquares / float64(len(samples)))
}

// NewColumn computes the spectrogram column of one block. Blocks shorter than
// frames are zero padded.
func NewColumn(samples []int16, frames int) Column {
	x := make([]float64, frames)
	for i := 0; i < len(samples) && i < frames; i++ {
		x[i] = float64(samples[i]) * shortNormalize
	}

	spectrum := fft.FFTReal(x)

	half := frames / 2
	mags := make([]float64, half)

	var maxVal float64
	for i := 0; i < half; i++ {
		mags[i] = cmplx.Abs(spectrum[i])
		if mags[i] > maxVal {
			maxVal = mags[i]
		}
	}

	scale := 255.0
	if maxVal > 1 {
		scale /= maxVal
	}

	col := make(Column, half)
	for i, m := range mags {
		col[half-1-i] = uint8(m * scale)
	}

	return col
}

// FromSamples chunks mono samples into blocks of the session's frame count and
// returns their spectrogram.
func FromSamples(samples []int16, session config.Session) Image {
	frames := session.FramesPerBlock
	if frames <= 0 || len(samples) == 0 {
		return Image{}
	}

	cols := int(math.Round(float64(len(samples)) / float64(frames)))

	img := make(Image, 0, cols)
	for ci := 0; ci < cols; ci++ {
		off := ci * frames
		end := off + frames
		if end > len(samples) {
			end = len(samples)
		}
		img = append(img, NewColumn(samples[off:end], frames))
	}

	return img
}
