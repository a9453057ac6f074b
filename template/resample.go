package template

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Resample stretches x linearly to n points. The first and last points are
// kept and a resampling to the original length returns x unchanged.
func Resample(x []float64, n int) []float64 {
	out := make([]float64, n)

	switch {
	case n == 0 || len(x) == 0:
		return out
	case len(x) == 1:
		for i := range out {
			out[i] = x[0]
		}
		return out
	case n == 1:
		out[0] = x[0]
		return out
	case n == len(x):
		copy(out, x)
		return out
	}

	knots := floats.Span(make([]float64, len(x)), 0, 1)

	var pl interp.PiecewiseLinear
	if err := pl.Fit(knots, x); err != nil {
		// knots are strictly increasing, so Fit cannot fail
		panic(err)
	}

	for i, at := range floats.Span(make([]float64, n), 0, 1) {
		out[i] = pl.Predict(at)
	}

	return out
}
