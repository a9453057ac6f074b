package spectrogram

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const maxLiIterations = 1000

// LiThreshold finds a threshold with Li's iterative minimum cross entropy
// method. Iteration stops once the threshold moves by no more than tolerance.
func LiThreshold(values []float64, tolerance float64) float64 {
	if len(values) == 0 {
		return 0
	}

	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return lo
	}

	// work on values shifted to a zero minimum so the logs stay finite
	tNext := floats.Sum(values)/float64(len(values)) - lo
	tCurr := -2 * tolerance

	for i := 0; i < maxLiIterations && math.Abs(tNext-tCurr) > tolerance; i++ {
		tCurr = tNext

		var foreSum, backSum float64
		var foreN, backN int
		for _, v := range values {
			x := v - lo
			if x > tCurr {
				foreSum += x
				foreN++
			} else {
				backSum += x
				backN++
			}
		}
		if foreN == 0 || backN == 0 {
			break
		}

		meanFore := foreSum / float64(foreN)
		meanBack := backSum / float64(backN)
		if meanBack == 0 {
			break
		}

		tNext = (meanBack - meanFore) / (math.Log(meanBack) - math.Log(meanFore))
	}

	return tNext + lo
}

// AutoContrast pushes values above the Li threshold up by adj and the rest
// down by adj, clips at 0 and rescales into 0-255. An all-zero input is
// returned unchanged.
func AutoContrast(cols [][]float64, tolerance, adj float64) Image {
	flat := make([]float64, 0, len(cols)*rowsOf(cols))
	for _, c := range cols {
		flat = append(flat, c...)
	}

	out := make(Image, len(cols))

	if len(flat) == 0 || floats.Sum(flat) == 0 {
		for i, c := range cols {
			out[i] = toColumn(c, 1)
		}
		return out
	}

	thr := LiThreshold(flat, tolerance)

	adjusted := make([][]float64, len(cols))
	var maxVal float64
	for i, c := range cols {
		a := make([]float64, len(c))
		for r, v := range c {
			if v <= thr {
				v -= adj
			} else {
				v += adj
			}
			if v < 0 {
				v = 0
			}
			if v > maxVal {
				maxVal = v
			}
			a[r] = v
		}
		adjusted[i] = a
	}

	scale := 1.0
	if maxVal > 255 {
		scale = 255.0 / maxVal
	}

	for i, a := range adjusted {
		out[i] = toColumn(a, scale)
	}

	return out
}

func toColumn(values []float64, scale float64) Column {
	col := make(Column, len(values))
	for r, v := range values {
		col[r] = uint8(v * scale)
	}
	return col
}

func rowsOf(cols [][]float64) int {
	if len(cols) == 0 {
		return 0
	}
	return len(cols[0])
}
