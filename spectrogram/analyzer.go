package spectrogram

import (
	"acoustic-listener/config"
)

const permutationOrder = 5

type Mode int

const (
	// Live analyzes a captured fragment or a single file against a template.
	Live Mode = iota
	// Template analyzes a reference recording while building a template.
	Template
)

func (m Mode) String() string {
	if m == Template {
		return "template"
	}
	return "live"
}

// Reference carries what the analyzer needs from a previously built template.
type Reference struct {
	SummedAmp float64
	Image     Image
	// Energy is the auto-correlation peak of Image.
	Energy float64
}

type Options struct {
	Mode      Mode
	Session   config.Session
	Band      config.Band
	Tolerance float64
	Adjust    float64
	// Reference is nil until a template is loaded.
	Reference *Reference
	// Correlate enables corr2auto, which needs a Reference with an image.
	Correlate bool
}

// OptionsFor builds analyzer options for mode from cfg.
func OptionsFor(cfg *config.Config, session config.Session, mode Mode) Options {
	tol := cfg.Contrast.LiveTolerance
	if mode == Template {
		tol = cfg.Contrast.TemplateTolerance
	}

	correlate := false
	for _, name := range cfg.Enabled {
		if name == string(Corr2Auto) {
			correlate = true
		}
	}

	return Options{
		Mode:      mode,
		Session:   session,
		Band:      cfg.CompareBand,
		Tolerance: tol,
		Adjust:    cfg.Contrast.Adjust,
		Correlate: correlate,
	}
}

// Analyze measures the spectrogram slice img. It never modifies img and
// returns the band-limited, contrast-processed slice next to the parameters.
// A slice without signal in the comparison band yields Sentinel and an
// unmodified copy of img.
func Analyze(img Image, opts Options) (ParameterSet, Image) {
	if len(img) == 0 || img.Rows() == 0 {
		return Sentinel(), img.Clone()
	}

	data := img.Floats()
	zeroOutsideBand(data, opts.Session, opts.Band)

	if isZero(data) {
		return Sentinel(), img.Clone()
	}

	processed := AutoContrast(data, opts.Tolerance, opts.Adjust)

	numRows := processed.Rows()
	numCols := len(processed)

	p := Sentinel()

	nonZero := make([]float64, numCols)
	var lowRows, highRows []float64
	coms := make([]int, numCols)
	defined := make([]bool, numCols)

	var total, rowMoment, colMoment float64
	for ci, col := range processed {
		low, high := -1, -1
		var colSum, colMoment1 float64
		for r, v := range col {
			if v == 0 {
				continue
			}
			nonZero[ci]++
			if high == -1 {
				high = r
			}
			low = r

			w := float64(v)
			colSum += w
			colMoment1 += w * float64(r)
			colMoment += w * float64(ci)
		}
		if low != -1 {
			lowRows = append(lowRows, float64(low))
			highRows = append(highRows, float64(high))
		}
		if colSum > 0 {
			coms[ci] = int(colMoment1 / colSum)
			defined[ci] = true
		}
		total += colSum
		rowMoment += colMoment1
	}

	fillUndefined(coms, defined)

	p.Duration = opts.Session.BlockDuration * float64(numCols)
	p.SummedAmp = total

	switch {
	case opts.Mode == Template:
		p.SummedAmpRatio = 1.0
	case opts.Reference != nil && opts.Reference.SummedAmp > 0:
		p.SummedAmpRatio = total / opts.Reference.SummedAmp
	}

	p.CoMInCol = coms

	if total > 0 {
		p.CenterOfMassX = float64(int(colMoment / total))
		p.CenterOfMassY = float64(int(rowMoment / total))
		p.CmxN = p.CenterOfMassX / float64(numCols)
		p.CmyN = 1.0 - p.CenterOfMassY/float64(numRows)
	}

	trace := make([]float64, len(coms))
	for i, c := range coms {
		trace[i] = float64(c)
	}
	p.PermEnt = PermutationEntropy(trace, permutationOrder)

	p.AvgNumDataInCol = mean(nonZero)

	if len(lowRows) > 0 {
		p.LowFreqRow = float64(int(mean(lowRows)))
		p.LowFreq = opts.Session.RowToKHz(p.LowFreqRow)
		p.HighFreqRow = float64(int(mean(highRows)))
		p.HighFreq = opts.Session.RowToKHz(p.HighFreqRow)
		p.DistLowRow2HighRow = p.LowFreqRow - p.HighFreqRow
	}

	if opts.Mode == Live && opts.Correlate && opts.Reference != nil &&
		len(opts.Reference.Image) > 0 && opts.Reference.Energy > 0 {
		r := CrossCorrelationPeak(processed, opts.Reference.Image) / opts.Reference.Energy
		// folded without a lower clamp; values past 2 come out negative
		if r > 1 {
			r = 1 - (r - 1)
		}
		p.Corr2Auto = r
	}

	return p, processed
}

// zeroOutsideBand clears rows whose frequency lies outside band.
func zeroOutsideBand(data [][]float64, session config.Session, band config.Band) {
	if len(data) == 0 || session.FreqResolution <= 0 {
		return
	}

	rows := len(data[0])
	cutHigh := clamp(rows-int(band.HighHz/session.FreqResolution), 0, rows)
	cutLow := clamp(rows-int(band.LowHz/session.FreqResolution), 0, rows)

	for _, col := range data {
		for r := 0; r < cutHigh; r++ {
			col[r] = 0
		}
		for r := cutLow; r < rows; r++ {
			col[r] = 0
		}
	}
}

// fillUndefined gives every column without signal the center of mass of the
// nearest later column with signal, or of the previous column when none
// follows.
func fillUndefined(coms []int, defined []bool) {
	for i := range coms {
		if defined[i] {
			continue
		}

		coms[i] = -1
		for j := i + 1; j < len(coms); j++ {
			if defined[j] {
				coms[i] = coms[j]
				break
			}
		}
		if coms[i] == -1 && i > 0 {
			coms[i] = coms[i-1]
		}
	}
}

func isZero(data [][]float64) bool {
	for _, col := range data {
		for _, v := range col {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return -1
	}
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
