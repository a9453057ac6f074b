package spectrogram

import "fmt"

// Param names a ParameterSet field. The names match the keys used in
// configuration files and log lines.
type Param string

const (
	Duration           Param = "duration"
	SummedAmp          Param = "summedAmp"
	SummedAmpRatio     Param = "summedAmpRatio"
	CoMInCol           Param = "cmInColList"
	CenterOfMassX      Param = "centerOfMassX"
	CenterOfMassY      Param = "centerOfMassY"
	CmxN               Param = "cmxN"
	CmyN               Param = "cmyN"
	PermEnt            Param = "permEnt"
	AvgNumDataInCol    Param = "avgNumDataInCol"
	LowFreqRow         Param = "lowFreqRow"
	LowFreq            Param = "lowFreq"
	HighFreqRow        Param = "highFreqRow"
	HighFreq           Param = "highFreq"
	DistLowRow2HighRow Param = "distLowRow2HighRow"
	Corr2Auto          Param = "corr2auto"
)

// Scalars lists every scalar field in a stable order.
var Scalars = []Param{
	Duration, SummedAmp, SummedAmpRatio, CenterOfMassX, CenterOfMassY,
	CmxN, CmyN, PermEnt, AvgNumDataInCol, LowFreqRow, LowFreq,
	HighFreqRow, HighFreq, DistLowRow2HighRow, Corr2Auto,
}

// Comparable lists the scalars a template derives bounds for.
var Comparable = []Param{
	Duration, CmxN, CmyN, PermEnt, AvgNumDataInCol, LowFreq, HighFreq,
	DistLowRow2HighRow, SummedAmpRatio, Corr2Auto,
}

func ParseParam(s string) (Param, error) {
	for _, p := range Scalars {
		if string(p) == s {
			return p, nil
		}
	}
	if s == string(CoMInCol) {
		return CoMInCol, nil
	}
	return "", fmt.Errorf("unknown parameter %q", s)
}

func IsComparable(p Param) bool {
	for _, c := range Comparable {
		if c == p {
			return true
		}
	}
	return false
}

// ParameterSet describes the time-frequency shape of a spectrogram slice.
// Every scalar is -1 when it could not be computed.
type ParameterSet struct {
	Duration       float64
	SummedAmp      float64
	SummedAmpRatio float64

	// CoMInCol is the intensity-weighted center-of-mass row of every column.
	CoMInCol []int

	CenterOfMassX      float64
	CenterOfMassY      float64
	CmxN               float64
	CmyN               float64
	PermEnt            float64
	AvgNumDataInCol    float64
	LowFreqRow         float64
	LowFreq            float64
	HighFreqRow        float64
	HighFreq           float64
	DistLowRow2HighRow float64
	Corr2Auto          float64
}

// Sentinel is the result for a slice without any signal.
func Sentinel() ParameterSet {
	var p ParameterSet
	for _, name := range Scalars {
		p.Set(name, -1)
	}
	return p
}

// IsSentinel reports whether p carries no measurement.
func (p ParameterSet) IsSentinel() bool {
	return p.Duration == -1 && len(p.CoMInCol) == 0
}

func (p ParameterSet) Value(name Param) (float64, bool) {
	switch name {
	case Duration:
		return p.Duration, true
	case SummedAmp:
		return p.SummedAmp, true
	case SummedAmpRatio:
		return p.SummedAmpRatio, true
	case CenterOfMassX:
		return p.CenterOfMassX, true
	case CenterOfMassY:
		return p.CenterOfMassY, true
	case CmxN:
		return p.CmxN, true
	case CmyN:
		return p.CmyN, true
	case PermEnt:
		return p.PermEnt, true
	case AvgNumDataInCol:
		return p.AvgNumDataInCol, true
	case LowFreqRow:
		return p.LowFreqRow, true
	case LowFreq:
		return p.LowFreq, true
	case HighFreqRow:
		return p.HighFreqRow, true
	case HighFreq:
		return p.HighFreq, true
	case DistLowRow2HighRow:
		return p.DistLowRow2HighRow, true
	case Corr2Auto:
		return p.Corr2Auto, true
	}
	return 0, false
}

// Set assigns a scalar field. It is meant for building a ParameterSet, never
// for editing one that was handed out.
func (p *ParameterSet) Set(name Param, v float64) bool {
	switch name {
	case Duration:
		p.Duration = v
	case SummedAmp:
		p.SummedAmp = v
	case SummedAmpRatio:
		p.SummedAmpRatio = v
	case CenterOfMassX:
		p.CenterOfMassX = v
	case CenterOfMassY:
		p.CenterOfMassY = v
	case CmxN:
		p.CmxN = v
	case CmyN:
		p.CmyN = v
	case PermEnt:
		p.PermEnt = v
	case AvgNumDataInCol:
		p.AvgNumDataInCol = v
	case LowFreqRow:
		p.LowFreqRow = v
	case LowFreq:
		p.LowFreq = v
	case HighFreqRow:
		p.HighFreqRow = v
	case HighFreq:
		p.HighFreq = v
	case DistLowRow2HighRow:
		p.DistLowRow2HighRow = v
	case Corr2Auto:
		p.Corr2Auto = v
	default:
		return false
	}
	return true
}
