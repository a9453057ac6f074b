package config

// ComparableParams names the parameters that take bounds, margins and may be
// enabled for comparison.
var ComparableParams = []string{
	"duration", "cmxN", "cmyN", "permEnt", "avgNumDataInCol", "lowFreq",
	"highFreq", "distLowRow2HighRow", "summedAmpRatio", "corr2auto",
}

// TraceParam is the center-of-mass trace. It takes a margin only.
const TraceParam = "cmInColList"

func isComparable(name string) bool {
	for _, p := range ComparableParams {
		if p == name {
			return true
		}
	}
	return false
}

// partialRange is a Range read from a file, where a missing side keeps the
// default.
type partialRange struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

type rangeOverrides struct {
	Margins           map[string]partialRange `yaml:"margins"`
	IndependentBounds map[string]partialRange `yaml:"independent_bounds"`
}

// mergeRanges lays overrides over a copy of base key by key and side by side.
func mergeRanges(base map[string]Range, overrides map[string]partialRange) map[string]Range {
	out := make(map[string]Range, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}

	for k, o := range overrides {
		r := out[k]
		if o.Min != nil {
			r.Min = *o.Min
		}
		if o.Max != nil {
			r.Max = *o.Max
		}
		out[k] = r
	}

	return out
}
