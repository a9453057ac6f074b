package matcher

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"acoustic-listener/spectrogram"
	"acoustic-listener/template"
)

var ErrBoundParse = errors.New("bound is not a number")

// ParseError reports a bound whose text is not a number. The comparison it
// belongs to must be discarded.
type ParseError struct {
	Param spectrogram.Param
	// Side is "min" or "max".
	Side string
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s bound %q: %v", e.Param, e.Side, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Bound is an inclusive range as entered by the user. A blank side is open.
type Bound struct {
	Min string
	Max string
}

func (b Bound) IsBlank() bool {
	return strings.TrimSpace(b.Min) == "" && strings.TrimSpace(b.Max) == ""
}

// Table holds the editable bounds of every comparable parameter.
type Table map[spectrogram.Param]Bound

// TableFrom renders the bounds of t as text that parses back to the same
// values.
func TableFrom(t *template.Template) Table {
	table := make(Table, len(t.Bounds))
	for name, r := range t.Bounds {
		table[name] = Bound{
			Min: strconv.FormatFloat(r.Min, 'g', -1, 64),
			Max: strconv.FormatFloat(r.Max, 'g', -1, 64),
		}
	}
	return table
}

// Clone returns a copy of t that can be edited independently.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Enabled converts configured parameter names into comparable parameters.
func Enabled(names []string) ([]spectrogram.Param, error) {
	params := make([]spectrogram.Param, 0, len(names))
	for _, name := range names {
		p, err := spectrogram.ParseParam(name)
		if err != nil {
			return nil, err
		}
		if !spectrogram.IsComparable(p) {
			return nil, fmt.Errorf("parameter %q cannot be compared", name)
		}
		params = append(params, p)
	}
	return params, nil
}

type Verdict int

const (
	Unmatched Verdict = iota
	Matched
	// NotApplicable means there was no template to compare against.
	NotApplicable
)

func (v Verdict) String() string {
	switch v {
	case Matched:
		return "MATCHED"
	case NotApplicable:
		return "N/A"
	default:
		return "NOT MATCHED"
	}
}

// Check is the comparison of one parameter.
type Check struct {
	Param spectrogram.Param
	Bound Bound
	Value float64
	// Skipped is set when both bounds are blank.
	Skipped bool
	Pass    bool
}

type Result struct {
	Verdict Verdict
	Checks  []Check
}

// Failed returns the parameters that were compared and did not pass.
func (r Result) Failed() []spectrogram.Param {
	var out []spectrogram.Param
	for _, c := range r.Checks {
		if !c.Skipped && !c.Pass {
			out = append(out, c.Param)
		}
	}
	return out
}

// String renders the diagnostic as one log line.
func (r Result) String() string {
	var sb strings.Builder

	sb.WriteString("Comparison result: ")
	sb.WriteString(r.Verdict.String())

	for _, c := range r.Checks {
		sb.WriteString("/ ")
		switch {
		case c.Skipped:
			sb.WriteString("[SKIP] ")
		case !c.Pass:
			sb.WriteString("[NOT] ")
		}
		fmt.Fprintf(&sb, "%s (%s <= %g <= %s)", c.Param, orBlank(c.Bound.Min), c.Value, orBlank(c.Bound.Max))
	}

	return sb.String()
}

func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return "_"
	}
	return s
}

// Compare checks every enabled parameter of params against its bound in
// table. A nil table yields NotApplicable. A bound that does not parse
// aborts the comparison with a *ParseError.
func Compare(params spectrogram.ParameterSet, table Table, enabled []spectrogram.Param) (Result, error) {
	if table == nil {
		return Result{Verdict: NotApplicable}, nil
	}

	result := Result{Verdict: Matched}

	for _, name := range enabled {
		value, ok := params.Value(name)
		if !ok {
			continue
		}

		bound := table[name]
		check := Check{Param: name, Bound: bound, Value: value}

		if bound.IsBlank() {
			check.Skipped = true
			check.Pass = true
			result.Checks = append(result.Checks, check)
			continue
		}

		pass, err := inRange(name, bound, value)
		if err != nil {
			return Result{}, err
		}

		check.Pass = pass
		if !pass {
			result.Verdict = Unmatched
		}

		result.Checks = append(result.Checks, check)
	}

	return result, nil
}

func inRange(name spectrogram.Param, bound Bound, value float64) (bool, error) {
	lo, hasLo, err := parseBound(name, "min", bound.Min)
	if err != nil {
		return false, err
	}

	hi, hasHi, err := parseBound(name, "max", bound.Max)
	if err != nil {
		return false, err
	}

	if hasLo && value < lo {
		return false, nil
	}
	if hasHi && value > hi {
		return false, nil
	}

	return true, nil
}

func parseBound(name spectrogram.Param, side, text string) (float64, bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false, &ParseError{Param: name, Side: side, Text: text, Err: ErrBoundParse}
	}

	return v, true, nil
}
