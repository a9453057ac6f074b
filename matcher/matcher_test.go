package matcher

import (
	"testing"

	"acoustic-listener/config"
	"acoustic-listener/spectrogram"
	"acoustic-listener/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDuration(v float64) spectrogram.ParameterSet {
	p := spectrogram.Sentinel()
	p.Duration = v
	return p
}

func TestCompare(t *testing.T) {
	enabled := []spectrogram.Param{spectrogram.Duration}
	table := Table{spectrogram.Duration: {Min: "5", Max: "10"}}

	for _, tc := range []struct {
		name    string
		value   float64
		verdict Verdict
	}{
		{"a value inside the bounds passes", 7, Matched},
		{"a value above the maximum fails", 11, Unmatched},
		{"a value below the minimum fails", 4.999, Unmatched},
		{"the minimum itself passes", 5, Matched},
		{"the maximum itself passes", 10, Matched},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Compare(withDuration(tc.value), table, enabled)
			require.NoError(t, err)

			assert.Equal(t, tc.verdict, res.Verdict)
			require.Len(t, res.Checks, 1)
			assert.Equal(t, tc.verdict == Matched, res.Checks[0].Pass)
		})
	}

	t.Run("both bounds blank always pass", func(t *testing.T) {
		res, err := Compare(withDuration(1e9), Table{spectrogram.Duration: {Min: " ", Max: ""}}, enabled)
		require.NoError(t, err)

		assert.Equal(t, Matched, res.Verdict)
		assert.True(t, res.Checks[0].Skipped)
	})

	t.Run("one blank side leaves the range open", func(t *testing.T) {
		res, err := Compare(withDuration(1e9), Table{spectrogram.Duration: {Min: "5"}}, enabled)
		require.NoError(t, err)
		assert.Equal(t, Matched, res.Verdict)

		res, err = Compare(withDuration(-1e9), Table{spectrogram.Duration: {Min: "5"}}, enabled)
		require.NoError(t, err)
		assert.Equal(t, Unmatched, res.Verdict)
	})

	t.Run("a parameter without bounds counts as blank", func(t *testing.T) {
		res, err := Compare(withDuration(3), Table{}, enabled)
		require.NoError(t, err)
		assert.Equal(t, Matched, res.Verdict)
	})

	t.Run("every enabled parameter must pass", func(t *testing.T) {
		p := withDuration(7)
		p.LowFreq = 3

		res, err := Compare(p, Table{
			spectrogram.Duration: {Min: "5", Max: "10"},
			spectrogram.LowFreq:  {Min: "4", Max: "6"},
		}, []spectrogram.Param{spectrogram.Duration, spectrogram.LowFreq})
		require.NoError(t, err)

		assert.Equal(t, Unmatched, res.Verdict)
		assert.Equal(t, []spectrogram.Param{spectrogram.LowFreq}, res.Failed())
	})

	t.Run("disabled parameters are ignored", func(t *testing.T) {
		p := withDuration(7)
		p.LowFreq = 3

		res, err := Compare(p, Table{
			spectrogram.Duration: {Min: "5", Max: "10"},
			spectrogram.LowFreq:  {Min: "4", Max: "6"},
		}, enabled)
		require.NoError(t, err)

		assert.Equal(t, Matched, res.Verdict)
	})

	t.Run("an unparsable bound aborts the comparison", func(t *testing.T) {
		_, err := Compare(withDuration(7), Table{spectrogram.Duration: {Min: "5", Max: "ten"}}, enabled)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, ErrBoundParse)
		assert.Equal(t, spectrogram.Duration, parseErr.Param)
		assert.Equal(t, "max", parseErr.Side)
		assert.Equal(t, "ten", parseErr.Text)
	})

	t.Run("an unparsable bound is reported even when the other side fails", func(t *testing.T) {
		_, err := Compare(withDuration(1), Table{spectrogram.Duration: {Min: "5", Max: "x"}}, enabled)
		assert.ErrorIs(t, err, ErrBoundParse)
	})

	t.Run("a NaN bound aborts the comparison instead of passing", func(t *testing.T) {
		res, err := Compare(withDuration(99), Table{spectrogram.Duration: {Min: "NaN", Max: "NaN"}}, enabled)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, ErrBoundParse)
		assert.Equal(t, "min", parseErr.Side)
		assert.NotEqual(t, Matched, res.Verdict)
	})

	t.Run("without a table the verdict is not applicable", func(t *testing.T) {
		res, err := Compare(withDuration(7), nil, enabled)
		require.NoError(t, err)
		assert.Equal(t, NotApplicable, res.Verdict)
	})
}

func TestTableFrom(t *testing.T) {
	t.Run("bounds survive the round trip through text", func(t *testing.T) {
		tmpl := &template.Template{
			Bounds: map[spectrogram.Param]config.Range{
				spectrogram.Duration: {Min: 0.1 + 0.2, Max: 1.0 / 3},
			},
		}

		table := TableFrom(tmpl)

		p := withDuration(0.1 + 0.2)
		res, err := Compare(p, table, []spectrogram.Param{spectrogram.Duration})
		require.NoError(t, err)
		assert.Equal(t, Matched, res.Verdict)

		p.Duration = 1.0 / 3
		res, err = Compare(p, table, []spectrogram.Param{spectrogram.Duration})
		require.NoError(t, err)
		assert.Equal(t, Matched, res.Verdict)
	})
}

func TestEnabled(t *testing.T) {
	t.Run("configured names become parameters", func(t *testing.T) {
		params, err := Enabled([]string{"duration", "corr2auto"})
		require.NoError(t, err)
		assert.Equal(t, []spectrogram.Param{spectrogram.Duration, spectrogram.Corr2Auto}, params)
	})

	t.Run("unknown and non-comparable names are rejected", func(t *testing.T) {
		_, err := Enabled([]string{"loudness"})
		assert.Error(t, err)

		_, err = Enabled([]string{"summedAmp"})
		assert.Error(t, err)
	})
}

func TestResultString(t *testing.T) {
	t.Run("failed parameters are marked", func(t *testing.T) {
		res := Result{
			Verdict: Unmatched,
			Checks: []Check{
				{Param: spectrogram.Duration, Bound: Bound{Min: "5", Max: "10"}, Value: 11},
			},
		}

		assert.Equal(t, "Comparison result: NOT MATCHED/ [NOT] duration (5 <= 11 <= 10)", res.String())
	})
}
