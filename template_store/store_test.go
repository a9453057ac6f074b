package template_store

import (
	"testing"
	"time"

	"acoustic-listener/config"
	"acoustic-listener/spectrogram"
	"acoustic-listener/template"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T) Interface {
	t.Helper()

	s, err := New(&Config{InMemory: true, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore(t *testing.T) {
	t.Run("a stored template is returned unchanged", func(t *testing.T) {
		s := newStore(t)

		values := spectrogram.Sentinel()
		values.Duration = 0.5
		values.CoMInCol = []int{340, 341, 340}

		in := &template.Template{
			SampleRate: 44100,
			Sources:    []string{"a.wav", "b.wav"},
			Values:     values,
			Bounds: map[spectrogram.Param]config.Range{
				spectrogram.Duration: {Min: 0.25, Max: 1.5},
			},
			CoMTrace:    []float64{340, 341, 340},
			CoMTraceMin: []float64{339, 340, 339},
			CoMTraceMax: []float64{341, 342, 341},
			Image:       spectrogram.Image{{0, 255}, {20, 0}},
			Energy:      65425,
		}

		require.NoError(t, s.Put("k1", in))

		out, ok, err := s.Get("k1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, in, out)
	})

	t.Run("an unknown key is a miss, not an error", func(t *testing.T) {
		s := newStore(t)

		out, ok, err := s.Get("missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, out)
	})

	t.Run("a store needs a directory unless it is in memory", func(t *testing.T) {
		_, err := New(&Config{})
		assert.Error(t, err)
	})
}

func TestKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "a.wav", []byte("aaaa"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "b.wav", []byte("bbbb"), 0o644))

	t.Run("the same inputs give the same key", func(t *testing.T) {
		k1, err := Key(fs, []string{"a.wav", "b.wav"}, config.Default())
		require.NoError(t, err)
		k2, err := Key(fs, []string{"a.wav", "b.wav"}, config.Default())
		require.NoError(t, err)

		assert.Equal(t, k1, k2)
		assert.Len(t, k1, 64)
	})

	t.Run("file order and settings change the key", func(t *testing.T) {
		base, err := Key(fs, []string{"a.wav", "b.wav"}, config.Default())
		require.NoError(t, err)

		reordered, err := Key(fs, []string{"b.wav", "a.wav"}, config.Default())
		require.NoError(t, err)
		assert.NotEqual(t, base, reordered)

		settings := config.Default()
		settings.Margins["duration"] = config.Range{Min: 0, Max: 0}
		changed, err := Key(fs, []string{"a.wav", "b.wav"}, settings)
		require.NoError(t, err)
		assert.NotEqual(t, base, changed)
	})

	t.Run("a modified source changes the key", func(t *testing.T) {
		before, err := Key(fs, []string{"a.wav"}, config.Default())
		require.NoError(t, err)

		require.NoError(t, fs.Chtimes("a.wav", time.Now(), time.Now().Add(time.Hour)))

		after, err := Key(fs, []string{"a.wav"}, config.Default())
		require.NoError(t, err)
		assert.NotEqual(t, before, after)
	})

	t.Run("a missing source is an error", func(t *testing.T) {
		_, err := Key(fs, []string{"nope.wav"}, config.Default())
		assert.Error(t, err)
	})
}
