package recorder

import (
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRecorder_Write(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC)

	t.Run("written blocks read back as identical samples", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		rec, err := New(&Config{FileSys: fs, Dir: "recordings", Logger: zaptest.NewLogger(t)})
		require.NoError(t, err)

		blocks := [][]int16{{0, 1, -1, 32767}, {-32768, 1234, -4321, 7}}

		path, err := rec.Write(blocks, 44100, at)
		require.NoError(t, err)
		assert.Equal(t, "recordings/rec_2024_03_09_14_05_07_123456.wav", path)

		f, err := fs.Open(path)
		require.NoError(t, err)
		defer f.Close()

		decoder := wav.NewDecoder(f)
		require.True(t, decoder.IsValidFile())

		buf, err := decoder.FullPCMBuffer()
		require.NoError(t, err)

		assert.Equal(t, 44100, buf.Format.SampleRate)
		assert.Equal(t, 1, buf.Format.NumChannels)
		assert.Equal(t, 16, buf.SourceBitDepth)
		assert.Equal(t, []int{0, 1, -1, 32767, -32768, 1234, -4321, 7}, buf.Data)
	})

	t.Run("an empty fragment is not written", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		rec, err := New(&Config{FileSys: fs, Dir: "recordings"})
		require.NoError(t, err)

		_, err = rec.Write([][]int16{{}, nil}, 44100, at)
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("a missing filesystem is rejected", func(t *testing.T) {
		_, err := New(&Config{Dir: "recordings"})
		assert.Error(t, err)
	})
}
