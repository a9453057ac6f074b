package template

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

var (
	ErrFileFormat    = errors.New("unsupported file format")
	ErrNoUsableFiles = errors.New("no usable template files")
)

// FileError reports a template source that was skipped.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Audio is decoded mono 16-bit PCM.
type Audio struct {
	SampleRate int
	Samples    []int16
}

// Decode reads a 16-bit PCM WAV file and downmixes it to mono by averaging
// the channels.
func Decode(fs afero.Fs, path string) (*Audio, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, &FileError{Path: path, Err: fmt.Errorf("%w: not a PCM WAV file", ErrFileFormat)}
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	if buf.SourceBitDepth != 16 {
		return nil, &FileError{Path: path, Err: fmt.Errorf("%w: %d-bit samples", ErrFileFormat, buf.SourceBitDepth)}
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, &FileError{Path: path, Err: fmt.Errorf("%w: no channels", ErrFileFormat)}
	}

	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		samples[i] = int16(sum / channels)
	}

	return &Audio{
		SampleRate: buf.Format.SampleRate,
		Samples:    samples,
	}, nil
}

// ListFolder returns the WAV files directly inside dir, sorted by name.
func ListFolder(fs afero.Fs, dir string) ([]string, error) {
	var paths []string

	for _, pattern := range []string{"*.wav", "*.WAV"} {
		matches, err := afero.Glob(fs, filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}

	sort.Strings(paths)

	// case-insensitive filesystems match both patterns
	unique := paths[:0]
	for i, p := range paths {
		if i == 0 || p != paths[i-1] {
			unique = append(unique, p)
		}
	}

	return unique, nil
}
