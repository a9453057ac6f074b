package recorder

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"acoustic-listener/logging"

	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
	"go.uber.org/zap"
)

var ErrEmpty = errors.New("nothing to record")

type recorderImpl struct {
	fileSys afero.Fs
	dir     string
	logger  *zap.Logger
}

type Config struct {
	FileSys afero.Fs
	Dir     string
	Logger  *zap.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	return &recorderImpl{
		fileSys: cfg.FileSys,
		dir:     cfg.Dir,
		logger:  logging.OrNop(cfg.Logger),
	}, nil
}

// FileName is the name a recording made at t is stored under.
func FileName(t time.Time) string {
	return fmt.Sprintf("rec_%s_%06d.wav", t.Format(logging.TimestampLayout), t.Nanosecond()/1000)
}

func (r *recorderImpl) Write(blocks [][]int16, sampleRate int, at time.Time) (string, error) {
	var samples []int16
	for _, b := range blocks {
		samples = append(samples, b...)
	}

	if len(samples) == 0 {
		return "", ErrEmpty
	}

	if r.dir != "" {
		if err := r.fileSys.MkdirAll(r.dir, 0o755); err != nil {
			return "", fmt.Errorf("create recordings dir: %w", err)
		}
	}

	waveFilename := filepath.Join(r.dir, FileName(at))

	waveFile, err := r.fileSys.Create(waveFilename)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", waveFilename, err)
	}

	param := wave.WriterParam{
		Out:           waveFile,
		Channel:       1,
		SampleRate:    sampleRate,
		BitsPerSample: 16,
	}

	waveWriter, err := wave.NewWriter(param)
	if err != nil {
		_ = waveFile.Close()
		return "", fmt.Errorf("start %s: %w", waveFilename, err)
	}

	_, err = waveWriter.WriteSample16(samples)
	if err != nil {
		_ = waveWriter.Close()
		return "", fmt.Errorf("write %s: %w", waveFilename, err)
	}

	// closing the writer finalizes the header and closes the file
	err = waveWriter.Close()
	if err != nil {
		return "", fmt.Errorf("close %s: %w", waveFilename, err)
	}

	r.logger.Info("Saved sound fragment.", zap.String("path", waveFilename), zap.Int("samples", len(samples)))

	return waveFilename, nil
}
