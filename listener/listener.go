package listener

import (
	"errors"
	"fmt"
	"sync"

	"acoustic-listener/config"
	"acoustic-listener/logging"
	"acoustic-listener/ring_buffer"
	"acoustic-listener/spectrogram"

	"go.uber.org/zap"
)

var (
	ErrStreamIO        = errors.New("stream read failed")
	ErrInputOverflowed = errors.New("input overflowed")
)

type captureImpl struct {
	source  Source
	session config.Session
	logger  *zap.Logger

	buffer     *ring_buffer.Spectrogram
	amplitudes *ring_buffer.AmplitudeTrace
	mailbox    *Mailbox

	startOnce sync.Once
	stopOnce  sync.Once
	quit      chan struct{}
	done      chan struct{}
	err       error
}

type Config struct {
	Source  Source
	Session config.Session
	// Width is the number of columns in the sliding spectrogram.
	Width int
	// MonitorColumns is the length of the amplitude trace.
	MonitorColumns int
	Logger         *zap.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if cfg.Session.FramesPerBlock < 2 {
		return nil, fmt.Errorf("session has %d frames per block", cfg.Session.FramesPerBlock)
	}

	if cfg.Width < 1 || cfg.MonitorColumns < 1 {
		return nil, fmt.Errorf("width and monitor columns must be positive")
	}

	return &captureImpl{
		source:     cfg.Source,
		session:    cfg.Session,
		logger:     logging.OrNop(cfg.Logger),
		buffer:     ring_buffer.NewSpectrogram(cfg.Width),
		amplitudes: ring_buffer.NewAmplitudeTrace(cfg.MonitorColumns),
		mailbox:    NewMailbox(),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

func (c *captureImpl) Start() {
	c.startOnce.Do(func() {
		c.logger.Info("Starting capture.",
			zap.Int("sampleRate", c.session.SampleRate),
			zap.Int("framesPerBlock", c.session.FramesPerBlock))

		go c.run()
	})
}

func (c *captureImpl) Stop() {
	// a loop that never started still owns its source
	c.startOnce.Do(func() {
		if err := c.source.Close(); err != nil {
			c.logger.Warn("Error while closing stream.", zap.Error(err))
		}
		close(c.done)
	})

	c.stopOnce.Do(func() {
		close(c.quit)
	})

	<-c.done
}

func (c *captureImpl) Latest() (Snapshot, bool) {
	return c.mailbox.Take()
}

func (c *captureImpl) Done() <-chan struct{} {
	return c.done
}

func (c *captureImpl) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *captureImpl) run() {
	defer close(c.done)

	defer func() {
		if err := c.source.Close(); err != nil {
			c.logger.Warn("Error while closing stream.", zap.Error(err))
		}
		c.logger.Info("Capture stopped.")
	}()

	frames := c.session.FramesPerBlock

	for tick := uint64(1); ; tick++ {
		select {
		case <-c.quit:
			return
		default:
		}

		block := make([]int16, frames)

		err := c.source.Read(block)
		if errors.Is(err, ErrInputOverflowed) {
			c.logger.Warn("Input overflowed.", zap.Uint64("tick", tick))
		} else if err != nil {
			c.err = fmt.Errorf("%w: %v", ErrStreamIO, err)
			c.logger.Error("Error while reading stream.", zap.Error(err))
			return
		}

		c.buffer.Append(spectrogram.NewColumn(block, frames), block)
		c.amplitudes.Add(spectrogram.RMS(block))

		columns, blocks := c.buffer.Read()

		c.mailbox.Put(Snapshot{
			Tick:       tick,
			Scrolls:    c.buffer.Scrolls(),
			Cursor:     c.buffer.Cursor(),
			Columns:    columns,
			Blocks:     blocks,
			Amplitudes: c.amplitudes.Read(),
		})
	}
}
