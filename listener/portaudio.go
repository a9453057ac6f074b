package listener

import (
	"errors"
	"fmt"

	"acoustic-listener/config"

	"github.com/gordonklaus/portaudio"
)

// Initialize starts portaudio and returns the matching terminate function.
func Initialize() (func() error, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	return portaudio.Terminate, nil
}

// Devices lists every device portaudio knows about. Initialize must have
// been called.
func Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			Index:             i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}

	return devices, nil
}

type portaudioSource struct {
	stream *portaudio.Stream
	in     []int16
}

// OpenDevice opens and starts a blocking mono input stream on dev whose
// buffer holds exactly one block of session.
func OpenDevice(dev Device, session config.Session) (Source, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	if dev.Index < 0 || dev.Index >= len(infos) {
		return nil, fmt.Errorf("%w: no device with index %d", ErrNoDevice, dev.Index)
	}

	params := portaudio.LowLatencyParameters(infos[dev.Index], nil)
	params.Input.Channels = 1
	params.SampleRate = float64(session.SampleRate)
	params.FramesPerBuffer = session.FramesPerBlock

	in := make([]int16, session.FramesPerBlock)

	stream, err := portaudio.OpenStream(params, in)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrNoDevice, dev.Name, err)
	}

	err = stream.Start()
	if err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream on %s: %w", dev.Name, err)
	}

	return &portaudioSource{
		stream: stream,
		in:     in,
	}, nil
}

func (s *portaudioSource) Read(block []int16) error {
	err := s.stream.Read()

	copy(block, s.in)

	if errors.Is(err, portaudio.InputOverflowed) {
		return ErrInputOverflowed
	}

	return err
}

func (s *portaudioSource) Close() error {
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()

	return errors.Join(stopErr, closeErr)
}
