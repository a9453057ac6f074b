package config

// Session holds the rate-derived constants shared by capture, analysis and
// template building. A new Session is derived whenever a template with a
// different sample rate is loaded; it is passed by value.
type Session struct {
	SampleRate     int
	BlockDuration  float64
	FramesPerBlock int
	FreqResolution float64
}

func NewSession(sampleRate int, blockDuration float64) Session {
	frames := int(float64(sampleRate) * blockDuration)

	s := Session{
		SampleRate:     sampleRate,
		BlockDuration:  blockDuration,
		FramesPerBlock: frames,
	}
	if frames > 0 {
		s.FreqResolution = float64(sampleRate) / float64(frames)
	}

	return s
}

// NumFreqBins is the number of rows of a spectrogram column.
func (s Session) NumFreqBins() int {
	return s.FramesPerBlock / 2
}

// RowToKHz converts a spectrogram row index into kHz. Row 0 is the highest
// frequency bin.
func (s Session) RowToKHz(row float64) float64 {
	return (float64(s.NumFreqBins()) - row) * s.FreqResolution / 1000
}
