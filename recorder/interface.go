package recorder

import "time"

type Interface interface {
	// Write stores blocks as one 16-bit mono WAV file named after at and
	// returns its path.
	Write(blocks [][]int16, sampleRate int, at time.Time) (string, error)
}
