package sound_extraction

import (
	"fmt"
	"strings"

	"acoustic-listener/matcher"
	"acoustic-listener/spectrogram"

	"github.com/google/uuid"
)

// Fragment is a recorded sound event. Start and End index the columns of
// the most recent snapshot, End exclusive.
type Fragment struct {
	ID    uuid.UUID
	Start int
	End   int

	Blocks    [][]int16
	Params    spectrogram.ParameterSet
	Processed spectrogram.Image
	Result    matcher.Result

	// File is the saved recording of a matched fragment.
	File string
}

// Analysis is the outcome of analyzing a single recording.
type Analysis struct {
	Path       string
	SampleRate int
	Params     spectrogram.ParameterSet
	Processed  spectrogram.Image
	Result     matcher.Result
}

// Mark locates a fragment in a Frame.
type Mark struct {
	ID      uuid.UUID
	Start   int
	End     int
	Verdict matcher.Verdict
}

// Frame is what a front end draws after each processed snapshot.
type Frame struct {
	Tick uint64
	// Columns is the buffer with each fragment's processed columns laid over
	// its range.
	Columns   spectrogram.Image
	Amplitude float64
	State     State
	Fragments []Mark
}

type Hooks struct {
	OnFrame           func(Frame)
	OnFragmentStarted func(start int)
	OnFragmentStopped func(kind EventKind)
	OnFragment        func(Fragment)
}

// parameterLine lists the enabled parameters of p as one log message.
func parameterLine(title string, p spectrogram.ParameterSet, enabled []spectrogram.Param) string {
	var sb strings.Builder

	sb.WriteString(title)
	for _, name := range enabled {
		v, _ := p.Value(name)
		fmt.Fprintf(&sb, "/ %s:%g", name, v)
	}

	return sb.String()
}
