package sound_extraction

import (
	"acoustic-listener/config"
	"acoustic-listener/listener"

	"gonum.org/v1/gonum/stat"
)

const durationEpsilon = 1e-9

type State int

const (
	Idle State = iota
	Capturing
)

func (s State) String() string {
	if s == Capturing {
		return "capturing"
	}
	return "idle"
}

type EventKind int

const (
	NoEvent EventKind = iota
	// Started marks the onset of a fragment.
	Started
	// Finished marks a fragment long enough to be analyzed.
	Finished
	// Discarded marks a fragment that ended too short.
	Discarded
	// Abandoned marks a fragment whose start scrolled out of the buffer.
	Abandoned
)

// Event is what a snapshot changed in the detector. Start and End are
// buffer column indices of the snapshot, End exclusive.
type Event struct {
	Kind  EventKind
	Start int
	End   int
}

// Detector delimits fragments in a stream of snapshots. It tracks buffer
// scrolling so that the returned shift can be applied to any column index
// kept from an earlier snapshot.
type Detector struct {
	ampThreshold   float64
	blockDuration  float64
	monitorColumns int
	minDuration    float64
	maxLowDuration float64

	state       State
	start       int
	lowColumns  int
	lastScrolls uint64
	lastColumn  uint64
}

func NewDetector(settings *config.Config, blockDuration float64) *Detector {
	return &Detector{
		ampThreshold:   settings.AmpThreshold,
		blockDuration:  blockDuration,
		monitorColumns: settings.MonitorColumns(),
		minDuration:    settings.MinFragmentDuration,
		maxLowDuration: settings.MaxLowDuration,
	}
}

func (d *Detector) State() State {
	return d.state
}

// Reset returns to Idle and forgets the scroll position. It must be called
// before observing a new capture.
func (d *Detector) Reset() {
	d.state = Idle
	d.start = 0
	d.lowColumns = 0
	d.lastScrolls = 0
	d.lastColumn = 0
}

// Observe advances the state machine to snapshot s. It returns the number of
// columns the buffer scrolled since the previous snapshot and the resulting
// event.
func (d *Detector) Observe(s listener.Snapshot) (int, Event) {
	shift := int(s.Scrolls - d.lastScrolls)
	d.lastScrolls = s.Scrolls

	column := s.Scrolls + uint64(s.Cursor)
	elapsed := int(column - d.lastColumn)
	d.lastColumn = column

	if d.state == Capturing {
		d.start -= shift
		if d.start < 0 {
			d.state = Idle
			return shift, Event{Kind: Abandoned}
		}
	}

	loud := TrailingAverage(s.Amplitudes) > d.ampThreshold

	switch d.state {
	case Idle:
		if !loud {
			return shift, Event{}
		}

		d.state = Capturing
		d.start = max(0, s.Cursor-d.monitorColumns)
		d.lowColumns = 0

		return shift, Event{Kind: Started, Start: d.start}

	case Capturing:
		if loud {
			d.lowColumns = 0
			return shift, Event{}
		}

		d.lowColumns += elapsed
		if float64(d.lowColumns)*d.blockDuration <= d.maxLowDuration {
			return shift, Event{}
		}

		d.state = Idle
		ev := Event{Kind: Finished, Start: d.start, End: s.Cursor - 1}

		if ev.End <= ev.Start || float64(ev.End-ev.Start)*d.blockDuration+durationEpsilon < d.minDuration {
			ev.Kind = Discarded
		}

		return shift, ev
	}

	return shift, Event{}
}

// TrailingAverage is the mean of the amplitude trace, 0 when it is empty.
func TrailingAverage(amplitudes []float64) float64 {
	if len(amplitudes) == 0 {
		return 0
	}
	return stat.Mean(amplitudes, nil)
}
