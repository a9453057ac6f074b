package ring_buffer

import "acoustic-listener/spectrogram"

// Slot pairs a spectrogram column with the raw block it was computed from.
type Slot struct {
	Column spectrogram.Column
	Block  []int16
}

// Spectrogram is the sliding spectrogram buffer of W slots. The cursor is the
// index of the next free slot and stays at W once the buffer scrolls.
type Spectrogram struct {
	ring *Ring[Slot]
}

func NewSpectrogram(width int) *Spectrogram {
	return &Spectrogram{ring: New[Slot](width)}
}

// Append stores a column and its block and reports whether the buffer
// scrolled. Callers must not modify column or block afterwards.
func (s *Spectrogram) Append(column spectrogram.Column, block []int16) bool {
	return s.ring.Add(Slot{Column: column, Block: block})
}

func (s *Spectrogram) Cursor() int {
	return s.ring.Len()
}

func (s *Spectrogram) Width() int {
	return s.ring.Cap()
}

// Scrolls counts scroll events since construction or the last Reset.
func (s *Spectrogram) Scrolls() uint64 {
	return s.ring.Evicted()
}

// Read returns the columns and blocks oldest first. The outer slices are new;
// the columns and blocks are shared and immutable.
func (s *Spectrogram) Read() (spectrogram.Image, [][]int16) {
	slots := s.ring.Read()

	cols := make(spectrogram.Image, len(slots))
	blocks := make([][]int16, len(slots))
	for i, slot := range slots {
		cols[i] = slot.Column
		blocks[i] = slot.Block
	}

	return cols, blocks
}

func (s *Spectrogram) Reset() {
	s.ring.Clear()
}

// AmplitudeTrace keeps the trailing RMS amplitudes.
type AmplitudeTrace struct {
	ring *Ring[float64]
}

func NewAmplitudeTrace(length int) *AmplitudeTrace {
	return &AmplitudeTrace{ring: New[float64](length)}
}

func (a *AmplitudeTrace) Add(amp float64) {
	a.ring.Add(amp)
}

func (a *AmplitudeTrace) Read() []float64 {
	return a.ring.Read()
}

func (a *AmplitudeTrace) Reset() {
	a.ring.Clear()
}
