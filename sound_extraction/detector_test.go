package sound_extraction

import (
	"fmt"
	"testing"

	"acoustic-listener/config"
	"acoustic-listener/listener"
	"acoustic-listener/ring_buffer"
	"acoustic-listener/spectrogram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timeline produces snapshots the way the capture loop does.
type timeline struct {
	session    config.Session
	buffer     *ring_buffer.Spectrogram
	amplitudes *ring_buffer.AmplitudeTrace
	tick       uint64
}

func newTimeline(settings *config.Config, session config.Session) *timeline {
	return &timeline{
		session:    session,
		buffer:     ring_buffer.NewSpectrogram(settings.SpectrogramWidth),
		amplitudes: ring_buffer.NewAmplitudeTrace(settings.MonitorColumns()),
	}
}

func (tl *timeline) push(block []int16) listener.Snapshot {
	tl.tick++

	tl.buffer.Append(spectrogram.NewColumn(block, tl.session.FramesPerBlock), block)
	tl.amplitudes.Add(spectrogram.RMS(block))

	cols, blocks := tl.buffer.Read()

	return listener.Snapshot{
		Tick:       tl.tick,
		Scrolls:    tl.buffer.Scrolls(),
		Cursor:     tl.buffer.Cursor(),
		Columns:    cols,
		Blocks:     blocks,
		Amplitudes: tl.amplitudes.Read(),
	}
}

// markedBlock is a loud or quiet block whose first sample identifies it.
func markedBlock(session config.Session, loud bool, marker int) []int16 {
	block := make([]int16, session.FramesPerBlock)
	if loud {
		for i := range block {
			block[i] = 1000
		}
	}
	block[0] = int16(marker % 30000)
	return block
}

// detectorSettings make every block decide the state on its own.
func detectorSettings() *config.Config {
	settings := config.Default()
	settings.MonitorDuration = 0.02
	settings.MaxLowDuration = 0.01
	settings.MinFragmentDuration = 0.1
	settings.SpectrogramWidth = 200
	return settings
}

func TestDetector_Observe(t *testing.T) {
	for _, k := range []int{1, 3, 7} {
		for _, m := range []int{5, 12, 30} {
			settings := detectorSettings()
			session := settings.Session()

			name := fmt.Sprintf("%d quiet, %d loud, %d quiet blocks yield exactly one fragment over the loud blocks", k, m, k)
			t.Run(name, func(t *testing.T) {
				d := NewDetector(settings, session.BlockDuration)
				tl := newTimeline(settings, session)

				var finished []Event
				var last listener.Snapshot

				marker := 0
				for _, segment := range []struct {
					loud  bool
					count int
				}{{false, k}, {true, m}, {false, k}} {
					for i := 0; i < segment.count; i++ {
						marker++
						last = tl.push(markedBlock(session, segment.loud, marker))

						_, ev := d.Observe(last)
						if ev.Kind == Finished || ev.Kind == Discarded {
							finished = append(finished, ev)
						}
					}
				}

				require.Len(t, finished, 1)
				ev := finished[0]
				assert.Equal(t, Finished, ev.Kind)
				assert.Equal(t, m, ev.End-ev.Start)
				assert.InDelta(t, float64(m)*session.BlockDuration, float64(ev.End-ev.Start)*session.BlockDuration, session.BlockDuration)

				for i := ev.Start; i < ev.End; i++ {
					assert.Equal(t, int16(1000), last.Blocks[i][1])
				}
			})
		}
	}

	t.Run("a fragment shorter than the minimum is discarded", func(t *testing.T) {
		settings := detectorSettings()
		session := settings.Session()
		d := NewDetector(settings, session.BlockDuration)
		tl := newTimeline(settings, session)

		var kinds []EventKind
		for i, loud := range []bool{false, true, true, false, false} {
			if _, ev := d.Observe(tl.push(markedBlock(session, loud, i))); ev.Kind != NoEvent {
				kinds = append(kinds, ev.Kind)
			}
		}

		assert.Equal(t, []EventKind{Started, Discarded}, kinds)
	})

	t.Run("a dip no longer than the debounce keeps the fragment open", func(t *testing.T) {
		settings := detectorSettings()
		settings.MaxLowDuration = 0.05
		session := settings.Session()
		d := NewDetector(settings, session.BlockDuration)
		tl := newTimeline(settings, session)

		pattern := []bool{false, true, true, true, false, false, true, true, true, false, false, false}

		var finished []Event
		for i, loud := range pattern {
			if _, ev := d.Observe(tl.push(markedBlock(session, loud, i))); ev.Kind == Finished {
				finished = append(finished, ev)
			}
		}

		require.Len(t, finished, 1)
		assert.Equal(t, 1, finished[0].Start)
		// ends one column before the block that exceeded the debounce
		assert.Equal(t, 11, finished[0].End)
	})

	t.Run("the shift equals the scrolls since the previous observed snapshot", func(t *testing.T) {
		settings := detectorSettings()
		settings.SpectrogramWidth = 4
		session := settings.Session()
		d := NewDetector(settings, session.BlockDuration)
		tl := newTimeline(settings, session)

		var shifts []int
		for i := 0; i < 9; i++ {
			s := tl.push(markedBlock(session, false, i))
			if i%3 != 2 {
				continue
			}
			shift, _ := d.Observe(s)
			shifts = append(shifts, shift)
		}

		// scrolls after ticks 3, 6 and 9 with width 4 are 0, 2 and 5
		assert.Equal(t, []int{0, 2, 3}, shifts)
	})

	t.Run("a fragment whose start scrolls out is abandoned", func(t *testing.T) {
		settings := detectorSettings()
		settings.SpectrogramWidth = 5
		session := settings.Session()
		d := NewDetector(settings, session.BlockDuration)
		tl := newTimeline(settings, session)

		var kinds []EventKind
		for i := 0; i < 12; i++ {
			if _, ev := d.Observe(tl.push(markedBlock(session, true, i))); ev.Kind != NoEvent {
				kinds = append(kinds, ev.Kind)
			}
		}

		require.NotEmpty(t, kinds)
		assert.Equal(t, Started, kinds[0])
		assert.Contains(t, kinds, Abandoned)
	})
}
