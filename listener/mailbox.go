package listener

import (
	"acoustic-listener/spectrogram"
)

// Snapshot is the capture state published after every tick. Its slices are
// never modified once published.
type Snapshot struct {
	Tick uint64
	// Scrolls counts every column evicted from the buffer since capture began.
	Scrolls uint64
	// Cursor is the number of filled slots, equal to the width once scrolling.
	Cursor     int
	Columns    spectrogram.Image
	Blocks     [][]int16
	Amplitudes []float64
}

// Mailbox holds at most one snapshot. Put replaces an unread snapshot.
type Mailbox struct {
	ch chan Snapshot
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		ch: make(chan Snapshot, 1),
	}
}

// Put must only be called from a single goroutine.
func (m *Mailbox) Put(s Snapshot) {
	for {
		select {
		case m.ch <- s:
			return
		default:
		}

		select {
		case <-m.ch:
		default:
		}
	}
}

func (m *Mailbox) Take() (Snapshot, bool) {
	select {
	case s := <-m.ch:
		return s, true
	default:
		return Snapshot{}, false
	}
}
