package listener

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"acoustic-listener/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// fakeSource returns the scripted error for each read in turn and a constant
// block afterwards.
type fakeSource struct {
	mu     sync.Mutex
	errs   []error
	reads  int
	value  int16
	closed atomic.Bool
}

func (f *fakeSource) Read(block []int16) error {
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range block {
		block[i] = f.value
	}

	var err error
	if f.reads < len(f.errs) {
		err = f.errs[f.reads]
	}
	f.reads++

	return err
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

func newCapture(t *testing.T, src Source, width int) Interface {
	t.Helper()

	c, err := New(&Config{
		Source:         src,
		Session:        config.NewSession(8000, 0.01),
		Width:          width,
		MonitorColumns: 4,
		Logger:         zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	return c
}

func waitForTick(t *testing.T, c Interface, tick uint64) Snapshot {
	t.Helper()

	var last Snapshot
	require.Eventually(t, func() bool {
		if s, ok := c.Latest(); ok {
			last = s
		}
		return last.Tick >= tick
	}, 5*time.Second, time.Millisecond)

	return last
}

func TestNew(t *testing.T) {
	t.Run("rejects a missing config or source", func(t *testing.T) {
		_, err := New(nil)
		assert.Error(t, err)

		_, err = New(&Config{Session: config.NewSession(8000, 0.01), Width: 4, MonitorColumns: 2})
		assert.Error(t, err)
	})
}

func TestCapture(t *testing.T) {
	t.Run("snapshots hold exactly W columns once the buffer scrolls", func(t *testing.T) {
		src := &fakeSource{value: 1000}
		c := newCapture(t, src, 5)
		c.Start()

		s := waitForTick(t, c, 12)
		c.Stop()

		assert.Len(t, s.Columns, 5)
		assert.Len(t, s.Blocks, 5)
		assert.Equal(t, 5, s.Cursor)
		assert.Equal(t, s.Tick-5, s.Scrolls)
		assert.Len(t, s.Amplitudes, 4)
		assert.Len(t, s.Blocks[0], 80)
		assert.True(t, src.closed.Load())
		assert.NoError(t, c.Err())
	})

	t.Run("an overflow is logged and the loop keeps reading", func(t *testing.T) {
		src := &fakeSource{errs: []error{ErrInputOverflowed, nil, ErrInputOverflowed}}
		c := newCapture(t, src, 5)
		c.Start()

		s := waitForTick(t, c, 4)
		c.Stop()

		assert.GreaterOrEqual(t, s.Tick, uint64(4))
		assert.NoError(t, c.Err())
	})

	t.Run("a read error ends the loop and closes the source", func(t *testing.T) {
		src := &fakeSource{errs: []error{nil, nil, errors.New("device unplugged")}}
		c := newCapture(t, src, 5)
		c.Start()

		select {
		case <-c.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("capture loop did not exit")
		}

		assert.ErrorIs(t, c.Err(), ErrStreamIO)
		assert.True(t, src.closed.Load())

		// stopping an exited loop returns immediately
		c.Stop()
	})

	t.Run("stop before start still closes the source", func(t *testing.T) {
		src := &fakeSource{}
		c := newCapture(t, src, 5)

		c.Stop()

		assert.True(t, src.closed.Load())
		assert.NoError(t, c.Err())
	})

	t.Run("published snapshots are not changed by later ticks", func(t *testing.T) {
		src := &fakeSource{value: 500}
		c := newCapture(t, src, 3)
		c.Start()

		s := waitForTick(t, c, 2)
		firstCol := append([]uint8(nil), s.Columns[0]...)
		tick := s.Tick

		waitForTick(t, c, tick+6)
		c.Stop()

		assert.Equal(t, firstCol, []uint8(s.Columns[0]))
	})
}

func TestMailbox(t *testing.T) {
	t.Run("keeps only the latest snapshot", func(t *testing.T) {
		m := NewMailbox()

		m.Put(Snapshot{Tick: 1})
		m.Put(Snapshot{Tick: 2})
		m.Put(Snapshot{Tick: 3})

		s, ok := m.Take()
		require.True(t, ok)
		assert.Equal(t, uint64(3), s.Tick)

		_, ok = m.Take()
		assert.False(t, ok)
	})
}

func TestChoose(t *testing.T) {
	all := []Device{
		{Index: 0, Name: "HDMI Output", MaxInputChannels: 0},
		{Index: 1, Name: "Built-in Microphone", MaxInputChannels: 2},
		{Index: 2, Name: "USB Headset", MaxInputChannels: 1},
		{Index: 3, Name: "Line In", MaxInputChannels: 2},
	}

	t.Run("preferences are matched case-insensitively in order", func(t *testing.T) {
		preferred := Preferred(all, []string{"headset", "BUILT-IN"})

		require.Len(t, preferred, 2)
		assert.Equal(t, 2, preferred[0].Index)
		assert.Equal(t, 1, preferred[1].Index)
	})

	t.Run("output-only devices are never preferred", func(t *testing.T) {
		assert.Empty(t, Preferred(all, []string{"hdmi"}))
	})

	t.Run("the first preferred device is chosen without an index", func(t *testing.T) {
		d, err := Choose(all, []string{"headset"}, -1)
		require.NoError(t, err)
		assert.Equal(t, "USB Headset", d.Name)
	})

	t.Run("an explicit index wins", func(t *testing.T) {
		d, err := Choose(all, []string{"headset"}, 3)
		require.NoError(t, err)
		assert.Equal(t, "Line In", d.Name)
	})

	t.Run("no match and no index is a device error", func(t *testing.T) {
		_, err := Choose(all, []string{"webcam"}, -1)
		assert.ErrorIs(t, err, ErrNoDevice)
	})

	t.Run("an output-only index is a device error", func(t *testing.T) {
		_, err := Choose(all, nil, 0)
		assert.ErrorIs(t, err, ErrNoDevice)
	})
}

func TestLogDevices(t *testing.T) {
	t.Run("every device and every preferred match is logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)

		LogDevices(zap.New(core), []Device{
			{Index: 0, Name: "HDMI Output"},
			{Index: 1, Name: "USB Headset", MaxInputChannels: 1, DefaultSampleRate: 48000},
			{Index: 2, Name: "Built-in Microphone", MaxInputChannels: 2, DefaultSampleRate: 44100},
		}, []string{"built-in", "headset"})

		assert.Equal(t, 3, logs.FilterMessage("Audio device.").Len())

		preferred := logs.FilterMessage("Preferred input device found.").All()
		require.Len(t, preferred, 2)
		assert.Equal(t, "Built-in Microphone", preferred[0].ContextMap()["name"])
		assert.Equal(t, "USB Headset", preferred[1].ContextMap()["name"])
	})
}
