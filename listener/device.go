package listener

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var ErrNoDevice = errors.New("no compatible input device")

type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
}

func (d Device) IsInput() bool {
	return d.MaxInputChannels > 0
}

// Preferred returns the input devices matching prefs, in preference order.
// A device is matched by a case-insensitive substring of its name and is
// listed once, under the first preference it matches.
func Preferred(all []Device, prefs []string) []Device {
	seen := make(map[int]bool)

	var out []Device
	for _, pref := range prefs {
		needle := strings.ToLower(pref)
		if needle == "" {
			continue
		}

		for _, d := range all {
			if !d.IsInput() || seen[d.Index] {
				continue
			}
			if strings.Contains(strings.ToLower(d.Name), needle) {
				seen[d.Index] = true
				out = append(out, d)
			}
		}
	}

	return out
}

// Choose picks the device to capture from. A non-negative index selects that
// device explicitly; otherwise the first preferred device is used.
func Choose(all []Device, prefs []string, index int) (Device, error) {
	if index >= 0 {
		for _, d := range all {
			if d.Index == index {
				if !d.IsInput() {
					return Device{}, fmt.Errorf("%w: device %d (%s) has no input channels", ErrNoDevice, index, d.Name)
				}
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: no device with index %d", ErrNoDevice, index)
	}

	preferred := Preferred(all, prefs)
	if len(preferred) == 0 {
		return Device{}, fmt.Errorf("%w: none matches %q, choose one by index", ErrNoDevice, prefs)
	}

	return preferred[0], nil
}

// LogDevices logs every device and then every preferred input match.
func LogDevices(logger *zap.Logger, all []Device, prefs []string) {
	for _, d := range all {
		logger.Info("Audio device.",
			zap.Int("index", d.Index),
			zap.String("name", d.Name),
			zap.Int("maxInputChannels", d.MaxInputChannels),
			zap.Float64("defaultSampleRate", d.DefaultSampleRate))
	}

	for _, d := range Preferred(all, prefs) {
		logger.Info("Preferred input device found.",
			zap.Int("index", d.Index),
			zap.String("name", d.Name))
	}
}
