package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

var ErrInvalid = errors.New("invalid config")

type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type Band struct {
	LowHz  float64 `yaml:"low_hz"`
	HighHz float64 `yaml:"high_hz"`
}

type Contrast struct {
	TemplateTolerance   float64 `yaml:"template_tolerance"`
	LiveTolerance       float64 `yaml:"live_tolerance"`
	Adjust              float64 `yaml:"adjust"`
	TemplateImageAdjust float64 `yaml:"template_image_adjust"`
}

// Config is the externally supplied configuration surface. Durations are in seconds.
type Config struct {
	SampleRate          int     `yaml:"sample_rate"`
	BlockDuration       float64 `yaml:"block_duration"`
	SpectrogramWidth    int     `yaml:"spectrogram_width"`
	AmpThreshold        float64 `yaml:"amp_threshold"`
	MonitorDuration     float64 `yaml:"monitor_duration"`
	MinFragmentDuration float64 `yaml:"min_fragment_duration"`
	MaxLowDuration      float64 `yaml:"max_low_duration"`

	Contrast    Contrast `yaml:"contrast"`
	CompareBand Band     `yaml:"compare_band"`

	// Margins are subtracted from the minimum and added to the maximum of a
	// template-derived bound, keyed by parameter name.
	Margins map[string]Range `yaml:"margins"`
	// IndependentBounds are fixed bounds for parameters that do not depend on
	// the template recordings.
	IndependentBounds map[string]Range `yaml:"independent_bounds"`
	Enabled           []string         `yaml:"enabled"`

	PreferredDevices []string `yaml:"preferred_devices"`

	RecordingsDir    string `yaml:"recordings_dir"`
	LogDir           string `yaml:"log_dir"`
	NotifyURL        string `yaml:"notify_url"`
	TemplateCacheDir string `yaml:"template_cache_dir"`
}

func Default() *Config {
	return &Config{
		SampleRate:          44100,
		BlockDuration:       0.02,
		SpectrogramWidth:    500,
		AmpThreshold:        0.005,
		MonitorDuration:     0.5,
		MinFragmentDuration: 0.5,
		MaxLowDuration:      0.1,
		Contrast: Contrast{
			TemplateTolerance:   3.0,
			LiveTolerance:       3.0,
			Adjust:              20,
			TemplateImageAdjust: 40,
		},
		CompareBand: Band{LowHz: 1000, HighHz: 20000},
		Margins: map[string]Range{
			"duration":           {Min: 0.25, Max: 1.0},
			"cmxN":               {Min: 0.15, Max: 0.15},
			"cmyN":               {Min: 0.15, Max: 0.15},
			"avgNumDataInCol":    {Min: 20, Max: 20},
			"lowFreq":            {Min: 2.0, Max: 2.0},
			"highFreq":           {Min: 2.0, Max: 2.0},
			"distLowRow2HighRow": {Min: 20, Max: 20},
			"permEnt":            {Min: 0.1, Max: 0.1},
		},
		IndependentBounds: map[string]Range{
			"summedAmpRatio": {Min: 0.5, Max: 3.0},
			"corr2auto":      {Min: 0.3, Max: 1.0},
		},
		Enabled: []string{
			"duration", "cmxN", "cmyN", "avgNumDataInCol",
			"lowFreq", "highFreq", "distLowRow2HighRow", "summedAmpRatio",
		},
		PreferredDevices: []string{"headset", "built-in"},
		RecordingsDir:    "recordings",
		LogDir:           "log",
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default values, down to a single side of a margin or bound.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// maps decode as a whole; merge them over the defaults instead
	var ranges rangeOverrides
	if err := yaml.Unmarshal(data, &ranges); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	defaults := Default()
	cfg.Margins = mergeRanges(defaults.Margins, ranges.Margins)
	cfg.IndependentBounds = mergeRanges(defaults.IndependentBounds, ranges.IndependentBounds)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be positive", ErrInvalid)
	case c.BlockDuration <= 0:
		return fmt.Errorf("%w: block_duration must be positive", ErrInvalid)
	case int(float64(c.SampleRate)*c.BlockDuration) < 2:
		return fmt.Errorf("%w: block_duration is shorter than two samples", ErrInvalid)
	case c.SpectrogramWidth <= 0:
		return fmt.Errorf("%w: spectrogram_width must be positive", ErrInvalid)
	case c.MonitorDuration < c.BlockDuration:
		return fmt.Errorf("%w: monitor_duration must cover at least one block", ErrInvalid)
	case c.MinFragmentDuration < 0 || c.MaxLowDuration < 0:
		return fmt.Errorf("%w: fragment durations must not be negative", ErrInvalid)
	case c.CompareBand.LowHz < 0 || c.CompareBand.HighHz <= c.CompareBand.LowHz:
		return fmt.Errorf("%w: compare_band must satisfy 0 <= low_hz < high_hz", ErrInvalid)
	case c.Contrast.LiveTolerance <= 0 || c.Contrast.TemplateTolerance <= 0:
		return fmt.Errorf("%w: contrast tolerances must be positive", ErrInvalid)
	}

	for name, r := range c.IndependentBounds {
		if !isComparable(name) {
			return fmt.Errorf("%w: unknown parameter %q in independent_bounds", ErrInvalid, name)
		}
		if r.Min > r.Max {
			return fmt.Errorf("%w: independent bound %s has min > max", ErrInvalid, name)
		}
	}

	for name := range c.Margins {
		if !isComparable(name) && name != TraceParam {
			return fmt.Errorf("%w: unknown parameter %q in margins", ErrInvalid, name)
		}
	}

	for _, name := range c.Enabled {
		if !isComparable(name) {
			return fmt.Errorf("%w: parameter %q in enabled cannot be compared", ErrInvalid, name)
		}
	}

	return nil
}

// MonitorColumns is the length of the amplitude trace in blocks.
func (c *Config) MonitorColumns() int {
	n := int(c.MonitorDuration/c.BlockDuration + 1e-9)
	if n < 1 {
		n = 1
	}
	return n
}

func (c *Config) Margin(name string) Range {
	return c.Margins[name]
}

func (c *Config) IsIndependent(name string) bool {
	_, ok := c.IndependentBounds[name]
	return ok
}

// Session returns the capture session for the configured sample rate.
func (c *Config) Session() Session {
	return NewSession(c.SampleRate, c.BlockDuration)
}
