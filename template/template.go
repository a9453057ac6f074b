package template

import (
	"errors"
	"fmt"
	"math"

	"acoustic-listener/config"
	"acoustic-listener/logging"
	"acoustic-listener/spectrogram"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const permutationOrder = 5

// Template is the aggregated description of a set of reference recordings.
// It is replaced as a whole when a new template is built.
type Template struct {
	SampleRate int
	Sources    []string

	// Values holds the representative value of every parameter.
	Values spectrogram.ParameterSet
	// Bounds holds the inclusive range of every comparable parameter.
	Bounds map[spectrogram.Param]config.Range

	// CoMTrace is the representative center-of-mass trace with per-position
	// bounds.
	CoMTrace    []float64
	CoMTraceMin []float64
	CoMTraceMax []float64

	// Image is the averaged, contrast-enhanced spectrogram of all sources.
	Image  spectrogram.Image
	Energy float64
}

// Session is the capture session matching the template's sample rate.
func (t *Template) Session(blockDuration float64) config.Session {
	return config.NewSession(t.SampleRate, blockDuration)
}

// Reference is what the analyzer needs to compare a fragment to t.
func (t *Template) Reference() *spectrogram.Reference {
	return &spectrogram.Reference{
		SummedAmp: t.Values.SummedAmp,
		Image:     t.Image,
		Energy:    t.Energy,
	}
}

type builderImpl struct {
	fileSys  afero.Fs
	settings *config.Config
	logger   *zap.Logger
}

type Config struct {
	FileSys  afero.Fs
	Settings *config.Config
	Logger   *zap.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Settings == nil {
		return nil, fmt.Errorf("settings is nil")
	}

	return &builderImpl{
		fileSys:  cfg.FileSys,
		settings: cfg.Settings,
		logger:   logging.OrNop(cfg.Logger),
	}, nil
}

func (b *builderImpl) BuildFolder(dir string) (*Template, error) {
	paths, err := ListFolder(b.fileSys, dir)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no WAV files in %s", ErrNoUsableFiles, dir)
	}

	return b.Build(paths)
}

// analyzedFile is one source's contribution to a template.
type analyzedFile struct {
	path      string
	params    spectrogram.ParameterSet
	processed spectrogram.Image
}

func (b *builderImpl) Build(paths []string) (*Template, error) {
	var (
		files   []analyzedFile
		rate    int
		session config.Session
	)

	for _, path := range paths {
		audio, err := Decode(b.fileSys, path)
		if err != nil {
			b.skip(path, err)
			continue
		}

		if rate == 0 {
			rate = audio.SampleRate
			session = config.NewSession(rate, b.settings.BlockDuration)
		} else if audio.SampleRate != rate {
			b.skip(path, &FileError{
				Path: path,
				Err:  fmt.Errorf("%w: sample rate %d differs from %d", ErrFileFormat, audio.SampleRate, rate),
			})
			continue
		}

		img := spectrogram.FromSamples(audio.Samples, session)
		params, processed := spectrogram.Analyze(img, spectrogram.OptionsFor(b.settings, session, spectrogram.Template))

		if params.IsSentinel() {
			b.skip(path, errors.New("no signal in the comparison band"))
			continue
		}

		files = append(files, analyzedFile{path: path, params: params, processed: processed})
	}

	if len(files) == 0 {
		return nil, ErrNoUsableFiles
	}

	t := aggregate(files, b.settings)
	t.SampleRate = rate

	b.logger.Info("Template built.",
		zap.Int("files", len(t.Sources)),
		zap.Int("sampleRate", rate),
		zap.Float64("duration", t.Values.Duration),
		zap.Float64("lowFreq", t.Values.LowFreq),
		zap.Float64("highFreq", t.Values.HighFreq))

	return t, nil
}

func (b *builderImpl) skip(path string, err error) {
	b.logger.Warn("Skipped template file.", zap.String("path", path), zap.Error(err))
}

// aggregate combines analyzed files into a template without a sample rate.
func aggregate(files []analyzedFile, settings *config.Config) *Template {
	t := &Template{
		Bounds: make(map[spectrogram.Param]config.Range),
	}

	for _, f := range files {
		t.Sources = append(t.Sources, f.path)
	}

	for _, name := range spectrogram.Scalars {
		values := make([]float64, len(files))
		for i, f := range files {
			values[i], _ = f.params.Value(name)
		}

		t.Values.Set(name, stat.Mean(values, nil))

		if !spectrogram.IsComparable(name) || name == spectrogram.PermEnt {
			continue
		}

		if bound, ok := settings.IndependentBounds[string(name)]; ok {
			t.Bounds[name] = bound
			t.Values.Set(name, (bound.Min+bound.Max)/2)
			continue
		}

		margin := settings.Margin(string(name))
		t.Bounds[name] = config.Range{
			Min: floats.Min(values) - margin.Min,
			Max: floats.Max(values) + margin.Max,
		}
	}

	traces := make([][]int, len(files))
	for i, f := range files {
		traces[i] = f.params.CoMInCol
	}

	combineTraces(t, traces, settings.Margin(string(spectrogram.CoMInCol)))

	t.Values.PermEnt = spectrogram.PermutationEntropy(t.CoMTrace, permutationOrder)
	if bound, ok := settings.IndependentBounds[string(spectrogram.PermEnt)]; ok {
		t.Bounds[spectrogram.PermEnt] = bound
	} else {
		margin := settings.Margin(string(spectrogram.PermEnt))
		t.Bounds[spectrogram.PermEnt] = config.Range{
			Min: t.Values.PermEnt - margin.Min,
			Max: t.Values.PermEnt + margin.Max,
		}
	}

	images := make([]spectrogram.Image, len(files))
	for i, f := range files {
		images[i] = f.processed
	}

	t.Image = spectrogram.AutoContrast(averageImages(images),
		settings.Contrast.TemplateTolerance, settings.Contrast.TemplateImageAdjust)
	t.Energy = spectrogram.Energy(t.Image)

	return t
}

// combineTraces resamples every trace to the mean length, levels outliers
// and derives the representative trace with its per-position bounds.
func combineTraces(t *Template, traces [][]int, margin config.Range) {
	lengths := make([]float64, len(traces))
	for i, tr := range traces {
		lengths[i] = float64(len(tr))
	}

	n := int(math.Round(stat.Mean(lengths, nil)))
	if n < 1 {
		return
	}

	matrix := make([][]float64, len(traces))
	for i, tr := range traces {
		matrix[i] = Resample(toFloats(tr), n)
	}

	LevelOutliers(matrix)

	t.CoMTrace = make([]float64, n)
	t.CoMTraceMin = make([]float64, n)
	t.CoMTraceMax = make([]float64, n)
	t.Values.CoMInCol = make([]int, n)

	column := make([]float64, len(matrix))
	for j := 0; j < n; j++ {
		for i := range matrix {
			column[i] = matrix[i][j]
		}

		t.CoMTrace[j] = stat.Mean(column, nil)
		t.CoMTraceMin[j] = floats.Min(column) - margin.Min
		t.CoMTraceMax[j] = floats.Max(column) + margin.Max
		t.Values.CoMInCol[j] = int(math.Round(t.CoMTrace[j]))
	}
}

// LevelOutliers replaces every value farther than one population standard
// deviation from the mean of the whole matrix with that mean.
func LevelOutliers(matrix [][]float64) {
	var all []float64
	for _, row := range matrix {
		all = append(all, row...)
	}

	if len(all) < 2 {
		return
	}

	mean, variance := stat.MeanVariance(all, nil)
	n := float64(len(all))
	std := math.Sqrt(variance * (n - 1) / n)

	for _, row := range matrix {
		for j, v := range row {
			if math.Abs(v-mean) > std {
				row[j] = mean
			}
		}
	}
}

// averageImages is the element-wise mean of imgs, with narrower images zero
// padded to the widest one.
func averageImages(imgs []spectrogram.Image) [][]float64 {
	width, rows := 0, 0
	for _, img := range imgs {
		if len(img) > width {
			width = len(img)
		}
		if img.Rows() > rows {
			rows = img.Rows()
		}
	}

	sum := make([][]float64, width)
	for c := range sum {
		sum[c] = make([]float64, rows)
	}

	for _, img := range imgs {
		for c, col := range img {
			for r, v := range col {
				sum[c][r] += float64(v)
			}
		}
	}

	for _, col := range sum {
		floats.Scale(1/float64(len(imgs)), col)
	}

	return sum
}

func toFloats(x []int) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}
