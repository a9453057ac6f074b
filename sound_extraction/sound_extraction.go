package sound_extraction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"acoustic-listener/clients/notifier"
	"acoustic-listener/config"
	"acoustic-listener/listener"
	"acoustic-listener/logging"
	"acoustic-listener/matcher"
	"acoustic-listener/recorder"
	"acoustic-listener/spectrogram"
	"acoustic-listener/template"
	"acoustic-listener/template_store"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

var ErrNoTemplate = errors.New("no template loaded")

// soundImpl is driven from a single goroutine; only webhook calls run
// elsewhere.
type soundImpl struct {
	fileSys    afero.Fs
	settings   *config.Config
	logger     *zap.Logger
	builder    template.Interface
	store      template_store.Interface
	recorder   recorder.Interface
	notifier   notifier.NotifierAPI
	openSource func(config.Session) (listener.Source, error)
	hooks      Hooks
	now        func() time.Time

	enabled []spectrogram.Param
	session config.Session

	tmpl  *template.Template
	table matcher.Table

	capture  listener.Interface
	detector *Detector
	history  []*Fragment

	notifications sync.WaitGroup
}

type Config struct {
	FileSys  afero.Fs
	Settings *config.Config
	Logger   *zap.Logger

	// OpenSource opens the capture device for a session. It is required
	// for Start only.
	OpenSource func(config.Session) (listener.Source, error)

	// Builder defaults to a template builder on FileSys.
	Builder template.Interface
	// Store caches built templates when set.
	Store template_store.Interface
	// Recorder defaults to WAV files in Settings.RecordingsDir on FileSys.
	Recorder recorder.Interface
	// Notifier is told about every matched fragment when set.
	Notifier notifier.NotifierAPI

	Hooks Hooks
	Now   func() time.Time
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

	enabled, err := matcher.Enabled(cfg.Settings.Enabled)
	if err != nil {
		return nil, fmt.Errorf("enabled parameters: %w", err)
	}

	logger := logging.OrNop(cfg.Logger)

	builder := cfg.Builder
	if builder == nil {
		builder, err = template.New(&template.Config{
			FileSys:  cfg.FileSys,
			Settings: cfg.Settings,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}

	rec := cfg.Recorder
	if rec == nil {
		rec, err = recorder.New(&recorder.Config{
			FileSys: cfg.FileSys,
			Dir:     cfg.Settings.RecordingsDir,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &soundImpl{
		fileSys:    cfg.FileSys,
		settings:   cfg.Settings,
		logger:     logger,
		builder:    builder,
		store:      cfg.Store,
		recorder:   rec,
		notifier:   cfg.Notifier,
		openSource: cfg.OpenSource,
		hooks:      cfg.Hooks,
		now:        now,
		enabled:    enabled,
		session:    cfg.Settings.Session(),
		detector:   NewDetector(cfg.Settings, cfg.Settings.BlockDuration),
	}, nil
}

func (s *soundImpl) Session() config.Session {
	return s.session
}

func (s *soundImpl) Template() *template.Template {
	return s.tmpl
}

func (s *soundImpl) Listening() bool {
	return s.capture != nil
}

func (s *soundImpl) LoadTemplateFolder(dir string) (*template.Template, error) {
	paths, err := template.ListFolder(s.fileSys, dir)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no WAV files in %s", template.ErrNoUsableFiles, dir)
	}

	return s.LoadTemplate(paths)
}

func (s *soundImpl) LoadTemplate(paths []string) (*template.Template, error) {
	if s.Listening() {
		s.logger.Info("Stopping capture to load a new template.")
		s.Stop()
	}

	t, err := s.cachedTemplate(paths)
	if err != nil {
		return nil, err
	}

	s.tmpl = t
	s.table = matcher.TableFrom(t)
	s.session = t.Session(s.settings.BlockDuration)

	s.logger.Info(parameterLine("Template parameters.", t.Values, s.enabled),
		zap.Int("sampleRate", t.SampleRate),
		zap.Strings("sources", t.Sources))

	return t, nil
}

func (s *soundImpl) cachedTemplate(paths []string) (*template.Template, error) {
	var key string

	if s.store != nil {
		k, err := template_store.Key(s.fileSys, paths, s.settings)
		if err != nil {
			s.logger.Warn("Template cache key unavailable.", zap.Error(err))
		} else {
			key = k

			t, ok, err := s.store.Get(key)
			if err != nil {
				s.logger.Warn("Template cache read failed.", zap.Error(err))
			} else if ok {
				s.logger.Info("Loaded template from cache.", zap.String("key", key))
				return t, nil
			}
		}
	}

	t, err := s.builder.Build(paths)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.store.Put(key, t); err != nil {
			s.logger.Warn("Template cache write failed.", zap.Error(err))
		}
	}

	return t, nil
}

func (s *soundImpl) Bounds() matcher.Table {
	if s.table == nil {
		return nil
	}
	return s.table.Clone()
}

func (s *soundImpl) SetBound(name spectrogram.Param, bound matcher.Bound) error {
	if s.table == nil {
		return ErrNoTemplate
	}

	if !spectrogram.IsComparable(name) {
		return fmt.Errorf("parameter %q cannot be compared", name)
	}

	s.table[name] = bound

	return nil
}

func (s *soundImpl) Start() error {
	if s.Listening() {
		return nil
	}

	if s.openSource == nil {
		return fmt.Errorf("%w: no audio source configured", listener.ErrNoDevice)
	}

	src, err := s.openSource(s.session)
	if err != nil {
		return err
	}

	capture, err := listener.New(&listener.Config{
		Source:         src,
		Session:        s.session,
		Width:          s.settings.SpectrogramWidth,
		MonitorColumns: s.settings.MonitorColumns(),
		Logger:         s.logger,
	})
	if err != nil {
		_ = src.Close()
		return err
	}

	s.reset()
	s.capture = capture
	s.capture.Start()

	s.logger.Info("Listening.",
		zap.Float64("ampThreshold", s.settings.AmpThreshold),
		zap.Float64("monitorDuration", s.settings.MonitorDuration),
		zap.Float64("minFragmentDuration", s.settings.MinFragmentDuration),
		zap.Float64("maxLowDuration", s.settings.MaxLowDuration))

	return nil
}

func (s *soundImpl) Stop() {
	if !s.Listening() {
		return
	}

	s.capture.Stop()
	s.capture = nil
	s.reset()
}

// Close stops capturing and waits for pending notifications.
func (s *soundImpl) Close() {
	s.Stop()
	s.notifications.Wait()
}

func (s *soundImpl) reset() {
	s.detector = NewDetector(s.settings, s.session.BlockDuration)
	s.history = nil
}

func (s *soundImpl) Poll() error {
	if !s.Listening() {
		return nil
	}

	if snapshot, ok := s.capture.Latest(); ok {
		if err := s.observe(snapshot); err != nil {
			return err
		}
	}

	select {
	case <-s.capture.Done():
		err := s.capture.Err()
		s.capture.Stop()
		s.capture = nil
		s.reset()
		return err
	default:
		return nil
	}
}

// observe applies one snapshot. A bound that does not parse stops the
// capture and is returned.
func (s *soundImpl) observe(snapshot listener.Snapshot) error {
	shift, ev := s.detector.Observe(snapshot)
	s.shiftHistory(shift)

	var err error

	switch ev.Kind {
	case Started:
		s.logger.Info("Sound fragment started.", zap.Int("start", ev.Start))
		if s.hooks.OnFragmentStarted != nil {
			s.hooks.OnFragmentStarted(ev.Start)
		}

	case Finished:
		s.logger.Info("Sound fragment stopped.", zap.Int("start", ev.Start), zap.Int("end", ev.End))
		if s.hooks.OnFragmentStopped != nil {
			s.hooks.OnFragmentStopped(ev.Kind)
		}
		err = s.finish(snapshot, ev)

	case Discarded, Abandoned:
		s.logger.Info("Sound fragment discarded.", zap.Int("start", ev.Start), zap.Int("end", ev.End))
		if s.hooks.OnFragmentStopped != nil {
			s.hooks.OnFragmentStopped(ev.Kind)
		}
	}

	if err != nil {
		var parseErr *matcher.ParseError
		if errors.As(err, &parseErr) {
			s.logger.Error("Comparison aborted, stopping capture.", zap.Error(err))
			s.Stop()
		}
		return err
	}

	if s.hooks.OnFrame != nil {
		s.hooks.OnFrame(s.frame(snapshot))
	}

	return nil
}

func (s *soundImpl) shiftHistory(shift int) {
	if shift == 0 {
		return
	}

	kept := s.history[:0]
	for _, f := range s.history {
		f.Start -= shift
		f.End -= shift
		if f.Start >= 0 {
			kept = append(kept, f)
		}
	}

	// release dropped fragments
	for i := len(kept); i < len(s.history); i++ {
		s.history[i] = nil
	}

	s.history = kept
}

// finish analyzes and compares a completed fragment and records it.
func (s *soundImpl) finish(snapshot listener.Snapshot, ev Event) error {
	cols := snapshot.Columns[ev.Start:ev.End]
	blocks := snapshot.Blocks[ev.Start:ev.End]

	params, processed := spectrogram.Analyze(cols, s.liveOptions(s.session))

	s.logger.Info(parameterLine("Captured sound fragment parameters.", params, s.enabled))

	result, err := matcher.Compare(params, s.table, s.enabled)
	if err != nil {
		return err
	}

	s.logger.Info(result.String())

	f := &Fragment{
		ID:        uuid.New(),
		Start:     ev.Start,
		End:       ev.End,
		Blocks:    blocks,
		Params:    params,
		Processed: processed,
		Result:    result,
	}

	if result.Verdict == matcher.Matched {
		path, err := s.recorder.Write(blocks, s.session.SampleRate, s.now())
		if err != nil {
			s.logger.Error("Error while saving sound fragment.", zap.Error(err))
		} else {
			f.File = path
			s.notify(f)
		}
	}

	s.history = append(s.history, f)

	if s.hooks.OnFragment != nil {
		s.hooks.OnFragment(*f)
	}

	return nil
}

func (s *soundImpl) notify(f *Fragment) {
	if s.notifier == nil {
		return
	}

	match := notifier.Match{
		FragmentID: f.ID.String(),
		File:       f.File,
		Duration:   f.Params.Duration,
	}

	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, match); err != nil {
			s.logger.Warn("Match notification failed.", zap.String("fragment", match.FragmentID), zap.Error(err))
		}
	}()
}

func (s *soundImpl) liveOptions(session config.Session) spectrogram.Options {
	opts := spectrogram.OptionsFor(s.settings, session, spectrogram.Live)
	if s.tmpl != nil {
		opts.Reference = s.tmpl.Reference()
	}
	return opts
}

func (s *soundImpl) frame(snapshot listener.Snapshot) Frame {
	cols := make(spectrogram.Image, len(snapshot.Columns))
	copy(cols, snapshot.Columns)

	marks := make([]Mark, 0, len(s.history))
	for _, f := range s.history {
		for i, c := range f.Processed {
			if f.Start+i < f.End && f.Start+i < len(cols) {
				cols[f.Start+i] = c
			}
		}
		marks = append(marks, Mark{ID: f.ID, Start: f.Start, End: f.End, Verdict: f.Result.Verdict})
	}

	return Frame{
		Tick:      snapshot.Tick,
		Columns:   cols,
		Amplitude: TrailingAverage(snapshot.Amplitudes),
		State:     s.detector.State(),
		Fragments: marks,
	}
}

func (s *soundImpl) History() []Fragment {
	out := make([]Fragment, len(s.history))
	for i, f := range s.history {
		out[i] = *f
	}
	return out
}

func (s *soundImpl) AnalyzeFile(path string) (*Analysis, error) {
	audio, err := template.Decode(s.fileSys, path)
	if err != nil {
		return nil, err
	}

	session := config.NewSession(audio.SampleRate, s.settings.BlockDuration)

	params, processed := spectrogram.Analyze(spectrogram.FromSamples(audio.Samples, session), s.liveOptions(session))

	s.logger.Info(parameterLine("File parameters.", params, s.enabled), zap.String("path", path))

	result, err := matcher.Compare(params, s.table, s.enabled)
	if err != nil {
		return nil, err
	}

	s.logger.Info(result.String())

	return &Analysis{
		Path:       path,
		SampleRate: audio.SampleRate,
		Params:     params,
		Processed:  processed,
		Result:     result,
	}, nil
}
