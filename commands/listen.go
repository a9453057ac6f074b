package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acoustic-listener/clients/notifier"
	"acoustic-listener/config"
	"acoustic-listener/listener"
	"acoustic-listener/sound_extraction"
	"acoustic-listener/template_store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const pollInterval = 5 * time.Millisecond

var (
	deviceIndex   int
	templateFiles []string
	templateDir   string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Capture audio and classify sound fragments",
	Long: `Capture audio from an input device, detect sound fragments and compare
each one against the template. Stop with Ctrl-C.

Without --template or --template-dir every fragment is reported as N/A.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, logger, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		terminate, err := listener.Initialize()
		if err != nil {
			return err
		}
		defer terminate()

		sound, closeStore, err := newExtractor(settings, logger, cmd.OutOrStdout(), deviceOpener(settings, logger))
		if err != nil {
			return err
		}
		defer closeStore()
		defer sound.Close()

		if err := loadTemplate(sound, templateFiles, templateDir); err != nil {
			return err
		}

		if table := sound.Bounds(); table != nil {
			fmt.Fprint(cmd.OutOrStdout(), titleStyle.Render("Bounds")+"\n"+renderBounds(table))
		}

		if err := sound.Start(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return poll(ctx, sound)
	},
}

func init() {
	listenCmd.Flags().IntVarP(&deviceIndex, "device", "d", -1, "input device index (default: first preferred device)")
	addTemplateFlags(listenCmd)

	rootCmd.AddCommand(listenCmd)
}

func addTemplateFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&templateFiles, "template", "t", nil, "template recordings (WAV)")
	cmd.Flags().StringVar(&templateDir, "template-dir", "", "folder of template recordings")
	cmd.MarkFlagsMutuallyExclusive("template", "template-dir")
}

// poll drives the extractor until ctx is done or the capture fails.
func poll(ctx context.Context, sound sound_extraction.Interface) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sound.Poll(); err != nil {
				return err
			}
			if !sound.Listening() {
				return nil
			}
		}
	}
}

// deviceOpener picks the capture device per session: the --device index
// when given, otherwise the first preferred input device.
func deviceOpener(settings *config.Config, logger *zap.Logger) func(config.Session) (listener.Source, error) {
	return func(session config.Session) (listener.Source, error) {
		all, err := listener.Devices()
		if err != nil {
			return nil, err
		}

		listener.LogDevices(logger, all, settings.PreferredDevices)

		dev, err := listener.Choose(all, settings.PreferredDevices, deviceIndex)
		if err != nil {
			return nil, err
		}

		logger.Info("Opening input device.",
			zap.Int("index", dev.Index),
			zap.String("name", dev.Name),
			zap.Int("sampleRate", session.SampleRate))

		return listener.OpenDevice(dev, session)
	}
}

// newExtractor wires the optional template cache and webhook into a sound
// extractor printing every fragment verdict to out.
func newExtractor(
	settings *config.Config,
	logger *zap.Logger,
	out io.Writer,
	open func(config.Session) (listener.Source, error),
) (sound_extraction.Interface, func(), error) {
	cfg := &sound_extraction.Config{
		FileSys:    fileSys,
		Settings:   settings,
		Logger:     logger,
		OpenSource: open,
		Hooks: sound_extraction.Hooks{
			OnFragment: func(f sound_extraction.Fragment) {
				title := fmt.Sprintf("%s  %.2fs", time.Now().Format("15:04:05"), f.Params.Duration)
				fmt.Fprint(out, renderResult(title, f.Result))
				if f.File != "" {
					fmt.Fprintln(out, dimStyle.Render("  saved "+f.File))
				}
			},
		},
	}

	closeStore := func() {}

	if settings.TemplateCacheDir != "" {
		store, err := template_store.New(&template_store.Config{
			Dir:    settings.TemplateCacheDir,
			Logger: logger,
		})
		if err != nil {
			return nil, nil, err
		}

		cfg.Store = store
		closeStore = func() {
			if err := store.Close(); err != nil {
				logger.Warn("Closing template cache failed.", zap.Error(err))
			}
		}
	}

	if settings.NotifyURL != "" {
		client, err := notifier.NewClient(&notifier.Config{URL: settings.NotifyURL})
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		cfg.Notifier = client
	}

	sound, err := sound_extraction.New(cfg)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	return sound, closeStore, nil
}

func loadTemplate(sound sound_extraction.Interface, files []string, dir string) error {
	var err error

	switch {
	case len(files) > 0:
		_, err = sound.LoadTemplate(files)
	case dir != "":
		_, err = sound.LoadTemplateFolder(dir)
	}

	return err
}
