package commands

import (
	"fmt"
	"os"
	"time"

	"acoustic-listener/config"
	"acoustic-listener/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// fileSys backs configuration, templates, recordings and logs.
	fileSys afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "acoustic-listener",
	Short: "Detect and classify acoustic events from a live audio input",
	Long: `acoustic-listener - listens to an audio input device, cuts loud sound
fragments out of the signal and compares each one against a template built
from reference recordings.

Matched fragments are saved as WAV files and optionally reported to a webhook.

Examples:
  # List the capture devices
  acoustic-listener devices

  # Build a template and print its parameters
  acoustic-listener template refs/*.wav

  # Listen with a template folder
  acoustic-listener listen --template-dir refs

  # Compare recordings against a template
  acoustic-listener analyze --template-dir refs sample.wav`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads the settings and opens the session logger. The returned
// function flushes and closes the log file.
func setup() (*config.Config, *zap.Logger, func(), error) {
	settings, err := config.Load(fileSys, configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closeLog, err := logging.NewFile(fileSys, settings.LogDir, time.Now())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open log: %w", err)
	}

	if verbose {
		debug := logging.New(os.Stderr, zapcore.DebugLevel)
		logger = zap.New(zapcore.NewTee(logger.Core(), debug.Core()))
	}

	cleanup := func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: close log: %v\n", err)
		}
	}

	return settings, logger, cleanup, nil
}
