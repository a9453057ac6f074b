package commands

import (
	"fmt"

	"acoustic-listener/listener"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the audio input devices",
	Long: `List the audio input devices known to PortAudio.

Devices matching one of the preferred_devices names from the settings are
marked with '*'; the first of them is used when listen runs without --device.`,
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

		all, err := listener.Devices()
		if err != nil {
			return err
		}

		listener.LogDevices(logger, all, settings.PreferredDevices)

		fmt.Fprint(cmd.OutOrStdout(), renderDevices(all, settings.PreferredDevices))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
