package commands

import (
	"fmt"

	"acoustic-listener/template"

	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template <file.wav|folder>...",
	Short: "Build a template and print it as YAML",
	Long: `Build a template from reference recordings and print its parameter values
and bounds as YAML. A folder argument stands for every WAV file inside it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, logger, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		builder, err := template.New(&template.Config{
			FileSys:  fileSys,
			Settings: settings,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		paths, err := expandPaths(args)
		if err != nil {
			return err
		}

		t, err := builder.Build(paths)
		if err != nil {
			return err
		}

		out, err := renderTemplate(t)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
}

// expandPaths replaces folder arguments with the WAV files inside them.
func expandPaths(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		info, err := fileSys.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		files, err := template.ListFolder(fileSys, arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}

	return paths, nil
}
