package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>...",
	Short: "Compare recordings against the template",
	Long: `Analyze WAV recordings the same way captured fragments are analyzed and
print the comparison against the template for each of them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, logger, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		sound, closeStore, err := newExtractor(settings, logger, cmd.OutOrStdout(), nil)
		if err != nil {
			return err
		}
		defer closeStore()
		defer sound.Close()

		if err := loadTemplate(sound, templateFiles, templateDir); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, path := range args {
			analysis, err := sound.AnalyzeFile(path)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", path, err)
			}

			fmt.Fprint(out, renderResult(path, analysis.Result))
		}

		return nil
	},
}

func init() {
	addTemplateFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}
