package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/grounded-search/internal/report"
	"github.com/pdiddy/grounded-search/internal/search"
)

var renderCmd = &cobra.Command{
	Use:   "render <results.yaml>",
	Short: "Re-render a saved result set",
	Long: `Render reads a result set written by "search --save" and prints it in the
requested format without contacting Gemini or any cited page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}
		rf, err := search.ReadResultFile(args[0])
		if err != nil {
			return err
		}
		logger.Debug("loaded result file",
			zap.String("path", args[0]),
			zap.Int("results", rf.Summary.Total),
			zap.Time("saved", rf.Summary.Timestamp))
		return report.Write(cmd.OutOrStdout(), format, &rf.Set)
	},
}

func init() {
	renderCmd.Flags().String("format", "markdown", "output format: markdown, table, or json")
	rootCmd.AddCommand(renderCmd)
}
