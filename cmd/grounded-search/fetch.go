// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/grounded-search/internal/convert"
	"github.com/pdiddy/grounded-search/internal/extract"
	"github.com/pdiddy/grounded-search/internal/fetch"
	"github.com/pdiddy/grounded-search/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch one page and print it as Markdown",
	Long: `Fetch downloads a single page with the same limits and address checks
used by search, extracts its main content, and prints it as Markdown with a
YAML front matter block. Use --raw to convert the whole page instead of the
main article.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("raw", false, "convert the whole page without article extraction")
	fetchCmd.Flags().Int("max-chars", 0, "truncate the body to this many characters (0 = no limit)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(viper.GetViper())
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetBool("raw")
	maxChars, _ := cmd.Flags().GetInt("max-chars")

	ctx, stop := signalContext()
	defer stop()

	page, err := fetch.New(cfg.Fetch, fetch.WithLogger(logger)).Fetch(ctx, args[0])
	if err != nil {
		return err
	}

	x := extract.New(extract.WithLogger(logger))
	var doc types.ExtractedDocument
	if raw {
		doc = x.ExtractRaw(page)
	} else {
		doc = x.Extract(page)
	}
	if !doc.Status.HasContent() {
		return fmt.Errorf("extracting %s: %s", args[0], doc.Reason)
	}
	if doc.Status == types.ExtractionDegraded {
		logger.Warn("main content not detected; converted whole page",
			zap.String("url", args[0]), zap.String("reason", doc.Reason))
	}

	body := convert.Truncate(doc.Body, maxChars)
	source := doc.FinalURL
	if source == "" {
		source = args[0]
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), convert.AddFrontmatter(source, doc.Title, doc.FetchedAt, body))
	return err
}
