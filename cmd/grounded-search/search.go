// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/grounded-search/internal/extract"
	"github.com/pdiddy/grounded-search/internal/fetch"
	"github.com/pdiddy/grounded-search/internal/grounding"
	"github.com/pdiddy/grounded-search/internal/report"
	"github.com/pdiddy/grounded-search/internal/search"
	"github.com/pdiddy/grounded-search/internal/secrets"
	"github.com/pdiddy/grounded-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the web in two languages and merge the cited sources",
	Long: `Search grounds the query with Gemini in its own language and in a secondary
language (--lang, default ja), fetches every cited page, and prints the
narrative answers followed by the sources ranked by how many variants cited
them.

With --file, each non-blank line of the file is an independent query; one
failing query does not stop the others.`,
	Args: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file == "" && len(args) == 0 {
			return errors.New("requires a query or --file")
		}
		return nil
	},
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.String("lang", "", "secondary language tag (default from config, ja)")
	f.String("format", "markdown", "output format: markdown, table, or json")
	f.String("save", "", "also save the result set as YAML to this path")
	f.String("api-key", "", "Gemini API key (overrides GEMINI_API_KEY and .secrets/gemini-api-key)")
	f.String("model", "", "Gemini model (default gemini-2.5-flash)")
	f.Int("max-urls", 0, "fetch at most this many unique cited URLs (0 = all)")
	f.Int("max-results", 0, "keep at most this many ranked results (0 = all)")
	f.Int("grounding-concurrency", 0, "grounding calls in flight")
	f.Int("fetch-concurrency", 0, "page fetches in flight")
	f.Bool("no-fetch", false, "ground only; do not fetch the cited pages")
	f.String("file", "", "read queries from a file, one per line")
	f.Int("parallel", 2, "queries in flight with --file")

	bindFlag("search.secondary_language", f.Lookup("lang"))
	bindFlag("grounding.model", f.Lookup("model"))
	bindFlag("fetch.max_urls", f.Lookup("max-urls"))
	bindFlag("search.max_results", f.Lookup("max-results"))
	bindFlag("grounding.concurrency", f.Lookup("grounding-concurrency"))
	bindFlag("fetch.concurrency", f.Lookup("fetch-concurrency"))
	bindFlag("fetch.no_fetch", f.Lookup("no-fetch"))

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := pipelineConfig(viper.GetViper())
	if err != nil {
		return err
	}
	apiKey, _ := cmd.Flags().GetString("api-key")
	resolveAPIKey(&cfg.Grounding, apiKey)

	ctx, stop := signalContext()
	defer stop()

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		parallel, _ := cmd.Flags().GetInt("parallel")
		return runBatch(ctx, cmd.OutOrStdout(), engine, file, parallel, format)
	}

	q := types.Query{Text: strings.Join(args, " "), SecondaryLanguage: cfg.Search.SecondaryLanguage}
	set, err := engine.Search(ctx, q)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := search.WriteResultFile(save, set, cfg); err != nil {
			return err
		}
		logger.Info("saved result set", zap.String("path", save))
	}
	return report.Write(cmd.OutOrStdout(), format, set)
}

func newEngine(ctx context.Context, cfg types.PipelineConfig) (*search.Engine, error) {
	g, err := grounding.NewGemini(ctx, cfg.Grounding, nil)
	if err != nil {
		if errors.Is(err, grounding.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: pass --api-key, set GEMINI_API_KEY, or write .secrets/%s", err, secrets.GeminiAPIKey)
		}
		return nil, err
	}
	f := fetch.New(cfg.Fetch, fetch.WithLogger(logger))
	return search.New(g, f, cfg,
		search.WithLogger(logger),
		search.WithExtractor(extract.New(extract.WithLogger(logger))),
	), nil
}

// runBatch searches every query in file. Per-query failures are reported
// and the command fails only when no query succeeded.
func runBatch(ctx context.Context, w io.Writer, engine *search.Engine, file string, parallel int, format report.Format) error {
	queries, err := readQueries(file)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no queries in %s", file)
	}

	var failed int
	for i, out := range engine.SearchBatch(ctx, queries, parallel) {
		if out.Err != nil {
			failed++
			logger.Error("query failed", zap.String("query", out.Query.Text), zap.Error(out.Err))
			continue
		}
		if i > 0 && format != report.FormatJSON {
			fmt.Fprintln(w)
		}
		if err := report.Write(w, format, out.Set); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed == len(queries) {
		return fmt.Errorf("all %d queries failed", failed)
	}
	return nil
}

func readQueries(path string) ([]types.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening query file: %w", err)
	}
	defer f.Close()

	lang := viper.GetString("search.secondary_language")
	var queries []types.Query
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, types.Query{Text: line, SecondaryLanguage: lang})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	return queries, nil
}
