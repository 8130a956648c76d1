// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs one bilingual grounded search end to end: it expands
// the query into language variants, grounds every variant concurrently,
// fetches and extracts every cited page concurrently, and merges the
// citations into one ranked, deduplicated result set.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/grounded-search/internal/bilingual"
	"github.com/pdiddy/grounded-search/internal/extract"
	"github.com/pdiddy/grounded-search/internal/fetch"
	"github.com/pdiddy/grounded-search/internal/grounding"
	"github.com/pdiddy/grounded-search/internal/httputil"
	"github.com/pdiddy/grounded-search/pkg/types"
)

// State is a stage of one search execution.
type State int

const (
	Expanding State = iota
	Grounding
	Fetching
	Merging
	Done
)

func (s State) String() string {
	switch s {
	case Expanding:
		return "expanding"
	case Grounding:
		return "grounding"
	case Fetching:
		return "fetching"
	case Merging:
		return "merging"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Expander turns a query into language variants.
type Expander interface {
	Expand(q types.Query) ([]types.QueryVariant, error)
}

// Extractor turns a fetched page into a document. It must not fail.
type Extractor interface {
	Extract(page *fetch.Page) types.ExtractedDocument
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExpander replaces the default bilingual expander.
func WithExpander(x Expander) Option {
	return func(e *Engine) { e.expander = x }
}

// WithExtractor replaces the default page extractor.
func WithExtractor(x Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRunID overrides run identifier generation.
func WithRunID(f func() string) Option {
	return func(e *Engine) { e.newRunID = f }
}

// Engine executes searches. It holds only read-only configuration and
// collaborators, so one Engine may serve many concurrent searches.
type Engine struct {
	cfg       types.PipelineConfig
	expander  Expander
	grounder  grounding.Grounder
	fetcher   fetch.Fetcher
	extractor Extractor
	logger    *zap.Logger
	now       func() time.Time
	newRunID  func() string
}

// New creates an Engine. Zero concurrency and retry settings take the
// values of types.DefaultPipelineConfig.
func New(g grounding.Grounder, f fetch.Fetcher, cfg types.PipelineConfig, opts ...Option) *Engine {
	def := types.DefaultPipelineConfig()
	if cfg.Grounding.Concurrency <= 0 {
		cfg.Grounding.Concurrency = def.Grounding.Concurrency
	}
	if cfg.Fetch.Concurrency <= 0 {
		cfg.Fetch.Concurrency = def.Fetch.Concurrency
	}
	if cfg.Grounding.Retry.MaxAttempts <= 0 {
		cfg.Grounding.Retry = def.Grounding.Retry
	}
	if cfg.Search.SnippetChars <= 0 {
		cfg.Search.SnippetChars = def.Search.SnippetChars
	}

	e := &Engine{
		cfg:       cfg,
		expander:  bilingual.New(cfg.Search),
		grounder:  g,
		fetcher:   f,
		extractor: extract.New(),
		logger:    zap.NewNop(),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs q through every stage and returns the ranked result set.
//
// The only errors returned are fatal ones: an *bilingual.ExpansionError, an
// Unauthorized *grounding.Error, or the context error when ctx is cancelled.
// Failed variants and pages degrade the result set instead. An empty set is
// a valid outcome.
func (e *Engine) Search(ctx context.Context, q types.Query) (*types.SearchResultSet, error) {
	start := e.now()
	runID := e.newRunID()
	log := e.logger.With(zap.String("run_id", runID))

	enter(log, Expanding)
	variants, err := e.expander.Expand(q)
	if err != nil {
		log.Warn("query expansion failed", zap.Error(err))
		return nil, err
	}
	for _, v := range variants {
		log.Debug("variant", zap.String("lang", v.Language), zap.String("variant", v.Text))
	}

	enter(log, Grounding)
	answers, variantErrs, err := e.groundAll(ctx, log, variants)
	if err != nil {
		return nil, err
	}

	enter(log, Fetching)
	sources := collectSources(answers, log)
	docs, err := e.fetchAll(ctx, log, sources)
	if err != nil {
		return nil, err
	}

	enter(log, Merging)
	results := merge(sources, docs, e.cfg.Search.SnippetChars)
	if n := e.cfg.Search.MaxResults; n > 0 && len(results) > n {
		results = results[:n]
	}

	set := &types.SearchResultSet{
		RunID:         runID,
		Query:         q,
		Results:       results,
		Answers:       variantAnswers(answers),
		VariantErrors: variantErrs,
		StartedAt:     start.UTC(),
		Duration:      e.now().Sub(start),
	}

	enter(log, Done)
	log.Info("search complete",
		zap.Int("variants", len(variants)),
		zap.Int("sources", len(sources)),
		zap.Int("results", len(set.Results)),
		zap.Int("variant_errors", len(variantErrs)),
		zap.Duration("duration", set.Duration))
	return set, nil
}

func enter(log *zap.Logger, s State) {
	log.Debug("state", zap.Stringer("state", s))
}

// groundAll grounds every variant with at most Grounding.Concurrency calls
// in flight. Answers are indexed by variant; a variant that failed
// non-fatally has a nil entry and a line in the returned error list.
func (e *Engine) groundAll(ctx context.Context, log *zap.Logger, variants []types.QueryVariant) ([]*types.GroundedAnswer, []string, error) {
	answers := make([]*types.GroundedAnswer, len(variants))
	failures := make([]error, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Grounding.Concurrency)
	for i, v := range variants {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ans, err := e.groundVariant(gctx, log, v)
			switch {
			case err == nil:
				answers[i] = &ans
				return nil
			case grounding.IsFatal(err):
				log.Error("grounding unauthorized", zap.String("lang", v.Language), zap.Error(err))
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				log.Warn("variant degraded to no citations",
					zap.String("lang", v.Language),
					zap.String("variant", v.Text),
					zap.Error(err))
				failures[i] = err
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	var msgs []string
	for i, err := range failures {
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("%s: %v", variants[i].Language, err))
		}
	}
	return answers, msgs, nil
}

// groundVariant calls the grounder, retrying rate limits and outages with
// exponential backoff.
func (e *Engine) groundVariant(ctx context.Context, log *zap.Logger, v types.QueryVariant) (types.GroundedAnswer, error) {
	var ans types.GroundedAnswer
	err := httputil.Retry(ctx, httputil.PolicyFrom(e.cfg.Grounding.Retry), func(ctx context.Context) error {
		a, err := e.grounder.Ground(ctx, v)
		if err != nil {
			return err
		}
		ans = a
		return nil
	}, grounding.IsRetryable, func(attempt int, err error) {
		log.Info("retrying grounding",
			zap.String("lang", v.Language),
			zap.Int("attempt", attempt),
			zap.Error(err))
	})
	if err != nil {
		return types.GroundedAnswer{}, err
	}
	log.Debug("variant grounded",
		zap.String("lang", v.Language),
		zap.Int("citations", len(ans.Citations)))
	return ans, nil
}

// fetchAll fetches and extracts every source with at most
// Fetch.Concurrency requests in flight. docs[i] belongs to sources[i].
// Sources beyond Fetch.MaxURLs are marked skipped without a request.
func (e *Engine) fetchAll(ctx context.Context, log *zap.Logger, sources []*source) ([]types.ExtractedDocument, error) {
	docs := make([]types.ExtractedDocument, len(sources))
	limit := e.cfg.Fetch.MaxURLs

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Fetch.Concurrency)
	if e.cfg.Fetch.NoFetch {
		for i, s := range sources {
			docs[i] = extract.Skipped(s.fetchURL, "fetching disabled")
		}
		log.Debug("fetching disabled", zap.Int("sources", len(sources)))
		return docs, nil
	}

	for i, s := range sources {
		if limit > 0 && i >= limit {
			docs[i] = extract.Skipped(s.fetchURL, fmt.Sprintf("beyond fetch limit of %d URLs", limit))
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			page, err := e.fetcher.Fetch(gctx, s.fetchURL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Info("fetch failed", zap.String("url", s.fetchURL), zap.Error(err))
				docs[i] = extract.Failed(s.fetchURL, err)
				return nil
			}
			doc := e.extractor.Extract(page)
			log.Debug("page extracted",
				zap.String("url", s.fetchURL),
				zap.String("status", string(doc.Status)))
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return docs, nil
}

func variantAnswers(answers []*types.GroundedAnswer) []types.VariantAnswer {
	var out []types.VariantAnswer
	for _, a := range answers {
		if a == nil {
			continue
		}
		out = append(out, types.VariantAnswer{Variant: a.Variant, Answer: a.Answer})
	}
	return out
}
