package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/grounded-search/pkg/types"
)

// Outcome is the result of one query in a batch.
type Outcome struct {
	Query types.Query
	Set   *types.SearchResultSet
	Err   error
}

// SearchBatch runs independent queries with at most parallel searches in
// flight (0 means no limit). A fatal error in one query never cancels the
// others; only cancelling ctx stops the batch. Outcomes are returned in
// input order.
func (e *Engine) SearchBatch(ctx context.Context, queries []types.Query, parallel int) []Outcome {
	out := make([]Outcome, len(queries))

	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = Outcome{Query: q, Err: err}
				return nil
			}
			set, err := e.Search(ctx, q)
			out[i] = Outcome{Query: q, Set: set, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
