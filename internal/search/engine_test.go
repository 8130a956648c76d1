// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/grounded-search/internal/bilingual"
	"github.com/pdiddy/grounded-search/internal/fetch"
	"github.com/pdiddy/grounded-search/internal/grounding"
	"github.com/pdiddy/grounded-search/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// --- fakes ---

// fakeGrounder answers by variant language. failures[lang] errors are
// returned for the first failTimes[lang] calls (forever when negative).
type fakeGrounder struct {
	mu        sync.Mutex
	answers   map[string][]types.Citation
	failures  map[string]error
	failTimes map[string]int
	calls     map[string]int
	block     bool
	inFlight  atomic.Int32
	maxSeen   atomic.Int32
}

func (f *fakeGrounder) Ground(ctx context.Context, v types.QueryVariant) (types.GroundedAnswer, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[v.Language]++
	n := f.calls[v.Language]
	err := f.failures[v.Language]
	limit, hasLimit := f.failTimes[v.Language]
	f.mu.Unlock()

	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if cur <= m || f.maxSeen.CompareAndSwap(m, cur) {
			break
		}
	}

	if f.block {
		<-ctx.Done()
		return types.GroundedAnswer{}, ctx.Err()
	}
	if err != nil && (!hasLimit || limit < 0 || n <= limit) {
		return types.GroundedAnswer{}, err
	}
	time.Sleep(2 * time.Millisecond)
	return types.GroundedAnswer{
		Variant:   v,
		Answer:    "answer in " + v.Language,
		Citations: f.answers[v.Language],
	}, nil
}

func (f *fakeGrounder) callCount(lang string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[lang]
}

// fakeFetcher serves canned pages keyed by URL. Unknown URLs are
// unreachable; slow URLs block until ctx is done.
type fakeFetcher struct {
	pages    map[string]string
	errs     map[string]error
	slow     map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	fetched  sync.Map
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Page, error) {
	f.fetched.Store(rawURL, true)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if f.slow[rawURL] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &fetch.Error{Kind: fetch.Unreachable, URL: rawURL, Err: errors.New("no such host")}
	}
	// Give concurrent fetches a chance to overlap.
	time.Sleep(2 * time.Millisecond)
	return &fetch.Page{URL: rawURL, FinalURL: rawURL, ContentType: "text/x-test", Body: []byte(body)}, nil
}

// fixedExpander returns the same variants for every query.
type fixedExpander []types.QueryVariant

func (x fixedExpander) Expand(types.Query) ([]types.QueryVariant, error) {
	return x, nil
}

// fakeExtractor treats the first line of the body as the title.
type fakeExtractor struct{}

func (fakeExtractor) Extract(p *fetch.Page) types.ExtractedDocument {
	title, body, _ := strings.Cut(string(p.Body), "\n")
	return types.ExtractedDocument{
		URL:      p.URL,
		FinalURL: p.FinalURL,
		Title:    title,
		Body:     body,
		Status:   types.ExtractionOK,
	}
}

func testPipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	cfg.Grounding.Retry = types.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	cfg.Fetch.Concurrency = 2
	return cfg
}

func newTestEngine(g grounding.Grounder, f fetch.Fetcher, cfg types.PipelineConfig, opts ...Option) *Engine {
	return New(g, f, cfg, append([]Option{
		WithExtractor(fakeExtractor{}),
		WithRunID(func() string { return "run-1" }),
	}, opts...)...)
}

var (
	urlTokio    = "https://tokio.rs/"
	urlAsyncStd = "https://async.rs/"
	urlSmol     = "https://github.com/smol-rs/smol"
)

func e2eFixture() (*fakeGrounder, *fakeFetcher) {
	// The ja variant cites both overlapping URLs in a different textual form.
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {
			{URL: urlTokio, Title: "Tokio", Snippet: "An asynchronous runtime"},
			{URL: urlAsyncStd, Title: "async-std", Snippet: "Async version of std"},
			{URL: urlSmol, Title: "smol", Snippet: "A small runtime"},
		},
		"ja": {
			{URL: "https://async.rs", Title: "async-std 日本語", Snippet: "標準ライブラリの非同期版"},
			{URL: "HTTPS://Tokio.RS/#install", Title: "Tokio (ja)", Snippet: "ランタイム"},
		},
	}}
	f := &fakeFetcher{pages: map[string]string{
		urlTokio:    "Tokio\nTokio is an event-driven, non-blocking I/O platform.",
		urlAsyncStd: "async-std\nAsync version of the Rust standard library.",
		urlSmol:     "smol\nA small and fast async runtime.",
	}}
	return g, f
}

// --- end to end ---

func TestSearch_EndToEnd(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {
			{URL: urlTokio, Title: "Tokio", Snippet: "An asynchronous runtime"},
			{URL: urlAsyncStd, Title: "async-std", Snippet: "Async version of std"},
			{URL: urlSmol, Title: "smol", Snippet: "A small runtime"},
		},
		"ja": {
			{URL: "https://async.rs", Title: "async-std 日本語", Snippet: "標準ライブラリの非同期版"},
		},
	}}
	f := &fakeFetcher{pages: map[string]string{
		urlTokio:    "Tokio\nTokio is an event-driven, non-blocking I/O platform.",
		urlAsyncStd: "async-std\nAsync version of the Rust standard library.",
		urlSmol:     "smol\nA small and fast async runtime.",
	}}

	set, err := newTestEngine(g, f, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust async runtimes", SecondaryLanguage: "ja"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", set.RunID)
	require.Len(t, set.Results, 3)

	top := set.Results[0]
	assert.Equal(t, "https://async.rs", top.URL)
	assert.Equal(t, 2, top.CitationCount)
	assert.Equal(t, []string{"en", "ja"}, top.SourceLanguages)
	assert.Equal(t, "async-std", top.Title)
	assert.Equal(t, types.ExtractionOK, top.Status)

	assert.Equal(t, "https://tokio.rs", set.Results[1].URL)
	assert.Equal(t, "https://github.com/smol-rs/smol", set.Results[2].URL)
	for _, r := range set.Results[1:] {
		assert.Equal(t, 1, r.CitationCount)
		assert.Equal(t, []string{"en"}, r.SourceLanguages)
	}

	require.Len(t, set.Answers, 2)
	assert.Equal(t, "en", set.Answers[0].Variant.Language)
	assert.Equal(t, "ja", set.Answers[1].Variant.Language)
	assert.Empty(t, set.VariantErrors)
}

func TestSearch_OverlapAcrossNormalizationVariants(t *testing.T) {
	g, f := e2eFixture()

	set, err := newTestEngine(g, f, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust async runtimes", SecondaryLanguage: "ja"})
	require.NoError(t, err)

	// Equal counts fall back to first appearance: Tokio was cited first.
	require.Len(t, set.Results, 3)
	assert.Equal(t, "https://tokio.rs", set.Results[0].URL)
	assert.Equal(t, "https://async.rs", set.Results[1].URL)
	assert.Equal(t, 2, set.Results[0].CitationCount)
	assert.Equal(t, 2, set.Results[1].CitationCount)
	assert.Equal(t, []string{"en", "ja"}, set.Results[0].SourceLanguages)
	assert.Equal(t, "Tokio", set.Results[0].Title)
	assert.Equal(t, "https://github.com/smol-rs/smol", set.Results[2].URL)
}

func TestSearch_UniqueURLsAndExactCounts(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {
			{URL: "https://a.example/x"},
			{URL: "https://A.example/x/"},
			{URL: "https://b.example/"},
		},
		"ja": {
			{URL: "https://a.example/x#frag"},
			{URL: "https://b.example:443"},
		},
	}}
	f := &fakeFetcher{pages: map[string]string{}}

	set, err := newTestEngine(g, f, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "q", SecondaryLanguage: "ja"})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range set.Results {
		assert.False(t, seen[r.URL], "duplicate %s", r.URL)
		seen[r.URL] = true
	}
	require.Len(t, set.Results, 2)
	assert.Equal(t, "https://a.example/x", set.Results[0].URL)
	assert.Equal(t, 3, set.Results[0].CitationCount)
	assert.Equal(t, "https://b.example", set.Results[1].URL)
	assert.Equal(t, 2, set.Results[1].CitationCount)
}

func TestSearch_Deterministic(t *testing.T) {
	var orders [][]string
	for i := 0; i < 5; i++ {
		g, f := e2eFixture()
		set, err := newTestEngine(g, f, testPipelineConfig()).
			Search(context.Background(), types.Query{Text: "rust async runtimes", SecondaryLanguage: "ja"})
		require.NoError(t, err)

		var order []string
		for _, r := range set.Results {
			order = append(order, r.URL)
		}
		orders = append(orders, order)
	}
	for _, o := range orders[1:] {
		assert.Equal(t, orders[0], o)
	}
}

// --- degradation ---

func TestSearch_FetchTimeoutKeepsCitationTitle(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {
			{URL: urlTokio, Title: "Tokio", Snippet: "An asynchronous runtime"},
			{URL: urlSmol, Title: "smol", Snippet: "A small runtime"},
		},
	}}
	f := &fakeFetcher{
		pages: map[string]string{urlSmol: "smol\nA small and fast async runtime."},
		errs:  map[string]error{urlTokio: &fetch.Error{Kind: fetch.Timeout, URL: urlTokio}},
	}

	set, err := newTestEngine(g, f, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust async runtimes", SecondaryLanguage: "ja"})
	require.NoError(t, err)
	require.Len(t, set.Results, 2)

	failed := set.Results[0]
	assert.Equal(t, "https://tokio.rs", failed.URL)
	assert.Equal(t, types.ExtractionFailed, failed.Status)
	assert.Equal(t, "timeout", failed.Reason)
	assert.Equal(t, "Tokio", failed.Title)
	assert.Equal(t, "An asynchronous runtime", failed.Snippet)
	assert.Empty(t, failed.Body)

	assert.Equal(t, types.ExtractionOK, set.Results[1].Status)
	assert.Equal(t, "A small and fast async runtime.", set.Results[1].Snippet)
}

func TestSearch_FailedFetchWithoutCitationTextUsesHost(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {{URL: "https://bare.example/page"}},
	}}
	set, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "q", SecondaryLanguage: "ja"})
	require.NoError(t, err)
	require.Len(t, set.Results, 1)
	assert.Equal(t, "bare.example", set.Results[0].Title)
	assert.Equal(t, "bare.example", set.Results[0].Snippet)
	assert.Equal(t, types.ExtractionFailed, set.Results[0].Status)
}

func TestSearch_RateLimitedVariantDegrades(t *testing.T) {
	g := &fakeGrounder{
		answers: map[string][]types.Citation{
			"en": {{URL: urlTokio, Title: "Tokio"}},
			"ja": {{URL: urlSmol, Title: "smol"}, {URL: urlAsyncStd, Title: "async-std"}},
		},
		failures: map[string]error{"en": &grounding.Error{Kind: grounding.RateLimited, Code: 429}},
	}
	f := &fakeFetcher{pages: map[string]string{
		urlSmol:     "smol\nsmall",
		urlAsyncStd: "async-std\nstd",
	}}

	set, err := newTestEngine(g, f, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust async runtimes", SecondaryLanguage: "ja"})
	require.NoError(t, err)

	require.Len(t, set.Results, 2)
	for _, r := range set.Results {
		assert.Equal(t, []string{"ja"}, r.SourceLanguages)
		assert.NotEqual(t, "https://tokio.rs", r.URL)
	}
	assert.Equal(t, 3, g.callCount("en"), "rate-limited variant should use every attempt")
	require.Len(t, set.VariantErrors, 1)
	assert.True(t, strings.HasPrefix(set.VariantErrors[0], "en: "))
	require.Len(t, set.Answers, 1)
	assert.Equal(t, "ja", set.Answers[0].Variant.Language)
}

func TestSearch_TransientFailureRecovers(t *testing.T) {
	g := &fakeGrounder{
		answers:   map[string][]types.Citation{"en": {{URL: urlTokio, Title: "Tokio"}}},
		failures:  map[string]error{"en": &grounding.Error{Kind: grounding.Unavailable}},
		failTimes: map[string]int{"en": 2},
	}
	set, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust", SecondaryLanguage: "ja"})
	require.NoError(t, err)

	assert.Equal(t, 3, g.callCount("en"))
	require.Len(t, set.Results, 1)
	assert.Empty(t, set.VariantErrors)
}

func TestSearch_InvalidResponseNotRetried(t *testing.T) {
	g := &fakeGrounder{
		answers:  map[string][]types.Citation{"en": {{URL: urlTokio}}, "ja": {{URL: urlSmol}}},
		failures: map[string]error{"ja": &grounding.Error{Kind: grounding.InvalidResponse}},
	}
	set, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust", SecondaryLanguage: "ja"})
	require.NoError(t, err)

	assert.Equal(t, 1, g.callCount("ja"))
	require.Len(t, set.Results, 1)
	assert.Equal(t, "https://tokio.rs", set.Results[0].URL)
	assert.Len(t, set.VariantErrors, 1)
}

func TestSearch_AllVariantsDegradedIsEmptySet(t *testing.T) {
	g := &fakeGrounder{failures: map[string]error{
		"en": &grounding.Error{Kind: grounding.Unavailable},
		"ja": &grounding.Error{Kind: grounding.RateLimited},
	}}
	set, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust", SecondaryLanguage: "ja"})
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Equal(t, 0, set.Len())
	assert.Len(t, set.VariantErrors, 2)
}

// --- fatal errors ---

func TestSearch_UnauthorizedIsFatal(t *testing.T) {
	g := &fakeGrounder{
		answers:  map[string][]types.Citation{"ja": {{URL: urlSmol}}},
		failures: map[string]error{"en": &grounding.Error{Kind: grounding.Unauthorized, Code: 403}},
	}
	set, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust", SecondaryLanguage: "ja"})

	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, grounding.IsFatal(err))
	assert.Equal(t, 1, g.callCount("en"))
}

func TestSearch_ExpansionErrorIsFatal(t *testing.T) {
	g := &fakeGrounder{}
	_, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "rust", SecondaryLanguage: "xx"})

	var expErr *bilingual.ExpansionError
	require.ErrorAs(t, err, &expErr)
	assert.ErrorIs(t, err, bilingual.ErrUnsupportedLanguage)
	assert.Equal(t, 0, g.callCount("en"))
}

// --- cancellation ---

func TestSearch_CancelDuringGrounding(t *testing.T) {
	g := &fakeGrounder{block: true}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	set, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(ctx, types.Query{Text: "rust", SecondaryLanguage: "ja"})

	assert.Nil(t, set)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSearch_CancelDuringFetching(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {{URL: urlTokio}, {URL: urlSmol}},
	}}
	f := &fakeFetcher{slow: map[string]bool{urlTokio: true, urlSmol: true}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	set, err := newTestEngine(g, f, testPipelineConfig()).
		Search(ctx, types.Query{Text: "rust", SecondaryLanguage: "ja"})
	assert.Nil(t, set)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- limits ---

func TestSearch_FetchConcurrencyBounded(t *testing.T) {
	var cites []types.Citation
	pages := make(map[string]string)
	for _, host := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		u := "https://" + host + ".example/"
		cites = append(cites, types.Citation{URL: u})
		pages[u] = host + "\nbody"
	}
	g := &fakeGrounder{answers: map[string][]types.Citation{"en": cites}}
	f := &fakeFetcher{pages: pages}

	cfg := testPipelineConfig()
	cfg.Fetch.Concurrency = 3
	set, err := newTestEngine(g, f, cfg).Search(context.Background(), types.Query{Text: "q", SecondaryLanguage: "ja"})
	require.NoError(t, err)

	assert.Len(t, set.Results, 8)
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(3))
}

func TestSearch_GroundingConcurrencyBounded(t *testing.T) {
	variants := fixedExpander{
		{Text: "q", Language: "en"},
		{Text: "q", Language: "ja"},
		{Text: "q", Language: "de"},
		{Text: "q", Language: "fr"},
	}
	tests := []struct {
		name  string
		limit int
	}{
		{"serial", 1},
		{"pair", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGrounder{answers: map[string][]types.Citation{
				"en": {{URL: urlTokio}},
				"ja": {{URL: urlAsyncStd}},
				"de": {{URL: urlSmol}},
				"fr": {{URL: urlTokio}},
			}}
			f := &fakeFetcher{pages: map[string]string{
				urlTokio:    "Tokio\nbody",
				urlAsyncStd: "async-std\nbody",
				urlSmol:     "smol\nbody",
			}}

			cfg := testPipelineConfig()
			cfg.Grounding.Concurrency = tt.limit
			set, err := newTestEngine(g, f, cfg, WithExpander(variants)).
				Search(context.Background(), types.Query{Text: "q"})
			require.NoError(t, err)

			assert.Len(t, set.Answers, 4)
			assert.LessOrEqual(t, g.maxSeen.Load(), int32(tt.limit))
			for _, v := range variants {
				assert.Equal(t, 1, g.callCount(v.Language), v.Language)
			}
		})
	}
}

func TestSearch_MaxURLsMarksSkipped(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {{URL: urlTokio, Title: "Tokio"}, {URL: urlAsyncStd, Title: "async-std"}, {URL: urlSmol, Title: "smol", Snippet: "small"}},
	}}
	f := &fakeFetcher{pages: map[string]string{
		urlTokio:    "Tokio\nbody",
		urlAsyncStd: "async-std\nbody",
		urlSmol:     "smol\nbody",
	}}

	cfg := testPipelineConfig()
	cfg.Fetch.MaxURLs = 2
	set, err := newTestEngine(g, f, cfg).Search(context.Background(), types.Query{Text: "q", SecondaryLanguage: "ja"})
	require.NoError(t, err)
	require.Len(t, set.Results, 3)

	last := set.Results[2]
	assert.Equal(t, types.ExtractionSkipped, last.Status)
	assert.Equal(t, "smol", last.Title)
	assert.Equal(t, "small", last.Snippet)
	_, fetched := f.fetched.Load(urlSmol)
	assert.False(t, fetched)
}

func TestSearch_NoFetchSkipsEveryPage(t *testing.T) {
	g, f := e2eFixture()
	cfg := testPipelineConfig()
	cfg.Fetch.NoFetch = true

	set, err := newTestEngine(g, f, cfg).Search(context.Background(), types.Query{Text: "rust async runtimes", SecondaryLanguage: "ja"})
	require.NoError(t, err)
	require.Len(t, set.Results, 3)

	titles := map[string]string{
		"https://tokio.rs":                "Tokio",
		"https://async.rs":                "async-std",
		"https://github.com/smol-rs/smol": "smol",
	}
	for _, r := range set.Results {
		assert.Equal(t, types.ExtractionSkipped, r.Status, r.URL)
		assert.Equal(t, titles[r.URL], r.Title, r.URL)
		assert.NotEmpty(t, r.Snippet, r.URL)
	}
	assert.Zero(t, f.maxSeen.Load())
	for _, u := range []string{urlTokio, urlAsyncStd, urlSmol} {
		_, fetched := f.fetched.Load(u)
		assert.False(t, fetched, u)
	}
}

func TestSearch_MaxResultsTruncates(t *testing.T) {
	g, f := e2eFixture()
	cfg := testPipelineConfig()
	cfg.Search.MaxResults = 1

	set, err := newTestEngine(g, f, cfg).Search(context.Background(), types.Query{Text: "rust async runtimes", SecondaryLanguage: "ja"})
	require.NoError(t, err)
	require.Len(t, set.Results, 1)
	assert.Equal(t, "https://tokio.rs", set.Results[0].URL)
}

func TestSearch_SkipsUnnormalizableCitations(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {{URL: "ftp://files.example/x"}, {URL: "not a url"}, {URL: urlTokio, Title: "Tokio"}},
	}}
	set, err := newTestEngine(g, &fakeFetcher{}, testPipelineConfig()).
		Search(context.Background(), types.Query{Text: "q", SecondaryLanguage: "ja"})
	require.NoError(t, err)
	require.Len(t, set.Results, 1)
	assert.Equal(t, "https://tokio.rs", set.Results[0].URL)
}

// --- batch ---

func TestSearchBatch_IndependentQueries(t *testing.T) {
	g := &fakeGrounder{answers: map[string][]types.Citation{
		"en": {{URL: urlTokio, Title: "Tokio"}},
		"ja": {{URL: urlTokio, Title: "Tokio"}},
		"de": {{URL: urlSmol, Title: "smol"}},
	}}
	e := newTestEngine(g, &fakeFetcher{}, testPipelineConfig())

	out := e.SearchBatch(context.Background(), []types.Query{
		{Text: "rust", SecondaryLanguage: "ja"},
		{Text: "rust", SecondaryLanguage: "klingon"},
		{Text: "rust", SecondaryLanguage: "de"},
	}, 2)

	require.Len(t, out, 3)
	require.NoError(t, out[0].Err)
	assert.Equal(t, 1, out[0].Set.Len())

	assert.ErrorIs(t, out[1].Err, bilingual.ErrUnsupportedLanguage)
	assert.Nil(t, out[1].Set)

	require.NoError(t, out[2].Err)
	assert.Equal(t, 2, out[2].Set.Len())
}

func TestSearchBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestEngine(&fakeGrounder{}, &fakeFetcher{}, testPipelineConfig()).
		SearchBatch(ctx, []types.Query{{Text: "a"}, {Text: "b"}}, 0)
	for _, o := range out {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "expanding", Expanding.String())
	assert.Equal(t, "grounding", Grounding.String())
	assert.Equal(t, "fetching", Fetching.String())
	assert.Equal(t, "merging", Merging.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "state(9)", State(9).String())
}
