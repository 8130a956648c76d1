package search

import (
	"net/url"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/grounded-search/internal/convert"
	"github.com/pdiddy/grounded-search/pkg/types"
)

// source accumulates everything known about one normalized URL before it
// becomes a SearchResult.
type source struct {
	key      string // normalized URL
	fetchURL string // URL as first cited
	citation types.Citation
	langs    map[string]bool
	count    int
	first    int // position of first citation across variant order
}

// collectSources deduplicates citations by normalized URL in order of first
// appearance. answers is indexed by variant; nil entries contributed nothing.
func collectSources(answers []*types.GroundedAnswer, log *zap.Logger) []*source {
	seen := make(map[string]int) // normalized URL → index in sources
	var sources []*source
	pos := 0

	for _, ans := range answers {
		if ans == nil {
			continue
		}
		for _, c := range ans.Citations {
			pos++
			key, err := NormalizeURL(c.URL)
			if err != nil {
				log.Warn("skipping citation", zap.String("url", c.URL), zap.Error(err))
				continue
			}
			if idx, ok := seen[key]; ok {
				mergeCitation(sources[idx], ans.Variant.Language, c)
				continue
			}
			seen[key] = len(sources)
			sources = append(sources, &source{
				key:      key,
				fetchURL: c.URL,
				citation: c,
				langs:    map[string]bool{ans.Variant.Language: true},
				count:    1,
				first:    pos,
			})
		}
	}
	return sources
}

// mergeCitation records another citation of s and fills empty citation
// fields from c.
func mergeCitation(s *source, lang string, c types.Citation) {
	s.count++
	s.langs[lang] = true
	if s.citation.Title == "" && c.Title != "" {
		s.citation.Title = c.Title
	}
	if s.citation.Snippet == "" && c.Snippet != "" {
		s.citation.Snippet = c.Snippet
	}
}

type ranked struct {
	result types.SearchResult
	first  int
}

// merge builds one SearchResult per source, pairing sources[i] with docs[i],
// and returns them in rank order.
func merge(sources []*source, docs []types.ExtractedDocument, snippetChars int) []types.SearchResult {
	rs := make([]ranked, len(sources))
	for i, s := range sources {
		rs[i] = ranked{result: buildResult(s, docs[i], snippetChars), first: s.first}
	}
	rank(rs)

	results := make([]types.SearchResult, len(rs))
	for i, r := range rs {
		results[i] = r.result
	}
	return results
}

// rank orders by citation count descending, then first appearance, then
// normalized URL.
func rank(rs []ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.result.CitationCount != b.result.CitationCount {
			return a.result.CitationCount > b.result.CitationCount
		}
		if a.first != b.first {
			return a.first < b.first
		}
		return a.result.URL < b.result.URL
	})
}

func buildResult(s *source, doc types.ExtractedDocument, snippetChars int) types.SearchResult {
	status := doc.Status
	if status == "" {
		status = types.ExtractionFailed
	}
	r := types.SearchResult{
		URL:             s.key,
		SourceLanguages: sortedKeys(s.langs),
		CitationCount:   s.count,
		Status:          status,
		Reason:          doc.Reason,
	}

	hasContent := status.HasContent() && doc.Body != ""
	if hasContent {
		r.Body = doc.Body
	}

	switch {
	case hasContent && doc.Title != "":
		r.Title = doc.Title
	case s.citation.Title != "":
		r.Title = s.citation.Title
	default:
		r.Title = hostOf(s.key)
	}

	switch {
	case hasContent:
		r.Snippet = convert.Truncate(convert.NormalizeWhitespace(doc.Body), snippetChars)
	case s.citation.Snippet != "":
		r.Snippet = convert.Truncate(s.citation.Snippet, snippetChars)
	default:
		r.Snippet = r.Title
	}
	return r
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
