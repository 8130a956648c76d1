// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the grounded-search pipeline:
// queries and their language variants, grounded answers with citations,
// extracted documents, and the merged result set handed to formatters.
package types

import "time"

// Query is a user-supplied search string plus the secondary language the
// search should also be run in. A Query is not modified once submitted.
type Query struct {
	// Text is the search string exactly as the user typed it.
	Text string `json:"text" yaml:"text"`

	// SecondaryLanguage is a BCP-47 language tag (e.g. "ja"). Empty selects
	// the configured default.
	SecondaryLanguage string `json:"secondary_language" yaml:"secondary_language"`
}

// QueryVariant is one form of a Query submitted to the grounding service.
type QueryVariant struct {
	// Text is the query text sent to the grounding service.
	Text string `json:"text" yaml:"text"`

	// Language is the base language tag of this variant (e.g. "en", "ja").
	Language string `json:"language" yaml:"language"`
}

// Citation is a source returned by the grounding service as evidence.
type Citation struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// GroundedAnswer is the grounding service's response to one QueryVariant.
type GroundedAnswer struct {
	Variant QueryVariant `json:"variant" yaml:"variant"`

	// Answer is the narrative text generated by the model. It may be empty
	// when the model's output was filtered.
	Answer string `json:"answer" yaml:"answer"`

	// Citations are the cited sources in the order the service returned them.
	Citations []Citation `json:"citations" yaml:"citations"`

	// SearchQueries are the web queries the service issued while grounding.
	SearchQueries []string `json:"search_queries,omitempty" yaml:"search_queries,omitempty"`
}

// ExtractionStatus records how much of a fetched page could be recovered.
type ExtractionStatus string

const (
	// ExtractionOK means main content was extracted from a readable page.
	ExtractionOK ExtractionStatus = "ok"
	// ExtractionDegraded means content was recovered by a best-effort fallback.
	ExtractionDegraded ExtractionStatus = "degraded"
	// ExtractionFailed means the page could not be fetched, or was fetched
	// but contained no text; Body is empty.
	ExtractionFailed ExtractionStatus = "failed"
	// ExtractionSkipped means the URL was beyond the fetch limit and never fetched.
	ExtractionSkipped ExtractionStatus = "skipped"
)

// HasContent reports whether documents with this status carry usable body text.
func (s ExtractionStatus) HasContent() bool {
	return s == ExtractionOK || s == ExtractionDegraded
}

// ExtractedDocument is the normalized content of one fetched URL.
type ExtractedDocument struct {
	// URL is the URL that was requested.
	URL string `json:"url" yaml:"url"`

	// FinalURL is the URL after redirects. Empty when the fetch failed.
	FinalURL string `json:"final_url,omitempty" yaml:"final_url,omitempty"`

	Title    string `json:"title" yaml:"title"`
	Byline   string `json:"byline,omitempty" yaml:"byline,omitempty"`
	SiteName string `json:"site_name,omitempty" yaml:"site_name,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Body is the extracted content as Markdown or plain text.
	Body string `json:"body" yaml:"body"`

	FetchedAt time.Time        `json:"fetched_at" yaml:"fetched_at"`
	Status    ExtractionStatus `json:"status" yaml:"status"`

	// Reason explains a degraded, failed or skipped status.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// SearchResult is one source in the final result set. There is exactly one
// SearchResult per normalized URL within a SearchResultSet.
type SearchResult struct {
	// URL is the normalized URL used as the deduplication key.
	URL string `json:"url" yaml:"url"`

	Title string `json:"title" yaml:"title"`

	// Snippet is a short excerpt: extracted body text when available,
	// otherwise the citation snippet from the grounding answer.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Body is the full extracted content. Empty unless Status has content.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`

	// SourceLanguages lists, sorted, every variant language that cited this URL.
	SourceLanguages []string `json:"source_languages" yaml:"source_languages"`

	// CitationCount is the number of (variant, citation) pairs referencing this URL.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	Status ExtractionStatus `json:"status" yaml:"status"`
	Reason string           `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// VariantAnswer pairs a variant with the narrative answer it produced.
type VariantAnswer struct {
	Variant QueryVariant `json:"variant" yaml:"variant"`
	Answer  string       `json:"answer" yaml:"answer"`
}

// SearchResultSet is the ranked, deduplicated outcome of one Query. Formatters
// receive it read-only and must not re-rank it.
type SearchResultSet struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Query Query  `json:"query" yaml:"query"`

	// Results are ordered by rank, best first.
	Results []SearchResult `json:"results" yaml:"results"`

	// Answers holds the narrative of every variant that was grounded, in
	// variant order. Variants that degraded to no citations are omitted.
	Answers []VariantAnswer `json:"answers,omitempty" yaml:"answers,omitempty"`

	// VariantErrors records variants whose grounding degraded to an empty
	// contribution, formatted as "<lang>: <error>".
	VariantErrors []string `json:"variant_errors,omitempty" yaml:"variant_errors,omitempty"`

	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Len returns the number of results in the set.
func (s *SearchResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Results)
}
