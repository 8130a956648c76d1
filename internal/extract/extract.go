// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a fetched page into an ExtractedDocument: the main
// article as Markdown plus title and byline metadata. Extraction never
// returns an error; pages readability cannot handle are converted whole and
// marked degraded, and pages with no text at all are marked failed.
package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/pdiddy/grounded-search/internal/convert"
	"github.com/pdiddy/grounded-search/internal/fetch"
	"github.com/pdiddy/grounded-search/pkg/types"
)

const (
	reasonNotReadable = "no readable article; converted whole page"
	reasonConvertFail = "markdown conversion failed; using plain text"
	reasonRawFallback = "no text extracted; using raw content"
	reasonRawMode     = "raw mode"
	reasonEmpty       = "page has no content"
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithConverter replaces the Markdown converter.
func WithConverter(c convert.Converter) Option {
	return func(e *Extractor) { e.conv = c }
}

// WithLogger sets the logger for fallback diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// Extractor is safe for concurrent use.
type Extractor struct {
	conv   convert.Converter
	logger *zap.Logger
	now    func() time.Time
}

// New returns an Extractor using the html-to-markdown converter.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		conv:   convert.NewMarkdownConverter(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces a document for page. Readable HTML yields status ok;
// HTML without a readable article yields degraded; a page with no content
// at all yields failed.
func (e *Extractor) Extract(page *fetch.Page) types.ExtractedDocument {
	return e.extract(page, false)
}

// ExtractRaw converts the whole page without readability. The status is ok
// when any content was produced.
func (e *Extractor) ExtractRaw(page *fetch.Page) types.ExtractedDocument {
	return e.extract(page, true)
}

func (e *Extractor) extract(page *fetch.Page, raw bool) types.ExtractedDocument {
	doc := types.ExtractedDocument{
		URL:       page.URL,
		FinalURL:  page.FinalURL,
		FetchedAt: e.now().UTC(),
	}
	if doc.FinalURL == "" {
		doc.FinalURL = page.URL
	}

	text := Decode(page.Body, page.ContentType)
	if strings.TrimSpace(text) == "" {
		return e.failed(doc, reasonEmpty)
	}

	if convert.Kind(page.ContentType, text) != convert.KindHTML {
		return e.extractText(doc, text, page.ContentType)
	}

	meta := readMeta(text)
	doc.Language = meta.lang
	doc.SiteName = meta.siteName

	if !raw {
		if article, ok := e.readable(text, doc.FinalURL); ok {
			body, err := e.conv.Convert(article.Content, "text/html")
			if err == nil {
				doc.Title = firstNonEmpty(article.Title, meta.title())
				doc.Byline = strings.TrimSpace(article.Byline)
				if article.SiteName != "" {
					doc.SiteName = article.SiteName
				}
				doc.Body = body
				doc.Status = types.ExtractionOK
				return doc
			}
			e.logger.Debug("article conversion failed", zap.String("url", doc.URL), zap.Error(err))
		}
	}

	doc.Title = meta.title()
	doc.Status = types.ExtractionDegraded
	doc.Reason = reasonNotReadable
	if raw {
		doc.Status = types.ExtractionOK
		doc.Reason = reasonRawMode
	}

	body, err := e.conv.Convert(text, "text/html")
	if err != nil {
		e.logger.Debug("page conversion failed", zap.String("url", doc.URL), zap.Error(err))
		body = convert.PlainText(text)
		doc.Status = types.ExtractionDegraded
		doc.Reason = reasonConvertFail
		if body == "" {
			body = strings.TrimSpace(text)
			doc.Reason = reasonRawFallback
		}
	}
	doc.Body = body
	return doc
}

func (e *Extractor) extractText(doc types.ExtractedDocument, text, contentType string) types.ExtractedDocument {
	doc.Title = firstLine(text)
	doc.Status = types.ExtractionOK

	body, err := e.conv.Convert(text, contentType)
	if err != nil {
		e.logger.Debug("text conversion failed", zap.String("url", doc.URL), zap.Error(err))
		body = strings.TrimSpace(text)
		doc.Status = types.ExtractionDegraded
		doc.Reason = reasonRawFallback
	}
	if body == "" {
		return e.failed(doc, reasonEmpty)
	}
	doc.Body = body
	return doc
}

func (e *Extractor) failed(doc types.ExtractedDocument, reason string) types.ExtractedDocument {
	doc.Status = types.ExtractionFailed
	doc.Reason = reason
	return doc
}

// readable runs readability over html and reports whether it found an
// article worth keeping.
func (e *Extractor) readable(html, pageURL string) (readability.Article, bool) {
	if !readability.Check(strings.NewReader(html)) {
		return readability.Article{}, false
	}

	u, err := url.Parse(pageURL)
	if err != nil || u == nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		e.logger.Debug("readability failed", zap.String("url", pageURL), zap.Error(err))
		return readability.Article{}, false
	}
	if strings.TrimSpace(article.Content) == "" {
		return readability.Article{}, false
	}
	return article, true
}

// Failed builds the document recorded for a URL that could not be fetched.
func Failed(rawURL string, err error) types.ExtractedDocument {
	reason := "fetch failed"
	if ferr, ok := asFetchError(err); ok {
		reason = ferr.Reason()
	} else if err != nil {
		reason = err.Error()
	}
	return types.ExtractedDocument{
		URL:    rawURL,
		Status: types.ExtractionFailed,
		Reason: reason,
	}
}

// Skipped builds the document recorded for a URL that was not fetched.
func Skipped(rawURL, reason string) types.ExtractedDocument {
	return types.ExtractedDocument{
		URL:    rawURL,
		Status: types.ExtractionSkipped,
		Reason: reason,
	}
}

type pageMeta struct {
	ogTitle  string
	docTitle string
	h1       string
	siteName string
	lang     string
}

func (m pageMeta) title() string {
	return firstNonEmpty(m.ogTitle, m.docTitle, m.h1)
}

// readMeta collects title candidates and page metadata with goquery.
func readMeta(html string) pageMeta {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return pageMeta{}
	}
	attr := func(sel string) string {
		v, _ := doc.Find(sel).First().Attr("content")
		return convert.NormalizeWhitespace(v)
	}
	lang, _ := doc.Find("html").First().Attr("lang")

	return pageMeta{
		ogTitle:  attr(`meta[property="og:title"]`),
		docTitle: convert.NormalizeWhitespace(doc.Find("title").First().Text()),
		h1:       convert.NormalizeWhitespace(doc.Find("h1").First().Text()),
		siteName: attr(`meta[property="og:site_name"]`),
		lang:     strings.TrimSpace(lang),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// firstLine returns the first non-blank line of text, capped at 120 runes.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return convert.Truncate(line, 120)
		}
	}
	return ""
}
