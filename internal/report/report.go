// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a SearchResultSet for people and programs: a
// Markdown research report, a fixed-width table, or indented JSON. Renderers
// read the set as given and never re-rank it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/grounded-search/internal/convert"
	"github.com/pdiddy/grounded-search/pkg/types"
)

// ExcerptChars caps each fetched page excerpt in the Markdown report.
const ExcerptChars = 3000

// Format names an output format accepted by Write.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatTable, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown, table or json)", s)
	}
}

// Write renders set to w in format f.
func Write(w io.Writer, f Format, set *types.SearchResultSet) error {
	switch f {
	case FormatMarkdown:
		return Markdown(w, set)
	case FormatTable:
		return Table(w, set)
	case FormatJSON:
		return JSON(w, set)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Markdown writes a GitHub-flavoured research report: the narrative answer
// of every grounded variant, the ranked sources, an excerpt of every fetched
// page, and the URLs that could not be fetched.
func Markdown(w io.Writer, set *types.SearchResultSet) error {
	if set == nil {
		set = &types.SearchResultSet{}
	}
	var b strings.Builder

	fmt.Fprintf(&b, "# Research: %s\n\n", sanitizeHeading(set.Query.Text))

	multi := len(set.Answers) > 1
	for _, a := range set.Answers {
		if multi {
			fmt.Fprintf(&b, "## Answer (%s)\n\n", a.Variant.Language)
		}
		answer := strings.TrimSpace(a.Answer)
		if answer == "" {
			answer = "_No answer text returned._"
		}
		b.WriteString(answer)
		b.WriteString("\n\n")
	}

	if set.Len() == 0 {
		b.WriteString("No sources found.\n")
		writeVariantErrors(&b, set.VariantErrors)
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("## Sources\n\n")
	b.WriteString("| # | Source | Languages | Citations | Status |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i, r := range set.Results {
		fmt.Fprintf(&b, "| %d | [%s](%s) | %s | %d | %s |\n",
			i+1, escapeCell(escapeLink(r.Title)), escapeURL(r.URL),
			strings.Join(r.SourceLanguages, ", "), r.CitationCount, r.Status)
	}
	b.WriteString("\n")

	var fetched, failed []types.SearchResult
	for _, r := range set.Results {
		if r.Status.HasContent() && r.Body != "" {
			fetched = append(fetched, r)
		} else {
			failed = append(failed, r)
		}
	}

	if len(fetched) > 0 {
		b.WriteString("---\n\n## Fetched Pages\n\n")
		for _, r := range fetched {
			fmt.Fprintf(&b, "### [%s](%s)\n\n", escapeLink(sanitizeHeading(r.Title)), escapeURL(r.URL))
			if r.Status == types.ExtractionDegraded {
				b.WriteString("> Extracted with a fallback; layout text may be included.\n\n")
			}
			b.WriteString(excerpt(r.Body, ExcerptChars))
			b.WriteString("\n\n")
		}
	}

	if len(failed) > 0 {
		b.WriteString("## Failed URLs\n\n")
		for _, r := range failed {
			reason := r.Reason
			if reason == "" {
				reason = string(r.Status)
			}
			fmt.Fprintf(&b, "- %s (%s)\n", r.URL, reason)
		}
		b.WriteString("\n")
	}

	writeVariantErrors(&b, set.VariantErrors)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeVariantErrors(b *strings.Builder, errs []string) {
	if len(errs) == 0 {
		return
	}
	b.WriteString("## Degraded Variants\n\n")
	for _, e := range errs {
		fmt.Fprintf(b, "- %s\n", e)
	}
	b.WriteString("\n")
}

// Table writes results as a human-readable table.
func Table(w io.Writer, set *types.SearchResultSet) error {
	if set.Len() == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-8s  %-5s  %-8s  %s\n",
		"Rank", "Title", "Langs", "Cites", "Status", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range set.Results {
		fmt.Fprintf(w, "%-4d  %s  %-8s  %-5d  %-8s  %s\n",
			i+1, pad(convert.Truncate(r.Title, 49), 50), strings.Join(r.SourceLanguages, ","),
			r.CitationCount, r.Status, r.URL)
	}

	fmt.Fprintf(w, "\n%d results", set.Len())
	if n := len(set.VariantErrors); n > 0 {
		fmt.Fprintf(w, " (%d variant(s) degraded)", n)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// JSON writes the whole result set as indented JSON.
func JSON(w io.Writer, set *types.SearchResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(set)
}

var urlEscaper = strings.NewReplacer(
	" ", "%20",
	"(", "%28",
	")", "%29",
	"<", "%3C",
	">", "%3E",
	"|", "%7C",
)

// escapeURL percent-encodes the characters that end a Markdown link
// destination or a table cell early.
func escapeURL(u string) string {
	return urlEscaper.Replace(u)
}

// escapeLink escapes the characters that break Markdown link text.
func escapeLink(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '[', ']', '(', ')':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeCell keeps a value inside one table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return sanitizeHeading(s)
}

// sanitizeHeading replaces line breaks, which would end a heading early.
func sanitizeHeading(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

func excerpt(body string, n int) string {
	if utf8.RuneCountInString(body) <= n {
		return body
	}
	runes := []rune(body)
	return string(runes[:n]) + "...\n\n(truncated)"
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
