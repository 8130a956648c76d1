// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns fetched page content into Markdown or plain text.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Converter transforms document content of a given media type into
// Markdown text.
type Converter interface {
	Convert(content, contentType string) (string, error)
}

// MarkdownConverter converts HTML with html-to-markdown. JSON is
// pretty-printed, XML is reduced to its text and other text passes through.
type MarkdownConverter struct{}

// NewMarkdownConverter returns a MarkdownConverter.
func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{}
}

// Convert returns Markdown for content. An empty result is an error so
// callers can fall back to a cruder rendering.
func (m *MarkdownConverter) Convert(content, contentType string) (string, error) {
	var (
		out string
		err error
	)
	switch Kind(contentType, content) {
	case KindHTML:
		out, err = htmltomarkdown.ConvertString(content)
		if err != nil {
			return "", fmt.Errorf("converting HTML to markdown: %w", err)
		}
	case KindJSON:
		var buf bytes.Buffer
		if json.Indent(&buf, []byte(content), "", "  ") == nil {
			out = "```json\n" + buf.String() + "\n```"
		} else {
			out = content
		}
	case KindXML:
		out = PlainText(content)
	default:
		out = content
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("conversion produced empty output")
	}
	return out, nil
}

// ContentKind is the coarse family of a document's media type.
type ContentKind int

const (
	KindText ContentKind = iota
	KindHTML
	KindXML
	KindJSON
)

// Kind classifies contentType. When the header is missing the content is
// sniffed for a leading HTML tag.
func Kind(contentType, content string) ContentKind {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" {
		if looksLikeHTML(content) {
			return KindHTML
		}
		return KindText
	}
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return KindHTML
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return KindJSON
	case mt == "application/xml" || mt == "text/xml" || strings.HasSuffix(mt, "+xml"):
		return KindXML
	default:
		return KindText
	}
}

func looksLikeHTML(content string) bool {
	head := strings.ToLower(strings.TrimSpace(content))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<head") ||
		strings.Contains(head, "<body")
}

// AddFrontmatter prepends YAML frontmatter describing the source page.
func AddFrontmatter(sourceURL, title string, fetchedAt time.Time, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "source_url: %q\n", sourceURL)
	if title != "" {
		fmt.Fprintf(&b, "title: %q\n", title)
	}
	fmt.Fprintf(&b, "fetched_at: %q\n", fetchedAt.UTC().Format(time.RFC3339))
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
