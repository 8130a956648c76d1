// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"strings"
	"testing"
	"time"
)

func TestMarkdownConverter_Convert(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		contentType string
		want        []string
		wantErr     bool
	}{
		{
			name:        "html",
			content:     "<html><body><h1>Title</h1><p>Hello <strong>world</strong></p></body></html>",
			contentType: "text/html; charset=utf-8",
			want:        []string{"# Title", "**world**"},
		},
		{
			name:        "sniffed html",
			content:     "<!DOCTYPE html><html><body><p>Sniffed <em>page</em></p></body></html>",
			contentType: "",
			want:        []string{"Sniffed", "page"},
		},
		{
			name:        "json",
			content:     `{"name":"tokio","stars":1}`,
			contentType: "application/json",
			want:        []string{"```json", `"name": "tokio"`},
		},
		{
			name:        "xml",
			content:     "<rss>\n<channel>\n<title>Feed</title>\n<item>Entry</item>\n</channel>\n</rss>",
			contentType: "application/rss+xml",
			want:        []string{"Feed Entry"},
		},
		{
			name:        "plain text",
			content:     "just words\n",
			contentType: "text/plain",
			want:        []string{"just words"},
		},
		{
			name:        "empty",
			content:     "<html><body>   </body></html>",
			contentType: "text/html",
			wantErr:     true,
		},
	}

	c := NewMarkdownConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.content, tt.contentType)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q does not contain %q", got, w)
				}
			}
		})
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		contentType string
		content     string
		want        ContentKind
	}{
		{"text/html", "", KindHTML},
		{"application/xhtml+xml", "", KindHTML},
		{"application/json; charset=utf-8", "", KindJSON},
		{"application/ld+json", "", KindJSON},
		{"text/xml", "", KindXML},
		{"application/atom+xml", "", KindXML},
		{"text/plain", "<html>", KindText},
		{"", "  <html><body>x</body></html>", KindHTML},
		{"", "hello", KindText},
	}
	for _, tt := range tests {
		if got := Kind(tt.contentType, tt.content); got != tt.want {
			t.Errorf("Kind(%q, %q) = %d, want %d", tt.contentType, tt.content, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	html := `<html><head><title>T</title><style>p{}</style></head>
<body><script>var x = 1;</script><p>First   line</p>
<p>Second</p><noscript>enable js</noscript></body></html>`

	got := PlainText(html)
	if got != "First line Second" {
		t.Errorf("PlainText = %q, want %q", got, "First line Second")
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  a\n\tb   c  "); got != "a b c" {
		t.Errorf("NormalizeWhitespace = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"hello world", 6, "hello…"},
		{"日本語のテキスト", 3, "日本語…"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestAddFrontmatter(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	content := AddFrontmatter("https://tokio.rs/", "Tokio", at, "# Body")

	if !strings.HasPrefix(content, "---\n") {
		t.Error("output should start with YAML frontmatter delimiter")
	}
	for _, want := range []string{
		`source_url: "https://tokio.rs/"`,
		`title: "Tokio"`,
		`fetched_at: "2026-03-01T12:00:00Z"`,
		"---\n\n# Body",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("frontmatter output missing %q:\n%s", want, content)
		}
	}

	if strings.Contains(AddFrontmatter("u", "", at, "b"), "title:") {
		t.Error("empty title should be omitted")
	}
}
