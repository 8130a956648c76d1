package grounding

import (
	"errors"
	"slices"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/grounded-search/pkg/types"
)

var errNoResponse = errors.New("empty response")

// answerFromResponse converts a generation response into a GroundedAnswer.
// Only the first candidate is used. Grounding chunks without a web URI are
// dropped; the text segments that cite a chunk become its snippet.
func answerFromResponse(v types.QueryVariant, resp *genai.GenerateContentResponse) (types.GroundedAnswer, error) {
	if resp == nil {
		return types.GroundedAnswer{}, &Error{Kind: InvalidResponse, Err: errNoResponse}
	}

	ans := types.GroundedAnswer{Variant: v}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		// A blocked prompt yields no candidates. That is an empty answer,
		// not a malformed response.
		return ans, nil
	}
	cand := resp.Candidates[0]
	ans.Answer = candidateText(cand)

	meta := cand.GroundingMetadata
	if meta == nil {
		return ans, nil
	}
	ans.SearchQueries = append([]string(nil), meta.WebSearchQueries...)

	snippets := supportSnippets(meta.GroundingSupports, len(meta.GroundingChunks))
	for i, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		uri := strings.TrimSpace(chunk.Web.URI)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(chunk.Web.Title)
		if title == "" {
			title = chunk.Web.Domain
		}
		ans.Citations = append(ans.Citations, types.Citation{
			URL:     uri,
			Title:   title,
			Snippet: snippets[i],
		})
	}
	return ans, nil
}

// candidateText joins the visible text parts of a candidate. Thought parts
// are skipped.
func candidateText(c *genai.Candidate) string {
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// supportSnippets returns, per chunk index, the answer segments that cite
// that chunk joined by a space.
func supportSnippets(supports []*genai.GroundingSupport, nChunks int) []string {
	parts := make([][]string, nChunks)
	for _, s := range supports {
		if s == nil || s.Segment == nil {
			continue
		}
		text := strings.TrimSpace(s.Segment.Text)
		if text == "" {
			continue
		}
		for _, idx := range s.GroundingChunkIndices {
			i := int(idx)
			if i < 0 || i >= nChunks {
				continue
			}
			if !slices.Contains(parts[i], text) {
				parts[i] = append(parts[i], text)
			}
		}
	}

	out := make([]string, nChunks)
	for i, p := range parts {
		out[i] = strings.Join(p, " ")
	}
	return out
}
