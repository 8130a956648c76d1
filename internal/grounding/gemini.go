// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grounding asks a search-grounded language model for an answer to
// one query variant and returns the answer together with the web pages the
// model cited.
package grounding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/grounded-search/pkg/types"
)

// Grounder answers one query variant with web citations. Implementations
// return *Error for service failures and the context error on cancellation.
type Grounder interface {
	Ground(ctx context.Context, v types.QueryVariant) (types.GroundedAnswer, error)
}

// ErrMissingAPIKey is returned by NewGemini when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini API key not set")

// DefaultModel is used when the configuration names none.
const DefaultModel = "gemini-2.5-flash"

// Gemini grounds queries through the Gemini API with the Google Search tool.
type Gemini struct {
	client *genai.Client
	cfg    types.GroundingConfig
}

// NewGemini creates a Gemini grounder. cfg.BaseURL overrides the API
// endpoint and httpClient, when non-nil, replaces the default transport.
func NewGemini(ctx context.Context, cfg types.GroundingConfig, httpClient *http.Client) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &Error{Kind: Unauthorized, Err: ErrMissingAPIKey}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

// Model returns the model name requests are sent to.
func (g *Gemini) Model() string { return g.cfg.Model }

// Ground performs one grounded generation call. The call is bounded by the
// configured timeout; retries are the caller's concern.
func (g *Gemini) Ground(ctx context.Context, v types.QueryVariant) (types.GroundedAnswer, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(v.Text), config)
	if err != nil {
		return types.GroundedAnswer{}, classify(err)
	}
	return answerFromResponse(v, resp)
}
