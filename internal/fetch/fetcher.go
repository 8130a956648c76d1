// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads cited web pages under a timeout, a size ceiling
// and a content-type allowlist, refusing hosts on internal networks.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/grounded-search/internal/httputil"
	"github.com/pdiddy/grounded-search/pkg/types"
)

const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5"

// Page is the raw result of a successful fetch.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves one URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithResolver replaces the DNS resolver used by the host guard.
func WithResolver(r Resolver) Option {
	return func(f *HTTPFetcher) { f.guard.resolver = r }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *HTTPFetcher) { f.client.Transport = rt }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// HTTPFetcher is the production Fetcher.
type HTTPFetcher struct {
	cfg    types.FetchConfig
	client *http.Client
	guard  guard
	policy httputil.RetryPolicy
	logger *zap.Logger
}

// New creates an HTTPFetcher. Zero-valued limits in cfg take the defaults
// from types.DefaultPipelineConfig.
func New(cfg types.FetchConfig, opts ...Option) *HTTPFetcher {
	def := types.DefaultPipelineConfig().Fetch
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = def.MaxRedirects
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = types.DefaultUserAgent
	}

	f := &HTTPFetcher{
		cfg:    cfg,
		client: &http.Client{},
		guard:  guard{resolver: net.DefaultResolver, allowPrivate: cfg.AllowPrivateHosts},
		policy: httputil.PolicyFrom(cfg.Retry),
		logger: zap.NewNop(),
	}
	f.client.CheckRedirect = f.checkRedirect
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL. Each attempt is bounded by the configured timeout;
// timeouts and HTTP 429/503 are retried with backoff. When ctx is cancelled
// Fetch returns ctx.Err() rather than a fetch error.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	gctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	err = f.guard.check(gctx, u.Hostname())
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, withURL(err, rawURL)
	}

	var page *Page
	err = httputil.Retry(ctx, f.policy, func(ctx context.Context) error {
		p, err := f.fetchOnce(ctx, u.String())
		page = p
		return err
	}, IsRetryable, func(attempt int, err error) {
		f.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err))
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, withURL(err, rawURL)
	}
	page.URL = rawURL
	return page, nil
}

func (f *HTTPFetcher) fetchOnce(parent context.Context, target string) (*Page, error) {
	ctx, cancel := context.WithTimeout(parent, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: InvalidURL, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transportError(parent, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: HTTPStatus, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !allowedContentType(contentType) {
		return nil, &Error{Kind: UnsupportedType, Err: fmt.Errorf("%s", contentType)}
	}
	if resp.ContentLength > f.cfg.MaxBytes {
		return nil, &Error{Kind: TooLarge, Err: fmt.Errorf("content length %d exceeds %d bytes", resp.ContentLength, f.cfg.MaxBytes)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, transportError(parent, err)
	}
	if int64(len(body)) > f.cfg.MaxBytes {
		return nil, &Error{Kind: TooLarge, Err: fmt.Errorf("body exceeds %d bytes", f.cfg.MaxBytes)}
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Page{
		URL:         target,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// checkRedirect caps the redirect chain and re-applies the host guard to
// every hop.
func (f *HTTPFetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= f.cfg.MaxRedirects {
		return &Error{Kind: Unreachable, Err: fmt.Errorf("stopped after %d redirects", len(via))}
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return &Error{Kind: Blocked, Err: fmt.Errorf("redirect to %s scheme", req.URL.Scheme)}
	}
	return f.guard.check(req.Context(), req.URL.Hostname())
}

func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &Error{Kind: InvalidURL, URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &Error{Kind: InvalidURL, URL: rawURL, Err: fmt.Errorf("scheme %q is not http or https", u.Scheme)}
	}
	if u.Hostname() == "" {
		return nil, &Error{Kind: InvalidURL, URL: rawURL, Err: fmt.Errorf("missing host")}
	}
	return u, nil
}

// transportError classifies a client error. Errors raised by checkRedirect
// surface wrapped in *url.Error and are returned as-is.
func transportError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: Timeout, Err: err}
	}
	return &Error{Kind: Unreachable, Err: err}
}

func withURL(err error, rawURL string) error {
	var ferr *Error
	if errors.As(err, &ferr) && ferr.URL == "" {
		ferr.URL = rawURL
	}
	return err
}

// allowedContentType accepts text, HTML, XML and JSON. A missing header is
// allowed and left to extraction.
func allowedContentType(header string) bool {
	if strings.TrimSpace(header) == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/xhtml+xml", mt == "application/xml", mt == "application/json":
		return true
	case strings.HasSuffix(mt, "+xml"), strings.HasSuffix(mt, "+json"):
		return true
	default:
		return false
	}
}
