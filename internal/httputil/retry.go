// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides retry and backoff helpers shared across stages.
package httputil

import (
	"context"
	"net/http"
	"time"

	"github.com/pdiddy/grounded-search/pkg/types"
)

// RetryBaseDelay is the base backoff used when a policy leaves BaseDelay
// unset. Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

const defaultMaxAttempts = 3

// RetryPolicy bounds exponential backoff: attempt n (n >= 1) waits
// BaseDelay * 2^(n-1) before running, capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// PolicyFrom converts a RetryConfig into a RetryPolicy, filling defaults.
func PolicyFrom(cfg types.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
	}.withDefaults()
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = RetryBaseDelay
	}
	return p
}

// Backoff returns the wait before the given retry (1 for the first retry).
func (p RetryPolicy) Backoff(retry int) time.Duration {
	p = p.withDefaults()
	if retry < 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < retry; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retry runs op until it succeeds, returns an error retryable rejects, or
// MaxAttempts is reached. The error of the last attempt is returned. If ctx
// is cancelled during a backoff wait, Retry returns ctx.Err().
//
// onRetry, when non-nil, is called before each backoff wait with the attempt
// number that failed and its error.
func Retry(ctx context.Context, p RetryPolicy, op func(ctx context.Context) error, retryable func(error) bool, onRetry func(attempt int, err error)) error {
	p = p.withDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= p.MaxAttempts || retryable == nil || !retryable(err) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryableStatus reports whether an HTTP status is worth retrying
// (429 Too Many Requests and 503 Service Unavailable).
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}
