package grounding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Kind classifies a grounding failure.
type Kind int

const (
	// RateLimited means the service throttled the call. Retryable.
	RateLimited Kind = iota + 1
	// Unavailable covers transport failures, timeouts and 5xx. Retryable.
	Unavailable
	// InvalidResponse means the request or payload was malformed. Not retried.
	InvalidResponse
	// Unauthorized means the credentials were rejected. Aborts the whole run.
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate limited"
	case Unavailable:
		return "unavailable"
	case InvalidResponse:
		return "invalid response"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is returned by Grounder implementations.
type Error struct {
	Kind Kind
	// Code is the HTTP status when one was received, otherwise 0.
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("grounding: ")
	b.WriteString(e.Kind.String())
	if e.Code != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 when err is not a grounding error.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return 0
}

// IsRetryable reports whether err is RateLimited or Unavailable.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == RateLimited || k == Unavailable
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return KindOf(err) == Unauthorized
}

// classify maps an SDK or transport error onto a grounding Error. Context
// cancellation is passed through untouched so callers can tell it apart
// from a service failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Unavailable, Message: "request timed out", Err: err}
	}

	if apiErr, ok := asAPIError(err); ok {
		return &Error{Kind: kindForStatus(apiErr.Code, apiErr.Status, apiErr.Message), Code: apiErr.Code, Message: apiErr.Message, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &Error{Kind: Unavailable, Err: err}
	}
	return &Error{Kind: InvalidResponse, Err: err}
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// kindForStatus classifies an API error by HTTP code and RPC status.
func kindForStatus(code int, status, message string) Kind {
	switch {
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		return RateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden ||
		status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED":
		return Unauthorized
	case code == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key"):
		return Unauthorized
	case code == http.StatusRequestTimeout || code >= 500:
		return Unavailable
	default:
		return InvalidResponse
	}
}
