package fetch

import (
	"errors"
	"fmt"

	"github.com/pdiddy/grounded-search/internal/httputil"
)

// Kind classifies a fetch failure.
type Kind int

const (
	Timeout Kind = iota + 1
	Unreachable
	HTTPStatus
	TooLarge
	UnsupportedType
	Blocked
	InvalidURL
)

func (k Kind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Unreachable:
		return "unreachable"
	case HTTPStatus:
		return "http status"
	case TooLarge:
		return "too large"
	case UnsupportedType:
		return "unsupported content type"
	case Blocked:
		return "blocked"
	case InvalidURL:
		return "invalid url"
	default:
		return "unknown"
	}
}

// Error describes why a URL could not be fetched.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Kind == HTTPStatus {
		msg = fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.URL != "" {
		return fmt.Sprintf("fetching %s: %s", e.URL, msg)
	}
	return "fetch: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Reason is a short human-readable cause suitable for a result row.
func (e *Error) Reason() string {
	switch e.Kind {
	case HTTPStatus:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case TooLarge, UnsupportedType, Blocked:
		if e.Err != nil {
			return e.Kind.String() + ": " + e.Err.Error()
		}
	}
	return e.Kind.String()
}

// KindOf returns the Kind of err, or 0 when err is not a fetch error.
func KindOf(err error) Kind {
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr.Kind
	}
	return 0
}

// IsRetryable reports whether a fetch may succeed on another attempt:
// timeouts and HTTP 429/503.
func IsRetryable(err error) bool {
	var ferr *Error
	if !errors.As(err, &ferr) {
		return false
	}
	switch ferr.Kind {
	case Timeout:
		return true
	case HTTPStatus:
		return httputil.RetryableStatus(ferr.StatusCode)
	default:
		return false
	}
}
