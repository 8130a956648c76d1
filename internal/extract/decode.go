package extract

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/grounded-search/internal/fetch"
)

// Decode converts body to UTF-8 using the charset named in contentType, a
// byte-order mark or an HTML meta tag. With no declared charset, a body that
// is valid UTF-8 is taken as UTF-8; otherwise the sniffed encoding is used.
// Invalid sequences are replaced with U+FFFD.
func Decode(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && utf8.Valid(body) {
		return string(body)
	}
	if name == "utf-8" || enc == nil {
		return strings.ToValidUTF8(string(body), string(utf8.RuneError))
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), string(utf8.RuneError))
	}
	return strings.ToValidUTF8(string(out), string(utf8.RuneError))
}

func asFetchError(err error) (*fetch.Error, bool) {
	var ferr *fetch.Error
	if errors.As(err, &ferr) {
		return ferr, true
	}
	return nil, false
}
