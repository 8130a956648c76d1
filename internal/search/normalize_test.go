package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "https://example.com/a/b", "https://example.com/a/b"},
		{"uppercase scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"trailing slash", "https://example.com/docs/", "https://example.com/docs"},
		{"root path", "https://example.com/", "https://example.com"},
		{"default https port", "https://example.com:443/x", "https://example.com/x"},
		{"default http port", "http://example.com:80/x", "http://example.com/x"},
		{"non-default port kept", "http://example.com:8080/x", "http://example.com:8080/x"},
		{"fragment dropped", "https://example.com/x#section", "https://example.com/x"},
		{"userinfo dropped", "https://user:pw@example.com/x", "https://example.com/x"},
		{"query kept verbatim", "https://example.com/search?q=Go&b=2", "https://example.com/search?q=Go&b=2"},
		{"trailing dot host", "https://example.com./x", "https://example.com/x"},
		{"ipv6 host", "http://[::1]/x", "http://[::1]/x"},
		{"ipv6 host with port", "http://[::1]:8080/", "http://[::1]:8080"},
		{"surrounding space", "  https://example.com/x  ", "https://example.com/x"},
		{"escaped path kept", "https://example.com/a%20b/", "https://example.com/a%20b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	for _, in := range []string{
		"HTTPS://Example.COM:443/a/b/?x=1#f",
		"http://[::1]:80/",
		"https://example.com/a%20b",
	} {
		once, err := NormalizeURL(in)
		require.NoError(t, err)
		twice, err := NormalizeURL(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestNormalizeURL_Errors(t *testing.T) {
	_, err := NormalizeURL("ftp://example.com/file")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = NormalizeURL("example.com/no-scheme")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = NormalizeURL("https:///path-only")
	assert.ErrorIs(t, err, ErrMissingHost)

	_, err = NormalizeURL("http://bad host/")
	assert.Error(t, err)
}
