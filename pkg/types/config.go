package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request attempt.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "grounded-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetryConfig controls bounded exponential backoff for transient failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// BaseDelay is the wait before the second attempt; it doubles per attempt.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// MaxDelay caps a single backoff wait.
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
}

// GroundingConfig holds settings for the grounding stage.
type GroundingConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Model is the Gemini model identifier (default "gemini-2.5-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the Gemini API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Concurrency bounds the number of grounding calls in flight (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxBytes is the response size ceiling; larger bodies abort early (default 10 MB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`

	// Concurrency bounds the number of fetches in flight (default 5).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxURLs limits how many unique cited URLs are fetched, in first-seen
	// order. 0 fetches all of them.
	MaxURLs int `json:"max_urls" yaml:"max_urls" mapstructure:"max_urls"`

	// MaxRedirects caps redirect hops (default 5).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects" mapstructure:"max_redirects"`

	// NoFetch skips page fetching entirely. Results keep the citation
	// title and snippet and are marked skipped.
	NoFetch bool `json:"no_fetch" yaml:"no_fetch" mapstructure:"no_fetch"`

	// AllowPrivateHosts disables the internal-address guard.
	AllowPrivateHosts bool `json:"allow_private_hosts" yaml:"allow_private_hosts" mapstructure:"allow_private_hosts"`

	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// SearchConfig holds settings for query expansion and result merging.
type SearchConfig struct {
	// SecondaryLanguage is used when a Query does not name one (default "ja").
	SecondaryLanguage string `json:"secondary_language" yaml:"secondary_language" mapstructure:"secondary_language"`

	// PrimaryLanguage is assumed for queries written in Latin script (default "en").
	PrimaryLanguage string `json:"primary_language" yaml:"primary_language" mapstructure:"primary_language"`

	// SnippetChars caps the snippet length in runes (default 500).
	SnippetChars int `json:"snippet_chars" yaml:"snippet_chars" mapstructure:"snippet_chars"`

	// MaxResults truncates the ranked set. 0 keeps every result.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig groups all stage configurations for one search run.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Grounding GroundingConfig `json:"grounding" yaml:"grounding" mapstructure:"grounding"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
}

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "grounded-search/0.1"

// DefaultPipelineConfig returns the configuration used when nothing is overridden.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Search: SearchConfig{
			SecondaryLanguage: "ja",
			PrimaryLanguage:   "en",
			SnippetChars:      500,
		},
		Grounding: GroundingConfig{
			HTTPConfig:  HTTPConfig{Timeout: 60 * time.Second, UserAgent: DefaultUserAgent},
			Model:       "gemini-2.5-flash",
			Concurrency: 4,
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   2 * time.Second,
				MaxDelay:    30 * time.Second,
			},
		},
		Fetch: FetchConfig{
			HTTPConfig:   HTTPConfig{Timeout: 20 * time.Second, UserAgent: DefaultUserAgent},
			MaxBytes:     10_000_000,
			Concurrency:  5,
			MaxRedirects: 5,
			Retry: RetryConfig{
				MaxAttempts: 2,
				BaseDelay:   500 * time.Millisecond,
				MaxDelay:    5 * time.Second,
			},
		},
	}
}
