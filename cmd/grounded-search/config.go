package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/grounded-search/internal/secrets"
	"github.com/pdiddy/grounded-search/pkg/types"
)

// setDefaults registers every pipeline setting so that config files and
// GROUNDED_SEARCH_* environment variables can override any of them.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	v.SetDefault("search.secondary_language", d.Search.SecondaryLanguage)
	v.SetDefault("search.primary_language", d.Search.PrimaryLanguage)
	v.SetDefault("search.snippet_chars", d.Search.SnippetChars)
	v.SetDefault("search.max_results", d.Search.MaxResults)

	v.SetDefault("grounding.timeout", d.Grounding.Timeout)
	v.SetDefault("grounding.user_agent", d.Grounding.UserAgent)
	v.SetDefault("grounding.model", d.Grounding.Model)
	v.SetDefault("grounding.api_key", "")
	v.SetDefault("grounding.base_url", "")
	v.SetDefault("grounding.concurrency", d.Grounding.Concurrency)
	v.SetDefault("grounding.retry.max_attempts", d.Grounding.Retry.MaxAttempts)
	v.SetDefault("grounding.retry.base_delay", d.Grounding.Retry.BaseDelay)
	v.SetDefault("grounding.retry.max_delay", d.Grounding.Retry.MaxDelay)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.max_bytes", d.Fetch.MaxBytes)
	v.SetDefault("fetch.concurrency", d.Fetch.Concurrency)
	v.SetDefault("fetch.max_urls", d.Fetch.MaxURLs)
	v.SetDefault("fetch.max_redirects", d.Fetch.MaxRedirects)
	v.SetDefault("fetch.allow_private_hosts", d.Fetch.AllowPrivateHosts)
	v.SetDefault("fetch.no_fetch", d.Fetch.NoFetch)
	v.SetDefault("fetch.retry.max_attempts", d.Fetch.Retry.MaxAttempts)
	v.SetDefault("fetch.retry.base_delay", d.Fetch.Retry.BaseDelay)
	v.SetDefault("fetch.retry.max_delay", d.Fetch.Retry.MaxDelay)
}

// pipelineConfig decodes the merged viper settings into a PipelineConfig.
func pipelineConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// resolveAPIKey fills cfg.APIKey. The --api-key flag wins, then a key from
// the config file (or GROUNDED_SEARCH_GROUNDING_API_KEY), then
// GEMINI_API_KEY/GOOGLE_API_KEY, then the gemini-api-key secret.
func resolveAPIKey(cfg *types.GroundingConfig, flagValue string) {
	source := "config"
	switch {
	case flagValue != "":
		cfg.APIKey, source = flagValue, "flag"
	case cfg.APIKey == "":
		cfg.APIKey, source = secrets.ResolveAPIKey("", loadedSecrets)
	}
	if cfg.APIKey != "" {
		logger.Debug("using API key", zap.String("source", source))
	}
}

// bindFlag ties a command flag to a viper key. Binding only fails for a nil
// flag, which is a programming error.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}
