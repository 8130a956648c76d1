// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// GeminiAPIKey is the secret file holding the Gemini API key.
const GeminiAPIKey = "gemini-api-key"

// APIKeyEnv lists the environment variables checked for the Gemini API key,
// in priority order.
var APIKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ResolveAPIKey picks the Gemini API key: an explicit value first, then the
// APIKeyEnv variables, then the gemini-api-key secret. It also returns where
// the key came from ("flag", the variable name, or "secrets"); both results
// are empty when no key is configured.
func ResolveAPIKey(explicit string, loaded map[string]string) (key, source string) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, "flag"
	}
	for _, name := range APIKeyEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, name
		}
	}
	if v, ok := loaded[GeminiAPIKey]; ok {
		return v, "secrets"
	}
	return "", ""
}
