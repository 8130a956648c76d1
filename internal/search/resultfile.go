// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/grounded-search/pkg/types"
)

// resultFileVersion is bumped when the on-disk layout changes.
const resultFileVersion = 1

// ResultFile is the on-disk representation of a search and its results.
// A saved search can be re-rendered later without re-querying.
type ResultFile struct {
	Version int                   `yaml:"version"`
	Config  ResultFileConfig      `yaml:"config"`
	Set     types.SearchResultSet `yaml:"result_set"`
	Summary ResultSummary         `yaml:"summary"`
}

// ResultFileConfig stores the settings that produced the results.
type ResultFileConfig struct {
	Model       string `yaml:"model,omitempty"`
	MaxResults  int    `yaml:"max_results"`
	MaxURLs     int    `yaml:"max_urls"`
	SnippetChar int    `yaml:"snippet_chars"`
}

// ResultSummary stores result statistics and a timestamp.
type ResultSummary struct {
	Total         int       `yaml:"total"`
	Fetched       int       `yaml:"fetched"`
	Failed        int       `yaml:"failed"`
	VariantErrors int       `yaml:"variant_errors"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// Summarize counts results by extraction outcome.
func Summarize(set *types.SearchResultSet) ResultSummary {
	s := ResultSummary{Timestamp: time.Now().UTC()}
	if set == nil {
		return s
	}
	s.Total = len(set.Results)
	s.VariantErrors = len(set.VariantErrors)
	for _, r := range set.Results {
		if r.Status.HasContent() {
			s.Fetched++
		} else {
			s.Failed++
		}
	}
	return s
}

// WriteResultFile saves set to path as YAML. The file is written to a
// temporary sibling and renamed so a crash never leaves a partial file.
func WriteResultFile(path string, set *types.SearchResultSet, cfg types.PipelineConfig) error {
	if set == nil {
		return fmt.Errorf("no result set to write")
	}
	rf := ResultFile{
		Version: resultFileVersion,
		Config: ResultFileConfig{
			Model:       cfg.Grounding.Model,
			MaxResults:  cfg.Search.MaxResults,
			MaxURLs:     cfg.Fetch.MaxURLs,
			SnippetChar: cfg.Search.SnippetChars,
		},
		Set:     *set,
		Summary: Summarize(set),
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".results-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing result file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	if rf.Version > resultFileVersion {
		return nil, fmt.Errorf("result file version %d is newer than supported version %d", rf.Version, resultFileVersion)
	}
	return &rf, nil
}
