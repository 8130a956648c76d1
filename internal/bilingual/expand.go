// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bilingual expands one user query into the language variants that
// are grounded independently: the query in its own language, the query with
// an answer-language instruction for the secondary language, and, for CJK
// queries that mention ASCII technical terms, an English terms-only query.
package bilingual

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/grounded-search/pkg/types"
)

var (
	// ErrUnsupportedLanguage is wrapped by ExpansionError when the secondary
	// language tag is malformed or not supported.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrEmptyQuery is wrapped by ExpansionError when the query text is blank.
	ErrEmptyQuery = errors.New("query is empty")
)

// ExpansionError reports why a query could not be expanded. It is fatal for
// that query only.
type ExpansionError struct {
	Query    string
	Language string
	Err      error
}

func (e *ExpansionError) Error() string {
	if errors.Is(e.Err, ErrUnsupportedLanguage) {
		return fmt.Sprintf("expanding query %q: %v %q (supported: %s)",
			e.Query, e.Err, e.Language, strings.Join(SupportedLanguages(), ", "))
	}
	return fmt.Sprintf("expanding query %q: %v", e.Query, e.Err)
}

func (e *ExpansionError) Unwrap() error { return e.Err }

// Expander produces QueryVariants. The zero value is not usable; create one
// with New.
type Expander struct {
	defaultSecondary string
	defaultPrimary   string
}

// New returns an Expander using cfg's default secondary language for queries
// that do not name one, and cfg's primary language for Latin-script queries.
// Unsupported defaults fall back to "ja" and "en".
func New(cfg types.SearchConfig) *Expander {
	e := &Expander{defaultSecondary: "ja", defaultPrimary: "en"}
	if b, ok := baseTag(cfg.SecondaryLanguage); ok {
		e.defaultSecondary = b
	}
	if b, ok := baseTag(cfg.PrimaryLanguage); ok {
		e.defaultPrimary = b
	}
	return e
}

// Expand returns at least two variants for q, original language first, with
// no duplicate (text, language) pairs.
func (e *Expander) Expand(q types.Query) ([]types.QueryVariant, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, &ExpansionError{Query: q.Text, Language: q.SecondaryLanguage, Err: ErrEmptyQuery}
	}

	secondary := e.defaultSecondary
	if strings.TrimSpace(q.SecondaryLanguage) != "" {
		b, ok := baseTag(q.SecondaryLanguage)
		if !ok {
			return nil, &ExpansionError{Query: q.Text, Language: q.SecondaryLanguage, Err: ErrUnsupportedLanguage}
		}
		secondary = b
	}

	primary := detectLanguage(text, e.defaultPrimary)

	// A query already written in the secondary language is paired with the
	// default primary language instead.
	other := secondary
	if other == primary {
		other = e.defaultPrimary
		if other == primary {
			other = secondary
		}
	}

	var variants []types.QueryVariant
	seen := make(map[types.QueryVariant]bool)
	add := func(v types.QueryVariant) {
		if v.Text == "" || seen[v] {
			return
		}
		seen[v] = true
		variants = append(variants, v)
	}

	add(types.QueryVariant{Text: text, Language: primary})
	add(types.QueryVariant{Text: applyInstruction(text, other), Language: other})

	if primary != "en" {
		if terms := asciiTerms(text); terms != "" && terms != text {
			add(types.QueryVariant{Text: terms, Language: "en"})
		}
	}

	return variants, nil
}
