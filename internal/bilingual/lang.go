package bilingual

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// answerInstructions maps each supported base language to the suffix that
// asks the grounding model to answer in that language.
var answerInstructions = map[string]string{
	"en": "(answer in English)",
	"ja": "(日本語で回答)",
	"zh": "(请用中文回答)",
	"ko": "(한국어로 답변)",
	"de": "(auf Deutsch antworten)",
	"fr": "(répondre en français)",
	"es": "(responder en español)",
	"pt": "(responder em português)",
	"it": "(rispondere in italiano)",
	"ru": "(ответь на русском)",
}

// SupportedLanguages returns the base tags the expander accepts, sorted.
func SupportedLanguages() []string {
	return []string{"de", "en", "es", "fr", "it", "ja", "ko", "pt", "ru", "zh"}
}

// baseTag parses a BCP-47 tag and reduces it to its base language
// ("ja-JP" → "ja"). It returns false when the tag is malformed or the
// language is not supported.
func baseTag(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", false
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", false
	}
	base, conf := t.Base()
	if conf != language.Exact {
		return "", false
	}
	b := base.String()
	if _, ok := answerInstructions[b]; !ok {
		return "", false
	}
	return b, true
}

// applyInstruction appends the answer-language instruction for lang to text.
func applyInstruction(text, lang string) string {
	return text + " " + answerInstructions[lang]
}

// detectLanguage guesses the language of text from its script. Kana or Han
// characters mean Japanese, Hangul means Korean; anything else falls back.
func detectLanguage(text, fallback string) string {
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han):
			return "ja"
		case unicode.Is(unicode.Hangul, r):
			return "ko"
		}
	}
	return fallback
}

// asciiTerms pulls ASCII technical terms (at least two characters) out of a
// mixed-script query, e.g. "Rust MCP SDK の使い方" → "Rust MCP SDK".
func asciiTerms(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		isWordChar := r < unicode.MaxASCII &&
			(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.')
		return !isWordChar
	})

	var terms []string
	for _, w := range words {
		if len(w) >= 2 {
			terms = append(terms, w)
		}
	}
	return strings.Join(terms, " ")
}
