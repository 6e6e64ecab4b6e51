package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Punctuation is the set of characters stripped from every text.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Options tunes normalization for a corpus variant.
type Options struct {
	// CollapseSpaces replaces every double space with a single space before
	// lowercasing. Comment exports carry doubled spaces between sentences.
	CollapseSpaces bool
}

var punctuation = runes.Predicate(func(r rune) bool {
	return r < 0x80 && strings.ContainsRune(Punctuation, r)
})

// Normalize applies the given options to raw text. Empty input yields an
// empty string.
func Normalize(raw string, opts Options) string {
	if raw == "" {
		return ""
	}
	text := strings.ReplaceAll(raw, "\n", "")
	if opts.CollapseSpaces {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	// Transformers carry state, so a fresh chain is built per call.
	chain := transform.Chain(cases.Lower(language.Und), runes.Remove(punctuation))
	out, _, err := transform.String(chain, text)
	if err != nil {
		// Lowercasing and rune removal never fail on valid UTF-8; fall back
		// to the simple path for anything else.
		return stripPunctuation(strings.ToLower(text))
	}
	return out
}

// Tokens splits normalized text on Unicode whitespace.
func Tokens(text string) []string {
	return strings.Fields(text)
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if punctuation.Contains(r) {
			return -1
		}
		return r
	}, s)
}
