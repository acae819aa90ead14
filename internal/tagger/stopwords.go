package tagger

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bbalet/stopwords"
	"golang.org/x/text/language"
)

// SupportedStopwordLanguages are the ISO 639-1 codes with a stopword list.
// Latin has none.
var SupportedStopwordLanguages = []string{
	"ar", "bg", "cs", "da", "de", "el", "en", "es", "fa", "fi", "fr", "hu", "id", "it",
	"ja", "km", "lv", "nl", "no", "pl", "pt", "ro", "ru", "sk", "sv", "th", "tr",
}

// stopwordBase reduces code to the base language the stopword lists are keyed
// by, so "de-CH" and "DE" both select German.
func stopwordBase(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code), false
	}
	base, _ := tag.Base()
	return base.String(), slices.Contains(SupportedStopwordLanguages, base.String())
}

// CheckStopwordLanguages returns an error naming every code in langs that has
// no stopword list.
func CheckStopwordLanguages(langs []string) error {
	var unsupported []string
	for _, l := range langs {
		if _, ok := stopwordBase(l); !ok {
			unsupported = append(unsupported, l)
		}
	}
	if len(unsupported) > 0 {
		return fmt.Errorf("no stopword list for %s (supported: %s)",
			strings.Join(unsupported, ", "), strings.Join(SupportedStopwordLanguages, ", "))
	}
	return nil
}

// WithStopwords rejects unigrams that are stopwords in any of langs. Codes
// without a stopword list are dropped with a warning.
func WithStopwords(langs ...string) Option {
	return func(t *Tagger) {
		t.stopLangs = nil
		for _, l := range langs {
			base, ok := stopwordBase(l)
			if !ok {
				if strings.TrimSpace(l) != "" {
					slog.Warn("No stopword list for language, ignoring it", "language", l)
				}
				continue
			}
			if !slices.Contains(t.stopLangs, base) {
				t.stopLangs = append(t.stopLangs, base)
			}
		}
	}
}

// StopwordLanguages returns the stopword lists in effect.
func (t *Tagger) StopwordLanguages() []string {
	return slices.Clone(t.stopLangs)
}

func (t *Tagger) isStopword(word string) bool {
	for _, lang := range t.stopLangs {
		if strings.TrimSpace(stopwords.CleanString(word, lang, false)) == "" {
			return true
		}
	}
	return false
}
