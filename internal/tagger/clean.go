package tagger

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var markupRE = regexp.MustCompile(`<[^>]*>`)

// cleanWords strips inline markup from span and trims punctuation and symbols
// off every word. Words that end up empty are dropped.
func cleanWords(span string) []string {
	fields := strings.Fields(markupRE.ReplaceAllString(span, ""))
	words := fields[:0]
	for _, f := range fields {
		if w := strings.TrimFunc(f, isPunctOrSymbol); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func isPunctOrSymbol(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// splitPunct separates the punctuation runs opening and closing span, which
// stay outside the element.
func splitPunct(span string) (head, core, tail string) {
	core = strings.TrimLeftFunc(span, unicode.IsPunct)
	head = span[:len(span)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsPunct)
	return head, trimmed, core[len(trimmed):]
}
