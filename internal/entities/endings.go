package entities

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// latinEndings maps a Latin inflectional ending to the endings it alternates
// with. Names in the letters appear in several cases, so each listed name is
// also entered under its other case forms.
var latinEndings = map[string][]string{
	"am":   {"ae", "arum", "is", "as"},
	"ae":   {"arum", "is", "as"},
	"as":   {"arum", "is"},
	"os":   {"i", "orum", "is", "a", "e", "o"},
	"um":   {"i", "orum", "is", "a", "e", "o"},
	"is":   {"ium", "ibus", "es"},
	"o":    {"i", "um", "o"},
	"e":    {"i", "um", "e"},
	"i":    {"orum", "is", "a", "e", "o"},
	"orum": {"is", "a", "e", "o"},
	"ibus": {"es"},
	"es":   {"ium", "ibus"},
	"ium":  {"ibus", "es"},
}

var sortedEndings = func() []string {
	keys := make([]string, 0, len(latinEndings))
	for k := range latinEndings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()

// variants returns the ending variants of a multi-word form, one word position
// at a time. The result is deterministic and may contain duplicates and the
// form itself.
func variants(words []string) []string {
	var out []string
	for i, word := range words {
		wordLen := utf8.RuneCountInString(word)
		for _, ending := range sortedEndings {
			if !strings.HasSuffix(word, ending) || utf8.RuneCountInString(ending) >= wordLen {
				continue
			}
			stem := word[:len(word)-len(ending)]
			for _, alt := range latinEndings[ending] {
				out = append(out, replaceWord(words, i, stem+alt))
			}
		}
	}
	return out
}

func replaceWord(words []string, i int, word string) string {
	parts := make([]string, len(words))
	copy(parts, words)
	parts[i] = word
	return strings.Join(parts, " ")
}
