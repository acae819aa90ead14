package tagger

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// FuzzyPolicy decides how far a span may be from a dictionary form and still
// be tagged. Lengths are counted in runes of the cleaned span.
type FuzzyPolicy struct {
	// Unigrams up to this length must match exactly.
	ExactMaxLength int `mapstructure:"exact_max_length" yaml:"exact_max_length" json:"exact_max_length"`
	// Largest distance accepted for longer unigrams.
	UnigramMaxDistance int `mapstructure:"unigram_max_distance" yaml:"unigram_max_distance" json:"unigram_max_distance"`
	// Largest distance accepted for multiword spans.
	MultiwordMaxDistance int `mapstructure:"multiword_max_distance" yaml:"multiword_max_distance" json:"multiword_max_distance"`
	// Multiword spans whose first word is shorter than this are not matched fuzzily.
	MultiwordMinFirstWord int `mapstructure:"multiword_min_first_word" yaml:"multiword_min_first_word" json:"multiword_min_first_word"`
}

// DefaultFuzzyPolicy returns the thresholds tuned on the Bullinger letters.
func DefaultFuzzyPolicy() FuzzyPolicy {
	return FuzzyPolicy{
		ExactMaxLength:        4,
		UnigramMaxDistance:    1,
		MultiwordMaxDistance:  3,
		MultiwordMinFirstWord: 4,
	}
}

// MaxDistance returns the largest accepted edit distance for a cleaned span of
// n words, or -1 when the span must not be matched fuzzily.
func (p FuzzyPolicy) MaxDistance(cleaned string, n int) int {
	if n <= 1 {
		if utf8.RuneCountInString(cleaned) <= p.ExactMaxLength {
			return 0
		}
		return p.UnigramMaxDistance
	}
	first, _, _ := strings.Cut(cleaned, " ")
	if utf8.RuneCountInString(first) < p.MultiwordMinFirstWord {
		return -1
	}
	return p.MultiwordMaxDistance
}

// Validate rejects negative thresholds.
func (p FuzzyPolicy) Validate() error {
	if p.ExactMaxLength < 0 || p.UnigramMaxDistance < 0 ||
		p.MultiwordMaxDistance < 0 || p.MultiwordMinFirstWord < 0 {
		return errors.New("fuzzy policy thresholds must not be negative")
	}
	return nil
}
