package tagger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyPolicy_MaxDistance(t *testing.T) {
	p := DefaultFuzzyPolicy()

	tests := []struct {
		name    string
		cleaned string
		n       int
		want    int
	}{
		{name: "short unigram", cleaned: "Bern", n: 1, want: 0},
		{name: "umlaut counts as one rune", cleaned: "Züri", n: 1, want: 0},
		{name: "five rune unigram", cleaned: "Basel", n: 1, want: 1},
		{name: "long unigram", cleaned: "Bullingero", n: 1, want: 1},
		{name: "multiword short first word", cleaned: "Jon Bucer", n: 2, want: -1},
		{name: "multiword", cleaned: "Hans Bucer", n: 2, want: 3},
		{name: "trigram", cleaned: "Heinrich von Bullinger", n: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.MaxDistance(tt.cleaned, tt.n))
		})
	}
}

func TestFuzzyPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultFuzzyPolicy().Validate())
	assert.Error(t, FuzzyPolicy{UnigramMaxDistance: -1}.Validate())
}

func TestCleanWords(t *testing.T) {
	tests := []struct {
		span string
		want []string
	}{
		{span: "Heinrich Bullinger,", want: []string{"Heinrich", "Bullinger"}},
		{span: "(Zürich)", want: []string{"Zürich"}},
		{span: `<lb xml:id="a"/>Bern`, want: []string{"Bern"}},
		{span: "– Bern", want: []string{"Bern"}},
		{span: "... ,", want: []string{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanWords(tt.span), tt.span)
	}
}

func TestSplitPunct(t *testing.T) {
	tests := []struct {
		span, head, core, tail string
	}{
		{span: "Zürich).", core: "Zürich", tail: ")."},
		{span: "(Rome)", head: "(", core: "Rome", tail: ")"},
		{span: "„Heinrich Bullinger“,", head: "„", core: "Heinrich Bullinger", tail: "“,"},
		{span: "Bern", core: "Bern"},
		{span: "St.Gallen", core: "St.Gallen"},
	}

	for _, tt := range tests {
		head, core, tail := splitPunct(tt.span)
		assert.Equal(t, tt.head, head, tt.span)
		assert.Equal(t, tt.core, core, tt.span)
		assert.Equal(t, tt.tail, tail, tt.span)
	}
}
