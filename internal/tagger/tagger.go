// Package tagger marks up person and place names in running text with a greedy
// longest-match scan over the entity dictionaries.
package tagger

import (
	"encoding/xml"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/MeKo-Tech/epistola/internal/entities"
	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinUnigramLength is the shortest unigram tried case-insensitively.
const DefaultMinUnigramLength = 4

// Match methods.
const (
	MethodExact  = "exact"
	MethodFolded = "folded"
	MethodFuzzy  = "fuzzy"
)

// Match describes one tagged span.
type Match struct {
	Category entities.Category `json:"category"`
	ID       string            `json:"id,omitempty"`
	// Span is the tagged text as it appears in the output.
	Span string `json:"span"`
	// Matched is the dictionary form the span was matched against.
	Matched  string `json:"matched"`
	Distance int    `json:"distance"`
	Method   string `json:"method"`
	// Token is the index of the first whitespace token of the span.
	Token int `json:"token"`
	// Length is the number of tokens covered.
	Length int `json:"length"`
}

// Result is the output of Tag.
type Result struct {
	Tagged  string  `json:"tagged"`
	Label   string  `json:"label"`
	Matches []Match `json:"matches"`
}

type candidate struct {
	entities.Entry
	lower string
	runes int
}

// Tagger is read-only after New and safe for concurrent use.
type Tagger struct {
	dict       *entities.Dictionaries
	policy     FuzzyPolicy
	minUnigram int
	stopLangs  []string

	// folded unigram forms per category
	folded []map[string]entities.Entry
	// lowercased forms per category and length, in sorted order
	fuzzy []map[int][]candidate
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithPolicy sets the fuzzy matching thresholds.
func WithPolicy(p FuzzyPolicy) Option {
	return func(t *Tagger) { t.policy = p }
}

// WithMinUnigramLength sets the shortest unigram tried case-insensitively.
func WithMinUnigramLength(n int) Option {
	return func(t *Tagger) { t.minUnigram = n }
}

// New returns a Tagger over d.
func New(d *entities.Dictionaries, opts ...Option) *Tagger {
	t := &Tagger{
		dict:       d,
		policy:     DefaultFuzzyPolicy(),
		minUnigram: DefaultMinUnigramLength,
		folded:     make([]map[string]entities.Entry, len(entities.Categories)),
		fuzzy:      make([]map[int][]candidate, len(entities.Categories)),
	}
	for _, opt := range opts {
		opt(t)
	}

	fold := cases.Fold()
	for _, cat := range entities.Categories {
		t.folded[cat] = make(map[string]entities.Entry)
		for _, e := range d.Entries(cat, 1) {
			key := fold.String(e.Form)
			if _, taken := t.folded[cat][key]; !taken {
				t.folded[cat][key] = e
			}
		}

		t.fuzzy[cat] = make(map[int][]candidate)
		for n := 1; n <= d.MaxLength(); n++ {
			entries := d.Entries(cat, n)
			cands := make([]candidate, len(entries))
			for i, e := range entries {
				lower := strings.ToLower(e.Form)
				cands[i] = candidate{Entry: e, lower: lower, runes: utf8.RuneCountInString(lower)}
			}
			t.fuzzy[cat][n] = cands
		}
	}
	return t
}

// Policy returns the fuzzy policy in effect.
func (t *Tagger) Policy() FuzzyPolicy { return t.policy }

// scanState is threaded through the greedy scan.
type scanState struct {
	cursor        int
	skipUntil     int
	sentenceStart bool
}

// BioTag returns text with every recognised name wrapped in a personName or
// placeName element. Tokens are rejoined with single spaces.
func (t *Tagger) BioTag(text string) string {
	return t.Tag(text).Tagged
}

// Tag is BioTag with the individual matches.
func (t *Tagger) Tag(text string) Result {
	return t.tag(text, true)
}

// TagContinued tags text that continues a sentence begun earlier, so its first
// token is not sentence-initial and may be tagged.
func (t *Tagger) TagContinued(text string) Result {
	return t.tag(text, false)
}

func (t *Tagger) tag(text string, sentenceStart bool) Result {
	tokens := strings.Fields(norm.NFC.String(text))
	out := make([]string, 0, len(tokens))
	var matches []Match

	st := scanState{sentenceStart: sentenceStart}
	for ; st.cursor < len(tokens); st.cursor++ {
		if st.cursor < st.skipUntil {
			continue
		}
		m, ok := t.longestMatch(tokens, st)
		st.sentenceStart = false
		if !ok {
			out = append(out, tokens[st.cursor])
			continue
		}

		head, core, tail := splitPunct(strings.Join(tokens[st.cursor:st.cursor+m.Length], " "))
		m.Span = core
		out = append(out, head+render(m, core)+tail)
		matches = append(matches, m)
		st.skipUntil = st.cursor + m.Length
	}

	tagged := strings.TrimSpace(strings.Join(out, " "))
	return Result{Tagged: tagged, Label: Label(tagged), Matches: matches}
}

func (t *Tagger) longestMatch(tokens []string, st scanState) (Match, bool) {
	if st.sentenceStart && st.cursor == 0 {
		return Match{}, false
	}
	maxN := t.dict.MaxLength()
	for n := maxN; n >= 1; n-- {
		if st.cursor+n > len(tokens) {
			continue
		}
		if m, ok := t.matchSpan(tokens[st.cursor:st.cursor+n], n); ok {
			m.Token = st.cursor
			m.Length = n
			return m, true
		}
	}
	return Match{}, false
}

func (t *Tagger) matchSpan(span []string, n int) (Match, bool) {
	words := cleanWords(strings.Join(span, " "))
	if len(words) != n {
		return Match{}, false
	}
	cleaned := strings.Join(words, " ")
	if !startsUpper(cleaned) {
		return Match{}, false
	}
	if n == 1 && t.isStopword(cleaned) {
		return Match{}, false
	}

	for _, cat := range entities.Categories {
		if id, ok := t.dict.Lookup(cat, n, cleaned); ok {
			return Match{Category: cat, ID: id, Matched: cleaned, Method: MethodExact}, true
		}
	}

	if n == 1 && utf8.RuneCountInString(cleaned) >= t.minUnigram {
		key := cases.Fold().String(cleaned)
		for _, cat := range entities.Categories {
			if e, ok := t.folded[cat][key]; ok {
				return Match{Category: cat, ID: e.ID, Matched: e.Form, Method: MethodFolded}, true
			}
		}
	}

	return t.fuzzyMatch(cleaned, n)
}

func (t *Tagger) fuzzyMatch(cleaned string, n int) (Match, bool) {
	maxDist := t.policy.MaxDistance(cleaned, n)
	if maxDist < 0 {
		return Match{}, false
	}
	lower := strings.ToLower(cleaned)
	runes := utf8.RuneCountInString(lower)

	best := Match{Distance: math.MaxInt}
	for _, cat := range entities.Categories {
		for _, c := range t.fuzzy[cat][n] {
			// length difference is a lower bound on the distance
			if diff := c.runes - runes; diff > maxDist || -diff > maxDist {
				continue
			}
			d := levenshtein.ComputeDistance(lower, c.lower)
			if d < best.Distance {
				best = Match{Category: cat, ID: c.ID, Matched: c.Form, Distance: d, Method: MethodFuzzy}
			}
		}
	}
	if best.Distance > maxDist {
		return Match{}, false
	}
	return best, true
}

func render(m Match, span string) string {
	var b strings.Builder
	name := m.Category.TagName()
	b.WriteString("<" + name)
	if m.ID != "" {
		b.WriteString(` ref="`)
		_ = xml.EscapeText(&b, []byte(m.ID))
		b.WriteString(`"`)
	}
	b.WriteString(">" + span + "</" + name + ">")
	return b.String()
}
