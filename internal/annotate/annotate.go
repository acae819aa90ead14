// Package annotate splits TEI letter paragraphs into sentences, tags the names
// in them and labels each sentence with its language.
package annotate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/epistola/internal/entities"
	"github.com/MeKo-Tech/epistola/internal/langid"
	"github.com/MeKo-Tech/epistola/internal/sentence"
	"github.com/MeKo-Tech/epistola/internal/tagger"
)

// ChunkKind distinguishes text from line-break markers.
type ChunkKind int

const (
	TextChunk ChunkKind = iota
	MarkerChunk
)

// Chunk is one piece of paragraph content. Text chunks hold XML-escaped
// character data; marker chunks hold a serialized empty element such as
// <lb xml:id="p1z1"/>.
type Chunk struct {
	Kind ChunkKind
	Data string
}

// Text returns a text chunk.
func Text(escaped string) Chunk { return Chunk{Kind: TextChunk, Data: escaped} }

// Marker returns a marker chunk.
func Marker(raw string) Chunk { return Chunk{Kind: MarkerChunk, Data: raw} }

// Sentence is one annotated sentence of a paragraph.
type Sentence struct {
	N       int    `json:"n"`
	Lang    string `json:"lang"`
	Text    string `json:"text"`
	Label   string `json:"label"`
	Persons int    `json:"persons"`
	Places  int    `json:"places"`
}

// Markup renders s as a TEI s element.
func (s Sentence) Markup() string {
	return `<s n="` + strconv.Itoa(s.N) + `" xml:lang="` + s.Lang + `">` + s.Text + `</s>`
}

var newlinesRE = regexp.MustCompile(`\n+`)

// Annotator holds the read-only components shared by all documents.
type Annotator struct {
	identifier *langid.Identifier
	tagger     *tagger.Tagger
	splitter   sentence.Splitter
}

// New returns an Annotator.
func New(id *langid.Identifier, tg *tagger.Tagger, sp sentence.Splitter) *Annotator {
	return &Annotator{identifier: id, tagger: tg, splitter: sp}
}

// AnnotateChunks turns the chunks of one paragraph into numbered sentences.
// Markers stay in the sentence they occur in. The first sentence of every text
// part continues the sentence before it, so a sentence running across a line
// break is kept whole.
func (a *Annotator) AnnotateChunks(chunks []Chunk) ([]Sentence, error) {
	var (
		out    []Sentence
		pieces []string
		cur    Sentence
		// the current sentence already holds text
		hasText bool
	)

	flush := func() error {
		if len(pieces) == 0 {
			return nil
		}
		cur.N = len(out) + 1
		cur.Text = strings.Join(pieces, " ")
		cur.Label = tagger.Label(cur.Text)
		// A sentence made of markers only has no text to identify.
		cur.Lang = langid.Unknown
		if hasText {
			lang, err := langid.Label(a.identifier, cur.Text)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", cur.N, err)
			}
			cur.Lang = lang
		}
		out = append(out, cur)
		pieces, cur, hasText = nil, Sentence{}, false
		return nil
	}

	for _, c := range chunks {
		if c.Kind == MarkerChunk {
			pieces = append(pieces, c.Data)
			continue
		}
		for _, part := range newlinesRE.Split(c.Data, -1) {
			if strings.TrimSpace(part) == "" {
				continue
			}
			for i, s := range a.splitter.Split(part) {
				if i > 0 {
					if err := flush(); err != nil {
						return nil, err
					}
				}
				var res tagger.Result
				if i == 0 && hasText {
					res = a.tagger.TagContinued(s)
				} else {
					res = a.tagger.Tag(s)
				}
				for _, m := range res.Matches {
					switch m.Category {
					case entities.Person:
						cur.Persons++
					case entities.Place:
						cur.Places++
					}
				}
				if res.Tagged != "" {
					pieces = append(pieces, res.Tagged)
					hasText = true
				}
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}
