package benchmark

import (
	"github.com/MeKo-Tech/epistola/internal/pipeline"
)

// Benchmark names used by NewPipelineSuite.
const (
	Identify = "identify"
	Tag      = "tag"
	Annotate = "annotate"
)

// NewPipelineSuite benchmarks identification and tagging over texts and
// annotation over docs. Empty inputs leave the matching benchmarks out.
func NewPipelineSuite(pl *pipeline.Pipeline, texts []string, docs [][]byte) *Suite {
	s := NewSuite()
	if len(texts) > 0 {
		s.Add(Identify, len(texts), func() error {
			for _, text := range texts {
				if _, err := pl.Identifier.Identify(text); err != nil {
					return err
				}
			}
			return nil
		})
		s.Add(Tag, len(texts), func() error {
			for _, text := range texts {
				pl.Tag(text)
			}
			return nil
		})
	}
	if len(docs) > 0 {
		s.Add(Annotate, len(docs), func() error {
			for _, doc := range docs {
				if _, _, err := pl.AnnotateDocument(doc); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return s
}
