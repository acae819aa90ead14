// Package sentence splits running text into sentences.
package sentence

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

// Splitter splits text into trimmed, non-empty sentences.
type Splitter interface {
	Split(text string) []string
}

// Punkt is a Splitter backed by the Punkt sentence boundary detector. The
// tokenizers are pooled so that one Punkt can serve all workers.
type Punkt struct {
	pool sync.Pool
}

// NewPunkt loads the Punkt model once to check that it is usable.
func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	p := &Punkt{}
	p.pool.New = func() any {
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil
		}
		return t
	}
	p.pool.Put(tok)
	return p, nil
}

// Split implements Splitter.
func (p *Punkt) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	tok, ok := p.pool.Get().(*sentences.DefaultSentenceTokenizer)
	if !ok || tok == nil {
		return []string{strings.TrimSpace(text)}
	}
	defer p.pool.Put(tok)

	var out []string
	for _, s := range tok.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitterFunc adapts a function to Splitter.
type SplitterFunc func(text string) []string

// Split implements Splitter.
func (f SplitterFunc) Split(text string) []string { return f(text) }
