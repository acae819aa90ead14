package annotate

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DocumentStats summarises one annotated document.
type DocumentStats struct {
	Paragraphs int            `json:"paragraphs"`
	Sentences  int            `json:"sentences"`
	Languages  map[string]int `json:"languages"`
	Persons    int            `json:"persons"`
	Places     int            `json:"places"`
}

func (s *DocumentStats) add(sents []Sentence) {
	s.Paragraphs++
	s.Sentences += len(sents)
	for _, sent := range sents {
		s.Languages[sent.Lang]++
		s.Persons += sent.Persons
		s.Places += sent.Places
	}
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// paragraph is the byte range of the content of one div/p element.
type paragraph struct {
	start, end int64
	chunks     []Chunk
}

func (p *paragraph) text(s string) {
	if n := len(p.chunks); n > 0 && p.chunks[n-1].Kind == TextChunk {
		p.chunks[n-1].Data += xmlEscaper.Replace(s)
		return
	}
	p.chunks = append(p.chunks, Text(xmlEscaper.Replace(s)))
}

// AnnotateDocument replaces the content of every p element directly inside a
// div with its annotated sentences, one per line. All other bytes of src are
// kept as they are.
func (a *Annotator) AnnotateDocument(src []byte) ([]byte, *DocumentStats, error) {
	paras, err := scanParagraphs(src)
	if err != nil {
		return nil, nil, err
	}

	stats := &DocumentStats{Languages: make(map[string]int)}
	var out bytes.Buffer
	out.Grow(len(src) + len(src)/2)

	var prev int64
	for _, p := range paras {
		sents, err := a.AnnotateChunks(p.chunks)
		if err != nil {
			return nil, nil, fmt.Errorf("paragraph %d: %w", stats.Paragraphs+1, err)
		}
		stats.add(sents)
		if len(sents) == 0 {
			continue
		}

		out.Write(src[prev:p.start])
		for _, s := range sents {
			out.WriteString("\n")
			out.WriteString(s.Markup())
		}
		out.WriteString("\n")
		prev = p.end
	}
	out.Write(src[prev:])
	return out.Bytes(), stats, nil
}

// scanParagraphs streams src and collects the chunks and content offsets of
// every div/p element.
func scanParagraphs(src []byte) ([]*paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.Entity = xml.HTMLEntity

	var (
		stack   []string
		paras   []*paragraph
		cur     *paragraph
		depth   int // element depth inside cur
		inLB    int
		started bool
	)

	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse TEI: %w", err)
		}
		after := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			started = true
			name := t.Name.Local
			switch {
			case cur == nil && name == "p" && len(stack) > 0 && stack[len(stack)-1] == "div":
				cur = &paragraph{start: after}
				depth = 0
			case cur != nil && name == "lb":
				cur.chunks = append(cur.chunks, Marker(emptyElement(src[before:after])))
				depth++
				inLB++
			case cur != nil:
				depth++
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if cur == nil {
				continue
			}
			if depth == 0 {
				cur.end = before
				paras = append(paras, cur)
				cur = nil
				continue
			}
			depth--
			if t.Name.Local == "lb" && inLB > 0 {
				inLB--
			}
		case xml.CharData:
			if cur != nil && inLB == 0 {
				cur.text(string(t))
			}
		}
	}
	if !started {
		return nil, errors.New("parse TEI: no root element")
	}
	return paras, nil
}

// emptyElement returns the raw start tag as a self-closing element.
func emptyElement(raw []byte) string {
	s := string(raw)
	if strings.HasSuffix(s, "/>") {
		return s
	}
	return strings.TrimSuffix(s, ">") + "/>"
}
