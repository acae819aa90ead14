// Package evaluate measures the entity tagger against hand-annotated TEI
// letters.
package evaluate

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/MeKo-Tech/epistola/internal/tagger"
)

// GoldSentence is one s element of a gold standard document.
type GoldSentence struct {
	File   string `json:"file"`
	N      string `json:"n"`
	Markup string `json:"markup"`
	Text   string `json:"text"`
	Label  string `json:"label"`
}

var lbRE = regexp.MustCompile(`<lb[^>]*/>`)

type goldScan struct {
	start   int64
	n       string
	depth   int
	text    strings.Builder
	person  bool
	place   bool
	auto    bool
	hasNote bool
}

// ExtractSentences returns the s elements of src that are neither inside a
// note nor have a note child. Sentences holding an automatically inserted name
// are left out.
func ExtractSentences(src []byte, file string) ([]GoldSentence, error) {
	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.Entity = xml.HTMLEntity

	var (
		out       []GoldSentence
		cur       *goldScan
		noteDepth int
	)

	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		after := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if cur == nil {
				if name == "note" {
					noteDepth++
				} else if name == "s" && noteDepth == 0 {
					cur = &goldScan{start: after, n: attr(t, "n")}
				}
				continue
			}
			cur.depth++
			switch name {
			case "note":
				if cur.depth == 1 {
					cur.hasNote = true
				}
			case "persName", "personName":
				cur.person = true
				cur.auto = cur.auto || isAutoName(t)
			case "placeName":
				cur.place = true
				cur.auto = cur.auto || isAutoName(t)
			}
		case xml.EndElement:
			if cur == nil {
				if t.Name.Local == "note" && noteDepth > 0 {
					noteDepth--
				}
				continue
			}
			if cur.depth > 0 {
				cur.depth--
				continue
			}
			if !cur.hasNote && !cur.auto {
				out = append(out, cur.sentence(src[cur.start:before], file))
			}
			cur = nil
		case xml.CharData:
			if cur != nil {
				cur.text.Write(t)
			}
		}
	}
	return out, nil
}

func (g *goldScan) sentence(inner []byte, file string) GoldSentence {
	label := tagger.LabelNoEntity
	switch {
	case g.person:
		label = tagger.LabelPerson
	case g.place:
		label = tagger.LabelPlace
	}
	return GoldSentence{
		File:   file,
		N:      g.n,
		Markup: strings.TrimSpace(lbRE.ReplaceAllString(string(inner), "")),
		Text:   strings.Join(strings.Fields(g.text.String()), " "),
		Label:  label,
	}
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func isAutoName(t xml.StartElement) bool {
	return attr(t, "type") == "auto_name"
}

// ExtractFiles reads the gold sentences of every path. Directories contribute
// their *.xml files in lexical order.
func ExtractFiles(paths []string) ([]GoldSentence, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}
	var all []GoldSentence
	for _, f := range files {
		src, err := os.ReadFile(f) //nolint:gosec // G304: gold paths are chosen by the user
		if err != nil {
			return nil, fmt.Errorf("read gold file: %w", err)
		}
		sents, err := ExtractSentences(src, filepath.Base(f))
		if err != nil {
			return nil, err
		}
		all = append(all, sents...)
	}
	return all, nil
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.xml"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}
