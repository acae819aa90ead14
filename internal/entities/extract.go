package entities

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Annotations produced by an automatic tagger are marked with these values and
// must not feed back into the lists.
var autoRefs = map[string]bool{"auto": true, "auto-name": true}

const autoType = "auto_name"

// ExtractNames collects the hand-annotated persName/personName and placeName
// elements of a TEI document, in document order.
func ExtractNames(r io.Reader) (map[Category][]Entry, error) {
	type open struct {
		cat  Category
		id   string
		skip bool
		text strings.Builder
	}

	out := make(map[Category][]Entry, numCategories)
	var stack []*open

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse TEI: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			cat, ok := nameCategory(t.Name.Local)
			if !ok {
				continue
			}
			el := &open{cat: cat}
			for _, a := range t.Attr {
				switch a.Name.Local {
				case "ref":
					el.id = strings.TrimSpace(a.Value)
					el.skip = el.skip || autoRefs[el.id]
				case "type":
					el.skip = el.skip || a.Value == autoType
				}
			}
			stack = append(stack, el)
		case xml.CharData:
			for _, el := range stack {
				el.text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			if cat, ok := nameCategory(t.Name.Local); !ok || cat != stack[len(stack)-1].cat {
				continue
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			name := strings.Join(strings.Fields(el.text.String()), " ")
			if el.skip || name == "" {
				continue
			}
			out[el.cat] = append(out[el.cat], Entry{Form: name, ID: el.id})
		}
	}
	return out, nil
}

func nameCategory(local string) (Category, bool) {
	switch local {
	case "persName", "personName":
		return Person, true
	case "placeName":
		return Place, true
	}
	return 0, false
}

// WriteList writes entries one per line in "name, id" form.
func WriteList(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		line := e.Form
		if e.ID != "" {
			line += ", " + e.ID
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExtractDir extracts the names of every *.xml file in srcDir and writes the
// two entity lists into outDir. It returns the number of names per category.
func ExtractDir(srcDir, outDir string) (map[Category]int, error) {
	files, err := filepath.Glob(filepath.Join(srcDir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("list TEI files: %w", err)
	}
	sort.Strings(files)

	all := make(map[Category][]Entry, numCategories)
	for _, path := range files {
		names, err := extractFile(path)
		if err != nil {
			return nil, err
		}
		for cat, entries := range names {
			all[cat] = append(all[cat], entries...)
		}
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	counts := make(map[Category]int, numCategories)
	for _, cat := range Categories {
		path := filepath.Join(outDir, cat.ListFile())
		if err := writeListFile(path, all[cat]); err != nil {
			return nil, err
		}
		counts[cat] = len(all[cat])
	}
	slog.Info("Extracted entity lists",
		"files", len(files), "persons", counts[Person], "places", counts[Place], "out", outDir)
	return counts, nil
}

func extractFile(path string) (map[Category][]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // G304: caller supplies the corpus dir
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	names, err := ExtractNames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}

func writeListFile(path string, entries []Entry) error {
	f, err := os.Create(path) //nolint:gosec // G304: output path derived from configured dir
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteList(f, entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
