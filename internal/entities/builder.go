package entities

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxLineSize = 1024 * 1024

type formKey struct {
	n    int
	form string
}

// builder accumulates the tables for both categories and remembers which raw
// form contributed which entry, so that disambiguation can take a raw form out
// again without touching entries other raw forms also produced.
type builder struct {
	tables   [numCategories]map[int]map[string]string
	counts   [numCategories]map[string]int
	owners   [numCategories]map[formKey]map[string]struct{}
	produced [numCategories]map[string][]formKey
}

func newBuilder() *builder {
	b := &builder{}
	for _, cat := range Categories {
		b.tables[cat] = make(map[int]map[string]string)
		b.counts[cat] = make(map[string]int)
		b.owners[cat] = make(map[formKey]map[string]struct{})
		b.produced[cat] = make(map[string][]formKey)
	}
	return b
}

// Build reads extracted_persons.txt and extracted_places.txt from dir. A
// missing list leaves its category empty.
func Build(dir string) (*Dictionaries, error) {
	var readers [numCategories]io.Reader
	for _, cat := range Categories {
		path := filepath.Join(dir, cat.ListFile())
		f, err := os.Open(path) //nolint:gosec // G304: entity dir comes from configuration
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Entity list not found, category left empty", "category", cat.String(), "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open entity list: %w", err)
		}
		defer func() { _ = f.Close() }()
		readers[cat] = f
	}

	d, err := BuildFromReaders(readers[Person], readers[Place])
	if err != nil {
		return nil, fmt.Errorf("build dictionaries from %s: %w", dir, err)
	}
	slog.Info("Built entity dictionaries",
		"dir", dir,
		"persons", d.Len(Person),
		"places", d.Len(Place),
		"max_length", d.MaxLength())
	return d, nil
}

// BuildFromReaders builds dictionaries from entity lists in "name, id" form.
// Either reader may be nil.
func BuildFromReaders(persons, places io.Reader) (*Dictionaries, error) {
	b := newBuilder()
	for cat, r := range [numCategories]io.Reader{persons, places} {
		if r == nil {
			continue
		}
		if err := b.read(Category(cat), r); err != nil {
			return nil, fmt.Errorf("read %s list: %w", Category(cat).FileStem(), err)
		}
	}
	b.disambiguate()
	return b.finish(), nil
}

func (b *builder) read(cat Category, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		name, id, ok := parseLine(line)
		if !ok {
			slog.Debug("Skipping entity line", "category", cat.String(), "line", lineNo)
			continue
		}
		b.add(cat, name, id)
	}
	return sc.Err()
}

// parseLine splits "name, id" at the last separator. The id is optional.
func parseLine(line string) (name, id string, ok bool) {
	line = strings.TrimSpace(line)
	name = line
	if i := strings.LastIndex(line, ", "); i >= 0 {
		name, id = line[:i], strings.TrimSpace(line[i+2:])
	}
	name = strings.TrimFunc(name, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if name == "" {
		return "", "", false
	}
	return norm.NFC.String(name), id, true
}

func (b *builder) add(cat Category, name, id string) {
	words := strings.Fields(name)
	n := len(words)
	base := strings.Join(words, " ")

	b.counts[cat][base]++
	b.put(cat, base, formKey{n: n, form: base}, id, true)
	for _, v := range variants(words) {
		b.put(cat, base, formKey{n: n, form: v}, id, false)
	}
}

// put stores k for base. A literal always sets its id; a variant only fills a
// free slot.
func (b *builder) put(cat Category, base string, k formKey, id string, literal bool) {
	table := b.tables[cat][k.n]
	if table == nil {
		table = make(map[string]string)
		b.tables[cat][k.n] = table
	}
	if _, exists := table[k.form]; literal || !exists {
		table[k.form] = id
	}

	owners := b.owners[cat][k]
	if owners == nil {
		owners = make(map[string]struct{})
		b.owners[cat][k] = owners
	}
	if _, seen := owners[base]; !seen {
		owners[base] = struct{}{}
		b.produced[cat][base] = append(b.produced[cat][base], k)
	}
}

// disambiguate assigns every raw form listed in both categories to the one
// that lists it more often. Ties go to Person.
func (b *builder) disambiguate() {
	shared := make([]string, 0)
	for base := range b.counts[Person] {
		if b.counts[Place][base] > 0 {
			shared = append(shared, base)
		}
	}
	sort.Strings(shared)

	for _, base := range shared {
		persons, places := b.counts[Person][base], b.counts[Place][base]
		loser := Place
		if places > persons {
			loser = Person
		}
		slog.Debug("Disambiguated entity",
			"form", base, "persons", persons, "places", places, "removed_from", loser.String())
		b.remove(loser, base)
	}
}

// remove drops base and each of its variants no other raw form produced.
func (b *builder) remove(cat Category, base string) {
	for _, k := range b.produced[cat][base] {
		owners := b.owners[cat][k]
		delete(owners, base)
		if k.form == base || len(owners) == 0 {
			delete(b.tables[cat][k.n], k.form)
			delete(b.owners[cat], k)
		}
	}
	delete(b.produced[cat], base)
}

func (b *builder) finish() *Dictionaries {
	d := &Dictionaries{}
	for _, cat := range Categories {
		d.tables[cat] = make(map[int]map[string]string)
		for n, table := range b.tables[cat] {
			if len(table) == 0 {
				continue
			}
			d.tables[cat][n] = table
			if n > d.maxLen {
				d.maxLen = n
			}
		}
		d.counts[cat] = b.counts[cat]
	}
	return d
}
