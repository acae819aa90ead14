// Package entities builds the person and place dictionaries the tagger looks
// names up in.
package entities

import "sort"

// Entry is one surface form and its identifier.
type Entry struct {
	Form string `json:"form"`
	ID   string `json:"id,omitempty"`
}

// Dictionaries maps category, ngram length and surface form to an id. It is
// immutable once built and safe for concurrent reads.
type Dictionaries struct {
	tables [numCategories]map[int]map[string]string
	counts [numCategories]map[string]int
	maxLen int
}

// Lookup returns the id stored for form in the n-word table of cat.
func (d *Dictionaries) Lookup(cat Category, n int, form string) (string, bool) {
	if d == nil || !valid(cat) {
		return "", false
	}
	id, ok := d.tables[cat][n][form]
	return id, ok
}

// Entries returns the n-word table of cat sorted by form.
func (d *Dictionaries) Entries(cat Category, n int) []Entry {
	if d == nil || !valid(cat) {
		return nil
	}
	table := d.tables[cat][n]
	out := make([]Entry, 0, len(table))
	for form, id := range table {
		out = append(out, Entry{Form: form, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Form < out[j].Form })
	return out
}

// MaxLength returns the word count of the longest form in any table.
func (d *Dictionaries) MaxLength() int {
	if d == nil {
		return 0
	}
	return d.maxLen
}

// Len returns the number of forms held for cat.
func (d *Dictionaries) Len(cat Category) int {
	if d == nil || !valid(cat) {
		return 0
	}
	total := 0
	for _, table := range d.tables[cat] {
		total += len(table)
	}
	return total
}

// Count returns how often rawForm was listed under cat.
func (d *Dictionaries) Count(cat Category, rawForm string) int {
	if d == nil || !valid(cat) {
		return 0
	}
	return d.counts[cat][rawForm]
}

func valid(cat Category) bool {
	return cat >= 0 && int(cat) < numCategories
}
