package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is the kind of named entity a dictionary holds.
type Category int

const (
	Person Category = iota
	Place
)

// Categories lists every category in lookup order.
var Categories = []Category{Person, Place}

const numCategories = 2

func (c Category) String() string {
	switch c {
	case Person:
		return "person"
	case Place:
		return "place"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// TagName returns the TEI element name used to mark up entities of c.
func (c Category) TagName() string {
	if c == Place {
		return "placeName"
	}
	return "personName"
}

// FileStem returns the stem of the entity list file for c.
func (c Category) FileStem() string {
	if c == Place {
		return "places"
	}
	return "persons"
}

// ListFile returns the entity list file name for c, e.g. extracted_persons.txt.
func (c Category) ListFile() string {
	return "extracted_" + c.FileStem() + ".txt"
}

// ParseCategory accepts the category name, its file stem or its tag name.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "persons", "personname", "persname":
		return Person, nil
	case "place", "places", "placename":
		return Place, nil
	}
	return 0, fmt.Errorf("unknown entity category %q", s)
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
