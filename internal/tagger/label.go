package tagger

import "strings"

// Sentence labels.
const (
	LabelPerson   = "contains_person"
	LabelPlace    = "contains_place"
	LabelNoEntity = "no_entity"
)

// Label classifies tagged text by the entities it contains. Persons win over
// places.
func Label(tagged string) string {
	switch {
	case strings.Contains(tagged, "<personName"), strings.Contains(tagged, "<persName"):
		return LabelPerson
	case strings.Contains(tagged, "<placeName"):
		return LabelPlace
	default:
		return LabelNoEntity
	}
}
