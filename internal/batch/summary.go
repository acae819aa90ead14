package batch

import (
	"sort"

	"github.com/MeKo-Tech/epistola/internal/pipeline"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the document statistics of a batch.
type Summary struct {
	Documents       int            `json:"documents"`
	Failed          int            `json:"failed"`
	Paragraphs      int            `json:"paragraphs"`
	Sentences       int            `json:"sentences"`
	Persons         int            `json:"persons"`
	Places          int            `json:"places"`
	Languages       map[string]int `json:"languages"`
	MeanSentences   float64        `json:"mean_sentences"`
	StdDevSentences float64        `json:"stddev_sentences"`
}

// Summarize totals the statistics of the successful results.
func Summarize(results []*pipeline.FileResult) Summary {
	s := Summary{Languages: make(map[string]int)}
	var perDoc []float64

	for _, r := range results {
		if r == nil || r.Err != nil || r.Stats == nil {
			s.Failed++
			continue
		}
		s.Documents++
		s.Paragraphs += r.Stats.Paragraphs
		s.Sentences += r.Stats.Sentences
		s.Persons += r.Stats.Persons
		s.Places += r.Stats.Places
		for lang, n := range r.Stats.Languages {
			s.Languages[lang] += n
		}
		perDoc = append(perDoc, float64(r.Stats.Sentences))
	}

	switch len(perDoc) {
	case 0:
	case 1:
		s.MeanSentences = perDoc[0]
	default:
		s.MeanSentences, s.StdDevSentences = stat.MeanStdDev(perDoc, nil)
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
