package evaluate

import (
	"sort"

	"github.com/MeKo-Tech/epistola/internal/tagger"
	"gonum.org/v1/gonum/stat"
)

// Tagger is the part of the entity tagger evaluation needs.
type Tagger interface {
	Tag(text string) tagger.Result
}

// Mismatch kinds.
const (
	FalsePositive = "false_positive"
	FalseNegative = "false_negative"
)

// Metrics are the counters and scores of one file or of the whole run.
// Scores are fractions in [0,1]; a zero denominator gives 0.
type Metrics struct {
	Total          int     `json:"total"`
	Matches        int     `json:"matches"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// FileMetrics are the metrics of one gold file.
type FileMetrics struct {
	File string `json:"file"`
	Metrics
}

// Mismatch is a sentence whose predicted label differs from the gold label.
type Mismatch struct {
	File      string `json:"file"`
	N         string `json:"n"`
	Sentence  string `json:"sentence"`
	Tagged    string `json:"tagged"`
	Gold      string `json:"gold"`
	Predicted string `json:"predicted"`
	Kind      string `json:"kind"`
}

// Report is the outcome of an evaluation run.
type Report struct {
	Files      []FileMetrics `json:"files"`
	Global     Metrics       `json:"global"`
	MacroF1    float64       `json:"macro_f1"`
	Mismatches []Mismatch    `json:"mismatches"`
}

func (m *Metrics) record(match, falsePositive bool) {
	m.Total++
	switch {
	case match:
		m.Matches++
	case falsePositive:
		m.FalsePositives++
	default:
		m.FalseNegatives++
	}
}

func (m *Metrics) score() {
	m.Accuracy = ratio(m.Matches, m.Total)
	m.Precision = ratio(m.Matches, m.Matches+m.FalsePositives)
	m.Recall = ratio(m.Matches, m.Matches+m.FalseNegatives)
	if sum := m.Precision + m.Recall; sum > 0 {
		m.F1 = 2 * m.Precision * m.Recall / sum
	}
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// Evaluate re-tags the plain text of every gold sentence and compares the
// predicted label with the gold one. An entity label that differs from the
// gold label is a false positive; predicting no entity where the gold has one
// is a false negative.
func Evaluate(tg Tagger, sentences []GoldSentence) Report {
	perFile := make(map[string]*Metrics)
	report := Report{Mismatches: []Mismatch{}}

	for _, s := range sentences {
		res := tg.Tag(s.Text)
		match := res.Label == s.Label
		falsePositive := !match && res.Label != tagger.LabelNoEntity

		fm, ok := perFile[s.File]
		if !ok {
			fm = &Metrics{}
			perFile[s.File] = fm
		}
		fm.record(match, falsePositive)
		report.Global.record(match, falsePositive)

		if !match {
			kind := FalseNegative
			if falsePositive {
				kind = FalsePositive
			}
			report.Mismatches = append(report.Mismatches, Mismatch{
				File:      s.File,
				N:         s.N,
				Sentence:  s.Text,
				Tagged:    res.Tagged,
				Gold:      s.Label,
				Predicted: res.Label,
				Kind:      kind,
			})
		}
	}

	files := make([]string, 0, len(perFile))
	for f := range perFile {
		files = append(files, f)
	}
	sort.Strings(files)

	f1s := make([]float64, 0, len(files))
	for _, f := range files {
		m := perFile[f]
		m.score()
		report.Files = append(report.Files, FileMetrics{File: f, Metrics: *m})
		f1s = append(f1s, m.F1)
	}
	report.Global.score()
	if len(f1s) > 0 {
		report.MacroF1 = stat.Mean(f1s, nil)
	}
	return report
}
