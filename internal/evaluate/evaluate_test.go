package evaluate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/MeKo-Tech/epistola/internal/entities"
	"github.com/MeKo-Tech/epistola/internal/tagger"
	"github.com/MeKo-Tech/epistola/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTagger(t *testing.T) *tagger.Tagger {
	t.Helper()
	d, err := entities.BuildFromReaders(
		strings.NewReader(testutil.PersonsList),
		strings.NewReader(testutil.PlacesList))
	require.NoError(t, err)
	return tagger.New(d)
}

// stubTagger labels every text from a fixed table.
type stubTagger map[string]string

func (s stubTagger) Tag(text string) tagger.Result {
	label, ok := s[text]
	if !ok {
		label = tagger.LabelNoEntity
	}
	return tagger.Result{Tagged: text, Label: label}
}

func TestExtractSentences(t *testing.T) {
	sents, err := ExtractSentences([]byte(testutil.GoldTEI), "gold.xml")
	require.NoError(t, err)

	var ns []string
	for _, s := range sents {
		ns = append(ns, s.N)
		assert.Equal(t, "gold.xml", s.File)
	}
	assert.Equal(t, []string{"1", "2", "3", "7", "8"}, ns)

	first := sents[0]
	assert.Equal(t, `Ich habe euren Brief von <persName ref="p495">Heinrich Bullinger</persName> empfangen.`, first.Markup)
	assert.Equal(t, "Ich habe euren Brief von Heinrich Bullinger empfangen.", first.Text)
	assert.Equal(t, tagger.LabelPerson, first.Label)

	assert.Equal(t, tagger.LabelPlace, sents[1].Label)
	assert.Equal(t, tagger.LabelNoEntity, sents[2].Label)
	assert.Equal(t, tagger.LabelPerson, sents[3].Label)
	assert.Equal(t, tagger.LabelNoEntity, sents[4].Label)
}

func TestExtractSentences_PersonBeatsPlace(t *testing.T) {
	src := `<TEI><s n="1">Von <placeName>Bern</placeName> an <personName>Bucer</personName>.</s></TEI>`
	sents, err := ExtractSentences([]byte(src), "x.xml")
	require.NoError(t, err)
	require.Len(t, sents, 1)
	assert.Equal(t, tagger.LabelPerson, sents[0].Label)
}

func TestExtractSentences_Malformed(t *testing.T) {
	_, err := ExtractSentences([]byte(`<TEI><s n="1">offen`), "bad.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.xml")
}

func TestEvaluate_Counts(t *testing.T) {
	sents := []GoldSentence{
		{File: "a.xml", N: "1", Text: "eins", Label: tagger.LabelPerson},
		{File: "a.xml", N: "2", Text: "zwei", Label: tagger.LabelPlace},
		{File: "a.xml", N: "3", Text: "drei", Label: tagger.LabelPerson},
		{File: "b.xml", N: "1", Text: "vier", Label: tagger.LabelNoEntity},
	}
	stub := stubTagger{
		"eins": tagger.LabelPerson,
		"zwei": tagger.LabelPerson,
	}

	r := Evaluate(stub, sents)

	require.Len(t, r.Files, 2)
	a := r.Files[0]
	assert.Equal(t, "a.xml", a.File)
	assert.Equal(t, 3, a.Total)
	assert.Equal(t, 1, a.Matches)
	assert.Equal(t, 1, a.FalsePositives)
	assert.Equal(t, 1, a.FalseNegatives)
	assert.InDelta(t, 1.0/3, a.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, a.Precision, 1e-9)
	assert.InDelta(t, 0.5, a.Recall, 1e-9)
	assert.InDelta(t, 0.5, a.F1, 1e-9)

	b := r.Files[1]
	assert.Equal(t, 1, b.Matches)
	assert.InDelta(t, 1.0, b.F1, 1e-9)

	assert.Equal(t, 4, r.Global.Total)
	assert.Equal(t, 2, r.Global.Matches)
	assert.InDelta(t, 2.0/3, r.Global.Precision, 1e-9)
	assert.InDelta(t, 0.75, r.MacroF1, 1e-9)

	require.Len(t, r.Mismatches, 2)
	assert.Equal(t, FalsePositive, r.Mismatches[0].Kind)
	assert.Equal(t, "2", r.Mismatches[0].N)
	assert.Equal(t, tagger.LabelPerson, r.Mismatches[0].Predicted)
	assert.Equal(t, FalseNegative, r.Mismatches[1].Kind)
}

func TestEvaluate_Empty(t *testing.T) {
	r := Evaluate(stubTagger{}, nil)
	assert.Empty(t, r.Files)
	assert.Zero(t, r.Global.Accuracy)
	assert.Zero(t, r.Global.Precision)
	assert.Zero(t, r.Global.F1)
	assert.Zero(t, r.MacroF1)
	assert.NotNil(t, r.Mismatches)
}

func TestEvaluate_GoldDocument(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteTEI(t, dir, "gold.xml", testutil.GoldTEI)
	testutil.WriteTEI(t, dir, "short.xml",
		`<TEI><s n="1">Gruß aus <placeName ref="l20">Augsburg</placeName>.</s></TEI>`)

	sents, err := ExtractFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, sents, 6)

	r := Evaluate(newTagger(t), sents)

	assert.Equal(t, 6, r.Global.Total)
	assert.Equal(t, 4, r.Global.Matches)
	assert.Equal(t, 1, r.Global.FalsePositives)
	assert.Equal(t, 1, r.Global.FalseNegatives)
	assert.InDelta(t, 0.8, r.Global.Precision, 1e-9)
	assert.InDelta(t, 0.8, r.Global.Recall, 1e-9)
	assert.InDelta(t, 0.875, r.MacroF1, 1e-9)

	require.Len(t, r.Mismatches, 2)
	byN := map[string]Mismatch{}
	for _, m := range r.Mismatches {
		byN[m.N] = m
	}
	assert.Equal(t, FalseNegative, byN["7"].Kind)
	assert.Equal(t, FalsePositive, byN["8"].Kind)
	assert.Contains(t, byN["8"].Tagged, `<placeName ref="l9">Bern</placeName>`)
}

func TestExtractFiles_Missing(t *testing.T) {
	_, err := ExtractFiles([]string{"/nonexistent/gold"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestFormatReport(t *testing.T) {
	r := Evaluate(stubTagger{"eins": tagger.LabelPlace}, []GoldSentence{
		{File: "a.xml", N: "1", Text: "eins", Label: tagger.LabelPerson},
		{File: "a.xml", N: "2", Text: "zwei", Label: tagger.LabelNoEntity},
	})

	text, err := FormatReport(r, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "a.xml: Precision: 0.500, Recall: 1.000, F1-Score: 0.667, Accuracy: 50.000% (1/2)")
	assert.Contains(t, text, "Mismatches: 1 (false positives 1, false negatives 0)")

	js, err := FormatReport(r, "json")
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))
	assert.Equal(t, r.Global, decoded.Global)

	csvOut, err := FormatReport(r, "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a.xml,1,false_positive,contains_person,contains_place,eins,eins", lines[1])

	_, err = FormatReport(r, "xml")
	require.Error(t, err)
}
