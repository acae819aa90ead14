package charlm

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	germanCorpus = `Der Herr sei mit euch allen und mit eurem Geist.
Ich habe euren Brief mit großer Freude empfangen.
Die Kirche zu Zürich grüßt euch herzlich.
Wir haben gehört, dass der Kaiser nach Augsburg gezogen ist.
Schreibt mir bald, wie es euch und den Brüdern geht.
Gott behüte euch und eure ganze Familie.`

	latinCorpus = `Gratia et pax a domino nostro Iesu Christo.
Literas tuas accepi magno cum gaudio.
Ecclesia Tigurina te plurimum salutat.
Audivimus caesarem Augustam profectum esse.
Scribe mihi quam primum quomodo valeas cum fratribus.
Dominus te servet cum tota familia tua.`
)

func trainedModel(t *testing.T, corpus string) *Model {
	t.Helper()
	m, err := New(DefaultOrder, DefaultSmoothing)
	require.NoError(t, err)
	require.NoError(t, m.TrainString(corpus))
	return m
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		order     int
		smoothing float64
		wantErr   error
	}{
		{name: "defaults", order: DefaultOrder, smoothing: DefaultSmoothing},
		{name: "bigram", order: 2, smoothing: 1},
		{name: "order too small", order: 1, smoothing: 1, wantErr: ErrInvalidOrder},
		{name: "zero smoothing", order: 3, smoothing: 0, wantErr: ErrInvalidSmoothing},
		{name: "negative smoothing", order: 3, smoothing: -0.5, wantErr: ErrInvalidSmoothing},
		{name: "NaN smoothing", order: 3, smoothing: math.NaN(), wantErr: ErrInvalidSmoothing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.order, tt.smoothing)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.order, m.Order())
			assert.InDelta(t, tt.smoothing, m.Smoothing(), 1e-12)
			assert.False(t, m.Trained())
		})
	}
}

func TestTrain_EmptyCorpus(t *testing.T) {
	m, err := New(3, 0.1)
	require.NoError(t, err)

	require.ErrorIs(t, m.TrainString(""), ErrEmptyCorpus)
	require.ErrorIs(t, m.TrainLines(nil), ErrEmptyCorpus)
	assert.False(t, m.Trained())
}

func TestPerplexity_Untrained(t *testing.T) {
	m, err := New(3, 0.1)
	require.NoError(t, err)
	assert.True(t, math.IsInf(m.Perplexity("abc"), 1))
}

// With order 2 and smoothing 1 every value can be worked out by hand:
// training "ab" yields the histories BOS, a, b (V = 3), each seen once.
func TestPerplexity_HandComputed(t *testing.T) {
	m, err := New(2, 1)
	require.NoError(t, err)
	require.NoError(t, m.TrainLines([]string{"ab"}))
	assert.Equal(t, 3, m.Histories())

	// Every seen pair: log2((1+1)/(1+3)) = -1, three n-grams over three symbols.
	assert.InDelta(t, 2.0, m.Perplexity("ab"), 1e-9)

	// (BOS,b) unseen head: log2(1/4) = -2; (b,EOS) seen: -1.
	assert.InDelta(t, math.Pow(2, 1.5), m.Perplexity("b"), 1e-9)

	// (BOS,z) unseen head: -2; (z,EOS) unseen history: log2(1/3).
	want := math.Pow(2, -(-2+math.Log2(1.0/3.0))/2)
	assert.InDelta(t, want, m.Perplexity("z"), 1e-9)
}

func TestTrain_EmptyLinesContribute(t *testing.T) {
	m, err := New(2, 1)
	require.NoError(t, err)
	require.NoError(t, m.TrainLines([]string{""}))

	// The only n-gram is (BOS,EOS); V = 1.
	assert.Equal(t, 1, m.Histories())
	assert.InDelta(t, 1.0, m.Perplexity(""), 1e-9)
}

func TestTrain_StripsLineTerminators(t *testing.T) {
	withCR, err := New(3, 0.1)
	require.NoError(t, err)
	require.NoError(t, withCR.TrainString("abc\r\ndef\r\n"))

	plain, err := New(3, 0.1)
	require.NoError(t, err)
	require.NoError(t, plain.TrainLines([]string{"abc", "def"}))

	assert.InDelta(t, plain.Perplexity("abd"), withCR.Perplexity("abd"), 1e-12)
}

func TestTrain_ReplacesPreviousState(t *testing.T) {
	m := trainedModel(t, germanCorpus)
	germanScore := m.Perplexity("Ich habe euren Brief empfangen.")

	require.NoError(t, m.TrainString(latinCorpus))
	latinScore := m.Perplexity("Ich habe euren Brief empfangen.")

	fresh := trainedModel(t, latinCorpus)
	assert.InDelta(t, fresh.Perplexity("Ich habe euren Brief empfangen."), latinScore, 1e-12)
	assert.NotEqual(t, germanScore, latinScore)
}

func TestPerplexity_OwnCorpusScoresLower(t *testing.T) {
	de := trainedModel(t, germanCorpus)
	la := trainedModel(t, latinCorpus)

	for _, line := range strings.Split(germanCorpus, "\n") {
		assert.Less(t, de.Perplexity(line), la.Perplexity(line), line)
	}
	for _, line := range strings.Split(latinCorpus, "\n") {
		assert.Less(t, la.Perplexity(line), de.Perplexity(line), line)
	}
}

func TestPerplexity_ConvergesTowardTrainingStatistics(t *testing.T) {
	de := trainedModel(t, germanCorpus)

	verbatim := de.Perplexity("Gott behüte euch und eure ganze Familie.")
	similar := de.Perplexity("Gott behüte euch qxz vkjw.")
	foreign := de.Perplexity("Qxz vkjw pqy zzq.")

	assert.Less(t, verbatim, similar)
	assert.Less(t, similar, foreign)
}

func TestPerplexity_NovelInputIsFinite(t *testing.T) {
	m := trainedModel(t, germanCorpus)
	for _, s := range []string{"", "ωψχ", "日本語", "\x00\x01", strings.Repeat("ß", 500)} {
		p := m.Perplexity(s)
		assert.False(t, math.IsInf(p, 0) || math.IsNaN(p), "input %q", s)
		assert.Greater(t, p, 0.0, "input %q", s)
	}
}
