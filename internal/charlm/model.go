// Package charlm implements a character-level n-gram language model with
// additive (Lidstone) smoothing.
//
// A Model is trained once from newline-delimited text and is immutable
// afterwards, so a trained Model can be shared by any number of goroutines.
package charlm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultOrder is the n-gram order used when none is configured.
	DefaultOrder = 3
	// DefaultSmoothing is the Lidstone constant used when none is configured.
	DefaultSmoothing = 0.1
)

var (
	// ErrEmptyCorpus is returned when training data contains no lines.
	ErrEmptyCorpus = errors.New("training corpus is empty")
	// ErrInvalidOrder is returned for an n-gram order below 2.
	ErrInvalidOrder = errors.New("n-gram order must be at least 2")
	// ErrInvalidSmoothing is returned for a non-positive smoothing constant.
	ErrInvalidSmoothing = errors.New("smoothing must be positive")
)

// symbol is a rune or one of the two sentinels. Sentinels are negative so
// they can never collide with a decoded rune.
type symbol int32

const (
	bos symbol = -1
	eos symbol = -2
)

// Model is a character n-gram language model.
type Model struct {
	order     int
	smoothing float64

	// logprobs holds log2 P(head | history) for every observed pair.
	logprobs map[string]map[symbol]float64
	// seenHistory holds the fallback for a known history and unseen head.
	seenHistory map[string]float64
	// unseenHistory is the fallback for histories never observed.
	unseenHistory float64
}

// New creates an untrained model of the given order and smoothing.
func New(order int, smoothing float64) (*Model, error) {
	if order < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	if smoothing <= 0 || math.IsNaN(smoothing) || math.IsInf(smoothing, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSmoothing, smoothing)
	}
	return &Model{order: order, smoothing: smoothing}, nil
}

// Order returns the n-gram order.
func (m *Model) Order() int { return m.order }

// Smoothing returns the Lidstone constant.
func (m *Model) Smoothing() float64 { return m.smoothing }

// Histories returns the number of distinct histories seen in training.
func (m *Model) Histories() int { return len(m.seenHistory) }

// Trained reports whether Train completed successfully.
func (m *Model) Trained() bool { return m.logprobs != nil }

// Train reads one training line per input line. Any previous training state
// is replaced.
func (m *Model) Train(r io.Reader) error {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read training data: %w", err)
	}
	return m.TrainLines(lines)
}

// TrainString trains on a newline-delimited corpus.
func (m *Model) TrainString(corpus string) error {
	return m.Train(strings.NewReader(corpus))
}

// TrainLines trains on the given lines. Empty lines still contribute the
// transition from the start padding to the end symbol.
func (m *Model) TrainLines(lines []string) error {
	if len(lines) == 0 {
		return ErrEmptyCorpus
	}

	ngrams := make(map[string]map[symbol]int)
	histories := make(map[string]int)
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		m.eachNgram(line, func(history string, head symbol) {
			heads, ok := ngrams[history]
			if !ok {
				heads = make(map[symbol]int)
				ngrams[history] = heads
			}
			heads[head]++
			histories[history]++
		})
	}

	k := m.smoothing
	v := float64(len(histories))

	logprobs := make(map[string]map[symbol]float64, len(ngrams))
	seen := make(map[string]float64, len(histories))
	for history, heads := range ngrams {
		denom := float64(histories[history]) + k*v
		probs := make(map[symbol]float64, len(heads))
		for head, c := range heads {
			probs[head] = math.Log2((float64(c) + k) / denom)
		}
		logprobs[history] = probs
		seen[history] = math.Log2(k / denom)
	}

	m.logprobs = logprobs
	m.seenHistory = seen
	m.unseenHistory = math.Log2(k / (k * v))
	return nil
}

// logProb returns log2 P(head | history), falling back to the history-level
// estimate and then to the unseen-history estimate.
func (m *Model) logProb(history string, head symbol) float64 {
	if heads, ok := m.logprobs[history]; ok {
		if lp, ok := heads[head]; ok {
			return lp
		}
		return m.seenHistory[history]
	}
	return m.unseenHistory
}

// Perplexity returns the per-symbol perplexity of s. Lower means a better
// fit. An untrained model yields +Inf.
func (m *Model) Perplexity(s string) float64 {
	if !m.Trained() {
		return math.Inf(1)
	}
	var total float64
	m.eachNgram(s, func(history string, head symbol) {
		total += m.logProb(history, head)
	})
	n := float64(utf8.RuneCountInString(s) + 1)
	return math.Pow(2, -total/n)
}

// eachNgram pads s with order-1 start symbols and one end symbol and calls fn
// for every window of length order.
func (m *Model) eachNgram(s string, fn func(history string, head symbol)) {
	symbols := make([]symbol, 0, m.order-1+len(s)+1)
	for range m.order - 1 {
		symbols = append(symbols, bos)
	}
	for _, r := range s {
		symbols = append(symbols, symbol(r))
	}
	symbols = append(symbols, eos)

	for i := 0; i+m.order <= len(symbols); i++ {
		fn(historyKey(symbols[i:i+m.order-1]), symbols[i+m.order-1])
	}
}

// historyKey encodes a symbol sequence as a map key, four bytes per symbol.
func historyKey(symbols []symbol) string {
	buf := make([]byte, 4*len(symbols))
	for i, s := range symbols {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(s))
	}
	return string(buf)
}
