// Package langid picks the language of a text by comparing the perplexity of
// competing character language models.
package langid

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/epistola/internal/charlm"
	"gonum.org/v1/gonum/floats"
)

// Unknown is the language label for text that cannot be identified.
const Unknown = "unk"

// MinModels is the number of models identification needs.
const MinModels = 2

// ErrInsufficientModels is matched by every InsufficientModelsError.
var ErrInsufficientModels = errors.New("insufficient language models")

// InsufficientModelsError is returned by Identify when fewer than MinModels
// models are registered.
type InsufficientModelsError struct {
	Registered int
}

func (e *InsufficientModelsError) Error() string {
	return fmt.Sprintf("at least %d language models are needed for identification, have %d",
		MinModels, e.Registered)
}

// Is makes errors.Is(err, ErrInsufficientModels) hold.
func (e *InsufficientModelsError) Is(target error) bool {
	return target == ErrInsufficientModels
}

// Identifier holds one model per language code. Registration happens once at
// startup; afterwards an Identifier is safe for concurrent use.
type Identifier struct {
	codes  []string
	models map[string]*charlm.Model
}

// New returns an empty Identifier.
func New() *Identifier {
	return &Identifier{models: make(map[string]*charlm.Model)}
}

// AddModel registers m under code. A code that is already registered keeps its
// position and gets the new model. A nil model is ignored.
func (id *Identifier) AddModel(code string, m *charlm.Model) {
	if m == nil {
		slog.Warn("Ignoring nil language model", "code", code)
		return
	}
	if _, exists := id.models[code]; exists {
		slog.Warn("Language code already registered, replacing model", "code", code)
	} else {
		id.codes = append(id.codes, code)
	}
	id.models[code] = m
}

// Languages returns the registered codes in registration order.
func (id *Identifier) Languages() []string {
	out := make([]string, len(id.codes))
	copy(out, id.codes)
	return out
}

// Identify returns the code whose model gives text the lowest perplexity.
// Ties go to the model registered first.
func (id *Identifier) Identify(text string) (string, error) {
	scores, err := id.scores(text)
	if err != nil {
		return "", err
	}
	return id.codes[floats.MinIdx(scores)], nil
}

// Perplexities returns the perplexity of text under every registered model.
func (id *Identifier) Perplexities(text string) (map[string]float64, error) {
	scores, err := id.scores(text)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(scores))
	for i, code := range id.codes {
		out[code] = scores[i]
	}
	return out, nil
}

func (id *Identifier) scores(text string) ([]float64, error) {
	if len(id.codes) < MinModels {
		return nil, &InsufficientModelsError{Registered: len(id.codes)}
	}
	scores := make([]float64, len(id.codes))
	for i, code := range id.codes {
		scores[i] = id.models[code].Perplexity(text)
	}
	return scores, nil
}

// Label returns the lowercase language label for text, or Unknown when text is
// blank.
func Label(id *Identifier, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return Unknown, nil
	}
	code, err := id.Identify(text)
	if err != nil {
		return "", err
	}
	return strings.ToLower(code), nil
}
