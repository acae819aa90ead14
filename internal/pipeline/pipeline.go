// Package pipeline assembles the language identifier, the entity tagger and
// the sentence annotator into one processing unit for TEI documents.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/epistola/internal/annotate"
	"github.com/MeKo-Tech/epistola/internal/charlm"
	"github.com/MeKo-Tech/epistola/internal/entities"
	"github.com/MeKo-Tech/epistola/internal/langid"
	"github.com/MeKo-Tech/epistola/internal/sentence"
	"github.com/MeKo-Tech/epistola/internal/tagger"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	LanguageDataDir string
	Languages       []string
	Order           int
	Smoothing       float64

	EntityDir         string
	Fuzzy             tagger.FuzzyPolicy
	MinUnigramLength  int
	StopwordLanguages []string

	Parallel ParallelConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		LanguageDataDir:  "data/lang",
		Languages:        langid.DefaultLanguages,
		Order:            charlm.DefaultOrder,
		Smoothing:        charlm.DefaultSmoothing,
		EntityDir:        "data/entities",
		Fuzzy:            tagger.DefaultFuzzyPolicy(),
		MinUnigramLength: tagger.DefaultMinUnigramLength,
		Parallel:         DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithLanguageDataDir sets the directory holding <code>.txt training corpora.
func (b *Builder) WithLanguageDataDir(dir string) *Builder {
	if dir != "" {
		b.cfg.LanguageDataDir = dir
	}
	return b
}

// WithLanguages sets the language codes to train.
func (b *Builder) WithLanguages(codes []string) *Builder {
	if len(codes) > 0 {
		b.cfg.Languages = codes
	}
	return b
}

// WithOrder sets the n-gram order.
func (b *Builder) WithOrder(order int) *Builder {
	if order > 0 {
		b.cfg.Order = order
	}
	return b
}

// WithSmoothing sets the Lidstone constant.
func (b *Builder) WithSmoothing(k float64) *Builder {
	if k > 0 {
		b.cfg.Smoothing = k
	}
	return b
}

// WithEntityDir sets the directory holding the extracted entity lists.
func (b *Builder) WithEntityDir(dir string) *Builder {
	if dir != "" {
		b.cfg.EntityDir = dir
	}
	return b
}

// WithFuzzyPolicy sets the fuzzy matching thresholds.
func (b *Builder) WithFuzzyPolicy(p tagger.FuzzyPolicy) *Builder {
	b.cfg.Fuzzy = p
	return b
}

// WithMinUnigramLength sets the shortest unigram tried case-insensitively.
func (b *Builder) WithMinUnigramLength(n int) *Builder {
	if n > 0 {
		b.cfg.MinUnigramLength = n
	}
	return b
}

// WithStopwords enables the stopword gate for the given languages.
func (b *Builder) WithStopwords(langs []string) *Builder {
	b.cfg.StopwordLanguages = langs
	return b
}

// WithWorkers sets the number of parallel workers for batch processing.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Parallel.MaxWorkers = n
	}
	return b
}

// WithProgress sets the reporter used by ProcessFilesParallel.
func (b *Builder) WithProgress(r ProgressReporter) *Builder {
	b.cfg.Parallel.Progress = r
	return b
}

// WithConfig replaces the whole builder config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// Config returns the current builder config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks the configuration before any model is trained.
func (b *Builder) Validate() error {
	if b.cfg.LanguageDataDir == "" {
		return errors.New("language data dir is required")
	}
	if b.cfg.EntityDir == "" {
		return errors.New("entity dir is required")
	}
	if b.cfg.Order < 2 {
		return fmt.Errorf("invalid n-gram order %d", b.cfg.Order)
	}
	if b.cfg.Smoothing <= 0 {
		return fmt.Errorf("invalid smoothing %g", b.cfg.Smoothing)
	}
	if err := b.cfg.Fuzzy.Validate(); err != nil {
		return err
	}
	return nil
}

// Build trains the language models, builds the entity dictionaries and wires
// them into a Pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	start := time.Now()

	id, err := langid.TrainFromDir(b.cfg.LanguageDataDir, b.cfg.Languages, b.cfg.Order, b.cfg.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("train language models: %w", err)
	}
	dict, err := entities.Build(b.cfg.EntityDir)
	if err != nil {
		return nil, fmt.Errorf("build entity dictionaries: %w", err)
	}
	splitter, err := sentence.NewPunkt()
	if err != nil {
		return nil, err
	}

	tg := tagger.New(dict,
		tagger.WithPolicy(b.cfg.Fuzzy),
		tagger.WithMinUnigramLength(b.cfg.MinUnigramLength),
		tagger.WithStopwords(b.cfg.StopwordLanguages...))

	p := NewFromComponents(id, dict, tg, splitter)
	p.cfg = b.cfg
	slog.Info("Pipeline ready",
		"languages", id.Languages(),
		"persons", dict.Len(entities.Person),
		"places", dict.Len(entities.Place),
		"duration", time.Since(start).Round(time.Millisecond))
	return p, nil
}

// Pipeline is read-only after construction and safe for concurrent use.
type Pipeline struct {
	cfg          Config
	Identifier   *langid.Identifier
	Dictionaries *entities.Dictionaries
	Tagger       *tagger.Tagger
	Annotator    *annotate.Annotator
}

// NewFromComponents wires already built components into a Pipeline.
func NewFromComponents(
	id *langid.Identifier,
	dict *entities.Dictionaries,
	tg *tagger.Tagger,
	sp sentence.Splitter,
) *Pipeline {
	return &Pipeline{
		cfg:          DefaultConfig(),
		Identifier:   id,
		Dictionaries: dict,
		Tagger:       tg,
		Annotator:    annotate.New(id, tg, sp),
	}
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Languages returns the registered language codes in registration order.
func (p *Pipeline) Languages() []string {
	return p.Identifier.Languages()
}

// Identify returns the language code of text and the perplexity under every
// model.
func (p *Pipeline) Identify(text string) (string, map[string]float64, error) {
	scores, err := p.Identifier.Perplexities(text)
	if err != nil {
		return "", nil, err
	}
	code, err := p.Identifier.Identify(text)
	if err != nil {
		return "", nil, err
	}
	return code, scores, nil
}

// Tag tags the names in text.
func (p *Pipeline) Tag(text string) tagger.Result {
	return p.Tagger.Tag(text)
}

// AnnotateDocument annotates one TEI document held in memory.
func (p *Pipeline) AnnotateDocument(src []byte) ([]byte, *annotate.DocumentStats, error) {
	return p.Annotator.AnnotateDocument(src)
}

// ProcessFile annotates the TEI document at in and writes it under outDir with
// the same base name. An empty outDir only annotates.
func (p *Pipeline) ProcessFile(ctx context.Context, in, outDir string) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	res := &FileResult{Path: in}

	src, err := os.ReadFile(in) //nolint:gosec // G304: input paths are chosen by the user
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in, err)
	}
	out, stats, err := p.Annotator.AnnotateDocument(src)
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", in, err)
	}
	res.Stats = stats

	if outDir != "" {
		res.OutputPath = filepath.Join(outDir, filepath.Base(in))
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(res.OutputPath, out, 0o600); err != nil {
			return nil, fmt.Errorf("write %s: %w", res.OutputPath, err)
		}
	}
	res.Duration = time.Since(start)
	slog.Debug("Annotated document", "path", in, "sentences", stats.Sentences, "duration", res.Duration)
	return res, nil
}
