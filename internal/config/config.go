package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/epistola/internal/batch"
	"github.com/MeKo-Tech/epistola/internal/charlm"
	"github.com/MeKo-Tech/epistola/internal/langid"
	"github.com/MeKo-Tech/epistola/internal/pipeline"
	"github.com/MeKo-Tech/epistola/internal/tagger"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json", "csv"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	fuzzy := tagger.DefaultFuzzyPolicy()
	return Config{
		LogLevel: "info",
		Language: LanguageConfig{
			DataDir:   "data/lang",
			Languages: slices.Clone(langid.DefaultLanguages),
			Order:     charlm.DefaultOrder,
			Smoothing: charlm.DefaultSmoothing,
		},
		Entities: EntitiesConfig{
			Dir:              "data/entities",
			MinUnigramLength: tagger.DefaultMinUnigramLength,
		},
		Tagger: TaggerConfig{
			Fuzzy: FuzzyConfig{
				ExactMaxLength:        fuzzy.ExactMaxLength,
				UnigramMaxDistance:    fuzzy.UnigramMaxDistance,
				MultiwordMaxDistance:  fuzzy.MultiwordMaxDistance,
				MultiwordMinFirstWord: fuzzy.MultiwordMinFirstWord,
			},
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxBodyMB:       10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 5000,
				MaxDataPerDayMB:   100,
			},
		},
		Batch: BatchConfig{
			Workers:   runtime.NumCPU(),
			OutputDir: "annotated",
			Include:   slices.Clone(batch.DefaultIncludePatterns),
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Language.Order < 2 {
		return fmt.Errorf("invalid language.order: %d (must be at least 2)", c.Language.Order)
	}
	if c.Language.Smoothing <= 0 {
		return fmt.Errorf("invalid language.smoothing: %g (must be positive)", c.Language.Smoothing)
	}
	if len(c.Language.Languages) > 0 && len(c.Language.Languages) < langid.MinModels {
		return fmt.Errorf("invalid language.languages: %v (need at least %d)", c.Language.Languages, langid.MinModels)
	}
	if c.Entities.MinUnigramLength < 1 {
		return fmt.Errorf("invalid entities.min_unigram_length: %d (must be positive)", c.Entities.MinUnigramLength)
	}
	if err := tagger.CheckStopwordLanguages(c.Entities.StopwordLanguages); err != nil {
		return fmt.Errorf("invalid entities.stopword_languages: %w", err)
	}
	if err := c.FuzzyPolicy().Validate(); err != nil {
		return fmt.Errorf("invalid tagger.fuzzy: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxBodyMB <= 0 {
		return fmt.Errorf("invalid max body size: %d (must be positive)", c.Server.MaxBodyMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if rl := c.Server.RateLimit; rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 ||
		rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDayMB < 0 {
		return fmt.Errorf("invalid server.rate_limit: limits must not be negative (%+v)", rl)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// FuzzyPolicy converts the fuzzy settings to a tagger.FuzzyPolicy.
func (c *Config) FuzzyPolicy() tagger.FuzzyPolicy {
	f := c.Tagger.Fuzzy
	return tagger.FuzzyPolicy{
		ExactMaxLength:        f.ExactMaxLength,
		UnigramMaxDistance:    f.UnigramMaxDistance,
		MultiwordMaxDistance:  f.MultiwordMaxDistance,
		MultiwordMinFirstWord: f.MultiwordMinFirstWord,
	}
}

// ToPipelineConfig converts the config to the pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.LanguageDataDir = c.Language.DataDir
	if len(c.Language.Languages) > 0 {
		cfg.Languages = c.Language.Languages
	}
	cfg.Order = c.Language.Order
	cfg.Smoothing = c.Language.Smoothing
	cfg.EntityDir = c.Entities.Dir
	cfg.Fuzzy = c.FuzzyPolicy()
	cfg.MinUnigramLength = c.Entities.MinUnigramLength
	cfg.StopwordLanguages = c.Entities.StopwordLanguages
	cfg.Parallel.MaxWorkers = c.Batch.Workers
	return cfg
}

// NewPipelineBuilder returns a pipeline builder preset from the config.
func (c *Config) NewPipelineBuilder() *pipeline.Builder {
	p := c.ToPipelineConfig()
	return pipeline.NewBuilder().
		WithLanguageDataDir(p.LanguageDataDir).
		WithLanguages(p.Languages).
		WithOrder(p.Order).
		WithSmoothing(p.Smoothing).
		WithEntityDir(p.EntityDir).
		WithFuzzyPolicy(p.Fuzzy).
		WithMinUnigramLength(p.MinUnigramLength).
		WithStopwords(p.StopwordLanguages).
		WithWorkers(p.Parallel.MaxWorkers)
}

// ToBatchConfig converts the config to a batch annotation configuration.
func (c *Config) ToBatchConfig() *batch.Config {
	fuzzy := c.FuzzyPolicy()
	return &batch.Config{
		LanguageDataDir:   c.Language.DataDir,
		Languages:         c.Language.Languages,
		Order:             c.Language.Order,
		Smoothing:         c.Language.Smoothing,
		EntityDir:         c.Entities.Dir,
		Fuzzy:             &fuzzy,
		MinUnigramLength:  c.Entities.MinUnigramLength,
		StopwordLanguages: c.Entities.StopwordLanguages,
		OutputDir:         c.Batch.OutputDir,
		Format:            c.Output.Format,
		OutputFile:        c.Output.File,
		Workers:           c.Batch.Workers,
		ContinueOnError:   c.Batch.ContinueOnError,
		Recursive:         c.Batch.Recursive,
		IncludePatterns:   c.Batch.Include,
		ExcludePatterns:   c.Batch.Exclude,
	}
}
