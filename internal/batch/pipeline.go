package batch

import (
	"github.com/MeKo-Tech/epistola/internal/pipeline"
)

// buildPipeline creates an annotation pipeline from the batch configuration.
func buildPipeline(config *Config) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithWorkers(config.Workers)

	if config.LanguageDataDir != "" {
		b = b.WithLanguageDataDir(config.LanguageDataDir)
	}
	if len(config.Languages) > 0 {
		b = b.WithLanguages(config.Languages)
	}
	if config.Order > 0 {
		b = b.WithOrder(config.Order)
	}
	if config.Smoothing > 0 {
		b = b.WithSmoothing(config.Smoothing)
	}
	if config.EntityDir != "" {
		b = b.WithEntityDir(config.EntityDir)
	}
	if config.Fuzzy != nil {
		b = b.WithFuzzyPolicy(*config.Fuzzy)
	}
	if config.MinUnigramLength > 0 {
		b = b.WithMinUnigramLength(config.MinUnigramLength)
	}
	if len(config.StopwordLanguages) > 0 {
		b = b.WithStopwords(config.StopwordLanguages)
	}
	return b.Build()
}
