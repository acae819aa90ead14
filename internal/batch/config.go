package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/epistola/internal/pipeline"
	"github.com/MeKo-Tech/epistola/internal/tagger"
)

// Config holds all configuration for batch annotation.
type Config struct {
	// Language identification
	LanguageDataDir string
	Languages       []string
	Order           int
	Smoothing       float64

	// Entity tagging
	EntityDir         string
	Fuzzy             *tagger.FuzzyPolicy
	MinUnigramLength  int
	StopwordLanguages []string

	// Output
	OutputDir  string
	Format     string
	OutputFile string

	// Parallel processing
	Workers         int
	ContinueOnError bool

	// File discovery
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress
	ShowProgress     bool
	Quiet            bool
	ShowStats        bool
	ProgressInterval time.Duration
}

// Result holds the result of a batch run.
type Result struct {
	Files       []*pipeline.FileResult
	Duration    time.Duration
	WorkerCount int
}

// FormatResults formats the per-document results in the given format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Files, format)
}

// SaveResults writes the formatted results to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(w, output)
	}

	return nil
}

// PrintStats prints processing statistics to w.
func (r *Result) PrintStats(w io.Writer, quiet bool) {
	if quiet {
		return
	}
	stats := pipeline.CalculateStats(r.Files, r.Duration, r.WorkerCount)
	summary := Summarize(r.Files)

	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total documents: %d\n", stats.TotalFiles)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.ProcessedFiles)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.FailedFiles)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per document: %v\n", stats.AveragePerFile.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f docs/sec\n", stats.ThroughputPerSec)
	_, _ = fmt.Fprintf(w, "  Sentences: %d (%.1f ± %.1f per document)\n",
		summary.Sentences, summary.MeanSentences, summary.StdDevSentences)
	_, _ = fmt.Fprintf(w, "  Persons: %d\n", summary.Persons)
	_, _ = fmt.Fprintf(w, "  Places: %d\n", summary.Places)
	for _, lang := range sortedKeys(summary.Languages) {
		_, _ = fmt.Fprintf(w, "  Language %s: %d sentences\n", lang, summary.Languages[lang])
	}
}
