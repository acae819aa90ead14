// Package batch annotates many TEI documents in one run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/MeKo-Tech/epistola/internal/pipeline"
)

// ErrNoDocuments is returned when discovery finds nothing to annotate.
var ErrNoDocuments = errors.New("no TEI documents found")

// ProcessBatch discovers the documents under paths, builds a pipeline from
// config and annotates them.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	files, err := discoverDocuments(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoDocuments
	}

	pl, err := buildPipeline(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return run(ctx, pl, files, config)
}

// ProcessBatchWithPipeline annotates the documents under paths with an
// already built pipeline.
func ProcessBatchWithPipeline(ctx context.Context, pl *pipeline.Pipeline, paths []string, config *Config) (*Result, error) {
	files, err := discoverDocuments(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoDocuments
	}
	return run(ctx, pl, files, config)
}

func run(ctx context.Context, pl *pipeline.Pipeline, files []string, config *Config) (*Result, error) {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pc := pipeline.ParallelConfig{MaxWorkers: workers}
	reporters := pipeline.Reporters{pipeline.NewLogReporter(slog.Default(), 10)}
	if config.ShowProgress && !config.Quiet {
		reporters = append(reporters, pipeline.NewBarReporter(os.Stderr, "Annotating: ", config.ProgressInterval))
	}
	pc.Progress = reporters

	start := time.Now()
	results, err := pl.ProcessFilesParallel(ctx, files, config.OutputDir, pc)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	res := &Result{
		Files:       results,
		Duration:    duration,
		WorkerCount: pc.MaxWorkers,
	}
	if !config.ContinueOnError {
		if err := pipeline.FirstError(results); err != nil {
			return res, err
		}
	}
	return res, nil
}
