package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/epistola/internal/annotate"
)

// ParallelConfig holds configuration for parallel processing.
type ParallelConfig struct {
	MaxWorkers   int                 // Number of parallel workers (0 = runtime.NumCPU())
	Progress     ProgressReporter    // Optional progress reporting
	ErrorHandler func(string, error) // Optional per-file error handler
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

// FileResult is the outcome for one document. Err is set when the document
// failed; the other documents are not affected.
type FileResult struct {
	Path       string                  `json:"path"`
	OutputPath string                  `json:"output_path,omitempty"`
	Stats      *annotate.DocumentStats `json:"stats,omitempty"`
	Duration   time.Duration           `json:"duration_ns"`
	Err        error                   `json:"-"`
}

type fileJob struct {
	index int
	path  string
}

type fileOutcome struct {
	index  int
	result *FileResult
}

// ProcessFilesParallel annotates files with a worker pool and returns one
// result per file in input order. Cancelling ctx stops dispatching further
// files and returns ctx.Err().
func (p *Pipeline) ProcessFilesParallel(
	ctx context.Context,
	files []string,
	outDir string,
	config ParallelConfig,
) ([]*FileResult, error) {
	if len(files) == 0 {
		return nil, errors.New("no files provided")
	}
	if p == nil || p.Annotator == nil {
		return nil, errors.New("pipeline not initialized")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	workers := min(config.MaxWorkers, len(files))

	reporter := config.Progress
	if reporter == nil {
		reporter = NopReporter{}
	}
	start := time.Now()
	progress := Progress{Total: len(files)}
	reporter.Start(len(files))

	jobs := make(chan fileJob, len(files))
	results := make(chan fileOutcome, len(files))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := p.ProcessFile(ctx, job.path, outDir)
				if err != nil {
					res = &FileResult{Path: job.path, Err: err}
				}
				results <- fileOutcome{index: job.index, result: res}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, f := range files {
			select {
			case jobs <- fileJob{index: i, path: f}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*FileResult, len(files))
	for out := range results {
		res := out.result
		ordered[out.index] = res

		progress.Done++
		progress.Last = res.Path
		progress.Elapsed = time.Since(start)
		if res.Stats != nil {
			progress.Sentences += res.Stats.Sentences
		}
		if res.Err != nil {
			progress.Failed++
			reporter.Failed(progress, res.Err)
			if config.ErrorHandler != nil {
				config.ErrorHandler(res.Path, res.Err)
			}
		}
		reporter.Update(progress)
	}
	progress.Elapsed = time.Since(start)
	reporter.Finish(progress)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}

// FirstError returns the first per-file error in input order.
func FirstError(results []*FileResult) error {
	for _, r := range results {
		if r != nil && r.Err != nil {
			return fmt.Errorf("%s: %w", r.Path, r.Err)
		}
	}
	return nil
}

// ParallelStats holds statistics about a parallel run.
type ParallelStats struct {
	TotalFiles       int           `json:"total_files"`
	ProcessedFiles   int           `json:"processed_files"`
	FailedFiles      int           `json:"failed_files"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerFile   time.Duration `json:"average_per_file_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// CalculateStats calculates performance statistics for a parallel run.
func CalculateStats(results []*FileResult, duration time.Duration, workerCount int) ParallelStats {
	stats := ParallelStats{
		TotalFiles:    len(results),
		WorkerCount:   workerCount,
		TotalDuration: duration,
	}
	for _, r := range results {
		if r != nil && r.Err == nil {
			stats.ProcessedFiles++
		} else {
			stats.FailedFiles++
		}
	}
	if stats.ProcessedFiles > 0 {
		stats.AveragePerFile = duration / time.Duration(stats.ProcessedFiles)
		if duration > 0 {
			stats.ThroughputPerSec = float64(stats.ProcessedFiles) / duration.Seconds()
		}
	}
	return stats
}
