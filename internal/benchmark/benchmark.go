// Package benchmark measures the throughput of the annotation stages.
package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Timer provides simple timing utilities for benchmarking.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer with the given name.
func NewTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// MemoryStats holds memory usage statistics.
type MemoryStats struct {
	AllocBytes      uint64 // Currently allocated bytes
	TotalAllocBytes uint64 // Total allocated bytes (cumulative)
	NumGC           uint32
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		NumGC:           m.NumGC,
	}
}

// Result holds the outcome of one benchmark.
type Result struct {
	Name       string
	Iterations int
	// Items is the number of texts or documents handled per iteration.
	Items    int
	Duration time.Duration
	// Mean and StdDev are per-iteration durations.
	Mean         time.Duration
	StdDev       time.Duration
	AllocatedKB  uint64
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Error        error
}

// ItemsPerSecond is the throughput over the whole run.
func (r Result) ItemsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Items*r.Iterations) / r.Duration.Seconds()
}

func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.Error)
	}
	return fmt.Sprintf("%s: %d iterations x %d items, mean: %v ± %v, %.1f items/s, alloc: %d KB",
		r.Name, r.Iterations, r.Items, r.Mean, r.StdDev, r.ItemsPerSecond(), r.AllocatedKB)
}

// Benchmark is one named workload. Func handles Items items per call.
type Benchmark struct {
	Name  string
	Items int
	Func  func() error
}

// Suite manages multiple benchmarks.
type Suite struct {
	benchmarks []Benchmark
	results    []Result
	mu         sync.Mutex
}

// NewSuite creates an empty suite.
func NewSuite() *Suite {
	return &Suite{}
}

// Add adds a benchmark to the suite.
func (s *Suite) Add(name string, items int, fn func() error) {
	s.benchmarks = append(s.benchmarks, Benchmark{Name: name, Items: items, Func: fn})
}

// Names lists the benchmarks in the order they were added.
func (s *Suite) Names() []string {
	names := make([]string, len(s.benchmarks))
	for i, b := range s.benchmarks {
		names[i] = b.Name
	}
	return names
}

// Run runs a single benchmark with the specified number of iterations.
func (s *Suite) Run(name string, iterations int) Result {
	for _, b := range s.benchmarks {
		if b.Name == name {
			return run(b, iterations)
		}
	}
	return Result{Name: name, Error: fmt.Errorf("benchmark '%s' not found", name)}
}

// RunAll runs every benchmark in the suite.
func (s *Suite) RunAll(iterations int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make([]Result, 0, len(s.benchmarks))
	for _, b := range s.benchmarks {
		s.results = append(s.results, run(b, iterations))
	}
	return s.results
}

func run(b Benchmark, iterations int) Result {
	if iterations < 1 {
		iterations = 1
	}
	runtime.GC()
	memBefore := GetMemoryStats()

	timer := NewTimer(b.Name)
	samples := make([]float64, 0, iterations)
	var err error
	for range iterations {
		start := time.Now()
		if err = b.Func(); err != nil {
			break
		}
		samples = append(samples, float64(time.Since(start)))
	}
	duration := timer.Stop()
	memAfter := GetMemoryStats()

	res := Result{
		Name:         b.Name,
		Iterations:   len(samples),
		Items:        b.Items,
		Duration:     duration,
		AllocatedKB:  (memAfter.TotalAllocBytes - memBefore.TotalAllocBytes) / 1024,
		MemoryBefore: memBefore,
		MemoryAfter:  memAfter,
		Error:        err,
	}
	switch len(samples) {
	case 0:
	case 1:
		res.Mean = time.Duration(samples[0])
	default:
		mean, std := stat.MeanStdDev(samples, nil)
		res.Mean, res.StdDev = time.Duration(mean), time.Duration(std)
	}
	return res
}

// Results returns the last RunAll results.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// WriteText writes one line per result.
func WriteText(w io.Writer, results []Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes the results with a header row.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"name", "iterations", "items", "mean_ms", "stddev_ms", "items_per_sec", "alloc_kb", "error"})
	for _, r := range results {
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		_ = cw.Write([]string{
			r.Name,
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Items),
			strconv.FormatFloat(float64(r.Mean)/1e6, 'f', 3, 64),
			strconv.FormatFloat(float64(r.StdDev)/1e6, 'f', 3, 64),
			strconv.FormatFloat(r.ItemsPerSecond(), 'f', 1, 64),
			strconv.FormatUint(r.AllocatedKB, 10),
			errText,
		})
	}
	cw.Flush()
	return cw.Error()
}
