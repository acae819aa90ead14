package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Progress is a snapshot of a running batch, taken after each document.
type Progress struct {
	Total     int
	Done      int
	Failed    int
	Sentences int
	// Last is the document that just finished.
	Last    string
	Elapsed time.Duration
}

// Rate is the number of finished documents per second.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Done) / p.Elapsed.Seconds()
}

// Remaining estimates the time left at the current rate.
func (p Progress) Remaining() time.Duration {
	if p.Done == 0 || p.Done >= p.Total {
		return 0
	}
	perDoc := p.Elapsed / time.Duration(p.Done)
	return perDoc * time.Duration(p.Total-p.Done)
}

// ProgressReporter is notified while ProcessFilesParallel runs. All calls come
// from the collecting goroutine, never concurrently.
type ProgressReporter interface {
	Start(total int)
	// Update follows every document, failed or not.
	Update(p Progress)
	Failed(p Progress, err error)
	Finish(p Progress)
}

// NopReporter discards all progress.
type NopReporter struct{}

func (NopReporter) Start(int)              {}
func (NopReporter) Update(Progress)        {}
func (NopReporter) Failed(Progress, error) {}
func (NopReporter) Finish(Progress)        {}

// BarReporter redraws a one-line progress bar, at most once per interval.
type BarReporter struct {
	w        io.Writer
	label    string
	width    int
	interval time.Duration

	mu    sync.Mutex
	drawn time.Time
}

// NewBarReporter draws on w. A non-positive interval redraws on every update.
func NewBarReporter(w io.Writer, label string, interval time.Duration) *BarReporter {
	return &BarReporter{w: w, label: label, width: 30, interval: interval}
}

func (b *BarReporter) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drawn = time.Time{}
	_, _ = fmt.Fprintf(b.w, "%s%d letters queued\n", b.label, total)
}

func (b *BarReporter) Update(p Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if p.Done < p.Total && now.Sub(b.drawn) < b.interval {
		return
	}
	b.drawn = now
	if p.Total == 0 {
		return
	}

	filled := b.width * p.Done / p.Total
	line := fmt.Sprintf("\r%s[%s%s] %d/%d letters, %d sentences",
		b.label, strings.Repeat("=", filled), strings.Repeat(" ", b.width-filled),
		p.Done, p.Total, p.Sentences)
	if rate := p.Rate(); rate > 0 {
		line += fmt.Sprintf(", %.1f letters/s", rate)
	}
	if left := p.Remaining(); left > 0 {
		line += fmt.Sprintf(", ~%v left", left.Round(time.Second))
	}
	_, _ = fmt.Fprint(b.w, line)
}

func (b *BarReporter) Failed(p Progress, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = fmt.Fprintf(b.w, "\n%s%s: %v\n", b.label, p.Last, err)
}

func (b *BarReporter) Finish(p Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = fmt.Fprintf(b.w, "\n%s%d letters (%d failed), %d sentences in %v\n",
		b.label, p.Done, p.Failed, p.Sentences, p.Elapsed.Round(time.Millisecond))
}

// LogReporter writes a debug record every n documents and on completion.
type LogReporter struct {
	logger *slog.Logger
	every  int
	logged int
}

// NewLogReporter logs through logger, or slog.Default when nil.
func NewLogReporter(logger *slog.Logger, every int) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger, every: max(every, 1)}
}

func (l *LogReporter) Start(total int) {
	l.logged = 0
	l.logger.Debug("Annotating letters", "total", total)
}

func (l *LogReporter) Update(p Progress) {
	if p.Done-l.logged < l.every && p.Done != p.Total {
		return
	}
	l.logged = p.Done
	l.logger.Debug("Annotation progress",
		"done", p.Done, "total", p.Total, "failed", p.Failed,
		"sentences", p.Sentences, "rate", fmt.Sprintf("%.1f/s", p.Rate()))
}

func (l *LogReporter) Failed(p Progress, err error) {
	l.logger.Warn("Letter failed", "path", p.Last, "error", err)
}

func (l *LogReporter) Finish(p Progress) {
	l.logger.Debug("Annotation finished",
		"done", p.Done, "failed", p.Failed, "elapsed", p.Elapsed.Round(time.Millisecond))
}

// Reporters fans out to every reporter in order.
type Reporters []ProgressReporter

func (rs Reporters) Start(total int) {
	for _, r := range rs {
		r.Start(total)
	}
}

func (rs Reporters) Update(p Progress) {
	for _, r := range rs {
		r.Update(p)
	}
}

func (rs Reporters) Failed(p Progress, err error) {
	for _, r := range rs {
		r.Failed(p, err)
	}
}

func (rs Reporters) Finish(p Progress) {
	for _, r := range rs {
		r.Finish(p)
	}
}
