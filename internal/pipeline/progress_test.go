package pipeline

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingReporter keeps every notification.
type recordingReporter struct {
	started, finished int
	total             int
	updates           []Progress
	failures          []string
}

func (r *recordingReporter) Start(total int)            { r.started++; r.total = total }
func (r *recordingReporter) Update(p Progress)          { r.updates = append(r.updates, p) }
func (r *recordingReporter) Failed(p Progress, _ error) { r.failures = append(r.failures, p.Last) }
func (r *recordingReporter) Finish(Progress)            { r.finished++ }

func TestProgress_RateAndRemaining(t *testing.T) {
	p := Progress{Total: 10, Done: 4, Elapsed: 2 * time.Second}
	assert.InDelta(t, 2.0, p.Rate(), 1e-9)
	assert.Equal(t, 3*time.Second, p.Remaining())

	assert.Zero(t, Progress{Total: 3}.Rate())
	assert.Zero(t, Progress{Total: 3}.Remaining())
	assert.Zero(t, Progress{Total: 3, Done: 3, Elapsed: time.Second}.Remaining())
}

func TestBarReporter(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBarReporter(&buf, "Annotate: ", 0)

	bar.Start(4)
	assert.Equal(t, "Annotate: 4 letters queued\n", buf.String())

	buf.Reset()
	bar.Update(Progress{Total: 4, Done: 2, Sentences: 9, Elapsed: time.Second})
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\rAnnotate: ["), out)
	assert.Contains(t, out, strings.Repeat("=", 15)+strings.Repeat(" ", 15)+"]")
	assert.Contains(t, out, "2/4 letters, 9 sentences, 2.0 letters/s, ~1s left")

	buf.Reset()
	bar.Failed(Progress{Last: "b.xml"}, assert.AnError)
	assert.Contains(t, buf.String(), "Annotate: b.xml: "+assert.AnError.Error())

	buf.Reset()
	bar.Finish(Progress{Total: 4, Done: 4, Failed: 1, Sentences: 17, Elapsed: time.Second})
	assert.Contains(t, buf.String(), "4 letters (1 failed), 17 sentences in 1s")
}

func TestBarReporter_Throttled(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBarReporter(&buf, "", time.Hour)

	bar.Start(10)
	bar.Update(Progress{Total: 10, Done: 1})
	buf.Reset()

	bar.Update(Progress{Total: 10, Done: 2})
	assert.Empty(t, buf.String(), "updates inside the interval are dropped")

	bar.Update(Progress{Total: 10, Done: 10})
	assert.Contains(t, buf.String(), "10/10", "the final update is always drawn")
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rep := NewLogReporter(logger, 2)

	rep.Start(4)
	for done := 1; done <= 4; done++ {
		p := Progress{Total: 4, Done: done, Last: "letter.xml"}
		if done == 3 {
			rep.Failed(p, assert.AnError)
		}
		rep.Update(p)
	}
	rep.Finish(Progress{Total: 4, Done: 4, Failed: 1})

	out := buf.String()
	assert.Contains(t, out, "Annotating letters")
	assert.Equal(t, 2, strings.Count(out, "Annotation progress"))
	assert.Contains(t, out, "Letter failed")
	assert.Contains(t, out, "path=letter.xml")
	assert.Contains(t, out, "Annotation finished")
}

func TestReporters(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	var all ProgressReporter = Reporters{a, NopReporter{}, b}

	all.Start(2)
	all.Update(Progress{Total: 2, Done: 1})
	all.Failed(Progress{Last: "x.xml"}, assert.AnError)
	all.Finish(Progress{Total: 2, Done: 2})

	for _, r := range []*recordingReporter{a, b} {
		assert.Equal(t, 1, r.started)
		assert.Equal(t, 2, r.total)
		assert.Len(t, r.updates, 1)
		assert.Equal(t, []string{"x.xml"}, r.failures)
		assert.Equal(t, 1, r.finished)
	}
}
