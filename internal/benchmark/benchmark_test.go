package benchmark

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/epistola/internal/pipeline"
	"github.com/MeKo-Tech/epistola/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuite_Add(t *testing.T) {
	suite := NewSuite()
	assert.Empty(t, suite.Names())

	suite.Add("test_benchmark", 1, func() error { return nil })
	assert.Equal(t, []string{"test_benchmark"}, suite.Names())
}

func TestSuite_Run(t *testing.T) {
	suite := NewSuite()
	suite.Add("success_test", 4, func() error {
		time.Sleep(time.Millisecond)
		return nil
	})
	suite.Add("error_test", 1, func() error {
		return errors.New("test error")
	})

	result := suite.Run("success_test", 5)
	require.NoError(t, result.Error)
	assert.Equal(t, 5, result.Iterations)
	assert.Equal(t, 4, result.Items)
	assert.GreaterOrEqual(t, result.Mean, time.Millisecond)
	assert.Positive(t, result.ItemsPerSecond())

	result = suite.Run("error_test", 3)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "test error")
	assert.Equal(t, 0, result.Iterations)
	assert.Contains(t, result.String(), "ERROR")

	result = suite.Run("non_existent", 1)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "not found")
}

func TestSuite_RunAll(t *testing.T) {
	suite := NewSuite()
	suite.Add("fast_test", 1, func() error { return nil })
	suite.Add("slow_test", 1, func() error {
		time.Sleep(2 * time.Millisecond)
		return nil
	})

	results := suite.RunAll(3)
	require.Len(t, results, 2)
	assert.Equal(t, results, suite.Results())
	assert.Equal(t, "fast_test", results[0].Name)
	assert.Greater(t, results[1].Mean, results[0].Mean)
}

func TestTimer(t *testing.T) {
	timer := NewTimer("sleep")
	time.Sleep(time.Millisecond)
	d := timer.Stop()
	assert.Equal(t, d, timer.Duration())
	assert.True(t, strings.HasPrefix(timer.String(), "sleep: "))
}

func TestWriteCSV(t *testing.T) {
	results := []Result{
		{Name: "tag", Iterations: 2, Items: 10, Duration: time.Second, Mean: 500 * time.Millisecond},
		{Name: "annotate", Error: errors.New("bad, xml")},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,iterations,items,mean_ms,stddev_ms,items_per_sec,alloc_kb,error", lines[0])
	assert.Equal(t, "tag,2,10,500.000,0.000,20.0,0,", lines[1])
	assert.Equal(t, `annotate,0,0,0.000,0.000,0.0,0,"bad, xml"`, lines[2])
}

func TestNewPipelineSuite(t *testing.T) {
	ws := testutil.NewWorkspace(t)

	pl, err := pipeline.NewBuilder().WithLanguageDataDir(ws.LangDir).WithEntityDir(ws.EntityDir).Build()
	require.NoError(t, err)

	texts := []string{"Gratia et pax.", "Grüße an Bullinger in Zürich."}
	suite := NewPipelineSuite(pl, texts, [][]byte{[]byte(testutil.SampleTEI)})
	assert.Equal(t, []string{Identify, Tag, Annotate}, suite.Names())

	for _, r := range suite.RunAll(2) {
		require.NoError(t, r.Error, r.Name)
		assert.Equal(t, 2, r.Iterations)
	}

	assert.Equal(t, []string{Annotate}, NewPipelineSuite(pl, nil, [][]byte{[]byte(testutil.SampleTEI)}).Names())
}
