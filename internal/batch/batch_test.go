package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/epistola/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	config *Config
	inDir  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	langDir := testutil.CreateTempDir(t)
	entityDir := testutil.CreateTempDir(t)
	testutil.WriteCorpora(t, langDir)
	testutil.WriteEntityLists(t, entityDir, testutil.PersonsList, testutil.PlacesList)

	inDir := testutil.CreateTempDir(t)
	testutil.WriteTEI(t, inDir, "a.xml", testutil.SampleTEI)
	testutil.WriteTEI(t, inDir, "b.xml", testutil.SampleTEI)

	return fixture{
		inDir: inDir,
		config: &Config{
			LanguageDataDir: langDir,
			EntityDir:       entityDir,
			OutputDir:       filepath.Join(testutil.CreateTempDir(t), "out"),
			Workers:         2,
			Quiet:           true,
		},
	}
}

func TestProcessBatch_NoDocuments(t *testing.T) {
	f := newFixture(t)
	empty := testutil.CreateTempDir(t)

	result, err := ProcessBatch(context.Background(), []string{empty}, f.config)
	require.ErrorIs(t, err, ErrNoDocuments)
	assert.Nil(t, result)
}

func TestProcessBatch_MissingPath(t *testing.T) {
	f := newFixture(t)

	result, err := ProcessBatch(context.Background(), []string{"/nonexistent/letter.xml"}, f.config)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestProcessBatch_BadModelDir(t *testing.T) {
	f := newFixture(t)
	f.config.LanguageDataDir = testutil.CreateTempDir(t)

	_, err := ProcessBatch(context.Background(), []string{f.inDir}, f.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build pipeline")
}

func TestProcessBatch_Annotates(t *testing.T) {
	f := newFixture(t)

	result, err := ProcessBatch(context.Background(), []string{f.inDir}, f.config)
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Equal(t, 2, result.WorkerCount)

	for _, r := range result.Files {
		require.NoError(t, r.Err)
		assert.Equal(t, 5, r.Stats.Sentences)
		out, err := os.ReadFile(r.OutputPath)
		require.NoError(t, err)
		assert.Contains(t, string(out), `<personName ref="p495">Heinrich Bullinger</personName>`)
	}

	var stats bytes.Buffer
	result.PrintStats(&stats, false)
	assert.Contains(t, stats.String(), "Total documents: 2")
	assert.Contains(t, stats.String(), "Sentences: 10 (5.0 ± 0.0 per document)")
	assert.Contains(t, stats.String(), "Language de: 6 sentences")

	stats.Reset()
	result.PrintStats(&stats, true)
	assert.Empty(t, stats.String())
}

func TestProcessBatch_ContinueOnError(t *testing.T) {
	f := newFixture(t)
	testutil.WriteTEI(t, f.inDir, "c.xml", "<TEI><text><body><div><p>kaputt")

	result, err := ProcessBatch(context.Background(), []string{f.inDir}, f.config)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, err.Error(), "c.xml")

	f.config.ContinueOnError = true
	result, err = ProcessBatch(context.Background(), []string{f.inDir}, f.config)
	require.NoError(t, err)
	require.Len(t, result.Files, 3)
	assert.NoError(t, result.Files[0].Err)
	assert.Error(t, result.Files[2].Err)
}

func TestResult_SaveResults(t *testing.T) {
	result := &Result{Files: sampleResults()}

	var stdout bytes.Buffer
	require.NoError(t, result.SaveResults(&stdout, "text", "", false))
	assert.Contains(t, stdout.String(), "# /in/a.xml")

	stdout.Reset()
	outFile := filepath.Join(testutil.CreateTempDir(t), "report.csv")
	require.NoError(t, result.SaveResults(&stdout, "csv", outFile, false))
	assert.Equal(t, "Results written to "+outFile+"\n", stdout.String())

	written, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(written), "file,output,paragraphs")

	stdout.Reset()
	require.NoError(t, result.SaveResults(&stdout, "csv", outFile, true))
	assert.Empty(t, stdout.String())

	require.Error(t, result.SaveResults(&stdout, "xml", "", false))
}
