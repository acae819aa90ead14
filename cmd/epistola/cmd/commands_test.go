package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/epistola/internal/config"
	"github.com/MeKo-Tech/epistola/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	langDir   string
	entityDir string
	docDir    string
}

func newCLIFixture(t *testing.T) cliFixture {
	t.Helper()
	ws := testutil.NewWorkspace(t)
	return cliFixture{langDir: ws.LangDir, entityDir: ws.EntityDir, docDir: ws.DocDir}
}

func (f cliFixture) args(args ...string) []string {
	return append(args, "--lang-dir", f.langDir, "--entity-dir", f.entityDir)
}

func TestIdentifyCommand(t *testing.T) {
	f := newCLIFixture(t)

	output, err := executeCommandAndCaptureOutput(t, f.args("identify", "Gratia et pax a domino nostro.")...)
	require.NoError(t, err)
	assert.Equal(t, "la", output)

	output, err = executeCommandAndCaptureOutput(t,
		f.args("identify", "--scores", "Ich habe euren Brief mit großer Freude empfangen.")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output, "de\tDE="), output)
	assert.Contains(t, output, "LA=")
}

func TestIdentifyCommand_FileInput(t *testing.T) {
	f := newCLIFixture(t)
	input := testutil.WriteFile(t, f.docDir, "sentences.txt",
		"Dominus te servet.\n\nGott behüte euch alle.\n")

	output, err := executeCommandAndCaptureOutput(t, f.args("identify", "--file", input, "--format", "json")...)
	require.NoError(t, err)

	var results []identifyResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "la", results[0].Language)
	assert.Equal(t, "unk", results[1].Language)
	assert.Equal(t, "de", results[2].Language)
}

func TestIdentifyCommand_MissingCorpus(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t,
		"identify", "--lang-dir", t.TempDir(), "Gratia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to train language models")
}

func TestTagCommand(t *testing.T) {
	f := newCLIFixture(t)

	output, err := executeCommandAndCaptureOutput(t,
		f.args("tag", "Ich habe euren Brief von Heinrich Bullinger empfangen.")...)
	require.NoError(t, err)
	assert.Contains(t, output, `<personName ref="p495">Heinrich Bullinger</personName>`)

	output, err = executeCommandAndCaptureOutput(t, f.args("tag", "--labels", "Die Kirche zu Zürich grüßt euch.")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output, "contains_place\t"), output)
}

func TestTagCommand_UnsupportedFormat(t *testing.T) {
	f := newCLIFixture(t)
	_, err := executeCommandAndCaptureOutput(t, f.args("tag", "--format", "xml", "Bern")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestAnnotateCommand(t *testing.T) {
	f := newCLIFixture(t)
	testutil.WriteTEI(t, f.docDir, "letter.xml", testutil.SampleTEI)
	outDir := filepath.Join(t.TempDir(), "out")

	output, err := executeCommandAndCaptureOutput(t,
		f.args("annotate", f.docDir, "--output-dir", outDir, "--quiet", "--format", "csv")...)
	require.NoError(t, err)
	assert.Contains(t, output, "file,output,paragraphs,sentences")

	annotated, err := os.ReadFile(filepath.Join(outDir, "letter.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(annotated), `<s n="1" xml:lang="de">`)
	assert.Contains(t, string(annotated), `xml:lang="la"`)
}

func TestEvaluateCommand(t *testing.T) {
	f := newCLIFixture(t)
	gold := testutil.WriteTEI(t, f.docDir, "gold.xml", testutil.GoldTEI)

	output, err := executeCommandAndCaptureOutput(t, f.args("evaluate", gold, "--format", "text")...)
	require.NoError(t, err)
	assert.Contains(t, output, "gold.xml: Precision:")
	assert.Contains(t, output, "Macro F1:")
}

func TestExtractCommand(t *testing.T) {
	f := newCLIFixture(t)
	testutil.WriteTEI(t, f.docDir, "gold.xml", testutil.GoldTEI)
	out := filepath.Join(t.TempDir(), "lists")

	output, err := executeCommandAndCaptureOutput(t, "extract", f.docDir, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, output, "written to "+out)
	assert.True(t, testutil.Exists(filepath.Join(out, "extracted_persons.txt")))
	assert.True(t, testutil.Exists(filepath.Join(out, "extracted_places.txt")))
}

func TestBenchCommand(t *testing.T) {
	f := newCLIFixture(t)
	doc := testutil.WriteTEI(t, f.docDir, "letter.xml", testutil.SampleTEI)

	output, err := executeCommandAndCaptureOutput(t,
		f.args("bench", "-n", "2", "--doc", doc, "--format", "csv", "Gratia et pax a domino.")...)
	require.NoError(t, err)

	lines := strings.Split(output, "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "identify,2,1,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "tag,2,1,"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "annotate,2,1,"), lines[3])

	_, err = executeCommandAndCaptureOutput(t, f.args("bench")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to benchmark")
}

func TestConfigCommands(t *testing.T) {
	output, err := executeCommandAndCaptureOutput(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "log_level: info")
	assert.Contains(t, output, "data_dir:")

	path := filepath.Join(t.TempDir(), "epistola.yaml")
	output, err = executeCommandAndCaptureOutput(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, output, path)
	assert.True(t, testutil.Exists(path))

	output, err = executeCommandAndCaptureOutput(t, "config", "paths")
	require.NoError(t, err)
	assert.Contains(t, output, ".")
}

func TestServerConfig(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	cfg := config.DefaultConfig()
	cfg.Server.Port = 9090
	cfg.Server.CORSOrigin = "https://from-config.example"

	require.NoError(t, serveCmd.ParseFlags([]string{"--cors-origin", "https://letters.example.org", "--timeout", "5"}))
	sc, err := serverConfig(serveCmd, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 9090, sc.Port, "unset flags keep the configured value")
	assert.Equal(t, "https://letters.example.org", sc.CORSOrigin)
	assert.Equal(t, 5, sc.TimeoutSec)
	assert.Equal(t, cfg.Language.DataDir, sc.PipelineConfig.LanguageDataDir)
	assert.False(t, sc.RateLimit.Enabled)

	require.NoError(t, serveCmd.ParseFlags([]string{"--rate-limit", "--requests-per-minute", "3"}))
	sc, err = serverConfig(serveCmd, &cfg)
	require.NoError(t, err)
	assert.True(t, sc.RateLimit.Enabled)
	assert.Equal(t, 3, sc.RateLimit.RequestsPerMinute)
	assert.Equal(t, 1000, sc.RateLimit.RequestsPerHour)
	assert.Equal(t, int64(100*1024*1024), sc.RateLimit.MaxDataPerDay)

	require.NoError(t, serveCmd.ParseFlags([]string{"--port", "70000"}))
	_, err = serverConfig(serveCmd, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port number")
}
