package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStdout    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir string
	TempDir    string
	LangDir    string
	EntityDir  string
	DocDir     string
	EnvVars    []string

	// In-process API server
	HTTPServer *httptest.Server

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a new test context rooted at the module directory.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Tests run inside the package directory; commands run from the module root.
	currentDir := workingDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "go.mod")); err == nil {
			workingDir = currentDir
			break
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	tempDir, err := os.MkdirTemp("", "epistola-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		WorkingDir: workingDir,
		TempDir:    tempDir,
		LangDir:    filepath.Join(tempDir, "lang"),
		EntityDir:  filepath.Join(tempDir, "entities"),
		DocDir:     filepath.Join(tempDir, "docs"),
	}
	for _, dir := range []string{ctx.LangDir, ctx.EntityDir, ctx.DocDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return ctx, nil
}

// Cleanup stops the server and removes every temporary file.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// writeFile writes content below the temp directory and returns its path.
func (testCtx *TestContext) writeFile(dir, name, content string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// substituteCommandVariables expands the ${...} placeholders used in features.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.NewReplacer(
		"${LANG_DIR}", testCtx.LangDir,
		"${ENTITY_DIR}", testCtx.EntityDir,
		"${DOC_DIR}", testCtx.DocDir,
		"${TEMP_DIR}", testCtx.TempDir,
	).Replace(command)
}
