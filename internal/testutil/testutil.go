// Package testutil holds fixtures shared by package tests and the CLI
// integration suite.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// ModuleRoot returns the directory holding go.mod and cmd/epistola, searching
// upwards from this source file.
func ModuleRoot() (string, error) {
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("no caller information")
	}

	for dir := filepath.Dir(self); ; {
		if Exists(filepath.Join(dir, "go.mod")) && Exists(filepath.Join(dir, "cmd", "epistola")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no epistola module above %s", filepath.Dir(self))
		}
		dir = parent
	}
}

// CreateTempDir returns a directory removed when the test ends.
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Exists reports whether path can be stat'ed.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Workspace is a temporary data layout with trained-corpus and entity-list
// directories plus an empty directory for letters.
type Workspace struct {
	Root      string
	LangDir   string
	EntityDir string
	DocDir    string
}

// NewWorkspace writes the German and Latin corpora and the default entity
// lists into a fresh temporary directory.
func NewWorkspace(t *testing.T) Workspace {
	t.Helper()

	root := CreateTempDir(t)
	ws := Workspace{
		Root:      root,
		LangDir:   filepath.Join(root, "lang"),
		EntityDir: filepath.Join(root, "entities"),
		DocDir:    filepath.Join(root, "docs"),
	}
	require.NoError(t, os.MkdirAll(ws.DocDir, 0o750))
	WriteCorpora(t, ws.LangDir)
	WriteEntityLists(t, ws.EntityDir, PersonsList, PlacesList)
	return ws
}
