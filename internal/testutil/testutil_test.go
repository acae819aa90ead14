package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleRoot(t *testing.T) {
	root, err := ModuleRoot()
	require.NoError(t, err)
	assert.True(t, Exists(filepath.Join(root, "go.mod")))
	assert.True(t, Exists(filepath.Join(root, "internal", "testutil", "testutil.go")))
}

func TestWriteFile_CreatesParents(t *testing.T) {
	dir := CreateTempDir(t)
	path := WriteFile(t, dir, filepath.Join("a", "b", "c.txt"), "x")

	assert.Equal(t, filepath.Join(dir, "a", "b", "c.txt"), path)
	assert.True(t, Exists(path))
	assert.False(t, Exists(filepath.Join(dir, "a", "missing")))
}

func TestNewWorkspace(t *testing.T) {
	ws := NewWorkspace(t)

	for _, path := range []string{
		filepath.Join(ws.LangDir, "de.txt"),
		filepath.Join(ws.LangDir, "la.txt"),
		filepath.Join(ws.EntityDir, "extracted_persons.txt"),
		filepath.Join(ws.EntityDir, "extracted_places.txt"),
		ws.DocDir,
	} {
		assert.True(t, Exists(path), path)
	}

	tei := WriteTEI(t, ws.DocDir, "letters/1.xml", SampleTEI)
	data, err := os.ReadFile(tei) //nolint:gosec // G304: test path
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
}
