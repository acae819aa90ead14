package batch

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/epistola/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverDocuments_EmptyArgs(t *testing.T) {
	files, err := discoverDocuments(nil, false, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverDocuments_SingleFiles(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	letter := testutil.WriteFile(t, dir, "letter.xml", "<TEI/>")
	notes := testutil.WriteFile(t, dir, "notes.txt", "notes")

	files, err := discoverDocuments([]string{letter, notes}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{letter}, files)
}

func TestDiscoverDocuments_Directory(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	b := testutil.WriteFile(t, dir, "b.xml", "<TEI/>")
	a := testutil.WriteFile(t, dir, "a.xml", "<TEI/>")
	testutil.WriteFile(t, dir, "readme.md", "x")
	nested := testutil.WriteFile(t, dir, filepath.Join("1540", "c.xml"), "<TEI/>")

	t.Run("flat", func(t *testing.T) {
		files, err := discoverDocuments([]string{dir}, false, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, files)
	})

	t.Run("recursive", func(t *testing.T) {
		files, err := discoverDocuments([]string{dir}, true, nil, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a, b, nested}, files)
	})

	t.Run("exclude", func(t *testing.T) {
		files, err := discoverDocuments([]string{dir}, true, nil, []string{"b.*"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a, nested}, files)
	})

	t.Run("custom include", func(t *testing.T) {
		files, err := discoverDocuments([]string{dir}, false, []string{"*.md"}, nil)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "readme.md", filepath.Base(files[0]))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		files, err := discoverDocuments([]string{dir, a}, false, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, files)
	})
}

func TestDiscoverDocuments_MissingPath(t *testing.T) {
	_, err := discoverDocuments([]string{"/nonexistent/letters"}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestDiscoverDocuments_SkipsHiddenDirectories(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	letter := testutil.WriteFile(t, dir, filepath.Join("1541", "letter.xml"), "<TEI/>")
	testutil.WriteFile(t, dir, filepath.Join(".git", "config.xml"), "<x/>")

	files, err := discoverDocuments([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{letter}, files)
}

func TestNameFilter(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		include []string
		exclude []string
		want    bool
	}{
		{"default include", "/x/a.xml", nil, nil, true},
		{"default include miss", "/x/a.txt", nil, nil, false},
		{"include match", "/x/a.md", []string{"*.md"}, nil, true},
		{"include miss", "/x/a.txt", []string{"*.xml"}, nil, false},
		{"exclude wins", "/x/a.xml", []string{"*.xml"}, []string{"a.*"}, false},
		{"base name only", "/xml/a.txt", []string{"xml*"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newNameFilter(tt.include, tt.exclude).accepts(tt.path))
		})
	}
}
