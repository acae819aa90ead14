package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultIncludePatterns selects TEI documents when no include pattern is set.
var DefaultIncludePatterns = []string{"*.xml"}

// nameFilter matches shell patterns against base names. Exclusions win.
type nameFilter struct {
	include []string
	exclude []string
}

func newNameFilter(include, exclude []string) nameFilter {
	if len(include) == 0 {
		include = DefaultIncludePatterns
	}
	return nameFilter{include: include, exclude: exclude}
}

func (f nameFilter) accepts(path string) bool {
	base := filepath.Base(path)
	matches := func(pattern string) bool {
		ok, _ := filepath.Match(pattern, base)
		return ok
	}
	return !slices.ContainsFunc(f.exclude, matches) && slices.ContainsFunc(f.include, matches)
}

// discoverDocuments expands args into the TEI files to annotate, without
// duplicates. Named files are kept when they pass the filter; directories are
// listed in lexical order, descending only when recursive is set. Hidden
// subdirectories such as .git are never entered.
func discoverDocuments(args []string, recursive bool, include, exclude []string) ([]string, error) {
	filter := newNameFilter(include, exclude)
	var docs []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			docs = append(docs, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if filter.accepts(arg) {
				add(arg)
			}
			continue
		}

		// WalkDir visits entries in lexical order.
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && (!recursive || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if filter.accepts(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return docs, nil
}
