package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	ierr "github.com/docsmith/docsmith/internal/errors"
)

// Discover walks root and returns slash-separated relative paths of regular
// files that match at least one include pattern and no exclude pattern.
// An empty include list matches every file. Exclude patterns are tested
// against both the relative path and the base name, so "*.log" drops log
// files anywhere in the tree.
func Discover(root string, include, exclude []string) ([]string, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, ierr.New(ierr.CodeInvalidSelector,
				fmt.Sprintf("invalid glob pattern: %s", p), nil)
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return ierr.New(ierr.CodeFileUnreadable,
				fmt.Sprintf("walking %s: %v", path, err), err)
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchAny(include, rel) {
			return nil
		}
		if excluded(exclude, rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func matchAny(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func excluded(patterns []string, rel string) bool {
	base := filepath.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}
