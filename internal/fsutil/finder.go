// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Find expands paths into the list of files whose extension is one of exts.
// A path may be a file, a directory (searched recursively) or a doublestar
// glob such as "plugins/**/*.hcl". Paths that do not exist are skipped.
// The result keeps the order of paths, is sorted within each path and
// contains no duplicates.
func Find(paths []string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		panic("at least one extension must be given")
	}
	var out []string
	seen := make(map[string]struct{})
	add := func(files []string) {
		sort.Strings(files)
		for _, f := range files {
			if _, ok := seen[f]; ok || !hasExt(f, exts) {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}

	for _, path := range paths {
		if ContainsGlob(path) {
			matches, err := doublestar.FilepathGlob(path, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("glob %s: %w", path, err)
			}
			add(matches)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add([]string{path})
			continue
		}
		pattern := filepath.Join(doublestar.EscapeMeta(filepath.ToSlash(path)), "**", "*")
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
		add(matches)
	}
	return out, nil
}

// ContainsGlob reports whether path holds glob metacharacters.
func ContainsGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func hasExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
