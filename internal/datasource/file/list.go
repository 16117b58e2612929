package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Glob returns the regular files matching pattern in lexical order. A
// malformed pattern is an error; no match returns an empty slice.
func Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	out := matches[:0]
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}
