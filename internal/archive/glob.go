package archive

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/FocuswithJustin/odfnote/core/errors"
)

// Expand resolves command-line document arguments. Each pattern may use
// doublestar globbing ("docs/**/*.odt"); a pattern without matches is kept
// as a literal path so the caller reports it as missing. Results keep
// argument order, are sorted within a pattern and contain no duplicates.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, errors.NewParse("glob", pattern, "invalid pattern")
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.NewIO("glob", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	return paths, nil
}

// IsDocument reports whether path has an extension Load understands.
func IsDocument(path string) bool {
	_, err := Detect(path)
	return err == nil
}
