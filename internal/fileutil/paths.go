package fileutil

import (
	"fmt"
	"path/filepath"
)

// CanonicalPath resolves a path to its canonical form: absolute, cleaned and
// with symlinks resolved. The canonical form is the natural key of a source
// file and the sole identity used for resume deduplication.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize path %s: %w", path, err)
	}
	return resolved, nil
}
