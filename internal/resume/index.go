// Package resume provides the resume index: the set of source files already
// present in a previously produced output artifact.
package resume

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pontikos-lab/open-sight/internal/models"
)

// Index is an immutable set of canonicalized file paths loaded from all rows
// of a pre-existing output artifact. It is built once per run before any
// worker starts and is read-only afterwards, so it is safely shared across
// all workers without synchronization. A path present in the index is never
// re-extracted in the current run.
type Index struct {
	paths map[string]struct{}
}

// Empty returns an index containing no paths, used for fresh or overwritten
// output artifacts.
func Empty() *Index {
	return &Index{paths: make(map[string]struct{})}
}

// Load reads every row of the output artifact at path and indexes it on the
// file_path column.
func Load(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open existing output %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = models.NumColumns

	// Header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return Empty(), nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	index := Empty()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", path, err)
		}
		record, err := models.FromRow(row)
		if err != nil {
			return nil, fmt.Errorf("malformed row in %s: %w", path, err)
		}
		index.paths[record.FilePath] = struct{}{}
	}

	return index, nil
}

// Contains reports whether the canonical path was already extracted by a
// previous run. O(1) membership test.
func (i *Index) Contains(path string) bool {
	_, ok := i.paths[path]
	return ok
}

// Len returns the number of indexed paths.
func (i *Index) Len() int {
	return len(i.paths)
}
