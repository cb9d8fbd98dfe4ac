package fileutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pontikos-lab/open-sight/internal/logger"
)

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Extensions is the set of recognized file extensions (e.g. ".dcm", ".e2e").
	// Matching is case-insensitive; a missing leading dot is tolerated.
	Extensions []string
	// BatchSize is the number of recognized files accumulated before the
	// emit callback is invoked
	BatchSize int
}

// EmitFunc receives each completed batch of candidate file paths. The batch
// slice is owned by the callee. A returned error is logged and does not stop
// the walk.
type EmitFunc func(batch []string) error

// ScanRoots recursively walks each input root and accumulates recognized
// files into batches of BatchSize, dispatching each full batch through emit.
// A final partial batch is dispatched at the end of all roots.
//
// Non-regular files, files with unrecognized extensions and zero-length files
// are skipped; zero-length files are reported once each. Errors on individual
// directory entries (permissions, race-deleted files) are reported and do not
// abort the walk.
//
// Returns the total number of recognized files accumulated across all roots.
func ScanRoots(roots []string, opts ScanOptions, log logger.Logger, emit EmitFunc) int {
	// Create extension map for fast lookup
	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	counter := 0
	batch := make([]string, 0, batchSize)

	dispatch := func() {
		if len(batch) == 0 {
			return
		}
		out := batch
		batch = make([]string, 0, batchSize)
		if err := emit(out); err != nil {
			log.LogError(fmt.Sprintf("failed to process batch of %d files: %v", len(out), err))
		}
	}

	for _, root := range roots {
		log.LogInfo(fmt.Sprintf("walking directory %s", root))

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.LogError(fmt.Sprintf("error accessing %s: %v", path, err))
				return nil // Continue walking
			}

			if d.IsDir() {
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			if !extMap[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				log.LogError(fmt.Sprintf("error reading metadata of %s: %v", path, err))
				return nil
			}
			if info.Size() == 0 {
				log.LogWarn(fmt.Sprintf("skipping empty file: %s", path))
				return nil
			}

			batch = append(batch, path)
			counter++

			if len(batch) >= batchSize {
				dispatch()
			}
			return nil
		})
		if err != nil {
			log.LogError(fmt.Sprintf("error walking %s: %v", root, err))
		}
	}

	// Final partial batch at end of all roots
	dispatch()

	return counter
}
