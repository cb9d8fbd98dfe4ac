package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pontikos-lab/open-sight/internal/logger"
)

// PrepareOutputPath applies the rotation rule to a target path before a
// fresh artifact is created there. If the target does not exist, nothing
// happens. If it exists and overwrite is requested, it is deleted.
// Otherwise it is renamed to "<stem>_<N>.csv" for the smallest unused
// integer N >= 1, preserving the old content under a new name rather than
// losing it.
//
// The same rule covers both the main artifact and the "items not found"
// report of the retrieval command.
func PrepareOutputPath(path string, overwrite bool, log logger.Logger) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if overwrite {
		log.LogInfo(fmt.Sprintf("overwriting existing file: %s", path))
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return nil
	}

	newPath := rotatedPath(path, 1)
	for counter := 2; ; counter++ {
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			break
		}
		newPath = rotatedPath(path, counter)
	}

	if err := os.Rename(path, newPath); err != nil {
		return fmt.Errorf("failed to rotate %s to %s: %w", path, newPath, err)
	}
	log.LogInfo(fmt.Sprintf("moved old %s to %s", path, newPath))
	return nil
}

// rotatedPath builds "<dir>/<stem>_<n>.csv" from the target path.
func rotatedPath(path string, n int) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s_%d.csv", stem, n))
}
