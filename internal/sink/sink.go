// Package sink provides the append-only writer over the output artifact,
// plus the rotation rule applied to pre-existing artifacts.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/pontikos-lab/open-sight/internal/models"
)

// Writer is the single append-only writer over the output artifact. It is
// only ever invoked from the scheduler's batch-completion point, never from
// worker goroutines, so no lock is needed on the artifact within a process;
// a flock guards against a second concurrent invocation of the tool.
//
// The header row is written exactly once, on the first append to an empty
// file. Each Append is flushed and synced before returning: a crash after
// Append leaves the batch durably recorded (and skipped on the next run via
// the resume index), a crash before it re-processes the whole batch next run.
type Writer struct {
	path string
	file *os.File
	csv  *csv.Writer
	lock *flock.Flock
}

// NewWriter opens (or creates) the output artifact in append mode and
// acquires the run lock. Returns an error if another process currently holds
// the lock, or if the artifact cannot be opened; both are fatal startup
// conditions.
func NewWriter(path string) (*Writer, error) {
	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock output %s: %w", path, err)
	}
	if !acquired {
		return nil, fmt.Errorf("output %s is locked by another run", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open output %s: %w", path, err)
	}

	return &Writer{
		path: path,
		file: file,
		csv:  csv.NewWriter(file),
		lock: lock,
	}, nil
}

// Path returns the output artifact path.
func (w *Writer) Path() string {
	return w.path
}

// Append serializes the records to the artifact and makes them durable
// before returning. The header is prepended only when the file is still
// empty.
func (w *Writer) Append(records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	info, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output %s: %w", w.path, err)
	}
	if info.Size() == 0 {
		if err := w.csv.Write(models.Header()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for _, record := range records {
		if err := w.csv.Write(record.Row()); err != nil {
			return fmt.Errorf("failed to write record for %s: %w", record.FilePath, err)
		}
	}

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush output %s: %w", w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output %s: %w", w.path, err)
	}
	return nil
}

// Close releases the run lock, removes its lock file and closes the artifact.
func (w *Writer) Close() error {
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	unlockErr := w.lock.Unlock()
	if unlockErr == nil {
		// The lock file is an implementation detail of the run lock; don't
		// leave it beside the artifact after a clean shutdown.
		os.Remove(w.lock.Path())
	}

	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return closeErr
	}
	return unlockErr
}
