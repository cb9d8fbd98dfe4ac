package fileutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger implements logger.Logger and records messages per level
type captureLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (c *captureLogger) LogTrace(message string) {}
func (c *captureLogger) LogDebug(message string) {}
func (c *captureLogger) LogInfo(message string)  {}
func (c *captureLogger) LogWarn(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, message)
}
func (c *captureLogger) LogError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, message)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScanRootsClassification(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.dcm"), "data")
	writeFile(t, filepath.Join(tmpDir, "b.E2E"), "data") // case-insensitive
	writeFile(t, filepath.Join(tmpDir, "c.txt"), "data") // unrecognized
	writeFile(t, filepath.Join(tmpDir, "d.dcm"), "")     // zero-length

	// Recognized file in a subdirectory
	subDir := filepath.Join(tmpDir, "nested")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	writeFile(t, filepath.Join(subDir, "e.fda"), "data")

	log := &captureLogger{}
	var batches [][]string
	count := ScanRoots([]string{tmpDir}, ScanOptions{
		Extensions: []string{".dcm", ".e2e", ".fda", ".sdb"},
		BatchSize:  10,
	}, log, func(batch []string) error {
		batches = append(batches, batch)
		return nil
	})

	assert.Equal(t, 3, count)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)

	// The zero-length file was reported once and never emitted
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "d.dcm")
	for _, path := range batches[0] {
		assert.NotContains(t, path, "d.dcm")
		assert.NotContains(t, path, "c.txt")
	}
}

func TestScanRootsBatching(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"1.dcm", "2.dcm", "3.dcm"} {
		writeFile(t, filepath.Join(tmpDir, name), "data")
	}

	var sizes []int
	count := ScanRoots([]string{tmpDir}, ScanOptions{
		Extensions: []string{".dcm"},
		BatchSize:  2,
	}, &captureLogger{}, func(batch []string) error {
		sizes = append(sizes, len(batch))
		return nil
	})

	// Two batches: one full, one final partial
	assert.Equal(t, 3, count)
	assert.Equal(t, []int{2, 1}, sizes)
}

func TestScanRootsMissingExtensionDot(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.dcm"), "data")

	count := ScanRoots([]string{tmpDir}, ScanOptions{
		Extensions: []string{"dcm"},
		BatchSize:  10,
	}, &captureLogger{}, func(batch []string) error { return nil })

	assert.Equal(t, 1, count)
}

func TestScanRootsNonexistentRootContinues(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.dcm"), "data")

	log := &captureLogger{}
	count := ScanRoots([]string{filepath.Join(tmpDir, "missing"), tmpDir}, ScanOptions{
		Extensions: []string{".dcm"},
		BatchSize:  10,
	}, log, func(batch []string) error { return nil })

	// The bad root is reported, the good root is still processed
	assert.Equal(t, 1, count)
	assert.NotEmpty(t, log.errors)
}

func TestScanRootsEmitErrorDoesNotAbort(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"1.dcm", "2.dcm", "3.dcm", "4.dcm"} {
		writeFile(t, filepath.Join(tmpDir, name), "data")
	}

	log := &captureLogger{}
	calls := 0
	count := ScanRoots([]string{tmpDir}, ScanOptions{
		Extensions: []string{".dcm"},
		BatchSize:  2,
	}, log, func(batch []string) error {
		calls++
		return assert.AnError
	})

	assert.Equal(t, 4, count)
	assert.Equal(t, 2, calls)
	assert.Len(t, log.errors, 2)
}

func TestCanonicalPath(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target.dcm")
	writeFile(t, target, "data")

	canonical, err := CanonicalPath(target)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(canonical))

	link := filepath.Join(tmpDir, "link.dcm")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	resolved, err := CanonicalPath(link)
	require.NoError(t, err)
	assert.Equal(t, canonical, resolved)
}

func TestCanonicalPathMissingFile(t *testing.T) {
	_, err := CanonicalPath(filepath.Join(t.TempDir(), "missing.dcm"))
	require.Error(t, err)
}
