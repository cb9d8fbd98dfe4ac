package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontikos-lab/open-sight/internal/extract"
	"github.com/pontikos-lab/open-sight/internal/fileutil"
	"github.com/pontikos-lab/open-sight/internal/models"
	"github.com/pontikos-lab/open-sight/internal/resume"
	"github.com/pontikos-lab/open-sight/internal/sink"
)

// TestExtractionEndToEnd runs the whole scan-schedule-persist flow over a
// small directory: three recognized files (one of them permanently failing)
// dispatched with batch size 2.
func TestExtractionEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	for _, name := range []string{"a.dcm", "b.dcm", "corrupt.dcm"} {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte("content"), 0644))
	}

	csvOut := filepath.Join(t.TempDir(), "out.csv")
	writer, err := sink.NewWriter(csvOut)
	require.NoError(t, err)

	inner := newStubExtractor("corrupt.dcm")
	log := &memoryLogger{}
	stats := &Stats{}
	runner := &Runner{
		DICOM:  extract.NewRetryExtractorWithDelay(inner, log, 0),
		Index:  resume.Empty(),
		Sink:   writer,
		Jobs:   2,
		Logger: log,
		Stats:  stats,
	}

	var batchSizes []int
	reporter := NewReporter(&bytes.Buffer{}, log)

	count := fileutil.ScanRoots([]string{dataDir}, fileutil.ScanOptions{
		Extensions: extract.RecognizedExtensions(),
		BatchSize:  2,
	}, log, func(batch []string) error {
		batchStart := time.Now()
		if err := runner.ProcessBatch(context.Background(), batch); err != nil {
			return err
		}
		batchSizes = append(batchSizes, len(batch))
		reporter.BatchDone(len(batch), time.Since(batchStart), stats.Processed())
		return nil
	})
	reporter.Summary(stats)
	require.NoError(t, writer.Close())

	// Three recognized files, dispatched as one full and one partial batch
	assert.Equal(t, 3, count)
	assert.Equal(t, []int{2, 1}, batchSizes)

	// The artifact holds the header plus one row per successful file
	file, err := os.Open(csvOut)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.Header(), rows[0])

	persisted := map[string]bool{}
	for _, row := range rows[1:] {
		record, err := models.FromRow(row)
		require.NoError(t, err)
		persisted[filepath.Base(record.FilePath)] = true
	}
	assert.Equal(t, map[string]bool{"a.dcm": true, "b.dcm": true}, persisted)

	// The failing file went through the full retry budget and was reported
	// exactly once
	assert.Equal(t, extract.DefaultMaxRetries+1, inner.calls["corrupt.dcm"])
	assert.Equal(t, 1, inner.calls["a.dcm"])
	assert.Equal(t, 1, inner.calls["b.dcm"])
	assert.Equal(t, 1, log.countContaining("after retries"))

	assert.Equal(t, int64(2), stats.Extracted())
	assert.Equal(t, int64(1), stats.Failed())
	assert.Equal(t, int64(3), stats.Processed())
}
