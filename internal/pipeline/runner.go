// Package pipeline coordinates batch extraction: it partitions each batch of
// candidate files across a bounded worker pool, applies the resume index,
// dispatches to the extraction variants and hands successful records to the
// sink before the next batch begins.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pontikos-lab/open-sight/internal/extract"
	"github.com/pontikos-lab/open-sight/internal/fileutil"
	"github.com/pontikos-lab/open-sight/internal/logger"
	"github.com/pontikos-lab/open-sight/internal/models"
	"github.com/pontikos-lab/open-sight/internal/resume"
	"github.com/pontikos-lab/open-sight/internal/sink"
)

// Runner processes batches of candidate file paths. Batches are strictly
// sequential relative to each other; concurrency exists only within a batch.
// This bounds in-flight memory to one batch and gives a crash-consistent
// checkpoint at every batch boundary.
type Runner struct {
	// DICOM extracts native .dcm files. Expected to be wrapped by the
	// retry policy.
	DICOM extract.Extractor

	// CrystalEye extracts the legacy formats. Nil when the converter was
	// not found at startup; matching files are then silently skipped.
	CrystalEye extract.Extractor

	// Index is the read-only resume index shared by all workers.
	Index *resume.Index

	// Sink receives each batch's successful records.
	Sink *sink.Writer

	// Jobs is the parallelism degree within one batch.
	Jobs int

	// Logger receives per-file failure and skip reports.
	Logger logger.Logger

	// Stats accumulates run counters.
	Stats *Stats
}

// ProcessBatch partitions the batch into contiguous chunks, extracts every
// chunk concurrently, and appends the collected records to the sink before
// returning. Record order within the batch is not guaranteed; all records of
// batch k reach the artifact before any record of batch k+1.
func (r *Runner) ProcessBatch(ctx context.Context, batch []string) error {
	if len(batch) == 0 {
		return nil
	}

	records := r.runBatch(ctx, batch)
	if len(records) == 0 {
		return nil
	}
	if err := r.Sink.Append(records); err != nil {
		return fmt.Errorf("failed to persist batch: %w", err)
	}
	return nil
}

// runBatch fans the chunks out to one goroutine each and blocks until every
// chunk finishes (a synchronous fan-out/fan-in barrier).
func (r *Runner) runBatch(ctx context.Context, batch []string) []models.Record {
	chunks := partitionChunks(batch, r.Jobs)

	var mu sync.Mutex
	var records []models.Record

	g, gctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			chunkRecords := r.processChunk(gctx, chunk)
			mu.Lock()
			records = append(records, chunkRecords...)
			mu.Unlock()
			return nil
		})
	}
	// Workers report all failures through outcomes, never through errors.
	g.Wait()

	return records
}

// processChunk extracts the chunk's files sequentially.
func (r *Runner) processChunk(ctx context.Context, paths []string) []models.Record {
	var records []models.Record
	for _, path := range paths {
		if record := r.processFile(ctx, path); record != nil {
			records = append(records, *record)
		}
	}
	return records
}

// processFile runs the per-file flow: canonicalize, resume check, classify,
// extract. Every failure mode degrades to "this file contributes nothing
// this run"; nothing here terminates the process.
func (r *Runner) processFile(ctx context.Context, path string) *models.Record {
	canonical, err := fileutil.CanonicalPath(path)
	if err != nil {
		r.Logger.LogError(fmt.Sprintf("error obtaining canonical path for %s: %v", path, err))
		r.Stats.addFailed()
		return nil
	}

	if r.Index.Contains(canonical) {
		r.Logger.LogDebug(fmt.Sprintf("already extracted, skipping: %s", canonical))
		r.Stats.addSkipped()
		return nil
	}

	var outcome extract.Outcome
	switch {
	case extract.IsDICOM(path):
		outcome = r.DICOM.Extract(ctx, path)
	case extract.IsLegacy(path):
		if r.CrystalEye == nil {
			// Converter unavailability was reported once at startup
			r.Stats.addSkipped()
			return nil
		}
		outcome = r.CrystalEye.Extract(ctx, path)
	default:
		r.Logger.LogDebug(fmt.Sprintf("unrecognized extension, skipping: %s", path))
		r.Stats.addSkipped()
		return nil
	}

	switch outcome.Status {
	case extract.StatusSuccess:
		r.Stats.addExtracted()
		return outcome.Record
	case extract.StatusSkipped:
		r.Logger.LogDebug(fmt.Sprintf("skipping %s: %s", path, outcome.Reason))
		r.Stats.addSkipped()
		return nil
	default:
		if outcome.RetriesExhausted {
			r.Logger.LogError(fmt.Sprintf("error processing %s after retries: %v", path, outcome.Err))
		} else {
			r.Logger.LogError(fmt.Sprintf("error processing %s: %v", path, outcome.Err))
		}
		r.Stats.addFailed()
		return nil
	}
}

// partitionChunks splits items into at most n contiguous chunks of
// near-equal size. Contiguous partitioning (not round-robin) keeps each
// worker on a locality-friendly slice of the batch.
func partitionChunks(items []string, n int) [][]string {
	if n > len(items) {
		n = len(items)
	}
	if n < 1 {
		n = 1
	}

	chunkLen := (len(items) + n - 1) / n
	chunks := make([][]string, 0, n)
	for start := 0; start < len(items); start += chunkLen {
		end := start + chunkLen
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
