// Package extract provides the metadata extraction strategies for the
// supported ophthalmic imaging formats.
//
// Two extractor variants exist: a native DICOM header reader and an
// external-converter based reader for the legacy Heidelberg/Topcon formats.
// Both implement the same Extractor interface and produce an Outcome; the
// scheduler selects a variant by file extension.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pontikos-lab/open-sight/internal/models"
)

// ExtDICOM is the native DICOM file extension.
const ExtDICOM = ".dcm"

// LegacyExtensions are the proprietary formats handled by the crystal-eye
// converter.
var LegacyExtensions = []string{".e2e", ".fda", ".sdb"}

// RecognizedExtensions returns every extension the pipeline accepts.
func RecognizedExtensions() []string {
	return append([]string{ExtDICOM}, LegacyExtensions...)
}

// IsDICOM reports whether the path carries the native DICOM extension.
func IsDICOM(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ExtDICOM)
}

// IsLegacy reports whether the path carries one of the legacy extensions.
func IsLegacy(path string) bool {
	ext := filepath.Ext(path)
	for _, legacy := range LegacyExtensions {
		if strings.EqualFold(ext, legacy) {
			return true
		}
	}
	return false
}

// Status classifies the result of one extraction.
type Status int

const (
	// StatusSuccess means a Record was produced.
	StatusSuccess Status = iota
	// StatusSkipped means the file was deliberately not extracted.
	StatusSkipped
	// StatusFailed means extraction failed with an error.
	StatusFailed
)

// Outcome is the tagged per-file extraction result consumed by the scheduler
// to decide whether to persist, log, or drop.
type Outcome struct {
	Status Status

	// Record is set for StatusSuccess.
	Record *models.Record

	// Reason is set for StatusSkipped.
	Reason string

	// Err is set for StatusFailed.
	Err error

	// RetriesExhausted is true when a StatusFailed outcome went through the
	// full retry budget before giving up.
	RetriesExhausted bool
}

// Success builds a successful Outcome carrying the extracted record.
func Success(record *models.Record) Outcome {
	return Outcome{Status: StatusSuccess, Record: record}
}

// Skipped builds an Outcome for a file deliberately not extracted.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Failed builds an Outcome for a failed extraction.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Extractor extracts a metadata record from a single source file.
// Implementations never panic; all failure modes are reported as a
// StatusFailed outcome with a descriptive cause.
type Extractor interface {
	Extract(ctx context.Context, path string) Outcome
}
