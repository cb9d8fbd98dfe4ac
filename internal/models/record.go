// Package models defines the metadata record extracted from ophthalmic
// imaging files and its CSV row encoding.
package models

import (
	"fmt"
	"strconv"
)

// Record is one row of extracted metadata for a single source file.
// All fields except FileSize are free-form strings taken from the source;
// absent or unparsable source values degrade to an empty string rather than
// failing the extraction.
//
// FilePath is always the canonicalized (symlink-resolved, absolute) path of
// the source file and is the sole identity used for deduplication against
// the resume index. A Record is constructed once per successfully extracted
// file and is immutable thereafter.
type Record struct {
	PatientID         string
	PatientName       string
	Laterality        string
	Sex               string
	DOB               string
	ScanDate          string
	Modality          string
	Manufacturer      string
	SeriesDescription string
	Modified          string
	FileSize          uint64
	FilePath          string
}

// Header returns the fixed CSV column order. It is written exactly once, at
// the start of a fresh output artifact.
func Header() []string {
	return []string{
		"patient_id",
		"patient_name",
		"laterality",
		"sex",
		"dob",
		"scan_date",
		"modality",
		"manufacturer",
		"series_description",
		"modified",
		"file_size",
		"file_path",
	}
}

// NumColumns is the number of columns in the output artifact.
const NumColumns = 12

// Row encodes the record as a CSV row in Header() order.
func (r Record) Row() []string {
	return []string{
		r.PatientID,
		r.PatientName,
		r.Laterality,
		r.Sex,
		r.DOB,
		r.ScanDate,
		r.Modality,
		r.Manufacturer,
		r.SeriesDescription,
		r.Modified,
		strconv.FormatUint(r.FileSize, 10),
		r.FilePath,
	}
}

// FromRow decodes a CSV row in Header() order back into a Record.
// Returns an error if the row has the wrong number of columns or a
// non-numeric file_size.
func FromRow(row []string) (Record, error) {
	if len(row) != NumColumns {
		return Record{}, fmt.Errorf("expected %d columns, got %d", NumColumns, len(row))
	}
	size, err := strconv.ParseUint(row[10], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid file_size %q: %w", row[10], err)
	}
	return Record{
		PatientID:         row[0],
		PatientName:       row[1],
		Laterality:        row[2],
		Sex:               row[3],
		DOB:               row[4],
		ScanDate:          row[5],
		Modality:          row[6],
		Manufacturer:      row[7],
		SeriesDescription: row[8],
		Modified:          row[9],
		FileSize:          size,
		FilePath:          row[11],
	}, nil
}
