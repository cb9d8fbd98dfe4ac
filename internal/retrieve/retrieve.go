// Package retrieve implements the companion retrieval tool: given a list of
// patient identifiers and a previously produced index CSV, it locates and
// copies the matching source files into a per-patient, per-date,
// per-laterality directory tree.
package retrieve

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pontikos-lab/open-sight/internal/logger"
	"github.com/pontikos-lab/open-sight/internal/sink"
)

// NotFoundReport is the report file recording patient IDs with zero matches.
// It is created in the working directory and rotated with the same rule as
// the main artifact.
const NotFoundReport = "patient_ids_not_found.csv"

// Default filters applied to the index.
var DefaultModalities = []string{"OP", "OPT"}

const DefaultManufacturer = "Heidelberg Engineering"

// Options configures a retrieval run.
type Options struct {
	// IndexCSV is the output artifact of a previous extraction run.
	IndexCSV string

	// PatientIDFile is a plain text list, one patient ID per line.
	PatientIDFile string

	// OutputDir is the root of the copied directory tree.
	OutputDir string

	// Overwrite re-copies files that already exist at the destination and
	// overwrites an existing not-found report instead of rotating it.
	Overwrite bool

	// Modalities restricts matches to the given modality codes.
	Modalities []string

	// Manufacturer restricts matches to a single manufacturer.
	Manufacturer string
}

// ReadPatientIDs reads the patient ID list: one ID per line, surrounding
// whitespace trimmed, empty lines dropped.
func ReadPatientIDs(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patient ID file %s: %w", path, err)
	}

	var ids []string
	for _, line := range strings.Split(string(contents), "\n") {
		id := strings.TrimSpace(line)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Run executes the retrieval: for every patient ID, query the index, copy
// each matching file into <out>/<patient>/<yyyymmdd>_<laterality>/ with a
// modality-prefixed name, and record IDs with zero matches (or failed
// copies) in the not-found report.
//
// An unreadable patient ID list or index is fatal; individual copy failures
// are logged and only demote the patient into the not-found report.
func Run(ctx context.Context, opts Options, log logger.Logger) error {
	ids, err := ReadPatientIDs(opts.PatientIDFile)
	if err != nil {
		return err
	}

	store, err := OpenStore(opts.IndexCSV)
	if err != nil {
		return err
	}
	defer store.Close()

	var notFound []string
	for _, id := range ids {
		found, err := copyPatientFiles(ctx, store, id, opts, log)
		if err != nil {
			return fmt.Errorf("error processing patient %s: %w", id, err)
		}
		if !found {
			notFound = append(notFound, id)
		}
	}

	if len(notFound) > 0 {
		if err := writeNotFoundReport(notFound, opts.Overwrite, log); err != nil {
			return err
		}
		log.LogInfo(fmt.Sprintf("%d patient IDs not found in the index, see file: %s", len(notFound), NotFoundReport))
	}
	return nil
}

// copyPatientFiles copies all of one patient's matching files. Returns false
// when the patient has no matching rows or any of its copies failed.
func copyPatientFiles(ctx context.Context, store *Store, patientID string, opts Options, log logger.Logger) (bool, error) {
	rows, err := store.ScansForPatient(ctx, patientID, opts.Modalities, opts.Manufacturer)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}

	missing := false
	for _, row := range rows {
		destDir := filepath.Join(opts.OutputDir, patientID, fmt.Sprintf("%s_%s", folderDate(row.ScanDate), row.Laterality))
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", destDir, err)
		}

		destPath := filepath.Join(destDir, fmt.Sprintf("%s_%s", row.Modality, filepath.Base(row.FilePath)))
		if _, err := os.Stat(destPath); err == nil && !opts.Overwrite {
			continue
		}
		if err := copyFile(row.FilePath, destPath); err != nil {
			log.LogWarn(fmt.Sprintf("failed to copy %s: %v", row.FilePath, err))
			missing = true
		}
	}
	return !missing, nil
}

// folderDate renders a scan date as yyyymmdd for the directory name,
// falling back to the raw value when it does not parse.
func folderDate(scanDate string) string {
	t, err := time.Parse("02-01-2006", scanDate)
	if err != nil {
		return scanDate
	}
	return t.Format("20060102")
}

// copyFile copies src to dst, truncating any existing destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeNotFoundReport writes the not-found patient IDs, one per line,
// rotating any pre-existing report first.
func writeNotFoundReport(ids []string, overwrite bool, log logger.Logger) error {
	if err := sink.PrepareOutputPath(NotFoundReport, overwrite, log); err != nil {
		return err
	}

	file, err := os.Create(NotFoundReport)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", NotFoundReport, err)
	}
	defer file.Close()

	for _, id := range ids {
		if _, err := fmt.Fprintln(file, id); err != nil {
			return fmt.Errorf("failed to write %s: %w", NotFoundReport, err)
		}
	}
	return nil
}
