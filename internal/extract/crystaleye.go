package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pontikos-lab/open-sight/internal/fileutil"
	"github.com/pontikos-lab/open-sight/internal/logger"
	"github.com/pontikos-lab/open-sight/internal/models"
)

// sidecarName is the metadata file the converter leaves in the scratch
// directory.
const sidecarName = "metadata.json"

// legacyModality is the modality code recorded for every converter-extracted
// file, since the legacy containers carry no modality attribute of their own.
const legacyModality = "CE"

// sidecarMetadata mirrors the nested structure of the converter's
// metadata.json. All fields are optional; JSON nulls decode to empty strings.
type sidecarMetadata struct {
	Patient struct {
		PatientKey  string `json:"patient_key"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		DateOfBirth string `json:"date_of_birth"`
		Gender      string `json:"gender"`
	} `json:"patient"`
	Exam struct {
		Manufacturer string `json:"manufacturer"`
		ScanDatetime string `json:"scan_datetime"`
	} `json:"exam"`
	Series struct {
		Laterality string `json:"laterality"`
		Protocol   string `json:"protocol"`
	} `json:"series"`
}

// Date layouts used by the converter sidecar.
const (
	sidecarDOBLayout  = "2006-01-02"
	sidecarScanLayout = "2006-01-02 15:04:05"
)

// CrystalEyeExtractor extracts metadata from the legacy container formats by
// invoking the external crystal-eye converter:
//
//	crystal-eye -i <input-file> --only-metadata -o <scratch-dir>
//
// The converter must exit successfully and leave a metadata.json sidecar in
// the scratch directory. A fresh scratch directory is created per file and
// removed on every exit path, including converter failure.
//
// This variant is deliberately not wrapped by the retry policy: every call
// spawns an external process, and converter failures are structural rather
// than transient.
type CrystalEyeExtractor struct {
	// ToolPath is the resolved location of the converter binary.
	ToolPath string

	// Logger receives trace-level notes about converter invocations.
	// Can be nil for silent operation.
	Logger logger.Logger
}

// Extract implements the Extractor interface for the legacy formats.
func (e *CrystalEyeExtractor) Extract(ctx context.Context, path string) Outcome {
	scratchDir := filepath.Join(os.TempDir(), "opensight-"+uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return Failed(fmt.Errorf("failed to create scratch directory: %w", err))
	}
	defer os.RemoveAll(scratchDir)

	// The converter expects forward slashes regardless of platform
	input := strings.ReplaceAll(path, `\`, "/")

	if e.Logger != nil {
		e.Logger.LogTrace(fmt.Sprintf("invoking %s for %s", e.ToolPath, path))
	}

	cmd := exec.CommandContext(ctx, e.ToolPath, "-i", input, "--only-metadata", "-o", scratchDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Failed(fmt.Errorf("crystal-eye failed for %s: %w (output: %s)", path, err, bytes.TrimSpace(output)))
	}

	metadata, err := readSidecar(filepath.Join(scratchDir, sidecarName))
	if err != nil {
		return Failed(fmt.Errorf("invalid converter output for %s: %w", path, err))
	}

	record, err := recordFromSidecar(metadata, path)
	if err != nil {
		return Failed(err)
	}
	return Success(record)
}

// readSidecar parses the converter's metadata.json.
func readSidecar(path string) (*sidecarMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sidecarName, err)
	}
	var metadata sidecarMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", sidecarName, err)
	}
	return &metadata, nil
}

// recordFromSidecar maps the sidecar structure plus filesystem metadata into
// a Record keyed by the canonical source path.
func recordFromSidecar(metadata *sidecarMetadata, path string) (*models.Record, error) {
	canonical, err := fileutil.CanonicalPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	patientName := fmt.Sprintf("%s %s", metadata.Patient.FirstName, metadata.Patient.LastName)

	return &models.Record{
		PatientID:         metadata.Patient.PatientKey,
		PatientName:       patientName,
		Laterality:        metadata.Series.Laterality,
		Sex:               metadata.Patient.Gender,
		DOB:               models.NormalizeDateLayout(metadata.Patient.DateOfBirth, sidecarDOBLayout),
		ScanDate:          models.NormalizeDateLayout(metadata.Exam.ScanDatetime, sidecarScanLayout),
		Modality:          legacyModality,
		Manufacturer:      metadata.Exam.Manufacturer,
		SeriesDescription: metadata.Series.Protocol,
		Modified:          models.FormatModified(info.ModTime()),
		FileSize:          uint64(info.Size()),
		FilePath:          canonical,
	}, nil
}
