package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/pontikos-lab/open-sight/internal/fileutil"
	"github.com/pontikos-lab/open-sight/internal/logger"
	"github.com/pontikos-lab/open-sight/internal/models"
)

// DICOMExtractor reads the header region of a native DICOM file and maps a
// fixed set of attributes into a Record. Parsing skips the bulk PixelData
// element, so only the structured header is read regardless of file size.
//
// An attribute absent from the source maps to an empty string rather than
// failing the whole extraction.
type DICOMExtractor struct {
	// Logger receives debug-level notes about undecodable attributes.
	// Can be nil for silent operation.
	Logger logger.Logger
}

// Extract implements the Extractor interface for .dcm files.
func (e *DICOMExtractor) Extract(ctx context.Context, path string) Outcome {
	dataset, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return Failed(fmt.Errorf("failed to parse DICOM file %s: %w", path, err))
	}

	record, err := e.recordFromDataset(&dataset, path)
	if err != nil {
		return Failed(err)
	}
	return Success(record)
}

// recordFromDataset maps the parsed dataset plus filesystem metadata into a
// Record keyed by the canonical source path.
func (e *DICOMExtractor) recordFromDataset(ds *dicom.Dataset, path string) (*models.Record, error) {
	canonical, err := fileutil.CanonicalPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// ImageLaterality (0020,0062) takes precedence over the older
	// Laterality (0020,0060) attribute.
	laterality := e.stringAttribute(ds, tag.ImageLaterality)
	if laterality == "" {
		laterality = e.stringAttribute(ds, tag.Laterality)
	}

	return &models.Record{
		PatientID:         e.stringAttribute(ds, tag.PatientID),
		PatientName:       e.stringAttribute(ds, tag.PatientName),
		Laterality:        laterality,
		Sex:               e.stringAttribute(ds, tag.PatientSex),
		DOB:               models.NormalizeDate(e.stringAttribute(ds, tag.PatientBirthDate)),
		ScanDate:          models.NormalizeDate(e.stringAttribute(ds, tag.ContentDate)),
		Modality:          e.stringAttribute(ds, tag.Modality),
		Manufacturer:      e.stringAttribute(ds, tag.Manufacturer),
		SeriesDescription: e.stringAttribute(ds, tag.SeriesDescription),
		Modified:          models.FormatModified(info.ModTime()),
		FileSize:          uint64(info.Size()),
		FilePath:          canonical,
	}, nil
}

// stringAttribute returns the first string value of the given tag, or an
// empty string when the element is absent. A present element whose value
// cannot be decoded as a string also maps to an empty string; the
// distinction is surfaced at debug level only, keeping the externally
// observable behavior identical for both cases.
func (e *DICOMExtractor) stringAttribute(ds *dicom.Dataset, t tag.Tag) string {
	element, err := ds.FindElementByTag(t)
	if err != nil {
		// Absent attribute
		return ""
	}

	values, ok := element.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		if e.Logger != nil {
			e.Logger.LogDebug(fmt.Sprintf("attribute %v present but not decodable as string", t))
		}
		return ""
	}
	return strings.TrimSpace(values[0])
}
