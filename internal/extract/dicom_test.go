package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/pontikos-lab/open-sight/internal/logger"
)

func datasetWith(t *testing.T, values map[tag.Tag]string) *dicom.Dataset {
	t.Helper()
	ds := &dicom.Dataset{}
	for tg, value := range values {
		element, err := dicom.NewElement(tg, []string{value})
		require.NoError(t, err)
		ds.Elements = append(ds.Elements, element)
	}
	return ds
}

func TestRecordFromDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.dcm")
	require.NoError(t, os.WriteFile(path, []byte("dicom-bytes"), 0644))

	ds := datasetWith(t, map[tag.Tag]string{
		tag.PatientID:         "P100",
		tag.PatientName:       "Doe^John",
		tag.ImageLaterality:   "R",
		tag.PatientSex:        "M",
		tag.PatientBirthDate:  "19800101",
		tag.ContentDate:       "20200615",
		tag.Modality:          "OPT",
		tag.Manufacturer:      "Heidelberg Engineering",
		tag.SeriesDescription: "Volume IR",
	})

	extractor := &DICOMExtractor{}
	record, err := extractor.recordFromDataset(ds, path)
	require.NoError(t, err)

	assert.Equal(t, "P100", record.PatientID)
	assert.Equal(t, "Doe^John", record.PatientName)
	assert.Equal(t, "R", record.Laterality)
	assert.Equal(t, "M", record.Sex)
	assert.Equal(t, "01-01-1980", record.DOB)
	assert.Equal(t, "15-06-2020", record.ScanDate)
	assert.Equal(t, "OPT", record.Modality)
	assert.Equal(t, "Heidelberg Engineering", record.Manufacturer)
	assert.Equal(t, "Volume IR", record.SeriesDescription)
	assert.Equal(t, uint64(len("dicom-bytes")), record.FileSize)
	assert.NotEmpty(t, record.Modified)
	assert.True(t, filepath.IsAbs(record.FilePath))
}

func TestRecordFromDatasetLateralityFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.dcm")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	// Only the older Laterality attribute is present
	ds := datasetWith(t, map[tag.Tag]string{
		tag.Laterality: "L",
	})

	extractor := &DICOMExtractor{}
	record, err := extractor.recordFromDataset(ds, path)
	require.NoError(t, err)
	assert.Equal(t, "L", record.Laterality)
}

func TestRecordFromDatasetAbsentAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.dcm")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	ds := datasetWith(t, map[tag.Tag]string{
		tag.PatientID: "P1",
	})

	extractor := &DICOMExtractor{}
	record, err := extractor.recordFromDataset(ds, path)
	require.NoError(t, err)

	assert.Equal(t, "P1", record.PatientID)
	assert.Empty(t, record.PatientName)
	assert.Empty(t, record.Laterality)
	assert.Empty(t, record.DOB)
	assert.Empty(t, record.Modality)
}

func TestDICOMExtractCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dcm")
	require.NoError(t, os.WriteFile(path, []byte("definitely not dicom"), 0644))

	extractor := &DICOMExtractor{}
	outcome := extractor.Extract(context.Background(), path)

	require.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorContains(t, outcome.Err, "failed to parse DICOM file")
}

func TestResolveToolPathExplicitOverride(t *testing.T) {
	tool := filepath.Join(t.TempDir(), "crystal-eye")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))

	resolved := ResolveToolPath(tool, logger.NewNoOpLogger())
	assert.Equal(t, tool, resolved)
}

func TestResolveToolPathEnvironment(t *testing.T) {
	tool := filepath.Join(t.TempDir(), "crystal-eye")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))
	t.Setenv(EnvToolPath, tool)

	resolved := ResolveToolPath("", logger.NewNoOpLogger())
	assert.Equal(t, tool, resolved)
}

func TestResolveToolPathNotFound(t *testing.T) {
	t.Setenv(EnvToolPath, "")
	missing := filepath.Join(t.TempDir(), "no-such-binary")

	resolved := ResolveToolPath(missing, logger.NewNoOpLogger())
	assert.Empty(t, resolved)
}
