package retrieve

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pontikos-lab/open-sight/internal/models"
)

// Store loads a previously produced index CSV into an in-memory SQLite table
// and exposes the per-patient queries the retrieval command needs. The store
// is read-only after Open.
type Store struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE scans (
	patient_id         TEXT NOT NULL,
	patient_name       TEXT NOT NULL,
	laterality         TEXT NOT NULL,
	sex                TEXT NOT NULL,
	dob                TEXT NOT NULL,
	scan_date          TEXT NOT NULL,
	modality           TEXT NOT NULL,
	manufacturer       TEXT NOT NULL,
	series_description TEXT NOT NULL,
	modified           TEXT NOT NULL,
	file_size          INTEGER NOT NULL,
	file_path          TEXT NOT NULL
);

CREATE INDEX idx_scans_patient_id ON scans(patient_id);
`

// OpenStore creates the in-memory database and loads every row of the index
// CSV at csvPath into it.
func OpenStore(csvPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	store := &Store{db: db}
	if err := store.loadCSV(csvPath); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// loadCSV inserts all index rows inside a single transaction.
func (s *Store) loadCSV(csvPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open index %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = models.NumColumns

	// Header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to read header of %s: %w", csvPath, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO scans VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read row of %s: %w", csvPath, err)
		}
		record, err := models.FromRow(row)
		if err != nil {
			return fmt.Errorf("malformed row in %s: %w", csvPath, err)
		}
		if _, err := stmt.Exec(
			record.PatientID,
			record.PatientName,
			record.Laterality,
			record.Sex,
			record.DOB,
			record.ScanDate,
			record.Modality,
			record.Manufacturer,
			record.SeriesDescription,
			record.Modified,
			record.FileSize,
			record.FilePath,
		); err != nil {
			return fmt.Errorf("insert row for %s: %w", record.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ScanRow is the subset of index columns the copy step consumes.
type ScanRow struct {
	Laterality string
	ScanDate   string
	Modality   string
	FilePath   string
}

// ScansForPatient returns the patient's scans restricted to the given
// modality set and manufacturer, ordered by scan date, laterality and
// modality. An empty result means the patient ID is absent from the index.
func (s *Store) ScansForPatient(ctx context.Context, patientID string, modalities []string, manufacturer string) ([]ScanRow, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(modalities)), ",")
	query := fmt.Sprintf(
		`SELECT laterality, scan_date, modality, file_path
		 FROM scans
		 WHERE patient_id = ? AND modality IN (%s) AND manufacturer = ?
		 ORDER BY scan_date, laterality, modality`, placeholders)

	args := make([]interface{}, 0, len(modalities)+2)
	args = append(args, patientID)
	for _, modality := range modalities {
		args = append(args, modality)
	}
	args = append(args, manufacturer)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans for %s: %w", patientID, err)
	}
	defer rows.Close()

	var result []ScanRow
	for rows.Next() {
		var row ScanRow
		if err := rows.Scan(&row.Laterality, &row.ScanDate, &row.Modality, &row.FilePath); err != nil {
			return nil, fmt.Errorf("scan row for %s: %w", patientID, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
