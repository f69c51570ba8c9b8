package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"bird-detection/model"
	"bird-detection/utils"
)

// ReportStore keeps the per-species training-metric history in a local SQLite
// file, one row per completed training run.
type ReportStore struct {
	db *sql.DB
}

// StoredReport is one persisted training run.
type StoredReport struct {
	ID        int64
	Species   string
	CreatedAt time.Time
	Report    model.TrainReport
}

func NewReportStore(dataSourceName string) (*ReportStore, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	// Create the directory if it doesn't exist (cross-platform)
	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &ReportStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	createReportsTable := `
    CREATE TABLE IF NOT EXISTS training_reports (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        species TEXT NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        test_roc_auc REAL NOT NULL,
        test_f1 REAL NOT NULL,
        report TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_training_reports_species ON training_reports(species);
    `

	_, err := db.Exec(createReportsTable)
	if err != nil {
		return fmt.Errorf("error creating training_reports table: %s", err)
	}
	return nil
}

func (s *ReportStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreReport appends one training run for a species.
func (s *ReportStore) StoreReport(species string, report model.TrainReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("error marshaling training report: %s", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO training_reports (species, test_roc_auc, test_f1, report)
		VALUES (?, ?, ?, ?)`,
		species,
		report.Test.ROCAUC,
		report.Test.F1,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("error storing training report: %s", err)
	}
	return nil
}

// ListReports returns a species' training history, newest first.
func (s *ReportStore) ListReports(species string) ([]StoredReport, error) {
	rows, err := s.db.Query(`
		SELECT id, species, created_at, report
		FROM training_reports
		WHERE species = ?
		ORDER BY created_at DESC, id DESC
	`, species)
	if err != nil {
		return nil, fmt.Errorf("error querying training reports: %s", err)
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var stored StoredReport
		var reportJSON string

		if err := rows.Scan(&stored.ID, &stored.Species, &stored.CreatedAt, &reportJSON); err != nil {
			return nil, fmt.Errorf("error scanning training report: %s", err)
		}
		if err := json.Unmarshal([]byte(reportJSON), &stored.Report); err != nil {
			return nil, fmt.Errorf("error unmarshaling training report: %s", err)
		}

		reports = append(reports, stored)
	}

	return reports, rows.Err()
}
