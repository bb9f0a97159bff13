// Package store persists fetch runs and flattened contracts to a local
// SQLite database, as an optional complement to the CSV output.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opengov-br/transparencia-contratos/pkg/contratos"
)

// Store wraps the SQLite database handle.
type Store struct {
	db *sql.DB
}

// Run describes one fetch run.
type Run struct {
	ID         int64
	Orgao      string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Records    int
	Status     string
	Error      string
}

// Run status values.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

// Open opens (or creates) the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		orgao TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages INTEGER NOT NULL,
		records INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT
	);
	`
	contratosTable := `
	CREATE TABLE IF NOT EXISTS contratos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		row_index INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	`

	if _, err := db.Exec(runsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	if _, err := db.Exec(contratosTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create contratos table: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRun inserts a run row and returns its id.
func (s *Store) SaveRun(run Run) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (orgao, started_at, finished_at, pages, records, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Orgao, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Pages, run.Records, run.Status, run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// SaveRecords stores the flattened records of a run as JSON payloads, in
// one transaction. Row order mirrors the output table.
func (s *Store) SaveRecords(runID int64, records []contratos.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO contratos (run_id, row_index, payload) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal record %d: %w", i, err)
		}
		if _, err := stmt.Exec(runID, i, string(payload)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// CountRecords returns the number of stored records for a run.
func (s *Store) CountRecords(runID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM contratos WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// GetRun fetches a run by id.
func (s *Store) GetRun(id int64) (*Run, error) {
	var run Run
	err := s.db.QueryRow(
		`SELECT id, orgao, started_at, finished_at, pages, records, status, IFNULL(error, '')
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Orgao, &run.StartedAt, &run.FinishedAt,
		&run.Pages, &run.Records, &run.Status, &run.Error)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
