package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"html-scraper/models"
)

// Run statuses as stored in scrape_runs.status
const (
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusNoData     = "no_data"
	StatusFailed     = "failed"
)

// Run represents one scrape run
type Run struct {
	ID           int
	URL          string
	AuthMode     string
	Tag          sql.NullString
	ClassName    sql.NullString
	Attribute    sql.NullString
	Status       string // "in_progress", "done", "no_data", "failed"
	RecordsCount int
	Error        sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StoredRecord is a record saved for a run
type StoredRecord struct {
	ID       int
	RunID    int
	Position int // 1-based, in document order
	Tag      string
	Content  string
}

// RunFinish carries the final state of a run
type RunFinish struct {
	Status       string
	RecordsCount int
	Error        string
	AuthMode     models.AuthMode
	Criteria     models.SelectionCriteria
}

// CreateRun inserts a run in the in_progress state
func (db *DB) CreateRun(ctx context.Context, url string, authMode models.AuthMode) (*Run, error) {
	var run Run
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO scrape_runs (url, auth_mode, status)
		VALUES ($1, $2, $3)
		RETURNING id, url, auth_mode, tag, class_name, attribute, status, records_count, error, created_at, updated_at
	`, url, authMode.String(), StatusInProgress).Scan(
		&run.ID, &run.URL, &run.AuthMode, &run.Tag, &run.ClassName, &run.Attribute,
		&run.Status, &run.RecordsCount, &run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// FinishRun records the terminal status of a run
func (db *DB) FinishRun(ctx context.Context, runID int, f RunFinish) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE scrape_runs
		SET status = $1, records_count = $2, error = $3, auth_mode = $4,
			tag = $5, class_name = $6, attribute = $7,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
	`, f.Status, f.RecordsCount, nullString(f.Error), f.AuthMode.String(),
		nullString(f.Criteria.Tag), nullString(f.Criteria.ClassName), nullString(f.Criteria.Attribute),
		runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// SaveRecords stores records for a run in one transaction
func (db *DB) SaveRecords(ctx context.Context, runID int, records models.RecordSet) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scrape_records (run_id, position, tag, content)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, runID, i+1, r.TagName, r.Content); err != nil {
			return fmt.Errorf("failed to save record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// GetRun loads a run by ID
func (db *DB) GetRun(ctx context.Context, runID int) (*Run, error) {
	var run Run
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, url, auth_mode, tag, class_name, attribute, status, records_count, error, created_at, updated_at
		FROM scrape_runs
		WHERE id = $1
	`, runID).Scan(
		&run.ID, &run.URL, &run.AuthMode, &run.Tag, &run.ClassName, &run.Attribute,
		&run.Status, &run.RecordsCount, &run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecords returns the stored records of a run in position order
func (db *DB) ListRecords(ctx context.Context, runID int) ([]StoredRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, run_id, position, tag, content
		FROM scrape_records
		WHERE run_id = $1
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var r StoredRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.Position, &r.Tag, &r.Content); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ToRecordSet converts stored records back into extraction records
func ToRecordSet(stored []StoredRecord) models.RecordSet {
	records := make(models.RecordSet, 0, len(stored))
	for _, r := range stored {
		records = append(records, models.Record{TagName: r.Tag, Content: r.Content})
	}
	return records
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
