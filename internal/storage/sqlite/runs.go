package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/voxsplit/voxsplit/internal/transcription"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// RunStorage handles storage of transcription runs and their results
type RunStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRunStorage creates a new SQLite run storage and initializes its tables
func NewRunStorage(db *sql.DB, logger *logger.Logger) (*RunStorage, error) {
	storage := &RunStorage{
		db:     db,
		logger: logger.Named("sqlite-runs"),
	}
	if err := storage.initDB(); err != nil {
		return nil, err
	}
	return storage, nil
}

// initDB initializes the database tables
func (s *RunStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			dest_path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			error TEXT NOT NULL DEFAULT '',
			full_text TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_segments (
			run_id TEXT NOT NULL,
			seg_index INTEGER NOT NULL,
			start_sec REAL NOT NULL,
			duration_sec REAL NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (run_id, seg_index),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create run_segments table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create run index: %w", err)
		}
	}
	return nil
}

// CreateRun inserts a new pending run
func (s *RunStorage) CreateRun(record *RunRecord) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = RunStatusPending
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, source_path, dest_path, status, error, full_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SourcePath,
		record.DestPath,
		record.Status,
		record.Error,
		record.FullText,
		record.CreatedAt.Format(time.RFC3339),
		record.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// UpdateRunStatus updates a run's status and error message
func (s *RunStorage) UpdateRunStatus(id, status, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// StoreResult records a completed run's combined transcript and its
// per-segment results
func (s *RunStorage) StoreResult(id string, transcript transcription.CombinedTranscript) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE runs SET status = ?, full_text = ?, updated_at = ? WHERE id = ?`,
		RunStatusCompleted, transcript.Text(), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update run result: %w", err)
	}

	for _, r := range transcript.Results {
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO run_segments (run_id, seg_index, start_sec, duration_sec, text)
			VALUES (?, ?, ?, ?, ?)`,
			id, r.Segment.Index, r.Segment.StartSec, r.Segment.DurationSec, r.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to insert segment %d: %w", r.Segment.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run result: %w", err)
	}

	s.logger.Debug("Stored run result",
		logger.String("run_id", id),
		logger.Int("segments", len(transcript.Results)),
	)
	return nil
}

// GetRun returns a run by ID, or sql.ErrNoRows if it does not exist
func (s *RunStorage) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, source_path, dest_path, status, error, full_text, created_at, updated_at
		FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first
func (s *RunStorage) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, source_path, dest_path, status, error, full_text, created_at, updated_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetRunSegments returns a run's per-segment results in order
func (s *RunStorage) GetRunSegments(id string) ([]*SegmentRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, seg_index, start_sec, duration_sec, text
		FROM run_segments WHERE run_id = ? ORDER BY seg_index`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run segments: %w", err)
	}
	defer rows.Close()

	var records []*SegmentRecord
	for rows.Next() {
		var rec SegmentRecord
		if err := rows.Scan(&rec.RunID, &rec.Index, &rec.StartSec, &rec.DurationSec, &rec.Text); err != nil {
			return nil, fmt.Errorf("failed to scan segment row: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// rowScanner covers both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.SourcePath, &rec.DestPath, &rec.Status, &rec.Error, &rec.FullText, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}
