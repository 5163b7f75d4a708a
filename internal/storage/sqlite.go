// Package storage persists analysis results in SQLite keyed by content
// fingerprint. The store doubles as the advisory cache: a hit skips
// recomputation, a miss or corrupt row just means the file is analyzed
// again.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"reportaudit/internal/model"
)

// SQLiteStore implements service.ResultStore on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the result database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Migrate creates the schema. Safe to call on every startup.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS analysis_results (
	fingerprint   TEXT PRIMARY KEY,
	file_path     TEXT NOT NULL,
	detected_type TEXT NOT NULL,
	status        TEXT NOT NULL,
	risk_level    TEXT NOT NULL,
	score         INTEGER NOT NULL,
	payload       TEXT NOT NULL,
	processed_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_type ON analysis_results(detected_type);
CREATE INDEX IF NOT EXISTS idx_results_status ON analysis_results(status);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SaveResult upserts the result under its fingerprint. Re-analyzing the same
// content replaces the stored row.
func (s *SQLiteStore) SaveResult(ctx context.Context, fingerprint string, result *model.AnalysisResult) error {
	if fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if result == nil {
		return fmt.Errorf("result is required")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO analysis_results (fingerprint, file_path, detected_type, status, risk_level, score, payload, processed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(fingerprint) DO UPDATE SET
	file_path = excluded.file_path,
	detected_type = excluded.detected_type,
	status = excluded.status,
	risk_level = excluded.risk_level,
	score = excluded.score,
	payload = excluded.payload,
	processed_at = excluded.processed_at`,
		fingerprint, result.FilePath, result.DetectedType, string(result.Status),
		string(result.RiskLevel), result.Score, string(payload), result.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// CachedResult returns the stored result for a fingerprint, or nil on a
// miss. A corrupt payload is treated as a miss, not an error: the cache is
// advisory.
func (s *SQLiteStore) CachedResult(ctx context.Context, fingerprint string) (*model.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM analysis_results WHERE fingerprint = ?`, fingerprint).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached result: %w", err)
	}

	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, nil
	}
	return &result, nil
}

// Clear drops all cached results.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_results`); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
