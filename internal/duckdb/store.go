// Package duckdb persists verification outcomes in DuckDB so that results
// of earlier runs can be queried and unchanged pairs skipped.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding verification outcomes.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS verification_results (
		filename VARCHAR,
		anonymization_level VARCHAR,
		verification_result VARCHAR,
		anonymization_rate DOUBLE,
		metadata_targets BIGINT,
		variant_targets BIGINT,
		metadata_masked BIGINT,
		variant_masked BIGINT,
		unmasked_positions VARCHAR,
		original_path VARCHAR,
		original_size BIGINT,
		original_mtime BIGINT,
		anonymized_path VARCHAR,
		anonymized_size BIGINT,
		anonymized_mtime BIGINT,
		maf_threshold DOUBLE,
		min_motif INTEGER,
		max_motif INTEGER,
		min_repeat INTEGER,
		verified_at TIMESTAMP
	)`)
	return err
}
