// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stats persists per-run stage statistics in SQLite so conditions
// can be evaluated against the record counts of earlier stages.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tombee/conditional/pkg/condition"
	"github.com/tombee/conditional/pkg/errors"
)

// Store is a SQLite-backed stage statistics store.
type Store struct {
	db *sql.DB
}

// Config contains SQLite connection configuration.
type Config struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent reads.
	WAL bool
}

// StageRecord is one stored row.
type StageRecord struct {
	RunID     string
	Stage     string
	Stats     condition.StageStatistics
	UpdatedAt time.Time
}

// RunSummary describes a run present in the store.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Stages    int       `json:"stages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open opens (creating if needed) the statistics database.
func Open(cfg Config) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}

	if err := s.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure pragmas: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *Store) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS stage_statistics (
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			input_records INTEGER NOT NULL DEFAULT 0,
			output_records INTEGER NOT NULL DEFAULT 0,
			error_records INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (run_id, stage)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stage_statistics_updated_at ON stage_statistics(updated_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Record stores the statistics of a stage, replacing earlier counts.
func (s *Store) Record(ctx context.Context, runID, stage string, stats condition.StageStatistics) error {
	if runID == "" || stage == "" {
		return fmt.Errorf("run ID and stage are required")
	}
	if stats.Input < 0 || stats.Output < 0 || stats.Error < 0 {
		return fmt.Errorf("record counts must not be negative")
	}

	query := `
		INSERT INTO stage_statistics (run_id, stage, input_records, output_records, error_records, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, stage) DO UPDATE SET
			input_records = excluded.input_records,
			output_records = excluded.output_records,
			error_records = excluded.error_records,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, runID, stage, stats.Input, stats.Output, stats.Error,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record statistics: %w", err)
	}
	return nil
}

// Add increments the statistics of a stage, creating the row if needed.
func (s *Store) Add(ctx context.Context, runID, stage string, delta condition.StageStatistics) error {
	if runID == "" || stage == "" {
		return fmt.Errorf("run ID and stage are required")
	}

	query := `
		INSERT INTO stage_statistics (run_id, stage, input_records, output_records, error_records, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, stage) DO UPDATE SET
			input_records = input_records + excluded.input_records,
			output_records = output_records + excluded.output_records,
			error_records = error_records + excluded.error_records,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, runID, stage, delta.Input, delta.Output, delta.Error,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to add statistics: %w", err)
	}
	return nil
}

// Snapshot returns the statistics of every stage of a run. A run with no
// rows yields *errors.NotFoundError.
func (s *Store) Snapshot(ctx context.Context, runID string) (map[string]condition.StageStatistics, error) {
	records, err := s.Stages(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &errors.NotFoundError{Resource: "run", ID: runID}
	}

	out := make(map[string]condition.StageStatistics, len(records))
	for _, r := range records {
		out[r.Stage] = r.Stats
	}
	return out, nil
}

// Stages returns the stored rows of a run ordered by stage name.
func (s *Store) Stages(ctx context.Context, runID string) ([]StageRecord, error) {
	query := `
		SELECT run_id, stage, input_records, output_records, error_records, updated_at
		FROM stage_statistics
		WHERE run_id = ?
		ORDER BY stage ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage statistics: %w", err)
	}
	defer rows.Close()

	var records []StageRecord
	for rows.Next() {
		var r StageRecord
		var updatedAt string
		if err := rows.Scan(&r.RunID, &r.Stage, &r.Stats.Input, &r.Stats.Output, &r.Stats.Error, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stage statistics: %w", err)
		}
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stage statistics: %w", err)
	}
	return records, nil
}

// Runs lists the runs in the store, most recently updated first.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	query := `
		SELECT run_id, COUNT(*), MAX(updated_at)
		FROM stage_statistics
		GROUP BY run_id
		ORDER BY MAX(updated_at) DESC, run_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var updatedAt string
		if err := rows.Scan(&r.RunID, &r.Stages, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Delete removes every row of a run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stage_statistics WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "run", ID: runID}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
