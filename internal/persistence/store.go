package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RunRecord is the persisted form of one tree evaluation.
type RunRecord struct {
	ID         string
	Scenario   string
	Tree       string
	Seed       int64
	Finished   bool
	Result     bool
	Aborted    bool
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NodeRecord is one persisted node lifecycle event within a run.
type NodeRecord struct {
	RunID     string
	Path      string
	Label     string
	Kind      string
	Resolved  bool // false for evaluation start, true for resolution
	Result    bool // valid only when Resolved
	Timestamp time.Time
}

// Store defines the persistence interface for runs and their node
// event trails.
type Store interface {
	// Run operations
	SaveRun(ctx context.Context, run *RunRecord) error
	FinishRun(ctx context.Context, runID string, result, aborted bool, runErr error, finishedAt time.Time) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context) ([]*RunRecord, error)

	// Node event trail
	AppendNodeEvent(ctx context.Context, rec *NodeRecord) error
	GetNodeEvents(ctx context.Context, runID string) ([]*NodeRecord, error)

	// Simulation log
	AppendLog(ctx context.Context, runID, line string, at time.Time) error
	GetLog(ctx context.Context, runID string) ([]string, error)

	// Lifecycle
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store at the given path.
// Creates parent directories if needed. Enables WAL mode, foreign keys, and busy timeout.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	// Note: modernc.org/sqlite doesn't support _foreign_keys in connection string
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return initStore(ctx, db)
}

// NewMemoryStore creates an in-memory SQLite store for testing.
// Uses a shared cache so multiple connections see the same database.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	connStr := "file::memory:?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	return initStore(ctx, db)
}

func initStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	// Enable foreign keys via PRAGMA (required for modernc.org/sqlite)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Allow 2 connections: one for primary queries, one for subqueries
	db.SetMaxOpenConns(2)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
