// Package sqlite provides a SQLite-backed kv.Substrate for devconsole.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_records (
	key              TEXT PRIMARY KEY,
	value            TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	updated_at_epoch INTEGER NOT NULL
)`

const (
	getQuery    = `SELECT value FROM kv_records WHERE key = ? LIMIT 1`
	upsertQuery = `
		INSERT INTO kv_records (key, value, updated_at, updated_at_epoch)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			updated_at_epoch = excluded.updated_at_epoch
	`
	deleteQuery = `DELETE FROM kv_records WHERE key = ?`
)

// StoreConfig holds SQLite configuration.
type StoreConfig struct {
	Path     string // database file; ":memory:" for a private in-memory database
	MaxConns int    // default 4; forced to 1 for in-memory databases
	WALMode  bool
}

// Store is a kv.Substrate persisted in a single SQLite table.
type Store struct {
	db *sql.DB

	stmtMu sync.Mutex
	stmts  map[string]*sql.Stmt
}

// NewStore opens the database, applies pragmas and creates the schema.
func NewStore(cfg StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	if cfg.Path == ":memory:" {
		// every connection to :memory: is a separate database
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if cfg.WALMode && cfg.Path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return newStoreFromDB(db), nil
}

func newStoreFromDB(db *sql.DB) *Store {
	return &Store{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}
}

// GetStmt returns a cached prepared statement for query.
func (s *Store) GetStmt(query string) (*sql.Stmt, error) {
	s.stmtMu.Lock()
	defer s.stmtMu.Unlock()

	if stmt, ok := s.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	s.stmts[query] = stmt
	return stmt, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	stmt, err := s.GetStmt(getQuery)
	if err != nil {
		return "", false, fmt.Errorf("prepare get: %w", err)
	}

	var value string
	err = stmt.QueryRowContext(ctx, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	stmt, err := s.GetStmt(upsertQuery)
	if err != nil {
		return fmt.Errorf("prepare set: %w", err)
	}

	now := time.Now()
	if _, err := stmt.ExecContext(ctx, key, value, now.Format(time.RFC3339), now.UnixMilli()); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	stmt, err := s.GetStmt(deleteQuery)
	if err != nil {
		return fmt.Errorf("prepare remove: %w", err)
	}
	if _, err := stmt.ExecContext(ctx, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close releases cached statements and closes the database.
func (s *Store) Close() error {
	s.stmtMu.Lock()
	for q, stmt := range s.stmts {
		_ = stmt.Close()
		delete(s.stmts, q)
	}
	s.stmtMu.Unlock()
	return s.db.Close()
}
