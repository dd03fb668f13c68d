// Package store provides SQLite persistence for the casedesk matter cache.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Matter is a cached case record. The cache backs the main screen's recent
// list and the client-side matter search; it is refreshed from the server,
// never authored locally.
type Matter struct {
	ID         string
	Ref        string // docket reference, e.g. "2026-CV-0142"
	Title      string
	ClientName string
	Status     string // "open", "pending", "closed"
	OpenedAt   time.Time
	CachedAt   time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Enable WAL mode for file-based databases (not :memory:)
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matters (
		id TEXT PRIMARY KEY,
		ref TEXT NOT NULL,
		title TEXT NOT NULL,
		client_name TEXT NOT NULL,
		status TEXT NOT NULL,
		opened_at DATETIME NOT NULL,
		cached_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matters_opened ON matters(opened_at DESC);
	CREATE INDEX IF NOT EXISTS idx_matters_status ON matters(status);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveMatters upserts matters, returning the count written. The server is
// authoritative, so INSERT OR REPLACE: a refreshed matter overwrites the
// cached row wholesale.
// Thread-safe: acquires write lock.
func (s *Store) SaveMatters(matters []Matter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(matters) == 0 {
		return 0, nil
	}

	stmt, err := s.db.Prepare(`
		INSERT OR REPLACE INTO matters (
			id, ref, title, client_name, status, opened_at, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, m := range matters {
		if _, err := stmt.Exec(
			m.ID,
			m.Ref,
			m.Title,
			m.ClientName,
			m.Status,
			m.OpenedAt,
			m.CachedAt,
		); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// RecentMatters retrieves the most recently opened matters.
// Thread-safe: acquires read lock.
func (s *Store) RecentMatters(limit int) ([]Matter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, ref, title, client_name, status, opened_at, cached_at
		FROM matters
		ORDER BY opened_at DESC
		LIMIT ?
	`

	return s.queryMatters(query, limit)
}

// MattersByStatus retrieves matters with the given status, newest first.
// Thread-safe: acquires read lock.
func (s *Store) MattersByStatus(status string, limit int) ([]Matter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, ref, title, client_name, status, opened_at, cached_at
		FROM matters
		WHERE status = ?
		ORDER BY opened_at DESC
		LIMIT ?
	`

	return s.queryMatters(query, status, limit)
}

// MatterByID retrieves a single matter, or sql.ErrNoRows if absent.
// Thread-safe: acquires read lock.
func (s *Store) MatterByID(id string) (Matter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, ref, title, client_name, status, opened_at, cached_at
		FROM matters
		WHERE id = ?
	`, id)

	var m Matter
	err := row.Scan(&m.ID, &m.Ref, &m.Title, &m.ClientName, &m.Status, &m.OpenedAt, &m.CachedAt)
	if err != nil {
		return Matter{}, err
	}
	return m, nil
}

// queryMatters is a helper that executes a query and scans results into Matters.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) queryMatters(query string, args ...any) ([]Matter, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matters []Matter
	for rows.Next() {
		var m Matter
		err := rows.Scan(
			&m.ID,
			&m.Ref,
			&m.Title,
			&m.ClientName,
			&m.Status,
			&m.OpenedAt,
			&m.CachedAt,
		)
		if err != nil {
			return nil, err
		}
		matters = append(matters, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return matters, nil
}
