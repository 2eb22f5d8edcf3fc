package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/library"
)

// SQLiteStore is the SQLite-backed bundle store.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema keeps every version of a bundle. The payload is the whole bundle
// encoded with msgpack.
const schema = `
CREATE TABLE IF NOT EXISTS bundles (
    key TEXT NOT NULL,
    version INTEGER NOT NULL,
    payload BLOB NOT NULL,
    is_current INTEGER DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (key, version)
);

CREATE INDEX IF NOT EXISTS idx_bundles_current ON bundles(key) WHERE is_current = 1;
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every new connection to ":memory:" is a fresh database.
	if isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Bundle CRUD
// =============================================================================

// UpsertBundle stores data as the new current version of its key.
func (s *SQLiteStore) UpsertBundle(data *library.Data) error {
	if data == nil || data.Key == "" {
		return fmt.Errorf("%w: bundle needs a key", errs.ErrMalformedInput)
	}
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode bundle %q: %w", data.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	version, createdAt := 1, now

	var current int
	err = tx.QueryRow(`
		SELECT version, created_at FROM bundles
		WHERE key = ? AND is_current = 1
	`, data.Key).Scan(&current, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		createdAt = now
	case err != nil:
		return err
	default:
		version = current + 1
		if _, err := tx.Exec(`UPDATE bundles SET is_current = 0 WHERE key = ? AND is_current = 1`, data.Key); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO bundles (key, version, payload, is_current, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
	`, data.Key, version, payload, createdAt, now)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetBundle retrieves the current version of a bundle. It returns nil, nil
// when the key is unknown.
func (s *SQLiteStore) GetBundle(key string) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT key, version, payload, is_current, created_at, updated_at
		FROM bundles WHERE key = ? AND is_current = 1
	`, key)
	return scanBundle(row)
}

// DeleteBundle removes every version of key.
func (s *SQLiteStore) DeleteBundle(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM bundles WHERE key = ?`, key)
	return err
}

// ListBundles returns the current version of every bundle, ordered by key.
func (s *SQLiteStore) ListBundles() ([]*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT key, version, payload, is_current, created_at, updated_at
		FROM bundles WHERE is_current = 1 ORDER BY key
	`)
	if err != nil {
		return nil, err
	}
	return scanBundles(rows)
}

func (s *SQLiteStore) CountBundles() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bundles WHERE is_current = 1`).Scan(&count)
	return count, err
}

// =============================================================================
// History
// =============================================================================

// GetBundleVersion retrieves a specific version of a bundle.
func (s *SQLiteStore) GetBundleVersion(key string, version int) (*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT key, version, payload, is_current, created_at, updated_at
		FROM bundles WHERE key = ? AND version = ?
	`, key, version)
	return scanBundle(row)
}

// ListBundleVersions returns all versions of a bundle, newest first.
func (s *SQLiteStore) ListBundleVersions(key string) ([]*Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT key, version, payload, is_current, created_at, updated_at
		FROM bundles WHERE key = ? ORDER BY version DESC
	`, key)
	if err != nil {
		return nil, err
	}
	return scanBundles(rows)
}

// =============================================================================
// Helpers
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanBundle(row scanner) (*Bundle, error) {
	var b Bundle
	var payload []byte
	var isCurrent int

	err := row.Scan(&b.Key, &b.Version, &payload, &isCurrent, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.IsCurrent = isCurrent != 0
	b.Data = library.NewData(b.Key)
	if err := msgpack.Unmarshal(payload, b.Data); err != nil {
		return nil, fmt.Errorf("decode bundle %q v%d: %w", b.Key, b.Version, err)
	}
	return &b, nil
}

func scanBundles(rows *sql.Rows) ([]*Bundle, error) {
	defer rows.Close()

	result := []*Bundle{}
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory")
}
