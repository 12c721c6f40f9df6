package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Storage is a small persistent key/value table in a single SQLite file.
// It plays the role browser localStorage plays for a web console.
type Storage struct {
	db *sql.DB

	getStmt *sql.Stmt
	setStmt *sql.Stmt
}

// OpenStorage opens (or creates) the state file at path, applies schema
// migrations, and prepares common statements.
func OpenStorage(path string) (*Storage, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time keeps multi-key writes atomic without WAL games.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	// The file holds a bearer token.
	_ = os.Chmod(path, 0o600)
	return s, nil
}

// Close releases prepared statements and closes the DB.
func (s *Storage) Close() error {
	if s.getStmt != nil {
		s.getStmt.Close()
	}
	if s.setStmt != nil {
		s.setStmt.Close()
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

const upsertSQL = `INSERT INTO kv(key,value,updated_at) VALUES(?,?,CURRENT_TIMESTAMP)
    ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`

func (s *Storage) prepareStatements() error {
	var err error
	if s.getStmt, err = s.db.Prepare(`SELECT value FROM kv WHERE key=?`); err != nil {
		return err
	}
	if s.setStmt, err = s.db.Prepare(upsertSQL); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key/value helpers
// ---------------------------------------------------------------------------

// Get returns the value stored under key; ok is false when the key is unset.
func (s *Storage) Get(key string) (value string, ok bool, err error) {
	err = s.getStmt.QueryRow(key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key.
func (s *Storage) Set(key, value string) error {
	_, err := s.setStmt.Exec(key, value)
	return err
}

// Remove deletes each key; missing keys are ignored.
func (s *Storage) Remove(keys ...string) error {
	return s.Update(nil, keys)
}

// Update writes sets and removes deletes in one transaction.
func (s *Storage) Update(sets map[string]string, deletes []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for k, v := range sets {
		if _, err := tx.Exec(upsertSQL, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	for _, k := range deletes {
		if _, err := tx.Exec(`DELETE FROM kv WHERE key=?`, k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Keys lists every stored key in order.
func (s *Storage) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
