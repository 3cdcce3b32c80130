// Package persist stores the last-known lifecycle phase and program
// document across restarts, in a single-row sqlite table.
package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rungscan/internal/program"

	_ "modernc.org/sqlite"
)

// Store persists engine state to a sqlite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS engine_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	phase TEXT NOT NULL,
	program_json TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize engine_state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveState persists the current phase and program document, replacing
// whatever was saved before.
func (s *Store) SaveState(phase string, doc program.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal program document: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO engine_state (id, phase, program_json, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 phase = excluded.phase,
		 program_json = excluded.program_json,
		 updated_at = excluded.updated_at`,
		phase, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save engine state: %w", err)
	}
	return nil
}

// LoadState returns the last-saved phase and program document. ok is
// false if nothing has been saved yet.
func (s *Store) LoadState() (phase string, doc program.Document, ok bool, err error) {
	var payload string
	err = s.db.QueryRow(`SELECT phase, program_json FROM engine_state WHERE id = 1`).Scan(&phase, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", program.Document{}, false, nil
		}
		return "", program.Document{}, false, fmt.Errorf("query engine state: %w", err)
	}
	if payload != "" {
		if jerr := json.Unmarshal([]byte(payload), &doc); jerr != nil {
			return "", program.Document{}, false, fmt.Errorf("unmarshal program document: %w", jerr)
		}
	}
	return phase, doc, true, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}
