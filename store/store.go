// Copyright © 2026 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: store/store.go
// Summary: SQLite-backed persistence for per-connector mode preferences.

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lumenwm/lumen/output"
)

const schema = `
CREATE TABLE IF NOT EXISTS output_modes (
    connector  TEXT PRIMARY KEY,
    width      INTEGER NOT NULL,
    height     INTEGER NOT NULL,
    refresh_hz INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Store persists runtime state across daemon restarts. It currently holds
// the last accepted mode per connector so a reconnected output comes back
// in the mode the user last ran it at.
type Store struct {
	db *sql.DB
}

// Open creates or opens the state database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Preferred returns the remembered mode for a connector, if any.
func (s *Store) Preferred(connector string) (output.Mode, bool) {
	var m output.Mode
	err := s.db.QueryRow(
		"SELECT width, height, refresh_hz FROM output_modes WHERE connector = ?",
		connector,
	).Scan(&m.Width, &m.Height, &m.RefreshHz)
	if err != nil {
		return output.Mode{}, false
	}
	m.Name = fmt.Sprintf("%dx%d", m.Width, m.Height)
	return m, true
}

// Remember stores the accepted mode for a connector, replacing any
// earlier entry.
func (s *Store) Remember(connector string, m output.Mode) error {
	_, err := s.db.Exec(
		`INSERT INTO output_modes (connector, width, height, refresh_hz, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(connector) DO UPDATE SET
		     width = excluded.width,
		     height = excluded.height,
		     refresh_hz = excluded.refresh_hz,
		     updated_at = excluded.updated_at`,
		connector, m.Width, m.Height, m.RefreshHz, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: remember %s: %w", connector, err)
	}
	return nil
}

// Forget drops the remembered mode for a connector.
func (s *Store) Forget(connector string) error {
	_, err := s.db.Exec("DELETE FROM output_modes WHERE connector = ?", connector)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ output.ModePreference = (*Store)(nil)
