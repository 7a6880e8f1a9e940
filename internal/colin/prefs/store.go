// Package prefs persists per-chat preferences (mode and level) so they
// survive restarts. Conversation history is deliberately not persisted.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/colinbot/colin/internal/colin/state"
)

// ErrNotFound is returned by Get when the chat has no stored preferences.
var ErrNotFound = errors.New("preferences not found")

// Prefs holds the persisted choices for one chat.
type Prefs struct {
	ChatID    string
	Mode      state.Mode
	Level     state.Level
	UpdatedAt time.Time
}

// Store wraps the preferences database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the preferences database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite is single-writer by design. Keep a single shared connection so
	// concurrent callers are serialized by database/sql instead of fighting
	// for write locks across multiple underlying connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_prefs (
			chat_id    TEXT PRIMARY KEY,
			mode       TEXT NOT NULL,
			level      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored preferences for chatID, or ErrNotFound.
func (s *Store) Get(chatID string) (Prefs, error) {
	var p Prefs
	var mode, level string
	err := s.db.QueryRow(
		"SELECT chat_id, mode, level, updated_at FROM chat_prefs WHERE chat_id = ?",
		chatID,
	).Scan(&p.ChatID, &mode, &level, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Prefs{}, ErrNotFound
	}
	if err != nil {
		return Prefs{}, fmt.Errorf("failed to read preferences: %w", err)
	}

	// Unknown values in the file fall back to the defaults rather than
	// poisoning the conversation store.
	var ok bool
	if p.Mode, ok = state.ParseMode(mode); !ok {
		p.Mode = state.ModeMixed
	}
	if p.Level, ok = state.ParseLevel(level); !ok {
		p.Level = state.LevelBeginner
	}
	return p, nil
}

// Set stores the preferences for chatID, replacing any previous row.
func (s *Store) Set(chatID string, m state.Mode, l state.Level) error {
	_, err := s.db.Exec(`
		INSERT INTO chat_prefs (chat_id, mode, level, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			mode = excluded.mode,
			level = excluded.level,
			updated_at = excluded.updated_at
	`, chatID, string(m), string(l), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
