// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache persists conversation summaries between runs so the sidebar
// renders immediately on startup. The remote list stays authoritative; the
// cache is overwritten on every successful refresh and never merged.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/morganforge/relay-tui/internal/model"
)

var ErrDatabaseError = errors.New("database error")

const schema = `
CREATE TABLE IF NOT EXISTS summaries (
	position INTEGER PRIMARY KEY,
	chat_id  TEXT NOT NULL,
	title    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// =============================================================================
// SUMMARY CACHE
// =============================================================================

// SummaryCache stores the sidebar list in a local SQLite database.
type SummaryCache struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*SummaryCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SummaryCache{db: db, path: path}, nil
}

// Close closes the cache database.
func (c *SummaryCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Load returns the cached summaries in display order. Draft rows are never
// cached, so every returned summary carries a real id.
func (c *SummaryCache) Load() ([]model.Summary, error) {
	rows, err := c.db.Query("SELECT chat_id, title FROM summaries ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var summaries []model.Summary
	for rows.Next() {
		var s model.Summary
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		if s.IsDraft() {
			continue
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Store replaces the cached list wholesale with the given summaries.
func (c *SummaryCache) Store(summaries []model.Summary) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM summaries"); err != nil {
		return fmt.Errorf("failed to clear summaries: %w", err)
	}

	for i, s := range summaries {
		if s.IsDraft() {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO summaries (position, chat_id, title) VALUES (?, ?, ?)",
			i, s.ID, s.Title,
		); err != nil {
			return fmt.Errorf("failed to insert summary: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
