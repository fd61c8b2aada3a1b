// Package sqlite stores prompt history and settings in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pigment/internal/domain"
)

const settingsKey = "pigment_settings"

// Store implements domain.HistoryRepository and domain.SettingsRepository.
type Store struct {
	db *sql.DB
}

// New wraps db and creates the schema when missing.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS prompt_history (
			id TEXT PRIMARY KEY,
			prompt TEXT NOT NULL UNIQUE,
			used_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS prompt_history_used_at_idx ON prompt_history (used_at DESC);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]domain.PromptEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, used_at FROM prompt_history ORDER BY used_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.PromptEntry
	for rows.Next() {
		var e domain.PromptEntry
		var usedAt int64
		if err := rows.Scan(&e.ID, &e.Prompt, &usedAt); err != nil {
			return nil, err
		}
		e.UsedAt = time.UnixMilli(usedAt).UTC()
		items = append(items, e)
	}
	return items, rows.Err()
}

func (s *Store) Touch(ctx context.Context, entry domain.PromptEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompt_history (id, prompt, used_at) VALUES (?, ?, ?)
		ON CONFLICT(prompt) DO UPDATE SET id = excluded.id, used_at = excluded.used_at`,
		entry.ID, entry.Prompt, entry.UsedAt.UnixMilli())
	return err
}

func (s *Store) Trim(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM prompt_history WHERE id NOT IN (
			SELECT id FROM prompt_history ORDER BY used_at DESC, id DESC LIMIT ?
		)`, keep)
	return err
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM prompt_history`)
	return err
}

func (s *Store) LoadSettings(ctx context.Context) ([]byte, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (s *Store) SaveSettings(ctx context.Context, raw []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		settingsKey, string(raw))
	return err
}

func (s *Store) DeleteSettings(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, settingsKey)
	return err
}

var (
	_ domain.HistoryRepository  = (*Store)(nil)
	_ domain.SettingsRepository = (*Store)(nil)
)
