package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pigment/internal/domain"
	"pigment/internal/infra"
	"pigment/internal/sqlinline"
)

// SettingsKey names the single settings document.
const SettingsKey = "pigment_settings"

// SettingsRepositoryPG implements domain.SettingsRepository.
type SettingsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSettingsRepository creates a settings repository backed by PostgreSQL.
func NewSettingsRepository(sql infra.SQLExecutor) *SettingsRepositoryPG {
	return &SettingsRepositoryPG{sql: sql}
}

// LoadSettings returns the saved document or domain.ErrNotFound.
func (r *SettingsRepositoryPG) LoadSettings(ctx context.Context) ([]byte, error) {
	var raw string
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectSettings, SettingsKey).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return []byte(raw), nil
}

func (r *SettingsRepositoryPG) SaveSettings(ctx context.Context, raw []byte) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertSettings, SettingsKey, string(raw))
	return err
}

func (r *SettingsRepositoryPG) DeleteSettings(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QDeleteSettings, SettingsKey)
	return err
}

// EnsureSchema creates the tables used by the PostgreSQL repositories.
func EnsureSchema(ctx context.Context, sql infra.SQLExecutor) error {
	_, err := sql.Exec(ctx, sqlinline.QEnsureSchema)
	return err
}

var _ domain.SettingsRepository = (*SettingsRepositoryPG)(nil)
