package repo

import (
	"context"

	"pigment/internal/domain"
	"pigment/internal/infra"
	"pigment/internal/sqlinline"
)

// PromptHistoryRepositoryPG implements domain.HistoryRepository.
type PromptHistoryRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPromptHistoryRepository creates a prompt history repository backed by PostgreSQL.
func NewPromptHistoryRepository(sql infra.SQLExecutor) *PromptHistoryRepositoryPG {
	return &PromptHistoryRepositoryPG{sql: sql}
}

// ListRecent returns up to limit prompts, newest first.
func (r *PromptHistoryRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.PromptEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPromptHistory, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.PromptEntry
	for rows.Next() {
		var e domain.PromptEntry
		if err := rows.Scan(&e.ID, &e.Prompt, &e.UsedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// Touch upserts entry keyed by prompt text.
func (r *PromptHistoryRepositoryPG) Touch(ctx context.Context, entry domain.PromptEntry) error {
	_, err := r.sql.Exec(ctx, sqlinline.QTouchPromptHistory, entry.ID, entry.Prompt, entry.UsedAt)
	return err
}

// Trim deletes everything but the keep newest prompts.
func (r *PromptHistoryRepositoryPG) Trim(ctx context.Context, keep int) error {
	_, err := r.sql.Exec(ctx, sqlinline.QTrimPromptHistory, keep)
	return err
}

func (r *PromptHistoryRepositoryPG) Clear(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QClearPromptHistory)
	return err
}

var _ domain.HistoryRepository = (*PromptHistoryRepositoryPG)(nil)
