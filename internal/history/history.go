// Package history keeps the most recently used prompts.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pigment/internal/domain"
)

// Options configures a Service.
type Options struct {
	Limit  int
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Service records prompts most-recent-first, deduplicated by exact text and
// capped at a fixed size. Reads are best-effort: storage failures yield an
// empty history rather than an error.
type Service struct {
	repo   domain.HistoryRepository
	limit  int
	now    func() time.Time
	logger *zerolog.Logger
}

func NewService(repo domain.HistoryRepository, opts Options) *Service {
	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{repo: repo, limit: limit, now: now, logger: logger}
}

// Record moves prompt to the front of the history.
func (s *Service) Record(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.ErrInvalidPrompt
	}
	entry := domain.PromptEntry{ID: uuid.NewString(), Prompt: prompt, UsedAt: s.now().UTC()}
	if err := s.repo.Touch(ctx, entry); err != nil {
		return fmt.Errorf("history: record prompt: %w", err)
	}
	if err := s.repo.Trim(ctx, s.limit); err != nil {
		return fmt.Errorf("history: trim: %w", err)
	}
	return nil
}

// RecordBestEffort records prompt and only logs failures.
func (s *Service) RecordBestEffort(ctx context.Context, prompt string) {
	if err := s.Record(ctx, prompt); err != nil {
		s.logger.Warn().Err(err).Msg("prompt history unavailable")
	}
}

// Recent lists the history, newest first.
func (s *Service) Recent(ctx context.Context) []domain.PromptEntry {
	items, err := s.repo.ListRecent(ctx, s.limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("prompt history unavailable")
		return []domain.PromptEntry{}
	}
	if items == nil {
		items = []domain.PromptEntry{}
	}
	return items
}

func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}
