// Package memory provides process-local repositories used when no database
// is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"pigment/internal/domain"
)

// Store implements domain.HistoryRepository and domain.SettingsRepository.
type Store struct {
	mu       sync.Mutex
	history  []domain.PromptEntry
	settings []byte
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]domain.PromptEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PromptEntry, len(s.history))
	copy(out, s.history)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Touch(ctx context.Context, entry domain.PromptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.history {
		if e.Prompt == entry.Prompt {
			s.history = append(s.history[:i], s.history[i+1:]...)
			break
		}
	}
	s.history = append(s.history, entry)
	sort.SliceStable(s.history, func(i, j int) bool {
		return s.history[i].UsedAt.After(s.history[j].UsedAt)
	})
	return nil
}

func (s *Store) Trim(ctx context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep >= 0 && len(s.history) > keep {
		s.history = s.history[:keep]
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) LoadSettings(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(s.settings))
	copy(out, s.settings)
	return out, nil
}

func (s *Store) SaveSettings(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = append([]byte(nil), raw...)
	return nil
}

func (s *Store) DeleteSettings(ctx context.Context) error {
	s.mu.Lock()
	s.settings = nil
	s.mu.Unlock()
	return nil
}

var (
	_ domain.HistoryRepository  = (*Store)(nil)
	_ domain.SettingsRepository = (*Store)(nil)
)
