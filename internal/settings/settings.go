// Package settings loads and saves the studio preferences.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"pigment/internal/domain"
)

type Service struct {
	repo   domain.SettingsRepository
	logger *zerolog.Logger
}

func NewService(repo domain.SettingsRepository, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{repo: repo, logger: logger}
}

// Current returns the saved settings merged over the defaults. Missing,
// unreadable or corrupt storage yields the defaults.
func (s *Service) Current(ctx context.Context) domain.Settings {
	defaults := domain.DefaultSettings()
	raw, err := s.repo.LoadSettings(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("settings unavailable, using defaults")
		}
		return defaults
	}
	merged, err := defaults.ApplyJSON(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stored settings are corrupt, using defaults")
		return defaults
	}
	if err := merged.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("stored settings are invalid, using defaults")
		return defaults
	}
	return merged
}

// Update applies a partial JSON document over the current settings and
// saves the result.
func (s *Service) Update(ctx context.Context, patch []byte) (domain.Settings, error) {
	next, err := s.Current(ctx).ApplyJSON(patch)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := next.Validate(); err != nil {
		return domain.Settings{}, err
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.repo.SaveSettings(ctx, raw); err != nil {
		return domain.Settings{}, fmt.Errorf("settings: save: %w", err)
	}
	return next, nil
}

// Reset discards saved settings and returns the defaults.
func (s *Service) Reset(ctx context.Context) (domain.Settings, error) {
	if err := s.repo.DeleteSettings(ctx); err != nil {
		return domain.Settings{}, fmt.Errorf("settings: reset: %w", err)
	}
	return domain.DefaultSettings(), nil
}
