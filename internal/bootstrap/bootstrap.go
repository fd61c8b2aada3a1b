// Package bootstrap builds the config-dependent collaborators shared by the
// server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"pigment/internal/adapter/memory"
	"pigment/internal/adapter/repo"
	"pigment/internal/adapter/sqlite"
	"pigment/internal/domain"
	"pigment/internal/infra"
	"pigment/internal/providers/inspire"
)

// Store is the persistence used for prompt history and settings.
type Store struct {
	History  domain.HistoryRepository
	Settings domain.SettingsRepository
	Backend  string
	close    func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore picks PostgreSQL when DATABASE_URL is set, SQLite when
// SQLITE_PATH is set, and process memory otherwise.
func OpenStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		if err := repo.EnsureSchema(ctx, runner); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return &Store{
			History:  repo.NewPromptHistoryRepository(runner),
			Settings: repo.NewSettingsRepository(runner),
			Backend:  "postgres",
			close:    pool.Close,
		}, nil
	case cfg.SQLitePath != "":
		db, err := infra.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		st, err := sqlite.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Store{
			History:  st,
			Settings: st,
			Backend:  "sqlite",
			close:    func() { _ = db.Close() },
		}, nil
	default:
		st := memory.NewStore()
		return &Store{History: st, Settings: st, Backend: "memory"}, nil
	}
}

// InspireProvider returns the AI provider named by INSPIRE_PROVIDER, or nil
// for "static", which serves the local list only.
func InspireProvider(ctx context.Context, cfg *infra.Config, client *http.Client) (inspire.Provider, error) {
	switch cfg.InspireProvider {
	case "pollinations":
		return asProvider(inspire.NewPollinations(inspire.PollinationsOptions{BaseURL: cfg.TextAPIBaseURL, HTTPClient: client}))
	case "openai":
		return asProvider(inspire.NewOpenAI(inspire.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: client,
		}))
	case "gemini":
		return asProvider(inspire.NewGemini(ctx, inspire.GeminiOptions{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}))
	case "endpoint":
		return asProvider(inspire.NewEndpoint(cfg.InspireEndpoint, client))
	case "static":
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported inspire provider %q", cfg.InspireProvider)
}

// asProvider keeps a failed constructor from yielding a non-nil interface
// around a nil pointer.
func asProvider[T inspire.Provider](p T, err error) (inspire.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
