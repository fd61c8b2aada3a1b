package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"pigment/internal/bootstrap"
	"pigment/internal/catalog"
	"pigment/internal/gallery"
	"pigment/internal/generation"
	"pigment/internal/history"
	"pigment/internal/http/handlers"
	httpapi "pigment/internal/http/httpapi"
	"pigment/internal/http/static"
	"pigment/internal/infra"
	"pigment/internal/infra/geoip"
	"pigment/internal/middleware"
	"pigment/internal/providers/hosting"
	"pigment/internal/providers/inspire"
	"pigment/internal/providers/kontext"
	"pigment/internal/realtime"
	"pigment/internal/settings"
	"pigment/internal/storage"
	"pigment/internal/studio"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) error {
	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().Str("backend", store.Backend).Msg("persistence ready")

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		return err
	}

	styles := catalog.DefaultStyles()
	fetcher := generation.NewFetcher(generation.FetcherOptions{
		HTTPClient: &http.Client{Timeout: cfg.ImageTimeout},
		RetryDelay: cfg.RetryDelay,
		Logger:     &logger,
	})
	orch := generation.NewOrchestrator(generation.OrchestratorOptions{
		BaseURL:      cfg.ImageAPIBaseURL,
		Fetcher:      fetcher,
		MaxAttempts:  cfg.MaxAttempts,
		RequestDelay: cfg.RequestDelay,
		Logger:       &logger,
	})
	gal := gallery.New(gallery.Options{TTL: cfg.GalleryTTL, Logger: &logger})
	hist := history.NewService(store.History, history.Options{Limit: cfg.HistoryLimit, Logger: &logger})
	prefs := settings.NewService(store.Settings, &logger)
	hub := realtime.NewHub(logger)
	defer hub.Close()

	st := studio.New(studio.Options{
		Orchestrator: orch,
		Queue:        generation.NewQueueBuilder(styles, nil),
		Gallery:      gal,
		History:      hist,
		Settings:     prefs,
		Store:        files,
		Events:       hub,
		Logger:       &logger,
	})
	defer st.Close()

	provider, err := bootstrap.InspireProvider(ctx, cfg, nil)
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.InspireProvider).Msg("inspire provider unavailable, using local prompts")
	}
	inspiration := inspire.NewService(inspire.Options{Provider: provider, Logger: &logger})

	transformer := kontext.New(kontext.Options{
		BaseURL:  cfg.ImageAPIBaseURL,
		Fetcher:  fetcher,
		Uploader: hosting.DefaultChain(cfg.ImgBBAPIKey, nil, &logger),
		Logger:   &logger,
	})

	var site http.Handler
	if h, err := static.New(cfg.StaticRoot, logger); err != nil {
		logger.Warn().Err(err).Str("static_root", cfg.StaticRoot).Msg("static assets disabled")
	} else {
		defer h.Close()
		site = h
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	app := &handlers.App{
		Studio:      st,
		Gallery:     gal,
		History:     hist,
		Settings:    prefs,
		Inspire:     inspiration,
		Transformer: transformer,
		Hub:         hub,
		Catalog:     styles,
		Logger:      logger,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   lookup,
		Static:          site,
		Logger:          logger,
	})

	logger.Info().
		Str("inspire", inspiration.ProviderName()).
		Int("styles", styles.Len()).
		Str("static_root", cfg.StaticRoot).
		Msg("pigment studio ready")
	return infra.NewHTTPServer(cfg, router, logger).Run(ctx)
}
