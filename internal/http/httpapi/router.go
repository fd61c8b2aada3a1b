package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"pigment/internal/http/handlers"
	"pigment/internal/middleware"
)

// Options configures the middleware stack around the API.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	// CountryLookup resolves client countries for the access log. Optional.
	CountryLookup middleware.CountryLookup
	// Static serves every path the API does not claim. Optional.
	Static http.Handler
	Logger zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Country(opts.CountryLookup),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Get("/styles", app.Styles)
		r.Get("/models", app.Models)
		r.Get("/sizes", app.Sizes)
		r.Get("/counts", app.Counts)
		r.Get("/inspire", app.Inspiration)

		r.Route("/generate", func(r chi.Router) {
			r.Post("/", app.Generate)
			r.Post("/cancel", app.CancelGenerate)
			r.Get("/status", app.GenerateStatus)
		})
		r.Get("/events", app.Events)
		r.Post("/slots/{id}/retry", app.RetrySlot)

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", app.GalleryList)
			r.Delete("/", app.GalleryClear)
			r.Get("/compare", app.GalleryCompare)
			r.Get("/download", app.GalleryDownload)
			r.Get("/{id}/image", app.GalleryImage)
			r.Post("/{id}/favorite", app.GalleryFavorite)
			r.Delete("/{id}", app.GalleryDelete)
		})

		r.Get("/history", app.HistoryList)
		r.Delete("/history", app.HistoryClear)

		r.Get("/settings", app.SettingsGet)
		r.Put("/settings", app.SettingsUpdate)
		r.Delete("/settings", app.SettingsReset)

		r.Post("/transform", app.Transform)
	})

	if opts.Static != nil {
		r.Handle("/*", opts.Static)
	}

	return r
}
