package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"pigment/internal/catalog"
	"pigment/internal/gallery"
	"pigment/internal/history"
	"pigment/internal/providers/inspire"
	"pigment/internal/providers/kontext"
	"pigment/internal/realtime"
	"pigment/internal/settings"
	"pigment/internal/studio"
)

const maxJSONBody = 1 << 20

// App holds the collaborators behind the HTTP API.
type App struct {
	Studio      *studio.Studio
	Gallery     *gallery.Gallery
	History     *history.Service
	Settings    *settings.Service
	Inspire     *inspire.Service
	Transformer *kontext.Transformer
	Hub         *realtime.Hub
	Catalog     *catalog.Styles
	Logger      zerolog.Logger
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (a *App) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
