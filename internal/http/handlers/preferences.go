package handlers

import (
	"errors"
	"io"
	"net/http"

	"pigment/internal/domain"
)

func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	items := a.History.Recent(r.Context())
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) HistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := a.History.Clear(r.Context()); err != nil {
		a.Logger.Error().Err(err).Msg("clear history failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) SettingsGet(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Settings.Current(r.Context()))
}

// SettingsUpdate merges the fields present in the body over the current
// settings.
func (a *App) SettingsUpdate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	next, err := a.Settings.Update(r.Context(), raw)
	if errors.Is(err, domain.ErrInvalidSettings) {
		a.error(w, http.StatusBadRequest, "invalid_settings", err.Error())
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("save settings failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save settings")
		return
	}
	a.json(w, http.StatusOK, next)
}

func (a *App) SettingsReset(w http.ResponseWriter, r *http.Request) {
	defaults, err := a.Settings.Reset(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("reset settings failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to reset settings")
		return
	}
	a.json(w, http.StatusOK, defaults)
}
