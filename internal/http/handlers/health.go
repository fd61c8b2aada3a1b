package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if a.Studio != nil {
		resp["generating"] = a.Studio.Status().Generating
	}
	if a.Inspire != nil {
		resp["inspire_provider"] = a.Inspire.ProviderName()
	}
	a.json(w, http.StatusOK, resp)
}
