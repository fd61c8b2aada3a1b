package handlers

import (
	"net/http"
	"strconv"
)

// Inspiration answers with a prompt suggestion. In strict mode only the AI
// provider is asked, and failures come back as 502 {"error": "..."} so the
// endpoint stays consumable by the inspire endpoint provider.
func (a *App) Inspiration(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strict, _ := strconv.ParseBool(q.Get("strict")); strict {
		prompt, err := a.Inspire.Generate(r.Context())
		if err != nil {
			a.Logger.Warn().Err(err).Str("provider", a.Inspire.ProviderName()).Msg("inspire provider failed")
			a.json(w, http.StatusBadGateway, map[string]string{"error": "Failed to generate prompt"})
			return
		}
		a.json(w, http.StatusOK, map[string]string{"prompt": prompt, "source": a.Inspire.ProviderName()})
		return
	}
	a.json(w, http.StatusOK, a.Inspire.Suggest(r.Context(), q.Get("current")))
}
