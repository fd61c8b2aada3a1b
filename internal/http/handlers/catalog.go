package handlers

import (
	"net/http"

	"pigment/internal/catalog"
)

func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	items := a.Catalog.All()
	a.json(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": catalog.Models(), "default": catalog.DefaultModel})
}

func (a *App) Sizes(w http.ResponseWriter, r *http.Request) {
	def := catalog.DefaultSize()
	a.json(w, http.StatusOK, map[string]any{"items": catalog.Sizes(), "default": def.Value()})
}

func (a *App) Counts(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": catalog.Counts(), "default": catalog.DefaultCount()})
}
