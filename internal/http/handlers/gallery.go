package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pigment/internal/gallery"
)

func (a *App) GalleryList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	favorites, _ := strconv.ParseBool(q.Get("favorites"))
	items := a.Gallery.List(gallery.Filter{
		Search:        q.Get("search"),
		Style:         q.Get("style"),
		AspectRatio:   q.Get("aspect"),
		FavoritesOnly: favorites,
	})
	a.json(w, http.StatusOK, map[string]any{
		"items":         items,
		"count":         len(items),
		"aspect_ratios": a.Gallery.AspectRatios(),
	})
}

// GalleryClear cancels any run and releases every artifact.
func (a *App) GalleryClear(w http.ResponseWriter, r *http.Request) {
	n := a.Studio.Clear()
	a.json(w, http.StatusOK, map[string]int{"released": n})
}

func (a *App) GalleryCompare(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	items, err := a.Gallery.Compare(ids)
	switch {
	case errors.Is(err, gallery.ErrCompareSelection):
		a.error(w, http.StatusBadRequest, "invalid_request", "select between 2 and 4 images to compare")
	case errors.Is(err, gallery.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case err != nil:
		a.error(w, http.StatusInternalServerError, "internal", "compare failed")
	default:
		a.json(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (a *App) GalleryDownload(w http.ResponseWriter, r *http.Request) {
	scope := gallery.Scope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = gallery.ScopeAll
	}
	if scope != gallery.ScopeAll && scope != gallery.ScopeFavorites {
		a.error(w, http.StatusBadRequest, "bad_request", "scope must be all or favorites")
		return
	}
	name, data, err := a.Gallery.Archive(scope)
	if errors.Is(err, gallery.ErrEmpty) {
		a.error(w, http.StatusNotFound, "empty", "no images to download")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("gallery archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) GalleryImage(w http.ResponseWriter, r *http.Request) {
	art, ok := a.Gallery.Get(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "image not found")
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(art.Data)
	}
}

func (a *App) GalleryFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fav, err := a.Gallery.ToggleFavorite(id)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "image not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"id": id, "favorite": fav})
}

func (a *App) GalleryDelete(w http.ResponseWriter, r *http.Request) {
	if !a.Gallery.Release(chi.URLParam(r, "id")) {
		a.error(w, http.StatusNotFound, "not_found", "image not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
