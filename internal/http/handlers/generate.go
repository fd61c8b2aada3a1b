package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pigment/internal/catalog"
	"pigment/internal/generation"
	"pigment/internal/studio"
)

type generateRequest struct {
	Prompt      string `json:"prompt"`
	Count       int    `json:"count"`
	Size        string `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Model       string `json:"model"`
	Style       string `json:"style"`
	Batch       bool   `json:"batch"`
	NoLogo      bool   `json:"nologo"`
	Private     bool   `json:"private"`
	Enhance     bool   `json:"enhance"`
	Transparent bool   `json:"transparent"`
	Seed        *int64 `json:"seed"`
}

// params fills omitted size and count from the catalog defaults. An explicit
// size string wins over width and height.
func (req generateRequest) params() (generation.Params, error) {
	p := generation.Params{
		BasePrompt:  req.Prompt,
		Count:       req.Count,
		Width:       req.Width,
		Height:      req.Height,
		Model:       req.Model,
		Style:       req.Style,
		NoLogo:      req.NoLogo,
		Private:     req.Private,
		Enhance:     req.Enhance,
		Transparent: req.Transparent,
		Seed:        req.Seed,
	}
	if req.Size != "" || (req.Width == 0 && req.Height == 0) {
		w, h, err := catalog.ParseSize(req.Size)
		if err != nil {
			return p, generation.ErrInvalidSize
		}
		p.Width, p.Height = w, h
	}
	if p.Count == 0 {
		p.Count = catalog.DefaultCount()
	}
	return p, nil
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := a.decode(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	params, err := req.params()
	if err == nil {
		var info studio.RunInfo
		info, err = a.Studio.Start(r.Context(), studio.StartRequest{Params: params, Batch: req.Batch})
		if err == nil {
			a.json(w, http.StatusAccepted, info)
			return
		}
	}
	switch {
	case errors.Is(err, generation.ErrRunActive):
		a.error(w, http.StatusConflict, "run_active", "a generation run is already in progress")
	case isValidation(err):
		a.error(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("start generation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
	}
}

func isValidation(err error) bool {
	return errors.Is(err, generation.ErrEmptyPrompt) ||
		errors.Is(err, generation.ErrInvalidCount) ||
		errors.Is(err, generation.ErrInvalidSize) ||
		errors.Is(err, generation.ErrInvalidSeed)
}

// CancelGenerate is a no-op when nothing is running.
func (a *App) CancelGenerate(w http.ResponseWriter, r *http.Request) {
	cancelled := a.Studio.Cancel()
	a.json(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func (a *App) GenerateStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Studio.Status())
}

func (a *App) RetrySlot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "slot id required")
		return
	}
	slot, err := a.Studio.Retry(id)
	if errors.Is(err, studio.ErrSlotNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "no retryable slot with that id")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "retry failed")
		return
	}
	a.json(w, http.StatusAccepted, slot)
}

// Events upgrades to the realtime websocket feed.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	a.Hub.ServeHTTP(w, r)
}
