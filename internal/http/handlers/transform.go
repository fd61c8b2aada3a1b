package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"pigment/internal/generation"
	"pigment/internal/providers/hosting"
	"pigment/internal/providers/kontext"
)

const maxTransformForm = hosting.MaxImageBytes + 1<<20

const (
	msgInvalidImage = "Please select a valid image file (JPG, PNG, or WebP)"
	msgImageTooBig  = "File size must be less than 5MB for reliable upload"
)

// Transform runs image-to-image on a multipart upload ("image", "prompt")
// and answers with the resulting image bytes.
func (a *App) Transform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTransformForm)
	if err := r.ParseMultipartForm(maxTransformForm); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", msgImageTooBig)
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form with image and prompt required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, hosting.MaxImageBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read image")
		return
	}

	res, err := a.Transformer.Transform(r.Context(), kontext.Request{
		Prompt: r.FormValue("prompt"),
		Image: hosting.Image{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		},
	})
	var kerr *kontext.Error
	switch {
	case err == nil:
	case errors.Is(err, generation.ErrEmptyPrompt):
		a.error(w, http.StatusBadRequest, "invalid_request", "Please enter a transformation prompt")
		return
	case errors.Is(err, hosting.ErrUnsupportedType), errors.Is(err, hosting.ErrEmptyImage):
		a.error(w, http.StatusBadRequest, "invalid_image", msgInvalidImage)
		return
	case errors.Is(err, hosting.ErrTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", msgImageTooBig)
		return
	case errors.As(err, &kerr):
		a.error(w, http.StatusBadGateway, "transform_failed", kerr.Message)
		return
	default:
		a.Logger.Error().Err(err).Msg("transform failed")
		a.error(w, http.StatusInternalServerError, "internal", "transformation failed")
		return
	}

	w.Header().Set("Content-Type", res.Payload.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Payload.Data)))
	w.Header().Set("X-Source-Hosted", strconv.FormatBool(res.Hosted))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Payload.Data)
}
