// Package kontext transforms an uploaded image with the kontext model.
package kontext

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"pigment/internal/generation"
	"pigment/internal/providers/hosting"
)

const Model = "kontext"

// Uploader publishes the source image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, img hosting.Image) (string, error)
}

type Options struct {
	BaseURL  string
	Fetcher  generation.ImageFetcher
	Uploader Uploader
	Logger   *zerolog.Logger
}

type Transformer struct {
	baseURL  string
	fetcher  generation.ImageFetcher
	uploader Uploader
	logger   *zerolog.Logger
}

func New(opts Options) *Transformer {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = generation.DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Transformer{baseURL: base, fetcher: opts.Fetcher, uploader: opts.Uploader, logger: logger}
}

type Request struct {
	Prompt string
	Image  hosting.Image
}

type Result struct {
	Payload   *generation.Payload
	SourceURL string
	// Hosted is false when the upload failed and a data URL was sent instead.
	Hosted bool
}

// Error carries the user-facing message while unwrapping to the fetch error.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func (t *Transformer) Transform(ctx context.Context, req Request) (*Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, generation.ErrEmptyPrompt
	}
	if err := req.Image.Validate(); err != nil {
		return nil, err
	}

	source, hosted := t.publish(ctx, req.Image)
	payload, err := t.fetcher.Fetch(ctx, TransformURL(t.baseURL, prompt, source), 1)
	if err != nil {
		return nil, describe(err)
	}
	return &Result{Payload: payload, SourceURL: source, Hosted: hosted}, nil
}

// publish falls back to an inline data URL when no host accepts the image.
func (t *Transformer) publish(ctx context.Context, img hosting.Image) (string, bool) {
	if t.uploader != nil {
		link, err := t.uploader.Upload(ctx, img)
		if err == nil {
			return link, true
		}
		t.logger.Warn().Err(err).Msg("kontext upload failed, sending data url")
	}
	return DataURL(img), false
}

func TransformURL(base, prompt, imageURL string) string {
	return fmt.Sprintf("%s/prompt/%s?model=%s&image=%s", strings.TrimRight(base, "/"), url.PathEscape(prompt), Model, url.QueryEscape(imageURL))
}

func DataURL(img hosting.Image) string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func describe(err error) error {
	var fe *generation.FetchError
	switch {
	case errors.Is(err, generation.ErrCancelled):
		return &Error{Message: "Transformation was cancelled", Err: err}
	case errors.As(err, &fe) && fe.Kind == generation.KindRateLimited:
		return &Error{Message: "Rate limit exceeded. Please wait and try again.", Err: err}
	case errors.As(err, &fe) && fe.Kind == generation.KindAPI:
		return &Error{Message: fmt.Sprintf("Transformation failed (%d): %s", fe.Status, fe.Body), Err: err}
	case errors.As(err, &fe) && fe.Kind == generation.KindInvalidPayload:
		return &Error{Message: "API did not return a valid image", Err: err}
	}
	return &Error{Message: err.Error(), Err: err}
}
