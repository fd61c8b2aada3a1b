// Package hosting pushes a local image to public upload services so that
// remote APIs can fetch it by URL.
package hosting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	MaxImageBytes = 5 << 20

	defaultTimeout = 60 * time.Second
)

var (
	ErrUnsupportedType = errors.New("hosting: unsupported image type")
	ErrTooLarge        = errors.New("hosting: image exceeds 5 MiB")
	ErrEmptyImage      = errors.New("hosting: image is empty")
	ErrAllFailed       = errors.New("hosting: all services failed")
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

// Image is an upload candidate.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validate enforces the accepted formats and the size limit.
func (img Image) Validate() error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(img.ContentType, ";")[0]))
	if _, ok := allowedTypes[ct]; !ok {
		return ErrUnsupportedType
	}
	if len(img.Data) == 0 {
		return ErrEmptyImage
	}
	if len(img.Data) > MaxImageBytes {
		return ErrTooLarge
	}
	return nil
}

func (img Image) filename() string {
	if name := strings.TrimSpace(img.Filename); name != "" {
		return name
	}
	return "image.png"
}

type Uploader interface {
	Name() string
	Upload(ctx context.Context, img Image) (string, error)
}

// Chain tries each uploader in order and returns the first public URL.
type Chain struct {
	uploaders []Uploader
	logger    *zerolog.Logger
}

func NewChain(logger *zerolog.Logger, uploaders ...Uploader) *Chain {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Chain{uploaders: uploaders, logger: logger}
}

func (c *Chain) Upload(ctx context.Context, img Image) (string, error) {
	if err := img.Validate(); err != nil {
		return "", err
	}
	var lastErr error
	for _, u := range c.uploaders {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		url, err := u.Upload(ctx, img)
		if err == nil {
			c.logger.Info().Str("service", u.Name()).Int("bytes", len(img.Data)).Msg("image uploaded")
			return url, nil
		}
		c.logger.Warn().Err(err).Str("service", u.Name()).Msg("image upload failed")
		lastErr = err
	}
	if lastErr == nil {
		return "", ErrAllFailed
	}
	return "", fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}

type field struct {
	name, value string
}

// postMultipart sends fields plus the image under fileField and returns the
// body of a 2xx response.
func postMultipart(ctx context.Context, client *http.Client, endpoint, fileField string, img Image, fields ...field) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile(fileField, img.filename())
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(img.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultTimeout}
}
