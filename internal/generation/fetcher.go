package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxAttempts bounds the attempts of a single fetch.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the constant pause between attempts.
	DefaultRetryDelay = 950 * time.Millisecond

	defaultFetchTimeout = 120 * time.Second
	maxErrorBody        = 2 << 10
	maxPayloadBytes     = 64 << 20
)

// Payload is a successfully fetched image.
type Payload struct {
	Data        []byte
	ContentType string
	Attempts    int
}

// ImageFetcher retrieves an image payload from a URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string, maxAttempts int) (*Payload, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	HTTPClient *http.Client
	RetryDelay time.Duration
	Sleep      SleepFunc
	Logger     *zerolog.Logger
}

// Fetcher performs bounded, cancellable GET requests against the image API.
type Fetcher struct {
	client     *http.Client
	retryDelay time.Duration
	sleep      SleepFunc
	logger     *zerolog.Logger
}

// NewFetcher builds a Fetcher with defaults for unset options.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Fetcher{client: client, retryDelay: delay, sleep: sleep, logger: logger}
}

// Fetch requests url until it yields an image, the attempts run out or ctx
// is cancelled. Every failure is retried after a constant delay.
func (f *Fetcher) Fetch(ctx context.Context, url string, maxAttempts int) (*Payload, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		payload, err := f.attempt(ctx, url)
		if err == nil {
			payload.Attempts = attempt
			return payload, nil
		}
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.Attempts = attempt
		}
		lastErr = err
		f.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("image fetch failed")
		if attempt == maxAttempts {
			break
		}
		if err := f.sleep(ctx, f.retryDelay); err != nil {
			return nil, ErrCancelled
		}
	}
	return nil, lastErr
}

func (f *Fetcher) attempt(ctx context.Context, url string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("generation: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &FetchError{Kind: KindRateLimited, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{Kind: KindAPI, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image") {
		return nil, &FetchError{Kind: KindInvalidPayload, Status: resp.StatusCode, ContentType: contentType}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}
	if len(data) == 0 {
		return nil, &FetchError{Kind: KindInvalidPayload, Status: resp.StatusCode, ContentType: contentType}
	}
	return &Payload{Data: data, ContentType: contentType}, nil
}

// Sleep waits for d unless ctx finishes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ImageFetcher = (*Fetcher)(nil)
