package generation

import (
	"errors"
	"fmt"
)

var (
	ErrCancelled      = errors.New("generation: cancelled")
	ErrRunActive      = errors.New("generation: a run is already in progress")
	ErrCritical       = errors.New("generation: critical error")
	ErrRateLimited    = errors.New("generation: rate limited")
	ErrAPI            = errors.New("generation: api error")
	ErrInvalidPayload = errors.New("generation: invalid payload")
	ErrNetwork        = errors.New("generation: network error")

	ErrEmptyPrompt  = errors.New("generation: prompt is required")
	ErrInvalidCount = errors.New("generation: count must be positive")
	ErrInvalidSize  = errors.New("generation: width and height must be positive")
	ErrInvalidSeed  = errors.New("generation: seed out of range")
)

// ErrorKind classifies a failed fetch attempt.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = "rate_limited"
	KindAPI            ErrorKind = "api_error"
	KindInvalidPayload ErrorKind = "invalid_payload"
	KindNetwork        ErrorKind = "network"
)

// FetchError describes a failed attempt against the image API.
type FetchError struct {
	Kind        ErrorKind
	Status      int
	Body        string
	ContentType string
	Attempts    int
	Err         error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return "Rate limit exceeded (HTTP 429): Too many requests. Please wait and try again."
	case KindAPI:
		if e.Body != "" {
			return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
		}
		return fmt.Sprintf("API error %d", e.Status)
	case KindInvalidPayload:
		if e.ContentType != "" {
			return fmt.Sprintf("API did not return a valid image (content type %q).", e.ContentType)
		}
		return "API did not return a valid image."
	case KindNetwork:
		if e.Err != nil {
			return "Network error: " + e.Err.Error()
		}
		return "Network error."
	}
	return "generation: fetch failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets callers match a FetchError against the kind sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrAPI:
		return e.Kind == KindAPI
	case ErrInvalidPayload:
		return e.Kind == KindInvalidPayload
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}
