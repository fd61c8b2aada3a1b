package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPrompt   = errors.New("invalid prompt")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrProviderFailure = errors.New("provider failure")
)
