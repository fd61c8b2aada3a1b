package domain

import "context"

// HistoryRepository persists recently used prompts. Entries are unique by
// prompt text.
type HistoryRepository interface {
	ListRecent(ctx context.Context, limit int) ([]PromptEntry, error)
	// Touch inserts entry or, when the prompt already exists, moves it to the
	// front with the new id and timestamp.
	Touch(ctx context.Context, entry PromptEntry) error
	// Trim keeps only the keep most recent entries.
	Trim(ctx context.Context, keep int) error
	Clear(ctx context.Context) error
}

// SettingsRepository persists the settings document as raw JSON.
type SettingsRepository interface {
	// LoadSettings returns ErrNotFound when nothing was saved yet.
	LoadSettings(ctx context.Context) ([]byte, error)
	SaveSettings(ctx context.Context, raw []byte) error
	DeleteSettings(ctx context.Context) error
}
