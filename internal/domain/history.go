package domain

import "time"

// DefaultHistoryLimit caps the prompt history.
const DefaultHistoryLimit = 20

// PromptEntry is one remembered prompt.
type PromptEntry struct {
	ID     string    `json:"id"`
	Prompt string    `json:"prompt"`
	UsedAt time.Time `json:"timestamp"`
}
