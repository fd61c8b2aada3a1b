package domain

import (
	"encoding/json"
	"fmt"
)

type GridSize string

const (
	GridSmall  GridSize = "small"
	GridMedium GridSize = "medium"
	GridLarge  GridSize = "large"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Settings are the user's studio preferences.
type Settings struct {
	AutoSaveImages          bool     `json:"autoSaveImages"`
	ShowImageInfo           bool     `json:"showImageInfo"`
	GridSize                GridSize `json:"gridSize"`
	Theme                   Theme    `json:"theme"`
	AutoDownloadFavorites   bool     `json:"autoDownloadFavorites"`
	ShowGenerationTime      bool     `json:"showGenerationTime"`
	EnableKeyboardShortcuts bool     `json:"enableKeyboardShortcuts"`
}

func DefaultSettings() Settings {
	return Settings{
		AutoSaveImages:          true,
		ShowImageInfo:           true,
		GridSize:                GridMedium,
		Theme:                   ThemeDark,
		AutoDownloadFavorites:   false,
		ShowGenerationTime:      true,
		EnableKeyboardShortcuts: true,
	}
}

// Validate rejects unknown enum values.
func (s Settings) Validate() error {
	switch s.GridSize {
	case GridSmall, GridMedium, GridLarge:
	default:
		return fmt.Errorf("%w: grid size %q", ErrInvalidSettings, s.GridSize)
	}
	switch s.Theme {
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("%w: theme %q", ErrInvalidSettings, s.Theme)
	}
	return nil
}

// ApplyJSON overlays the fields present in raw onto s. Fields absent from raw
// keep their current value; unknown keys are ignored.
func (s Settings) ApplyJSON(raw []byte) (Settings, error) {
	out := s
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return out, nil
}
