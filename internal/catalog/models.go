package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultModel is selected when no model or an unknown model is requested.
const DefaultModel = "flux"

// Model describes a generation model offered by the image API.
type Model struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Default     bool   `json:"is_default,omitempty"`
	// Transparent reports whether the model honours the transparent flag.
	Transparent bool `json:"supports_transparency,omitempty"`
}

var models = buildModels([]Model{
	{Name: "gptimage", Description: "Premium model with advanced features like transparency.", Transparent: true},
	{Name: "flux", Description: "High-quality image generation.", Default: true},
	{Name: "turbo", Description: "A very fast image generation model."},
})

func buildModels(in []Model) []Model {
	c := cases.Title(language.Und)
	for i := range in {
		in[i].Label = c.String(in[i].Name)
	}
	return in
}

// Models returns the known models in display order.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// LookupModel finds a model by case-insensitive name.
func LookupModel(name string) (Model, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, m := range models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// ResolveModel maps a requested model name onto a known one, falling back to
// the default model.
func ResolveModel(name string) string {
	if m, ok := LookupModel(name); ok {
		return m.Name
	}
	return DefaultModel
}
