package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var stylesYAML []byte

// Style is a named prompt suffix appended to the user's prompt.
type Style struct {
	Name   string `yaml:"name" json:"name"`
	Prompt string `yaml:"prompt" json:"prompt"`
}

// Styles is an immutable, ordered style catalog. Names are unique.
type Styles struct {
	items []Style
	index map[string]int
}

type stylesFile struct {
	Styles []Style `yaml:"styles"`
}

// ParseStyles decodes a YAML style document. Entries keep document order.
func ParseStyles(data []byte) (*Styles, error) {
	var doc stylesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode styles: %w", err)
	}
	if len(doc.Styles) == 0 {
		return nil, errors.New("catalog: style list is empty")
	}
	s := &Styles{items: make([]Style, 0, len(doc.Styles)), index: make(map[string]int, len(doc.Styles))}
	for i, st := range doc.Styles {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: style %d has no name", i)
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("catalog: duplicate style %q", name)
		}
		s.index[name] = len(s.items)
		s.items = append(s.items, Style{Name: name, Prompt: strings.TrimSpace(st.Prompt)})
	}
	return s, nil
}

// DefaultStyles returns the embedded catalog. It panics on a malformed
// embedded file since that is a build defect.
func DefaultStyles() *Styles {
	s, err := ParseStyles(stylesYAML)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the prompt suffix for name.
func (s *Styles) Lookup(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.items[i].Prompt, true
}

// Names lists style names in catalog order.
func (s *Styles) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.items))
	for i, st := range s.items {
		out[i] = st.Name
	}
	return out
}

// SortedNames lists style names alphabetically, for pickers.
func (s *Styles) SortedNames() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// All returns a copy of every entry in catalog order.
func (s *Styles) All() []Style {
	if s == nil {
		return nil
	}
	out := make([]Style, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Styles) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}
