// Package inspire suggests prompts, asking an AI text provider first and
// falling back to the built-in list.
package inspire

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	SourceLocal = "local"

	fallbackPrompt = "A beautiful landscape at sunset"
	maxPromptRunes = 400

	instruction = "Write one vivid, imaginative prompt for an AI image generator. " +
		"Describe a single scene in one sentence of at most 25 words. " +
		"Reply with the prompt only, no quotes, no preamble."
)

var ErrEmptyPrompt = errors.New("inspire: provider returned an empty prompt")

// Provider produces one raw prompt suggestion.
type Provider interface {
	Name() string
	Prompt(ctx context.Context) (string, error)
}

// Suggestion is what the studio hands back to the user.
type Suggestion struct {
	Prompt         string `json:"prompt"`
	Source         string `json:"source"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// Local picks from a fixed list, avoiding an excluded prompt when it can.
type Local struct {
	prompts []string
	intn    func(n int) int
}

func NewLocal(prompts []string) *Local {
	return &Local{prompts: prompts, intn: rand.IntN}
}

func (l *Local) Pick(exclude string) string {
	switch len(l.prompts) {
	case 0:
		return fallbackPrompt
	case 1:
		return l.prompts[0]
	}
	available := l.prompts
	if exclude != "" {
		available = make([]string, 0, len(l.prompts))
		for _, p := range l.prompts {
			if p != exclude {
				available = append(available, p)
			}
		}
		if len(available) == 0 {
			available = l.prompts
		}
	}
	return available[l.intn(len(available))]
}

type Options struct {
	Provider   Provider
	Local      *Local
	Logger     *zerolog.Logger
	OnFallback func(reason string, err error)
}

type Service struct {
	provider   Provider
	local      *Local
	logger     *zerolog.Logger
	onFallback func(reason string, err error)
}

func NewService(opts Options) *Service {
	local := opts.Local
	if local == nil {
		local = NewLocal(LocalPrompts)
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{provider: opts.Provider, local: local, logger: logger, onFallback: opts.OnFallback}
}

// ProviderName reports the configured AI provider, or "local".
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return SourceLocal
	}
	return s.provider.Name()
}

// Suggest never fails: provider errors degrade to the local list. A provider
// answer equal to current is swapped for a local prompt.
func (s *Service) Suggest(ctx context.Context, current string) Suggestion {
	current = strings.TrimSpace(current)
	if s.provider == nil {
		return Suggestion{Prompt: s.local.Pick(current), Source: SourceLocal}
	}
	prompt, err := s.Generate(ctx)
	if err != nil {
		reason := "provider_error"
		if errors.Is(err, ErrEmptyPrompt) {
			reason = "empty_prompt"
		}
		return s.fallback(current, reason, err)
	}
	if prompt == current {
		return s.fallback(current, "duplicate_prompt", nil)
	}
	return Suggestion{Prompt: prompt, Source: s.provider.Name()}
}

// Generate asks the provider only, without falling back.
func (s *Service) Generate(ctx context.Context) (string, error) {
	if s.provider == nil {
		return s.local.Pick(""), nil
	}
	raw, err := s.provider.Prompt(ctx)
	if err != nil {
		return "", err
	}
	prompt := cleanPrompt(raw)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	return prompt, nil
}

func (s *Service) fallback(current, reason string, err error) Suggestion {
	ev := s.logger.Warn().Str("provider", s.provider.Name()).Str("reason", reason)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("inspire fallback to local prompts")
	if s.onFallback != nil {
		s.onFallback(reason, err)
	}
	return Suggestion{Prompt: s.local.Pick(current), Source: SourceLocal, FallbackReason: reason}
}

// cleanPrompt keeps the first non-empty line, drops wrapping quotes and
// chatty prefixes, and caps the length.
func cleanPrompt(raw string) string {
	text := ""
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			text = line
			break
		}
	}
	for _, prefix := range []string{"Prompt:", "prompt:", "PROMPT:"} {
		text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
	}
	text = strings.Trim(text, "\"'`“”")
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxPromptRunes {
		text = string([]rune(text)[:maxPromptRunes])
	}
	return text
}
