package generation

import (
	"strings"

	"pigment/internal/catalog"
)

// Task is one fully resolved generation request.
type Task struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	Style       string `json:"style,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Seed        int64  `json:"seed"`
	NoLogo      bool   `json:"nologo"`
	Private     bool   `json:"private"`
	Enhance     bool   `json:"enhance"`
	Transparent bool   `json:"transparent"`
}

// Params are the user's selections for a run.
type Params struct {
	BasePrompt  string
	Count       int
	Width       int
	Height      int
	Model       string
	Style       string
	NoLogo      bool
	Private     bool
	Enhance     bool
	Transparent bool
	// Seed pins every task of the run to one seed when set.
	Seed *int64
}

// Validate checks the parameters for a run in the given mode.
func (p Params) Validate(batch bool) error {
	if strings.TrimSpace(p.BasePrompt) == "" {
		return ErrEmptyPrompt
	}
	if !batch && p.Count <= 0 {
		return ErrInvalidCount
	}
	if p.Width <= 0 || p.Height <= 0 {
		return ErrInvalidSize
	}
	if p.Seed != nil && (*p.Seed < 0 || *p.Seed > MaxSeed) {
		return ErrInvalidSeed
	}
	return nil
}

// StyleCatalog is the style source used when building queues.
type StyleCatalog interface {
	StyleLookup
	Names() []string
}

// QueueBuilder turns Params into an ordered task queue.
type QueueBuilder struct {
	styles StyleCatalog
	seeds  func() int64
}

// NewQueueBuilder creates a builder. A nil seeds func uses GenerateSeed.
func NewQueueBuilder(styles StyleCatalog, seeds func() int64) *QueueBuilder {
	if seeds == nil {
		seeds = GenerateSeed
	}
	return &QueueBuilder{styles: styles, seeds: seeds}
}

// Build returns the queue for params. In batch mode there is one task per
// catalog style, in catalog order, sharing a single seed. Otherwise there are
// params.Count tasks with the selected style, each with its own seed.
func (b *QueueBuilder) Build(params Params, batch bool) []Task {
	base := strings.TrimSpace(params.BasePrompt)
	template := Task{
		Model:       catalog.ResolveModel(params.Model),
		Width:       params.Width,
		Height:      params.Height,
		NoLogo:      params.NoLogo,
		Private:     params.Private,
		Enhance:     params.Enhance,
		Transparent: params.Transparent,
	}

	if batch {
		seed := b.nextSeed(params)
		names := b.styles.Names()
		queue := make([]Task, 0, len(names))
		for _, name := range names {
			t := template
			t.Style = name
			t.Prompt = BuildPrompt(b.styles, base, name)
			t.Seed = seed
			queue = append(queue, t)
		}
		return queue
	}

	prompt := BuildPrompt(b.styles, base, params.Style)
	queue := make([]Task, 0, max(params.Count, 0))
	for i := 0; i < params.Count; i++ {
		t := template
		t.Style = params.Style
		t.Prompt = prompt
		t.Seed = b.nextSeed(params)
		queue = append(queue, t)
	}
	return queue
}

func (b *QueueBuilder) nextSeed(params Params) int64 {
	if params.Seed != nil {
		return *params.Seed
	}
	return b.seeds()
}
