// Package gallery tracks the images produced by generation runs until they
// are released, either explicitly or when their retention window lapses.
package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"pigment/internal/generation"
	"pigment/pkg/zip"
)

const (
	DefaultTTL = 2 * time.Hour

	MinCompare = 2
	MaxCompare = 4
)

var (
	ErrNotFound         = errors.New("gallery: artifact not found")
	ErrEmpty            = errors.New("gallery: nothing to download")
	ErrCompareSelection = fmt.Errorf("gallery: select between %d and %d images to compare", MinCompare, MaxCompare)
)

// Artifact is a generated image held by the gallery.
type Artifact struct {
	ID          string          `json:"id"`
	RunID       string          `json:"run_id"`
	SlotID      string          `json:"slot_id"`
	Index       int             `json:"index"`
	Attempt     int             `json:"attempt"`
	Task        generation.Task `json:"task"`
	ContentType string          `json:"content_type"`
	Bytes       int             `json:"bytes"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	AspectRatio string          `json:"aspect_ratio"`
	Favorite    bool            `json:"favorite"`
	CreatedAt   time.Time       `json:"created_at"`
	Data        []byte          `json:"-"`
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	Search        string
	Style         string
	AspectRatio   string
	FavoritesOnly bool
}

// Scope selects which artifacts go into a download.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeFavorites Scope = "favorites"
)

// Options configures a Gallery.
type Options struct {
	TTL    time.Duration
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Gallery is safe for concurrent use. Insertion order is preserved.
type Gallery struct {
	items  *cache.Cache
	now    func() time.Time
	logger *zerolog.Logger

	mu        sync.Mutex
	order     []string
	favorites map[string]struct{}
}

func New(opts Options) *Gallery {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cleanup := ttl / 4
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	g := &Gallery{
		items:     cache.New(ttl, cleanup),
		now:       now,
		logger:    logger,
		favorites: make(map[string]struct{}),
	}
	g.items.OnEvicted(g.evicted)
	return g
}

// Add registers the payload delivered for slot and returns the artifact.
func (g *Gallery) Add(slot generation.Slot, payload *generation.Payload) Artifact {
	a := &Artifact{
		ID:          uuid.NewString(),
		RunID:       slot.RunID,
		SlotID:      slot.ID,
		Index:       slot.Index,
		Attempt:     slot.Attempt,
		Task:        slot.Task,
		ContentType: payload.ContentType,
		Bytes:       len(payload.Data),
		Width:       slot.Task.Width,
		Height:      slot.Task.Height,
		CreatedAt:   g.now(),
		Data:        payload.Data,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(payload.Data)); err == nil {
		a.Width, a.Height = cfg.Width, cfg.Height
	}
	a.AspectRatio = AspectRatio(a.Width, a.Height)

	// order and items change together so Clear cannot land in between.
	// SetDefault never fires OnEvicted, so holding mu here is safe.
	g.mu.Lock()
	g.order = append(g.order, a.ID)
	g.items.SetDefault(a.ID, a)
	g.mu.Unlock()
	return *a
}

// Get returns the artifact with id.
func (g *Gallery) Get(id string) (Artifact, bool) {
	a, ok := g.lookup(id)
	if !ok {
		return Artifact{}, false
	}
	return g.snapshot(a), true
}

// List returns matching artifacts in insertion order.
func (g *Gallery) List(f Filter) []Artifact {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Artifact, 0)
	for _, id := range g.ids() {
		a, ok := g.lookup(id)
		if !ok {
			continue
		}
		snap := g.snapshot(a)
		if f.FavoritesOnly && !snap.Favorite {
			continue
		}
		if f.Style != "" && !strings.EqualFold(snap.Task.Style, f.Style) {
			continue
		}
		if f.AspectRatio != "" && snap.AspectRatio != f.AspectRatio {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(snap.Task.Prompt), search) &&
			!strings.Contains(strings.ToLower(snap.Task.Style), search) {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// AspectRatios lists the distinct aspect ratios currently held.
func (g *Gallery) AspectRatios() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range g.List(Filter{}) {
		if _, ok := seen[a.AspectRatio]; ok {
			continue
		}
		seen[a.AspectRatio] = struct{}{}
		out = append(out, a.AspectRatio)
	}
	return out
}

// Len reports the number of live artifacts.
func (g *Gallery) Len() int {
	return g.items.ItemCount()
}

// Release drops one artifact. It reports whether the artifact existed.
func (g *Gallery) Release(id string) bool {
	if _, ok := g.items.Get(id); !ok {
		return false
	}
	g.items.Delete(id)
	return true
}

// Clear releases every artifact and forgets all favorites. It returns the
// number of artifacts released and is safe to call repeatedly.
func (g *Gallery) Clear() int {
	g.mu.Lock()
	n := g.items.ItemCount()
	g.items.Flush()
	g.order = nil
	g.favorites = make(map[string]struct{})
	g.mu.Unlock()
	if n > 0 {
		g.logger.Info().Int("released", n).Msg("gallery cleared")
	}
	return n
}

// ToggleFavorite flips the favorite flag of id and returns the new value.
func (g *Gallery) ToggleFavorite(id string) (bool, error) {
	if _, ok := g.lookup(id); !ok {
		return false, ErrNotFound
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, fav := g.favorites[id]; fav {
		delete(g.favorites, id)
		return false, nil
	}
	g.favorites[id] = struct{}{}
	return true, nil
}

// Compare returns the selected artifacts in selection order.
func (g *Gallery) Compare(ids []string) ([]Artifact, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) < MinCompare || len(uniq) > MaxCompare {
		return nil, ErrCompareSelection
	}
	out := make([]Artifact, 0, len(uniq))
	for _, id := range uniq {
		a, ok := g.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		out = append(out, a)
	}
	return out, nil
}

// Archive packs the artifacts in scope into a ZIP. Entries are named
// image1, image2, ... in gallery order.
func (g *Gallery) Archive(scope Scope) (string, []byte, error) {
	filter := Filter{}
	name := "all-images.zip"
	if scope == ScopeFavorites {
		filter.FavoritesOnly = true
		name = "favorite-images.zip"
	}
	items := g.List(filter)
	if len(items) == 0 {
		return name, nil, ErrEmpty
	}
	assets := make([]zip.Asset, 0, len(items))
	for i, a := range items {
		assets = append(assets, zip.Asset{
			Filename: zip.NumberedName(i+1, a.ContentType),
			MIME:     a.ContentType,
			Data:     a.Data,
			Modified: a.CreatedAt,
		})
	}
	data, err := zip.ArchiveAssets(assets)
	if err != nil {
		return name, nil, fmt.Errorf("gallery: archive: %w", err)
	}
	return name, data, nil
}

func (g *Gallery) lookup(id string) (*Artifact, bool) {
	v, ok := g.items.Get(id)
	if !ok {
		return nil, false
	}
	a, ok := v.(*Artifact)
	return a, ok
}

func (g *Gallery) snapshot(a *Artifact) Artifact {
	out := *a
	g.mu.Lock()
	_, out.Favorite = g.favorites[a.ID]
	g.mu.Unlock()
	return out
}

func (g *Gallery) ids() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// evicted runs after go-cache has released its own lock.
func (g *Gallery) evicted(id string, _ interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.favorites, id)
	for i, v := range g.order {
		if v == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.logger.Debug().Str("artifact_id", id).Msg("artifact released")
}

// AspectRatio reduces width and height to a "W:H" ratio.
func AspectRatio(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	d := gcd(w, h)
	return fmt.Sprintf("%d:%d", w/d, h/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
