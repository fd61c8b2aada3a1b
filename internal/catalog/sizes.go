package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a width/height preset.
type Size struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Value renders the size in the "W,H" form used by forms and flags.
func (s Size) Value() string {
	return fmt.Sprintf("%d,%d", s.Width, s.Height)
}

// Count is an image count preset for normal mode.
type Count struct {
	Value    int    `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

var sizes = []Size{
	{256, 256, "256×256 (Tiny Square)", false},
	{512, 512, "512×512 (Small Square)", false},
	{768, 768, "768×768 (Medium Square)", false},
	{1024, 1024, "1024×1024 (Large Square)", true},
	{1536, 1536, "1536×1536 (XL Square)", false},
	{2048, 2048, "2048×2048 (XXL Square)", false},
	{480, 640, "480×640 (3:4 Portrait)", false},
	{640, 960, "640×960 (2:3 Portrait)", false},
	{768, 1024, "768×1024 (3:4 Portrait)", false},
	{1024, 1536, "1024×1536 (2:3 Portrait)", false},
	{640, 480, "640×480 (4:3 Landscape)", false},
	{960, 640, "960×640 (3:2 Landscape)", false},
	{1024, 768, "1024×768 (4:3 Landscape)", false},
	{1536, 1024, "1536×1024 (3:2 Landscape)", false},
	{1296, 972, "1296×972 (4:3 Standard)", false},
	{1728, 972, "1728×972 (16:9 HD)", false},
	{1920, 1080, "1920×1080 (Full HD 16:9)", false},
	{2560, 1440, "2560×1440 (QHD 16:9)", false},
	{3840, 2160, "3840×2160 (4K UHD 16:9)", false},
	{1080, 1920, "1080×1920 (Mobile Portrait 9:16)", false},
	{1440, 2560, "1440×2560 (Mobile Portrait QHD)", false},
	{1200, 630, "1200×630 (Social Media)", false},
	{1080, 1080, "1080×1080 (Instagram Square)", false},
	{1080, 1350, "1080×1350 (Instagram Portrait)", false},
}

var counts = []Count{
	{2, "2 images", false},
	{4, "4 images", true},
	{10, "10 images", false},
	{25, "25 images", false},
	{50, "50 images", false},
	{100, "100 images", false},
	{200, "200 images", false},
}

func Sizes() []Size {
	out := make([]Size, len(sizes))
	copy(out, sizes)
	return out
}

func Counts() []Count {
	out := make([]Count, len(counts))
	copy(out, counts)
	return out
}

// DefaultSize is the preselected size preset.
func DefaultSize() Size {
	for _, s := range sizes {
		if s.Selected {
			return s
		}
	}
	return sizes[0]
}

// DefaultCount is the preselected image count.
func DefaultCount() int {
	for _, c := range counts {
		if c.Selected {
			return c.Value
		}
	}
	return counts[0].Value
}

// ParseSize parses "W,H" (or "WxH"). Any positive dimensions are accepted,
// not just the presets.
func ParseSize(v string) (int, int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		d := DefaultSize()
		return d.Width, d.Height, nil
	}
	sep := ","
	if !strings.Contains(v, sep) {
		sep = "x"
	}
	parts := strings.Split(strings.ToLower(v), sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("catalog: invalid size %q", v)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("catalog: invalid width in %q", v)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("catalog: invalid height in %q", v)
	}
	return w, h, nil
}
