package generation

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigment/internal/catalog"
)

type mapStyles struct {
	names    []string
	suffixes map[string]string
}

func (m mapStyles) Lookup(name string) (string, bool) {
	s, ok := m.suffixes[name]
	return s, ok
}

func (m mapStyles) Names() []string { return m.names }

func testStyles() mapStyles {
	return mapStyles{
		names:    []string{"Zeta", "Alpha", "Mid"},
		suffixes: map[string]string{"Zeta": "z suffix", "Alpha": "a suffix", "Mid": "m suffix"},
	}
}

func TestBuildPrompt(t *testing.T) {
	styles := testStyles()
	assert.Equal(t, "a cat, a suffix", BuildPrompt(styles, "a cat", "Alpha"))
	assert.Equal(t, "a cat", BuildPrompt(styles, "a cat", ""))
	assert.Equal(t, "a cat", BuildPrompt(styles, "a cat", "Unknown"))
	assert.Equal(t, "a cat", BuildPrompt(nil, "a cat", "Alpha"))
}

func TestBuildPromptWithEmbeddedCatalog(t *testing.T) {
	styles := catalog.DefaultStyles()
	suffix, ok := styles.Lookup("Photorealism")
	require.True(t, ok)
	assert.Equal(t, "fox, "+suffix, BuildPrompt(styles, "fox", "Photorealism"))
}

func TestGenerateSeedRange(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 200; i++ {
		s := GenerateSeed()
		require.GreaterOrEqual(t, s, int64(0))
		require.LessOrEqual(t, s, MaxSeed)
		seen[s] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestSeedFromMasksAndFallsBack(t *testing.T) {
	assert.Equal(t, MaxSeed, seedFrom(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff})))
	assert.Equal(t, int64(1), seedFrom(bytes.NewReader([]byte{0x01, 0x00, 0x00, 0x80})))

	s := seedFrom(failingReader{})
	assert.GreaterOrEqual(t, s, int64(0))
	assert.LessOrEqual(t, s, MaxSeed)
}

func sequenceSeeds(start int64) func() int64 {
	next := start
	return func() int64 {
		next++
		return next
	}
}

func TestBuildQueueBatchSharesSeed(t *testing.T) {
	b := NewQueueBuilder(testStyles(), sequenceSeeds(100))
	queue := b.Build(Params{BasePrompt: "  castle  ", Count: 99, Width: 512, Height: 768, Model: "turbo", NoLogo: true}, true)

	require.Len(t, queue, 3)
	for i, name := range []string{"Zeta", "Alpha", "Mid"} {
		assert.Equal(t, name, queue[i].Style)
		assert.Equal(t, int64(101), queue[i].Seed)
		assert.Equal(t, "turbo", queue[i].Model)
		assert.True(t, queue[i].NoLogo)
	}
	assert.Equal(t, "castle, z suffix", queue[0].Prompt)
}

func TestBuildQueueNormalIndependentSeeds(t *testing.T) {
	b := NewQueueBuilder(testStyles(), sequenceSeeds(0))
	queue := b.Build(Params{BasePrompt: "castle", Count: 4, Width: 1024, Height: 1024, Model: "nope", Style: "Mid"}, false)

	require.Len(t, queue, 4)
	seeds := map[int64]bool{}
	for _, task := range queue {
		assert.Equal(t, "castle, m suffix", task.Prompt)
		assert.Equal(t, catalog.DefaultModel, task.Model)
		seeds[task.Seed] = true
	}
	assert.Len(t, seeds, 4)
}

func TestBuildQueueFixedSeed(t *testing.T) {
	seed := int64(42)
	b := NewQueueBuilder(testStyles(), sequenceSeeds(0))
	queue := b.Build(Params{BasePrompt: "castle", Count: 2, Width: 64, Height: 64, Seed: &seed}, false)
	require.Len(t, queue, 2)
	assert.Equal(t, int64(42), queue[0].Seed)
	assert.Equal(t, int64(42), queue[1].Seed)
}

func TestParamsValidate(t *testing.T) {
	bad := int64(-1)
	tests := []struct {
		name  string
		p     Params
		batch bool
		want  error
	}{
		{"ok", Params{BasePrompt: "x", Count: 1, Width: 1, Height: 1}, false, nil},
		{"blank prompt", Params{BasePrompt: "   ", Count: 1, Width: 1, Height: 1}, false, ErrEmptyPrompt},
		{"zero count", Params{BasePrompt: "x", Width: 1, Height: 1}, false, ErrInvalidCount},
		{"zero count batch", Params{BasePrompt: "x", Width: 1, Height: 1}, true, nil},
		{"bad size", Params{BasePrompt: "x", Count: 1, Height: 1}, false, ErrInvalidSize},
		{"bad seed", Params{BasePrompt: "x", Count: 1, Width: 1, Height: 1, Seed: &bad}, false, ErrInvalidSeed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate(tc.batch)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestImageURL(t *testing.T) {
	task := Task{Prompt: "a cat/dog & more", Model: "flux", Width: 640, Height: 480, Seed: 7, NoLogo: true, Enhance: true}
	now := time.UnixMilli(1700000000123)
	raw := ImageURL("https://img.example.com/", task, now)

	require.True(t, strings.HasPrefix(raw, "https://img.example.com/prompt/a%20cat%2Fdog%20&%20more?"))
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "640", q.Get("width"))
	assert.Equal(t, "480", q.Get("height"))
	assert.Equal(t, "7", q.Get("seed"))
	assert.Equal(t, "flux", q.Get("model"))
	assert.Equal(t, "true", q.Get("nologo"))
	assert.Equal(t, "true", q.Get("enhance"))
	assert.False(t, q.Has("private"))
	assert.False(t, q.Has("transparent"))
	assert.Equal(t, "1700000000123", q.Get("_"))
}
