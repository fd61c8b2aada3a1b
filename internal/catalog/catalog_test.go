package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStylesKeepsDocumentOrder(t *testing.T) {
	s := DefaultStyles()
	require.Equal(t, 215, s.Len())

	names := s.Names()
	assert.Equal(t, []string{"Ukiyo-e", "Photorealism", "Hyperrealism", "Digital Art"}, names[:4])
	assert.Equal(t, "Smoke Firing", names[len(names)-1])

	suffix, ok := s.Lookup("Ukiyo-e")
	require.True(t, ok)
	assert.Contains(t, suffix, "Japanese woodblock print")
}

func TestStylesLookupUnknown(t *testing.T) {
	s := DefaultStyles()
	_, ok := s.Lookup("Not A Style")
	assert.False(t, ok)

	var empty *Styles
	_, ok = empty.Lookup("Ukiyo-e")
	assert.False(t, ok)
	assert.Empty(t, empty.Names())
}

func TestSortedNamesDoesNotReorderCatalog(t *testing.T) {
	s := DefaultStyles()
	sorted := s.SortedNames()
	assert.IsNonDecreasing(t, sorted)
	assert.Equal(t, "Ukiyo-e", s.Names()[0])
}

func TestParseStylesRejectsDuplicates(t *testing.T) {
	_, err := ParseStyles([]byte("styles:\n  - name: A\n    prompt: a\n  - name: A\n    prompt: b\n"))
	require.Error(t, err)

	_, err = ParseStyles([]byte("styles: []\n"))
	require.Error(t, err)
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gptimage", ResolveModel("GPTImage"))
	assert.Equal(t, "turbo", ResolveModel(" turbo "))
	assert.Equal(t, DefaultModel, ResolveModel(""))
	assert.Equal(t, DefaultModel, ResolveModel("dall-e"))

	m, ok := LookupModel("flux")
	require.True(t, ok)
	assert.True(t, m.Default)
	assert.Equal(t, "Flux", m.Label)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in     string
		w, h   int
		hasErr bool
	}{
		{"1024,1024", 1024, 1024, false},
		{"1920x1080", 1920, 1080, false},
		{" 480 , 640 ", 480, 640, false},
		{"", 1024, 1024, false},
		{"0,10", 0, 0, true},
		{"abc", 0, 0, true},
		{"1,2,3", 0, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			w, h, err := ParseSize(tc.in)
			if tc.hasErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.w, w)
			assert.Equal(t, tc.h, h)
		})
	}
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "1024,1024", DefaultSize().Value())
	assert.Equal(t, 4, DefaultCount())
}
