package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaQueryMatches(t *testing.T) {
	tests := []struct {
		query string
		w, h  float64
		media MediaType
		want  bool
	}{
		{"(min-width: 768px)", 800, 600, MediaScreen, true},
		{"(min-width: 768px)", 500, 600, MediaScreen, false},
		{"(max-width: 600px)", 600, 400, MediaScreen, true},
		{"(min-height: 500px)", 800, 400, MediaScreen, false},
		{"(max-height: 500px)", 800, 400, MediaScreen, true},
		{"screen", 100, 100, MediaScreen, true},
		{"print", 100, 100, MediaScreen, false},
		{"all", 100, 100, MediaPrint, true},
		{"not print", 100, 100, MediaScreen, true},
		{"not screen", 100, 100, MediaScreen, false},
		{"only screen and (min-width: 100px)", 200, 100, MediaScreen, true},
		{"screen and (min-width: 100px) and (max-width: 150px)", 200, 100, MediaScreen, false},
		{"not screen and (max-width: 150px)", 200, 100, MediaScreen, true},
		{"(orientation: landscape)", 800, 600, MediaScreen, true},
		{"(orientation: landscape)", 600, 800, MediaScreen, false},
		{"(orientation: portrait)", 600, 800, MediaScreen, true},
		{"(aspect-ratio: 4/3)", 800, 600, MediaScreen, true},
		{"(aspect-ratio: 16/9)", 800, 600, MediaScreen, false},
		{"(min-aspect-ratio: 1/1)", 800, 600, MediaScreen, true},
		{"(max-aspect-ratio: 1/1)", 800, 600, MediaScreen, false},
		{"(hover: hover)", 800, 600, MediaScreen, true},
		{"(prefers-color-scheme: dark)", 800, 600, MediaScreen, true},
		{"(max-width: 100px), (min-width: 700px)", 800, 600, MediaScreen, true},
		{"(min-width: 768)", 800, 600, MediaScreen, true},
	}

	for _, tt := range tests {
		list, err := ParseMediaQueryList(tt.query)
		require.NoError(t, err, tt.query)
		got := list.Matches(tt.w, tt.h, tt.media)
		assert.Equal(t, tt.want, got, "%q at %vx%v", tt.query, tt.w, tt.h)
	}
}

func TestParseMediaQueryErrors(t *testing.T) {
	tests := []string{
		"tv",
		"screen and",
		"(min-width)",
		"(min-width: 10em)",
		"(orientation: sideways)",
		"(aspect-ratio: wide)",
		"screen (min-width: 100px) (max-width: 200px)",
		"(min-width: 100px",
	}
	for _, q := range tests {
		_, err := ParseMediaQueryList(q)
		assert.Error(t, err, q)
	}
}

func TestParseMediaQueryStructure(t *testing.T) {
	q, err := ParseMediaQuery("only screen and (min-width: 768px)")
	require.NoError(t, err)
	assert.Equal(t, ModifierOnly, q.Modifier)
	assert.Equal(t, MediaScreen, q.Type)
	require.Len(t, q.Features, 1)
	assert.Equal(t, FeatureMinWidth, q.Features[0].Kind)
	assert.Equal(t, 768.0, q.Features[0].Px)
	assert.Equal(t, "only screen and (min-width: 768px)", q.String())
}

func TestEmptyMediaListMatches(t *testing.T) {
	list, err := ParseMediaQueryList("  ")
	require.NoError(t, err)
	assert.True(t, list.Matches(1, 1, MediaPrint))
}

func TestParseMediaType(t *testing.T) {
	for in, want := range map[string]MediaType{"ALL": MediaAll, "screen": MediaScreen, " print ": MediaPrint, "speech": MediaSpeech} {
		got, err := ParseMediaType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMediaType("tv")
	assert.Error(t, err)
}
