package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnicodeRange(t *testing.T) {
	tests := []struct {
		in         string
		start, end rune
		ok         bool
	}{
		{"U+0041", 0x41, 0x41, true},
		{"u+0000-00FF", 0x00, 0xFF, true},
		{"U+4??", 0x400, 0x4FF, true},
		{"U+1F600-1F64F", 0x1F600, 0x1F64F, true},
		{"U+00FF-0000", 0, 0, false},
		{"U+110000", 0, 0, false},
		{"0041", 0, 0, false},
		{"U+XYZ", 0, 0, false},
	}
	for _, tt := range tests {
		r, err := ParseUnicodeRange(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, UnicodeRange{Start: tt.start, End: tt.end}, r, tt.in)
	}

	r := UnicodeRange{Start: 0x41, End: 0x5A}
	assert.True(t, r.Contains('A'))
	assert.True(t, r.Contains('Z'))
	assert.False(t, r.Contains('a'))
	assert.Equal(t, "U+41-5A", r.String())
}

func TestFontWeightAndStyle(t *testing.T) {
	for in, want := range map[string]FontWeight{"normal": 400, "bold": 700, "100": 100, "900": 900, " 600 ": 600} {
		got, err := ParseFontWeight(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"50", "1000", "heavy"} {
		_, err := ParseFontWeight(in)
		assert.Error(t, err, in)
	}

	for in, want := range map[string]FontStyle{"normal": StyleNormal, "Italic": StyleItalic, "oblique": StyleOblique} {
		got, err := ParseFontStyle(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFontStyle("slanted")
	assert.Error(t, err)
}

func TestFontFormat(t *testing.T) {
	assert.Equal(t, FormatWOFF2, ParseFontFormat("woff2"))
	assert.Equal(t, FormatTrueType, ParseFontFormat("TTF"))
	assert.Equal(t, FormatEOT, ParseFontFormat("embedded-opentype"))
	assert.Equal(t, FormatUnknown, ParseFontFormat("bitmap"))

	assert.Equal(t, FormatOpenType, FontFormatFromExtension(".otf"))
	assert.Equal(t, FormatWOFF, FontFormatFromExtension("woff"))
	assert.Equal(t, FormatUnknown, FontFormatFromExtension("png"))
}

func parseFontFaces(t *testing.T, text string) *Stylesheet {
	t.Helper()
	sheet, err := NewParser(nil, nil).Parse(text, DefaultParseOptions())
	require.NoError(t, err)
	return sheet
}

func TestFontFaceRule(t *testing.T) {
	sheet := parseFontFaces(t, `
		@font-face {
			font-family: "Open Sans";
			src: local("Open Sans"), url("/fonts/open.woff2") format("woff2"), url(/fonts/open.ttf);
			font-weight: bold;
			font-style: italic;
			unicode-range: U+0000-00FF, U+0131;
			font-display: swap;
		}`)

	require.Len(t, sheet.FontFaces, 1)
	face := sheet.FontFaces[0]
	assert.Equal(t, "Open Sans", face.Family)
	assert.Equal(t, WeightBold, face.Weight)
	assert.Equal(t, StyleItalic, face.Style)
	assert.Equal(t, []FontSource{
		{Local: "Open Sans"},
		{URL: "/fonts/open.woff2", Format: FormatWOFF2},
		{URL: "/fonts/open.ttf"},
	}, face.Sources)
	assert.Equal(t, []UnicodeRange{{0, 0xFF}, {0x131, 0x131}}, face.UnicodeRanges)
	assert.Equal(t, "swap", face.Descriptors["font-display"])

	assert.True(t, face.Covers('a'))
	assert.False(t, face.Covers('Ω'))
	assert.True(t, face.Matches("open sans", WeightBold, StyleItalic))
	assert.False(t, face.Matches("open sans", WeightNormal, StyleItalic))
}

func TestFontFaceRuleDefaultsAndErrors(t *testing.T) {
	sheet := parseFontFaces(t, `
		@font-face { font-family: Plain; src: url(plain.otf); font-weight: 1200 }
		@font-face { src: url(orphan.ttf) }
		@font-face { font-family: Broken; src: bogus }
	`)
	require.Len(t, sheet.FontFaces, 1)
	face := sheet.FontFaces[0]
	assert.Equal(t, "Plain", face.Family)
	assert.Equal(t, WeightNormal, face.Weight, "invalid weight keeps the default")
	assert.Equal(t, StyleNormal, face.Style)
	assert.Len(t, sheet.Errors, 2)
}

func TestLoadedFont(t *testing.T) {
	f := NewLoadedFont(NewFontFace("X"))
	assert.False(t, f.IsLoaded())
	assert.Error(t, f.LoadFromBytes([]byte("not a font")))
	assert.False(t, f.IsLoaded())
	require.NoError(t, f.LoadFromBytes([]byte("wOF2....")))
	assert.True(t, f.IsLoaded())
}
