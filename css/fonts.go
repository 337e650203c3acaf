package css

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	csslex "github.com/tdewolff/parse/v2/css"
)

// FontFormat is the format hint of a font source.
type FontFormat int

const (
	FormatUnknown FontFormat = iota
	FormatTrueType
	FormatOpenType
	FormatWOFF
	FormatWOFF2
	FormatEOT
	FormatSVG
)

func (f FontFormat) String() string {
	switch f {
	case FormatTrueType:
		return "truetype"
	case FormatOpenType:
		return "opentype"
	case FormatWOFF:
		return "woff"
	case FormatWOFF2:
		return "woff2"
	case FormatEOT:
		return "embedded-opentype"
	case FormatSVG:
		return "svg"
	}
	return ""
}

// ParseFontFormat maps a format() hint, including the short aliases.
func ParseFontFormat(s string) FontFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "truetype", "ttf":
		return FormatTrueType
	case "opentype", "otf":
		return FormatOpenType
	case "woff":
		return FormatWOFF
	case "woff2":
		return FormatWOFF2
	case "embedded-opentype", "eot":
		return FormatEOT
	case "svg":
		return FormatSVG
	}
	return FormatUnknown
}

// FontFormatFromExtension maps a file extension (without dot) to a format.
func FontFormatFromExtension(ext string) FontFormat {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "ttf":
		return FormatTrueType
	case "otf":
		return FormatOpenType
	case "woff":
		return FormatWOFF
	case "woff2":
		return FormatWOFF2
	case "eot":
		return FormatEOT
	case "svg":
		return FormatSVG
	}
	return FormatUnknown
}

// FontSource is one entry of the src descriptor: either a url() with an
// optional format hint or a local() face name.
type FontSource struct {
	URL    string
	Local  string
	Format FontFormat
}

// IsLocal reports whether the source names an installed face.
func (s FontSource) IsLocal() bool { return s.Local != "" }

func (s FontSource) String() string {
	if s.IsLocal() {
		return fmt.Sprintf("local(%q)", s.Local)
	}
	if s.Format != FormatUnknown {
		return fmt.Sprintf("url(%q) format(%q)", s.URL, s.Format.String())
	}
	return fmt.Sprintf("url(%q)", s.URL)
}

// FontWeight is a numeric font weight.
type FontWeight uint16

const (
	WeightNormal FontWeight = 400
	WeightBold   FontWeight = 700
)

// ParseFontWeight accepts normal, bold and 100..900.
func ParseFontWeight(s string) (FontWeight, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "normal":
		return WeightNormal, nil
	case "bold":
		return WeightBold, nil
	default:
		n, err := strconv.Atoi(v)
		if err != nil || n < 100 || n > 900 {
			return 0, fmt.Errorf("invalid font-weight %q", s)
		}
		return FontWeight(n), nil
	}
}

// FontStyle is the slant of a face.
type FontStyle int

const (
	StyleNormal FontStyle = iota
	StyleItalic
	StyleOblique
)

func (s FontStyle) String() string {
	switch s {
	case StyleItalic:
		return "italic"
	case StyleOblique:
		return "oblique"
	}
	return "normal"
}

// ParseFontStyle accepts normal, italic and oblique.
func ParseFontStyle(s string) (FontStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return StyleNormal, nil
	case "italic":
		return StyleItalic, nil
	case "oblique":
		return StyleOblique, nil
	}
	return StyleNormal, fmt.Errorf("invalid font-style %q", s)
}

// UnicodeRange is an inclusive code point range.
type UnicodeRange struct {
	Start, End rune
}

// Contains reports whether r lies within the range.
func (u UnicodeRange) Contains(r rune) bool {
	return r >= u.Start && r <= u.End
}

func (u UnicodeRange) String() string {
	if u.Start == u.End {
		return fmt.Sprintf("U+%X", u.Start)
	}
	return fmt.Sprintf("U+%X-%X", u.Start, u.End)
}

// ParseUnicodeRange parses U+XXXX, U+XXXX-YYYY and wildcard forms like U+4??.
func ParseUnicodeRange(s string) (UnicodeRange, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || (s[0] != 'u' && s[0] != 'U') || s[1] != '+' {
		return UnicodeRange{}, fmt.Errorf("invalid unicode-range %q", s)
	}
	body := s[2:]
	parseHex := func(h string) (rune, error) {
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil || v > 0x10FFFF {
			return 0, fmt.Errorf("invalid unicode-range %q", s)
		}
		return rune(v), nil
	}

	if lo, hi, ok := strings.Cut(body, "-"); ok {
		start, err := parseHex(lo)
		if err != nil {
			return UnicodeRange{}, err
		}
		end, err := parseHex(hi)
		if err != nil {
			return UnicodeRange{}, err
		}
		if end < start {
			return UnicodeRange{}, fmt.Errorf("invalid unicode-range %q: end before start", s)
		}
		return UnicodeRange{Start: start, End: end}, nil
	}

	if strings.Contains(body, "?") {
		start, err := parseHex(strings.ReplaceAll(body, "?", "0"))
		if err != nil {
			return UnicodeRange{}, err
		}
		end, err := parseHex(strings.ReplaceAll(body, "?", "F"))
		if err != nil {
			return UnicodeRange{}, err
		}
		return UnicodeRange{Start: start, End: end}, nil
	}

	cp, err := parseHex(body)
	if err != nil {
		return UnicodeRange{}, err
	}
	return UnicodeRange{Start: cp, End: cp}, nil
}

// FontFace is a parsed @font-face rule.
type FontFace struct {
	Family        string
	Sources       []FontSource
	Weight        FontWeight
	Style         FontStyle
	UnicodeRanges []UnicodeRange
	// Descriptors keeps every other descriptor verbatim.
	Descriptors map[string]string
}

// NewFontFace returns a face with normal weight and style.
func NewFontFace(family string) *FontFace {
	return &FontFace{
		Family:      family,
		Weight:      WeightNormal,
		Style:       StyleNormal,
		Descriptors: make(map[string]string),
	}
}

// Matches compares family case-insensitively and weight/style exactly.
func (f *FontFace) Matches(family string, weight FontWeight, style FontStyle) bool {
	return strings.EqualFold(f.Family, family) && f.Weight == weight && f.Style == style
}

// Covers reports whether r falls in the face's unicode ranges. A face
// without ranges covers everything.
func (f *FontFace) Covers(r rune) bool {
	if len(f.UnicodeRanges) == 0 {
		return true
	}
	for _, u := range f.UnicodeRanges {
		if u.Contains(r) {
			return true
		}
	}
	return false
}

// descriptor is one name/value pair of a @font-face block.
type descriptor struct {
	name string
	vals []Token
}

// buildFontFace assembles a face from its descriptors. font-family is
// required; a malformed src or unicode-range fails the whole rule, while a
// bad weight or style keeps the default.
func buildFontFace(descs []descriptor) (*FontFace, error) {
	var family string
	face := NewFontFace("")
	for _, d := range descs {
		vals := trimWhitespace(d.vals)
		switch d.name {
		case "font-family":
			if len(vals) == 0 {
				continue
			}
			if vals[0].Type == csslex.StringToken {
				family = unquote(vals[0].Data)
			} else {
				family = joinTokens(vals)
			}
		case "src":
			srcs, err := parseFontSources(vals)
			if err != nil {
				return nil, err
			}
			face.Sources = srcs
		case "font-weight":
			if w, err := ParseFontWeight(joinTokens(vals)); err == nil {
				face.Weight = w
			}
		case "font-style":
			if s, err := ParseFontStyle(joinTokens(vals)); err == nil {
				face.Style = s
			}
		case "unicode-range":
			ranges, err := parseUnicodeRanges(vals)
			if err != nil {
				return nil, err
			}
			face.UnicodeRanges = ranges
		default:
			if v := joinTokens(vals); v != "" {
				face.Descriptors[d.name] = v
			}
		}
	}
	if family == "" {
		return nil, fmt.Errorf("@font-face without font-family")
	}
	face.Family = family
	return face, nil
}

// parseFontSources parses a comma-separated src list. The first entry must
// parse; a malformed later entry ends the list.
func parseFontSources(vals []Token) ([]FontSource, error) {
	var out []FontSource
	for _, group := range splitCommas(vals) {
		src, err := parseFontSource(group)
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			break
		}
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("@font-face: empty src")
	}
	return out, nil
}

func parseFontSource(toks []Token) (FontSource, error) {
	var src FontSource
	i := 0
	skipWS := func() {
		for i < len(toks) && toks[i].Type == csslex.WhitespaceToken {
			i++
		}
	}
	skipWS()
	if i >= len(toks) {
		return src, fmt.Errorf("@font-face: empty source")
	}

	switch t := toks[i]; {
	case t.Type == csslex.URLToken:
		src.URL = urlValue(t.Data)
		i++
	case t.Type == csslex.FunctionToken && (t.functionName() == "url" || t.functionName() == "local"):
		name := t.functionName()
		arg, next, err := singleFunctionArg(toks, i+1)
		if err != nil {
			return src, err
		}
		i = next
		var v string
		switch arg.Type {
		case csslex.StringToken:
			v = unquote(arg.Data)
		case csslex.IdentToken:
			if name == "url" {
				return src, fmt.Errorf("@font-face: invalid url argument %q", arg.Data)
			}
			v = arg.Data
		default:
			return src, fmt.Errorf("@font-face: invalid %s() argument %q", name, arg.Data)
		}
		if name == "url" {
			src.URL = v
		} else {
			src.Local = v
		}
	default:
		return src, fmt.Errorf("@font-face: expected url() or local(), found %q", t.Data)
	}

	skipWS()
	if i < len(toks) && toks[i].Type == csslex.FunctionToken && toks[i].functionName() == "format" {
		arg, next, err := singleFunctionArg(toks, i+1)
		if err != nil {
			return src, err
		}
		i = next
		if !src.IsLocal() && (arg.Type == csslex.StringToken || arg.Type == csslex.IdentToken) {
			src.Format = ParseFontFormat(unquote(arg.Data))
		}
	}
	skipWS()
	if i < len(toks) {
		return src, fmt.Errorf("@font-face: unexpected %q after source", toks[i].Data)
	}
	return src, nil
}

// singleFunctionArg reads exactly one argument token followed by ')'
// starting at toks[i].
func singleFunctionArg(toks []Token, i int) (Token, int, error) {
	var arg Token
	found := false
	for ; i < len(toks); i++ {
		switch t := toks[i]; t.Type {
		case csslex.WhitespaceToken:
		case csslex.RightParenthesisToken:
			if !found {
				return arg, i, fmt.Errorf("@font-face: empty function argument")
			}
			return arg, i + 1, nil
		default:
			if found {
				return arg, i, fmt.Errorf("@font-face: unexpected %q", t.Data)
			}
			arg, found = t, true
		}
	}
	return arg, i, fmt.Errorf("@font-face: unterminated function")
}

// urlValue extracts the address from a url(...) token.
func urlValue(data string) string {
	s := data
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ")")
	return unquote(strings.TrimSpace(s))
}

func parseUnicodeRanges(vals []Token) ([]UnicodeRange, error) {
	var out []UnicodeRange
	for _, group := range splitCommas(vals) {
		if len(group) != 1 || group[0].Type != csslex.UnicodeRangeToken {
			if len(out) == 0 {
				return nil, fmt.Errorf("invalid unicode-range %q", joinTokens(group))
			}
			break
		}
		r, err := ParseUnicodeRange(group[0].Data)
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			break
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty unicode-range")
	}
	return out, nil
}

// LoadedFont pairs a face with the bytes fetched for it by the font loader.
type LoadedFont struct {
	Face *FontFace
	Data []byte
}

// NewLoadedFont wraps a face that has not been fetched yet.
func NewLoadedFont(face *FontFace) *LoadedFont {
	return &LoadedFont{Face: face}
}

var sfntMagic = [][]byte{
	{0x00, 0x01, 0x00, 0x00},
	[]byte("OTTO"),
	[]byte("true"),
	[]byte("wOFF"),
	[]byte("wOF2"),
}

// LoadFromBytes stores font data after checking its container signature.
func (f *LoadedFont) LoadFromBytes(data []byte) error {
	for _, m := range sfntMagic {
		if bytes.HasPrefix(data, m) {
			f.Data = data
			return nil
		}
	}
	return fmt.Errorf("load font %q: unrecognized font data", f.Face.Family)
}

// IsLoaded reports whether font data is present.
func (f *LoadedFont) IsLoaded() bool {
	return len(f.Data) > 0
}
