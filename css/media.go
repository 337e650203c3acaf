package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	csslex "github.com/tdewolff/parse/v2/css"
)

// MediaType is the target medium of a media query.
type MediaType int

const (
	MediaAll MediaType = iota
	MediaScreen
	MediaPrint
	MediaSpeech
)

func (t MediaType) String() string {
	switch t {
	case MediaScreen:
		return "screen"
	case MediaPrint:
		return "print"
	case MediaSpeech:
		return "speech"
	}
	return "all"
}

// ParseMediaType parses a media type keyword, case-insensitively.
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return MediaAll, nil
	case "screen":
		return MediaScreen, nil
	case "print":
		return MediaPrint, nil
	case "speech":
		return MediaSpeech, nil
	}
	return MediaAll, fmt.Errorf("unknown media type %q", s)
}

// MediaModifier is the optional not/only prefix of a query.
type MediaModifier int

const (
	ModifierNone MediaModifier = iota
	ModifierNot
	ModifierOnly
)

// FeatureKind identifies a media feature.
type FeatureKind int

const (
	FeatureMinWidth FeatureKind = iota
	FeatureMaxWidth
	FeatureMinHeight
	FeatureMaxHeight
	FeatureOrientation
	FeatureHover
	FeatureAspectRatio
	FeatureMinAspectRatio
	FeatureMaxAspectRatio
	FeatureOther
)

var featureNames = map[string]FeatureKind{
	"min-width":        FeatureMinWidth,
	"max-width":        FeatureMaxWidth,
	"min-height":       FeatureMinHeight,
	"max-height":       FeatureMaxHeight,
	"orientation":      FeatureOrientation,
	"hover":            FeatureHover,
	"aspect-ratio":     FeatureAspectRatio,
	"min-aspect-ratio": FeatureMinAspectRatio,
	"max-aspect-ratio": FeatureMaxAspectRatio,
}

// MediaFeature is one parenthesized condition.
type MediaFeature struct {
	Kind FeatureKind
	Name string

	// Px holds width/height limits.
	Px float64
	// Landscape is set for (orientation: landscape).
	Landscape bool
	// Hover is set for (hover: hover).
	Hover bool
	// RatioW and RatioH hold aspect-ratio operands.
	RatioW, RatioH int
	// Value is the raw value of unrecognized features.
	Value string
}

func (f MediaFeature) String() string {
	switch f.Kind {
	case FeatureMinWidth, FeatureMaxWidth, FeatureMinHeight, FeatureMaxHeight:
		return fmt.Sprintf("(%s: %spx)", f.Name, FormatFloat(f.Px))
	case FeatureOrientation:
		if f.Landscape {
			return "(orientation: landscape)"
		}
		return "(orientation: portrait)"
	case FeatureHover:
		if f.Hover {
			return "(hover: hover)"
		}
		return "(hover: none)"
	case FeatureAspectRatio, FeatureMinAspectRatio, FeatureMaxAspectRatio:
		return fmt.Sprintf("(%s: %d/%d)", f.Name, f.RatioW, f.RatioH)
	}
	return fmt.Sprintf("(%s: %s)", f.Name, f.Value)
}

func (f MediaFeature) matches(w, h float64) bool {
	switch f.Kind {
	case FeatureMinWidth:
		return w >= f.Px
	case FeatureMaxWidth:
		return w <= f.Px
	case FeatureMinHeight:
		return h >= f.Px
	case FeatureMaxHeight:
		return h <= f.Px
	case FeatureOrientation:
		return (w > h) == f.Landscape
	case FeatureAspectRatio, FeatureMinAspectRatio, FeatureMaxAspectRatio:
		if h == 0 || f.RatioH == 0 {
			return false
		}
		ratio := w / h
		target := float64(f.RatioW) / float64(f.RatioH)
		switch f.Kind {
		case FeatureMinAspectRatio:
			return ratio >= target
		case FeatureMaxAspectRatio:
			return ratio <= target
		}
		return math.Abs(ratio-target) < 0.01
	}
	// Hover capability is not modeled; unknown features never exclude.
	return true
}

// MediaQuery is a single query: [not|only] type [and (feature)]*.
type MediaQuery struct {
	Modifier MediaModifier
	Type     MediaType
	Features []MediaFeature
}

func (q MediaQuery) String() string {
	var sb strings.Builder
	switch q.Modifier {
	case ModifierNot:
		sb.WriteString("not ")
	case ModifierOnly:
		sb.WriteString("only ")
	}
	sb.WriteString(q.Type.String())
	for _, f := range q.Features {
		sb.WriteString(" and ")
		sb.WriteString(f.String())
	}
	return sb.String()
}

// Matches evaluates the query against a viewport.
func (q MediaQuery) Matches(width, height float64, media MediaType) bool {
	result := q.Type == MediaAll || q.Type == media
	if result {
		for _, f := range q.Features {
			if !f.matches(width, height) {
				result = false
				break
			}
		}
	}
	if q.Modifier == ModifierNot {
		return !result
	}
	return result
}

// MediaQueryList is a comma-separated list of queries; it matches when any
// query matches. An empty list matches everything.
type MediaQueryList []MediaQuery

// Matches evaluates the list against a viewport.
func (l MediaQueryList) Matches(width, height float64, media MediaType) bool {
	if len(l) == 0 {
		return true
	}
	for _, q := range l {
		if q.Matches(width, height, media) {
			return true
		}
	}
	return false
}

func (l MediaQueryList) String() string {
	parts := make([]string, len(l))
	for i, q := range l {
		parts[i] = q.String()
	}
	return strings.Join(parts, ", ")
}

// ParseMediaQueryList parses an @media prelude.
func ParseMediaQueryList(text string) (MediaQueryList, error) {
	toks := trimWhitespace(tokenize(text))
	if len(toks) == 0 {
		return nil, nil
	}
	var list MediaQueryList
	for _, group := range splitCommas(toks) {
		q, err := parseMediaQuery(group)
		if err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, nil
}

// ParseMediaQuery parses a single query such as
// "only screen and (min-width: 768px)".
func ParseMediaQuery(text string) (MediaQuery, error) {
	return parseMediaQuery(trimWhitespace(tokenize(text)))
}

func parseMediaQuery(toks []Token) (MediaQuery, error) {
	q := MediaQuery{}
	pos := 0
	next := func() (Token, bool) {
		for pos < len(toks) && toks[pos].Type == csslex.WhitespaceToken {
			pos++
		}
		if pos >= len(toks) {
			return eofToken, false
		}
		return toks[pos], true
	}

	if tok, ok := next(); ok && tok.Type == csslex.IdentToken {
		switch strings.ToLower(tok.Data) {
		case "not":
			q.Modifier = ModifierNot
			pos++
		case "only":
			q.Modifier = ModifierOnly
			pos++
		}
	}

	if tok, ok := next(); ok && tok.Type == csslex.IdentToken && !tok.isIdent("and") {
		mt, err := ParseMediaType(tok.Data)
		if err != nil {
			return q, err
		}
		q.Type = mt
		pos++
	}

	first := true
	for {
		tok, ok := next()
		if !ok {
			return q, nil
		}
		if tok.isIdent("and") {
			pos++
			tok, ok = next()
			if !ok {
				return q, fmt.Errorf("media query: dangling 'and'")
			}
		} else if !first {
			// Only the first feature may omit 'and'.
			return q, fmt.Errorf("media query: unexpected %q", tok.Data)
		}
		if tok.Type != csslex.LeftParenthesisToken {
			return q, fmt.Errorf("media query: expected '(' but found %q", tok.Data)
		}
		pos++
		start := pos
		for pos < len(toks) && toks[pos].Type != csslex.RightParenthesisToken {
			pos++
		}
		if pos >= len(toks) {
			return q, fmt.Errorf("media query: unterminated feature")
		}
		f, err := parseMediaFeature(trimWhitespace(toks[start:pos]))
		if err != nil {
			return q, err
		}
		pos++
		q.Features = append(q.Features, f)
		first = false
	}
}

// parseMediaFeature parses "name: value" from the inside of a parenthesized
// feature.
func parseMediaFeature(toks []Token) (MediaFeature, error) {
	var vals []Token
	for _, t := range toks {
		if t.Type != csslex.WhitespaceToken {
			vals = append(vals, t)
		}
	}
	if len(vals) < 3 || vals[0].Type != csslex.IdentToken || vals[1].Type != csslex.ColonToken {
		return MediaFeature{}, fmt.Errorf("media feature: expected 'name: value' in %q", joinTokens(toks))
	}
	name := strings.ToLower(vals[0].Data)
	vals = vals[2:]
	f := MediaFeature{Name: name, Kind: FeatureOther}
	if kind, ok := featureNames[name]; ok {
		f.Kind = kind
	}
	bad := func() (MediaFeature, error) {
		return MediaFeature{}, fmt.Errorf("media feature: invalid value %q for %s", joinTokens(vals), name)
	}

	switch f.Kind {
	case FeatureMinWidth, FeatureMaxWidth, FeatureMinHeight, FeatureMaxHeight:
		if len(vals) != 1 {
			return bad()
		}
		v, unit, ok := vals[0].number()
		if !ok || (unit != "px" && unit != "") || vals[0].Type == csslex.PercentageToken {
			return bad()
		}
		f.Px = v
	case FeatureOrientation:
		switch {
		case len(vals) == 1 && vals[0].isIdent("landscape"):
			f.Landscape = true
		case len(vals) == 1 && vals[0].isIdent("portrait"):
		default:
			return bad()
		}
	case FeatureHover:
		switch {
		case len(vals) == 1 && vals[0].isIdent("hover"):
			f.Hover = true
		case len(vals) == 1 && vals[0].isIdent("none"):
		default:
			return bad()
		}
	case FeatureAspectRatio, FeatureMinAspectRatio, FeatureMaxAspectRatio:
		if len(vals) != 3 || !vals[1].isDelim('/') {
			return bad()
		}
		w, err1 := strconv.Atoi(vals[0].Data)
		h, err2 := strconv.Atoi(vals[2].Data)
		if err1 != nil || err2 != nil || w < 0 || h < 0 {
			return bad()
		}
		f.RatioW, f.RatioH = w, h
	default:
		if len(vals) != 1 || (vals[0].Type != csslex.IdentToken && vals[0].Type != csslex.StringToken) {
			return bad()
		}
		f.Value = unquote(vals[0].Data)
	}
	return f, nil
}
