package layout

import (
	"strconv"
	"strings"

	"github.com/chrisuehlinger/stylecore/css"
)

// Display is the resolved display type of a node.
type Display int

const (
	DisplayBlock Display = iota
	DisplayInline
	DisplayInlineBlock
	DisplayFlex
	DisplayInlineFlex
	DisplayListItem
	DisplayNone
)

var displayNames = map[string]Display{
	"block":        DisplayBlock,
	"inline":       DisplayInline,
	"inline-block": DisplayInlineBlock,
	"flex":         DisplayFlex,
	"inline-flex":  DisplayInlineFlex,
	"list-item":    DisplayListItem,
	"none":         DisplayNone,
	// Formatting contexts the solver does not model lay out as blocks.
	"grid":        DisplayBlock,
	"inline-grid": DisplayInlineBlock,
	"table":       DisplayBlock,
	"table-row":   DisplayBlock,
	"table-cell":  DisplayBlock,
	"contents":    DisplayBlock,
}

func (d Display) String() string {
	switch d {
	case DisplayBlock:
		return "block"
	case DisplayInline:
		return "inline"
	case DisplayInlineBlock:
		return "inline-block"
	case DisplayFlex:
		return "flex"
	case DisplayInlineFlex:
		return "inline-flex"
	case DisplayListItem:
		return "list-item"
	case DisplayNone:
		return "none"
	}
	return "unknown"
}

// IsInlineLevel reports whether boxes of this display take part in inline
// flow and are grouped into anonymous containers.
func (d Display) IsInlineLevel() bool {
	return d == DisplayInline || d == DisplayInlineBlock || d == DisplayInlineFlex
}

// IsFlexContainer reports whether children are laid out as flex items.
func (d Display) IsFlexContainer() bool {
	return d == DisplayFlex || d == DisplayInlineFlex
}

// Position is the CSS position scheme.
type Position int

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

var positionNames = map[string]Position{
	"static":   PositionStatic,
	"relative": PositionRelative,
	"absolute": PositionAbsolute,
	"fixed":    PositionFixed,
	"sticky":   PositionSticky,
}

// IsOutOfFlow reports whether the box is removed from normal flow.
func (p Position) IsOutOfFlow() bool {
	return p == PositionAbsolute || p == PositionFixed
}

// Unit is the unit of a Dimension.
type Unit int

const (
	UnitAuto Unit = iota
	UnitPx
	UnitPercent
)

// Dimension is auto, a pixel length or a percentage.
type Dimension struct {
	Unit  Unit
	Value float64
}

// Auto is the auto dimension.
var Auto = Dimension{}

// Px returns a pixel dimension.
func Px(v float64) Dimension { return Dimension{Unit: UnitPx, Value: v} }

// Percent returns a percentage dimension.
func Percent(v float64) Dimension { return Dimension{Unit: UnitPercent, Value: v} }

// IsAuto reports whether d is auto.
func (d Dimension) IsAuto() bool { return d.Unit == UnitAuto }

// Resolve returns the used pixel value of d against a reference length.
// Percentages of an unknown (negative) reference and auto are unresolved.
func (d Dimension) Resolve(reference float64) (float64, bool) {
	switch d.Unit {
	case UnitPx:
		return d.Value, true
	case UnitPercent:
		if reference < 0 {
			return 0, false
		}
		return d.Value * reference / 100, true
	}
	return 0, false
}

func (d Dimension) String() string {
	switch d.Unit {
	case UnitPx:
		return css.FormatFloat(d.Value) + "px"
	case UnitPercent:
		return css.FormatFloat(d.Value) + "%"
	}
	return "auto"
}

// Default font metrics.
const (
	DefaultFontSize = 16.0
)

// ComputedStyle is the final style of one node after tag defaults,
// inheritance and the cascade.
type ComputedStyle struct {
	Display         Display
	Position        Position
	Width           Dimension
	Height          Dimension
	Margin          EdgeSizes
	Padding         EdgeSizes
	Border          EdgeSizes
	Color           string
	BackgroundColor string
	FontSize        float64
	FontWeight      css.FontWeight
	FontStyle       css.FontStyle
	ListStyleType   string
	FlexDirection   FlexDirection
	FlexWrap        FlexWrap
	JustifyContent  JustifyContent
	AlignItems      AlignItems
	AlignSelf       AlignSelf
	FlexGrow        float64
	FlexShrink      float64
	ZIndex          int
}

// DefaultComputedStyle returns the style every node starts from.
func DefaultComputedStyle() *ComputedStyle {
	return &ComputedStyle{
		Display:       DisplayBlock,
		Position:      PositionStatic,
		FontSize:      DefaultFontSize,
		FontWeight:    css.WeightNormal,
		FontStyle:     css.StyleNormal,
		ListStyleType: "none",
		AlignItems:    AlignItemsStretch,
		FlexShrink:    1,
	}
}

// nonRenderingTags never produce boxes; their subtrees are skipped.
var nonRenderingTags = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"meta":     true,
	"link":     true,
	"title":    true,
	"template": true,
	"noscript": true,
}

// IsNonRenderingTag reports whether elements with this tag are skipped.
func IsNonRenderingTag(tag string) bool {
	return nonRenderingTags[tag]
}

var headingSizes = map[string]float64{
	"h1": 32, "h2": 24, "h3": 18.72, "h4": 16, "h5": 13.28, "h6": 10.72,
}

// applyTagDefaults applies the built-in user-agent table for tag.
func applyTagDefaults(cs *ComputedStyle, tag string) {
	if size, ok := headingSizes[tag]; ok {
		cs.Display = DisplayBlock
		cs.FontSize = size
		cs.FontWeight = css.WeightBold
		return
	}
	switch tag {
	case "b", "strong":
		cs.Display = DisplayInline
		cs.FontWeight = css.WeightBold
	case "i", "em", "cite", "var", "dfn":
		cs.Display = DisplayInline
		cs.FontStyle = css.StyleItalic
	case "span", "a", "code", "small", "abbr", "q", "label", "sub", "sup", "kbd", "samp", "mark", "u", "s", "br", "img":
		cs.Display = DisplayInline
	case "button", "input", "select", "textarea":
		cs.Display = DisplayInlineBlock
	case "ul":
		cs.ListStyleType = "disc"
	case "ol":
		cs.ListStyleType = "decimal"
	case "li":
		cs.Display = DisplayListItem
	}
	if nonRenderingTags[tag] {
		cs.Display = DisplayNone
	}
}

// inherit copies inheritable properties from parent. Font size, weight and
// style only inherit while still at their defaults.
func inherit(cs, parent *ComputedStyle) {
	if parent == nil {
		return
	}
	if cs.Color == "" {
		cs.Color = parent.Color
	}
	if cs.BackgroundColor == "" {
		cs.BackgroundColor = parent.BackgroundColor
	}
	if cs.FontSize == DefaultFontSize {
		cs.FontSize = parent.FontSize
	}
	if cs.FontWeight == css.WeightNormal {
		cs.FontWeight = parent.FontWeight
	}
	if cs.FontStyle == css.StyleNormal {
		cs.FontStyle = parent.FontStyle
	}
	if cs.ListStyleType == "none" && parent.ListStyleType != "none" {
		cs.ListStyleType = parent.ListStyleType
	}
}

// resolveContext carries what relative units resolve against.
type resolveContext struct {
	parent   *ComputedStyle
	viewport Size
}

// applyProperties overlays cascaded declarations onto cs. Values have
// already been normalized by the css package; anything unparsable keeps
// the current value.
func applyProperties(cs *ComputedStyle, props map[string]string, rc resolveContext) {
	if v, ok := props["font-size"]; ok {
		if fs, ok := parseFontSize(v, rc.parentFontSize()); ok {
			cs.FontSize = fs
		}
	}
	// The shorthand first so per-side widths override it.
	if v, ok := props["border-width"]; ok {
		w := rc.length(strings.TrimSpace(v), cs.FontSize, cs.Border.Top)
		cs.Border = EdgeSizes{Top: w, Right: w, Bottom: w, Left: w}
	}
	for name, value := range props {
		value = strings.TrimSpace(value)
		switch name {
		case "display":
			if d, ok := displayNames[strings.ToLower(value)]; ok {
				cs.Display = d
			}
		case "position":
			if p, ok := positionNames[strings.ToLower(value)]; ok {
				cs.Position = p
			}
		case "width":
			cs.Width = rc.dimension(value, cs.FontSize, cs.Width, func(p *ComputedStyle) Dimension { return p.Width })
		case "height":
			cs.Height = rc.dimension(value, cs.FontSize, cs.Height, func(p *ComputedStyle) Dimension { return p.Height })
		case "margin-top":
			cs.Margin.Top = rc.length(value, cs.FontSize, cs.Margin.Top)
		case "margin-right":
			cs.Margin.Right = rc.length(value, cs.FontSize, cs.Margin.Right)
		case "margin-bottom":
			cs.Margin.Bottom = rc.length(value, cs.FontSize, cs.Margin.Bottom)
		case "margin-left":
			cs.Margin.Left = rc.length(value, cs.FontSize, cs.Margin.Left)
		case "padding-top":
			cs.Padding.Top = rc.length(value, cs.FontSize, cs.Padding.Top)
		case "padding-right":
			cs.Padding.Right = rc.length(value, cs.FontSize, cs.Padding.Right)
		case "padding-bottom":
			cs.Padding.Bottom = rc.length(value, cs.FontSize, cs.Padding.Bottom)
		case "padding-left":
			cs.Padding.Left = rc.length(value, cs.FontSize, cs.Padding.Left)
		case "border-top-width":
			cs.Border.Top = rc.length(value, cs.FontSize, cs.Border.Top)
		case "border-right-width":
			cs.Border.Right = rc.length(value, cs.FontSize, cs.Border.Right)
		case "border-bottom-width":
			cs.Border.Bottom = rc.length(value, cs.FontSize, cs.Border.Bottom)
		case "border-left-width":
			cs.Border.Left = rc.length(value, cs.FontSize, cs.Border.Left)
		case "color":
			cs.Color = rc.keywordOr(value, func(p *ComputedStyle) string { return p.Color })
		case "background-color":
			cs.BackgroundColor = rc.keywordOr(value, func(p *ComputedStyle) string { return p.BackgroundColor })
		case "font-weight":
			cs.FontWeight = parseFontWeight(value, cs.FontWeight, rc.parent)
		case "font-style":
			if value == "inherit" && rc.parent != nil {
				cs.FontStyle = rc.parent.FontStyle
			} else if s, err := css.ParseFontStyle(value); err == nil {
				cs.FontStyle = s
			}
		case "list-style-type", "list-style":
			if f := strings.Fields(strings.ToLower(value)); len(f) > 0 {
				cs.ListStyleType = f[0]
			}
		case "flex-direction":
			if d, ok := flexDirectionNames[strings.ToLower(value)]; ok {
				cs.FlexDirection = d
			}
		case "flex-wrap":
			if w, ok := flexWrapNames[strings.ToLower(value)]; ok {
				cs.FlexWrap = w
			}
		case "justify-content":
			if j, ok := justifyNames[strings.ToLower(value)]; ok {
				cs.JustifyContent = j
			}
		case "align-items":
			if a, ok := alignItemsNames[strings.ToLower(value)]; ok {
				cs.AlignItems = a
			}
		case "align-self":
			if a, ok := alignSelfNames[strings.ToLower(value)]; ok {
				cs.AlignSelf = a
			}
		case "flex-grow":
			if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
				cs.FlexGrow = f
			}
		case "flex-shrink":
			if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
				cs.FlexShrink = f
			}
		case "flex":
			parseFlexShorthand(cs, value)
		case "z-index":
			if z, err := strconv.Atoi(value); err == nil {
				cs.ZIndex = z
			} else if value == "auto" {
				cs.ZIndex = 0
			}
		}
	}
}

func (rc resolveContext) parentFontSize() float64 {
	if rc.parent == nil {
		return DefaultFontSize
	}
	return rc.parent.FontSize
}

// parentWidth is the reference for percentages, or -1 when unknown.
func (rc resolveContext) parentWidth() float64 {
	if rc.parent == nil {
		return rc.viewport.Width
	}
	if rc.parent.Width.Unit == UnitPx {
		return rc.parent.Width.Value
	}
	return -1
}

// dimension parses a width/height value. Percentages stay relative so the
// solver can resolve them against the containing block.
func (rc resolveContext) dimension(value string, fontSize float64, current Dimension, fromParent func(*ComputedStyle) Dimension) Dimension {
	switch value {
	case "auto", "initial", "unset":
		return Auto
	case "inherit":
		if rc.parent != nil {
			return fromParent(rc.parent)
		}
		return Auto
	}
	if strings.HasSuffix(value, "%") {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64); err == nil {
			return Percent(v)
		}
		return current
	}
	if px, ok := rc.toPx(value, fontSize); ok {
		return Px(px)
	}
	return current
}

// length parses a margin or padding component into pixels. Percentages
// resolve against the parent's width, falling back to the viewport.
func (rc resolveContext) length(value string, fontSize, current float64) float64 {
	switch value {
	case "auto", "initial", "unset", "inherit":
		return 0
	}
	if strings.HasSuffix(value, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return current
		}
		ref := rc.parentWidth()
		if ref < 0 {
			ref = rc.viewport.Width
		}
		return v * ref / 100
	}
	if px, ok := rc.toPx(value, fontSize); ok {
		return px
	}
	return current
}

// toPx converts an absolute or font/viewport-relative length to pixels.
func (rc resolveContext) toPx(value string, fontSize float64) (float64, bool) {
	if value == "0" {
		return 0, true
	}
	units := []struct {
		suffix string
		scale  float64
	}{
		{"px", 1},
		{"rem", DefaultFontSize},
		{"em", fontSize},
		{"vw", rc.viewport.Width / 100},
		{"vh", rc.viewport.Height / 100},
	}
	for _, u := range units {
		if strings.HasSuffix(value, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(value, u.suffix), 64)
			if err != nil {
				return 0, false
			}
			return v * u.scale, true
		}
	}
	return 0, false
}

func (rc resolveContext) keywordOr(value string, fromParent func(*ComputedStyle) string) string {
	switch value {
	case "inherit":
		if rc.parent != nil {
			return fromParent(rc.parent)
		}
		return ""
	case "initial", "unset":
		return ""
	}
	return value
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32,
}

func parseFontSize(value string, parentSize float64) (float64, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if v, ok := fontSizeKeywords[value]; ok {
		return v, true
	}
	switch value {
	case "inherit":
		return parentSize, true
	case "initial", "unset":
		return DefaultFontSize, true
	case "smaller":
		return parentSize / 1.2, true
	case "larger":
		return parentSize * 1.2, true
	}
	num := func(suffix string) (float64, bool) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(value, suffix), 64)
		return v, err == nil && v >= 0
	}
	switch {
	case strings.HasSuffix(value, "px"):
		return num("px")
	case strings.HasSuffix(value, "rem"):
		v, ok := num("rem")
		return v * DefaultFontSize, ok
	case strings.HasSuffix(value, "em"):
		v, ok := num("em")
		return v * parentSize, ok
	case strings.HasSuffix(value, "%"):
		v, ok := num("%")
		return v * parentSize / 100, ok
	}
	return 0, false
}

func parseFontWeight(value string, current css.FontWeight, parent *ComputedStyle) css.FontWeight {
	base := css.WeightNormal
	if parent != nil {
		base = parent.FontWeight
	}
	switch strings.ToLower(value) {
	case "inherit":
		return base
	case "bolder":
		if base < css.WeightBold {
			return css.WeightBold
		}
		return 900
	case "lighter":
		if base > css.WeightBold {
			return css.WeightNormal
		}
		return 100
	}
	if w, err := css.ParseFontWeight(value); err == nil {
		return w
	}
	return current
}

// parseFlexShorthand handles "none", "auto", "<grow>" and
// "<grow> <shrink> [<basis>]".
func parseFlexShorthand(cs *ComputedStyle, value string) {
	switch strings.ToLower(value) {
	case "none":
		cs.FlexGrow, cs.FlexShrink = 0, 0
		return
	case "auto":
		cs.FlexGrow, cs.FlexShrink = 1, 1
		return
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return
	}
	grow, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || grow < 0 {
		return
	}
	cs.FlexGrow, cs.FlexShrink = grow, 1
	if len(fields) > 1 {
		if shrink, err := strconv.ParseFloat(fields[1], 64); err == nil && shrink >= 0 {
			cs.FlexShrink = shrink
		}
	}
}
