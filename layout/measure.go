package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/chrisuehlinger/stylecore/css"
)

// Heuristic font metrics. These approximate an average proportional face
// and are not glyph-accurate.
const (
	CharWidthFactor  = 0.6
	LineHeightFactor = 1.2
)

// TextMeasure is the measurement context attached to a text leaf.
type TextMeasure struct {
	Text       string
	FontSize   float64
	FontWeight css.FontWeight
	FontStyle  css.FontStyle
}

// NewTextMeasure builds the measurement context for text rendered in style.
func NewTextMeasure(text string, style *ComputedStyle) *TextMeasure {
	return &TextMeasure{
		Text:       text,
		FontSize:   style.FontSize,
		FontWeight: style.FontWeight,
		FontStyle:  style.FontStyle,
	}
}

func (t *TextMeasure) charWidth() float64 {
	return t.FontSize * CharWidthFactor
}

// LineHeight returns the height of one line of text.
func (t *TextMeasure) LineHeight() float64 {
	return t.FontSize * LineHeightFactor
}

// wordWidths returns the rendered width of each whitespace-separated word.
// Wide (East Asian) characters count as two columns.
func (t *TextMeasure) wordWidths() []float64 {
	words := strings.Fields(t.Text)
	widths := make([]float64, len(words))
	cw := t.charWidth()
	for i, w := range words {
		widths[i] = float64(runewidth.StringWidth(w)) * cw
	}
	return widths
}

// MinContentWidth is the width of the longest word.
func (t *TextMeasure) MinContentWidth() float64 {
	var longest float64
	for _, w := range t.wordWidths() {
		longest = max(longest, w)
	}
	return longest
}

// MaxContentWidth is the width of all words on one line.
func (t *TextMeasure) MaxContentWidth() float64 {
	widths := t.wordWidths()
	if len(widths) == 0 {
		return 0
	}
	total := float64(len(widths)-1) * t.charWidth()
	for _, w := range widths {
		total += w
	}
	return total
}

// Lines counts the lines produced by greedy word wrapping at width. A word
// wider than the line occupies a line of its own.
func (t *TextMeasure) Lines(width float64) int {
	widths := t.wordWidths()
	if len(widths) == 0 {
		return 0
	}
	space := t.charWidth()
	lines, line := 1, widths[0]
	for _, w := range widths[1:] {
		if line+space+w > width+1e-6 {
			lines++
			line = w
			continue
		}
		line += space + w
	}
	return lines
}

// Measure implements Measurer. Known positive dimensions are returned as
// given; the width otherwise follows the available space (min-content,
// max-content or a definite width clamped between the two) and the height
// is the wrapped line count times the line height.
func (t *TextMeasure) Measure(known Size, width, _ AvailableSpace) Size {
	if known.Width > 0 && known.Height > 0 {
		return known
	}

	w := known.Width
	if w <= 0 {
		minW, maxW := t.MinContentWidth(), t.MaxContentWidth()
		switch width.Kind {
		case SpaceMinContent:
			w = minW
		case SpaceMaxContent:
			w = maxW
		default:
			w = min(max(width.Value, minW), maxW)
		}
	}

	h := known.Height
	if h <= 0 {
		h = float64(t.Lines(w)) * t.LineHeight()
	}
	return Size{Width: w, Height: h}
}
