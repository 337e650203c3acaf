package flex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/stylecore/layout"
)

func fixedBox(w, h float64) layout.BoxStyle {
	return layout.BoxStyle{Width: layout.Px(w), Height: layout.Px(h), FlexShrink: 1}
}

func flexRow(width float64) layout.BoxStyle {
	return layout.BoxStyle{Kind: layout.BoxFlex, Width: layout.Px(width), FlexShrink: 1}
}

// build creates a container with one leaf per child style and computes it
// in an 800x600 space.
func build(t *testing.T, parent layout.BoxStyle, kids ...layout.BoxStyle) (*Solver, layout.BoxID, []layout.BoxID) {
	t.Helper()
	s := New()
	ids := make([]layout.BoxID, 0, len(kids))
	for _, k := range kids {
		id, err := s.NewLeaf(k, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	root, err := s.NewContainer(parent, ids)
	require.NoError(t, err)
	require.NoError(t, s.Compute(root, layout.Size{Width: 800, Height: 600}))
	return s, root, ids
}

func mustLayout(t *testing.T, s *Solver, id layout.BoxID) layout.BoxLayout {
	t.Helper()
	l, err := s.Layout(id)
	require.NoError(t, err)
	return l
}

func xs(t *testing.T, s *Solver, ids []layout.BoxID) []float64 {
	t.Helper()
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = mustLayout(t, s, id).X
	}
	return out
}

func TestResolveFlexibleLengthsGrow(t *testing.T) {
	items := []*flexItem{
		{hypotheticalMain: 100, grow: 1},
		{hypotheticalMain: 100, grow: 2},
	}
	line := &flexLine{items: items}

	// Available: 600, used: 200, free space: 400
	resolveFlexibleLengths(line, 600)

	assert.InDelta(t, 233.33, items[0].mainSize, 0.01)
	assert.InDelta(t, 366.67, items[1].mainSize, 0.01)
}

func TestResolveFlexibleLengthsShrink(t *testing.T) {
	items := []*flexItem{
		{hypotheticalMain: 300, shrink: 1},
		{hypotheticalMain: 100, shrink: 1},
		{hypotheticalMain: 200, shrink: 0},
	}
	// Overflow 200, shared 3:1 between the shrinkable items.
	resolveFlexibleLengths(&flexLine{items: items}, 400)

	assert.InDelta(t, 150, items[0].mainSize, 1e-9)
	assert.InDelta(t, 50, items[1].mainSize, 1e-9)
	assert.InDelta(t, 200, items[2].mainSize, 1e-9)
}

func TestResolveFlexibleLengthsNoFlex(t *testing.T) {
	items := []*flexItem{{hypotheticalMain: 100}, {hypotheticalMain: 50}}
	resolveFlexibleLengths(&flexLine{items: items}, 600)
	assert.Equal(t, 100.0, items[0].mainSize)
	assert.Equal(t, 50.0, items[1].mainSize)
}

func TestCollectFlexLines(t *testing.T) {
	mk := func() []*flexItem {
		return []*flexItem{
			{hypotheticalMain: 100},
			{hypotheticalMain: 100},
			{hypotheticalMain: 100, mainMarginStart: 10},
		}
	}
	tests := []struct {
		name  string
		wrap  layout.FlexWrap
		avail float64
		sizes []int
	}{
		{"nowrap keeps one line", layout.FlexWrapNowrap, 150, []int{3}},
		{"wrap breaks on overflow", layout.FlexWrapWrap, 250, []int{2, 1}},
		{"margins count toward the line", layout.FlexWrapWrap, 305, []int{2, 1}},
		{"exact fit stays", layout.FlexWrapWrap, 310, []int{3}},
		{"wide item gets its own line", layout.FlexWrapWrap, 50, []int{1, 1, 1}},
		{"indefinite main size", layout.FlexWrapWrap, -1, []int{3}},
		{"wrap-reverse flips lines", layout.FlexWrapWrapReverse, 250, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := collectFlexLines(mk(), &container{wrap: tt.wrap, isRow: true}, tt.avail)
			sizes := make([]int, len(lines))
			for i, l := range lines {
				sizes[i] = len(l.items)
			}
			assert.Equal(t, tt.sizes, sizes)
		})
	}
}

func TestJustifyMainAxis(t *testing.T) {
	tests := []struct {
		justify layout.JustifyContent
		start   float64
		between float64
	}{
		{layout.JustifyFlexStart, 0, 0},
		{layout.JustifyFlexEnd, 300, 0},
		{layout.JustifyCenter, 150, 0},
		{layout.JustifySpaceBetween, 0, 300},
		{layout.JustifySpaceAround, 75, 150},
		{layout.JustifySpaceEvenly, 100, 100},
	}
	for _, tt := range tests {
		line := &flexLine{items: []*flexItem{{mainSize: 100}, {mainSize: 200}}}
		info := justifyMainAxis(line, &container{justify: tt.justify}, 600)
		assert.InDelta(t, tt.start, info.startOffset, 1e-9, "justify %d start", tt.justify)
		assert.InDelta(t, tt.between, info.betweenSpace, 1e-9, "justify %d between", tt.justify)
		assert.Equal(t, 300.0, line.mainSize)
	}
}

func TestJustifyMainAxisOverflowHasNoNegativeSpace(t *testing.T) {
	line := &flexLine{items: []*flexItem{{mainSize: 400}, {mainSize: 400}}}
	info := justifyMainAxis(line, &container{justify: layout.JustifyCenter}, 600)
	assert.Zero(t, info.startOffset)
}

func TestFlexLayoutRowBasic(t *testing.T) {
	s, root, ids := build(t, flexRow(600), fixedBox(100, 50), fixedBox(200, 60))

	first, second := mustLayout(t, s, ids[0]), mustLayout(t, s, ids[1])
	assert.Equal(t, layout.BoxLayout{X: 0, Y: 0, Width: 100, Height: 50}, first)
	assert.Equal(t, layout.BoxLayout{X: 100, Y: 0, Width: 200, Height: 60}, second)

	c := mustLayout(t, s, root)
	assert.Equal(t, 600.0, c.Width)
	assert.Equal(t, 60.0, c.Height, "auto height is the line cross size")
}

func TestFlexLayoutColumnBasic(t *testing.T) {
	parent := layout.BoxStyle{Kind: layout.BoxFlex, FlexDirection: layout.FlexDirectionColumn, Width: layout.Px(300)}
	child := func(h float64) layout.BoxStyle { return layout.BoxStyle{Height: layout.Px(h), FlexShrink: 1} }
	s, root, ids := build(t, parent, child(50), child(60))

	first, second := mustLayout(t, s, ids[0]), mustLayout(t, s, ids[1])
	assert.Equal(t, layout.BoxLayout{X: 0, Y: 0, Width: 300, Height: 50}, first, "stretched to the container width")
	assert.Equal(t, layout.BoxLayout{X: 0, Y: 50, Width: 300, Height: 60}, second)
	assert.Equal(t, 110.0, mustLayout(t, s, root).Height)
}

func TestFlexLayoutReverse(t *testing.T) {
	t.Run("row-reverse", func(t *testing.T) {
		parent := flexRow(600)
		parent.FlexDirection = layout.FlexDirectionRowReverse
		s, _, ids := build(t, parent, fixedBox(100, 10), fixedBox(200, 10))
		assert.Equal(t, []float64{500, 300}, xs(t, s, ids))
	})
	t.Run("column-reverse", func(t *testing.T) {
		parent := layout.BoxStyle{Kind: layout.BoxFlex, FlexDirection: layout.FlexDirectionColumnReverse, Width: layout.Px(300)}
		s, _, ids := build(t, parent, fixedBox(10, 50), fixedBox(10, 60))
		assert.Equal(t, 60.0, mustLayout(t, s, ids[0]).Y)
		assert.Equal(t, 0.0, mustLayout(t, s, ids[1]).Y)
	})
}

func TestFlexLayoutJustifyContent(t *testing.T) {
	tests := []struct {
		name    string
		justify layout.JustifyContent
		want    []float64
	}{
		{"center", layout.JustifyCenter, []float64{150, 250}},
		{"flex-end", layout.JustifyFlexEnd, []float64{300, 400}},
		{"space-between", layout.JustifySpaceBetween, []float64{0, 400}},
		{"space-around", layout.JustifySpaceAround, []float64{75, 325}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := flexRow(600)
			parent.JustifyContent = tt.justify
			s, _, ids := build(t, parent, fixedBox(100, 10), fixedBox(200, 10))
			assert.Equal(t, tt.want, xs(t, s, ids))
		})
	}
}

func TestFlexLayoutAlignItems(t *testing.T) {
	parent := flexRow(600)
	parent.Height = layout.Px(100)

	t.Run("center", func(t *testing.T) {
		p := parent
		p.AlignItems = layout.AlignItemsCenter
		s, _, ids := build(t, p, fixedBox(100, 50), fixedBox(100, 60))
		assert.Equal(t, 25.0, mustLayout(t, s, ids[0]).Y)
		assert.Equal(t, 20.0, mustLayout(t, s, ids[1]).Y)
	})
	t.Run("flex-end", func(t *testing.T) {
		p := parent
		p.AlignItems = layout.AlignItemsFlexEnd
		s, _, ids := build(t, p, fixedBox(100, 50))
		assert.Equal(t, 50.0, mustLayout(t, s, ids[0]).Y)
	})
	t.Run("stretch fills auto heights only", func(t *testing.T) {
		auto := layout.BoxStyle{Width: layout.Px(100), FlexShrink: 1}
		s, _, ids := build(t, parent, auto, fixedBox(100, 40))
		assert.Equal(t, 100.0, mustLayout(t, s, ids[0]).Height)
		assert.Equal(t, 40.0, mustLayout(t, s, ids[1]).Height)
	})
	t.Run("align-self overrides", func(t *testing.T) {
		self := fixedBox(100, 40)
		self.AlignSelf = layout.AlignSelfFlexEnd
		s, _, ids := build(t, parent, fixedBox(100, 40), self)
		assert.Equal(t, 0.0, mustLayout(t, s, ids[0]).Y)
		assert.Equal(t, 60.0, mustLayout(t, s, ids[1]).Y)
	})
}

func TestFlexLayoutFlexGrowAndShrink(t *testing.T) {
	t.Run("grow", func(t *testing.T) {
		a, b := fixedBox(100, 10), fixedBox(100, 10)
		a.FlexGrow, b.FlexGrow = 1, 2
		s, _, ids := build(t, flexRow(600), a, b)
		assert.InDelta(t, 233.33, mustLayout(t, s, ids[0]).Width, 0.01)
		assert.InDelta(t, 366.67, mustLayout(t, s, ids[1]).Width, 0.01)
		assert.InDelta(t, 233.33, mustLayout(t, s, ids[1]).X, 0.01)
	})
	t.Run("shrink", func(t *testing.T) {
		s, _, ids := build(t, flexRow(400), fixedBox(300, 10), fixedBox(300, 10))
		assert.Equal(t, 200.0, mustLayout(t, s, ids[0]).Width)
		assert.Equal(t, 200.0, mustLayout(t, s, ids[1]).Width)
	})
}

func TestFlexLayoutWrap(t *testing.T) {
	parent := flexRow(250)
	parent.FlexWrap = layout.FlexWrapWrap
	parent.AlignItems = layout.AlignItemsFlexStart
	kids := []layout.BoxStyle{fixedBox(100, 20), fixedBox(100, 20), fixedBox(100, 20)}

	s, root, ids := build(t, parent, kids...)
	pos := func(id layout.BoxID) [2]float64 {
		l := mustLayout(t, s, id)
		return [2]float64{l.X, l.Y}
	}
	assert.Equal(t, [2]float64{0, 0}, pos(ids[0]))
	assert.Equal(t, [2]float64{100, 0}, pos(ids[1]))
	assert.Equal(t, [2]float64{0, 20}, pos(ids[2]))
	assert.Equal(t, 40.0, mustLayout(t, s, root).Height)

	parent.FlexWrap = layout.FlexWrapWrapReverse
	s, _, ids = build(t, parent, kids...)
	assert.Equal(t, [2]float64{0, 20}, pos(ids[0]))
	assert.Equal(t, [2]float64{100, 20}, pos(ids[1]))
	assert.Equal(t, [2]float64{0, 0}, pos(ids[2]))
}

func TestFlexLayoutMargins(t *testing.T) {
	a := fixedBox(100, 20)
	a.Margin = layout.EdgeSizes{Top: 5, Left: 10, Right: 20}
	parent := flexRow(600)
	parent.Padding = layout.EdgeSizes{Top: 4, Left: 3}
	s, root, ids := build(t, parent, a, fixedBox(50, 20))

	assert.Equal(t, 13.0, mustLayout(t, s, ids[0]).X)
	assert.Equal(t, 9.0, mustLayout(t, s, ids[0]).Y)
	assert.Equal(t, 133.0, mustLayout(t, s, ids[1]).X)
	assert.Equal(t, 29.0, mustLayout(t, s, root).Height, "line cross includes margins plus top padding")
}

func TestFlexLayoutTextItems(t *testing.T) {
	text := &layout.TextMeasure{Text: "Hello World", FontSize: 16}

	t.Run("fits on one line", func(t *testing.T) {
		s := New()
		leaf, err := s.NewLeaf(layout.BoxStyle{FlexShrink: 1}, text)
		require.NoError(t, err)
		root, err := s.NewContainer(layout.BoxStyle{Kind: layout.BoxFlex, AlignItems: layout.AlignItemsFlexStart, FlexShrink: 1}, []layout.BoxID{leaf})
		require.NoError(t, err)
		require.NoError(t, s.Compute(root, layout.Size{Width: 1024, Height: 768}))

		l := mustLayout(t, s, leaf)
		assert.InDelta(t, 105.6, l.Width, 1e-6)
		assert.InDelta(t, 19.2, l.Height, 1e-6)
	})
	t.Run("shrinks and wraps", func(t *testing.T) {
		s := New()
		leaf, err := s.NewLeaf(layout.BoxStyle{FlexShrink: 1}, text)
		require.NoError(t, err)
		root, err := s.NewContainer(layout.BoxStyle{Kind: layout.BoxFlex, Width: layout.Px(60), AlignItems: layout.AlignItemsFlexStart}, []layout.BoxID{leaf})
		require.NoError(t, err)
		require.NoError(t, s.Compute(root, layout.Size{Width: 1024, Height: 768}))

		l := mustLayout(t, s, leaf)
		assert.InDelta(t, 60, l.Width, 1e-6)
		assert.InDelta(t, 38.4, l.Height, 1e-6)
	})
}

func TestFlexAbsoluteChildIsNotAnItem(t *testing.T) {
	abs := fixedBox(50, 50)
	abs.Position = layout.PositionAbsolute
	s, _, ids := build(t, flexRow(600), abs, fixedBox(100, 10))

	assert.Equal(t, 0.0, mustLayout(t, s, ids[0]).X)
	assert.Equal(t, 0.0, mustLayout(t, s, ids[1]).X, "absolute box takes no space")
}
