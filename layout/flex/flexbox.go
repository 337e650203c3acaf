package flex

import (
	"github.com/chrisuehlinger/stylecore/layout"
)

// flexItem holds item-specific data during flex calculations.
type flexItem struct {
	id        layout.BoxID
	node      *node
	grow      float64
	shrink    float64
	alignSelf layout.AlignSelf

	hypotheticalMain float64
	targetMain       float64
	mainSize         float64
	crossSize        float64

	mainMarginStart, mainMarginEnd   float64
	crossMarginStart, crossMarginEnd float64
}

func (it *flexItem) outerMain() float64 {
	return it.mainSize + it.mainMarginStart + it.mainMarginEnd
}

// flexLine represents a line in flex layout (for wrap).
type flexLine struct {
	items     []*flexItem
	mainSize  float64
	crossSize float64
}

// container holds flex container state for one layout call.
type container struct {
	direction  layout.FlexDirection
	wrap       layout.FlexWrap
	justify    layout.JustifyContent
	alignItems layout.AlignItems
	isRow      bool

	// contentW and contentH are the container's content size; contentH is
	// negative when auto.
	contentW, contentH float64
}

func newContainer(st layout.BoxStyle, contentW, contentH float64) *container {
	return &container{
		direction:  st.FlexDirection,
		wrap:       st.FlexWrap,
		justify:    st.JustifyContent,
		alignItems: st.AlignItems,
		isRow:      st.FlexDirection.IsRow(),
		contentW:   contentW,
		contentH:   contentH,
	}
}

// layoutFlex performs the flexbox layout algorithm and returns the auto
// content height.
func (s *Solver) layoutFlex(n *node, contentW, contentH float64) float64 {
	c := newContainer(n.style, contentW, contentH)
	in := insets(n)

	availMain, availCross := contentW, contentH
	if !c.isRow {
		availMain, availCross = contentH, contentW
	}

	items := s.collectFlexItems(n, c, in)
	if len(items) == 0 {
		return 0
	}

	for _, item := range items {
		s.hypotheticalMainSize(item, c)
	}

	lines := collectFlexLines(items, c, availMain)

	if availMain >= 0 {
		for _, line := range lines {
			resolveFlexibleLengths(line, availMain)
		}
	} else {
		for _, item := range items {
			item.mainSize = item.hypotheticalMain
		}
	}

	for _, line := range lines {
		s.determineLineCrossSize(line, c)
	}
	if len(lines) == 1 && c.wrap == layout.FlexWrapNowrap && availCross >= 0 {
		lines[0].crossSize = availCross
	}
	for _, line := range lines {
		s.stretchItems(line, c)
	}

	usedMain := availMain
	if usedMain < 0 {
		usedMain = columnMainExtent(lines)
	}
	infos := make([]justifyInfo, len(lines))
	for i, line := range lines {
		infos[i] = justifyMainAxis(line, c, usedMain)
	}

	positionFlexItems(lines, c, infos, usedMain, in)

	if c.isRow {
		var totalCross float64
		for _, line := range lines {
			totalCross += line.crossSize
		}
		return totalCross
	}
	return usedMain
}

// collectFlexItems gathers in-flow children as items. Out-of-flow
// children are laid out shrink-to-fit at the content origin.
func (s *Solver) collectFlexItems(n *node, c *container, in layout.EdgeSizes) []*flexItem {
	items := make([]*flexItem, 0, len(n.children))
	for _, cid := range n.children {
		child := s.nodes[cid]
		m := child.style.Margin
		if child.style.Position.IsOutOfFlow() {
			s.layoutBox(cid, s.fitContentWidth(cid, c.contentW), -1, c.contentH)
			child.layout.X = in.Left + m.Left
			child.layout.Y = in.Top + m.Top
			continue
		}
		item := &flexItem{
			id:        cid,
			node:      child,
			grow:      child.style.FlexGrow,
			shrink:    child.style.FlexShrink,
			alignSelf: child.style.AlignSelf.Resolve(c.alignItems),
		}
		if c.isRow {
			item.mainMarginStart, item.mainMarginEnd = m.Left, m.Right
			item.crossMarginStart, item.crossMarginEnd = m.Top, m.Bottom
		} else {
			item.mainMarginStart, item.mainMarginEnd = m.Top, m.Bottom
			item.crossMarginStart, item.crossMarginEnd = m.Left, m.Right
		}
		items = append(items, item)
	}
	return items
}

// hypotheticalMainSize uses the definite main size when present, else the
// content size: max-content width for rows, laid-out height for columns.
func (s *Solver) hypotheticalMainSize(item *flexItem, c *container) {
	var size float64
	if c.isRow {
		if w, ok := definiteWidth(item.node, c.contentW); ok {
			size = w
		} else {
			size = s.intrinsicWidth(item.id, layout.MaxContent)
		}
	} else {
		if h, ok := definiteHeight(item.node, c.contentH); ok {
			size = h
		} else {
			size = s.layoutBox(item.id, s.columnItemWidth(item, c), -1, c.contentH)
		}
	}
	item.hypotheticalMain = size
	item.mainSize = size
}

// columnItemWidth is the cross size of an item in a column container.
func (s *Solver) columnItemWidth(item *flexItem, c *container) float64 {
	if w, ok := definiteWidth(item.node, c.contentW); ok {
		return w
	}
	room := max(c.contentW-item.crossMarginStart-item.crossMarginEnd, 0)
	if item.alignSelf == layout.AlignSelfStretch {
		return room
	}
	return s.fitContentWidth(item.id, c.contentW)
}

// collectFlexLines groups flex items into flex lines. An indefinite main
// size keeps every item on one line.
func collectFlexLines(items []*flexItem, c *container, availMain float64) []*flexLine {
	if len(items) == 0 {
		return nil
	}
	if c.wrap == layout.FlexWrapNowrap || availMain < 0 {
		return []*flexLine{{items: items}}
	}

	var lines []*flexLine
	var current *flexLine
	var currentMain float64
	for _, item := range items {
		outer := item.hypotheticalMain + item.mainMarginStart + item.mainMarginEnd
		switch {
		case current == nil:
			current = &flexLine{items: []*flexItem{item}}
			currentMain = outer
		case currentMain+outer > availMain+1e-6:
			lines = append(lines, current)
			current = &flexLine{items: []*flexItem{item}}
			currentMain = outer
		default:
			current.items = append(current.items, item)
			currentMain += outer
		}
	}
	if current != nil {
		lines = append(lines, current)
	}

	if c.wrap == layout.FlexWrapWrapReverse {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	return lines
}

// resolveFlexibleLengths distributes free space by flex-grow, or overflow
// by flex-shrink weighted with the hypothetical size.
func resolveFlexibleLengths(line *flexLine, availMain float64) {
	items := line.items
	if len(items) == 0 {
		return
	}

	usedMain := 0.0
	for _, item := range items {
		usedMain += item.hypotheticalMain + item.mainMarginStart + item.mainMarginEnd
	}
	freeSpace := availMain - usedMain
	growing := freeSpace > 0

	totalFlex := 0.0
	for _, item := range items {
		item.targetMain = item.hypotheticalMain
		if growing {
			totalFlex += item.grow
		} else {
			totalFlex += item.shrink * item.hypotheticalMain
		}
	}

	if totalFlex == 0 || freeSpace == 0 {
		for _, item := range items {
			item.mainSize = item.hypotheticalMain
		}
		return
	}

	for _, item := range items {
		if growing {
			if item.grow > 0 {
				item.targetMain = item.hypotheticalMain + freeSpace*item.grow/totalFlex
			}
		} else if item.shrink > 0 {
			item.targetMain = item.hypotheticalMain + freeSpace*(item.shrink*item.hypotheticalMain)/totalFlex
		}
		item.mainSize = max(item.targetMain, 0)
	}
}

// determineLineCrossSize lays each item out at its main size and takes the
// largest outer cross size.
func (s *Solver) determineLineCrossSize(line *flexLine, c *container) {
	maxCross := 0.0
	for _, item := range line.items {
		if c.isRow {
			item.crossSize = s.layoutBox(item.id, item.mainSize, -1, c.contentH)
		} else {
			w := s.columnItemWidth(item, c)
			s.layoutBox(item.id, w, item.mainSize, c.contentH)
			item.crossSize = w
		}
		maxCross = max(maxCross, item.crossSize+item.crossMarginStart+item.crossMarginEnd)
	}
	line.crossSize = maxCross
}

// stretchItems grows auto-sized stretch items to the line's cross size.
func (s *Solver) stretchItems(line *flexLine, c *container) {
	for _, item := range line.items {
		if item.alignSelf != layout.AlignSelfStretch {
			continue
		}
		st := item.node.style
		if (c.isRow && !st.Height.IsAuto()) || (!c.isRow && !st.Width.IsAuto()) {
			continue
		}
		target := max(line.crossSize-item.crossMarginStart-item.crossMarginEnd, 0)
		if target == item.crossSize {
			continue
		}
		if c.isRow {
			s.layoutBox(item.id, item.mainSize, target, c.contentH)
		} else {
			s.layoutBox(item.id, target, item.mainSize, c.contentH)
		}
		item.crossSize = target
	}
}

// justifyInfo holds justify-content spacing for a line.
type justifyInfo struct {
	startOffset  float64
	betweenSpace float64
}

// justifyMainAxis calculates spacing for justify-content without moving
// items.
func justifyMainAxis(line *flexLine, c *container, availMain float64) justifyInfo {
	var info justifyInfo
	if len(line.items) == 0 {
		return info
	}

	usedMain := 0.0
	for _, item := range line.items {
		usedMain += item.outerMain()
	}
	line.mainSize = usedMain
	freeSpace := max(availMain-usedMain, 0)
	numItems := len(line.items)

	switch c.justify {
	case layout.JustifyFlexEnd:
		info.startOffset = freeSpace
	case layout.JustifyCenter:
		info.startOffset = freeSpace / 2
	case layout.JustifySpaceBetween:
		if numItems > 1 {
			info.betweenSpace = freeSpace / float64(numItems-1)
		}
	case layout.JustifySpaceAround:
		info.betweenSpace = freeSpace / float64(numItems)
		info.startOffset = info.betweenSpace / 2
	case layout.JustifySpaceEvenly:
		info.betweenSpace = freeSpace / float64(numItems+1)
		info.startOffset = info.betweenSpace
	}
	return info
}

// positionFlexItems sets each item's offset inside the container's border
// box. Reverse directions start from the main-end edge.
func positionFlexItems(lines []*flexLine, c *container, infos []justifyInfo, containerMain float64, in layout.EdgeSizes) {
	reverse := c.direction.IsReverse()
	var crossPos float64

	for i, line := range lines {
		info := infos[i]
		mainPos := info.startOffset
		if reverse {
			mainPos = containerMain - info.startOffset
		}

		for _, item := range line.items {
			var itemMain float64
			if reverse {
				mainPos -= item.mainMarginEnd + item.mainSize
				itemMain = mainPos
				mainPos -= item.mainMarginStart + info.betweenSpace
			} else {
				itemMain = mainPos + item.mainMarginStart
				mainPos = itemMain + item.mainSize + item.mainMarginEnd + info.betweenSpace
			}

			var itemCross float64
			switch item.alignSelf {
			case layout.AlignSelfFlexEnd:
				itemCross = crossPos + line.crossSize - item.crossSize - item.crossMarginEnd
			case layout.AlignSelfCenter:
				free := line.crossSize - item.crossSize - item.crossMarginStart - item.crossMarginEnd
				itemCross = crossPos + item.crossMarginStart + free/2
			default:
				itemCross = crossPos + item.crossMarginStart
			}

			l := &item.node.layout
			if c.isRow {
				l.X = in.Left + itemMain
				l.Y = in.Top + itemCross
			} else {
				l.X = in.Left + itemCross
				l.Y = in.Top + itemMain
			}
		}
		crossPos += line.crossSize
	}
}

// columnMainExtent is the auto main size of a column container: its
// longest line.
func columnMainExtent(lines []*flexLine) float64 {
	var extent float64
	for _, line := range lines {
		var sum float64
		for _, item := range line.items {
			sum += item.outerMain()
		}
		extent = max(extent, sum)
	}
	return extent
}
