package flex

import "github.com/chrisuehlinger/stylecore/layout"

func insets(n *node) layout.EdgeSizes {
	return n.style.Padding.Add(n.style.Border)
}

// definiteWidth returns the border-box width fixed by the style, resolving
// percentages against ref (negative when unknown).
func definiteWidth(n *node, ref float64) (float64, bool) {
	w, ok := n.style.Width.Resolve(ref)
	if !ok {
		return 0, false
	}
	return w + insets(n).Horizontal(), true
}

func definiteHeight(n *node, ref float64) (float64, bool) {
	h, ok := n.style.Height.Resolve(ref)
	if !ok {
		return 0, false
	}
	return h + insets(n).Vertical(), true
}

// blockChildWidth is the border-box width of a box in block flow: its own
// width when definite, otherwise the container width minus margins.
func (s *Solver) blockChildWidth(n *node, containerW float64) float64 {
	if w, ok := definiteWidth(n, containerW); ok {
		return w
	}
	return max(containerW-n.style.Margin.Horizontal(), 0)
}

// fitContentWidth shrinks an auto-width box to its content, bounded by the
// room left in the container.
func (s *Solver) fitContentWidth(id layout.BoxID, containerW float64) float64 {
	n := s.nodes[id]
	if w, ok := definiteWidth(n, containerW); ok {
		return w
	}
	room := max(containerW-n.style.Margin.Horizontal(), 0)
	minW := s.intrinsicWidth(id, layout.MinContent)
	maxW := s.intrinsicWidth(id, layout.MaxContent)
	return max(minW, min(maxW, room))
}

// layoutBox lays out id with the given border-box width. A negative
// height means auto. parentH is the containing block's definite content
// height, or negative. It returns the border-box height.
func (s *Solver) layoutBox(id layout.BoxID, width, height, parentH float64) float64 {
	n := s.nodes[id]
	in := insets(n)
	contentW := max(width-in.Horizontal(), 0)

	contentH := -1.0
	if height >= 0 {
		contentH = max(height-in.Vertical(), 0)
	} else if h, ok := definiteHeight(n, parentH); ok {
		height = h
		contentH = max(h-in.Vertical(), 0)
	}

	var autoH float64
	switch {
	case n.measure != nil:
		known := layout.Size{Width: contentW}
		avH := layout.MaxContent
		if contentH >= 0 {
			known.Height = contentH
			avH = layout.Definite(contentH)
		}
		autoH = n.measure.Measure(known, layout.Definite(contentW), avH).Height
	case n.style.Kind == layout.BoxFlex:
		autoH = s.layoutFlex(n, contentW, contentH)
	default:
		autoH = s.layoutBlock(n, contentW, contentH)
	}

	if height < 0 {
		height = autoH + in.Vertical()
	}
	n.layout.Width = width
	n.layout.Height = height
	n.layout.Padding = n.style.Padding
	n.layout.Border = n.style.Border
	return height
}

// layoutBlock stacks in-flow children vertically and returns the content
// height. Margins do not collapse. Out-of-flow children sit at the content
// origin, shrink-to-fit, and take no space.
func (s *Solver) layoutBlock(n *node, contentW, contentH float64) float64 {
	in := insets(n)
	var y float64
	for _, cid := range n.children {
		c := s.nodes[cid]
		m := c.style.Margin
		if c.style.Position.IsOutOfFlow() {
			s.layoutBox(cid, s.fitContentWidth(cid, contentW), -1, contentH)
			c.layout.X = in.Left + m.Left
			c.layout.Y = in.Top + m.Top
			continue
		}
		h := s.layoutBox(cid, s.blockChildWidth(c, contentW), -1, contentH)
		c.layout.X = in.Left + m.Left
		c.layout.Y = in.Top + y + m.Top
		y += m.Top + h + m.Bottom
	}
	return y
}

// intrinsicWidth returns the min- or max-content border-box width of id.
func (s *Solver) intrinsicWidth(id layout.BoxID, mode layout.AvailableSpace) float64 {
	n := s.nodes[id]
	in := insets(n)
	if w, ok := n.style.Width.Resolve(-1); ok {
		return w + in.Horizontal()
	}

	var content float64
	switch {
	case n.measure != nil:
		content = n.measure.Measure(layout.Size{}, mode, layout.MaxContent).Width
	case n.style.Kind == layout.BoxFlex && n.style.FlexDirection.IsRow():
		sum := mode.Kind == layout.SpaceMaxContent || n.style.FlexWrap == layout.FlexWrapNowrap
		for _, cid := range n.children {
			c := s.nodes[cid]
			if c.style.Position.IsOutOfFlow() {
				continue
			}
			w := s.intrinsicWidth(cid, mode) + c.style.Margin.Horizontal()
			if sum {
				content += w
			} else {
				content = max(content, w)
			}
		}
	default:
		for _, cid := range n.children {
			c := s.nodes[cid]
			content = max(content, s.intrinsicWidth(cid, mode)+c.style.Margin.Horizontal())
		}
	}
	return content + in.Horizontal()
}
