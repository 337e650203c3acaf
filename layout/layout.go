// Package layout resolves cascaded properties into per-node computed
// styles, builds the box tree handed to a geometry Solver and extracts
// absolute geometry back out of it.
package layout

import "github.com/chrisuehlinger/stylecore/dom"

// Rect represents a rectangular area.
type Rect struct {
	X, Y, Width, Height float64
}

// EdgeSizes represents the sizes of edges (top, right, bottom, left).
type EdgeSizes struct {
	Top, Right, Bottom, Left float64
}

// Horizontal returns Left + Right.
func (e EdgeSizes) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns Top + Bottom.
func (e EdgeSizes) Vertical() float64 { return e.Top + e.Bottom }

// Add sums two edge sets side by side.
func (e EdgeSizes) Add(o EdgeSizes) EdgeSizes {
	return EdgeSizes{Top: e.Top + o.Top, Right: e.Right + o.Right, Bottom: e.Bottom + o.Bottom, Left: e.Left + o.Left}
}

// ExpandedBy returns a rectangle expanded by the given edge sizes.
func (r Rect) ExpandedBy(edge EdgeSizes) Rect {
	return Rect{
		X:      r.X - edge.Left,
		Y:      r.Y - edge.Top,
		Width:  r.Width + edge.Left + edge.Right,
		Height: r.Height + edge.Top + edge.Bottom,
	}
}

// ShrunkBy returns a rectangle inset by the given edge sizes. Sizes never
// go negative.
func (r Rect) ShrunkBy(edge EdgeSizes) Rect {
	out := Rect{
		X:      r.X + edge.Left,
		Y:      r.Y + edge.Top,
		Width:  r.Width - edge.Left - edge.Right,
		Height: r.Height - edge.Top - edge.Bottom,
	}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// Result is the absolute geometry of one node: its border box and the
// content box inside padding and border.
type Result struct {
	X, Y, Width, Height float64
	Content             Rect
}

// BorderBox returns the border box as a Rect.
func (r Result) BorderBox() Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// RenderInfo is one entry of the paint list.
type RenderInfo struct {
	Layout Result
	NodeID dom.NodeID
	Tag    string
	Text   string
	ZIndex int
	Style  *ComputedStyle
}
