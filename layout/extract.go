package layout

import (
	"fmt"
	"sort"

	"github.com/chrisuehlinger/stylecore/dom"
)

// Extract walks the computed box tree and returns absolute geometry per
// node. Offsets accumulate through anonymous containers so their children
// land where the solver placed them.
func Extract(tree *BoxTree, solver Solver) (map[dom.NodeID]Result, error) {
	results := make(map[dom.NodeID]Result, len(tree.boxOf))
	var walk func(box BoxID, originX, originY float64) error
	walk = func(box BoxID, originX, originY float64) error {
		l, err := solver.Layout(box)
		if err != nil {
			return fmt.Errorf("extract box %d: %w", box, err)
		}
		x, y := originX+l.X, originY+l.Y
		if id, ok := tree.nodeOf[box]; ok {
			border := Rect{X: x, Y: y, Width: l.Width, Height: l.Height}
			results[id] = Result{
				X:       x,
				Y:       y,
				Width:   l.Width,
				Height:  l.Height,
				Content: border.ShrunkBy(l.Border.Add(l.Padding)),
			}
		}
		for _, c := range tree.children[box] {
			if err := walk(c, x, y); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(tree.Root, 0, 0); err != nil {
		return nil, err
	}
	return results, nil
}

// RenderList orders boxed nodes for painting: tree order, then stably by
// z-index.
func RenderList(doc *dom.Document, tree *BoxTree, results map[dom.NodeID]Result, styles map[dom.NodeID]*ComputedStyle) []RenderInfo {
	list := make([]RenderInfo, 0, len(tree.order))
	for _, id := range tree.order {
		r, ok := results[id]
		if !ok {
			continue
		}
		n, ok := doc.Node(id)
		if !ok {
			continue
		}
		info := RenderInfo{Layout: r, NodeID: id, Tag: n.TagName, Style: styles[id]}
		if n.IsText() {
			info.Text = n.Text
		}
		if info.Style != nil {
			info.ZIndex = info.Style.ZIndex
		}
		list = append(list, info)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].ZIndex < list[j].ZIndex })
	return list
}
