package layout

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/stylecore/dom"
)

// inlineRunStyle is the style of the anonymous container wrapping a run of
// inline-level boxes.
var inlineRunStyle = BoxStyle{
	Kind:          BoxFlex,
	FlexDirection: FlexDirectionRow,
	FlexWrap:      FlexWrapWrap,
	AlignItems:    AlignItemsFlexStart,
	FlexShrink:    1,
}

// BoxTree is the solver tree of one pass together with the mapping back to
// document nodes. Anonymous containers have no node.
type BoxTree struct {
	Root     BoxID
	nodeOf   map[BoxID]dom.NodeID
	boxOf    map[dom.NodeID]BoxID
	children map[BoxID][]BoxID
	// order lists boxed nodes in paint order: owner, ::before, children, ::after.
	order []dom.NodeID
}

// BoxFor returns the box built for a node.
func (t *BoxTree) BoxFor(id dom.NodeID) (BoxID, bool) {
	b, ok := t.boxOf[id]
	return b, ok
}

// NodeFor returns the node a box was built for; anonymous boxes report false.
func (t *BoxTree) NodeFor(b BoxID) (dom.NodeID, bool) {
	id, ok := t.nodeOf[b]
	return id, ok
}

// Children returns the child boxes of b in order.
func (t *BoxTree) Children(b BoxID) []BoxID {
	return t.children[b]
}

// Len returns the number of boxes in the tree, anonymous ones included.
func (t *BoxTree) Len() int {
	return len(t.children)
}

type builder struct {
	log    *zap.Logger
	doc    *dom.Document
	styles map[dom.NodeID]*ComputedStyle
	solver Solver
	tree   *BoxTree
	// created lists every recorded box, anonymous ones included, so a
	// rejected subtree can be rolled back.
	created []BoxID
}

// BuildBoxTree creates one solver box per styled node under the document
// root. A node the solver rejects is dropped together with its subtree.
func BuildBoxTree(log *zap.Logger, doc *dom.Document, styles map[dom.NodeID]*ComputedStyle, solver Solver) (*BoxTree, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{
		log:    log,
		doc:    doc,
		styles: styles,
		solver: solver,
		tree: &BoxTree{
			nodeOf:   make(map[BoxID]dom.NodeID),
			boxOf:    make(map[dom.NodeID]BoxID),
			children: make(map[BoxID][]BoxID),
		},
	}
	root := doc.Root()
	if root == dom.InvalidNode {
		return nil, ErrNoRoot
	}
	box, ok := b.build(root)
	if !ok {
		return nil, fmt.Errorf("%w: root node %d produced no box", ErrNoRoot, root)
	}
	b.tree.Root = box
	return b.tree, nil
}

func (b *builder) build(id dom.NodeID) (BoxID, bool) {
	cs, ok := b.styles[id]
	if !ok {
		return 0, false
	}
	n, ok := b.doc.Node(id)
	if !ok {
		return 0, false
	}

	pos, mark := len(b.tree.order), len(b.created)
	b.tree.order = append(b.tree.order, id)

	var box BoxID
	var err error
	if n.IsText() {
		box, err = b.solver.NewLeaf(leafStyle(cs), NewTextMeasure(n.Text, cs))
		if err == nil {
			b.record(box, id, nil)
		}
	} else {
		children := b.buildChildren(id)
		box, err = b.solver.NewContainer(boxStyle(cs), children)
		if err == nil {
			b.record(box, id, children)
		}
	}
	if err != nil {
		b.log.Debug("Dropped box",
			zap.Int("node", int(id)),
			zap.String("tag", n.TagName),
			zap.Error(err))
		for _, bx := range b.created[mark:] {
			if node, ok := b.tree.nodeOf[bx]; ok {
				delete(b.tree.boxOf, node)
			}
			delete(b.tree.nodeOf, bx)
			delete(b.tree.children, bx)
		}
		b.created = b.created[:mark]
		b.tree.order = b.tree.order[:pos]
		return 0, false
	}
	return box, true
}

// buildChildren builds ::before, the real children and ::after, wrapping
// each run of consecutive inline-level boxes in an anonymous container.
// The run is flushed at every block-level box and at the end of the list,
// flex containers included.
func (b *builder) buildChildren(id dom.NodeID) []BoxID {
	n, _ := b.doc.Node(id)
	kids := make([]dom.NodeID, 0, len(n.Children)+2)
	if p, ok := b.doc.PseudoChildID(id, dom.PseudoBefore); ok {
		kids = append(kids, p)
	}
	kids = append(kids, n.Children...)
	if p, ok := b.doc.PseudoChildID(id, dom.PseudoAfter); ok {
		kids = append(kids, p)
	}

	var boxes, run []BoxID
	flush := func() {
		if len(run) == 0 {
			return
		}
		anon, err := b.solver.NewContainer(inlineRunStyle, run)
		if err != nil {
			b.log.Debug("Dropped inline run", zap.Int("owner", int(id)), zap.Error(err))
			run = nil
			return
		}
		b.record(anon, dom.InvalidNode, run)
		boxes = append(boxes, anon)
		run = nil
	}

	for _, kid := range kids {
		box, ok := b.build(kid)
		if !ok {
			continue
		}
		ks := b.styles[kid]
		if ks.Display.IsInlineLevel() && !ks.Position.IsOutOfFlow() {
			run = append(run, box)
			continue
		}
		flush()
		boxes = append(boxes, box)
	}
	flush()
	return boxes
}

func (b *builder) record(box BoxID, id dom.NodeID, children []BoxID) {
	if id != dom.InvalidNode {
		b.tree.nodeOf[box] = id
		b.tree.boxOf[id] = box
	}
	b.tree.children[box] = children
	b.created = append(b.created, box)
}

// boxStyle converts a computed style into solver terms.
func boxStyle(cs *ComputedStyle) BoxStyle {
	kind := BoxBlock
	if cs.Display.IsFlexContainer() {
		kind = BoxFlex
	}
	return BoxStyle{
		Kind:           kind,
		Position:       cs.Position,
		Width:          cs.Width,
		Height:         cs.Height,
		Margin:         cs.Margin,
		Padding:        cs.Padding,
		Border:         cs.Border,
		FlexDirection:  cs.FlexDirection,
		FlexWrap:       cs.FlexWrap,
		JustifyContent: cs.JustifyContent,
		AlignItems:     cs.AlignItems,
		AlignSelf:      cs.AlignSelf,
		FlexGrow:       cs.FlexGrow,
		FlexShrink:     cs.FlexShrink,
	}
}

// leafStyle is the style of a text leaf: auto-sized, shrinkable.
func leafStyle(cs *ComputedStyle) BoxStyle {
	return BoxStyle{Kind: BoxBlock, FlexShrink: 1, AlignSelf: cs.AlignSelf}
}
