package layout

import (
	"strings"

	"github.com/chrisuehlinger/stylecore/css"
	"github.com/chrisuehlinger/stylecore/dom"
)

// StyleSource supplies cascaded property maps. *css.Engine implements it.
type StyleSource interface {
	ComputedStyle(id dom.NodeID) (map[string]string, bool)
	PseudoStyle(owner dom.NodeID, kind dom.PseudoKind) (*css.PseudoStyle, bool)
}

// ResolveStyles computes the final style of every node that produces a box.
// Nodes absent from the result are pruned: display:none elements with
// their subtrees and pseudo children, non-rendering tags and empty text.
func ResolveStyles(doc *dom.Document, src StyleSource, viewport Size) map[dom.NodeID]*ComputedStyle {
	r := &resolver{
		doc:      doc,
		src:      src,
		viewport: viewport,
		styles:   make(map[dom.NodeID]*ComputedStyle),
	}
	if root := doc.Root(); root != dom.InvalidNode {
		r.resolve(root, nil)
	}
	return r.styles
}

type resolver struct {
	doc      *dom.Document
	src      StyleSource
	viewport Size
	styles   map[dom.NodeID]*ComputedStyle
}

func (r *resolver) resolve(id dom.NodeID, parent *ComputedStyle) {
	n, ok := r.doc.Node(id)
	if !ok {
		return
	}
	if n.IsText() {
		r.resolveText(n, parent)
		return
	}
	if nonRenderingTags[n.TagName] {
		return
	}

	cs := DefaultComputedStyle()
	applyTagDefaults(cs, n.TagName)
	inherit(cs, parent)
	if props, ok := r.src.ComputedStyle(id); ok {
		applyProperties(cs, props, resolveContext{parent: parent, viewport: r.viewport})
	}
	if id == r.doc.Root() {
		cs.Display = DisplayBlock
		cs.Width = Px(r.viewport.Width)
		cs.Height = Px(r.viewport.Height)
	}
	if cs.Display == DisplayNone {
		return
	}
	r.styles[id] = cs

	r.resolvePseudo(id, dom.PseudoBefore, cs)
	for _, c := range n.Children {
		r.resolve(c, cs)
	}
	r.resolvePseudo(id, dom.PseudoAfter, cs)
}

func (r *resolver) resolveText(n *dom.Node, parent *ComputedStyle) {
	if strings.TrimSpace(n.Text) == "" {
		return
	}
	cs := DefaultComputedStyle()
	cs.Display = DisplayInline
	inherit(cs, parent)
	r.styles[n.ID] = cs
}

// resolvePseudo styles the synthesized node for (owner, kind). Pseudo
// boxes default to inline and inherit from their owner.
func (r *resolver) resolvePseudo(owner dom.NodeID, kind dom.PseudoKind, ownerStyle *ComputedStyle) {
	id, ok := r.doc.PseudoChildID(owner, kind)
	if !ok {
		return
	}
	n, ok := r.doc.Node(id)
	if !ok || strings.TrimSpace(n.Text) == "" {
		return
	}
	cs := DefaultComputedStyle()
	cs.Display = DisplayInline
	inherit(cs, ownerStyle)
	if ps, ok := r.src.PseudoStyle(owner, kind); ok {
		props := make(map[string]string, len(ps.Properties))
		for k, v := range ps.Properties {
			if k != "content" {
				props[k] = v
			}
		}
		applyProperties(cs, props, resolveContext{parent: ownerStyle, viewport: r.viewport})
	}
	if cs.Display == DisplayNone {
		return
	}
	r.styles[id] = cs
}
