// Package dom provides the arena document tree consumed by the style and
// layout passes. Nodes are addressed by NodeID; parent and child links are
// stored as ids, never as pointers.
//
// A Document is not safe for concurrent mutation. Callers guard it with a
// reader/writer lock (see render.Pipeline).
package dom

import (
	"fmt"
	"sort"
	"strings"
)

// Document owns every node of one parsed page plus the pseudo-child table
// that maps (owner, kind) to synthesized ::before/::after text nodes.
type Document struct {
	nodes          map[NodeID]*Node
	root           NodeID
	nextID         NodeID
	pseudoChildren map[NodeID]map[PseudoKind]NodeID
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		nodes:          make(map[NodeID]*Node),
		root:           InvalidNode,
		pseudoChildren: make(map[NodeID]map[PseudoKind]NodeID),
	}
}

// Root returns the root element id, or InvalidNode for an empty document.
func (d *Document) Root() NodeID {
	return d.root
}

// SetRoot marks an existing node as the document root.
func (d *Document) SetRoot(id NodeID) error {
	if _, ok := d.nodes[id]; !ok {
		return ErrNotFound(fmt.Sprintf("node %d not found", id))
	}
	d.root = id
	return nil
}

// Len returns the number of nodes, synthetic ones included.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns the node with the given id. The returned pointer must be
// treated as read-only.
func (d *Document) Node(id NodeID) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// CreateElement appends a new element under parent. Passing InvalidNode as
// parent creates a detached element which becomes the root if none is set.
func (d *Document) CreateElement(tag string, parent NodeID) (NodeID, error) {
	if tag == "" {
		return InvalidNode, ErrInvalidCharacter("element tag name is empty")
	}
	n := &Node{
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string),
	}
	return d.insert(n, parent)
}

// CreateText appends a new text node under parent.
func (d *Document) CreateText(text string, parent NodeID) (NodeID, error) {
	n := &Node{Text: text, HasText: true}
	return d.insert(n, parent)
}

func (d *Document) insert(n *Node, parent NodeID) (NodeID, error) {
	n.ID = d.nextID
	n.Parent = InvalidNode
	if parent != InvalidNode {
		p, ok := d.nodes[parent]
		if !ok {
			return InvalidNode, ErrNotFound(fmt.Sprintf("parent %d not found", parent))
		}
		if p.IsText() {
			return InvalidNode, ErrHierarchyRequest("text nodes cannot have children")
		}
		p.Children = append(p.Children, n.ID)
		n.Parent = parent
	}
	d.nextID++
	d.nodes[n.ID] = n
	if d.root == InvalidNode && parent == InvalidNode && n.IsElement() {
		d.root = n.ID
	}
	return n.ID, nil
}

// SetAttribute sets an attribute on an element. Names are case-insensitive.
func (d *Document) SetAttribute(id NodeID, name, value string) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrNotFound(fmt.Sprintf("node %d not found", id))
	}
	if !n.IsElement() {
		return ErrNotSupported("attributes on a text node")
	}
	n.Attributes[strings.ToLower(name)] = value
	return nil
}

// Attribute returns the named attribute of a node.
func (d *Document) Attribute(id NodeID, name string) (string, bool) {
	n, ok := d.nodes[id]
	if !ok {
		return "", false
	}
	return n.Attribute(name)
}

// ElementState returns the current UI state bits of a node.
func (d *Document) ElementState(id NodeID) (ElementState, bool) {
	n, ok := d.nodes[id]
	if !ok {
		return 0, false
	}
	return n.State, true
}

// SetElementState turns the given state bits on or off.
func (d *Document) SetElementState(id NodeID, state ElementState, enabled bool) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrNotFound(fmt.Sprintf("node %d not found", id))
	}
	if enabled {
		n.State |= state
	} else {
		n.State &^= state
	}
	return nil
}

// TextContent concatenates the text of a node and its real descendants.
func (d *Document) TextContent(id NodeID) string {
	var sb strings.Builder
	d.collectText(id, &sb)
	return sb.String()
}

func (d *Document) collectText(id NodeID, sb *strings.Builder) {
	n, ok := d.nodes[id]
	if !ok {
		return
	}
	if n.HasText {
		sb.WriteString(n.Text)
	}
	for _, c := range n.Children {
		d.collectText(c, sb)
	}
}

// Walk visits the real (non-synthetic) tree from the root in document
// order. Returning false from fn skips the node's subtree.
func (d *Document) Walk(fn func(n *Node) bool) {
	if d.root == InvalidNode {
		return
	}
	// explicit stack keeps deep documents off the goroutine stack
	stack := []NodeID{d.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := d.nodes[id]
		if !ok {
			continue
		}
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Elements returns every real element reachable from the root, in document order.
func (d *Document) Elements() []NodeID {
	var ids []NodeID
	d.Walk(func(n *Node) bool {
		if n.IsElement() {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}

// ParentElement returns the parent of id if it is an element.
func (d *Document) ParentElement(id NodeID) (NodeID, bool) {
	n, ok := d.nodes[id]
	if !ok || n.Parent == InvalidNode {
		return InvalidNode, false
	}
	p, ok := d.nodes[n.Parent]
	if !ok || !p.IsElement() {
		return InvalidNode, false
	}
	return p.ID, true
}

// ElementChildren returns the element children of id, skipping text.
func (d *Document) ElementChildren(id NodeID) []NodeID {
	n, ok := d.nodes[id]
	if !ok {
		return nil
	}
	var out []NodeID
	for _, c := range n.Children {
		if cn, ok := d.nodes[c]; ok && cn.IsElement() {
			out = append(out, c)
		}
	}
	return out
}

// siblingElement walks from id towards the previous (dir=-1) or next (dir=+1)
// element sibling.
func (d *Document) siblingElement(id NodeID, dir int) (NodeID, bool) {
	n, ok := d.nodes[id]
	if !ok || n.Parent == InvalidNode {
		return InvalidNode, false
	}
	p, ok := d.nodes[n.Parent]
	if !ok {
		return InvalidNode, false
	}
	idx := -1
	for i, c := range p.Children {
		if c == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return InvalidNode, false
	}
	for i := idx + dir; i >= 0 && i < len(p.Children); i += dir {
		if cn, ok := d.nodes[p.Children[i]]; ok && cn.IsElement() {
			return cn.ID, true
		}
	}
	return InvalidNode, false
}

// PreviousElementSibling returns the closest preceding element sibling.
func (d *Document) PreviousElementSibling(id NodeID) (NodeID, bool) {
	return d.siblingElement(id, -1)
}

// NextElementSibling returns the closest following element sibling.
func (d *Document) NextElementSibling(id NodeID) (NodeID, bool) {
	return d.siblingElement(id, 1)
}

// PseudoChildID returns the synthetic node registered for (owner, kind).
func (d *Document) PseudoChildID(owner NodeID, kind PseudoKind) (NodeID, bool) {
	kinds, ok := d.pseudoChildren[owner]
	if !ok {
		return InvalidNode, false
	}
	id, ok := kinds[kind]
	return id, ok
}

// PseudoChildren returns the pseudo children of owner ordered before, after.
func (d *Document) PseudoChildren(owner NodeID) []NodeID {
	kinds := d.pseudoChildren[owner]
	if len(kinds) == 0 {
		return nil
	}
	keys := make([]PseudoKind, 0, len(kinds))
	for k := range kinds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]NodeID, 0, len(keys))
	for _, k := range keys {
		out = append(out, kinds[k])
	}
	return out
}

// PseudoOwners returns every owner currently holding synthetic children.
func (d *Document) PseudoOwners() []NodeID {
	owners := make([]NodeID, 0, len(d.pseudoChildren))
	for id := range d.pseudoChildren {
		owners = append(owners, id)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// Clone returns a deep copy of the document, pseudo table included.
func (d *Document) Clone() *Document {
	c := &Document{
		nodes:          make(map[NodeID]*Node, len(d.nodes)),
		root:           d.root,
		nextID:         d.nextID,
		pseudoChildren: make(map[NodeID]map[PseudoKind]NodeID, len(d.pseudoChildren)),
	}
	for id, n := range d.nodes {
		c.nodes[id] = n.clone()
	}
	for owner, kinds := range d.pseudoChildren {
		m := make(map[PseudoKind]NodeID, len(kinds))
		for k, v := range kinds {
			m[k] = v
		}
		c.pseudoChildren[owner] = m
	}
	return c
}
