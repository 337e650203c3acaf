package css

import (
	"strings"

	"github.com/chrisuehlinger/stylecore/dom"
)

// Element is the read-only view of a node the matcher needs. Navigation
// methods only ever return element nodes; text siblings are skipped.
type Element interface {
	LocalName() string
	ID() string
	HasClass(name string) bool
	Attribute(name string) (string, bool)
	Parent() (Element, bool)
	PrevSibling() (Element, bool)
	NextSibling() (Element, bool)
	Children() []Element
	State() dom.ElementState
	IsRoot() bool
	IsEmpty() bool
	// OpaqueKey identifies the element for match memoization.
	OpaqueKey() dom.NodeID
}

// NodeElement adapts an element node of a dom.Document to Element.
type NodeElement struct {
	doc  *dom.Document
	node *dom.Node
}

// NewNodeElement wraps id. It returns false for text nodes and unknown ids.
func NewNodeElement(doc *dom.Document, id dom.NodeID) (NodeElement, bool) {
	n, ok := doc.Node(id)
	if !ok || !n.IsElement() {
		return NodeElement{}, false
	}
	return NodeElement{doc: doc, node: n}, true
}

func (e NodeElement) wrap(id dom.NodeID, ok bool) (Element, bool) {
	if !ok {
		return nil, false
	}
	el, ok := NewNodeElement(e.doc, id)
	if !ok {
		return nil, false
	}
	return el, true
}

func (e NodeElement) LocalName() string { return e.node.TagName }

func (e NodeElement) ID() string { return e.node.Attributes["id"] }

func (e NodeElement) HasClass(name string) bool {
	for _, c := range e.node.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

func (e NodeElement) Attribute(name string) (string, bool) {
	return e.node.Attribute(name)
}

func (e NodeElement) Parent() (Element, bool) {
	return e.wrap(e.doc.ParentElement(e.node.ID))
}

func (e NodeElement) PrevSibling() (Element, bool) {
	return e.wrap(e.doc.PreviousElementSibling(e.node.ID))
}

func (e NodeElement) NextSibling() (Element, bool) {
	return e.wrap(e.doc.NextElementSibling(e.node.ID))
}

func (e NodeElement) Children() []Element {
	ids := e.doc.ElementChildren(e.node.ID)
	out := make([]Element, 0, len(ids))
	for _, id := range ids {
		if el, ok := NewNodeElement(e.doc, id); ok {
			out = append(out, el)
		}
	}
	return out
}

func (e NodeElement) State() dom.ElementState { return e.node.State }

func (e NodeElement) IsRoot() bool {
	return e.doc.Root() == e.node.ID
}

// IsEmpty reports whether the element has no element children and no
// non-empty text children.
func (e NodeElement) IsEmpty() bool {
	for _, id := range e.node.Children {
		c, ok := e.doc.Node(id)
		if !ok {
			continue
		}
		if c.IsElement() || c.Text != "" {
			return false
		}
	}
	return true
}

func (e NodeElement) OpaqueKey() dom.NodeID { return e.node.ID }

func isFormControl(el Element) bool {
	switch el.LocalName() {
	case "button", "input", "select", "textarea", "option", "optgroup", "fieldset":
		return true
	}
	return false
}

func isDisabled(el Element) bool {
	if el.State().Has(dom.StateDisabled) {
		return true
	}
	_, ok := el.Attribute("disabled")
	return ok
}

func isEnabled(el Element) bool {
	return isFormControl(el) && !isDisabled(el)
}

func isChecked(el Element) bool {
	switch el.LocalName() {
	case "option":
		_, ok := el.Attribute("selected")
		return ok
	case "input":
		typ, _ := el.Attribute("type")
		switch strings.ToLower(typ) {
		case "checkbox", "radio":
			if el.State().Has(dom.StateChecked) {
				return true
			}
			_, ok := el.Attribute("checked")
			return ok
		}
	}
	return false
}

func isLink(el Element) bool {
	switch el.LocalName() {
	case "a", "area", "link":
		_, ok := el.Attribute("href")
		return ok
	}
	return false
}

// isReadOnly treats everything but an enabled, writable form control as
// read-only. contenteditable is not consulted.
func isReadOnly(el Element) bool {
	switch el.LocalName() {
	case "input", "textarea", "select", "button", "option":
	default:
		return true
	}
	if _, ok := el.Attribute("readonly"); ok {
		return true
	}
	return isDisabled(el)
}

func hasFocusWithin(el Element) bool {
	if el.State().Has(dom.StateFocus) {
		return true
	}
	for _, c := range el.Children() {
		if hasFocusWithin(c) {
			return true
		}
	}
	return false
}
