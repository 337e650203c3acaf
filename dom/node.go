package dom

import "strings"

// NodeID identifies a node inside a Document. IDs are stable for the
// lifetime of the document and are never reused.
type NodeID int

// InvalidNode is the zero-value parent of the root and of detached nodes.
const InvalidNode NodeID = -1

// ElementState is a bitset of dynamic UI states used by state pseudo-classes.
type ElementState uint16

const (
	StateHover ElementState = 1 << iota
	StateFocus
	StateActive
	StateDisabled
	StateChecked
	StateIndeterminate
)

// Has reports whether every bit of s2 is set in s.
func (s ElementState) Has(s2 ElementState) bool {
	return s&s2 == s2
}

func (s ElementState) String() string {
	if s == 0 {
		return "none"
	}
	names := []struct {
		bit  ElementState
		name string
	}{
		{StateHover, "hover"},
		{StateFocus, "focus"},
		{StateActive, "active"},
		{StateDisabled, "disabled"},
		{StateChecked, "checked"},
		{StateIndeterminate, "indeterminate"},
	}
	var parts []string
	for _, n := range names {
		if s.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// PseudoKind tags synthetic generated-content nodes.
type PseudoKind int

const (
	PseudoNone PseudoKind = iota
	PseudoBefore
	PseudoAfter
)

func (k PseudoKind) String() string {
	switch k {
	case PseudoBefore:
		return "before"
	case PseudoAfter:
		return "after"
	default:
		return ""
	}
}

// ParsePseudoKind maps "before"/"after" (with or without leading colons) to a kind.
func ParsePseudoKind(name string) (PseudoKind, bool) {
	switch strings.ToLower(strings.TrimLeft(name, ":")) {
	case "before":
		return PseudoBefore, true
	case "after":
		return PseudoAfter, true
	}
	return PseudoNone, false
}

// Node is a single entry of the document arena. Element nodes have a tag
// name; text nodes (including synthesized pseudo nodes) do not.
type Node struct {
	ID         NodeID
	TagName    string
	Attributes map[string]string
	Text       string
	HasText    bool
	Children   []NodeID
	Parent     NodeID
	State      ElementState
	Pseudo     PseudoKind
}

// IsElement reports whether the node carries a tag name.
func (n *Node) IsElement() bool {
	return n.TagName != ""
}

// IsText reports whether the node is a text node.
func (n *Node) IsText() bool {
	return n.TagName == ""
}

// IsPseudo reports whether the node was synthesized for ::before/::after.
func (n *Node) IsPseudo() bool {
	return n.Pseudo != PseudoNone
}

// Attribute returns the named attribute and whether it was present.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.Attributes[strings.ToLower(name)]
	return v, ok
}

// Classes splits the class attribute on whitespace.
func (n *Node) Classes() []string {
	return strings.Fields(n.Attributes["class"])
}

func (n *Node) clone() *Node {
	c := *n
	if n.Attributes != nil {
		c.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			c.Attributes[k] = v
		}
	}
	c.Children = append([]NodeID(nil), n.Children...)
	return &c
}
