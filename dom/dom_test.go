package dom

import (
	"errors"
	"testing"
)

// buildList creates <ul> with n <li> children separated by whitespace text.
func buildList(t *testing.T, n int) (*Document, NodeID, []NodeID) {
	t.Helper()
	doc := NewDocument()
	ul, err := doc.CreateElement("ul", InvalidNode)
	if err != nil {
		t.Fatalf("CreateElement(ul) error = %v", err)
	}
	var items []NodeID
	for i := 0; i < n; i++ {
		if _, err := doc.CreateText("\n  ", ul); err != nil {
			t.Fatalf("CreateText error = %v", err)
		}
		li, err := doc.CreateElement("LI", ul)
		if err != nil {
			t.Fatalf("CreateElement(li) error = %v", err)
		}
		items = append(items, li)
	}
	return doc, ul, items
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument()
	if doc.Root() != InvalidNode {
		t.Errorf("Expected empty document root to be InvalidNode, got %d", doc.Root())
	}
	if doc.Len() != 0 {
		t.Errorf("Expected 0 nodes, got %d", doc.Len())
	}
}

func TestDocument_CreateElement(t *testing.T) {
	doc, ul, items := buildList(t, 3)

	if doc.Root() != ul {
		t.Errorf("Expected first detached element to become root, got %d", doc.Root())
	}
	n, ok := doc.Node(items[0])
	if !ok {
		t.Fatal("Node(li) not found")
	}
	if n.TagName != "li" {
		t.Errorf("Expected lowercased tag 'li', got %q", n.TagName)
	}
	if n.Parent != ul {
		t.Errorf("Expected parent %d, got %d", ul, n.Parent)
	}
	if got := doc.ElementChildren(ul); len(got) != 3 {
		t.Errorf("Expected 3 element children, got %d", len(got))
	}
}

func TestDocument_CreateUnderTextFails(t *testing.T) {
	doc := NewDocument()
	root, _ := doc.CreateElement("p", InvalidNode)
	text, _ := doc.CreateText("hi", root)

	if _, err := doc.CreateElement("span", text); err == nil {
		t.Error("Expected error when appending under a text node")
	}
	if _, err := doc.CreateText("x", NodeID(999)); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
}

func TestDocument_SiblingNavigationSkipsText(t *testing.T) {
	doc, ul, items := buildList(t, 3)

	if prev, ok := doc.PreviousElementSibling(items[0]); ok {
		t.Errorf("First item should have no previous element sibling, got %d", prev)
	}
	if prev, ok := doc.PreviousElementSibling(items[1]); !ok || prev != items[0] {
		t.Errorf("PreviousElementSibling(item2) = %d,%v; want %d", prev, ok, items[0])
	}
	if next, ok := doc.NextElementSibling(items[1]); !ok || next != items[2] {
		t.Errorf("NextElementSibling(item2) = %d,%v; want %d", next, ok, items[2])
	}
	if _, ok := doc.NextElementSibling(items[2]); ok {
		t.Error("Last item should have no next element sibling")
	}
	if p, ok := doc.ParentElement(items[2]); !ok || p != ul {
		t.Errorf("ParentElement = %d,%v; want %d", p, ok, ul)
	}
}

func TestDocument_Attributes(t *testing.T) {
	doc := NewDocument()
	div, _ := doc.CreateElement("div", InvalidNode)

	if err := doc.SetAttribute(div, "Class", "a b"); err != nil {
		t.Fatalf("SetAttribute error = %v", err)
	}
	v, ok := doc.Attribute(div, "class")
	if !ok || v != "a b" {
		t.Errorf("Attribute(class) = %q,%v", v, ok)
	}
	n, _ := doc.Node(div)
	if got := n.Classes(); len(got) != 2 || got[1] != "b" {
		t.Errorf("Classes() = %v", got)
	}

	text, _ := doc.CreateText("x", div)
	if err := doc.SetAttribute(text, "id", "t"); err == nil {
		t.Error("Expected error setting attribute on text node")
	}
}

func TestDocument_ElementState(t *testing.T) {
	doc := NewDocument()
	btn, _ := doc.CreateElement("button", InvalidNode)

	if err := doc.SetElementState(btn, StateHover|StateFocus, true); err != nil {
		t.Fatalf("SetElementState error = %v", err)
	}
	st, _ := doc.ElementState(btn)
	if !st.Has(StateHover) || !st.Has(StateFocus) {
		t.Errorf("Expected hover|focus, got %v", st)
	}

	_ = doc.SetElementState(btn, StateHover, false)
	st, _ = doc.ElementState(btn)
	if st.Has(StateHover) {
		t.Error("Hover should have been cleared")
	}
	if st.String() != "focus" {
		t.Errorf("String() = %q, want focus", st.String())
	}

	if err := doc.SetElementState(NodeID(42), StateActive, true); err == nil {
		t.Error("Expected error for unknown node")
	}
}

func TestDocument_TextContentAndWalk(t *testing.T) {
	doc := NewDocument()
	p, _ := doc.CreateElement("p", InvalidNode)
	_, _ = doc.CreateText("Hello ", p)
	b, _ := doc.CreateElement("b", p)
	_, _ = doc.CreateText("World", b)

	if got := doc.TextContent(p); got != "Hello World" {
		t.Errorf("TextContent = %q", got)
	}

	var order []NodeID
	doc.Walk(func(n *Node) bool {
		order = append(order, n.ID)
		return true
	})
	if len(order) != 4 || order[0] != p || order[2] != b {
		t.Errorf("Walk order = %v", order)
	}

	els := doc.Elements()
	if len(els) != 2 {
		t.Errorf("Elements() = %v, want 2 ids", els)
	}
}

func TestParsePseudoKind(t *testing.T) {
	tests := []struct {
		in   string
		want PseudoKind
		ok   bool
	}{
		{"before", PseudoBefore, true},
		{"::after", PseudoAfter, true},
		{":BEFORE", PseudoBefore, true},
		{"first-line", PseudoNone, false},
	}
	for _, tt := range tests {
		got, ok := ParsePseudoKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePseudoKind(%q) = %v,%v; want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
