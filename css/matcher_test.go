package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/stylecore/dom"
)

func TestStructuralPseudoClasses(t *testing.T) {
	doc, _, items := newListDocument(t, 4)

	tests := []struct {
		selector string
		want     []bool
	}{
		{"li:first-child", []bool{true, false, false, false}},
		{"li:last-child", []bool{false, false, false, true}},
		{"li:nth-child(2)", []bool{false, true, false, false}},
		{"li:nth-child(odd)", []bool{true, false, true, false}},
		{"li:nth-child(even)", []bool{false, true, false, true}},
		{"li:nth-last-child(1)", []bool{false, false, false, true}},
		{"li:nth-child(-n+2)", []bool{true, true, false, false}},
		{"li:only-child", []bool{false, false, false, false}},
		{"li:first-of-type", []bool{true, false, false, false}},
		{"li:not(:first-child)", []bool{false, true, true, true}},
		{"li:is(:first-child, :last-child)", []bool{true, false, false, true}},
	}

	for _, tt := range tests {
		sel := mustCompile(t, tt.selector)
		for i, id := range items {
			_, got := sel.Matches(mustElement(t, doc, id))
			assert.Equal(t, tt.want[i], got, "%s on item %d", tt.selector, i+1)
		}
	}
}

func TestCombinators(t *testing.T) {
	doc := dom.NewDocument()
	html := addElement(t, doc, dom.InvalidNode, "html")
	body := addElement(t, doc, html, "body")
	div := addElement(t, doc, body, "div", "class", "outer")
	p := addElement(t, doc, div, "p", "id", "first")
	span := addElement(t, doc, p, "span")
	h2 := addElement(t, doc, div, "h2")
	p2 := addElement(t, doc, div, "p")

	tests := []struct {
		selector string
		id       dom.NodeID
		want     bool
	}{
		{"div span", span, true},
		{"body span", span, true},
		{"div > span", span, false},
		{"p > span", p, false},
		{"div > p", p, true},
		{"#first + h2", h2, true},
		{"#first + p", p2, false},
		{"#first ~ p", p2, true},
		{"h2 ~ #first", p, false},
		{".outer p span", span, true},
		{"section p", p, false},
		{"html:root", html, true},
		{"body:root", body, false},
		{"span:empty", span, true},
		{"div:empty", div, false},
	}
	for _, tt := range tests {
		sel := mustCompile(t, tt.selector)
		_, got := sel.Matches(mustElement(t, doc, tt.id))
		assert.Equal(t, tt.want, got, tt.selector)
	}
}

func TestAttributeMatching(t *testing.T) {
	doc := dom.NewDocument()
	root := addElement(t, doc, dom.InvalidNode, "div")
	a := addElement(t, doc, root, "a",
		"href", "https://example.com/doc.pdf",
		"lang", "en-US",
		"class", "big red",
		"title", "")

	tests := []struct {
		selector string
		want     bool
	}{
		{"[href]", true},
		{"[rel]", false},
		{"[lang=en-US]", true},
		{"[lang=en]", false},
		{"[lang|=en]", true},
		{"[class~=red]", true},
		{"[class~=re]", false},
		{"[href^=https]", true},
		{"[href$='.pdf']", true},
		{"[href*=example]", true},
		{"[href*=nope]", false},
		{"[lang='EN-us' i]", true},
		{"[lang='EN-us']", false},
		{"[title]", true},
		{"[title^='']", false},
		{"[title$='']", false},
		{"[title*='']", false},
	}
	el := mustElement(t, doc, a)
	for _, tt := range tests {
		_, got := mustCompile(t, tt.selector).Matches(el)
		assert.Equal(t, tt.want, got, tt.selector)
	}
}

func TestStatePseudoClasses(t *testing.T) {
	doc := dom.NewDocument()
	form := addElement(t, doc, dom.InvalidNode, "form")
	btn := addElement(t, doc, form, "button")
	input := addElement(t, doc, form, "input", "type", "checkbox", "checked", "")
	off := addElement(t, doc, form, "input", "type", "text", "disabled", "")

	require.NoError(t, doc.SetElementState(btn, dom.StateHover|dom.StateFocus, true))

	tests := []struct {
		selector string
		id       dom.NodeID
		want     bool
	}{
		{"button:hover", btn, true},
		{"button:focus", btn, true},
		{"button:active", btn, false},
		{"form:focus-within", form, true},
		{"input:checked", input, true},
		{"input:checked", off, false},
		{"input:disabled", off, true},
		{"input:enabled", off, false},
		{"input:enabled", input, true},
		{"button:disabled", btn, false},
		{"a:visited", btn, false},
	}
	for _, tt := range tests {
		_, got := mustCompile(t, tt.selector).Matches(mustElement(t, doc, tt.id))
		assert.Equal(t, tt.want, got, tt.selector)
	}

	// State set through the bitset alone.
	require.NoError(t, doc.SetElementState(btn, dom.StateDisabled, true))
	_, got := mustCompile(t, "button:disabled").Matches(mustElement(t, doc, btn))
	assert.True(t, got)
}

func TestReadOnlyPseudoClasses(t *testing.T) {
	doc := dom.NewDocument()
	root := addElement(t, doc, dom.InvalidNode, "div", "contenteditable", "true")
	text := addElement(t, doc, root, "textarea")
	locked := addElement(t, doc, root, "input", "readonly", "")
	off := addElement(t, doc, root, "select", "disabled", "")
	fieldset := addElement(t, doc, root, "fieldset")

	tests := []struct {
		name string
		id   dom.NodeID
		want bool
	}{
		{"contenteditable div", root, true},
		{"textarea", text, false},
		{"readonly input", locked, true},
		{"disabled select", off, true},
		{"fieldset", fieldset, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := mustElement(t, doc, tt.id)
			_, ro := mustCompile(t, ":read-only").Matches(el)
			_, rw := mustCompile(t, ":read-write").Matches(el)
			assert.Equal(t, tt.want, ro)
			assert.Equal(t, !tt.want, rw)
		})
	}
}

func TestMatchesReturnsMaxSpecificity(t *testing.T) {
	doc := dom.NewDocument()
	root := addElement(t, doc, dom.InvalidNode, "div")
	p := addElement(t, doc, root, "p", "id", "x", "class", "c")

	sel := mustCompile(t, "p, .c, #x, h1")
	spec, ok := sel.Matches(mustElement(t, doc, p))
	require.True(t, ok)
	assert.Equal(t, Specificity{A: 1}.Value(), spec)

	_, ok = mustCompile(t, "h1, h2").Matches(mustElement(t, doc, p))
	assert.False(t, ok)
}

func TestPseudoElementSelectorsMatchOwner(t *testing.T) {
	doc := dom.NewDocument()
	root := addElement(t, doc, dom.InvalidNode, "div")
	p := addElement(t, doc, root, "p", "class", "note")
	el := mustElement(t, doc, p)

	sel := mustCompile(t, "p.note::before")
	_, ok := sel.Matches(el)
	assert.False(t, ok, "pseudo-element selectors never match the element itself")

	spec, ok := sel.MatchesPseudo(el, dom.PseudoBefore)
	assert.True(t, ok)
	assert.Equal(t, Specificity{B: 1, C: 2}.Value(), spec)

	_, ok = sel.MatchesPseudo(el, dom.PseudoAfter)
	assert.False(t, ok)
}

func TestMatchMemoReset(t *testing.T) {
	doc := dom.NewDocument()
	root := addElement(t, doc, dom.InvalidNode, "div")
	b := addElement(t, doc, root, "button")
	el := mustElement(t, doc, b)

	sel := mustCompile(t, "button:hover")
	_, ok := sel.Matches(el)
	require.False(t, ok)

	require.NoError(t, doc.SetElementState(b, dom.StateHover, true))
	_, ok = sel.Matches(el)
	assert.False(t, ok, "memoized result is reused until reset")

	sel.ResetMemo()
	_, ok = sel.Matches(el)
	assert.True(t, ok)
}

func TestSelectorCacheEviction(t *testing.T) {
	cache := NewSelectorCache()

	cache.BeginParse()
	a, err := cache.Compile("div")
	require.NoError(t, err)
	_, err = cache.Compile("p")
	require.NoError(t, err)
	_, err = cache.Compile("div >")
	require.Error(t, err)
	assert.Equal(t, 0, cache.EndParse())
	assert.Equal(t, 3, cache.Len())

	cache.BeginParse()
	again, err := cache.Compile("div")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, 2, cache.EndParse())
	assert.Equal(t, 1, cache.Len())
}
