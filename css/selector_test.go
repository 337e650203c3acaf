package css

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/stylecore/dom"
)

func TestCompileSelectorSimple(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"div", false},
		{".class", false},
		{"#id", false},
		{"*", false},
		{"div.class", false},
		{"div#id", false},
		{"div.class#id", false},
		{"div.class1.class2", false},
		{"a[href]", false},
		{"input[type=checkbox]", false},
		{"a[href^='https']", false},
		{"li:nth-child(2n+1)", false},
		{"p::before", false},
		{"p:after", false},
		{"div:not(.hidden)", false},
		{"", true},
		{"   ", true},
		{"div >", true},
		{"[", true},
		{"p:unknown-thing", true},
		{"li:nth-child(x)", true},
		{"div,", true},
	}

	for _, tt := range tests {
		sel, err := CompileSelector(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("CompileSelector(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && sel == nil {
			t.Errorf("CompileSelector(%q) returned nil selector", tt.input)
		}
	}
}

func TestCompileSelectorEmpty(t *testing.T) {
	_, err := CompileSelector("  ")
	assert.True(t, errors.Is(err, ErrEmptySelector))

	_, err = CompileSelector("div >")
	var serr *SelectorError
	assert.True(t, errors.As(err, &serr), "want *SelectorError, got %T", err)
}

func TestCompileSelectorCombinators(t *testing.T) {
	tests := []struct {
		input       string
		numCompound int
		combinator  CombinatorType
	}{
		{"div p", 2, CombinatorDescendant},
		{"div > p", 2, CombinatorChild},
		{"div>p", 2, CombinatorChild},
		{"div + p", 2, CombinatorNextSibling},
		{"div ~ p", 2, CombinatorSubsequentSibling},
		{"ul li a", 3, CombinatorDescendant},
		{"div > ul > li", 3, CombinatorChild},
	}

	for _, tt := range tests {
		sel := mustCompile(t, tt.input)
		require.Len(t, sel.Selectors, 1, tt.input)
		compounds := sel.Selectors[0].Compounds
		if assert.Len(t, compounds, tt.numCompound, tt.input) {
			assert.Equal(t, tt.combinator, compounds[0].Combinator, tt.input)
			assert.Equal(t, CombinatorNone, compounds[len(compounds)-1].Combinator, tt.input)
		}
	}
}

func TestCompileSelectorList(t *testing.T) {
	tests := []struct {
		input      string
		numComplex int
	}{
		{"div", 1},
		{"div, p", 2},
		{"h1, h2, h3", 3},
		{"ul > li, p::before", 2},
	}
	for _, tt := range tests {
		sel := mustCompile(t, tt.input)
		assert.Len(t, sel.Selectors, tt.numComplex, tt.input)
		assert.Equal(t, tt.input, sel.String())
	}
}

func TestCompileAttributeSelectors(t *testing.T) {
	tests := []struct {
		input    string
		name     string
		op       AttributeOperator
		value    string
		caseFold bool
	}{
		{"[title]", "title", AttrExists, "", false},
		{"[lang=en]", "lang", AttrEquals, "en", false},
		{`[lang="en"]`, "lang", AttrEquals, "en", false},
		{"[class~=big]", "class", AttrIncludes, "big", false},
		{"[lang|=en]", "lang", AttrDashMatch, "en", false},
		{"[href^=http]", "href", AttrPrefix, "http", false},
		{"[href$='.pdf']", "href", AttrSuffix, ".pdf", false},
		{"[title*=foo]", "title", AttrSubstring, "foo", false},
		{"[type=TEXT i]", "type", AttrEquals, "TEXT", true},
	}
	for _, tt := range tests {
		sel := mustCompile(t, tt.input)
		attrs := sel.Selectors[0].Compounds[0].AttributeMatchers
		require.Len(t, attrs, 1, tt.input)
		assert.Equal(t, tt.name, attrs[0].Name, tt.input)
		assert.Equal(t, tt.op, attrs[0].Operator, tt.input)
		assert.Equal(t, tt.value, attrs[0].Value, tt.input)
		assert.Equal(t, tt.caseFold, attrs[0].CaseInsensitive, tt.input)
	}
}

func TestPseudoElementKind(t *testing.T) {
	tests := []struct {
		input string
		kind  dom.PseudoKind
	}{
		{"p::before", dom.PseudoBefore},
		{"p::after", dom.PseudoAfter},
		{"p:before", dom.PseudoBefore},
		{"p::first-line", dom.PseudoNone},
		{"p", dom.PseudoNone},
	}
	for _, tt := range tests {
		sel := mustCompile(t, tt.input)
		assert.Equal(t, tt.kind, sel.Selectors[0].PseudoElement().Kind(), tt.input)
	}

	assert.True(t, mustCompile(t, "a, p::after").HasPseudoElement())
	assert.False(t, mustCompile(t, "a, p").HasPseudoElement())
}

func TestSpecificityCalculation(t *testing.T) {
	tests := []struct {
		selector string
		want     Specificity
	}{
		{"*", Specificity{0, 0, 0}},
		{"p", Specificity{0, 0, 1}},
		{"div p", Specificity{0, 0, 2}},
		{".class", Specificity{0, 1, 0}},
		{"p.class", Specificity{0, 1, 1}},
		{"#id", Specificity{1, 0, 0}},
		{"#id.class", Specificity{1, 1, 0}},
		{"#id .class p", Specificity{1, 1, 1}},
		{"p[attr]", Specificity{0, 1, 1}},
		{"p:first-child", Specificity{0, 1, 1}},
		{"p::before", Specificity{0, 0, 2}},
		{"#a #b .c .d p span", Specificity{2, 2, 2}},
		{"li:not(#x)", Specificity{1, 0, 1}},
		{"li:is(.a, #b)", Specificity{1, 0, 1}},
		{"li:where(#b)", Specificity{0, 0, 1}},
		{"li:nth-child(2n+1)", Specificity{0, 1, 1}},
	}

	for _, tt := range tests {
		sel := mustCompile(t, tt.selector)
		got := sel.Selectors[0].CalculateSpecificity()
		if got != tt.want {
			t.Errorf("Specificity(%q) = %+v, want %+v", tt.selector, got, tt.want)
		}
	}
}

func TestSpecificityComparison(t *testing.T) {
	tests := []struct {
		a, b Specificity
		want int
	}{
		{Specificity{0, 0, 1}, Specificity{0, 0, 1}, 0},
		{Specificity{0, 1, 0}, Specificity{0, 0, 9}, 1},
		{Specificity{1, 0, 0}, Specificity{0, 9, 9}, 1},
		{Specificity{0, 0, 2}, Specificity{0, 1, 0}, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Compare(tt.b), "%+v vs %+v", tt.a, tt.b)
		// The collapsed value must order the same way.
		va, vb := tt.a.Value(), tt.b.Value()
		switch tt.want {
		case 1:
			assert.Greater(t, va, vb)
		case -1:
			assert.Less(t, va, vb)
		default:
			assert.Equal(t, va, vb)
		}
	}
}

func TestSpecificityValueSaturates(t *testing.T) {
	big := Specificity{A: 5000, B: 5000, C: 5000}
	assert.Equal(t, uint32(1023<<20|1023<<10|1023), big.Value())
	assert.Less(t, big.Value(), InlineSpecificity)
}

func TestParseAnPlusB(t *testing.T) {
	tests := []struct {
		input string
		a, b  int
		ok    bool
	}{
		{"odd", 2, 1, true},
		{"even", 2, 0, true},
		{"3", 0, 3, true},
		{"2n+1", 2, 1, true},
		{"2n + 1", 2, 1, true},
		{"-n+3", -1, 3, true},
		{"n", 1, 0, true},
		{"3n-2", 3, -2, true},
		{"", 0, 0, false},
		{"abc", 0, 0, false},
	}
	for _, tt := range tests {
		a, b, ok := parseAnPlusB(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		if tt.ok {
			assert.Equal(t, tt.a, a, tt.input)
			assert.Equal(t, tt.b, b, tt.input)
		}
	}
}

func TestMatchAnPlusB(t *testing.T) {
	tests := []struct {
		a, b int
		hits []int
	}{
		{2, 1, []int{1, 3, 5}},
		{2, 0, []int{2, 4, 6}},
		{0, 3, []int{3}},
		{-1, 3, []int{1, 2, 3}},
		{3, -2, []int{1, 4}},
	}
	for _, tt := range tests {
		var got []int
		for pos := 1; pos <= 6; pos++ {
			if matchAnPlusB(tt.a, tt.b, pos) {
				got = append(got, pos)
			}
		}
		assert.Equal(t, tt.hits, got, "%dn%+d", tt.a, tt.b)
	}
}
