package css

import (
	"errors"
	"fmt"
	"strings"

	csslex "github.com/tdewolff/parse/v2/css"

	"github.com/chrisuehlinger/stylecore/dom"
)

// ErrEmptySelector is returned when compiling blank selector text.
var ErrEmptySelector = errors.New("empty selector")

// SelectorError describes why selector text failed to compile.
type SelectorError struct {
	Selector string
	Reason   string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %s", e.Selector, e.Reason)
}

// SelectorList is a compiled, comma-separated selector group.
type SelectorList struct {
	Text      string
	Selectors []*ComplexSelector

	memo *matchMemo
}

// ComplexSelector is a chain of compound selectors separated by combinators.
type ComplexSelector struct {
	Compounds []*CompoundSelector
}

// CompoundSelector is a sequence of simple selectors.
type CompoundSelector struct {
	TypeSelector      *TypeSelector
	IDSelectors       []string
	ClassSelectors    []string
	AttributeMatchers []*AttributeMatcher
	PseudoClasses     []*PseudoClassSelector
	PseudoElement     *PseudoElementSelector
	Combinator        CombinatorType // Combinator following this compound selector
}

// CombinatorType represents the type of combinator.
type CombinatorType int

const (
	CombinatorNone              CombinatorType = iota
	CombinatorDescendant                       // (whitespace)
	CombinatorChild                            // >
	CombinatorNextSibling                      // +
	CombinatorSubsequentSibling                // ~
)

// TypeSelector represents a type (tag) selector.
type TypeSelector struct {
	Name string // "*" for universal, or lowercased tag name
}

// AttributeMatcher represents an attribute selector.
type AttributeMatcher struct {
	Name            string
	Operator        AttributeOperator
	Value           string
	CaseInsensitive bool
}

// AttributeOperator represents the operator in an attribute selector.
type AttributeOperator int

const (
	AttrExists    AttributeOperator = iota // [attr]
	AttrEquals                             // [attr=value]
	AttrIncludes                           // [attr~=value]
	AttrDashMatch                          // [attr|=value]
	AttrPrefix                             // [attr^=value]
	AttrSuffix                             // [attr$=value]
	AttrSubstring                          // [attr*=value]
)

// PseudoClassSelector represents a pseudo-class.
type PseudoClassSelector struct {
	Name     string
	Argument string        // For functional pseudo-classes like :nth-child(2n+1)
	Selector *SelectorList // For :not(), :is(), :where()

	a, b int // parsed An+B for nth-* pseudo-classes
}

// PseudoElementSelector represents a pseudo-element.
type PseudoElementSelector struct {
	Name string
}

// Kind maps the pseudo-element onto the generated-content kinds the engine
// synthesizes. Unsupported pseudo-elements report PseudoNone.
func (pe *PseudoElementSelector) Kind() dom.PseudoKind {
	if pe == nil {
		return dom.PseudoNone
	}
	k, _ := dom.ParsePseudoKind(pe.Name)
	return k
}

// PseudoElement returns the pseudo-element of the subject compound, if any.
func (cs *ComplexSelector) PseudoElement() *PseudoElementSelector {
	if len(cs.Compounds) == 0 {
		return nil
	}
	return cs.Compounds[len(cs.Compounds)-1].PseudoElement
}

// HasPseudoElement reports whether any selector in the list targets a pseudo-element.
func (s *SelectorList) HasPseudoElement() bool {
	for _, cs := range s.Selectors {
		if cs.PseudoElement() != nil {
			return true
		}
	}
	return false
}

// String returns the source text of the list.
func (s *SelectorList) String() string {
	return s.Text
}

// CompileSelector compiles selector text into a matchable list. Empty or
// unparsable text fails.
func CompileSelector(text string) (*SelectorList, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptySelector
	}
	p := &SelectorParser{tokens: tokenize(text), source: text}
	list, err := p.parseSelectorList()
	if err != nil {
		return nil, err
	}
	list.Text = text
	list.memo = newMatchMemo()
	return list, nil
}

// SelectorParser parses CSS selectors from lexed tokens.
type SelectorParser struct {
	tokens []Token
	pos    int
	source string
}

func (p *SelectorParser) current() Token {
	if p.pos >= len(p.tokens) {
		return eofToken
	}
	return p.tokens[p.pos]
}

func (p *SelectorParser) peek(offset int) Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) || pos < 0 {
		return eofToken
	}
	return p.tokens[pos]
}

func (p *SelectorParser) consume() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *SelectorParser) atEOF() bool {
	return p.pos >= len(p.tokens)
}

func (p *SelectorParser) skipWhitespace() bool {
	skipped := false
	for p.current().Type == csslex.WhitespaceToken {
		p.consume()
		skipped = true
	}
	return skipped
}

func (p *SelectorParser) fail(format string, args ...any) error {
	return &SelectorError{Selector: p.source, Reason: fmt.Sprintf(format, args...)}
}

// parseSelectorList parses a comma-separated list of complex selectors.
func (p *SelectorParser) parseSelectorList() (*SelectorList, error) {
	list := &SelectorList{}
	p.skipWhitespace()

	for {
		complex, err := p.parseComplexSelector()
		if err != nil {
			return nil, err
		}
		list.Selectors = append(list.Selectors, complex)

		p.skipWhitespace()
		if p.current().Type == csslex.CommaToken {
			p.consume()
			p.skipWhitespace()
			continue
		}
		break
	}

	if !p.atEOF() {
		return nil, p.fail("unexpected %q", p.current().Data)
	}
	return list, nil
}

// parseComplexSelector parses compounds joined by combinators.
func (p *SelectorParser) parseComplexSelector() (*ComplexSelector, error) {
	complex := &ComplexSelector{}

	for {
		compound, err := p.parseCompoundSelector()
		if err != nil {
			return nil, err
		}
		if compound == nil {
			if len(complex.Compounds) == 0 {
				return nil, p.fail("expected selector, found %q", p.current().Data)
			}
			return nil, p.fail("dangling combinator")
		}
		complex.Compounds = append(complex.Compounds, compound)

		hadWhitespace := p.skipWhitespace()
		tok := p.current()

		switch {
		case tok.isDelim('>'):
			compound.Combinator = CombinatorChild
		case tok.isDelim('+'):
			compound.Combinator = CombinatorNextSibling
		case tok.isDelim('~'):
			compound.Combinator = CombinatorSubsequentSibling
		case tok.Type == csslex.CommaToken, tok.Type == csslex.RightParenthesisToken, p.atEOF():
			return complex, nil
		case hadWhitespace:
			compound.Combinator = CombinatorDescendant
		default:
			return nil, p.fail("unexpected %q", tok.Data)
		}

		if compound.PseudoElement != nil {
			return nil, p.fail("pseudo-element must be last")
		}
		if compound.Combinator != CombinatorDescendant {
			p.consume()
			p.skipWhitespace()
		}
	}
}

// parseCompoundSelector parses one compound. It returns nil when no simple
// selector starts at the current position.
func (p *SelectorParser) parseCompoundSelector() (*CompoundSelector, error) {
	compound := &CompoundSelector{}
	hasContent := false

	switch tok := p.current(); {
	case tok.Type == csslex.IdentToken:
		p.consume()
		compound.TypeSelector = &TypeSelector{Name: strings.ToLower(tok.Data)}
		hasContent = true
	case tok.isDelim('*'):
		p.consume()
		compound.TypeSelector = &TypeSelector{Name: "*"}
		hasContent = true
	}

	for {
		tok := p.current()
		switch {
		case tok.Type == csslex.HashToken:
			p.consume()
			compound.IDSelectors = append(compound.IDSelectors, unescape(tok.Data[1:]))
			hasContent = true

		case tok.isDelim('.'):
			p.consume()
			name := p.current()
			if name.Type != csslex.IdentToken {
				return nil, p.fail("expected class name after '.'")
			}
			p.consume()
			compound.ClassSelectors = append(compound.ClassSelectors, unescape(name.Data))
			hasContent = true

		case tok.Type == csslex.LeftBracketToken:
			attr, err := p.parseAttributeSelector()
			if err != nil {
				return nil, err
			}
			compound.AttributeMatchers = append(compound.AttributeMatchers, attr)
			hasContent = true

		case tok.Type == csslex.ColonToken:
			if compound.PseudoElement != nil {
				return nil, p.fail("pseudo-class after pseudo-element")
			}
			p.consume()
			if p.current().Type == csslex.ColonToken {
				p.consume()
				pe, err := p.parsePseudoElement()
				if err != nil {
					return nil, err
				}
				compound.PseudoElement = pe
			} else if name := p.current().Data; p.current().Type == csslex.IdentToken && isLegacyPseudoElement(name) {
				p.consume()
				compound.PseudoElement = &PseudoElementSelector{Name: strings.ToLower(name)}
			} else {
				pc, err := p.parsePseudoClass()
				if err != nil {
					return nil, err
				}
				compound.PseudoClasses = append(compound.PseudoClasses, pc)
			}
			hasContent = true

		default:
			if !hasContent {
				return nil, nil
			}
			return compound, nil
		}
	}
}

func isLegacyPseudoElement(name string) bool {
	switch strings.ToLower(name) {
	case "before", "after", "first-line", "first-letter":
		return true
	}
	return false
}

// parseAttributeSelector parses [name], [name op value] and [name op value i].
func (p *SelectorParser) parseAttributeSelector() (*AttributeMatcher, error) {
	p.consume() // [
	p.skipWhitespace()

	name := p.current()
	if name.Type != csslex.IdentToken {
		return nil, p.fail("expected attribute name")
	}
	p.consume()
	attr := &AttributeMatcher{Name: strings.ToLower(name.Data)}
	p.skipWhitespace()

	tok := p.current()
	if tok.Type == csslex.RightBracketToken {
		p.consume()
		attr.Operator = AttrExists
		return attr, nil
	}

	switch {
	case tok.isDelim('='):
		attr.Operator = AttrEquals
	case tok.Type == csslex.IncludeMatchToken:
		attr.Operator = AttrIncludes
	case tok.Type == csslex.DashMatchToken:
		attr.Operator = AttrDashMatch
	case tok.Type == csslex.PrefixMatchToken:
		attr.Operator = AttrPrefix
	case tok.Type == csslex.SuffixMatchToken:
		attr.Operator = AttrSuffix
	case tok.Type == csslex.SubstringMatchToken:
		attr.Operator = AttrSubstring
	default:
		return nil, p.fail("unknown attribute operator %q", tok.Data)
	}
	p.consume()
	p.skipWhitespace()

	switch val := p.current(); val.Type {
	case csslex.StringToken:
		attr.Value = unquote(val.Data)
	case csslex.IdentToken, csslex.NumberToken, csslex.DimensionToken:
		attr.Value = val.Data
	default:
		return nil, p.fail("expected attribute value")
	}
	p.consume()
	p.skipWhitespace()

	if flag := p.current(); flag.Type == csslex.IdentToken {
		switch strings.ToLower(flag.Data) {
		case "i":
			attr.CaseInsensitive = true
		case "s":
		default:
			return nil, p.fail("unknown attribute flag %q", flag.Data)
		}
		p.consume()
		p.skipWhitespace()
	}

	if p.current().Type != csslex.RightBracketToken {
		return nil, p.fail("unterminated attribute selector")
	}
	p.consume()
	return attr, nil
}

var knownPseudoClasses = map[string]bool{
	"first-child": true, "last-child": true, "only-child": true,
	"first-of-type": true, "last-of-type": true, "only-of-type": true,
	"root": true, "empty": true,
	"hover": true, "focus": true, "active": true, "focus-within": true,
	"disabled": true, "enabled": true, "checked": true, "indeterminate": true,
	"link": true, "any-link": true, "visited": true,
	"required": true, "optional": true, "read-only": true, "read-write": true,
	"placeholder-shown": true,
}

// parsePseudoClass parses a pseudo-class after its colon.
func (p *SelectorParser) parsePseudoClass() (*PseudoClassSelector, error) {
	tok := p.current()
	switch tok.Type {
	case csslex.IdentToken:
		p.consume()
		name := strings.ToLower(tok.Data)
		if !knownPseudoClasses[name] {
			return nil, p.fail("unsupported pseudo-class :%s", name)
		}
		return &PseudoClassSelector{Name: name}, nil

	case csslex.FunctionToken:
		p.consume()
		pc := &PseudoClassSelector{Name: tok.functionName()}
		args := p.collectFunctionArgs()
		if args == nil {
			return nil, p.fail("unterminated :%s(", pc.Name)
		}

		switch pc.Name {
		case "not", "is", "where", "matches":
			inner := &SelectorParser{tokens: args, source: p.source}
			list, err := inner.parseSelectorList()
			if err != nil {
				return nil, err
			}
			list.Text = joinTokens(args)
			pc.Selector = list
		case "nth-child", "nth-last-child", "nth-of-type", "nth-last-of-type":
			pc.Argument = strings.ToLower(joinTokens(args))
			a, b, ok := parseAnPlusB(pc.Argument)
			if !ok {
				return nil, p.fail("invalid An+B %q", pc.Argument)
			}
			pc.a, pc.b = a, b
		default:
			return nil, p.fail("unsupported pseudo-class :%s()", pc.Name)
		}
		return pc, nil
	}
	return nil, p.fail("expected pseudo-class name")
}

// collectFunctionArgs consumes tokens up to the matching ')' and returns
// them, or nil if the input ends first.
func (p *SelectorParser) collectFunctionArgs() []Token {
	args := []Token{}
	depth := 1
	for !p.atEOF() {
		tok := p.consume()
		switch tok.Type {
		case csslex.FunctionToken, csslex.LeftParenthesisToken:
			depth++
		case csslex.RightParenthesisToken:
			depth--
			if depth == 0 {
				return trimWhitespace(args)
			}
		}
		args = append(args, tok)
	}
	return nil
}

// parsePseudoElement parses a pseudo-element after "::".
func (p *SelectorParser) parsePseudoElement() (*PseudoElementSelector, error) {
	tok := p.current()
	if tok.Type != csslex.IdentToken {
		return nil, p.fail("expected pseudo-element name")
	}
	p.consume()
	return &PseudoElementSelector{Name: strings.ToLower(tok.Data)}, nil
}

// Specificity represents CSS selector specificity.
// Per https://www.w3.org/TR/selectors-4/#specificity
type Specificity struct {
	A int // ID selectors
	B int // Class selectors, attribute selectors, pseudo-classes
	C int // Type selectors, pseudo-elements
}

// Compare compares two specificities. Returns -1, 0, or 1.
func (s Specificity) Compare(other Specificity) int {
	switch {
	case s.A != other.A:
		return cmpInt(s.A, other.A)
	case s.B != other.B:
		return cmpInt(s.B, other.B)
	default:
		return cmpInt(s.C, other.C)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// Less returns true if this specificity is less than the other.
func (s Specificity) Less(other Specificity) bool {
	return s.Compare(other) < 0
}

// Value collapses the triple into one ordered integer, 10 bits per
// component. Components saturate at 1023.
func (s Specificity) Value() uint32 {
	clamp := func(v int) uint32 {
		if v > 1023 {
			return 1023
		}
		if v < 0 {
			return 0
		}
		return uint32(v)
	}
	return clamp(s.A)<<20 | clamp(s.B)<<10 | clamp(s.C)
}

func (s Specificity) add(o Specificity) Specificity {
	return Specificity{A: s.A + o.A, B: s.B + o.B, C: s.C + o.C}
}

// CalculateSpecificity calculates the specificity of a complex selector.
// :is()/:not() take the specificity of their most specific argument,
// :where() contributes nothing.
func (cs *ComplexSelector) CalculateSpecificity() Specificity {
	var spec Specificity
	for _, compound := range cs.Compounds {
		spec.A += len(compound.IDSelectors)
		spec.B += len(compound.ClassSelectors)
		spec.B += len(compound.AttributeMatchers)
		for _, pc := range compound.PseudoClasses {
			switch {
			case pc.Name == "where":
			case pc.Selector != nil:
				spec = spec.add(pc.Selector.maxSpecificity())
			default:
				spec.B++
			}
		}
		if compound.TypeSelector != nil && compound.TypeSelector.Name != "*" {
			spec.C++
		}
		if compound.PseudoElement != nil {
			spec.C++
		}
	}
	return spec
}

func (s *SelectorList) maxSpecificity() Specificity {
	var maxSpec Specificity
	for _, cs := range s.Selectors {
		if spec := cs.CalculateSpecificity(); maxSpec.Less(spec) {
			maxSpec = spec
		}
	}
	return maxSpec
}
