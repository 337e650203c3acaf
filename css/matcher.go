package css

import (
	"strconv"
	"strings"
	"sync"

	"github.com/chrisuehlinger/stylecore/dom"
)

type memoEntry struct {
	spec    uint32
	matched bool
}

// matchMemo caches per-element results of SelectorList.Matches for the
// duration of one cascade pass.
type matchMemo struct {
	mu      sync.Mutex
	entries map[dom.NodeID]memoEntry
}

func newMatchMemo() *matchMemo {
	return &matchMemo{entries: make(map[dom.NodeID]memoEntry)}
}

func (m *matchMemo) get(key dom.NodeID) (memoEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *matchMemo) put(key dom.NodeID, e memoEntry) {
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

func (m *matchMemo) reset() {
	m.mu.Lock()
	m.entries = make(map[dom.NodeID]memoEntry)
	m.mu.Unlock()
}

// ResetMemo drops cached match results. Call it whenever the document or
// element states change.
func (s *SelectorList) ResetMemo() {
	if s.memo != nil {
		s.memo.reset()
	}
}

// Matches evaluates the list against el and returns the highest
// specificity among matching selectors. Selectors targeting a
// pseudo-element never match the element itself.
func (s *SelectorList) Matches(el Element) (uint32, bool) {
	key := el.OpaqueKey()
	if s.memo != nil {
		if e, ok := s.memo.get(key); ok {
			return e.spec, e.matched
		}
	}

	var best uint32
	matched := false
	for _, cs := range s.Selectors {
		if cs.PseudoElement() != nil {
			continue
		}
		if cs.MatchElement(el) {
			if v := cs.CalculateSpecificity().Value(); !matched || v > best {
				best = v
			}
			matched = true
		}
	}

	if s.memo != nil {
		s.memo.put(key, memoEntry{spec: best, matched: matched})
	}
	return best, matched
}

// MatchesPseudo evaluates only the selectors ending in the given
// pseudo-element against the originating element el.
func (s *SelectorList) MatchesPseudo(el Element, kind dom.PseudoKind) (uint32, bool) {
	if kind == dom.PseudoNone {
		return 0, false
	}
	var best uint32
	matched := false
	for _, cs := range s.Selectors {
		if cs.PseudoElement().Kind() != kind {
			continue
		}
		if cs.MatchElement(el) {
			if v := cs.CalculateSpecificity().Value(); !matched || v > best {
				best = v
			}
			matched = true
		}
	}
	return best, matched
}

// matchAny reports whether any selector of the list matches el. Used for
// selector arguments of :not() and :is().
func (s *SelectorList) matchAny(el Element) bool {
	for _, cs := range s.Selectors {
		if cs.MatchElement(el) {
			return true
		}
	}
	return false
}

// MatchElement tests if a complex selector matches an element. The
// pseudo-element of the subject compound is not considered.
func (cs *ComplexSelector) MatchElement(el Element) bool {
	if len(cs.Compounds) == 0 {
		return false
	}

	// Start from the last compound selector (the subject)
	i := len(cs.Compounds) - 1
	current := el

	if !cs.Compounds[i].MatchElement(current) {
		return false
	}

	// Work backwards through the compound selectors
	for i > 0 {
		combinator := cs.Compounds[i-1].Combinator
		i--

		switch combinator {
		case CombinatorDescendant:
			matched := false
			for ancestor, ok := current.Parent(); ok; ancestor, ok = ancestor.Parent() {
				if cs.Compounds[i].MatchElement(ancestor) {
					current = ancestor
					matched = true
					break
				}
			}
			if !matched {
				return false
			}

		case CombinatorChild:
			parent, ok := current.Parent()
			if !ok || !cs.Compounds[i].MatchElement(parent) {
				return false
			}
			current = parent

		case CombinatorNextSibling:
			prev, ok := current.PrevSibling()
			if !ok || !cs.Compounds[i].MatchElement(prev) {
				return false
			}
			current = prev

		case CombinatorSubsequentSibling:
			matched := false
			for prev, ok := current.PrevSibling(); ok; prev, ok = prev.PrevSibling() {
				if cs.Compounds[i].MatchElement(prev) {
					current = prev
					matched = true
					break
				}
			}
			if !matched {
				return false
			}

		default:
			return false
		}
	}

	return true
}

// MatchElement tests if a compound selector matches an element.
func (c *CompoundSelector) MatchElement(el Element) bool {
	if c.TypeSelector != nil && c.TypeSelector.Name != "*" && el.LocalName() != c.TypeSelector.Name {
		return false
	}

	for _, id := range c.IDSelectors {
		if el.ID() != id {
			return false
		}
	}

	for _, class := range c.ClassSelectors {
		if !el.HasClass(class) {
			return false
		}
	}

	for _, attr := range c.AttributeMatchers {
		if !matchAttributeSelector(attr, el) {
			return false
		}
	}

	for _, pc := range c.PseudoClasses {
		if !matchPseudoClass(pc, el) {
			return false
		}
	}

	return true
}

func matchAttributeSelector(attr *AttributeMatcher, el Element) bool {
	attrValue, ok := el.Attribute(attr.Name)
	if !ok {
		return false
	}
	if attr.Operator == AttrExists {
		return true
	}

	matchValue := attr.Value
	if attr.CaseInsensitive {
		attrValue = strings.ToLower(attrValue)
		matchValue = strings.ToLower(matchValue)
	}

	switch attr.Operator {
	case AttrEquals:
		return attrValue == matchValue
	case AttrIncludes:
		for _, word := range strings.Fields(attrValue) {
			if word == matchValue {
				return true
			}
		}
		return false
	case AttrDashMatch:
		return attrValue == matchValue || strings.HasPrefix(attrValue, matchValue+"-")
	case AttrPrefix:
		return matchValue != "" && strings.HasPrefix(attrValue, matchValue)
	case AttrSuffix:
		return matchValue != "" && strings.HasSuffix(attrValue, matchValue)
	case AttrSubstring:
		return matchValue != "" && strings.Contains(attrValue, matchValue)
	}
	return false
}

func matchPseudoClass(pc *PseudoClassSelector, el Element) bool {
	switch pc.Name {
	case "root":
		return el.IsRoot()

	case "empty":
		return el.IsEmpty()

	case "first-child":
		_, ok := el.PrevSibling()
		return !ok

	case "last-child":
		_, ok := el.NextSibling()
		return !ok

	case "only-child":
		_, prev := el.PrevSibling()
		_, next := el.NextSibling()
		return !prev && !next

	case "first-of-type":
		return siblingPosition(el, false, true) == 1

	case "last-of-type":
		return siblingPosition(el, true, true) == 1

	case "only-of-type":
		return siblingPosition(el, false, true) == 1 && siblingPosition(el, true, true) == 1

	case "nth-child":
		return matchAnPlusB(pc.a, pc.b, siblingPosition(el, false, false))

	case "nth-last-child":
		return matchAnPlusB(pc.a, pc.b, siblingPosition(el, true, false))

	case "nth-of-type":
		return matchAnPlusB(pc.a, pc.b, siblingPosition(el, false, true))

	case "nth-last-of-type":
		return matchAnPlusB(pc.a, pc.b, siblingPosition(el, true, true))

	case "not":
		return pc.Selector == nil || !pc.Selector.matchAny(el)

	case "is", "where", "matches":
		return pc.Selector != nil && pc.Selector.matchAny(el)

	case "hover":
		return el.State().Has(dom.StateHover)

	case "focus":
		return el.State().Has(dom.StateFocus)

	case "focus-within":
		return hasFocusWithin(el)

	case "active":
		return el.State().Has(dom.StateActive)

	case "indeterminate":
		return el.State().Has(dom.StateIndeterminate)

	case "disabled":
		return isDisabled(el)

	case "enabled":
		return isEnabled(el)

	case "checked":
		return isChecked(el)

	case "required":
		_, ok := el.Attribute("required")
		return ok

	case "optional":
		_, ok := el.Attribute("required")
		return !ok && isFormControl(el)

	case "read-only":
		return isReadOnly(el)

	case "read-write":
		return !isReadOnly(el)

	case "placeholder-shown":
		_, ok := el.Attribute("placeholder")
		v, _ := el.Attribute("value")
		return ok && v == ""

	case "link", "any-link":
		return isLink(el)

	case "visited":
		// Visited history is never tracked.
		return false
	}
	return false
}

// siblingPosition returns the 1-based index of el among its element
// siblings, counted from the end when fromLast is set and restricted to
// the same tag when ofType is set.
func siblingPosition(el Element, fromLast, ofType bool) int {
	pos := 1
	tag := el.LocalName()
	step := Element.PrevSibling
	if fromLast {
		step = Element.NextSibling
	}
	for sib, ok := step(el); ok; sib, ok = step(sib) {
		if !ofType || sib.LocalName() == tag {
			pos++
		}
	}
	return pos
}

// matchAnPlusB reports whether pos = a*n + b for some n >= 0.
func matchAnPlusB(a, b, pos int) bool {
	if a == 0 {
		return pos == b
	}
	diff := pos - b
	if diff%a != 0 {
		return false
	}
	return diff/a >= 0
}

// parseAnPlusB parses an An+B expression ("odd", "even", "3", "2n+1", "-n+3").
func parseAnPlusB(s string) (int, int, bool) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")

	switch s {
	case "":
		return 0, 0, false
	case "odd":
		return 2, 1, true
	case "even":
		return 2, 0, true
	}

	if n, err := strconv.Atoi(s); err == nil {
		return 0, n, true
	}

	nIdx := strings.IndexByte(s, 'n')
	if nIdx == -1 {
		return 0, 0, false
	}

	var a int
	switch aStr := s[:nIdx]; aStr {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		v, err := strconv.Atoi(aStr)
		if err != nil {
			return 0, 0, false
		}
		a = v
	}

	bStr := s[nIdx+1:]
	if bStr == "" {
		return a, 0, true
	}
	if bStr[0] != '+' && bStr[0] != '-' {
		return 0, 0, false
	}
	b, err := strconv.Atoi(bStr)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
