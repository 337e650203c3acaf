package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	csslex "github.com/tdewolff/parse/v2/css"
)

// Declaration is one normalized property/value pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}

// PropertyErrorKind classifies declaration validation failures.
type PropertyErrorKind int

const (
	ErrKindEmptyName PropertyErrorKind = iota
	ErrKindEmptyValue
	ErrKindTooManyComponents
	ErrKindInvalidValue
	ErrKindUnsupportedUnit
)

func (k PropertyErrorKind) String() string {
	switch k {
	case ErrKindEmptyName:
		return "empty name"
	case ErrKindEmptyValue:
		return "empty value"
	case ErrKindTooManyComponents:
		return "too many components"
	case ErrKindInvalidValue:
		return "invalid value"
	case ErrKindUnsupportedUnit:
		return "unsupported unit"
	}
	return "unknown"
}

// PropertyError is returned by ParseProperty for values it rejects.
type PropertyError struct {
	Kind     PropertyErrorKind
	Property string
	Value    string
}

func (e *PropertyError) Error() string {
	switch e.Kind {
	case ErrKindEmptyName:
		return "property name is empty"
	case ErrKindEmptyValue:
		return fmt.Sprintf("value for %q is empty", e.Property)
	case ErrKindTooManyComponents:
		return fmt.Sprintf("too many components for %q shorthand", e.Property)
	case ErrKindUnsupportedUnit:
		return fmt.Sprintf("unsupported unit %q", e.Value)
	}
	return fmt.Sprintf("invalid value %q for %q", e.Value, e.Property)
}

var boxSides = [4]string{"-top", "-right", "-bottom", "-left"}

var displayKeywords = map[string]bool{
	"block": true, "inline": true, "inline-block": true,
	"flex": true, "inline-flex": true, "grid": true, "inline-grid": true,
	"contents": true, "none": true, "list-item": true,
	"table": true, "table-row": true, "table-cell": true,
}

// ParseProperty validates and normalizes a single declaration. Colors are
// rewritten to rgba(), lengths are canonicalized and margin/padding
// shorthands expand into their four longhands. Unknown properties pass
// through with their trimmed value.
func ParseProperty(name, raw string) ([]Declaration, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, &PropertyError{Kind: ErrKindEmptyName}
	}

	value, important := SplitImportant(strings.TrimSpace(raw))
	if value == "" {
		return nil, &PropertyError{Kind: ErrKindEmptyValue, Property: name}
	}

	var decls []Declaration
	single := func(v string, err error) error {
		if err != nil {
			return err
		}
		decls = []Declaration{{Property: name, Value: v}}
		return nil
	}

	var err error
	switch name {
	case "color", "background-color":
		c, ok := ParseColor(value)
		if !ok {
			return nil, &PropertyError{Kind: ErrKindInvalidValue, Property: name, Value: value}
		}
		decls = []Declaration{{Property: name, Value: c.String()}}
	case "margin":
		decls, err = parseBoxShorthand(name, value, true)
	case "padding":
		decls, err = parseBoxShorthand(name, value, false)
	case "margin-top", "margin-right", "margin-bottom", "margin-left":
		err = single(parseLengthValue(name, value, true))
	case "padding-top", "padding-right", "padding-bottom", "padding-left":
		err = single(parseLengthValue(name, value, false))
	case "width", "height":
		err = single(parseLengthValue(name, value, true))
	case "display":
		err = single(parseDisplay(value))
	default:
		decls = []Declaration{{Property: name, Value: value}}
	}
	if err != nil {
		return nil, err
	}

	for i := range decls {
		decls[i].Important = important
	}
	return decls, nil
}

// SplitImportant strips a trailing "!important" and reports whether it
// was present.
func SplitImportant(value string) (string, bool) {
	trimmed := strings.TrimRight(value, " \t\r\n\f")
	idx := strings.LastIndexByte(trimmed, '!')
	if idx >= 0 && strings.EqualFold(strings.TrimSpace(trimmed[idx+1:]), "important") {
		return strings.TrimRight(trimmed[:idx], " \t\r\n\f"), true
	}
	return trimmed, false
}

func parseBoxShorthand(prefix, value string, allowAuto bool) ([]Declaration, error) {
	var parts []string
	for _, tok := range tokenize(value) {
		if tok.Type == csslex.WhitespaceToken {
			continue
		}
		part, err := parseLengthComponent(prefix, tok, allowAuto)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	switch len(parts) {
	case 0:
		return nil, &PropertyError{Kind: ErrKindEmptyValue, Property: prefix}
	case 1:
		parts = append(parts, parts[0], parts[0], parts[0])
	case 2:
		parts = append(parts, parts[0], parts[1])
	case 3:
		parts = append(parts, parts[1])
	case 4:
	default:
		return nil, &PropertyError{Kind: ErrKindTooManyComponents, Property: prefix, Value: value}
	}

	decls := make([]Declaration, 0, 4)
	for i, side := range boxSides {
		decls = append(decls, Declaration{Property: prefix + side, Value: parts[i]})
	}
	return decls, nil
}

func parseLengthValue(name, value string, allowAuto bool) (string, error) {
	toks := trimWhitespace(tokenize(value))
	if len(toks) == 0 {
		return "", &PropertyError{Kind: ErrKindEmptyValue, Property: name}
	}
	if len(toks) > 1 {
		return "", &PropertyError{Kind: ErrKindInvalidValue, Property: name, Value: value}
	}
	return parseLengthComponent(name, toks[0], allowAuto)
}

func parseLengthComponent(name string, tok Token, allowAuto bool) (string, error) {
	switch tok.Type {
	case csslex.DimensionToken:
		v, unit, ok := tok.number()
		if !ok {
			break
		}
		switch unit {
		case "px", "em", "vh", "vw":
			return FormatFloat(v) + unit, nil
		}
		return "", &PropertyError{Kind: ErrKindUnsupportedUnit, Property: name, Value: unit}
	case csslex.PercentageToken:
		if v, _, ok := tok.number(); ok {
			return FormatFloat(v) + "%", nil
		}
	case csslex.NumberToken:
		if v, _, ok := tok.number(); ok && math.Abs(v) <= 1e-7 {
			return "0", nil
		}
	case csslex.IdentToken:
		switch ident := strings.ToLower(tok.Data); ident {
		case "inherit", "initial", "unset":
			return ident, nil
		case "auto":
			if allowAuto {
				return ident, nil
			}
		}
	}
	return "", &PropertyError{Kind: ErrKindInvalidValue, Property: name, Value: tok.Data}
}

func parseDisplay(value string) (string, error) {
	toks := trimWhitespace(tokenize(value))
	if len(toks) != 1 || toks[0].Type != csslex.IdentToken {
		return "", &PropertyError{Kind: ErrKindInvalidValue, Property: "display", Value: value}
	}
	ident := strings.ToLower(toks[0].Data)
	if !displayKeywords[ident] {
		return "", &PropertyError{Kind: ErrKindInvalidValue, Property: "display", Value: ident}
	}
	return ident, nil
}

// FormatFloat prints integral values without a fractional part and
// everything else with at most three decimals, trailing zeros trimmed.
func FormatFloat(v float64) string {
	if r := math.Round(v); math.Abs(v-r) <= 1e-6 {
		return strconv.FormatInt(int64(r), 10)
	}
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// AppliedProperty is a cascaded value together with the key that decides
// whether a later declaration replaces it.
type AppliedProperty struct {
	Value       string
	Important   bool
	Specificity uint32
	Order       uint64
}

// yieldsTo reports whether a declaration with the given key replaces
// cur. Equal keys resolve in favor of the newcomer.
func (cur AppliedProperty) yieldsTo(important bool, specificity uint32, order uint64) bool {
	if cur.Important != important {
		return important
	}
	if cur.Specificity != specificity {
		return specificity > cur.Specificity
	}
	return order >= cur.Order
}

// MergeProperty folds d into the cascade table under the
// important > specificity > order ranking.
func MergeProperty(cascade map[string]AppliedProperty, d Declaration, specificity uint32, order uint64) {
	if cur, ok := cascade[d.Property]; ok && !cur.yieldsTo(d.Important, specificity, order) {
		return
	}
	cascade[d.Property] = AppliedProperty{
		Value:       d.Value,
		Important:   d.Important,
		Specificity: specificity,
		Order:       order,
	}
}
