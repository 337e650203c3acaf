package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	douceur "github.com/aymerick/douceur/parser"
	parse "github.com/tdewolff/parse/v2"
	csslex "github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Rule is a style rule: selector text, its compiled form and normalized
// declarations in source order.
type Rule struct {
	Selector     string
	Selectors    *SelectorList
	Declarations []Declaration
}

// MediaRule holds the style rules nested in an @media block.
type MediaRule struct {
	Query MediaQueryList
	Rules []*Rule
}

// Stylesheet is the parsed form of one block of CSS text.
type Stylesheet struct {
	Rules      []*Rule
	MediaRules []*MediaRule
	Keyframes  []*KeyframesDefinition
	FontFaces  []*FontFace
	Imports    []string

	// Errors collects recovered syntax and selector errors.
	Errors []error
	// Dropped collects declarations rejected by the property normalizer.
	Dropped []error
}

// Err combines the recovered errors into one, or returns nil.
func (s *Stylesheet) Err() error {
	return multierr.Combine(s.Errors...)
}

// ResetMemos clears the match memo of every selector list the sheet uses,
// including those nested in @media blocks.
func (s *Stylesheet) ResetMemos() {
	reset := func(rules []*Rule) {
		for _, r := range rules {
			if r.Selectors != nil {
				r.Selectors.ResetMemo()
			}
		}
	}
	reset(s.Rules)
	for _, mr := range s.MediaRules {
		reset(mr.Rules)
	}
}

// KeyframesByName returns the last @keyframes with the given name.
func (s *Stylesheet) KeyframesByName(name string) (*KeyframesDefinition, bool) {
	for i := len(s.Keyframes) - 1; i >= 0; i-- {
		if s.Keyframes[i].Name == name {
			return s.Keyframes[i], true
		}
	}
	return nil, false
}

// ParseOptions controls error handling while parsing.
type ParseOptions struct {
	// RecoverFromErrors skips malformed rules and keeps going. When false
	// the first error aborts the parse.
	RecoverFromErrors bool
}

// DefaultParseOptions recovers from errors.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{RecoverFromErrors: true}
}

// ParseError is a syntax error with its position in the source.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("css: %s at line %d, column %d", e.Message, e.Line, e.Column)
	}
	return "css: " + e.Message
}

// Parser parses stylesheets. Compiled selectors are shared through its
// SelectorCache across parses.
type Parser struct {
	log   *zap.Logger
	cache *SelectorCache
}

// NewParser creates a parser. A nil cache gets a private one.
func NewParser(log *zap.Logger, cache *SelectorCache) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if cache == nil {
		cache = NewSelectorCache()
	}
	return &Parser{log: log.Named("css-parser"), cache: cache}
}

// Cache returns the selector cache used by the parser.
func (p *Parser) Cache() *SelectorCache {
	return p.cache
}

// parseRun is the state of one Parse call.
type parseRun struct {
	p     *Parser
	opts  ParseOptions
	sheet *Stylesheet
	g     *csslex.Parser
}

// errAbort stops a fail-fast parse; the cause is the first entry of
// sheet.Errors.
var errAbort = errors.New("abort")

func (r *parseRun) fail(err error) error {
	r.sheet.Errors = append(r.sheet.Errors, err)
	r.p.log.Warn("Recovered stylesheet error", zap.Error(err))
	if !r.opts.RecoverFromErrors {
		return errAbort
	}
	return nil
}

func (r *parseRun) grammarError() *ParseError {
	var perr *parse.Error
	if err := r.g.Err(); errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Column: perr.Column, Message: perr.Message}
	} else if err != nil {
		return &ParseError{Message: err.Error()}
	}
	return &ParseError{Message: "syntax error"}
}

// Parse parses text into a Stylesheet. In recover mode the returned error
// is always nil and problems are reported in Stylesheet.Errors; otherwise
// the first error is returned together with what was parsed before it.
func (p *Parser) Parse(text string, opts ParseOptions) (*Stylesheet, error) {
	p.cache.BeginParse()
	defer func() {
		if n := p.cache.EndParse(); n > 0 {
			p.log.Debug("Evicted unused selectors", zap.Int("count", n))
		}
	}()

	r := &parseRun{
		p:     p,
		opts:  opts,
		sheet: &Stylesheet{},
		g:     csslex.NewParser(parse.NewInputString(text), false),
	}

	err := r.parseTopLevel()
	if errors.Is(err, errAbort) {
		return r.sheet, r.sheet.Errors[0]
	}

	if opts.RecoverFromErrors && r.empty() && hasContent(text) {
		p.log.Debug("Grammar produced no rules, using fallback splitter")
		r.fallbackSplit(text)
	}

	p.log.Debug("Parsed stylesheet",
		zap.Int("rules", len(r.sheet.Rules)),
		zap.Int("media", len(r.sheet.MediaRules)),
		zap.Int("keyframes", len(r.sheet.Keyframes)),
		zap.Int("font_faces", len(r.sheet.FontFaces)),
		zap.Int("errors", len(r.sheet.Errors)),
		zap.Int("dropped", len(r.sheet.Dropped)))
	return r.sheet, nil
}

func (r *parseRun) empty() bool {
	s := r.sheet
	return len(s.Rules) == 0 && len(s.MediaRules) == 0 && len(s.Keyframes) == 0 && len(s.FontFaces) == 0
}

// hasContent reports whether text holds anything besides whitespace and
// comments.
func hasContent(text string) bool {
	for _, t := range tokenize(text) {
		if t.Type != csslex.WhitespaceToken {
			return true
		}
	}
	return false
}

func (r *parseRun) parseTopLevel() error {
	for {
		gt, _, data := r.g.Next()
		switch gt {
		case csslex.ErrorGrammar:
			if r.g.HasParseError() {
				if err := r.fail(r.grammarError()); err != nil {
					return err
				}
				continue
			}
			if err := r.g.Err(); err != nil && err != io.EOF {
				return r.fail(&ParseError{Message: err.Error()})
			}
			return nil

		case csslex.BeginRulesetGrammar:
			rule, err := r.parseRuleset()
			if err != nil {
				return err
			}
			if rule != nil {
				r.sheet.Rules = append(r.sheet.Rules, rule)
			}

		case csslex.BeginAtRuleGrammar:
			if err := r.parseAtRule(string(data)); err != nil {
				return err
			}

		case csslex.AtRuleGrammar:
			name := string(data)
			if name == "@import" {
				if url := importURL(fromParserTokens(r.g.Values())); url != "" {
					r.sheet.Imports = append(r.sheet.Imports, url)
				}
				continue
			}
			r.p.log.Debug("Skipping @-rule", zap.String("rule", name))
		}
	}
}

func importURL(toks []Token) string {
	for _, t := range toks {
		switch t.Type {
		case csslex.StringToken:
			return unquote(t.Data)
		case csslex.URLToken:
			return urlValue(t.Data)
		}
	}
	return ""
}

// parseRuleset consumes a ruleset whose BeginRulesetGrammar was just read.
// A selector that fails to compile drops the rule.
func (r *parseRun) parseRuleset() (*Rule, error) {
	selector := selectorText(fromParserTokens(r.g.Values()))
	descs, err := r.readDescriptors(csslex.EndRulesetGrammar)
	if err != nil {
		return nil, err
	}

	list, cerr := r.p.cache.Compile(selector)
	if cerr != nil {
		return nil, r.fail(fmt.Errorf("rule %q dropped: %w", selector, cerr))
	}
	return &Rule{Selector: selector, Selectors: list, Declarations: r.normalize(descs)}, nil
}

// selectorText rebuilds selector source from grammar values, which drop
// the whitespace after combinators and commas.
func selectorText(toks []Token) string {
	var sb strings.Builder
	brackets := 0
	space, joined := false, false
	var prev Token
	for _, t := range toks {
		switch {
		case t.Type == csslex.WhitespaceToken:
			space = true
			continue
		case t.Type == csslex.LeftBracketToken:
			brackets++
		case t.Type == csslex.RightBracketToken:
			brackets--
		}
		switch {
		case brackets == 0 && (t.isDelim('>') || t.isDelim('+') || t.isDelim('~')):
			sb.WriteString(" " + t.Data + " ")
			joined = true
		case t.Type == csslex.CommaToken:
			sb.WriteString(", ")
			joined = true
		default:
			// Whitespace inside [attr=value i] is not reported.
			flag := brackets > 0 && t.Type == csslex.IdentToken &&
				(prev.Type == csslex.IdentToken || prev.Type == csslex.StringToken)
			if (space || flag) && !joined && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.Data)
			joined = false
		}
		space = false
		prev = t
	}
	return strings.TrimSpace(sb.String())
}

// normalize runs every descriptor through ParseProperty, dropping the ones
// it rejects.
func (r *parseRun) normalize(descs []descriptor) []Declaration {
	var out []Declaration
	for _, d := range descs {
		decls, err := ParseProperty(d.name, joinTokens(d.vals))
		if err != nil {
			r.sheet.Dropped = append(r.sheet.Dropped, err)
			r.p.log.Debug("Dropped declaration", zap.String("property", d.name), zap.Error(err))
			continue
		}
		out = append(out, decls...)
	}
	return out
}

// readDescriptors collects declarations until the given end grammar.
// Nested at-rules are skipped.
func (r *parseRun) readDescriptors(end csslex.GrammarType) ([]descriptor, error) {
	var descs []descriptor
	for {
		gt, _, data := r.g.Next()
		switch gt {
		case end:
			return descs, nil
		case csslex.ErrorGrammar:
			if !r.g.HasParseError() {
				return descs, nil
			}
			if err := r.fail(r.grammarError()); err != nil {
				return nil, err
			}
		case csslex.DeclarationGrammar, csslex.CustomPropertyGrammar:
			descs = append(descs, descriptor{
				name: string(data),
				vals: fromParserTokens(r.g.Values()),
			})
		case csslex.BeginAtRuleGrammar:
			r.skipBlock()
		case csslex.BeginRulesetGrammar:
			r.skipBlock()
		}
	}
}

// skipBlock consumes a nested block whose begin grammar was just read.
func (r *parseRun) skipBlock() {
	depth := 1
	for depth > 0 {
		gt, _, _ := r.g.Next()
		switch gt {
		case csslex.ErrorGrammar:
			if !r.g.HasParseError() {
				return
			}
		case csslex.BeginAtRuleGrammar, csslex.BeginRulesetGrammar:
			depth++
		case csslex.EndAtRuleGrammar, csslex.EndRulesetGrammar:
			depth--
		}
	}
}

func (r *parseRun) parseAtRule(name string) error {
	prelude := fromParserTokens(r.g.Values())
	switch {
	case name == "@media":
		return r.parseMedia(prelude)
	case strings.HasSuffix(name, "keyframes"):
		return r.parseKeyframes(prelude)
	case name == "@font-face":
		descs, err := r.readDescriptors(csslex.EndAtRuleGrammar)
		if err != nil {
			return err
		}
		face, ferr := buildFontFace(descs)
		if ferr != nil {
			return r.fail(ferr)
		}
		r.sheet.FontFaces = append(r.sheet.FontFaces, face)
		return nil
	}
	r.p.log.Debug("Skipping @-rule", zap.String("rule", name))
	r.skipBlock()
	return nil
}

func (r *parseRun) parseMedia(prelude []Token) error {
	query, qerr := ParseMediaQueryList(joinTokens(prelude))
	var rules []*Rule
	for {
		gt, _, data := r.g.Next()
		switch gt {
		case csslex.EndAtRuleGrammar:
			if qerr != nil {
				return r.fail(fmt.Errorf("@media %q dropped: %w", joinTokens(prelude), qerr))
			}
			r.sheet.MediaRules = append(r.sheet.MediaRules, &MediaRule{Query: query, Rules: rules})
			return nil
		case csslex.ErrorGrammar:
			if !r.g.HasParseError() {
				return nil
			}
			if err := r.fail(r.grammarError()); err != nil {
				return err
			}
		case csslex.BeginRulesetGrammar:
			rule, err := r.parseRuleset()
			if err != nil {
				return err
			}
			if rule != nil {
				rules = append(rules, rule)
			}
		case csslex.BeginAtRuleGrammar:
			r.p.log.Debug("Skipping nested @-rule", zap.String("rule", string(data)))
			r.skipBlock()
		}
	}
}

func (r *parseRun) parseKeyframes(prelude []Token) error {
	prelude = trimWhitespace(prelude)
	var name string
	if len(prelude) == 1 && (prelude[0].Type == csslex.IdentToken || prelude[0].Type == csslex.StringToken) {
		name = unquote(prelude[0].Data)
	}

	def := &KeyframesDefinition{Name: name}
	for {
		gt, _, _ := r.g.Next()
		switch gt {
		case csslex.EndAtRuleGrammar:
			if name == "" {
				return r.fail(fmt.Errorf("@keyframes without a name"))
			}
			r.sheet.Keyframes = append(r.sheet.Keyframes, def)
			return nil
		case csslex.ErrorGrammar:
			if !r.g.HasParseError() {
				return nil
			}
			if err := r.fail(r.grammarError()); err != nil {
				return err
			}
		case csslex.BeginRulesetGrammar:
			selector := fromParserTokens(r.g.Values())
			descs, err := r.readDescriptors(csslex.EndRulesetGrammar)
			if err != nil {
				return err
			}
			var offsets []float64
			var bad error
			for _, group := range splitCommas(selector) {
				if len(group) != 1 {
					bad = fmt.Errorf("invalid keyframe selector %q", joinTokens(group))
					break
				}
				off, oerr := keyframeOffset(group[0])
				if oerr != nil {
					bad = oerr
					break
				}
				offsets = append(offsets, off)
			}
			if bad != nil {
				if err := r.fail(bad); err != nil {
					return err
				}
				continue
			}
			decls := r.normalize(descs)
			for _, off := range offsets {
				step := NewKeyframeStep(off)
				step.Declarations = append([]Declaration(nil), decls...)
				def.AddStep(step)
			}
		case csslex.BeginAtRuleGrammar:
			r.skipBlock()
		}
	}
}

// fallbackSplit handles text the grammar could not structure by cutting it
// at '}' and then '{'.
func (r *parseRun) fallbackSplit(text string) {
	for _, chunk := range strings.Split(text, "}") {
		selector, body, ok := strings.Cut(chunk, "{")
		if !ok {
			continue
		}
		selector = strings.TrimSpace(selector)
		if selector == "" || strings.HasPrefix(selector, "@") {
			continue
		}
		list, err := r.p.cache.Compile(selector)
		if err != nil {
			r.sheet.Errors = append(r.sheet.Errors, fmt.Errorf("rule %q dropped: %w", selector, err))
			continue
		}
		decls, errs := ParseInlineStyle(body)
		r.sheet.Dropped = append(r.sheet.Dropped, errs...)
		r.sheet.Rules = append(r.sheet.Rules, &Rule{Selector: selector, Selectors: list, Declarations: decls})
	}
}

// ParseInlineStyle parses the contents of a style attribute into normalized
// declarations. Declarations the normalizer rejects are returned as errors
// and left out.
func ParseInlineStyle(text string) ([]Declaration, []error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	// The last declaration is only committed at a terminator.
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	raw, err := douceur.ParseDeclarations(text)
	if err != nil {
		return nil, []error{fmt.Errorf("inline style: %w", err)}
	}
	var out []Declaration
	var errs []error
	for _, d := range raw {
		value := d.Value
		if d.Important {
			value += " !important"
		}
		decls, perr := ParseProperty(d.Property, value)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}
		out = append(out, decls...)
	}
	return out, errs
}
