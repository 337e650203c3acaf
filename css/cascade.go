package css

import (
	"context"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"

	csslex "github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrisuehlinger/stylecore/dom"
)

// Order bits reserved for the rule index. Inline declarations take the
// highest index so they sort after every rule with the same counter.
const (
	ruleIndexBits  = 32
	inlineRuleSlot = math.MaxUint32
	// InlineSpecificity is the specificity given to style="" declarations.
	InlineSpecificity uint32 = math.MaxUint32
)

// Viewport is the media environment @media rules are evaluated against.
type Viewport struct {
	Width  float64
	Height float64
	Media  MediaType
}

// DefaultViewport is 1024x768 on screen.
func DefaultViewport() Viewport {
	return Viewport{Width: 1024, Height: 768, Media: MediaScreen}
}

// EngineConfig configures a cascade Engine.
type EngineConfig struct {
	Viewport Viewport
	// Workers bounds the parallel cascade. Zero means GOMAXPROCS.
	Workers int
	Parse   ParseOptions
}

// DefaultEngineConfig returns the default viewport, GOMAXPROCS workers and
// error recovery.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Viewport: DefaultViewport(), Parse: DefaultParseOptions()}
}

// PseudoStyle is the cascaded result for one ::before/::after of an element.
type PseudoStyle struct {
	Kind       dom.PseudoKind
	Content    string
	Properties map[string]string
}

// HasContent reports whether the pseudo-element generates a box.
func (p *PseudoStyle) HasContent() bool {
	return p != nil && p.Content != ""
}

// Engine runs the cascade over a document. Style state is replaced as a
// whole on every ApplyStyles call.
type Engine struct {
	log    *zap.Logger
	parser *Parser

	mu       sync.RWMutex
	cfg      EngineConfig
	sheet    *Stylesheet
	fonts    []*LoadedFont
	computed map[dom.NodeID]map[string]string
	pseudo   map[dom.NodeID]map[dom.PseudoKind]*PseudoStyle
}

// NewEngine creates an engine with an empty stylesheet.
func NewEngine(log *zap.Logger, cfg EngineConfig) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Viewport.Width == 0 && cfg.Viewport.Height == 0 {
		cfg.Viewport = DefaultViewport()
	}
	return &Engine{
		log:      log.Named("cascade"),
		parser:   NewParser(log, NewSelectorCache()),
		cfg:      cfg,
		sheet:    &Stylesheet{},
		computed: make(map[dom.NodeID]map[string]string),
		pseudo:   make(map[dom.NodeID]map[dom.PseudoKind]*PseudoStyle),
	}
}

// ParseStylesheet replaces the engine's stylesheet with text. Font faces
// declared in it become the engine's font set. In fail-fast mode the first
// error is returned and the previous stylesheet is kept.
func (e *Engine) ParseStylesheet(text string) (*Stylesheet, error) {
	e.mu.RLock()
	opts := e.cfg.Parse
	e.mu.RUnlock()

	sheet, err := e.parser.Parse(text, opts)
	if err != nil {
		return sheet, err
	}
	if n := len(sheet.Errors); n > 0 {
		e.log.Warn("Stylesheet parsed with errors", zap.Int("errors", n))
	}

	fonts := make([]*LoadedFont, 0, len(sheet.FontFaces))
	for _, face := range sheet.FontFaces {
		fonts = append(fonts, NewLoadedFont(face))
	}

	e.mu.Lock()
	e.sheet = sheet
	e.fonts = fonts
	e.mu.Unlock()
	return sheet, nil
}

// Stylesheet returns the current stylesheet.
func (e *Engine) Stylesheet() *Stylesheet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sheet
}

// SetViewport changes the viewport size used for @media evaluation.
func (e *Engine) SetViewport(width, height float64) {
	e.mu.Lock()
	e.cfg.Viewport.Width, e.cfg.Viewport.Height = width, height
	e.mu.Unlock()
}

// SetMediaType changes the media type used for @media evaluation.
func (e *Engine) SetMediaType(t MediaType) {
	e.mu.Lock()
	e.cfg.Viewport.Media = t
	e.mu.Unlock()
}

// Viewport returns the current media environment.
func (e *Engine) Viewport() Viewport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Viewport
}

// rankedRule is a rule with the index used in its order key.
type rankedRule struct {
	rule  *Rule
	index uint64
}

type nodeResult struct {
	id     dom.NodeID
	props  map[string]string
	pseudo map[dom.PseudoKind]*PseudoStyle
}

// activeRules lists plain rules in source order followed by the rules of
// every @media block whose query matches vp.
func activeRules(sheet *Stylesheet, vp Viewport) []rankedRule {
	rules := make([]rankedRule, 0, len(sheet.Rules))
	for i, r := range sheet.Rules {
		rules = append(rules, rankedRule{rule: r, index: uint64(i)})
	}
	for _, mr := range sheet.MediaRules {
		if !mr.Query.Matches(vp.Width, vp.Height, vp.Media) {
			continue
		}
		for _, r := range mr.Rules {
			rules = append(rules, rankedRule{rule: r})
		}
	}
	return rules
}

// ApplyStyles cascades the stylesheet over every element of doc. Elements
// are processed in parallel; results replace the previous pass only after
// all workers finish.
func (e *Engine) ApplyStyles(ctx context.Context, doc *dom.Document) error {
	e.mu.RLock()
	sheet, vp, workers := e.sheet, e.cfg.Viewport, e.cfg.Workers
	e.mu.RUnlock()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	sheet.ResetMemos()
	rules := activeRules(sheet, vp)
	elements := doc.Elements()
	results := make([]nodeResult, len(elements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range elements {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = cascadeNode(doc, id, rules)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	computed := make(map[dom.NodeID]map[string]string, len(results))
	pseudo := make(map[dom.NodeID]map[dom.PseudoKind]*PseudoStyle)
	for _, r := range results {
		computed[r.id] = r.props
		if len(r.pseudo) > 0 {
			pseudo[r.id] = r.pseudo
		}
	}

	e.mu.Lock()
	e.computed = computed
	e.pseudo = pseudo
	e.mu.Unlock()

	e.log.Debug("Applied styles",
		zap.Int("elements", len(elements)),
		zap.Int("rules", len(rules)),
		zap.Int("pseudo_owners", len(pseudo)),
		zap.Int("workers", workers))
	return nil
}

// cascadeNode merges every matching declaration for one element. The
// order key of each declaration is (counter << 32) | rule index, the
// counter advancing once per declaration considered.
func cascadeNode(doc *dom.Document, id dom.NodeID, rules []rankedRule) nodeResult {
	res := nodeResult{id: id}
	el, ok := NewNodeElement(doc, id)
	if !ok {
		return res
	}

	table := make(map[string]AppliedProperty)
	pseudoTables := make(map[dom.PseudoKind]map[string]AppliedProperty)
	var counter uint64

	for _, rr := range rules {
		sel := rr.rule.Selectors
		if spec, ok := sel.Matches(el); ok {
			for _, d := range rr.rule.Declarations {
				MergeProperty(table, d, spec, counter<<ruleIndexBits|rr.index)
				counter++
			}
		}
		if !sel.HasPseudoElement() {
			continue
		}
		for _, kind := range []dom.PseudoKind{dom.PseudoBefore, dom.PseudoAfter} {
			spec, ok := sel.MatchesPseudo(el, kind)
			if !ok {
				continue
			}
			pt := pseudoTables[kind]
			if pt == nil {
				pt = make(map[string]AppliedProperty)
				pseudoTables[kind] = pt
			}
			for _, d := range rr.rule.Declarations {
				MergeProperty(pt, d, spec, counter<<ruleIndexBits|rr.index)
				counter++
			}
		}
	}

	if style, ok := el.Attribute("style"); ok {
		decls, _ := ParseInlineStyle(style)
		for _, d := range decls {
			MergeProperty(table, d, InlineSpecificity, counter<<ruleIndexBits|inlineRuleSlot)
			counter++
		}
	}

	res.props = flatten(table)
	for kind, pt := range pseudoTables {
		ps := &PseudoStyle{Kind: kind, Properties: flatten(pt)}
		if c, ok := pt["content"]; ok {
			ps.Content = ExtractContent(c.Value)
		}
		if res.pseudo == nil {
			res.pseudo = make(map[dom.PseudoKind]*PseudoStyle)
		}
		res.pseudo[kind] = ps
	}
	return res
}

func flatten(table map[string]AppliedProperty) map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[k] = v.Value
	}
	return out
}

// ExtractContent turns a content value into generated text. Only quoted
// strings contribute; none, normal and anything else yield "".
func ExtractContent(value string) string {
	var sb strings.Builder
	for _, t := range tokenize(value) {
		if t.Type == csslex.StringToken {
			sb.WriteString(unquote(t.Data))
		}
	}
	return sb.String()
}

// ComputedStyle returns the cascaded properties of id from the last pass.
func (e *Engine) ComputedStyle(id dom.NodeID) (map[string]string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	props, ok := e.computed[id]
	return props, ok
}

// ComputedStyles returns all cascaded property maps of the last pass.
func (e *Engine) ComputedStyles() map[dom.NodeID]map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.computed
}

// PseudoStyle returns the cascaded ::before/::after style of owner.
func (e *Engine) PseudoStyle(owner dom.NodeID, kind dom.PseudoKind) (*PseudoStyle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ps, ok := e.pseudo[owner][kind]
	return ps, ok
}

// PseudoContents returns the generated text per owner and kind, suitable
// for dom.Document.SyncPseudo. Pseudo-elements without content are left out.
func (e *Engine) PseudoContents() map[dom.NodeID]map[dom.PseudoKind]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[dom.NodeID]map[dom.PseudoKind]string)
	for owner, kinds := range e.pseudo {
		for kind, ps := range kinds {
			if !ps.HasContent() {
				continue
			}
			if out[owner] == nil {
				out[owner] = make(map[dom.PseudoKind]string)
			}
			out[owner][kind] = ps.Content
		}
	}
	return out
}

// Animations parses the animation shorthand cascaded onto id.
func (e *Engine) Animations(id dom.NodeID) ([]AnimationConfig, error) {
	props, ok := e.ComputedStyle(id)
	if !ok {
		return nil, nil
	}
	value, ok := props["animation"]
	if !ok {
		return nil, nil
	}
	return ParseAnimation(value)
}

// Keyframes looks up an @keyframes definition by name.
func (e *Engine) Keyframes(name string) (*KeyframesDefinition, bool) {
	return e.Stylesheet().KeyframesByName(name)
}

// LoadedFonts returns the fonts declared by the current stylesheet.
func (e *Engine) LoadedFonts() []*LoadedFont {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*LoadedFont(nil), e.fonts...)
}

// FindFont returns the best face for the request: an exact weight match
// wins, otherwise the closest weight among faces of that family and style.
func (e *Engine) FindFont(family string, weight FontWeight, style FontStyle) (*LoadedFont, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var candidates []*LoadedFont
	for _, f := range e.fonts {
		if strings.EqualFold(f.Face.Family, family) && f.Face.Style == style {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return weightDistance(candidates[i].Face.Weight, weight) < weightDistance(candidates[j].Face.Weight, weight)
	})
	return candidates[0], true
}

func weightDistance(a, b FontWeight) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
