// Package render drives the styling pipeline: cascade, pseudo-element
// sync and layout, in that order, over one document at a time. Its output
// is the per-node geometry and render list handed to a paint collaborator.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/stylecore/css"
	"github.com/chrisuehlinger/stylecore/dom"
	"github.com/chrisuehlinger/stylecore/html"
	"github.com/chrisuehlinger/stylecore/layout"
)

// ErrNoDocument is returned by passes run before a document is loaded.
var ErrNoDocument = errors.New("no document loaded")

// Stage names a step of a pass. Errors from a pass are wrapped in a
// *StageError naming the step that failed.
type Stage string

const (
	StageParse   Stage = "parse"
	StageCascade Stage = "cascade"
	StagePseudo  Stage = "pseudo"
	StageLayout  Stage = "layout"
)

// StageError reports which stage of a pass failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PassStats summarizes the last completed pass.
type PassStats struct {
	Elements  int
	Boxes     int
	Pseudo    int
	Duration  time.Duration
	Completed time.Time
}

// Pipeline owns a document together with the cascade and layout engines
// that style it. Passes are serialized; readers may query results while a
// pass runs and see the previous pass until the new one completes.
type Pipeline struct {
	log     *zap.Logger
	cascade *css.Engine
	layout  *layout.Engine

	// pass serializes full passes and document replacement.
	pass sync.Mutex

	docMu sync.RWMutex
	doc   *dom.Document
	page  *html.Page

	statsMu sync.RWMutex
	stats   PassStats
}

// New creates a pipeline around existing engines.
func New(log *zap.Logger, cascade *css.Engine, lay *layout.Engine) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		log:     log.Named("pipeline"),
		cascade: cascade,
		layout:  lay,
	}
}

// Cascade returns the pipeline's cascade engine.
func (p *Pipeline) Cascade() *css.Engine { return p.cascade }

// Layout returns the pipeline's layout engine.
func (p *Pipeline) Layout() *layout.Engine { return p.layout }

// Navigate parses an HTML page, loads its embedded stylesheets and runs a
// full pass. Stylesheet errors are logged and do not fail the navigation
// unless the cascade engine is configured to fail fast.
func (p *Pipeline) Navigate(ctx context.Context, source string) error {
	page, err := html.Parse(source)
	if err != nil {
		return &StageError{Stage: StageParse, Err: err}
	}

	p.pass.Lock()
	defer p.pass.Unlock()

	if err := p.loadStylesheet(page.Stylesheet()); err != nil {
		return err
	}
	p.docMu.Lock()
	p.doc = page.DOM
	p.page = page
	p.docMu.Unlock()
	p.layout.Invalidate()

	p.log.Debug("Navigated",
		zap.String("title", page.Title),
		zap.Int("nodes", page.DOM.Len()),
		zap.Int("stylesheets", len(page.Styles)),
		zap.Strings("links", page.Links))
	return p.run(ctx)
}

// Load installs a prebuilt document and stylesheet and runs a full pass.
func (p *Pipeline) Load(ctx context.Context, doc *dom.Document, stylesheet string) error {
	p.pass.Lock()
	defer p.pass.Unlock()

	if err := p.loadStylesheet(stylesheet); err != nil {
		return err
	}
	p.docMu.Lock()
	p.doc = doc
	p.page = nil
	p.docMu.Unlock()
	p.layout.Invalidate()
	return p.run(ctx)
}

func (p *Pipeline) loadStylesheet(text string) error {
	sheet, err := p.cascade.ParseStylesheet(text)
	if err != nil {
		return &StageError{Stage: StageParse, Err: err}
	}
	if len(sheet.Errors) > 0 {
		p.log.Warn("Recovered from stylesheet errors",
			zap.Int("errors", len(sheet.Errors)),
			zap.Error(sheet.Err()))
	}
	return nil
}

// Run recomputes styles and layout for the current document.
func (p *Pipeline) Run(ctx context.Context) error {
	p.pass.Lock()
	defer p.pass.Unlock()
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) error {
	start := time.Now()

	p.docMu.RLock()
	doc := p.doc
	if doc == nil {
		p.docMu.RUnlock()
		return ErrNoDocument
	}
	err := p.cascade.ApplyStyles(ctx, doc)
	p.docMu.RUnlock()
	if err != nil {
		return p.fail(StageCascade, err)
	}
	if err := ctx.Err(); err != nil {
		return p.fail(StageCascade, err)
	}

	contents := p.cascade.PseudoContents()
	p.docMu.Lock()
	doc.SyncPseudo(contents)
	p.docMu.Unlock()
	if err := ctx.Err(); err != nil {
		return p.fail(StagePseudo, err)
	}

	p.docMu.RLock()
	err = p.layout.Layout(ctx, doc, p.cascade)
	elements := len(doc.Elements())
	p.docMu.RUnlock()
	if err != nil {
		return p.fail(StageLayout, err)
	}

	stats := PassStats{
		Elements:  elements,
		Boxes:     len(p.layout.Results()),
		Pseudo:    countPseudo(contents),
		Duration:  time.Since(start),
		Completed: time.Now(),
	}
	p.statsMu.Lock()
	p.stats = stats
	p.statsMu.Unlock()

	p.log.Debug("Pass complete",
		zap.Int("elements", stats.Elements),
		zap.Int("boxes", stats.Boxes),
		zap.Int("pseudo", stats.Pseudo),
		zap.Duration("duration", stats.Duration))
	return nil
}

func (p *Pipeline) fail(stage Stage, err error) error {
	p.log.Error("Pass failed", zap.String("stage", string(stage)), zap.Error(err))
	return &StageError{Stage: stage, Err: err}
}

func countPseudo(contents map[dom.NodeID]map[dom.PseudoKind]string) int {
	n := 0
	for _, kinds := range contents {
		n += len(kinds)
	}
	return n
}

// SetElementState toggles a dynamic state on an element and reruns the
// pass so state pseudo-classes take effect.
func (p *Pipeline) SetElementState(ctx context.Context, id dom.NodeID, state dom.ElementState, enabled bool) error {
	p.pass.Lock()
	defer p.pass.Unlock()

	p.docMu.Lock()
	if p.doc == nil {
		p.docMu.Unlock()
		return ErrNoDocument
	}
	err := p.doc.SetElementState(id, state, enabled)
	p.docMu.Unlock()
	if err != nil {
		return err
	}
	p.layout.Invalidate()
	return p.run(ctx)
}

// SetViewport resizes both engines and reruns the pass. Media queries are
// re-evaluated against the new size.
func (p *Pipeline) SetViewport(ctx context.Context, width, height float64) error {
	p.pass.Lock()
	defer p.pass.Unlock()

	p.cascade.SetViewport(width, height)
	p.layout.SetViewport(layout.Size{Width: width, Height: height})

	p.docMu.RLock()
	loaded := p.doc != nil
	p.docMu.RUnlock()
	if !loaded {
		return nil
	}
	return p.run(ctx)
}

// WithDocument calls fn with the current document under a read lock. fn
// must not retain the document or mutate it.
func (p *Pipeline) WithDocument(fn func(doc *dom.Document)) error {
	p.docMu.RLock()
	defer p.docMu.RUnlock()
	if p.doc == nil {
		return ErrNoDocument
	}
	fn(p.doc)
	return nil
}

// Snapshot returns an independent copy of the current document.
func (p *Pipeline) Snapshot() (*dom.Document, error) {
	var out *dom.Document
	err := p.WithDocument(func(doc *dom.Document) { out = doc.Clone() })
	return out, err
}

// Title returns the <title> of the last navigated page.
func (p *Pipeline) Title() string {
	p.docMu.RLock()
	defer p.docMu.RUnlock()
	if p.page == nil {
		return ""
	}
	return p.page.Title
}

// Links returns the stylesheet hrefs of the last navigated page. They are
// reported, not fetched.
func (p *Pipeline) Links() []string {
	p.docMu.RLock()
	defer p.docMu.RUnlock()
	if p.page == nil {
		return nil
	}
	return append([]string(nil), p.page.Links...)
}

// Stats returns a summary of the last completed pass.
func (p *Pipeline) Stats() PassStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}

// Results returns the absolute geometry of every boxed node.
func (p *Pipeline) Results() map[dom.NodeID]layout.Result {
	return p.layout.Results()
}

// RenderList returns the paint-ordered list of the last pass.
func (p *Pipeline) RenderList() []layout.RenderInfo {
	return p.layout.RenderList()
}

// ComputedStyle returns the cascaded property map of one element.
func (p *Pipeline) ComputedStyle(id dom.NodeID) (map[string]string, bool) {
	return p.cascade.ComputedStyle(id)
}
