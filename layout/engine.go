package layout

import (
	"context"
	"errors"
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/stylecore/dom"
)

var (
	// ErrNoRoot is returned when the document has no root element box.
	ErrNoRoot = errors.New("document has no root")
	// ErrNoSolver is returned by an engine built without a solver factory.
	ErrNoSolver = errors.New("no geometry solver configured")
)

// Engine resolves styles, builds the box tree, runs the solver and keeps
// the results of the last pass. All state is replaced on every pass.
type Engine struct {
	log       *zap.Logger
	newSolver SolverFactory

	mu         sync.RWMutex
	viewport   Size
	valid      bool
	styles     map[dom.NodeID]*ComputedStyle
	results    map[dom.NodeID]Result
	renderList []RenderInfo
}

// NewEngine creates a layout engine for the given viewport.
func NewEngine(log *zap.Logger, newSolver SolverFactory, viewport Size) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:       log.Named("layout"),
		newSolver: newSolver,
		viewport:  viewport,
		styles:    make(map[dom.NodeID]*ComputedStyle),
		results:   make(map[dom.NodeID]Result),
	}
}

// SetViewport changes the viewport and invalidates the current results.
func (e *Engine) SetViewport(viewport Size) {
	e.mu.Lock()
	e.viewport = viewport
	e.valid = false
	e.mu.Unlock()
}

// Viewport returns the current viewport size.
func (e *Engine) Viewport() Size {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.viewport
}

// Invalidate discards the results of the last pass.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.valid = false
	e.styles = make(map[dom.NodeID]*ComputedStyle)
	e.results = make(map[dom.NodeID]Result)
	e.renderList = nil
	e.mu.Unlock()
}

// Valid reports whether the engine holds results for the current viewport.
func (e *Engine) Valid() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.valid
}

// Layout runs a full pass over doc using the cascaded styles in src. The
// document must not be mutated while the pass runs. Cancellation is
// checked between stages.
func (e *Engine) Layout(ctx context.Context, doc *dom.Document, src StyleSource) error {
	if e.newSolver == nil {
		return ErrNoSolver
	}
	viewport := e.Viewport()

	styles := ResolveStyles(doc, src, viewport)
	if err := ctx.Err(); err != nil {
		return err
	}

	solver := e.newSolver()
	tree, err := BuildBoxTree(e.log, doc, styles, solver)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := solver.Compute(tree.Root, viewport); err != nil {
		return err
	}
	results, err := Extract(tree, solver)
	if err != nil {
		return err
	}
	list := RenderList(doc, tree, results, styles)

	e.mu.Lock()
	e.styles = styles
	e.results = results
	e.renderList = list
	e.valid = true
	e.mu.Unlock()

	e.log.Debug("Layout complete",
		zap.Int("styled", len(styles)),
		zap.Int("boxes", tree.Len()),
		zap.Int("results", len(results)),
		zap.Float64("viewport_width", viewport.Width),
		zap.Float64("viewport_height", viewport.Height))
	return nil
}

// Result returns the geometry of one node from the last pass.
func (e *Engine) Result(id dom.NodeID) (Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.results[id]
	return r, ok
}

// Results returns a copy of every node's geometry from the last pass.
func (e *Engine) Results() map[dom.NodeID]Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.results)
}

// ResolvedStyle returns the computed style of one node from the last pass.
func (e *Engine) ResolvedStyle(id dom.NodeID) (*ComputedStyle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cs, ok := e.styles[id]
	return cs, ok
}

// ResolvedStyles returns a copy of the computed style map of the last pass.
func (e *Engine) ResolvedStyles() map[dom.NodeID]*ComputedStyle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.styles)
}

// RenderList returns the paint-ordered list of the last pass.
func (e *Engine) RenderList() []RenderInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]RenderInfo(nil), e.renderList...)
}
