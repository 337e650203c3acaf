package layout

import (
	"errors"
	"fmt"
)

// ErrUnsupported reports a box style a solver cannot express.
var ErrUnsupported = errors.New("style not supported by solver")

type solverOp struct {
	leaf     bool
	style    BoxStyle
	measure  Measurer
	children []BoxID
	id       BoxID
}

func (o solverOp) apply(s Solver) (BoxID, error) {
	if o.leaf {
		return s.NewLeaf(o.style, o.measure)
	}
	return s.NewContainer(o.style, o.children)
}

// fallbackSolver builds on a primary solver and moves the whole tree to a
// secondary solver the first time the primary returns ErrUnsupported.
type fallbackSolver struct {
	active    Solver
	secondary SolverFactory
	switched  bool
	ops       []solverOp
}

// WithFallback returns a factory whose solvers start on primary. When a box
// is rejected with ErrUnsupported, every box created so far is rebuilt on a
// solver from secondary, which then serves the rest of the pass. Both
// solvers must hand out the same IDs for the same sequence of calls.
func WithFallback(primary, secondary SolverFactory) SolverFactory {
	return func() Solver {
		return &fallbackSolver{active: primary(), secondary: secondary}
	}
}

func (f *fallbackSolver) create(op solverOp) (BoxID, error) {
	id, err := op.apply(f.active)
	if errors.Is(err, ErrUnsupported) && !f.switched {
		if err := f.switchover(); err != nil {
			return 0, err
		}
		id, err = op.apply(f.active)
	}
	if err != nil {
		return 0, err
	}
	if !f.switched {
		op.id = id
		f.ops = append(f.ops, op)
	}
	return id, nil
}

func (f *fallbackSolver) switchover() error {
	next := f.secondary()
	for _, op := range f.ops {
		id, err := op.apply(next)
		if err != nil {
			return fmt.Errorf("rebuild on fallback solver: %w", err)
		}
		if id != op.id {
			return fmt.Errorf("rebuild on fallback solver: box %d came back as %d", op.id, id)
		}
	}
	f.active = next
	f.switched = true
	f.ops = nil
	return nil
}

// NewLeaf implements Solver.
func (f *fallbackSolver) NewLeaf(style BoxStyle, m Measurer) (BoxID, error) {
	return f.create(solverOp{leaf: true, style: style, measure: m})
}

// NewContainer implements Solver.
func (f *fallbackSolver) NewContainer(style BoxStyle, children []BoxID) (BoxID, error) {
	return f.create(solverOp{style: style, children: append([]BoxID(nil), children...)})
}

// Compute implements Solver.
func (f *fallbackSolver) Compute(root BoxID, available Size) error {
	return f.active.Compute(root, available)
}

// Layout implements Solver.
func (f *fallbackSolver) Layout(id BoxID) (BoxLayout, error) {
	return f.active.Layout(id)
}
