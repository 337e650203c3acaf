// Package yoga implements layout.Solver on github.com/kjk/flex, a Go port
// of the Yoga flexbox engine. Block boxes become stretched column
// containers. Yoga predates justify-content: space-evenly, so such
// containers are rejected with layout.ErrUnsupported; wrap the factory with
// layout.WithFallback to hand those trees to another solver.
package yoga

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/kjk/flex"

	"github.com/chrisuehlinger/stylecore/layout"
)

// CalculateLayout keeps its generation counter in package state.
var calcMu sync.Mutex

type box struct {
	node  *flex.Node
	style layout.BoxStyle
}

// Solver implements layout.Solver. It is not safe for concurrent use; a
// layout pass creates its own instance.
type Solver struct {
	config   *flex.Config
	boxes    []*box
	maxBoxes int
	computed bool
}

// Option configures a Solver.
type Option func(*Solver)

// WithMaxBoxes rejects boxes beyond n. Zero means unlimited.
func WithMaxBoxes(n int) Option {
	return func(s *Solver) { s.maxBoxes = n }
}

// New creates an empty solver.
func New(opts ...Option) *Solver {
	cfg := flex.NewConfig()
	// Fractional text widths must survive; zero turns off pixel snapping.
	cfg.SetPointScaleFactor(0)
	s := &Solver{config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory returns a layout.SolverFactory producing solvers with opts.
func Factory(opts ...Option) layout.SolverFactory {
	return func() layout.Solver { return New(opts...) }
}

// Len returns the number of boxes created.
func (s *Solver) Len() int {
	return len(s.boxes)
}

func (s *Solver) get(id layout.BoxID) (*box, error) {
	if id < 0 || int(id) >= len(s.boxes) {
		return nil, fmt.Errorf("%w: %d", layout.ErrUnknownBox, id)
	}
	return s.boxes[id], nil
}

func (s *Solver) newNode(style layout.BoxStyle) (*flex.Node, error) {
	if err := style.Validate(); err != nil {
		return nil, err
	}
	if style.Kind == layout.BoxFlex && style.JustifyContent == layout.JustifySpaceEvenly {
		return nil, fmt.Errorf("%w: justify-content: space-evenly", layout.ErrUnsupported)
	}
	if s.maxBoxes > 0 && len(s.boxes) >= s.maxBoxes {
		return nil, fmt.Errorf("%w: box limit %d reached", layout.ErrInvalidBox, s.maxBoxes)
	}
	n := flex.NewNodeWithConfig(s.config)
	applyStyle(&n.Style, style)
	return n, nil
}

func (s *Solver) add(n *flex.Node, style layout.BoxStyle) layout.BoxID {
	s.boxes = append(s.boxes, &box{node: n, style: style})
	s.computed = false
	return layout.BoxID(len(s.boxes) - 1)
}

// NewLeaf implements layout.Solver.
func (s *Solver) NewLeaf(style layout.BoxStyle, m layout.Measurer) (layout.BoxID, error) {
	n, err := s.newNode(style)
	if err != nil {
		return 0, err
	}
	if m != nil {
		n.SetMeasureFunc(measureFunc(m))
	}
	return s.add(n, style), nil
}

// NewContainer implements layout.Solver. Children must exist and must not
// belong to another container.
func (s *Solver) NewContainer(style layout.BoxStyle, children []layout.BoxID) (layout.BoxID, error) {
	kids := make([]*box, 0, len(children))
	seen := make(map[layout.BoxID]bool, len(children))
	for _, c := range children {
		b, err := s.get(c)
		if err != nil {
			return 0, err
		}
		if b.node.Parent != nil || seen[c] {
			return 0, fmt.Errorf("%w: %d", layout.ErrBoxAttached, c)
		}
		seen[c] = true
		kids = append(kids, b)
	}
	n, err := s.newNode(style)
	if err != nil {
		return 0, err
	}
	for i, b := range kids {
		if style.Kind == layout.BoxBlock {
			// Flex factors only apply inside flex containers.
			b.node.Style.FlexGrow = 0
			b.node.Style.FlexShrink = 0
			b.node.Style.AlignSelf = flex.AlignAuto
		}
		n.InsertChild(b.node, i)
	}
	return s.add(n, style), nil
}

// Compute implements layout.Solver. An auto-height root grows to fit its
// content rather than filling available.Height.
func (s *Solver) Compute(root layout.BoxID, available layout.Size) error {
	b, err := s.get(root)
	if err != nil {
		return err
	}
	height := float32(available.Height)
	if b.style.Height.IsAuto() {
		height = flex.Undefined
	}

	calcMu.Lock()
	flex.CalculateLayout(b.node, float32(available.Width), height, flex.DirectionLTR)
	calcMu.Unlock()

	s.computed = true
	return nil
}

// Layout implements layout.Solver.
func (s *Solver) Layout(id layout.BoxID) (layout.BoxLayout, error) {
	b, err := s.get(id)
	if err != nil {
		return layout.BoxLayout{}, err
	}
	if !s.computed {
		return layout.BoxLayout{}, layout.ErrNotComputed
	}
	l := &b.node.Layout
	return layout.BoxLayout{
		X:       f64(l.Position[flex.EdgeLeft]),
		Y:       f64(l.Position[flex.EdgeTop]),
		Width:   f64(l.Dimensions[flex.DimensionWidth]),
		Height:  f64(l.Dimensions[flex.DimensionHeight]),
		Padding: b.style.Padding,
		Border:  b.style.Border,
	}, nil
}

// f64 widens a float32 to the shortest decimal that round-trips, so 105.6
// does not come back as 105.59999847.
func f64(v float32) float64 {
	if flex.FloatIsUndefined(v) {
		return 0
	}
	out, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	return out
}
