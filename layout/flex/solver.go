// Package flex is the default geometry solver: block stacking plus the
// flexbox algorithm over an arena of boxes.
// Reference: https://drafts.csswg.org/css-flexbox-1/
package flex

import (
	"fmt"

	"github.com/chrisuehlinger/stylecore/layout"
)

const noParent layout.BoxID = -1

type node struct {
	style    layout.BoxStyle
	measure  layout.Measurer
	children []layout.BoxID
	parent   layout.BoxID
	layout   layout.BoxLayout
}

// Solver implements layout.Solver. It is not safe for concurrent use; a
// layout pass creates its own instance.
type Solver struct {
	nodes    []*node
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
	s := &Solver{}
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
	return len(s.nodes)
}

func (s *Solver) add(n *node) (layout.BoxID, error) {
	if s.maxBoxes > 0 && len(s.nodes) >= s.maxBoxes {
		return 0, fmt.Errorf("%w: box limit %d reached", layout.ErrInvalidBox, s.maxBoxes)
	}
	n.parent = noParent
	s.nodes = append(s.nodes, n)
	s.computed = false
	return layout.BoxID(len(s.nodes) - 1), nil
}

func (s *Solver) get(id layout.BoxID) (*node, error) {
	if id < 0 || int(id) >= len(s.nodes) {
		return nil, fmt.Errorf("%w: %d", layout.ErrUnknownBox, id)
	}
	return s.nodes[id], nil
}

// NewLeaf implements layout.Solver.
func (s *Solver) NewLeaf(style layout.BoxStyle, m layout.Measurer) (layout.BoxID, error) {
	if err := style.Validate(); err != nil {
		return 0, err
	}
	return s.add(&node{style: style, measure: m})
}

// NewContainer implements layout.Solver. Children must exist and must not
// belong to another container.
func (s *Solver) NewContainer(style layout.BoxStyle, children []layout.BoxID) (layout.BoxID, error) {
	if err := style.Validate(); err != nil {
		return 0, err
	}
	seen := make(map[layout.BoxID]bool, len(children))
	for _, c := range children {
		n, err := s.get(c)
		if err != nil {
			return 0, err
		}
		if n.parent != noParent || seen[c] {
			return 0, fmt.Errorf("%w: %d", layout.ErrBoxAttached, c)
		}
		seen[c] = true
	}
	id, err := s.add(&node{style: style, children: append([]layout.BoxID(nil), children...)})
	if err != nil {
		return 0, err
	}
	for _, c := range children {
		s.nodes[c].parent = id
	}
	return id, nil
}

// Compute implements layout.Solver. The root is sized like a block child
// of a containing block the size of available.
func (s *Solver) Compute(root layout.BoxID, available layout.Size) error {
	n, err := s.get(root)
	if err != nil {
		return err
	}
	for _, c := range s.nodes {
		c.layout = layout.BoxLayout{}
	}
	width := s.blockChildWidth(n, available.Width)
	s.layoutBox(root, width, -1, available.Height)
	n.layout.X = n.style.Margin.Left
	n.layout.Y = n.style.Margin.Top
	s.computed = true
	return nil
}

// Layout implements layout.Solver.
func (s *Solver) Layout(id layout.BoxID) (layout.BoxLayout, error) {
	n, err := s.get(id)
	if err != nil {
		return layout.BoxLayout{}, err
	}
	if !s.computed {
		return layout.BoxLayout{}, layout.ErrNotComputed
	}
	return n.layout, nil
}

// Children returns the child boxes of id.
func (s *Solver) Children(id layout.BoxID) ([]layout.BoxID, error) {
	n, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return n.children, nil
}
