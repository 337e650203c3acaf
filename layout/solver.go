package layout

import (
	"errors"
	"fmt"
)

// FlexDirection represents the flex-direction property values.
type FlexDirection int

const (
	FlexDirectionRow FlexDirection = iota
	FlexDirectionRowReverse
	FlexDirectionColumn
	FlexDirectionColumnReverse
)

// IsRow reports whether the main axis is horizontal.
func (d FlexDirection) IsRow() bool {
	return d == FlexDirectionRow || d == FlexDirectionRowReverse
}

// IsReverse reports whether items are placed from the main-end edge.
func (d FlexDirection) IsReverse() bool {
	return d == FlexDirectionRowReverse || d == FlexDirectionColumnReverse
}

var flexDirectionNames = map[string]FlexDirection{
	"row":            FlexDirectionRow,
	"row-reverse":    FlexDirectionRowReverse,
	"column":         FlexDirectionColumn,
	"column-reverse": FlexDirectionColumnReverse,
}

// FlexWrap represents the flex-wrap property values.
type FlexWrap int

const (
	FlexWrapNowrap FlexWrap = iota
	FlexWrapWrap
	FlexWrapWrapReverse
)

var flexWrapNames = map[string]FlexWrap{
	"nowrap":       FlexWrapNowrap,
	"wrap":         FlexWrapWrap,
	"wrap-reverse": FlexWrapWrapReverse,
}

// JustifyContent represents the justify-content property values.
type JustifyContent int

const (
	JustifyFlexStart JustifyContent = iota
	JustifyFlexEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

var justifyNames = map[string]JustifyContent{
	"flex-start":    JustifyFlexStart,
	"start":         JustifyFlexStart,
	"flex-end":      JustifyFlexEnd,
	"end":           JustifyFlexEnd,
	"center":        JustifyCenter,
	"space-between": JustifySpaceBetween,
	"space-around":  JustifySpaceAround,
	"space-evenly":  JustifySpaceEvenly,
}

// AlignItems represents the align-items property values.
type AlignItems int

const (
	AlignItemsStretch AlignItems = iota
	AlignItemsFlexStart
	AlignItemsFlexEnd
	AlignItemsCenter
	AlignItemsBaseline
)

var alignItemsNames = map[string]AlignItems{
	"stretch":    AlignItemsStretch,
	"normal":     AlignItemsStretch,
	"flex-start": AlignItemsFlexStart,
	"start":      AlignItemsFlexStart,
	"flex-end":   AlignItemsFlexEnd,
	"end":        AlignItemsFlexEnd,
	"center":     AlignItemsCenter,
	"baseline":   AlignItemsBaseline,
}

// AlignSelf represents the align-self property values.
type AlignSelf int

const (
	AlignSelfAuto AlignSelf = iota
	AlignSelfFlexStart
	AlignSelfFlexEnd
	AlignSelfCenter
	AlignSelfBaseline
	AlignSelfStretch
)

var alignSelfNames = map[string]AlignSelf{
	"auto":       AlignSelfAuto,
	"flex-start": AlignSelfFlexStart,
	"flex-end":   AlignSelfFlexEnd,
	"center":     AlignSelfCenter,
	"baseline":   AlignSelfBaseline,
	"stretch":    AlignSelfStretch,
}

// Resolve maps auto to the container's align-items value.
func (a AlignSelf) Resolve(items AlignItems) AlignSelf {
	if a != AlignSelfAuto {
		return a
	}
	switch items {
	case AlignItemsFlexStart:
		return AlignSelfFlexStart
	case AlignItemsFlexEnd:
		return AlignSelfFlexEnd
	case AlignItemsCenter:
		return AlignSelfCenter
	case AlignItemsBaseline:
		return AlignSelfBaseline
	}
	return AlignSelfStretch
}

// BoxID is a solver handle for one box.
type BoxID int

// BoxKind selects the formatting a box applies to its children.
type BoxKind int

const (
	// BoxBlock stacks children vertically.
	BoxBlock BoxKind = iota
	// BoxFlex lays children out as flex items.
	BoxFlex
)

// BoxStyle is everything the solver needs to place one box.
type BoxStyle struct {
	Kind           BoxKind
	Position       Position
	Width          Dimension
	Height         Dimension
	Margin         EdgeSizes
	Padding        EdgeSizes
	Border         EdgeSizes
	FlexDirection  FlexDirection
	FlexWrap       FlexWrap
	JustifyContent JustifyContent
	AlignItems     AlignItems
	AlignSelf      AlignSelf
	FlexGrow       float64
	FlexShrink     float64
}

// Validate rejects styles the solver cannot place.
func (s BoxStyle) Validate() error {
	for name, d := range map[string]Dimension{"width": s.Width, "height": s.Height} {
		if d.Unit != UnitAuto && d.Value < 0 {
			return fmt.Errorf("%w: negative %s %v", ErrInvalidBox, name, d)
		}
	}
	if s.FlexGrow < 0 || s.FlexShrink < 0 {
		return fmt.Errorf("%w: negative flex factor", ErrInvalidBox)
	}
	for _, e := range []EdgeSizes{s.Padding, s.Border} {
		if e.Top < 0 || e.Right < 0 || e.Bottom < 0 || e.Left < 0 {
			return fmt.Errorf("%w: negative padding or border", ErrInvalidBox)
		}
	}
	return nil
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// SpaceKind describes how much room a box is offered along one axis.
type SpaceKind int

const (
	SpaceDefinite SpaceKind = iota
	SpaceMinContent
	SpaceMaxContent
)

// AvailableSpace is the room offered along one axis.
type AvailableSpace struct {
	Kind  SpaceKind
	Value float64
}

// Definite offers exactly v pixels.
func Definite(v float64) AvailableSpace { return AvailableSpace{Kind: SpaceDefinite, Value: v} }

var (
	// MinContent asks for the narrowest size without overflow.
	MinContent = AvailableSpace{Kind: SpaceMinContent}
	// MaxContent asks for the size without any wrapping.
	MaxContent = AvailableSpace{Kind: SpaceMaxContent}
)

// Measurer sizes leaf content. known holds dimensions already fixed by
// the solver; a non-positive component is unknown. Implementations run
// inside the solver's layout call and must not block.
type Measurer interface {
	Measure(known Size, width, height AvailableSpace) Size
}

// BoxLayout is the geometry the solver assigns to a box. X and Y are the
// border-box origin relative to the parent's border box.
type BoxLayout struct {
	X, Y          float64
	Width, Height float64
	Padding       EdgeSizes
	Border        EdgeSizes
}

// Solver errors.
var (
	ErrInvalidBox  = errors.New("invalid box")
	ErrUnknownBox  = errors.New("unknown box")
	ErrBoxAttached = errors.New("box already has a parent")
	ErrNotComputed = errors.New("layout not computed")
)

// Solver is the geometry engine that turns a box tree into positions and
// sizes. A Solver instance holds one tree and is discarded after a pass.
type Solver interface {
	// NewLeaf creates a childless box whose content is sized by m. m may be nil.
	NewLeaf(style BoxStyle, m Measurer) (BoxID, error)
	// NewContainer creates a box owning children in order.
	NewContainer(style BoxStyle, children []BoxID) (BoxID, error)
	// Compute lays out the tree rooted at root within available.
	Compute(root BoxID, available Size) error
	// Layout returns the computed geometry of a box.
	Layout(id BoxID) (BoxLayout, error)
}

// SolverFactory creates a fresh Solver for each layout pass.
type SolverFactory func() Solver
