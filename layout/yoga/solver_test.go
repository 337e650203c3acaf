package yoga

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/stylecore/layout"
	"github.com/chrisuehlinger/stylecore/layout/flex"
)

type fixedMeasure struct {
	size  layout.Size
	calls int
}

func (f *fixedMeasure) Measure(layout.Size, layout.AvailableSpace, layout.AvailableSpace) layout.Size {
	f.calls++
	return f.size
}

func leaf(t *testing.T, s *Solver, st layout.BoxStyle) layout.BoxID {
	t.Helper()
	id, err := s.NewLeaf(st, nil)
	require.NoError(t, err)
	return id
}

func container(t *testing.T, s *Solver, st layout.BoxStyle, kids ...layout.BoxID) layout.BoxID {
	t.Helper()
	id, err := s.NewContainer(st, kids)
	require.NoError(t, err)
	return id
}

func mustLayout(t *testing.T, s layout.Solver, id layout.BoxID) layout.BoxLayout {
	t.Helper()
	l, err := s.Layout(id)
	require.NoError(t, err)
	return l
}

var viewport = layout.Size{Width: 800, Height: 600}

func TestSolverErrors(t *testing.T) {
	s := New()
	a := leaf(t, s, layout.BoxStyle{})

	_, err := s.Layout(a)
	assert.ErrorIs(t, err, layout.ErrNotComputed)

	_, err = s.NewContainer(layout.BoxStyle{}, []layout.BoxID{42})
	assert.ErrorIs(t, err, layout.ErrUnknownBox)

	_, err = s.NewContainer(layout.BoxStyle{}, []layout.BoxID{a, a})
	assert.ErrorIs(t, err, layout.ErrBoxAttached)

	container(t, s, layout.BoxStyle{}, a)
	_, err = s.NewContainer(layout.BoxStyle{}, []layout.BoxID{a})
	assert.ErrorIs(t, err, layout.ErrBoxAttached)

	_, err = s.NewLeaf(layout.BoxStyle{Height: layout.Px(-1)}, nil)
	assert.ErrorIs(t, err, layout.ErrInvalidBox)
	_, err = s.NewLeaf(layout.BoxStyle{Kind: layout.BoxFlex, JustifyContent: layout.JustifySpaceEvenly}, nil)
	assert.ErrorIs(t, err, layout.ErrUnsupported)

	assert.ErrorIs(t, s.Compute(99, viewport), layout.ErrUnknownBox)
	_, err = s.Layout(-1)
	assert.ErrorIs(t, err, layout.ErrUnknownBox)
	assert.Equal(t, 2, s.Len(), "rejected boxes are not allocated")
}

func TestSolverMaxBoxes(t *testing.T) {
	s := New(WithMaxBoxes(1))
	leaf(t, s, layout.BoxStyle{})
	_, err := s.NewLeaf(layout.BoxStyle{}, nil)
	assert.ErrorIs(t, err, layout.ErrInvalidBox)
	assert.Equal(t, 1, s.Len())
}

func TestBlockLayout(t *testing.T) {
	tests := []struct {
		name      string
		root      layout.BoxStyle
		child     layout.BoxStyle
		wantRoot  layout.BoxLayout
		wantChild layout.BoxLayout
	}{
		{
			name:      "auto width fills the viewport",
			child:     layout.BoxStyle{Height: layout.Px(30)},
			wantRoot:  layout.BoxLayout{Width: 800, Height: 30},
			wantChild: layout.BoxLayout{Width: 800, Height: 30},
		},
		{
			name: "padding and border inset the child",
			root: layout.BoxStyle{
				Padding: layout.EdgeSizes{Top: 10, Right: 10, Bottom: 10, Left: 10},
				Border:  layout.EdgeSizes{Top: 2, Right: 2, Bottom: 2, Left: 2},
			},
			child: layout.BoxStyle{Height: layout.Px(20)},
			wantRoot: layout.BoxLayout{
				Width: 800, Height: 44,
				Padding: layout.EdgeSizes{Top: 10, Right: 10, Bottom: 10, Left: 10},
				Border:  layout.EdgeSizes{Top: 2, Right: 2, Bottom: 2, Left: 2},
			},
			wantChild: layout.BoxLayout{X: 12, Y: 12, Width: 776, Height: 20},
		},
		{
			name:      "root margin offsets the root",
			root:      layout.BoxStyle{Margin: layout.EdgeSizes{Top: 4, Left: 5, Right: 5}},
			child:     layout.BoxStyle{Width: layout.Percent(50), Height: layout.Px(8)},
			wantRoot:  layout.BoxLayout{X: 5, Y: 4, Width: 790, Height: 8},
			wantChild: layout.BoxLayout{Width: 395, Height: 8},
		},
		{
			name:      "flex factors are ignored in block flow",
			child:     layout.BoxStyle{Height: layout.Px(10), FlexGrow: 3},
			wantRoot:  layout.BoxLayout{Width: 800, Height: 10},
			wantChild: layout.BoxLayout{Width: 800, Height: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			child := leaf(t, s, tt.child)
			root := container(t, s, tt.root, child)
			require.NoError(t, s.Compute(root, viewport))
			assert.Equal(t, tt.wantRoot, mustLayout(t, s, root))
			assert.Equal(t, tt.wantChild, mustLayout(t, s, child))
		})
	}
}

func TestBlockStacksChildren(t *testing.T) {
	s := New()
	a := leaf(t, s, layout.BoxStyle{Height: layout.Px(15), Margin: layout.EdgeSizes{Bottom: 5}})
	b := leaf(t, s, layout.BoxStyle{Height: layout.Px(25)})
	root := container(t, s, layout.BoxStyle{}, a, b)
	require.NoError(t, s.Compute(root, viewport))

	assert.Equal(t, 0.0, mustLayout(t, s, a).Y)
	assert.Equal(t, 20.0, mustLayout(t, s, b).Y)
	assert.Equal(t, 45.0, mustLayout(t, s, root).Height)
}

func TestFlexRow(t *testing.T) {
	tests := []struct {
		name    string
		row     layout.BoxStyle
		items   []layout.BoxStyle
		wantX   []float64
		wantW   []float64
		wantRow float64
	}{
		{
			name: "grow splits free space",
			row:  layout.BoxStyle{Kind: layout.BoxFlex, Width: layout.Px(300)},
			items: []layout.BoxStyle{
				{FlexGrow: 1, Height: layout.Px(10)},
				{FlexGrow: 1, Height: layout.Px(10)},
			},
			wantX:   []float64{0, 150},
			wantW:   []float64{150, 150},
			wantRow: 10,
		},
		{
			name: "center",
			row:  layout.BoxStyle{Kind: layout.BoxFlex, Width: layout.Px(100), JustifyContent: layout.JustifyCenter},
			items: []layout.BoxStyle{
				{Width: layout.Px(20), Height: layout.Px(10)},
			},
			wantX:   []float64{40},
			wantW:   []float64{20},
			wantRow: 10,
		},
		{
			name: "space between",
			row:  layout.BoxStyle{Kind: layout.BoxFlex, Width: layout.Px(100), JustifyContent: layout.JustifySpaceBetween},
			items: []layout.BoxStyle{
				{Width: layout.Px(20), Height: layout.Px(10)},
				{Width: layout.Px(20), Height: layout.Px(30)},
			},
			wantX:   []float64{0, 80},
			wantW:   []float64{20, 20},
			wantRow: 30,
		},
		{
			name: "wrap moves overflow to a new line",
			row:  layout.BoxStyle{Kind: layout.BoxFlex, Width: layout.Px(50), FlexWrap: layout.FlexWrapWrap},
			items: []layout.BoxStyle{
				{Width: layout.Px(30), Height: layout.Px(10)},
				{Width: layout.Px(30), Height: layout.Px(10)},
			},
			wantX:   []float64{0, 0},
			wantW:   []float64{30, 30},
			wantRow: 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			var ids []layout.BoxID
			for _, st := range tt.items {
				ids = append(ids, leaf(t, s, st))
			}
			row := container(t, s, tt.row, ids...)
			root := container(t, s, layout.BoxStyle{}, row)
			require.NoError(t, s.Compute(root, viewport))

			for i, id := range ids {
				got := mustLayout(t, s, id)
				assert.Equal(t, tt.wantX[i], got.X, "x of item %d", i)
				assert.Equal(t, tt.wantW[i], got.Width, "width of item %d", i)
			}
			assert.Equal(t, tt.wantRow, mustLayout(t, s, row).Height)
		})
	}
}

func TestMeasuredLeaf(t *testing.T) {
	s := New()
	m := &fixedMeasure{size: layout.Size{Width: 40.5, Height: 12}}
	text, err := s.NewLeaf(layout.BoxStyle{}, m)
	require.NoError(t, err)
	row := container(t, s, layout.BoxStyle{Kind: layout.BoxFlex, AlignItems: layout.AlignItemsFlexStart}, text)
	require.NoError(t, s.Compute(row, viewport))

	got := mustLayout(t, s, text)
	assert.Equal(t, 40.5, got.Width)
	assert.Equal(t, 12.0, got.Height)
	assert.Equal(t, 12.0, mustLayout(t, s, row).Height)
	assert.Positive(t, m.calls)
}

func TestFallbackToFlexSolver(t *testing.T) {
	s := layout.WithFallback(Factory(), flex.Factory())()
	a, err := s.NewLeaf(layout.BoxStyle{Width: layout.Px(10), Height: layout.Px(10)}, nil)
	require.NoError(t, err)
	row, err := s.NewContainer(layout.BoxStyle{
		Kind:           layout.BoxFlex,
		Width:          layout.Px(100),
		JustifyContent: layout.JustifySpaceEvenly,
	}, []layout.BoxID{a})
	require.NoError(t, err)
	require.NoError(t, s.Compute(row, viewport))
	assert.Equal(t, 45.0, mustLayout(t, s, a).X)
}

func TestConcurrentSolvers(t *testing.T) {
	var wg sync.WaitGroup
	widths := make([]float64, 8)
	for i := range widths {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := New()
			child, _ := s.NewLeaf(layout.BoxStyle{Height: layout.Px(1)}, nil)
			root, _ := s.NewContainer(layout.BoxStyle{}, []layout.BoxID{child})
			if s.Compute(root, layout.Size{Width: float64(100 * (i + 1))}) == nil {
				l, _ := s.Layout(child)
				widths[i] = l.Width
			}
		}()
	}
	wg.Wait()
	for i, w := range widths {
		assert.Equal(t, float64(100*(i+1)), w)
	}
}
