package yoga

import (
	"github.com/kjk/flex"

	"github.com/chrisuehlinger/stylecore/layout"
)

var directions = map[layout.FlexDirection]flex.FlexDirection{
	layout.FlexDirectionRow:           flex.FlexDirectionRow,
	layout.FlexDirectionRowReverse:    flex.FlexDirectionRowReverse,
	layout.FlexDirectionColumn:        flex.FlexDirectionColumn,
	layout.FlexDirectionColumnReverse: flex.FlexDirectionColumnReverse,
}

var wraps = map[layout.FlexWrap]flex.Wrap{
	layout.FlexWrapNowrap:      flex.WrapNoWrap,
	layout.FlexWrapWrap:        flex.WrapWrap,
	layout.FlexWrapWrapReverse: flex.WrapWrapReverse,
}

var justifies = map[layout.JustifyContent]flex.Justify{
	layout.JustifyFlexStart:    flex.JustifyFlexStart,
	layout.JustifyFlexEnd:      flex.JustifyFlexEnd,
	layout.JustifyCenter:       flex.JustifyCenter,
	layout.JustifySpaceBetween: flex.JustifySpaceBetween,
	layout.JustifySpaceAround:  flex.JustifySpaceAround,
}

var alignItems = map[layout.AlignItems]flex.Align{
	layout.AlignItemsStretch:   flex.AlignStretch,
	layout.AlignItemsFlexStart: flex.AlignFlexStart,
	layout.AlignItemsFlexEnd:   flex.AlignFlexEnd,
	layout.AlignItemsCenter:    flex.AlignCenter,
	layout.AlignItemsBaseline:  flex.AlignBaseline,
}

var alignSelves = map[layout.AlignSelf]flex.Align{
	layout.AlignSelfAuto:      flex.AlignAuto,
	layout.AlignSelfFlexStart: flex.AlignFlexStart,
	layout.AlignSelfFlexEnd:   flex.AlignFlexEnd,
	layout.AlignSelfCenter:    flex.AlignCenter,
	layout.AlignSelfBaseline:  flex.AlignBaseline,
	layout.AlignSelfStretch:   flex.AlignStretch,
}

// applyStyle copies st onto a fresh node style. Block boxes are columns
// that stretch their children across the content box.
func applyStyle(dst *flex.Style, st layout.BoxStyle) {
	if st.Kind == layout.BoxFlex {
		dst.FlexDirection = directions[st.FlexDirection]
		dst.FlexWrap = wraps[st.FlexWrap]
		dst.JustifyContent = justifies[st.JustifyContent]
		dst.AlignItems = alignItems[st.AlignItems]
	} else {
		dst.FlexDirection = flex.FlexDirectionColumn
		dst.FlexWrap = flex.WrapNoWrap
		dst.JustifyContent = flex.JustifyFlexStart
		dst.AlignItems = flex.AlignStretch
	}
	dst.AlignSelf = alignSelves[st.AlignSelf]
	dst.FlexGrow = float32(st.FlexGrow)
	dst.FlexShrink = float32(st.FlexShrink)

	dst.PositionType = flex.PositionTypeRelative
	if st.Position.IsOutOfFlow() {
		dst.PositionType = flex.PositionTypeAbsolute
	}

	dst.Dimensions[flex.DimensionWidth] = value(st.Width)
	dst.Dimensions[flex.DimensionHeight] = value(st.Height)
	setEdges(&dst.Margin, st.Margin)
	setEdges(&dst.Padding, st.Padding)
	setEdges(&dst.Border, st.Border)
}

func value(d layout.Dimension) flex.Value {
	switch d.Unit {
	case layout.UnitPx:
		return flex.Value{Value: float32(d.Value), Unit: flex.UnitPoint}
	case layout.UnitPercent:
		return flex.Value{Value: float32(d.Value), Unit: flex.UnitPercent}
	}
	return flex.Value{Value: flex.Undefined, Unit: flex.UnitAuto}
}

func setEdges(dst *[flex.EdgeCount]flex.Value, e layout.EdgeSizes) {
	dst[flex.EdgeLeft] = flex.Value{Value: float32(e.Left), Unit: flex.UnitPoint}
	dst[flex.EdgeTop] = flex.Value{Value: float32(e.Top), Unit: flex.UnitPoint}
	dst[flex.EdgeRight] = flex.Value{Value: float32(e.Right), Unit: flex.UnitPoint}
	dst[flex.EdgeBottom] = flex.Value{Value: float32(e.Bottom), Unit: flex.UnitPoint}
}

// measureFunc adapts a layout.Measurer. Yoga passes content-box sizes: an
// exact size is known, an at-most size is definite room to wrap in and an
// undefined width asks for max-content.
func measureFunc(m layout.Measurer) flex.MeasureFunc {
	return func(_ *flex.Node, width float32, widthMode flex.MeasureMode, height float32, heightMode flex.MeasureMode) flex.Size {
		var known layout.Size
		w, h := layout.MaxContent, layout.MaxContent
		if widthMode != flex.MeasureModeUndefined {
			w = layout.Definite(float64(width))
			if widthMode == flex.MeasureModeExactly {
				known.Width = float64(width)
			}
		}
		if heightMode != flex.MeasureModeUndefined {
			h = layout.Definite(float64(height))
			if heightMode == flex.MeasureModeExactly {
				known.Height = float64(height)
			}
		}
		got := m.Measure(known, w, h)
		return flex.Size{Width: float32(got.Width), Height: float32(got.Height)}
	}
}
