package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvasviewer/internal/document"
)

func ptr[T any](v T) *T { return &v }

func TestSetPropertiesTouchesPanelOnly(t *testing.T) {
	e := New(Options{})
	r := newRect(0, 0, 10, 10)
	e.addObject(r)
	require.NoError(t, e.SelectLayer(r.ID))

	require.NoError(t, e.SetProperties(PanelPatch{FillColor: ptr("#123456"), StrokeWidth: ptr(9.0)}))
	assert.Equal(t, "#123456", e.Panel().FillColor)
	assert.Equal(t, 9.0, e.Panel().StrokeWidth)
	assert.Equal(t, "#ffffff", r.Style.Fill.Color)
}

func TestApplyToSelectionKeepsPatternFill(t *testing.T) {
	e := New(Options{})
	txt := newText(0, 0, "pattern")
	pattern := &document.Pattern{AssetID: "asset_1", Repeat: document.PatternRepeatBoth, Scale: 1}
	txt.Style.Fill = document.Paint{Pattern: pattern}
	r := newRect(50, 50, 10, 10)
	e.addObject(txt)
	e.addObject(r)
	e.CheckLayers([]string{txt.ID, r.ID})

	require.NoError(t, e.SetProperties(PanelPatch{FillColor: ptr("#ff0000"), Opacity: ptr(0.5)}))
	require.NoError(t, e.ApplyToSelection())

	assert.Same(t, pattern, txt.Style.Fill.Pattern)
	assert.Equal(t, 0.5, txt.Style.Opacity)
	assert.Equal(t, "#ff0000", r.Style.Fill.Color)
	assert.Equal(t, 0.5, r.Style.Opacity)
	assert.Equal(t, 50.0, r.Transform.Left, "members are not moved")
}

func TestApplyToSelectionNeedsSelection(t *testing.T) {
	e := New(Options{})
	assert.ErrorIs(t, e.ApplyToSelection(), ErrNoSelection)
}

func TestReadFromSelectionKeepsTextFieldsForShapes(t *testing.T) {
	prev := DefaultPanelState()
	prev.FontSize = 42
	prev.FontFamily = "Georgia"

	r := newRect(0, 0, 1, 1)
	r.Style.Stroke = "#abcdef"
	r.Style.StrokeWidth = 3
	r.BorderStyle = document.BorderDashed

	got := ReadFromSelection(prev, r, nil)
	assert.Equal(t, 42.0, got.FontSize)
	assert.Equal(t, "Georgia", got.FontFamily)
	assert.Equal(t, "#abcdef", got.StrokeColor)
	assert.Equal(t, 3.0, got.StrokeWidth)
	assert.Equal(t, document.BorderDashed, got.RectBorderStyle)
	assert.Equal(t, "", got.TextPathID)
}

func TestSelectionRefreshesPanel(t *testing.T) {
	var last PanelState
	e := New(Options{OnPanelChanged: func(p PanelState) { last = p }})
	txt := newText(0, 0, "hello")
	txt.FontSize = 33
	txt.FontWeight = document.FontWeightBold
	e.addObject(txt)

	require.NoError(t, e.SelectLayer(txt.ID))
	assert.Equal(t, 33.0, last.FontSize)
	assert.Equal(t, document.FontWeightBold, last.FontWeight)
}

func TestApplyArrowAnimationTogglesCaching(t *testing.T) {
	e := New(Options{})
	a := NewArrow(document.FreeEndpoint(0, 0), document.FreeEndpoint(100, 0), 0, 0, 100, 0, "#fff", 2)
	e.addObject(a)
	require.NoError(t, e.SelectLayer(a.ID))
	size := e.HistoryState().Size

	require.NoError(t, e.ApplyArrowAnimation(document.ArrowAnimationDash))
	assert.False(t, a.Caching)
	assert.Equal(t, []float64{10, 8}, a.Style.DashArray)

	require.NoError(t, e.ApplyArrowAnimation(document.ArrowAnimationNone))
	assert.True(t, a.Caching)
	assert.Nil(t, a.Style.DashArray)
	assert.Equal(t, size, e.HistoryState().Size)

	r := newRect(0, 0, 1, 1)
	e.addObject(r)
	require.NoError(t, e.SelectLayer(r.ID))
	assert.ErrorIs(t, e.ApplyArrowAnimation(document.ArrowAnimationDash), ErrWrongType)
}

func TestApplyRectBorderStyle(t *testing.T) {
	e := New(Options{})
	r := newRect(0, 0, 10, 10)
	e.addObject(r)
	require.NoError(t, e.SelectLayer(r.ID))

	require.NoError(t, e.ApplyRectBorderStyle(document.BorderAnimatedDashed))
	assert.False(t, r.Caching)
	assert.Equal(t, []float64{10, 16}, r.Style.DashArray)

	require.NoError(t, e.ApplyRectBorderStyle(document.BorderDashed))
	assert.True(t, r.Caching)
	assert.Equal(t, 0.0, r.Style.DashOffset)
}

func TestStyleSwitchesRejectUnknownValues(t *testing.T) {
	e := New(Options{})
	a := NewArrow(document.FreeEndpoint(0, 0), document.FreeEndpoint(100, 0), 0, 0, 100, 0, "#fff", 2)
	e.addObject(a)
	require.NoError(t, e.SelectLayer(a.ID))

	assert.ErrorIs(t, e.ApplyArrowAnimation("wiggle"), ErrInvalidArgument)
	assert.Equal(t, document.ArrowAnimationNone, a.Animation)
	assert.True(t, a.Caching)

	r := newRect(0, 0, 10, 10)
	e.addObject(r)
	require.NoError(t, e.SelectLayer(r.ID))
	assert.ErrorIs(t, e.ApplyRectBorderStyle("dotted"), ErrInvalidArgument)
	assert.Equal(t, document.BorderSolid, r.BorderStyle)
	assert.Equal(t, document.BorderSolid, e.Panel().RectBorderStyle)
}

func TestSetPropertiesRejectsInvalidPatch(t *testing.T) {
	e := New(Options{})
	before := e.Panel()

	for name, patch := range map[string]PanelPatch{
		"negative stroke width": {StrokeWidth: ptr(-1.0)},
		"NaN brush width":       {BrushWidth: ptr(math.NaN())},
		"opacity above one":     {Opacity: ptr(1.5)},
		"zero font size":        {FontSize: ptr(0.0)},
		"unknown animation":     {ArrowAnimation: ptr(document.ArrowAnimation("spin"))},
		"unknown border":        {RectBorderStyle: ptr(document.BorderStyle("dotted"))},
		"unknown repeat":        {PatternRepeat: ptr(document.PatternRepeat("mirror"))},
		"infinite scale":        {PatternScale: ptr(math.Inf(1))},
	} {
		t.Run(name, func(t *testing.T) {
			patch.FillColor = ptr("#abcdef")
			assert.ErrorIs(t, e.SetProperties(patch), ErrInvalidArgument)
			assert.Equal(t, before, e.Panel())
		})
	}

	require.NoError(t, e.SetProperties(PanelPatch{StrokeWidth: ptr(0.0), Opacity: ptr(0.0)}))
	assert.Equal(t, 0.0, e.Panel().StrokeWidth)
}

func TestApplyTransformMovesConnectedArrows(t *testing.T) {
	e := New(Options{})
	r := newRect(0, 0, 100, 100)
	e.addObject(r)
	a := NewArrow(document.FreeEndpoint(300, 50), document.ConnectedEndpoint(r.ID, document.SideRight), 300, 50, 100, 50, "#fff", 2)
	e.addObject(a)
	require.NoError(t, e.SelectLayer(r.ID))

	require.NoError(t, e.ApplyTransform(TransformPatch{ScaleX: ptr(2.0)}))
	assert.Equal(t, 2.0, r.Transform.ScaleX)
	assert.Equal(t, 2.0, e.Panel().ScaleX)

	x, _, ok := ResolveEndpoint(e.Scene(), a.To)
	require.True(t, ok)
	assert.InDelta(t, 200, x, 1e-9)
	// The arrow's tip now sits on the widened rect.
	assert.InDelta(t, 200, a.Transform.Left, 0.01)
}
