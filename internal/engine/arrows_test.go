package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvasviewer/internal/document"
)

func TestConnectedArrowFollowsDraggedRect(t *testing.T) {
	e := New(Options{})
	rect := newRect(10, 10, 100, 100)
	e.addObject(rect)

	arrow := NewArrow(
		document.FreeEndpoint(200, 200),
		document.ConnectedEndpoint(rect.ID, document.SideLeft),
		200, 200, 10, 60, "#84cc16", 2,
	)
	e.addObject(arrow)

	x, y, ok := ResolveEndpoint(e.Scene(), arrow.To)
	require.True(t, ok)
	assert.Equal(t, [2]float64{10, 60}, [2]float64{x, y})

	drag(e, [2]float64{50, 50}, [2]float64{75, 50}, [2]float64{100, 50})

	x, y, ok = ResolveEndpoint(e.Scene(), arrow.To)
	require.True(t, ok)
	assert.Equal(t, [2]float64{60, 60}, [2]float64{x, y})

	// The tip is the arrow's top-left corner when it points up-left.
	assert.InDelta(t, 60, arrow.Transform.Left, 0.01)
	assert.InDelta(t, 60, arrow.Transform.Top, 0.01)
	assert.Same(t, arrow, e.Scene().FindByID(arrow.ID))
}

func TestDraggedArrowKeepsConnectedTip(t *testing.T) {
	e := New(Options{})
	rect := newRect(10, 10, 100, 100)
	e.addObject(rect)

	arrow := NewArrow(
		document.FreeEndpoint(200, 200),
		document.ConnectedEndpoint(rect.ID, document.SideLeft),
		200, 200, 10, 60, "#84cc16", 2,
	)
	e.addObject(arrow)

	// Grab the arrow outside the rect and move it by (20, 10).
	drag(e, [2]float64{150, 150}, [2]float64{160, 155}, [2]float64{170, 160})
	require.Equal(t, []document.Object{arrow}, e.Scene().Active())

	assert.Equal(t, 220.0, arrow.From.X)
	assert.Equal(t, 210.0, arrow.From.Y)
	x, y, ok := ResolveEndpoint(e.Scene(), arrow.To)
	require.True(t, ok)
	assert.Equal(t, [2]float64{10, 60}, [2]float64{x, y})
	assert.InDelta(t, 10, arrow.Transform.Left, 0.01)
	assert.InDelta(t, 60, arrow.Transform.Top, 0.01)
}

func TestConnectedStartFollowsByExactDelta(t *testing.T) {
	s := NewScene("#000")
	tracker := NewArrowTracker(s)
	s.On(tracker.handle)

	rect := newRect(0, 0, 40, 20)
	AssignID(rect)
	s.Add(rect)
	arrow := NewArrow(document.ConnectedEndpoint(rect.ID, document.SideTop), document.FreeEndpoint(300, 300), 20, 0, 300, 300, "#fff", 1)
	s.Add(arrow)

	x0, y0, _ := ResolveEndpoint(s, arrow.From)
	TranslateObject(rect, 13, -7)
	s.Moving(rect)
	x1, y1, _ := ResolveEndpoint(s, arrow.From)

	assert.InDelta(t, 13, x1-x0, 1e-9)
	assert.InDelta(t, -7, y1-y0, 1e-9)
	left, top := arrow.Transform.Left, arrow.Transform.Top
	assert.InDelta(t, 33, left, 0.01)
	assert.InDelta(t, -7, top, 0.01)
}

func TestFindNearestConnectionRadiusBoundary(t *testing.T) {
	rect := newRect(0, 0, 100, 100)
	rect.ID = "obj_a"
	objs := []document.Object{rect}

	c, ok := FindNearestConnection(objs, 50, -20, SnapRadius)
	require.True(t, ok)
	assert.Equal(t, document.SideTop, c.Side)
	assert.Equal(t, "obj_a", c.ObjectID)

	_, ok = FindNearestConnection(objs, 50, -20.01, SnapRadius)
	assert.False(t, ok)
}

func TestFindNearestConnectionTiesKeepFirst(t *testing.T) {
	a := newRect(0, 0, 100, 100)
	a.ID = "obj_a"
	b := newRect(0, 0, 100, 100)
	b.ID = "obj_b"

	c, ok := FindNearestConnection([]document.Object{a, b}, 50, 0, SnapRadius)
	require.True(t, ok)
	assert.Equal(t, "obj_a", c.ObjectID)
}

func TestFindNearestConnectionSkipsNonRects(t *testing.T) {
	anon := newRect(0, 0, 100, 100)
	txt := newText(0, 0, "x")
	txt.ID = "obj_t"
	txt.Width, txt.Height = 100, 100

	_, ok := FindNearestConnection([]document.Object{anon, txt}, 50, 0, SnapRadius)
	assert.False(t, ok)
}

func TestBuildArrowPathHorizontal(t *testing.T) {
	got := document.FormatPath(BuildArrowPath(0, 0, 100, 0))
	assert.Equal(t, "M 0 0 L 86 0 M 86 -7 L 100 0 L 86 7 Z", got)
}

func TestArrowToolDiscardsShortDrag(t *testing.T) {
	e := New(Options{})
	require.NoError(t, e.SetTool(ToolArrow))

	drag(e, [2]float64{100, 100}, [2]float64{102, 102}, [2]float64{103, 103})
	assert.Equal(t, 0, e.Scene().Len())
	assert.Equal(t, 1, e.HistoryState().Size)
}

func TestArrowToolSnapsToRectSide(t *testing.T) {
	e := New(Options{})
	rect := newRect(10, 10, 100, 100)
	e.addObject(rect)
	require.NoError(t, e.SetTool(ToolArrow))

	e.PointerDown(PointerEvent{X: 200, Y: 200})
	e.PointerMove(PointerEvent{X: 112, Y: 62})
	frame := e.Render()
	var ring, preview bool
	for _, c := range frame.Commands {
		if c.Overlay && c.Stroke == SnapRingStroke && c.StrokeWidth == SnapRingWidth && c.Fill == "" {
			ring = true
		}
		if c.Overlay && c.Fill != "" {
			preview = true
		}
	}
	assert.True(t, ring, "snap ring drawn")
	assert.True(t, preview, "arrow preview drawn")
	assert.Equal(t, 1, e.Scene().Len(), "preview stays out of the scene")

	e.PointerUp(PointerEvent{X: 112, Y: 62})
	require.Equal(t, 2, e.Scene().Len())
	arrow, ok := e.Scene().Objects()[1].(*document.Arrow)
	require.True(t, ok)
	assert.NotEmpty(t, arrow.ID)
	assert.Equal(t, document.FreeEndpoint(200, 200), arrow.From)
	assert.Equal(t, document.ConnectedEndpoint(rect.ID, document.SideRight), arrow.To)
	assert.Equal(t, e.Panel().StrokeColor, arrow.Style.Stroke)
	assert.Equal(t, e.Panel().StrokeColor, arrow.Style.Fill.Color)

	for _, c := range e.Render().Commands {
		assert.False(t, c.Overlay, "overlay cleared after pointer-up")
	}
}

func TestRemovingTargetFreesEndpoint(t *testing.T) {
	e := New(Options{})
	rect := newRect(10, 10, 100, 100)
	e.addObject(rect)
	arrow := NewArrow(document.FreeEndpoint(200, 200), document.ConnectedEndpoint(rect.ID, document.SideRight), 200, 200, 110, 60, "#fff", 2)
	e.addObject(arrow)

	require.NoError(t, e.RemoveLayer(rect.ID))
	assert.Equal(t, document.FreeEndpoint(110, 60), arrow.To)

	// The freed end is what history recorded.
	snap, ok := e.history.Current()
	require.True(t, ok)
	_, objs, err := document.DecodeScene([]byte(snap))
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.False(t, objs[0].(*document.Arrow).To.IsConnected())
}

func TestArrowDragShiftsFreeEnds(t *testing.T) {
	a := NewArrow(document.FreeEndpoint(0, 0), document.ConnectedEndpoint("obj_x", document.SideTop), 0, 0, 100, 0, "#fff", 1)
	moveObject(a, 5, 6)
	assert.Equal(t, document.FreeEndpoint(5, 6), a.From)
	assert.Equal(t, document.ConnectedEndpoint("obj_x", document.SideTop), a.To)
}
