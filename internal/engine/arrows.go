package engine

import (
	"log/slog"
	"math"

	"github.com/inamate/canvasviewer/internal/document"
)

const (
	ArrowHeadLength    = 14
	ArrowHeadHalfWidth = 7
	// SnapRadius is the default distance within which an arrow end binds to
	// a rectangle side.
	SnapRadius = 20
	// MinArrowLength rejects arrows shorter than this as accidental clicks.
	MinArrowLength = 5
)

// Connection is a candidate binding point on a rectangle side.
type Connection struct {
	ObjectID string        `json:"objectId"`
	Side     document.Side `json:"side"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
}

func (c Connection) Endpoint() document.Endpoint {
	return document.ConnectedEndpoint(c.ObjectID, c.Side)
}

// FindNearestConnection searches the side midpoints of every identified
// rectangle for the one closest to (x, y) within radius. Ties keep the first
// candidate in scene order, sides in top, right, bottom, left order.
func FindNearestConnection(objects []document.Object, x, y, radius float64) (Connection, bool) {
	var best Connection
	bestDist := math.Inf(1)
	found := false
	for _, obj := range objects {
		if obj.Type() != document.ObjectTypeRect || obj.Common().ID == "" {
			continue
		}
		for _, side := range document.Sides {
			px, py := ConnectionPoint(obj, side)
			d := math.Hypot(px-x, py-y)
			if d <= radius && d < bestDist {
				best = Connection{ObjectID: obj.Common().ID, Side: side, X: px, Y: py}
				bestDist = d
				found = true
			}
		}
	}
	return best, found
}

// BuildArrowPath returns the absolute outline of an arrow from (x1, y1) to
// (x2, y2): a shaft ending ArrowHeadLength short of the tip and a closed
// triangular head. Coordinates are rounded to two decimals.
func BuildArrowPath(x1, y1, x2, y2 float64) []document.PathCmd {
	angle := math.Atan2(y2-y1, x2-x1)
	cos, sin := math.Cos(angle), math.Sin(angle)

	backX := x2 - ArrowHeadLength*cos
	backY := y2 - ArrowHeadLength*sin
	leftX := backX + ArrowHeadHalfWidth*sin
	leftY := backY - ArrowHeadHalfWidth*cos
	rightX := backX - ArrowHeadHalfWidth*sin
	rightY := backY + ArrowHeadHalfWidth*cos

	r := document.Round2
	return []document.PathCmd{
		document.MoveTo(r(x1), r(y1)),
		document.LineTo(r(backX), r(backY)),
		document.MoveTo(r(leftX), r(leftY)),
		document.LineTo(r(x2), r(y2)),
		document.LineTo(r(rightX), r(rightY)),
		document.ClosePath(),
	}
}

// ResolveEndpoint returns the absolute position of an arrow end. A connected
// end whose target is gone resolves to ok=false.
func ResolveEndpoint(scene *Scene, ep document.Endpoint) (float64, float64, bool) {
	if !ep.IsConnected() {
		return ep.X, ep.Y, true
	}
	target := scene.FindByID(ep.ObjectID)
	if target == nil {
		return 0, 0, false
	}
	x, y := ConnectionPoint(target, ep.Side)
	return x, y, true
}

// LayoutArrow replaces the arrow's geometry in place so it spans the two
// points. The arrow object itself is kept, so no structural event fires.
func LayoutArrow(a *document.Arrow, x1, y1, x2, y2 float64) {
	data, left, top := document.NormalizePath(BuildArrowPath(x1, y1, x2, y2))
	a.PathData = data
	a.Transform.Left = left
	a.Transform.Top = top
}

// NewArrow builds an arrow between two endpoints at the given absolute
// positions, painted with the stroke colour and width.
func NewArrow(from, to document.Endpoint, x1, y1, x2, y2 float64, stroke string, strokeWidth float64) *document.Arrow {
	a := &document.Arrow{
		Base: document.Base{
			Transform: document.IdentityTransform(0, 0),
			Style: document.Style{
				Fill:        document.SolidPaint(stroke),
				Stroke:      stroke,
				StrokeWidth: strokeWidth,
				Opacity:     1,
			},
			Caching: true,
		},
		From:      from,
		To:        to,
		Animation: document.ArrowAnimationNone,
	}
	LayoutArrow(a, x1, y1, x2, y2)
	return a
}

// ArrowTracker keeps connected arrows attached to the objects they point at.
type ArrowTracker struct {
	scene *Scene
}

func NewArrowTracker(scene *Scene) *ArrowTracker {
	return &ArrowTracker{scene: scene}
}

func (t *ArrowTracker) handle(ev Event) {
	switch ev.Kind {
	case EventMoving, EventModified, EventBatch:
		for _, obj := range ev.Objects {
			// A dragged arrow keeps its connected ends on their anchors.
			if a, ok := obj.(*document.Arrow); ok && (a.From.IsConnected() || a.To.IsConnected()) {
				t.relayout(a)
			}
			t.Follow(obj.Common().ID)
		}
	case EventReset:
		t.RefreshAll()
	}
}

// Follow re-lays out every arrow with an end connected to id.
func (t *ArrowTracker) Follow(id string) int {
	if id == "" {
		return 0
	}
	n := 0
	for _, obj := range t.scene.Objects() {
		a, ok := obj.(*document.Arrow)
		if !ok || !references(a, id) {
			continue
		}
		if t.relayout(a) {
			n++
		}
	}
	if n > 0 {
		t.scene.RequestRedraw()
	}
	return n
}

// RefreshAll re-lays out every arrow in the scene.
func (t *ArrowTracker) RefreshAll() {
	for _, obj := range t.scene.Objects() {
		if a, ok := obj.(*document.Arrow); ok {
			t.relayout(a)
		}
	}
	t.scene.RequestRedraw()
}

func (t *ArrowTracker) relayout(a *document.Arrow) bool {
	x1, y1, ok1 := ResolveEndpoint(t.scene, a.From)
	x2, y2, ok2 := ResolveEndpoint(t.scene, a.To)
	if !ok1 || !ok2 {
		slog.Debug("arrow endpoint target missing", "arrow", a.ID)
		return false
	}
	LayoutArrow(a, x1, y1, x2, y2)
	return true
}

func references(a *document.Arrow, id string) bool {
	return (a.From.IsConnected() && a.From.ObjectID == id) ||
		(a.To.IsConnected() && a.To.ObjectID == id)
}

// detachConnections converts every arrow end bound to obj into a free end at
// its last resolved position. When obj is itself an arrow its own ends are
// frozen too.
func (e *Engine) detachConnections(obj document.Object) {
	id := obj.Common().ID
	freeze := func(ep *document.Endpoint) {
		if !ep.IsConnected() {
			return
		}
		if x, y, ok := ResolveEndpoint(e.scene, *ep); ok {
			*ep = document.FreeEndpoint(x, y)
		}
	}
	if a, ok := obj.(*document.Arrow); ok {
		freeze(&a.From)
		freeze(&a.To)
	}
	if id == "" {
		return
	}
	for _, other := range e.scene.Objects() {
		a, ok := other.(*document.Arrow)
		if !ok {
			continue
		}
		if a.From.IsConnected() && a.From.ObjectID == id {
			freeze(&a.From)
		}
		if a.To.IsConnected() && a.To.ObjectID == id {
			freeze(&a.To)
		}
	}
}
