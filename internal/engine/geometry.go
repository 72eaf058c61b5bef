package engine

import (
	"math"

	"github.com/inamate/canvasviewer/internal/document"
)

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Inflate grows the rect by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// BoundingRect is the object's axis-aligned box on the canvas, after its
// transform. Stroke width is not included.
func BoundingRect(obj document.Object) Rect {
	w, h := obj.Size()
	return ObjectMatrix(obj.Common().Transform).TransformRect(Rect{Width: w, Height: h})
}

// ConnectionPoint is the midpoint of the given side of the object's bounding
// box.
func ConnectionPoint(obj document.Object, side document.Side) (float64, float64) {
	r := BoundingRect(obj)
	cx, cy := r.Center()
	switch side {
	case document.SideTop:
		return cx, r.Y
	case document.SideRight:
		return r.X + r.Width, cy
	case document.SideBottom:
		return cx, r.Y + r.Height
	case document.SideLeft:
		return r.X, cy
	}
	return cx, cy
}

// TranslateObject moves the object by (dx, dy) in canvas space.
func TranslateObject(obj document.Object, dx, dy float64) {
	t := &obj.Common().Transform
	t.Left += dx
	t.Top += dy
}

const kappa = 0.5522847498

// ShapePath returns the outline of a primitive in its local coordinates.
// Text and images have no outline and return nil.
func ShapePath(obj document.Object) []document.PathCmd {
	switch o := obj.(type) {
	case *document.Rect:
		return []document.PathCmd{
			document.MoveTo(0, 0),
			document.LineTo(o.Width, 0),
			document.LineTo(o.Width, o.Height),
			document.LineTo(0, o.Height),
			document.ClosePath(),
		}
	case *document.Ellipse:
		rx, ry := o.RX, o.RY
		kx, ky := rx*kappa, ry*kappa
		cx, cy := rx, ry
		return []document.PathCmd{
			document.MoveTo(cx+rx, cy),
			{Op: "C", Args: []float64{cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry}},
			{Op: "C", Args: []float64{cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy}},
			{Op: "C", Args: []float64{cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry}},
			{Op: "C", Args: []float64{cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy}},
			document.ClosePath(),
		}
	case *document.Triangle:
		return []document.PathCmd{
			document.MoveTo(o.Width/2, 0),
			document.LineTo(o.Width, o.Height),
			document.LineTo(0, o.Height),
			document.ClosePath(),
		}
	case *document.Line:
		return []document.PathCmd{document.MoveTo(o.X1, o.Y1), document.LineTo(o.X2, o.Y2)}
	case *document.Path:
		return o.Commands
	case *document.Arrow:
		return o.Commands
	}
	return nil
}

type Point struct {
	X, Y float64
}

const curveSteps = 16

// Flatten approximates every subpath of cmds with a polyline.
func Flatten(cmds []document.PathCmd) [][]Point {
	var out [][]Point
	var cur []Point
	var start, pen Point

	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}

	for _, c := range cmds {
		switch c.Op {
		case "M":
			flush()
			pen = Point{c.Args[0], c.Args[1]}
			start = pen
			cur = []Point{pen}
		case "L":
			pen = Point{c.Args[0], c.Args[1]}
			cur = append(cur, pen)
		case "Q":
			p0 := pen
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				mt := 1 - t
				cur = append(cur, Point{
					mt*mt*p0.X + 2*mt*t*c.Args[0] + t*t*c.Args[2],
					mt*mt*p0.Y + 2*mt*t*c.Args[1] + t*t*c.Args[3],
				})
			}
			pen = Point{c.Args[2], c.Args[3]}
		case "C":
			p0 := pen
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				mt := 1 - t
				a, b, cc, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
				cur = append(cur, Point{
					a*p0.X + b*c.Args[0] + cc*c.Args[2] + d*c.Args[4],
					a*p0.Y + b*c.Args[1] + cc*c.Args[3] + d*c.Args[5],
				})
			}
			pen = Point{c.Args[4], c.Args[5]}
		case "Z":
			cur = append(cur, start)
			pen = start
			flush()
		}
	}
	flush()
	return out
}

// PolylineLength sums the segment lengths of a polyline.
func PolylineLength(pts []Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return total
}

// ArcLength is the total length of every subpath of cmds.
func ArcLength(cmds []document.PathCmd) float64 {
	var total float64
	for _, poly := range Flatten(cmds) {
		total += PolylineLength(poly)
	}
	return total
}

// PointAtLength walks d units along the polyline and returns the point and
// the tangent angle in radians there. ok is false past either end.
func PointAtLength(pts []Point, d float64) (p Point, angle float64, ok bool) {
	if d < 0 || len(pts) < 2 {
		return Point{}, 0, false
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		seg := math.Hypot(b.X-a.X, b.Y-a.Y)
		if seg == 0 {
			continue
		}
		if d <= seg {
			t := d / seg
			return Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}, math.Atan2(b.Y-a.Y, b.X-a.X), true
		}
		d -= seg
	}
	return Point{}, 0, false
}
