package engine

import (
	"math"

	"github.com/inamate/canvasviewer/internal/document"
)

const (
	GuideBrushColor    = "#84cc16"
	GuideBrushWidth    = 2
	GuideBrushDecimate = 8
)

// Brush captures a freehand stroke and smooths it into quadratic curves.
type Brush struct {
	Color    string
	Width    float64
	Decimate float64

	points  []Point
	drawing bool
}

func (b *Brush) Begin(x, y float64) {
	b.points = []Point{{x, y}}
	b.drawing = true
}

func (b *Brush) Add(x, y float64) {
	if !b.drawing {
		return
	}
	b.points = append(b.points, Point{x, y})
}

func (b *Brush) Drawing() bool { return b.drawing }

// Points returns the raw stroke captured so far.
func (b *Brush) Points() []Point { return b.points }

// End finishes the stroke and returns its absolute path. ok is false when
// no stroke was in progress.
func (b *Brush) End() ([]document.PathCmd, bool) {
	if !b.drawing {
		return nil, false
	}
	b.drawing = false
	pts := decimate(b.points, b.Decimate)
	b.points = nil
	return smoothPath(pts), true
}

// decimate drops points closer than dist to the previous kept point. The
// final point always survives.
func decimate(pts []Point, dist float64) []Point {
	if dist <= 0 || len(pts) < 3 {
		return pts
	}
	out := []Point{pts[0]}
	for _, p := range pts[1 : len(pts)-1] {
		last := out[len(out)-1]
		if math.Hypot(p.X-last.X, p.Y-last.Y) >= dist {
			out = append(out, p)
		}
	}
	return append(out, pts[len(pts)-1])
}

// smoothPath joins the points with quadratic segments through the
// midpoints between consecutive samples.
func smoothPath(pts []Point) []document.PathCmd {
	if len(pts) == 0 {
		return nil
	}
	if len(pts) == 1 {
		p := pts[0]
		return []document.PathCmd{document.MoveTo(p.X, p.Y), document.LineTo(p.X, p.Y)}
	}
	cmds := []document.PathCmd{document.MoveTo(pts[0].X, pts[0].Y)}
	for i := 1; i < len(pts)-1; i++ {
		p, next := pts[i], pts[i+1]
		cmds = append(cmds, document.QuadTo(p.X, p.Y, (p.X+next.X)/2, (p.Y+next.Y)/2))
	}
	last := pts[len(pts)-1]
	return append(cmds, document.LineTo(last.X, last.Y))
}

// NewStrokePath turns an absolute stroke into a scene path.
func NewStrokePath(cmds []document.PathCmd, color string, width float64) *document.Path {
	data, left, top := document.NormalizePath(cmds)
	return &document.Path{
		Base: document.Base{
			Transform: document.IdentityTransform(left, top),
			Style: document.Style{
				Stroke:      color,
				StrokeWidth: width,
				Opacity:     1,
			},
			Caching: true,
		},
		PathData: data,
	}
}
