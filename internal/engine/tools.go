package engine

import (
	"fmt"
	"math"

	"github.com/inamate/canvasviewer/internal/document"
)

type Tool string

const (
	ToolSelect      Tool = "select"
	ToolRect        Tool = "rect"
	ToolCircle      Tool = "circle"
	ToolTriangle    Tool = "triangle"
	ToolLine        Tool = "line"
	ToolArrow       Tool = "arrow"
	ToolText        Tool = "text"
	ToolPencil      Tool = "pencil"
	ToolImage       Tool = "image"
	ToolVideo       Tool = "video"
	ToolPathDrawing Tool = "path-drawing"
)

// PlaceholderText is the content of a freshly placed text object.
const PlaceholderText = "Type here..."

// pencilDecimate matches a light smoothing of freehand strokes.
const pencilDecimate = 0.4

type PointerEvent struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Shift       bool    `json:"shift,omitempty"`
	DoubleClick bool    `json:"doubleClick,omitempty"`
}

// mode interprets pointer events for one tool. Each mode instance lives
// from enter to exit; its transient drag state dies with it.
type mode interface {
	tool() Tool
	enter(e *Engine)
	exit(e *Engine)
	down(e *Engine, p PointerEvent)
	move(e *Engine, p PointerEvent)
	up(e *Engine, p PointerEvent)
}

// overlay is transient feedback drawn above the scene.
type overlay struct {
	preview document.Object
	snap    *Connection
	stroke  *Brush
}

func (o *overlay) clear() { *o = overlay{} }

// SetTool switches the pointer tool. Image and video open the file picker
// and fall straight back to select. Path drawing is entered through
// OpenPathDrawer only.
func (e *Engine) SetTool(t Tool) error {
	switch t {
	case ToolSelect:
		e.setMode(&selectMode{})
	case ToolRect, ToolCircle, ToolTriangle, ToolLine:
		e.setMode(&shapeMode{kind: t})
	case ToolArrow:
		e.setMode(&arrowMode{})
	case ToolText:
		e.setMode(&textMode{})
	case ToolPencil:
		e.setMode(&pencilMode{})
	case ToolImage:
		e.pickFile("image/*")
		e.setMode(&selectMode{})
	case ToolVideo:
		e.pickFile("video/*")
		e.setMode(&selectMode{})
	default:
		return fmt.Errorf("tool %q: %w", t, ErrInvalidArgument)
	}
	return nil
}

func (e *Engine) Tool() Tool {
	return e.mode.tool()
}

func (e *Engine) setMode(m mode) {
	e.ExitTextEditing()
	if e.mode != nil {
		e.mode.exit(e)
	}
	e.guards.cancelAll()
	e.overlay.clear()
	e.mode = m
	m.enter(e)
	e.scene.RequestRedraw()
	if e.opts.OnToolChanged != nil {
		e.opts.OnToolChanged(m.tool())
	}
}

func (e *Engine) pickFile(accept string) {
	if e.opts.Picker != nil {
		e.opts.Picker.PickFile(accept)
	}
}

func (e *Engine) PointerDown(p PointerEvent) {
	if e.closed {
		return
	}
	e.mode.down(e, p)
}

func (e *Engine) PointerMove(p PointerEvent) {
	if e.closed {
		return
	}
	e.mode.move(e, p)
}

func (e *Engine) PointerUp(p PointerEvent) {
	if e.closed {
		return
	}
	e.mode.up(e, p)
}

// --- select ---

type selectMode struct {
	dragging bool
	moved    bool
	lastX    float64
	lastY    float64
}

func (m *selectMode) tool() Tool    { return ToolSelect }
func (m *selectMode) enter(*Engine) {}
func (m *selectMode) exit(*Engine)  {}

func (m *selectMode) down(e *Engine, p PointerEvent) {
	hit := HitTest(e.scene.Objects(), p.X, p.Y)
	if e.editing != nil && hit != document.Object(e.editing.text) {
		e.ExitTextEditing()
	}
	if hit == nil {
		e.scene.DiscardActive()
		e.scene.RequestRedraw()
		return
	}

	switch {
	case p.Shift:
		active := e.scene.Active()
		if e.scene.IsActive(hit) {
			var rest []document.Object
			for _, o := range active {
				if o != hit {
					rest = append(rest, o)
				}
			}
			e.scene.SetActive(rest...)
			e.scene.RequestRedraw()
			return
		}
		e.scene.SetActive(append(active, hit)...)
	case !e.scene.IsActive(hit):
		e.scene.SetActive(hit)
	}

	if t, ok := hit.(*document.Text); ok && p.DoubleClick {
		e.beginEditing(t)
		return
	}

	m.dragging, m.moved = true, false
	m.lastX, m.lastY = p.X, p.Y
	e.scene.RequestRedraw()
}

func (m *selectMode) move(e *Engine, p PointerEvent) {
	if !m.dragging {
		return
	}
	dx, dy := p.X-m.lastX, p.Y-m.lastY
	if dx == 0 && dy == 0 {
		return
	}
	active := e.scene.Active()
	for _, obj := range active {
		moveObject(obj, dx, dy)
	}
	m.lastX, m.lastY = p.X, p.Y
	m.moved = true
	e.scene.Moving(active...)
	e.scene.RequestRedraw()
}

func (m *selectMode) up(e *Engine, _ PointerEvent) {
	if m.dragging && m.moved {
		e.scene.Modified(e.scene.Active()...)
	}
	m.dragging, m.moved = false, false
}

// moveObject translates obj; a dragged arrow carries its free ends along.
func moveObject(obj document.Object, dx, dy float64) {
	TranslateObject(obj, dx, dy)
	if a, ok := obj.(*document.Arrow); ok {
		for _, ep := range []*document.Endpoint{&a.From, &a.To} {
			if !ep.IsConnected() {
				ep.X += dx
				ep.Y += dy
			}
		}
	}
}

// --- drag-to-draw shapes ---

// ShapeStyle is the paint a drag tool uses, captured when the drag starts.
type ShapeStyle struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
}

func (e *Engine) shapeStyle() ShapeStyle {
	return ShapeStyle{
		Fill:        e.panel.FillColor,
		Stroke:      e.panel.StrokeColor,
		StrokeWidth: e.panel.StrokeWidth,
		Opacity:     e.panel.Opacity,
	}
}

// BuildShape creates the object a drag from (ox, oy) to (x, y) describes.
func BuildShape(kind Tool, ox, oy, x, y float64, st ShapeStyle) document.Object {
	left, top := math.Min(ox, x), math.Min(oy, y)
	w, h := math.Abs(x-ox), math.Abs(y-oy)
	base := document.Base{
		Transform: document.IdentityTransform(left, top),
		Style: document.Style{
			Fill:        document.SolidPaint(st.Fill),
			Stroke:      st.Stroke,
			StrokeWidth: st.StrokeWidth,
			Opacity:     st.Opacity,
		},
		Caching: true,
	}
	switch kind {
	case ToolRect:
		return &document.Rect{Base: base, Width: w, Height: h, BorderStyle: document.BorderSolid}
	case ToolCircle:
		return &document.Ellipse{Base: base, RX: w / 2, RY: h / 2}
	case ToolTriangle:
		return &document.Triangle{Base: base, Width: w, Height: h}
	case ToolLine:
		base.Style.Fill = document.Paint{}
		return &document.Line{Base: base, X1: ox - left, Y1: oy - top, X2: x - left, Y2: y - top}
	}
	return nil
}

type shapeMode struct {
	kind    Tool
	drawing bool
	ox, oy  float64
	style   ShapeStyle
}

func (m *shapeMode) tool() Tool    { return m.kind }
func (m *shapeMode) enter(*Engine) {}

func (m *shapeMode) exit(e *Engine) {
	m.drawing = false
	e.overlay.preview = nil
}

func (m *shapeMode) down(e *Engine, p PointerEvent) {
	m.drawing = true
	m.ox, m.oy = p.X, p.Y
	m.style = e.shapeStyle()
	e.overlay.preview = nil
}

// move rebuilds the preview from scratch on every event.
func (m *shapeMode) move(e *Engine, p PointerEvent) {
	if !m.drawing {
		return
	}
	e.overlay.preview = BuildShape(m.kind, m.ox, m.oy, p.X, p.Y, m.style)
	e.scene.RequestRedraw()
}

func (m *shapeMode) up(e *Engine, p PointerEvent) {
	if !m.drawing {
		return
	}
	m.drawing = false
	hadPreview := e.overlay.preview != nil
	e.overlay.preview = nil
	if !hadPreview {
		return
	}
	shape := BuildShape(m.kind, m.ox, m.oy, p.X, p.Y, m.style)
	e.addObject(shape)
}

// --- arrow ---

type arrowMode struct {
	drawing   bool
	ox, oy    float64
	start     *Connection
	stroke    string
	thickness float64
}

func (m *arrowMode) tool() Tool    { return ToolArrow }
func (m *arrowMode) enter(*Engine) {}

func (m *arrowMode) exit(e *Engine) {
	m.drawing = false
	e.overlay.snap = nil
	e.overlay.preview = nil
}

func (e *Engine) nearestConnection(x, y float64) *Connection {
	c, ok := FindNearestConnection(e.scene.Objects(), x, y, e.opts.SnapRadius)
	if !ok {
		return nil
	}
	return &c
}

func (m *arrowMode) down(e *Engine, p PointerEvent) {
	m.start = e.nearestConnection(p.X, p.Y)
	m.ox, m.oy = p.X, p.Y
	if m.start != nil {
		m.ox, m.oy = m.start.X, m.start.Y
	}
	m.stroke, m.thickness = e.panel.StrokeColor, e.panel.StrokeWidth
	m.drawing = true
	e.overlay.preview = nil
}

func (m *arrowMode) move(e *Engine, p PointerEvent) {
	snap := e.nearestConnection(p.X, p.Y)
	e.overlay.snap = snap
	if m.drawing {
		x, y := p.X, p.Y
		if snap != nil {
			x, y = snap.X, snap.Y
		}
		e.overlay.preview = NewArrow(document.FreeEndpoint(m.ox, m.oy), document.FreeEndpoint(x, y), m.ox, m.oy, x, y, m.stroke, m.thickness)
	}
	e.scene.RequestRedraw()
}

func (m *arrowMode) up(e *Engine, p PointerEvent) {
	e.overlay.snap = nil
	e.overlay.preview = nil
	e.scene.RequestRedraw()
	if !m.drawing {
		return
	}
	m.drawing = false

	end := e.nearestConnection(p.X, p.Y)
	x2, y2 := p.X, p.Y
	if end != nil {
		x2, y2 = end.X, end.Y
	}
	if math.Hypot(x2-m.ox, y2-m.oy) < MinArrowLength {
		return
	}

	from := document.FreeEndpoint(m.ox, m.oy)
	if m.start != nil {
		from = m.start.Endpoint()
	}
	to := document.FreeEndpoint(x2, y2)
	if end != nil {
		to = end.Endpoint()
	}
	arrow := NewArrow(from, to, m.ox, m.oy, x2, y2, m.stroke, m.thickness)
	e.addObject(arrow)
}

// --- text ---

// textMode places one text object, then stops listening.
type textMode struct {
	armed bool
}

func (m *textMode) tool() Tool        { return ToolText }
func (m *textMode) enter(*Engine)     { m.armed = true }
func (m *textMode) exit(*Engine)      { m.armed = false }
func (m *textMode) move(*Engine, PointerEvent) {}
func (m *textMode) up(*Engine, PointerEvent)   {}

func (m *textMode) down(e *Engine, p PointerEvent) {
	if !m.armed {
		return
	}
	m.armed = false
	t := &document.Text{
		Base: document.Base{
			Transform: document.IdentityTransform(p.X, p.Y),
			Style: document.Style{
				Fill:    document.SolidPaint(e.panel.FillColor),
				Opacity: 1,
			},
			Caching: true,
		},
		Text:       PlaceholderText,
		FontSize:   e.panel.FontSize,
		FontFamily: e.panel.FontFamily,
		FontWeight: e.panel.FontWeight,
		FontStyle:  e.panel.FontStyle,
	}
	e.measureText(t)
	e.addObject(t)
	e.scene.SetActive(t)
	e.beginEditing(t)
	e.scene.RequestRedraw()
}

// --- pencil ---

// pencilMode reads the brush from the panel on every stroke, so brush edits
// apply without re-entering the tool.
type pencilMode struct {
	brush Brush
}

func (m *pencilMode) tool() Tool { return ToolPencil }

func (m *pencilMode) enter(e *Engine) {
	m.brush = Brush{Decimate: pencilDecimate}
	e.overlay.stroke = &m.brush
}

func (m *pencilMode) exit(e *Engine) {
	m.brush.End()
	e.overlay.stroke = nil
}

func (m *pencilMode) down(e *Engine, p PointerEvent) {
	m.brush.Color, m.brush.Width = e.panel.BrushColor, e.panel.BrushWidth
	m.brush.Begin(p.X, p.Y)
}

func (m *pencilMode) move(e *Engine, p PointerEvent) {
	if !m.brush.Drawing() {
		return
	}
	m.brush.Color, m.brush.Width = e.panel.BrushColor, e.panel.BrushWidth
	m.brush.Add(p.X, p.Y)
	e.scene.RequestRedraw()
}

func (m *pencilMode) up(e *Engine, p PointerEvent) {
	if !m.brush.Drawing() {
		return
	}
	m.brush.Add(p.X, p.Y)
	cmds, ok := m.brush.End()
	if !ok {
		return
	}
	e.addObject(NewStrokePath(cmds, e.panel.BrushColor, e.panel.BrushWidth))
}

// --- path drawing ---

// pathDrawingMode captures one guide stroke for the text chosen when the
// mode was entered.
type pathDrawingMode struct {
	targetID string
	brush    Brush
}

func (m *pathDrawingMode) tool() Tool { return ToolPathDrawing }

func (m *pathDrawingMode) enter(e *Engine) {
	m.brush = Brush{Color: GuideBrushColor, Width: GuideBrushWidth, Decimate: GuideBrushDecimate}
	e.overlay.stroke = &m.brush
	e.scene.DiscardActive()
}

func (m *pathDrawingMode) exit(e *Engine) {
	m.brush.End()
	e.overlay.stroke = nil
}

func (m *pathDrawingMode) down(_ *Engine, p PointerEvent) {
	m.brush.Begin(p.X, p.Y)
}

func (m *pathDrawingMode) move(e *Engine, p PointerEvent) {
	if m.brush.Drawing() {
		m.brush.Add(p.X, p.Y)
		e.scene.RequestRedraw()
	}
}

func (m *pathDrawingMode) up(e *Engine, p PointerEvent) {
	if !m.brush.Drawing() {
		return
	}
	m.brush.Add(p.X, p.Y)
	cmds, ok := m.brush.End()
	if !ok {
		return
	}
	e.bindGuide(m.targetID, cmds)
	e.setMode(&selectMode{})
}
