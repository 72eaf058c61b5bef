package engine

import (
	"encoding/json"
	"log/slog"

	"github.com/inamate/canvasviewer/internal/document"
)

// DrawCommand is a single drawing operation for the host to execute on a
// Canvas2D context, or for the export rasteriser.
type DrawCommand struct {
	Op        string             `json:"op"` // "path", "text", "image", "video", "save", "restore"
	ObjectID  string             `json:"objectId,omitempty"`
	Transform []float64          `json:"transform,omitempty"` // [a, b, c, d, e, f]
	Path      []document.PathCmd `json:"path,omitempty"`

	Fill        string           `json:"fill,omitempty"`
	Pattern     *PatternPaint    `json:"pattern,omitempty"`
	Stroke      string           `json:"stroke,omitempty"`
	StrokeWidth float64          `json:"strokeWidth,omitempty"`
	Dash        []float64        `json:"dash,omitempty"`
	DashOffset  float64          `json:"dashOffset,omitempty"`
	Opacity     float64          `json:"opacity"`
	Shadow      *document.Shadow `json:"shadow,omitempty"`

	Text            string              `json:"text,omitempty"`
	FontSize        float64             `json:"fontSize,omitempty"`
	FontFamily      string              `json:"fontFamily,omitempty"`
	FontWeight      document.FontWeight `json:"fontWeight,omitempty"`
	FontStyle       document.FontStyle  `json:"fontStyle,omitempty"`
	TextPath        []document.PathCmd  `json:"textPath,omitempty"`
	PathStartOffset float64             `json:"pathStartOffset,omitempty"`
	Editing         bool                `json:"editing,omitempty"`

	ImageAssetID string  `json:"imageAssetId,omitempty"`
	ImageWidth   float64 `json:"imageWidth,omitempty"`
	ImageHeight  float64 `json:"imageHeight,omitempty"`

	// Overlay commands are transient feedback (previews, snap ring) that
	// never belong to the scene.
	Overlay bool `json:"overlay,omitempty"`
}

// PatternPaint tells the host which source image to scale and repeat.
type PatternPaint struct {
	SourceAssetID string                 `json:"sourceAssetId"`
	Repeat        document.PatternRepeat `json:"repeat"`
	Scale         float64                `json:"scale"`
}

// compiler turns scene objects into draw commands in painter's order.
type compiler struct {
	scene *Scene
	out   []DrawCommand
}

func (c *compiler) object(obj document.Object, parent Matrix2D, parentOpacity float64, overlay bool) {
	b := obj.Common()
	world := parent.Multiply(ObjectMatrix(b.Transform))
	opacity := parentOpacity * b.Style.Opacity

	base := DrawCommand{
		ObjectID:  b.ID,
		Transform: world.ToSlice(),
		Opacity:   opacity,
		Overlay:   overlay,
	}
	if b.Style.Shadow != nil && !b.Style.Shadow.IsZero() {
		s := *b.Style.Shadow
		base.Shadow = &s
	}

	switch o := obj.(type) {
	case *document.Group:
		c.out = append(c.out, DrawCommand{Op: "save", ObjectID: o.ID, Overlay: overlay})
		for _, child := range o.Children {
			c.object(child, world, opacity, overlay)
		}
		c.out = append(c.out, DrawCommand{Op: "restore", ObjectID: o.ID, Overlay: overlay})
		return

	case *document.Image:
		cmd := base
		cmd.Op = "image"
		if o.Video {
			cmd.Op = "video"
		}
		cmd.ImageAssetID = o.AssetID
		cmd.ImageWidth = o.Width
		cmd.ImageHeight = o.Height
		c.out = append(c.out, cmd)
		return

	case *document.Text:
		cmd := base
		cmd.Op = "text"
		c.paint(&cmd, b.Style)
		cmd.Text = o.Text
		cmd.FontSize = o.FontSize
		cmd.FontFamily = o.FontFamily
		cmd.FontWeight = o.FontWeight
		cmd.FontStyle = o.FontStyle
		cmd.Editing = o.Editing
		if guide, ok := textGuide(c.scene, o); ok {
			cmd.TextPath = guide
			cmd.PathStartOffset = o.PathStartOffset
		}
		c.out = append(c.out, cmd)
		return
	}

	path := ShapePath(obj)
	if len(path) == 0 {
		return
	}
	cmd := base
	cmd.Op = "path"
	cmd.Path = path
	c.paint(&cmd, b.Style)
	c.out = append(c.out, cmd)
}

func (c *compiler) paint(cmd *DrawCommand, st document.Style) {
	if p := st.Fill.Pattern; p != nil {
		cmd.Pattern = &PatternPaint{SourceAssetID: p.AssetID, Repeat: p.Repeat, Scale: p.Scale}
	} else {
		cmd.Fill = st.Fill.Color
	}
	cmd.Stroke = st.Stroke
	cmd.StrokeWidth = st.StrokeWidth
	if len(st.DashArray) > 0 {
		cmd.Dash = append([]float64(nil), st.DashArray...)
		cmd.DashOffset = st.DashOffset
	}
}

// CompileDrawCommands generates the command buffer for the whole scene.
func CompileDrawCommands(scene *Scene) []DrawCommand {
	c := &compiler{scene: scene}
	for _, obj := range scene.Objects() {
		c.object(obj, Identity(), 1, false)
	}
	return c.out
}

// SnapRingRadius and friends style the snap indicator.
const (
	SnapRingRadius = 7
	SnapRingStroke = "#84cc16"
	SnapRingWidth  = 2
)

func snapRing(x, y float64) DrawCommand {
	e := &document.Ellipse{
		Base: document.Base{
			Transform: document.IdentityTransform(x-SnapRingRadius, y-SnapRingRadius),
		},
		RX: SnapRingRadius,
		RY: SnapRingRadius,
	}
	return DrawCommand{
		Op:          "path",
		Transform:   ObjectMatrix(e.Transform).ToSlice(),
		Path:        ShapePath(e),
		Stroke:      SnapRingStroke,
		StrokeWidth: SnapRingWidth,
		Opacity:     1,
		Overlay:     true,
	}
}

// Frame is one render of the editor for the host.
type Frame struct {
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Background string        `json:"background"`
	Commands   []DrawCommand `json:"commands"`
	Selection  []string      `json:"selection"`
	Bounds     Rect          `json:"selectionBounds"`
}

func (f Frame) JSON() string {
	data, err := json.Marshal(f)
	if err != nil {
		slog.Warn("encode frame", "error", err)
		return "{}"
	}
	return string(data)
}

// HitTest returns the topmost object whose box contains the point. Thin
// shapes get a few pixels of slack so lines stay clickable.
func HitTest(objects []document.Object, x, y float64) document.Object {
	for i := len(objects) - 1; i >= 0; i-- {
		obj := objects[i]
		r := BoundingRect(obj)
		slack := max(obj.Common().Style.StrokeWidth/2, 3)
		if r.Width < 2*slack || r.Height < 2*slack {
			r = r.Inflate(slack)
		}
		if r.Contains(x, y) {
			return obj
		}
	}
	return nil
}

// SelectionBounds is the union of the boxes of objs.
func SelectionBounds(objs []document.Object) Rect {
	var result Rect
	for _, o := range objs {
		result = result.Union(BoundingRect(o))
	}
	return result
}
