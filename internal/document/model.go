package document

import "strings"

type ObjectType string

const (
	ObjectTypeRect     ObjectType = "rect"
	ObjectTypeEllipse  ObjectType = "ellipse"
	ObjectTypeTriangle ObjectType = "triangle"
	ObjectTypeLine     ObjectType = "line"
	ObjectTypePath     ObjectType = "path"
	ObjectTypeText     ObjectType = "text"
	ObjectTypeImage    ObjectType = "image"
	ObjectTypeArrow    ObjectType = "arrow"
	ObjectTypeGroup    ObjectType = "group"
)

// Transform places an object's local box on the canvas. Left/Top is the
// top-left corner of the untransformed box.
type Transform struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
	SkewX  float64 `json:"skewX"`
	SkewY  float64 `json:"skewY"`
	Angle  float64 `json:"angle"`
}

// IdentityTransform returns a transform at (left, top) with unit scale.
func IdentityTransform(left, top float64) Transform {
	return Transform{Left: left, Top: top, ScaleX: 1, ScaleY: 1}
}

type Shadow struct {
	Color   string  `json:"color"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// IsZero reports whether the shadow would draw nothing.
func (s Shadow) IsZero() bool {
	return s.Blur == 0 && s.OffsetX == 0 && s.OffsetY == 0
}

type PatternRepeat string

const (
	PatternRepeatBoth PatternRepeat = "repeat"
	PatternRepeatX    PatternRepeat = "repeat-x"
	PatternRepeatY    PatternRepeat = "repeat-y"
	PatternRepeatNone PatternRepeat = "no-repeat"
)

// Valid reports whether r is one of the known repeat modes.
func (r PatternRepeat) Valid() bool {
	switch r {
	case PatternRepeatBoth, PatternRepeatX, PatternRepeatY, PatternRepeatNone:
		return true
	}
	return false
}

// Pattern is a tiled image fill. The source pixels live in the asset store;
// only the reference and the tiling metadata are part of the scene.
type Pattern struct {
	AssetID string        `json:"assetId"`
	Repeat  PatternRepeat `json:"patternRepeat"`
	Scale   float64       `json:"patternScale"`
}

// Paint is either a solid colour or a pattern, never both.
type Paint struct {
	Color   string   `json:"color,omitempty"`
	Pattern *Pattern `json:"pattern,omitempty"`
}

func SolidPaint(color string) Paint { return Paint{Color: color} }

func (p Paint) IsPattern() bool { return p.Pattern != nil }

type Style struct {
	Fill        Paint     `json:"fill"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth"`
	DashArray   []float64 `json:"dashArray,omitempty"`
	DashOffset  float64   `json:"dashOffset,omitempty"`
	Opacity     float64   `json:"opacity"`
	Shadow      *Shadow   `json:"shadow,omitempty"`
}

// Base holds the attributes every scene object shares.
type Base struct {
	ID        string
	Label     string
	Transform Transform
	Style     Style
	// Caching mirrors the render cache of the drawing surface. Animated
	// strokes need it off so per-frame dash changes are picked up.
	Caching bool
}

// Common returns the shared attributes. Embedding Base gives every concrete
// kind this method.
func (b *Base) Common() *Base { return b }

// Object is the closed set of scene object kinds.
type Object interface {
	Common() *Base
	Type() ObjectType
	// Size is the untransformed width and height of the object's local box.
	Size() (w, h float64)
}

type BorderStyle string

const (
	BorderSolid          BorderStyle = "solid"
	BorderDashed         BorderStyle = "dashed"
	BorderAnimatedDashed BorderStyle = "animated-dashed"
)

func (b BorderStyle) Valid() bool {
	switch b {
	case BorderSolid, BorderDashed, BorderAnimatedDashed:
		return true
	}
	return false
}

type Rect struct {
	Base
	Width       float64
	Height      float64
	BorderStyle BorderStyle
}

func (r *Rect) Type() ObjectType         { return ObjectTypeRect }
func (r *Rect) Size() (float64, float64) { return r.Width, r.Height }

type Ellipse struct {
	Base
	RX float64
	RY float64
}

func (e *Ellipse) Type() ObjectType         { return ObjectTypeEllipse }
func (e *Ellipse) Size() (float64, float64) { return 2 * e.RX, 2 * e.RY }

type Triangle struct {
	Base
	Width  float64
	Height float64
}

func (t *Triangle) Type() ObjectType         { return ObjectTypeTriangle }
func (t *Triangle) Size() (float64, float64) { return t.Width, t.Height }

// Line endpoints are local to the line's box.
type Line struct {
	Base
	X1, Y1, X2, Y2 float64
}

func (l *Line) Type() ObjectType { return ObjectTypeLine }
func (l *Line) Size() (float64, float64) {
	return abs(l.X2 - l.X1), abs(l.Y2 - l.Y1)
}

// PathData is path geometry normalised so its bounding box starts at (0, 0).
type PathData struct {
	Commands []PathCmd
	Width    float64
	Height   float64
}

type Path struct {
	Base
	PathData
}

func (p *Path) Type() ObjectType         { return ObjectTypePath }
func (p *Path) Size() (float64, float64) { return p.Width, p.Height }

type FontWeight string

const (
	FontWeightNormal FontWeight = "normal"
	FontWeightBold   FontWeight = "bold"
)

type FontStyle string

const (
	FontStyleNormal FontStyle = "normal"
	FontStyleItalic FontStyle = "italic"
)

type Text struct {
	Base
	Text       string
	FontSize   float64
	FontFamily string
	FontWeight FontWeight
	FontStyle  FontStyle
	Width      float64
	Height     float64

	// Guide is the curve the glyphs flow along. It is usually a drawn path
	// that is no longer part of the scene; GuideID names a scene path when
	// the text was bound to an existing one.
	Guide           *Path
	GuideID         string
	PathStartOffset float64

	// Editing is in-session state only.
	Editing bool
}

func (t *Text) Type() ObjectType         { return ObjectTypeText }
func (t *Text) Size() (float64, float64) { return t.Width, t.Height }

// Image is a raster object. Video-backed images carry Video=true and are
// re-bound to a live video handle by the session, never by the snapshot.
type Image struct {
	Base
	AssetID string
	Width   float64
	Height  float64
	Video   bool
}

func (i *Image) Type() ObjectType         { return ObjectTypeImage }
func (i *Image) Size() (float64, float64) { return i.Width, i.Height }

type ArrowAnimation string

const (
	ArrowAnimationNone ArrowAnimation = "none"
	ArrowAnimationDash ArrowAnimation = "dash"
)

func (a ArrowAnimation) Valid() bool {
	return a == ArrowAnimationNone || a == ArrowAnimationDash
}

type Arrow struct {
	Base
	PathData
	From      Endpoint
	To        Endpoint
	Animation ArrowAnimation
}

func (a *Arrow) Type() ObjectType         { return ObjectTypeArrow }
func (a *Arrow) Size() (float64, float64) { return a.Width, a.Height }

// Group children are positioned relative to the group's top-left corner.
type Group struct {
	Base
	Children []Object
	Width    float64
	Height   float64
}

func (g *Group) Type() ObjectType         { return ObjectTypeGroup }
func (g *Group) Size() (float64, float64) { return g.Width, g.Height }

// IsTextType reports whether t is a text-bearing kind.
func IsTextType(t ObjectType) bool { return t == ObjectTypeText }

// CleanLabel trims a user supplied label. An empty result means "use the
// default label".
func CleanLabel(label string) string { return strings.TrimSpace(label) }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
