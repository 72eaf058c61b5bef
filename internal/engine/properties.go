package engine

import (
	"fmt"
	"math"

	"github.com/inamate/canvasviewer/internal/document"
)

// DrawnPathID marks a text path that is not a scene object.
const DrawnPathID = "__drawn__"

// PanelState mirrors the visual attributes of the selected object. It is
// a preview buffer, not the source of truth for the scene.
type PanelState struct {
	FillColor       string                  `json:"fillColor"`
	StrokeColor     string                  `json:"strokeColor"`
	StrokeWidth     float64                 `json:"strokeWidth"`
	Opacity         float64                 `json:"opacity"`
	Shadow          document.Shadow         `json:"shadow"`
	BrushColor      string                  `json:"brushColor"`
	BrushWidth      float64                 `json:"brushWidth"`
	FontSize        float64                 `json:"fontSize"`
	FontFamily      string                  `json:"fontFamily"`
	FontWeight      document.FontWeight     `json:"fontWeight"`
	FontStyle       document.FontStyle      `json:"fontStyle"`
	ArrowAnimation  document.ArrowAnimation `json:"arrowAnimation"`
	RectBorderStyle document.BorderStyle    `json:"rectBorderStyle"`
	ScaleX          float64                 `json:"scaleX"`
	ScaleY          float64                 `json:"scaleY"`
	SkewX           float64                 `json:"skewX"`
	SkewY           float64                 `json:"skewY"`
	HasFillPattern  bool                    `json:"hasFillPattern"`
	PatternRepeat   document.PatternRepeat  `json:"patternRepeat"`
	PatternScale    float64                 `json:"patternScale"`

	// TextPathID is empty when the selected text follows no path, DrawnPathID
	// for a drawn guide, or the id of a scene path.
	TextPathID     string  `json:"textPathId"`
	TextPathOffset float64 `json:"textPathOffset"`
}

func DefaultPanelState() PanelState {
	return PanelState{
		FillColor:       "#4CAF50",
		StrokeColor:     "#84cc16",
		StrokeWidth:     2,
		Opacity:         1,
		Shadow:          defaultShadow(),
		BrushColor:      "#84cc16",
		BrushWidth:      4,
		FontSize:        20,
		FontFamily:      "Arial",
		FontWeight:      document.FontWeightNormal,
		FontStyle:       document.FontStyleNormal,
		ArrowAnimation:  document.ArrowAnimationNone,
		RectBorderStyle: document.BorderSolid,
		ScaleX:          1,
		ScaleY:          1,
		PatternRepeat:   document.PatternRepeatBoth,
		PatternScale:    1,
	}
}

func defaultShadow() document.Shadow {
	return document.Shadow{Color: "#000000"}
}

// PanelPatch is a partial panel update; nil fields are left alone.
type PanelPatch struct {
	FillColor       *string                  `json:"fillColor,omitempty"`
	StrokeColor     *string                  `json:"strokeColor,omitempty"`
	StrokeWidth     *float64                 `json:"strokeWidth,omitempty"`
	Opacity         *float64                 `json:"opacity,omitempty"`
	Shadow          *document.Shadow         `json:"shadow,omitempty"`
	BrushColor      *string                  `json:"brushColor,omitempty"`
	BrushWidth      *float64                 `json:"brushWidth,omitempty"`
	FontSize        *float64                 `json:"fontSize,omitempty"`
	FontFamily      *string                  `json:"fontFamily,omitempty"`
	FontWeight      *document.FontWeight     `json:"fontWeight,omitempty"`
	FontStyle       *document.FontStyle      `json:"fontStyle,omitempty"`
	ArrowAnimation  *document.ArrowAnimation `json:"arrowAnimation,omitempty"`
	RectBorderStyle *document.BorderStyle    `json:"rectBorderStyle,omitempty"`
	ScaleX          *float64                 `json:"scaleX,omitempty"`
	ScaleY          *float64                 `json:"scaleY,omitempty"`
	SkewX           *float64                 `json:"skewX,omitempty"`
	SkewY           *float64                 `json:"skewY,omitempty"`
	PatternRepeat   *document.PatternRepeat  `json:"patternRepeat,omitempty"`
	PatternScale    *float64                 `json:"patternScale,omitempty"`
}

// Merge applies the non-nil fields of p onto s.
func (p PanelPatch) Merge(s PanelState) PanelState {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.FillColor, p.FillColor)
	set(&s.StrokeColor, p.StrokeColor)
	setF(&s.StrokeWidth, p.StrokeWidth)
	setF(&s.Opacity, p.Opacity)
	if p.Shadow != nil {
		s.Shadow = *p.Shadow
	}
	set(&s.BrushColor, p.BrushColor)
	setF(&s.BrushWidth, p.BrushWidth)
	setF(&s.FontSize, p.FontSize)
	set(&s.FontFamily, p.FontFamily)
	if p.FontWeight != nil {
		s.FontWeight = *p.FontWeight
	}
	if p.FontStyle != nil {
		s.FontStyle = *p.FontStyle
	}
	if p.ArrowAnimation != nil {
		s.ArrowAnimation = *p.ArrowAnimation
	}
	if p.RectBorderStyle != nil {
		s.RectBorderStyle = *p.RectBorderStyle
	}
	setF(&s.ScaleX, p.ScaleX)
	setF(&s.ScaleY, p.ScaleY)
	setF(&s.SkewX, p.SkewX)
	setF(&s.SkewY, p.SkewY)
	if p.PatternRepeat != nil {
		s.PatternRepeat = *p.PatternRepeat
	}
	setF(&s.PatternScale, p.PatternScale)
	return s
}

// Validate rejects values no object can carry: negative or non-finite
// widths, opacity outside [0, 1], non-positive font sizes and unknown
// enumerations.
func (p PanelPatch) Validate() error {
	width := func(name string, v *float64) error {
		if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s %v: %w", name, *v, ErrInvalidArgument)
		}
		return nil
	}
	if err := width("stroke width", p.StrokeWidth); err != nil {
		return err
	}
	if err := width("brush width", p.BrushWidth); err != nil {
		return err
	}
	if p.Opacity != nil && !(*p.Opacity >= 0 && *p.Opacity <= 1) {
		return fmt.Errorf("opacity %v: %w", *p.Opacity, ErrInvalidArgument)
	}
	if p.FontSize != nil && !(*p.FontSize > 0 && !math.IsInf(*p.FontSize, 0)) {
		return fmt.Errorf("font size %v: %w", *p.FontSize, ErrInvalidArgument)
	}
	if p.ArrowAnimation != nil && !p.ArrowAnimation.Valid() {
		return fmt.Errorf("arrow animation %q: %w", *p.ArrowAnimation, ErrInvalidArgument)
	}
	if p.RectBorderStyle != nil && !p.RectBorderStyle.Valid() {
		return fmt.Errorf("border style %q: %w", *p.RectBorderStyle, ErrInvalidArgument)
	}
	if p.PatternRepeat != nil && !p.PatternRepeat.Valid() {
		return fmt.Errorf("pattern repeat %q: %w", *p.PatternRepeat, ErrInvalidArgument)
	}
	if p.PatternScale != nil {
		if _, err := ClampPatternScale(*p.PatternScale); err != nil {
			return err
		}
	}
	return nil
}

// ReadFromSelection refreshes prev from obj. Attributes obj does not define
// keep their previous panel value.
func ReadFromSelection(prev PanelState, obj document.Object, scene *Scene) PanelState {
	s := prev
	b := obj.Common()
	st := b.Style

	if !st.Fill.IsPattern() && st.Fill.Color != "" {
		s.FillColor = st.Fill.Color
	}
	if st.Stroke != "" {
		s.StrokeColor = st.Stroke
	}
	s.StrokeWidth = st.StrokeWidth
	s.Opacity = st.Opacity
	if st.Shadow != nil {
		s.Shadow = *st.Shadow
		if s.Shadow.Color == "" {
			s.Shadow.Color = prev.Shadow.Color
		}
	} else {
		s.Shadow = defaultShadow()
	}

	text, isText := obj.(*document.Text)
	if isText {
		if text.FontSize > 0 {
			s.FontSize = text.FontSize
		}
		if text.FontFamily != "" {
			s.FontFamily = text.FontFamily
		}
		s.FontWeight = document.FontWeightNormal
		if text.FontWeight == document.FontWeightBold {
			s.FontWeight = document.FontWeightBold
		}
		s.FontStyle = document.FontStyleNormal
		if text.FontStyle == document.FontStyleItalic {
			s.FontStyle = document.FontStyleItalic
		}
	}

	if a, ok := obj.(*document.Arrow); ok {
		s.ArrowAnimation = a.Animation
		if s.ArrowAnimation == "" {
			s.ArrowAnimation = document.ArrowAnimationNone
		}
	}
	if r, ok := obj.(*document.Rect); ok {
		s.RectBorderStyle = r.BorderStyle
		if s.RectBorderStyle == "" {
			s.RectBorderStyle = document.BorderSolid
		}
	}

	s.ScaleX = b.Transform.ScaleX
	s.ScaleY = b.Transform.ScaleY
	s.SkewX = b.Transform.SkewX
	s.SkewY = b.Transform.SkewY
	s.HasFillPattern = st.Fill.IsPattern()

	s.TextPathID, s.TextPathOffset = "", 0
	if isText {
		if p := st.Fill.Pattern; p != nil {
			s.PatternRepeat = p.Repeat
			s.PatternScale = p.Scale
		}
		switch {
		case text.GuideID != "" && scene != nil && scene.FindByID(text.GuideID) != nil:
			s.TextPathID = text.GuideID
			s.TextPathOffset = text.PathStartOffset
		case text.Guide != nil:
			s.TextPathID = DrawnPathID
			s.TextPathOffset = text.PathStartOffset
		}
	}
	return s
}

// Panel returns the current panel state.
func (e *Engine) Panel() PanelState { return e.panel }

// SetProperties merges patch into the panel only; nothing is written to the
// scene. An invalid patch leaves the panel untouched.
func (e *Engine) SetProperties(patch PanelPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	e.panel = patch.Merge(e.panel)
	e.notifyPanel()
	return nil
}

func (e *Engine) notifyPanel() {
	if e.opts.OnPanelChanged != nil {
		e.opts.OnPanelChanged(e.panel)
	}
}

// syncPanel re-reads the panel from a single selected object.
func (e *Engine) syncPanel() {
	active := e.scene.Active()
	if len(active) != 1 {
		e.panel.TextPathID, e.panel.TextPathOffset = "", 0
		e.notifyPanel()
		return
	}
	e.panel = ReadFromSelection(e.panel, active[0], e.scene)
	e.notifyPanel()
}

// ApplyToSelection commits the whole panel to every member of the active
// selection individually. Pattern fills are never replaced by a colour.
func (e *Engine) ApplyToSelection() error {
	targets := e.scene.Active()
	if len(targets) == 0 {
		return ErrNoSelection
	}
	p := e.panel
	for _, obj := range targets {
		b := obj.Common()
		if !b.Style.Fill.IsPattern() {
			b.Style.Fill = document.SolidPaint(p.FillColor)
		}
		b.Style.Stroke = p.StrokeColor
		b.Style.StrokeWidth = p.StrokeWidth
		b.Style.Opacity = p.Opacity
		shadow := p.Shadow
		b.Style.Shadow = &shadow
		b.Transform.ScaleX = p.ScaleX
		b.Transform.ScaleY = p.ScaleY
		b.Transform.SkewX = p.SkewX
		b.Transform.SkewY = p.SkewY
		if t, ok := obj.(*document.Text); ok {
			t.FontSize = p.FontSize
			t.FontFamily = p.FontFamily
			t.FontWeight = p.FontWeight
			t.FontStyle = p.FontStyle
			e.measureText(t)
		}
	}
	e.scene.Modified(targets...)
	e.scene.RequestRedraw()
	return nil
}

// selected returns the single active object, the one the instant-apply
// controls act on.
func (e *Engine) selected() (document.Object, error) {
	active := e.scene.Active()
	if len(active) != 1 {
		return nil, ErrNoSelection
	}
	return active[0], nil
}

var (
	arrowDash = []float64{10, 8}
	rectDash  = []float64{10, 16}
)

// ApplyArrowAnimation switches the selected arrow's dash animation.
func (e *Engine) ApplyArrowAnimation(anim document.ArrowAnimation) error {
	if !anim.Valid() {
		return fmt.Errorf("arrow animation %q: %w", anim, ErrInvalidArgument)
	}
	obj, err := e.selected()
	if err != nil {
		return err
	}
	a, ok := obj.(*document.Arrow)
	if !ok {
		return fmt.Errorf("arrow animation on %s: %w", obj.Type(), ErrWrongType)
	}
	a.Animation = anim
	if anim == document.ArrowAnimationNone {
		a.Style.DashArray = nil
	} else {
		a.Style.DashArray = append([]float64(nil), arrowDash...)
	}
	a.Style.DashOffset = 0
	a.Caching = anim == document.ArrowAnimationNone
	e.scene.RequestRedraw()
	e.panel.ArrowAnimation = anim
	e.notifyPanel()
	return nil
}

// ApplyRectBorderStyle switches the selected rectangle's border dashes.
func (e *Engine) ApplyRectBorderStyle(style document.BorderStyle) error {
	if !style.Valid() {
		return fmt.Errorf("border style %q: %w", style, ErrInvalidArgument)
	}
	obj, err := e.selected()
	if err != nil {
		return err
	}
	r, ok := obj.(*document.Rect)
	if !ok {
		return fmt.Errorf("border style on %s: %w", obj.Type(), ErrWrongType)
	}
	r.BorderStyle = style
	if style == document.BorderSolid {
		r.Style.DashArray = nil
	} else {
		r.Style.DashArray = append([]float64(nil), rectDash...)
	}
	r.Style.DashOffset = 0
	r.Caching = style != document.BorderAnimatedDashed
	e.scene.RequestRedraw()
	e.panel.RectBorderStyle = style
	e.notifyPanel()
	return nil
}

// TransformPatch carries the scale and skew sliders; nil fields are left
// alone.
type TransformPatch struct {
	ScaleX *float64 `json:"scaleX,omitempty"`
	ScaleY *float64 `json:"scaleY,omitempty"`
	SkewX  *float64 `json:"skewX,omitempty"`
	SkewY  *float64 `json:"skewY,omitempty"`
}

// ApplyTransform writes scale and skew to the selected object at once.
// Connected arrows follow as they do during a drag.
func (e *Engine) ApplyTransform(patch TransformPatch) error {
	obj, err := e.selected()
	if err != nil {
		return err
	}
	t := &obj.Common().Transform
	if patch.ScaleX != nil {
		t.ScaleX = *patch.ScaleX
		e.panel.ScaleX = *patch.ScaleX
	}
	if patch.ScaleY != nil {
		t.ScaleY = *patch.ScaleY
		e.panel.ScaleY = *patch.ScaleY
	}
	if patch.SkewX != nil {
		t.SkewX = *patch.SkewX
		e.panel.SkewX = *patch.SkewX
	}
	if patch.SkewY != nil {
		t.SkewY = *patch.SkewY
		e.panel.SkewY = *patch.SkewY
	}
	e.scene.Moving(obj)
	e.scene.RequestRedraw()
	e.notifyPanel()
	return nil
}
