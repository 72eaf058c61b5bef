package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/inamate/canvasviewer/internal/document"
	"github.com/inamate/canvasviewer/internal/engine"
)

// ImageSource resolves the asset ids carried by image and pattern
// commands.
type ImageSource interface {
	Get(id string) (image.Image, error)
}

// TileSource hands out pattern tiles already scaled for the scene. An
// ImageSource that also implements it spares the rasteriser rescaling.
type TileSource interface {
	PatternTile(sourceID string, scale float64) (image.Image, error)
}

// Rasterizer paints engine frames onto an RGBA canvas. Overlay commands
// are skipped. Shadows are drawn as hard offset copies without blur.
type Rasterizer struct {
	images ImageSource
	fonts  *engine.Fonts
}

func NewRasterizer(images ImageSource, fonts *engine.Fonts) *Rasterizer {
	if fonts == nil {
		fonts = engine.NewFonts()
	}
	return &Rasterizer{images: images, fonts: fonts}
}

func (r *Rasterizer) Rasterize(f engine.Frame) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("frame size %dx%d: %w", f.Width, f.Height, ErrEmptyFrame)
	}
	dc := gg.NewContext(f.Width, f.Height)
	if bg, ok := parseColor(f.Background, 1); ok {
		dc.SetColor(bg)
		dc.Clear()
	}

	for _, cmd := range f.Commands {
		if cmd.Overlay {
			continue
		}
		var err error
		switch cmd.Op {
		case "path":
			r.drawPath(dc, cmd)
		case "text":
			err = r.drawText(dc, cmd)
		case "image":
			r.drawImage(dc, cmd)
		case "video":
			r.drawVideo(dc, cmd)
		}
		if err != nil {
			return nil, fmt.Errorf("draw %s %s: %w", cmd.Op, cmd.ObjectID, err)
		}
	}

	rgba, ok := dc.Image().(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(dc.Image().Bounds())
		draw.Draw(rgba, rgba.Bounds(), dc.Image(), image.Point{}, draw.Src)
	}
	return rgba, nil
}

// setMatrix loads the command transform, optionally shifted in device
// space by (dx, dy).
func setMatrix(dc *gg.Context, transform []float64, dx, dy float64) {
	dc.Identity()
	dc.Translate(dx, dy)
	var m engine.Matrix2D
	if len(transform) == len(m) {
		copy(m[:], transform)
	} else {
		m = engine.Identity()
	}
	tx, ty, theta, kx, sx, sy := m.Decompose()
	dc.Translate(tx, ty)
	dc.Rotate(theta)
	dc.Shear(kx, 0)
	dc.Scale(sx, sy)
}

// lineScale approximates how the transform stretches stroke widths.
func lineScale(transform []float64) float64 {
	if len(transform) != 6 {
		return 1
	}
	det := math.Abs(transform[0]*transform[3] - transform[1]*transform[2])
	if det == 0 {
		return 1
	}
	return math.Sqrt(det)
}

func tracePath(dc *gg.Context, cmds []document.PathCmd) {
	dc.ClearPath()
	for _, c := range cmds {
		switch c.Op {
		case "M":
			dc.MoveTo(c.Args[0], c.Args[1])
		case "L":
			dc.LineTo(c.Args[0], c.Args[1])
		case "Q":
			dc.QuadraticTo(c.Args[0], c.Args[1], c.Args[2], c.Args[3])
		case "C":
			dc.CubicTo(c.Args[0], c.Args[1], c.Args[2], c.Args[3], c.Args[4], c.Args[5])
		case "Z":
			dc.ClosePath()
		}
	}
}

func (r *Rasterizer) drawPath(dc *gg.Context, cmd engine.DrawCommand) {
	if s := cmd.Shadow; s != nil {
		if c, ok := parseColor(s.Color, cmd.Opacity); ok {
			setMatrix(dc, cmd.Transform, s.OffsetX, s.OffsetY)
			tracePath(dc, cmd.Path)
			dc.SetColor(c)
			if cmd.Fill != "" || cmd.Pattern != nil {
				dc.FillPreserve()
			}
			r.stroke(dc, cmd, c)
		}
	}

	setMatrix(dc, cmd.Transform, 0, 0)
	tracePath(dc, cmd.Path)
	if cmd.Pattern != nil {
		if p := r.pattern(cmd); p != nil {
			dc.SetFillStyle(p)
			dc.FillPreserve()
		}
	} else if c, ok := parseColor(cmd.Fill, cmd.Opacity); ok && c.A > 0 {
		dc.SetColor(c)
		dc.FillPreserve()
	}
	if c, ok := parseColor(cmd.Stroke, cmd.Opacity); ok {
		r.stroke(dc, cmd, c)
	}
	dc.ClearPath()
}

// stroke outlines the current path. Dashes always start at phase zero
// since gg has no dash offset; a still export loses nothing visible.
func (r *Rasterizer) stroke(dc *gg.Context, cmd engine.DrawCommand, c color.Color) {
	if cmd.StrokeWidth <= 0 || cmd.Stroke == "" {
		return
	}
	scale := lineScale(cmd.Transform)
	dc.SetColor(c)
	dc.SetLineWidth(cmd.StrokeWidth * scale)
	if len(cmd.Dash) > 0 {
		dash := make([]float64, len(cmd.Dash))
		for i, d := range cmd.Dash {
			dash[i] = d * scale
		}
		dc.SetDash(dash...)
	} else {
		dc.SetDash()
	}
	dc.StrokePreserve()
}

func (r *Rasterizer) drawText(dc *gg.Context, cmd engine.DrawCommand) error {
	if cmd.Text == "" {
		return nil
	}
	face, err := r.fonts.Face(cmd.FontWeight, cmd.FontStyle, cmd.FontSize)
	if err != nil {
		return err
	}

	if s := cmd.Shadow; s != nil {
		if c, ok := parseColor(s.Color, cmd.Opacity); ok {
			setMatrix(dc, cmd.Transform, s.OffsetX, s.OffsetY)
			dc.SetFontFace(face)
			dc.SetColor(c)
			writeText(dc, face, cmd)
		}
	}

	if cmd.Pattern != nil {
		p := r.pattern(cmd)
		if p == nil {
			return nil
		}
		// Glyph coverage becomes a mask the pattern is filled through.
		tmp := gg.NewContext(dc.Width(), dc.Height())
		setMatrix(tmp, cmd.Transform, 0, 0)
		tmp.SetFontFace(face)
		tmp.SetColor(color.Black)
		writeText(tmp, face, cmd)
		if err := dc.SetMask(tmp.AsMask()); err != nil {
			return err
		}
		dc.Identity()
		dc.SetFillStyle(p)
		dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
		dc.Fill()
		dc.ResetClip()
		return nil
	}

	c, ok := parseColor(cmd.Fill, cmd.Opacity)
	if !ok {
		return nil
	}
	setMatrix(dc, cmd.Transform, 0, 0)
	dc.SetFontFace(face)
	dc.SetColor(c)
	writeText(dc, face, cmd)
	return nil
}

// writeText lays the string out line by line, or glyph by glyph along the
// guide when the command carries one.
func writeText(dc *gg.Context, face font.Face, cmd engine.DrawCommand) {
	if len(cmd.TextPath) > 0 {
		writeOnPath(dc, face, cmd)
		return
	}
	ascent := float64(face.Metrics().Ascent) / 64
	for i, line := range strings.Split(cmd.Text, "\n") {
		dc.DrawString(line, 0, ascent+float64(i)*cmd.FontSize*engine.LineHeight)
	}
}

func writeOnPath(dc *gg.Context, face font.Face, cmd engine.DrawCommand) {
	polys := engine.Flatten(cmd.TextPath)
	if len(polys) == 0 {
		return
	}
	guide := polys[0]
	dist := cmd.PathStartOffset
	for _, ch := range strings.ReplaceAll(cmd.Text, "\n", " ") {
		glyph := string(ch)
		adv := float64(font.MeasureString(face, glyph)) / 64
		p, angle, ok := engine.PointAtLength(guide, dist+adv/2)
		if !ok {
			if dist+adv/2 < 0 {
				dist += adv
				continue
			}
			return
		}
		dc.Push()
		dc.Translate(p.X, p.Y)
		dc.Rotate(angle)
		dc.DrawString(glyph, -adv/2, 0)
		dc.Pop()
		dist += adv
	}
}

func (r *Rasterizer) drawImage(dc *gg.Context, cmd engine.DrawCommand) {
	if r.images == nil {
		return
	}
	img, err := r.images.Get(cmd.ImageAssetID)
	if err != nil {
		slog.Warn("export image unavailable", "asset", cmd.ImageAssetID, "error", err)
		return
	}
	if cmd.Opacity < 1 {
		img = fade(img, cmd.Opacity)
	}
	b := img.Bounds()
	setMatrix(dc, cmd.Transform, 0, 0)
	if cmd.ImageWidth > 0 && cmd.ImageHeight > 0 && b.Dx() > 0 && b.Dy() > 0 {
		dc.Scale(cmd.ImageWidth/float64(b.Dx()), cmd.ImageHeight/float64(b.Dy()))
	}
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
}

// drawVideo fills the player box; frames live on the client only.
func (r *Rasterizer) drawVideo(dc *gg.Context, cmd engine.DrawCommand) {
	setMatrix(dc, cmd.Transform, 0, 0)
	dc.DrawRectangle(0, 0, cmd.ImageWidth, cmd.ImageHeight)
	dc.SetColor(color.NRGBA{0, 0, 0, uint8(math.Round(255 * clamp01(cmd.Opacity)))})
	dc.Fill()
}

func fade(img image.Image, opacity float64) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(255 * clamp01(opacity)))})
	draw.DrawMask(out, b, img, b.Min, mask, image.Point{}, draw.Over)
	return out
}

func (r *Rasterizer) pattern(cmd engine.DrawCommand) gg.Pattern {
	if r.images == nil {
		return nil
	}
	p := cmd.Pattern
	tile, err := r.tile(p.SourceAssetID, p.Scale)
	if err != nil {
		slog.Warn("export pattern unavailable", "asset", p.SourceAssetID, "error", err)
		return nil
	}
	var ox, oy int
	if len(cmd.Transform) == 6 {
		ox, oy = int(math.Round(cmd.Transform[4])), int(math.Round(cmd.Transform[5]))
	}
	return &tilePattern{img: tile, repeat: p.Repeat, ox: ox, oy: oy, alpha: clamp01(cmd.Opacity)}
}

func (r *Rasterizer) tile(sourceID string, scale float64) (image.Image, error) {
	if ts, ok := r.images.(TileSource); ok {
		return ts.PatternTile(sourceID, scale)
	}
	src, err := r.images.Get(sourceID)
	if err != nil {
		return nil, err
	}
	return engine.ScalePattern(src, scale)
}

// tilePattern repeats img from the object's origin in device space.
type tilePattern struct {
	img    image.Image
	repeat document.PatternRepeat
	ox, oy int
	alpha  float64
}

func (p *tilePattern) ColorAt(x, y int) color.Color {
	b := p.img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return color.Transparent
	}
	x -= p.ox
	y -= p.oy
	repeatX := p.repeat == document.PatternRepeatBoth || p.repeat == document.PatternRepeatX
	repeatY := p.repeat == document.PatternRepeatBoth || p.repeat == document.PatternRepeatY
	if repeatX {
		x = mod(x, w)
	} else if x < 0 || x >= w {
		return color.Transparent
	}
	if repeatY {
		y = mod(y, h)
	} else if y < 0 || y >= h {
		return color.Transparent
	}
	c := p.img.At(b.Min.X+x, b.Min.Y+y)
	if p.alpha >= 1 {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(math.Round(float64(n.A) * p.alpha))
	return n
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
