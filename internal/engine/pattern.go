package engine

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/inamate/canvasviewer/internal/document"
)

// AssetStore holds decoded raster sources by id.
type AssetStore interface {
	Put(img image.Image) (string, error)
	Get(id string) (image.Image, error)
}

// Pattern scales outside the slider range are clamped. Tiles larger than
// MaxTilePixels are refused.
const (
	MinPatternScale = 0.01
	MaxPatternScale = 20
	MaxTilePixels   = 1 << 24

	maxCachedTiles = 64
)

// ClampPatternScale rejects scales that are not positive finite numbers and
// clamps the rest to [MinPatternScale, MaxPatternScale].
func ClampPatternScale(scale float64) (float64, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return 0, fmt.Errorf("pattern scale %v: %w", scale, ErrInvalidArgument)
	}
	return min(max(scale, MinPatternScale), MaxPatternScale), nil
}

// ScalePattern renders src onto a fresh offscreen raster at natural size
// times scale, never smaller than one pixel per side.
func ScalePattern(src image.Image, scale float64) (*image.RGBA, error) {
	scale, err := ClampPatternScale(scale)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	fw := max(1, math.Round(float64(b.Dx())*scale))
	fh := max(1, math.Round(float64(b.Dy())*scale))
	if fw*fh > MaxTilePixels {
		return nil, fmt.Errorf("pattern tile %.0fx%.0f too large: %w", fw, fh, ErrInvalidArgument)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(fw), int(fh)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst, nil
}

type tileKey struct {
	assetID string
	scale   float64
}

// patternCache keeps decoded originals and the scaled tiles made from them.
// Tiles live only in this engine; they never reach the asset store.
type patternCache struct {
	store   AssetStore
	sources map[string]image.Image
	tiles   map[tileKey]*image.RGBA
}

func newPatternCache(store AssetStore) *patternCache {
	return &patternCache{
		store:   store,
		sources: make(map[string]image.Image),
		tiles:   make(map[tileKey]*image.RGBA),
	}
}

// register stores a decoded original and returns its asset id.
func (c *patternCache) register(img image.Image) (string, error) {
	if c.store == nil {
		return "", ErrNoAssets
	}
	id, err := c.store.Put(img)
	if err != nil {
		return "", fmt.Errorf("store pattern source: %w", err)
	}
	c.sources[id] = img
	return id, nil
}

func (c *patternCache) source(id string) (image.Image, error) {
	if img, ok := c.sources[id]; ok {
		return img, nil
	}
	if c.store == nil {
		return nil, ErrNoAssets
	}
	img, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	c.sources[id] = img
	return img, nil
}

// tile returns the scaled tile for the source asset, building it on first
// use.
func (c *patternCache) tile(assetID string, scale float64) (*image.RGBA, error) {
	scale, err := ClampPatternScale(scale)
	if err != nil {
		return nil, err
	}
	key := tileKey{assetID, scale}
	if img, ok := c.tiles[key]; ok {
		return img, nil
	}
	src, err := c.source(assetID)
	if err != nil {
		return nil, err
	}
	img, err := ScalePattern(src, scale)
	if err != nil {
		return nil, err
	}
	if len(c.tiles) >= maxCachedTiles {
		clear(c.tiles)
	}
	c.tiles[key] = img
	return img, nil
}

// PatternTile returns the tile a pattern fill of sourceID repeats at scale.
func (e *Engine) PatternTile(sourceID string, scale float64) (image.Image, error) {
	return e.patterns.tile(sourceID, scale)
}

func (e *Engine) selectedText() (*document.Text, error) {
	obj, err := e.selected()
	if err != nil {
		return nil, err
	}
	t, ok := obj.(*document.Text)
	if !ok {
		return nil, ErrNotText
	}
	return t, nil
}

// BeginPatternFill captures the selected text and the panel's repeat and
// scale, and returns the continuation to call once the image is decoded.
// The continuation is a no-op returning ErrCancelled if the mode changed or
// the engine closed in between.
func (e *Engine) BeginPatternFill() (func(img image.Image, decodeErr error) error, error) {
	t, err := e.selectedText()
	if err != nil {
		return nil, err
	}
	targetID := t.ID
	repeat, scale := e.panel.PatternRepeat, e.panel.PatternScale
	guard := e.guards.issue()

	return func(img image.Image, decodeErr error) error {
		if !guard.Live() {
			return ErrCancelled
		}
		if decodeErr != nil {
			e.alert(fmt.Sprintf("Could not load pattern image: %v", decodeErr))
			return decodeErr
		}
		return e.applyPatternFill(targetID, img, repeat, scale)
	}, nil
}

// ApplyPatternFill fills the selected text with img tiled at the panel's
// repeat mode and scale.
func (e *Engine) ApplyPatternFill(img image.Image) error {
	cont, err := e.BeginPatternFill()
	if err != nil {
		return err
	}
	return cont(img, nil)
}

func (e *Engine) applyPatternFill(targetID string, img image.Image, repeat document.PatternRepeat, scale float64) error {
	obj := e.scene.FindByID(targetID)
	if obj == nil {
		return fmt.Errorf("pattern target %s: %w", targetID, ErrNotFound)
	}
	t, ok := obj.(*document.Text)
	if !ok {
		return ErrNotText
	}
	scale, err := ClampPatternScale(scale)
	if err != nil {
		return err
	}
	assetID, err := e.patterns.register(img)
	if err != nil {
		return err
	}
	p := document.Pattern{AssetID: assetID, Repeat: repeat, Scale: scale}
	if _, err := e.patterns.tile(assetID, scale); err != nil {
		return err
	}
	t.Style.Fill = document.Paint{Pattern: &p}
	e.panel.HasFillPattern = true
	e.scene.Modified(t)
	e.scene.RequestRedraw()
	e.notifyPanel()
	return nil
}

// UpdatePatternRepeat sets the panel repeat mode and, when the selected text
// has a pattern fill, its repeat mode too.
func (e *Engine) UpdatePatternRepeat(repeat document.PatternRepeat) error {
	if !repeat.Valid() {
		return fmt.Errorf("pattern repeat %q: %w", repeat, ErrInvalidArgument)
	}
	e.panel.PatternRepeat = repeat
	e.notifyPanel()
	t, err := e.selectedText()
	if err != nil || !t.Style.Fill.IsPattern() {
		return nil
	}
	t.Style.Fill.Pattern.Repeat = repeat
	e.scene.RequestRedraw()
	return nil
}

// UpdatePatternScale re-renders the cached original at the new scale. The
// scale is clamped to the slider range.
func (e *Engine) UpdatePatternScale(scale float64) error {
	scale, err := ClampPatternScale(scale)
	if err != nil {
		return err
	}
	if t, err := e.selectedText(); err == nil && t.Style.Fill.IsPattern() {
		p := *t.Style.Fill.Pattern
		if _, err := e.patterns.tile(p.AssetID, scale); err != nil {
			return err
		}
		p.Scale = scale
		t.Style.Fill.Pattern = &p
		e.scene.RequestRedraw()
	}
	e.panel.PatternScale = scale
	e.notifyPanel()
	return nil
}

// RemovePatternFill restores the panel fill colour on the selected text.
func (e *Engine) RemovePatternFill() error {
	t, err := e.selectedText()
	if err != nil {
		return err
	}
	if !t.Style.Fill.IsPattern() {
		return ErrNoPattern
	}
	t.Style.Fill = document.SolidPaint(e.panel.FillColor)
	e.panel.HasFillPattern = false
	e.scene.Modified(t)
	e.scene.RequestRedraw()
	e.notifyPanel()
	return nil
}
