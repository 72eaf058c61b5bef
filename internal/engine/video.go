package engine

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/inamate/canvasviewer/internal/document"
)

// VideoHandle is the host-side playback element backing a video object.
type VideoHandle interface {
	// Size reports the intrinsic frame size, zero when unknown.
	Size() (int, int)
	Pause()
	Release()
}

const (
	videoLeft          = 50
	videoTop           = 50
	videoDefaultWidth  = 320
	videoDefaultHeight = 240
)

// videoBindings maps object ids to the handles that play them.
type videoBindings struct {
	handles map[string]VideoHandle
}

func newVideoBindings() *videoBindings {
	return &videoBindings{handles: make(map[string]VideoHandle)}
}

func (v *videoBindings) Bind(id string, h VideoHandle) {
	if old, ok := v.handles[id]; ok && old != h {
		old.Pause()
		old.Release()
	}
	v.handles[id] = h
}

// Release pauses and frees the handle bound to id. It is safe to call for
// ids without a binding.
func (v *videoBindings) Release(id string) bool {
	h, ok := v.handles[id]
	if !ok {
		return false
	}
	delete(v.handles, id)
	h.Pause()
	h.Release()
	return true
}

func (v *videoBindings) Len() int { return len(v.handles) }

func (v *videoBindings) ReleaseAll() {
	for id := range v.handles {
		v.Release(id)
	}
}

// AddVideo places a video object backed by h and returns its id.
func (e *Engine) AddVideo(h VideoHandle) (string, error) {
	if h == nil {
		return "", fmt.Errorf("video handle: %w", ErrInvalidArgument)
	}
	w, ht := h.Size()
	if w <= 0 || ht <= 0 {
		w, ht = videoDefaultWidth, videoDefaultHeight
	}
	obj := &document.Image{
		Base: document.Base{
			Transform: document.IdentityTransform(videoLeft, videoTop),
			Style:     document.Style{Opacity: 1},
		},
		Width:  float64(w),
		Height: float64(ht),
		Video:  true,
	}
	id := AssignID(obj)
	e.videos.Bind(id, h)
	e.scene.Add(obj)
	e.scene.SetActive(obj)
	e.scene.RequestRedraw()
	return id, nil
}

// BeginImageImport returns the continuation to call once a picked image is
// decoded. A mode change or Close before then cancels it.
func (e *Engine) BeginImageImport() func(img image.Image, decodeErr error) (string, error) {
	guard := e.guards.issue()
	return func(img image.Image, decodeErr error) (string, error) {
		if !guard.Live() {
			return "", ErrCancelled
		}
		if decodeErr != nil {
			e.alert(fmt.Sprintf("Could not load image: %v", decodeErr))
			return "", decodeErr
		}
		return e.AddImage(img)
	}
}

// AddImage stores img and places it at the origin at its natural size.
func (e *Engine) AddImage(img image.Image) (string, error) {
	if e.opts.Assets == nil {
		return "", ErrNoAssets
	}
	assetID, err := e.opts.Assets.Put(img)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	b := img.Bounds()
	obj := &document.Image{
		Base: document.Base{
			Transform: document.IdentityTransform(0, 0),
			Style:     document.Style{Opacity: 1},
			Caching:   true,
		},
		AssetID: assetID,
		Width:   float64(b.Dx()),
		Height:  float64(b.Dy()),
	}
	id := AssignID(obj)
	e.scene.Add(obj)
	e.scene.SetActive(obj)
	e.scene.RequestRedraw()
	slog.Debug("image added", "object", id, "asset", assetID)
	return id, nil
}
