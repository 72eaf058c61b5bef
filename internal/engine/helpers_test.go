package engine

import (
	"fmt"
	"image"
	"image/color"

	"github.com/inamate/canvasviewer/internal/document"
)

func newRect(x, y, w, h float64) *document.Rect {
	return &document.Rect{
		Base: document.Base{
			Transform: document.IdentityTransform(x, y),
			Style:     document.Style{Fill: document.SolidPaint("#ffffff"), Opacity: 1},
			Caching:   true,
		},
		Width:       w,
		Height:      h,
		BorderStyle: document.BorderSolid,
	}
}

func newText(x, y float64, s string) *document.Text {
	return &document.Text{
		Base: document.Base{
			Transform: document.IdentityTransform(x, y),
			Style:     document.Style{Fill: document.SolidPaint("#ffffff"), Opacity: 1},
			Caching:   true,
		},
		Text:       s,
		FontSize:   20,
		FontFamily: "Arial",
		FontWeight: document.FontWeightNormal,
		FontStyle:  document.FontStyleNormal,
	}
}

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	return img
}

type memStore struct {
	images map[string]image.Image
	n      int
}

func newMemStore() *memStore {
	return &memStore{images: make(map[string]image.Image)}
}

func (s *memStore) Put(img image.Image) (string, error) {
	s.n++
	id := fmt.Sprintf("asset_%d", s.n)
	s.images[id] = img
	return id, nil
}

func (s *memStore) Get(id string) (image.Image, error) {
	img, ok := s.images[id]
	if !ok {
		return nil, ErrNotFound
	}
	return img, nil
}

type recordingAlerter struct {
	messages []string
}

func (a *recordingAlerter) ShowAlert(message, kind string) {
	a.messages = append(a.messages, kind+": "+message)
}

type fakeVideo struct {
	w, h     int
	paused   int
	released int
}

func (v *fakeVideo) Size() (int, int) { return v.w, v.h }
func (v *fakeVideo) Pause()           { v.paused++ }
func (v *fakeVideo) Release()         { v.released++ }

// drag runs a full pointer gesture through the points.
func drag(e *Engine, pts ...[2]float64) {
	e.PointerDown(PointerEvent{X: pts[0][0], Y: pts[0][1]})
	for _, p := range pts[1 : len(pts)-1] {
		e.PointerMove(PointerEvent{X: p[0], Y: p[1]})
	}
	last := pts[len(pts)-1]
	e.PointerUp(PointerEvent{X: last[0], Y: last[1]})
}
