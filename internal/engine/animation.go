package engine

import (
	"github.com/inamate/canvasviewer/internal/document"
)

// Dash offsets advance by these steps on every animation frame.
const (
	ArrowDashStep = 1.5
	RectDashStep  = 2
)

// AnimationFrame advances the dash offset of every animated arrow and
// rectangle. It reports whether anything moved.
func (e *Engine) AnimationFrame() bool {
	if e.closed {
		return false
	}
	changed := false
	for _, obj := range e.scene.Objects() {
		switch o := obj.(type) {
		case *document.Arrow:
			if o.Animation == document.ArrowAnimationDash {
				o.Style.DashOffset -= ArrowDashStep
				changed = true
			}
		case *document.Rect:
			if o.BorderStyle == document.BorderAnimatedDashed {
				o.Style.DashOffset -= RectDashStep
				changed = true
			}
		}
	}
	if changed {
		e.scene.RequestRedraw()
	}
	return changed
}

// VideoFrame requests a repaint while any video is bound, so playback frames
// reach the surface.
func (e *Engine) VideoFrame() bool {
	if e.closed || e.videos.Len() == 0 {
		return false
	}
	e.scene.RequestRedraw()
	return true
}

// Tick runs one host frame: dash animation, video repaint, and the pending
// redraw flag. It reports whether the host should render.
func (e *Engine) Tick() bool {
	if e.closed {
		return false
	}
	e.AnimationFrame()
	e.VideoFrame()
	return e.scene.TakeRedraw()
}
