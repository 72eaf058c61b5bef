package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/inamate/canvasviewer/internal/document"
)

// defaultGuideLength stands in when a guide's length cannot be measured.
const defaultGuideLength = 300

// OpenPathDrawer captures the selected text and enters path-drawing mode.
// The next freehand stroke becomes that text's guide.
func (e *Engine) OpenPathDrawer() error {
	t, err := e.selectedText()
	if err != nil {
		return err
	}
	e.setMode(&pathDrawingMode{targetID: t.ID})
	return nil
}

// PathDrawing reports whether the engine waits for a guide stroke.
func (e *Engine) PathDrawing() bool {
	_, ok := e.mode.(*pathDrawingMode)
	return ok
}

// GuideFontSize sizes glyphs so the text spans the guide.
func GuideFontSize(length float64, text string) float64 {
	chars := len([]rune(text))
	if chars == 0 {
		chars = 1
	}
	return math.Round(2.5 * length / float64(chars))
}

// bindGuide attaches a drawn guide to the text captured at mode entry. The
// guide itself never enters the scene.
func (e *Engine) bindGuide(targetID string, cmds []document.PathCmd) {
	obj := e.scene.FindByID(targetID)
	t, ok := obj.(*document.Text)
	if !ok {
		slog.Debug("path drawing target gone", "target", targetID)
		return
	}

	guide := NewStrokePath(cmds, GuideBrushColor, GuideBrushWidth)
	length := ArcLength(guide.Commands)
	if length <= 0 {
		length = defaultGuideLength
	}

	t.FontSize = GuideFontSize(length, t.Text)
	t.Guide = guide
	t.GuideID = ""
	t.PathStartOffset = 0
	t.Transform.Left = guide.Transform.Left
	t.Transform.Top = guide.Transform.Top
	e.measureText(t)

	e.scene.Modified(t)
	e.scene.RequestRedraw()
	e.panel.TextPathID = DrawnPathID
	e.panel.TextPathOffset = 0
	e.notifyPanel()
}

// ApplyPathToText binds the selected text to a path. An empty pathID
// detaches it, DrawnPathID keeps the drawn guide and only updates the offset,
// and any other id names a path in the scene.
func (e *Engine) ApplyPathToText(pathID string, offset float64) error {
	t, err := e.selectedText()
	if err != nil {
		return err
	}

	switch pathID {
	case "":
		t.Guide = nil
		t.GuideID = ""
		t.PathStartOffset = 0
		offset = 0
	case DrawnPathID:
		t.PathStartOffset = offset
	default:
		obj := e.scene.FindByID(pathID)
		if obj == nil {
			return fmt.Errorf("text path %s: %w", pathID, ErrNotFound)
		}
		if _, ok := obj.(*document.Path); !ok {
			return fmt.Errorf("text path %s is %s: %w", pathID, obj.Type(), ErrWrongType)
		}
		t.Guide = nil
		t.GuideID = pathID
		t.PathStartOffset = offset
	}

	e.panel.TextPathID = pathID
	e.panel.TextPathOffset = offset
	e.scene.Modified(t)
	e.scene.RequestRedraw()
	e.notifyPanel()
	return nil
}

// textGuide resolves the curve a text follows, in the text's local
// coordinates. ok is false for straight text or a missing scene path.
func textGuide(scene *Scene, t *document.Text) ([]document.PathCmd, bool) {
	if t.GuideID != "" {
		obj := scene.FindByID(t.GuideID)
		p, ok := obj.(*document.Path)
		if !ok {
			return nil, false
		}
		dx := p.Transform.Left - t.Transform.Left
		dy := p.Transform.Top - t.Transform.Top
		return offsetPath(p.Commands, dx, dy), true
	}
	if t.Guide != nil {
		// A drawn guide travels with its text.
		return t.Guide.Commands, true
	}
	return nil, false
}

func offsetPath(cmds []document.PathCmd, dx, dy float64) []document.PathCmd {
	if dx == 0 && dy == 0 {
		return cmds
	}
	out := make([]document.PathCmd, len(cmds))
	for i, c := range cmds {
		args := make([]float64, len(c.Args))
		for j, a := range c.Args {
			if j%2 == 0 {
				args[j] = a + dx
			} else {
				args[j] = a + dy
			}
		}
		out[i] = document.PathCmd{Op: c.Op, Args: args}
	}
	return out
}
