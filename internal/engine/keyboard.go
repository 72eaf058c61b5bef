package engine

import (
	"log/slog"

	"github.com/inamate/canvasviewer/internal/document"
)

// KeyEvent is a key press forwarded by the host. InputFocused is set when a
// form field outside the canvas holds the keyboard.
type KeyEvent struct {
	Key          string `json:"key"`
	Ctrl         bool   `json:"ctrl,omitempty"`
	Meta         bool   `json:"meta,omitempty"`
	Shift        bool   `json:"shift,omitempty"`
	InputFocused bool   `json:"inputFocused,omitempty"`
}

func (k KeyEvent) modifier() bool { return k.Ctrl || k.Meta }

// editState remembers the text being edited in place and its content when
// editing began.
type editState struct {
	text   *document.Text
	before string
}

func (e *Engine) beginEditing(t *document.Text) {
	if e.editing != nil && e.editing.text == t {
		return
	}
	if e.editing != nil {
		e.ExitTextEditing()
	}
	t.Editing = true
	e.editing = &editState{text: t, before: t.Text}
	e.scene.RequestRedraw()
}

// Editing reports whether a text object is being edited in place.
func (e *Engine) Editing() bool { return e.editing != nil }

// ExitTextEditing leaves in-place editing. A changed text is committed as a
// modification.
func (e *Engine) ExitTextEditing() {
	if e.editing == nil {
		return
	}
	st := e.editing
	e.editing = nil
	st.text.Editing = false
	e.scene.RequestRedraw()
	if st.text.Text != st.before && e.scene.IndexOf(st.text) >= 0 {
		e.scene.Modified(st.text)
	}
}

// KeyDown handles a key press. It reports whether the engine consumed it.
func (e *Engine) KeyDown(k KeyEvent) bool {
	if e.closed {
		return false
	}
	if e.editing != nil {
		return e.editKey(k)
	}

	if k.Key == "Escape" && e.PathDrawing() {
		e.setMode(&selectMode{})
		return true
	}
	if k.InputFocused || !k.modifier() {
		return false
	}

	switch {
	case (k.Key == "z" || k.Key == "Z") && !k.Shift:
		if _, err := e.Undo(); err != nil {
			slog.Warn("undo failed", "error", err)
		}
		return true
	case k.Key == "y" || k.Key == "Y", (k.Key == "z" || k.Key == "Z") && k.Shift:
		if _, err := e.Redo(); err != nil {
			slog.Warn("redo failed", "error", err)
		}
		return true
	}
	return false
}

func (e *Engine) editKey(k KeyEvent) bool {
	t := e.editing.text
	switch {
	case k.Key == "Escape":
		e.ExitTextEditing()
		return true
	case k.modifier():
		return false
	case k.Key == "Backspace":
		r := []rune(t.Text)
		if len(r) == 0 {
			return true
		}
		t.Text = string(r[:len(r)-1])
	case k.Key == "Enter":
		t.Text += "\n"
	case len([]rune(k.Key)) == 1:
		t.Text += k.Key
	default:
		return false
	}
	e.measureText(t)
	e.scene.RequestRedraw()
	return true
}
