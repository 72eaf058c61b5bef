package engine

import (
	"fmt"
	"log/slog"

	"github.com/inamate/canvasviewer/internal/document"
)

const DefaultHistoryLimit = 50

// History is a capped undo stack of full scene snapshots with a cursor.
type History struct {
	entries   []string
	cursor    int
	limit     int
	restoring bool

	// capture serialises the current scene.
	capture func() (string, error)
	// apply replaces the scene with a parsed snapshot.
	apply func(snapshot string) error
	// afterRestore resyncs state that mirrors canvas-level properties.
	afterRestore func()
	onSave       func(size int)
}

type HistoryOption func(*History)

func WithHistoryLimit(n int) HistoryOption {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

func WithAfterRestore(fn func()) HistoryOption {
	return func(h *History) { h.afterRestore = fn }
}

// WithSaveHook is called after every recorded snapshot with the stack size.
func WithSaveHook(fn func(size int)) HistoryOption {
	return func(h *History) { h.onSave = fn }
}

func NewHistory(capture func() (string, error), apply func(string) error, opts ...HistoryOption) *History {
	h := &History{
		cursor:  -1,
		limit:   DefaultHistoryLimit,
		capture: capture,
		apply:   apply,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Save records the current scene: entries past the cursor are discarded,
// the snapshot is appended and the oldest entry is evicted over the limit.
// It is a no-op while a restore is in progress.
func (h *History) Save() error {
	if h.restoring {
		return nil
	}
	snap, err := h.capture()
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}
	h.entries = append(h.entries[:h.cursor+1], snap)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
	h.cursor = len(h.entries) - 1
	if h.onSave != nil {
		h.onSave(len(h.entries))
	}
	return nil
}

// Undo steps back one snapshot. It reports whether anything was restored.
func (h *History) Undo() (bool, error) {
	if h.cursor <= 0 || h.restoring {
		return false, nil
	}
	return true, h.step(h.cursor - 1)
}

// Redo steps forward one snapshot. It reports whether anything was restored.
func (h *History) Redo() (bool, error) {
	if h.cursor >= len(h.entries)-1 || h.restoring {
		return false, nil
	}
	return true, h.step(h.cursor + 1)
}

// step restores entry i and moves the cursor there. A failed restore leaves
// the cursor where it was.
func (h *History) step(i int) error {
	h.restoring = true
	defer func() { h.restoring = false }()

	if err := h.apply(h.entries[i]); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	h.cursor = i
	if h.afterRestore != nil {
		h.afterRestore()
	}
	return nil
}

// Reset forgets every snapshot.
func (h *History) Reset() {
	h.entries = nil
	h.cursor = -1
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

func (h *History) Len() int { return len(h.entries) }

func (h *History) Cursor() int { return h.cursor }

func (h *History) Restoring() bool { return h.restoring }

// Current returns the snapshot under the cursor, if any.
func (h *History) Current() (string, bool) {
	if h.cursor < 0 {
		return "", false
	}
	return h.entries[h.cursor], true
}

// handle records a snapshot for structural scene events.
func (h *History) handle(ev Event) {
	if !ev.Kind.Structural() || h.restoring {
		return
	}
	if err := h.Save(); err != nil {
		slog.Warn("history snapshot failed", "event", ev.Kind, "error", err)
	}
}

// HistoryState is reported to hosts.
type HistoryState struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Size    int  `json:"size"`
	Cursor  int  `json:"cursor"`
}

func (h *History) State() HistoryState {
	return HistoryState{CanUndo: h.CanUndo(), CanRedo: h.CanRedo(), Size: h.Len(), Cursor: h.cursor}
}

// captureScene and applyScene bind a History to a Scene.
func captureScene(scene *Scene) func() (string, error) {
	return func() (string, error) {
		data, err := document.EncodeScene(scene.Background(), scene.Objects())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func applyScene(scene *Scene) func(string) error {
	return func(snapshot string) error {
		bg, objects, err := document.DecodeScene([]byte(snapshot))
		if err != nil {
			return err
		}
		scene.Replace(bg, objects)
		scene.RequestRedraw()
		return nil
	}
}
