package engine

import (
	"fmt"
	"log/slog"

	"github.com/inamate/canvasviewer/internal/document"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Alerter shows a message to the user.
type Alerter interface {
	ShowAlert(message, kind string)
}

// FilePicker opens the host's file chooser. The host answers later through
// BeginImageImport or AddVideo.
type FilePicker interface {
	PickFile(accept string)
}

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	Width        int
	Height       int
	Background   string
	HistoryLimit int
	SnapRadius   float64

	Assets  AssetStore
	Picker  FilePicker
	Alerter Alerter

	OnLayersChanged     func([]Layer)
	OnPanelChanged      func(PanelState)
	OnHistoryChanged    func(HistoryState)
	OnBackgroundChanged func(string)
	OnToolChanged       func(Tool)

	// OnSnapshotSaved fires once per recorded history snapshot.
	OnSnapshotSaved func()
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Background == "" {
		o.Background = document.DefaultBackground
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	if o.SnapRadius <= 0 {
		o.SnapRadius = SnapRadius
	}
}

// Engine owns the scene and everything derived from it: layers, panel,
// history, tool modes and the overlay. It is driven from a single goroutine.
type Engine struct {
	opts Options

	scene   *Scene
	tracker *ArrowTracker
	history *History
	panel   PanelState
	layers  []Layer

	mode    mode
	overlay overlay
	editing *editState
	guards  guards

	fonts    *Fonts
	patterns *patternCache
	videos   *videoBindings

	unsubscribe []func()
	closed      bool
}

// New creates an engine with an empty scene in select mode. The initial
// scene is the first history entry.
func New(opts Options) *Engine {
	opts.applyDefaults()
	e := &Engine{
		opts:     opts,
		scene:    NewScene(opts.Background),
		panel:    DefaultPanelState(),
		fonts:    NewFonts(),
		patterns: newPatternCache(opts.Assets),
		videos:   newVideoBindings(),
	}
	e.tracker = NewArrowTracker(e.scene)
	e.history = NewHistory(
		captureScene(e.scene),
		applyScene(e.scene),
		WithHistoryLimit(opts.HistoryLimit),
		WithAfterRestore(e.afterRestore),
		WithSaveHook(func(int) {
			if e.opts.OnSnapshotSaved != nil {
				e.opts.OnSnapshotSaved()
			}
			e.notifyHistory()
		}),
	)

	// Layers and panel see a change before arrows follow it, and history
	// records the result last.
	e.unsubscribe = append(e.unsubscribe,
		e.scene.On(e.handleSceneEvent),
		e.scene.On(e.tracker.handle),
		e.scene.On(e.history.handle),
	)

	e.mode = &selectMode{}
	e.mode.enter(e)
	e.rebuildLayers()
	e.seedHistory()
	return e
}

func (e *Engine) handleSceneEvent(ev Event) {
	switch {
	case ev.Kind == EventSelection:
		e.syncPanel()
	case ev.Kind.Structural() || ev.Kind == EventReset:
		if e.editing != nil && e.scene.IndexOf(e.editing.text) < 0 {
			e.editing.text.Editing = false
			e.editing = nil
		}
		e.rebuildLayers()
	}
}

func (e *Engine) afterRestore() {
	e.rebuildLayers()
	e.tracker.RefreshAll()
	e.syncPanel()
	e.notifyHistory()
	if e.opts.OnBackgroundChanged != nil {
		e.opts.OnBackgroundChanged(e.scene.Background())
	}
}

func (e *Engine) seedHistory() {
	e.history.Reset()
	if err := e.history.Save(); err != nil {
		slog.Warn("seed history", "error", err)
	}
}

func (e *Engine) notifyHistory() {
	if e.opts.OnHistoryChanged != nil {
		e.opts.OnHistoryChanged(e.history.State())
	}
}

func (e *Engine) alert(msg string) {
	slog.Warn("engine alert", "message", msg)
	if e.opts.Alerter != nil {
		e.opts.Alerter.ShowAlert(msg, "error")
	}
}

// addObject gives obj an id and adds it to the scene.
func (e *Engine) addObject(obj document.Object) string {
	id := AssignID(obj)
	e.scene.Add(obj)
	e.scene.RequestRedraw()
	return id
}

// Scene exposes the retained scene.
func (e *Engine) Scene() *Scene { return e.scene }

func (e *Engine) Size() (int, int) { return e.opts.Width, e.opts.Height }

// --- Document ---

// LoadSnapshot replaces the scene with a serialised one and starts a fresh
// history from it.
func (e *Engine) LoadSnapshot(data []byte) error {
	bg, objects, err := document.DecodeScene(data)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	e.replace(bg, objects)
	return nil
}

// LoadSample replaces the scene with the built-in sample drawing.
func (e *Engine) LoadSample() {
	bg, objects := document.NewSampleScene()
	e.replace(bg, objects)
}

func (e *Engine) replace(bg string, objects []document.Object) {
	e.ExitTextEditing()
	e.setMode(&selectMode{})
	e.videos.ReleaseAll()
	for _, obj := range objects {
		if t, ok := obj.(*document.Text); ok && t.Width == 0 {
			e.measureText(t)
		}
	}
	e.scene.Replace(bg, objects)
	e.scene.RequestRedraw()
	e.seedHistory()
	if e.opts.OnBackgroundChanged != nil {
		e.opts.OnBackgroundChanged(bg)
	}
}

// Snapshot serialises the current scene.
func (e *Engine) Snapshot() ([]byte, error) {
	return document.EncodeScene(e.scene.Background(), e.scene.Objects())
}

// Background returns the canvas colour.
func (e *Engine) Background() string { return e.scene.Background() }

// SetBackground changes the canvas colour and records it in history.
func (e *Engine) SetBackground(color string) {
	if color == e.scene.Background() {
		return
	}
	e.scene.SetBackground(color)
	e.scene.RequestRedraw()
	if err := e.history.Save(); err != nil {
		slog.Warn("history snapshot failed", "error", err)
	}
	if e.opts.OnBackgroundChanged != nil {
		e.opts.OnBackgroundChanged(color)
	}
}

// --- History ---

func (e *Engine) Undo() (bool, error) {
	e.ExitTextEditing()
	return e.history.Undo()
}

func (e *Engine) Redo() (bool, error) {
	e.ExitTextEditing()
	return e.history.Redo()
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// SaveSnapshot records the current scene outside the usual scene events.
func (e *Engine) SaveSnapshot() error {
	return e.history.Save()
}

func (e *Engine) HistoryState() HistoryState { return e.history.State() }

// --- Rendering ---

// Render compiles the scene and the overlay into one frame.
func (e *Engine) Render() Frame {
	f := e.frame()
	f.Commands = append(f.Commands, e.overlayCommands()...)
	active := e.scene.Active()
	f.Selection = make([]string, 0, len(active))
	for _, o := range active {
		f.Selection = append(f.Selection, o.Common().ID)
	}
	f.Bounds = SelectionBounds(active)
	return f
}

// PrepareExport drops selection chrome and in-place editing and returns the
// frame an exporter should rasterise.
func (e *Engine) PrepareExport() Frame {
	e.ExitTextEditing()
	e.scene.DiscardActive()
	return e.frame()
}

func (e *Engine) frame() Frame {
	return Frame{
		Width:      e.opts.Width,
		Height:     e.opts.Height,
		Background: e.scene.Background(),
		Commands:   CompileDrawCommands(e.scene),
		Selection:  []string{},
	}
}

func (e *Engine) overlayCommands() []DrawCommand {
	c := &compiler{scene: e.scene}
	if e.overlay.preview != nil {
		c.object(e.overlay.preview, Identity(), 1, true)
	}
	if s := e.overlay.stroke; s != nil && s.Drawing() {
		if path := smoothPath(s.Points()); len(path) > 0 {
			c.out = append(c.out, DrawCommand{
				Op:          "path",
				Transform:   Identity().ToSlice(),
				Path:        path,
				Stroke:      s.Color,
				StrokeWidth: s.Width,
				Opacity:     1,
				Overlay:     true,
			})
		}
	}
	if s := e.overlay.snap; s != nil {
		c.out = append(c.out, snapRing(s.X, s.Y))
	}
	return c.out
}

// Close cancels pending continuations, releases every video and detaches
// from the scene. A closed engine ignores input.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.guards.cancelAll()
	e.videos.ReleaseAll()
	for _, fn := range e.unsubscribe {
		fn()
	}
	e.unsubscribe = nil
}

func (e *Engine) Closed() bool { return e.closed }
