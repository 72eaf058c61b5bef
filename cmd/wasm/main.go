//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"syscall/js"

	"github.com/inamate/canvasviewer/internal/asset"
	"github.com/inamate/canvasviewer/internal/document"
	"github.com/inamate/canvasviewer/internal/engine"
)

var (
	eng       *engine.Engine
	listeners = map[string]js.Value{}

	pendingPattern func(image.Image, error) error
	pendingImage   func(image.Image, error) (string, error)
	pickAccept     string
)

var errPickCancelled = errors.New("file selection cancelled")

func main() {
	eng = engine.New(engine.Options{
		Assets:              asset.NewMemoryStore(),
		Picker:              picker{},
		Alerter:             alerter{},
		OnLayersChanged:     func(l []engine.Layer) { emit("layers", l) },
		OnPanelChanged:      func(p engine.PanelState) { emit("panel", p) },
		OnHistoryChanged:    func(h engine.HistoryState) { emit("history", h) },
		OnBackgroundChanged: func(c string) { emit("background", map[string]string{"color": c}) },
		OnToolChanged:       func(t engine.Tool) { emit("tool", map[string]string{"tool": string(t)}) },
	})

	canvasEngine := js.Global().Get("Object").New()

	// --- Host wiring ---
	canvasEngine.Set("on", js.FuncOf(on))
	canvasEngine.Set("provideFile", js.FuncOf(provideFile))
	canvasEngine.Set("cancelFile", js.FuncOf(cancelFile))
	canvasEngine.Set("addVideo", js.FuncOf(addVideo))

	// --- Commands (frontend → engine) ---
	canvasEngine.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	canvasEngine.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	canvasEngine.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	canvasEngine.Set("keyDown", js.FuncOf(keyDown))
	canvasEngine.Set("exitTextEditing", js.FuncOf(exitTextEditing))
	canvasEngine.Set("setTool", js.FuncOf(setTool))
	canvasEngine.Set("setProperties", js.FuncOf(setProperties))
	canvasEngine.Set("applyToSelection", js.FuncOf(call(eng.ApplyToSelection)))
	canvasEngine.Set("applyTransform", js.FuncOf(applyTransform))
	canvasEngine.Set("applyArrowAnimation", js.FuncOf(applyArrowAnimation))
	canvasEngine.Set("applyRectBorderStyle", js.FuncOf(applyRectBorderStyle))
	canvasEngine.Set("setBackground", js.FuncOf(setBackground))
	canvasEngine.Set("beginPatternFill", js.FuncOf(beginPatternFill))
	canvasEngine.Set("updatePatternRepeat", js.FuncOf(updatePatternRepeat))
	canvasEngine.Set("updatePatternScale", js.FuncOf(updatePatternScale))
	canvasEngine.Set("removePatternFill", js.FuncOf(call(eng.RemovePatternFill)))
	canvasEngine.Set("openPathDrawer", js.FuncOf(call(eng.OpenPathDrawer)))
	canvasEngine.Set("applyPathToText", js.FuncOf(applyPathToText))
	canvasEngine.Set("loadSnapshot", js.FuncOf(loadSnapshot))
	canvasEngine.Set("loadSample", js.FuncOf(loadSample))
	canvasEngine.Set("selectLayer", js.FuncOf(layerCall(eng.SelectLayer)))
	canvasEngine.Set("removeLayer", js.FuncOf(layerCall(eng.RemoveLayer)))
	canvasEngine.Set("renameLayer", js.FuncOf(renameLayer))
	canvasEngine.Set("reorderLayer", js.FuncOf(reorderLayer))
	canvasEngine.Set("checkLayers", js.FuncOf(checkLayers))
	canvasEngine.Set("groupLayers", js.FuncOf(groupLayers))
	canvasEngine.Set("undo", js.FuncOf(undo))
	canvasEngine.Set("redo", js.FuncOf(redo))
	canvasEngine.Set("saveSnapshot", js.FuncOf(call(eng.SaveSnapshot)))
	canvasEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("prepareExport", js.FuncOf(prepareExport))
	canvasEngine.Set("getSnapshot", js.FuncOf(getSnapshot))
	canvasEngine.Set("getLayers", js.FuncOf(getLayers))
	canvasEngine.Set("getPanel", js.FuncOf(getPanel))
	canvasEngine.Set("getTool", js.FuncOf(getTool))

	js.Global().Set("canvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Host callbacks ---

type picker struct{}

func (picker) PickFile(accept string) {
	pickAccept = accept
	emit("filePick", map[string]string{"accept": accept})
}

type alerter struct{}

func (alerter) ShowAlert(message, kind string) {
	emit("alert", map[string]string{"message": message, "kind": kind})
}

// jsVideo is a <video> element owned by the page.
type jsVideo struct {
	objectID      string
	width, height int
	released      bool
}

func (v *jsVideo) Size() (int, int) { return v.width, v.height }

func (v *jsVideo) Pause() { emit("videoPause", map[string]string{"objectId": v.objectID}) }

func (v *jsVideo) Release() {
	if v.released {
		return
	}
	v.released = true
	emit("videoRelease", map[string]string{"objectId": v.objectID})
}

// emit hands payload to the listener registered for event as a JSON string.
func emit(event string, payload interface{}) {
	fn, found := listeners[event]
	if !found {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fn.Invoke(string(data))
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func result(err error) interface{} {
	if err != nil {
		return fail(err)
	}
	return ok()
}

func decodeArg[T any](args []js.Value) (T, error) {
	var v T
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return v, errors.New("missing JSON argument")
	}
	err := json.Unmarshal([]byte(args[0].String()), &v)
	return v, err
}

func stringArg(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

func call(fn func() error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		return result(fn())
	}
}

func layerCall(fn func(id string) error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		return result(fn(stringArg(args, 0)))
	}
}

func pointer(fn func(engine.PointerEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		p, err := decodeArg[engine.PointerEvent](args)
		if err != nil {
			return fail(err)
		}
		fn(p)
		return ok()
	}
}

// --- Command Handlers ---

func on(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || args[1].Type() != js.TypeFunction {
		return fail(errors.New("usage: on(event, fn)"))
	}
	listeners[args[0].String()] = args[1]
	return ok()
}

// provideFile answers the last file pick with the file's bytes.
func provideFile(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail(errors.New("missing file bytes"))
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])
	img, _, err := asset.Decode(bytes.NewReader(data))
	return resolvePick(img, err)
}

func cancelFile(this js.Value, args []js.Value) interface{} {
	return resolvePick(nil, errPickCancelled)
}

func resolvePick(img image.Image, err error) interface{} {
	switch {
	case pendingPattern != nil:
		cont := pendingPattern
		pendingPattern = nil
		return result(cont(img, err))
	case pendingImage != nil:
		cont := pendingImage
		pendingImage = nil
		id, err := cont(img, err)
		if err != nil {
			return fail(err)
		}
		return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
	}
	return fail(errors.New("no file was requested"))
}

func addVideo(this js.Value, args []js.Value) interface{} {
	v := &jsVideo{}
	if len(args) >= 2 {
		v.width, v.height = args[0].Int(), args[1].Int()
	}
	id, err := eng.AddVideo(v)
	if err != nil {
		return fail(err)
	}
	v.objectID = id
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func keyDown(this js.Value, args []js.Value) interface{} {
	k, err := decodeArg[engine.KeyEvent](args)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "handled": eng.KeyDown(k)})
}

func exitTextEditing(this js.Value, args []js.Value) interface{} {
	eng.ExitTextEditing()
	return ok()
}

func setTool(this js.Value, args []js.Value) interface{} {
	pickAccept = ""
	if err := eng.SetTool(engine.Tool(stringArg(args, 0))); err != nil {
		return fail(err)
	}
	if pickAccept == "image/*" {
		pendingImage = eng.BeginImageImport()
	}
	return ok()
}

func setProperties(this js.Value, args []js.Value) interface{} {
	patch, err := decodeArg[engine.PanelPatch](args)
	if err != nil {
		return fail(err)
	}
	return result(eng.SetProperties(patch))
}

func applyTransform(this js.Value, args []js.Value) interface{} {
	patch, err := decodeArg[engine.TransformPatch](args)
	if err != nil {
		return fail(err)
	}
	return result(eng.ApplyTransform(patch))
}

func applyArrowAnimation(this js.Value, args []js.Value) interface{} {
	return result(eng.ApplyArrowAnimation(document.ArrowAnimation(stringArg(args, 0))))
}

func applyRectBorderStyle(this js.Value, args []js.Value) interface{} {
	return result(eng.ApplyRectBorderStyle(document.BorderStyle(stringArg(args, 0))))
}

func setBackground(this js.Value, args []js.Value) interface{} {
	eng.SetBackground(stringArg(args, 0))
	return ok()
}

func beginPatternFill(this js.Value, args []js.Value) interface{} {
	cont, err := eng.BeginPatternFill()
	if err != nil {
		return fail(err)
	}
	pendingPattern = cont
	picker{}.PickFile("image/*")
	return ok()
}

func updatePatternRepeat(this js.Value, args []js.Value) interface{} {
	return result(eng.UpdatePatternRepeat(document.PatternRepeat(stringArg(args, 0))))
}

func updatePatternScale(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail(errors.New("missing scale"))
	}
	return result(eng.UpdatePatternScale(args[0].Float()))
}

func applyPathToText(this js.Value, args []js.Value) interface{} {
	var offset float64
	if len(args) > 1 {
		offset = args[1].Float()
	}
	return result(eng.ApplyPathToText(stringArg(args, 0), offset))
}

func loadSnapshot(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail(errors.New("missing snapshot JSON"))
	}
	return result(eng.LoadSnapshot([]byte(args[0].String())))
}

func loadSample(this js.Value, args []js.Value) interface{} {
	eng.LoadSample()
	return ok()
}

func renameLayer(this js.Value, args []js.Value) interface{} {
	return result(eng.RenameLayer(stringArg(args, 0), stringArg(args, 1)))
}

func reorderLayer(this js.Value, args []js.Value) interface{} {
	return result(eng.ReorderLayer(stringArg(args, 0), engine.ReorderDirection(stringArg(args, 1))))
}

func checkLayers(this js.Value, args []js.Value) interface{} {
	ids, err := decodeArg[[]string](args)
	if err != nil {
		return fail(err)
	}
	eng.CheckLayers(ids)
	return ok()
}

func groupLayers(this js.Value, args []js.Value) interface{} {
	ids, err := decodeArg[[]string](args)
	if err != nil {
		return fail(err)
	}
	id, err := eng.GroupLayers(ids)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func undo(this js.Value, args []js.Value) interface{} {
	changed, err := eng.Undo()
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "changed": changed})
}

func redo(this js.Value, args []js.Value) interface{} {
	changed, err := eng.Redo()
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "changed": changed})
}

// tick advances animations and reports whether a redraw is due.
func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render().JSON())
}

func prepareExport(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.PrepareExport().JSON())
}

func getSnapshot(this js.Value, args []js.Value) interface{} {
	data, err := eng.Snapshot()
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

func getLayers(this js.Value, args []js.Value) interface{} {
	return marshal(eng.Layers())
}

func getPanel(this js.Value, args []js.Value) interface{} {
	return marshal(eng.Panel())
}

func getTool(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(string(eng.Tool()))
}

func marshal(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}
