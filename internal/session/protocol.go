package session

import (
	"encoding/json"

	"github.com/inamate/canvasviewer/internal/document"
	"github.com/inamate/canvasviewer/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Client to server.
const (
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeKeyDown     = "key.down"
	TypeEditExit    = "edit.exit"

	TypeToolSet = "tool.set"

	TypePanelSet        = "panel.set"
	TypeSelectionApply  = "selection.apply"
	TypeTransformApply  = "transform.apply"
	TypeArrowAnimation  = "arrow.animation"
	TypeRectBorder      = "rect.border"
	TypeBackgroundSet   = "background.set"
	TypePatternBegin    = "pattern.begin"
	TypePatternApply    = "pattern.apply"
	TypePatternRepeat   = "pattern.repeat"
	TypePatternScale    = "pattern.scale"
	TypePatternRemove   = "pattern.remove"
	TypeTextPathOpen    = "textpath.open"
	TypeTextPathApply   = "textpath.apply"
	TypeImageImport     = "image.import"
	TypeVideoAdd        = "video.add"
	TypeSnapshotLoad    = "snapshot.load"
	TypeSnapshotGet     = "snapshot.get"
	TypeSampleLoad      = "sample.load"
	TypeExportPrepare   = "export.prepare"
	TypeLayerSelect     = "layer.select"
	TypeLayerRemove     = "layer.remove"
	TypeLayerRename     = "layer.rename"
	TypeLayerReorder    = "layer.reorder"
	TypeLayerCheck      = "layer.check"
	TypeLayerGroup      = "layer.group"
	TypeHistoryUndo     = "history.undo"
	TypeHistoryRedo     = "history.redo"
	TypeHistorySave     = "history.save"
	TypeRender          = "render"
)

// Server to client.
const (
	TypeWelcome      = "welcome"
	TypeFrame        = "frame"
	TypeLayers       = "layers"
	TypePanel        = "panel"
	TypeHistory      = "history"
	TypeBackground   = "background"
	TypeTool         = "tool"
	TypeAlert        = "alert"
	TypeFilePick     = "file.pick"
	TypeVideoAdded   = "video.added"
	TypeVideoPause   = "video.pause"
	TypeVideoRelease = "video.release"
	TypeSnapshot     = "snapshot"
	TypeExportFrame  = "export.frame"
	TypeGrouped      = "layer.grouped"
	TypeError        = "error"
)

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}

type AlertPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type ToolPayload struct {
	Tool engine.Tool `json:"tool"`
}

type ColorPayload struct {
	Color string `json:"color"`
}

type FilePickPayload struct {
	Accept string `json:"accept"`
}

type AssetPayload struct {
	AssetID string `json:"assetId"`
}

type VideoPayload struct {
	ObjectID string `json:"objectId,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type ArrowAnimationPayload struct {
	Animation document.ArrowAnimation `json:"animation"`
}

type BorderPayload struct {
	Style document.BorderStyle `json:"style"`
}

type PatternRepeatPayload struct {
	Repeat document.PatternRepeat `json:"repeat"`
}

type PatternScalePayload struct {
	Scale float64 `json:"scale"`
}

type TextPathPayload struct {
	PathID string  `json:"pathId"`
	Offset float64 `json:"offset"`
}

type LayerPayload struct {
	ID        string                  `json:"id,omitempty"`
	IDs       []string                `json:"ids,omitempty"`
	Label     string                  `json:"label,omitempty"`
	Direction engine.ReorderDirection `json:"direction,omitempty"`
}
