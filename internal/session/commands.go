package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/canvasviewer/internal/engine"
)

func (s *Session) handle(msg *Message) (err error) {
	defer func() {
		label := msg.Type
		if errors.Is(err, ErrUnknownType) {
			label = "unknown"
		}
		messagesTotal.WithLabelValues(label).Inc()
	}()
	e := s.eng

	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp:
		p, err := decode[engine.PointerEvent](msg)
		if err != nil {
			return err
		}
		switch msg.Type {
		case TypePointerDown:
			e.PointerDown(p)
		case TypePointerMove:
			e.PointerMove(p)
		default:
			e.PointerUp(p)
		}

	case TypeKeyDown:
		k, err := decode[engine.KeyEvent](msg)
		if err != nil {
			return err
		}
		e.KeyDown(k)

	case TypeEditExit:
		e.ExitTextEditing()

	case TypeToolSet:
		p, err := decode[ToolPayload](msg)
		if err != nil {
			return err
		}
		s.pickAccept = ""
		if err := e.SetTool(p.Tool); err != nil {
			return err
		}
		// The picker fired during SetTool; arm the import only now that the
		// mode change has settled.
		if s.pickAccept == "image/*" {
			s.pendingImage = e.BeginImageImport()
		}

	case TypePanelSet:
		p, err := decode[engine.PanelPatch](msg)
		if err != nil {
			return err
		}
		return e.SetProperties(p)

	case TypeSelectionApply:
		return e.ApplyToSelection()

	case TypeTransformApply:
		p, err := decode[engine.TransformPatch](msg)
		if err != nil {
			return err
		}
		return e.ApplyTransform(p)

	case TypeArrowAnimation:
		p, err := decode[ArrowAnimationPayload](msg)
		if err != nil {
			return err
		}
		return e.ApplyArrowAnimation(p.Animation)

	case TypeRectBorder:
		p, err := decode[BorderPayload](msg)
		if err != nil {
			return err
		}
		return e.ApplyRectBorderStyle(p.Style)

	case TypeBackgroundSet:
		p, err := decode[ColorPayload](msg)
		if err != nil {
			return err
		}
		e.SetBackground(p.Color)

	case TypePatternBegin:
		cont, err := e.BeginPatternFill()
		if err != nil {
			return err
		}
		s.pendingPattern = cont
		s.requestFile("image/*")

	case TypePatternApply:
		p, err := decode[AssetPayload](msg)
		if err != nil {
			return err
		}
		cont := s.pendingPattern
		if cont == nil {
			return ErrNoPendingPick
		}
		s.pendingPattern = nil
		img, loadErr := s.loadAsset(p.AssetID)
		return cont(img, loadErr)

	case TypePatternRepeat:
		p, err := decode[PatternRepeatPayload](msg)
		if err != nil {
			return err
		}
		return e.UpdatePatternRepeat(p.Repeat)

	case TypePatternScale:
		p, err := decode[PatternScalePayload](msg)
		if err != nil {
			return err
		}
		return e.UpdatePatternScale(p.Scale)

	case TypePatternRemove:
		return e.RemovePatternFill()

	case TypeTextPathOpen:
		return e.OpenPathDrawer()

	case TypeTextPathApply:
		p, err := decode[TextPathPayload](msg)
		if err != nil {
			return err
		}
		return e.ApplyPathToText(p.PathID, p.Offset)

	case TypeImageImport:
		p, err := decode[AssetPayload](msg)
		if err != nil {
			return err
		}
		cont := s.pendingImage
		if cont == nil {
			return ErrNoPendingPick
		}
		s.pendingImage = nil
		img, loadErr := s.loadAsset(p.AssetID)
		_, err = cont(img, loadErr)
		return err

	case TypeVideoAdd:
		p, err := decode[VideoPayload](msg)
		if err != nil {
			return err
		}
		v := &remoteVideo{session: s, width: p.Width, height: p.Height}
		id, err := e.AddVideo(v)
		if err != nil {
			return err
		}
		v.objectID = id
		w, h := v.Size()
		s.reply(msg, TypeVideoAdded, VideoPayload{ObjectID: id, Width: w, Height: h})

	case TypeSnapshotLoad:
		if err := e.LoadSnapshot(msg.Payload); err != nil {
			return err
		}

	case TypeSnapshotGet:
		data, err := e.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		s.reply(msg, TypeSnapshot, json.RawMessage(data))

	case TypeSampleLoad:
		e.LoadSample()

	case TypeExportPrepare:
		s.reply(msg, TypeExportFrame, e.PrepareExport())

	case TypeLayerSelect:
		p, err := decode[LayerPayload](msg)
		if err != nil {
			return err
		}
		return e.SelectLayer(p.ID)

	case TypeLayerRemove:
		p, err := decode[LayerPayload](msg)
		if err != nil {
			return err
		}
		return e.RemoveLayer(p.ID)

	case TypeLayerRename:
		p, err := decode[LayerPayload](msg)
		if err != nil {
			return err
		}
		return e.RenameLayer(p.ID, p.Label)

	case TypeLayerReorder:
		p, err := decode[LayerPayload](msg)
		if err != nil {
			return err
		}
		return e.ReorderLayer(p.ID, p.Direction)

	case TypeLayerCheck:
		p, err := decode[LayerPayload](msg)
		if err != nil {
			return err
		}
		e.CheckLayers(p.IDs)

	case TypeLayerGroup:
		p, err := decode[LayerPayload](msg)
		if err != nil {
			return err
		}
		id, err := e.GroupLayers(p.IDs)
		if err != nil {
			return err
		}
		s.reply(msg, TypeGrouped, LayerPayload{ID: id})

	case TypeHistoryUndo:
		_, err := e.Undo()
		return err

	case TypeHistoryRedo:
		_, err := e.Redo()
		return err

	case TypeHistorySave:
		return e.SaveSnapshot()

	case TypeRender:
		s.sendState()

	default:
		return fmt.Errorf("%q: %w", msg.Type, ErrUnknownType)
	}
	return nil
}
