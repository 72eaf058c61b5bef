package session

import (
	"context"
	"encoding/json"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvasviewer/internal/asset"
	"github.com/inamate/canvasviewer/internal/document"
	"github.com/inamate/canvasviewer/internal/engine"
	"github.com/inamate/canvasviewer/internal/typeid"
)

type recorder struct {
	msgs []*Message
}

func (r *recorder) Send(msg *Message) { r.msgs = append(r.msgs, msg) }

func (r *recorder) ofType(typ string) []*Message {
	var out []*Message
	for _, m := range r.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) last(t *testing.T, typ string) *Message {
	t.Helper()
	msgs := r.ofType(typ)
	require.NotEmpty(t, msgs, "no %s message", typ)
	return msgs[len(msgs)-1]
}

func newTestSession(t *testing.T) (*Session, *recorder, *asset.MemoryStore) {
	t.Helper()
	store := asset.NewMemoryStore()
	s := newSession(typeid.NewSessionID(), Options{Engine: engine.Options{Assets: store}})
	t.Cleanup(s.close)
	rec := &recorder{}
	s.out = rec
	return s, rec, store
}

func cmd(t *testing.T, typ string, payload any) *Message {
	t.Helper()
	msg := &Message{Type: typ, Seq: 7}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = data
	}
	return msg
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 200, 255
	}
	return img
}

func TestDrawRectangleThroughMessages(t *testing.T) {
	s, rec, _ := newTestSession(t)

	require.NoError(t, s.handle(cmd(t, TypeToolSet, ToolPayload{Tool: engine.ToolRect})))
	require.NoError(t, s.handle(cmd(t, TypePointerDown, engine.PointerEvent{X: 10, Y: 20})))
	require.NoError(t, s.handle(cmd(t, TypePointerMove, engine.PointerEvent{X: 60, Y: 80})))
	require.NoError(t, s.handle(cmd(t, TypePointerUp, engine.PointerEvent{X: 60, Y: 80})))

	require.Equal(t, 1, s.eng.Scene().Len())

	var tool ToolPayload
	require.NoError(t, json.Unmarshal(rec.ofType(TypeTool)[0].Payload, &tool))
	assert.Equal(t, engine.ToolRect, tool.Tool)

	var layers []engine.Layer
	require.NoError(t, json.Unmarshal(rec.last(t, TypeLayers).Payload, &layers))
	require.Len(t, layers, 1)
	assert.Equal(t, "rect", layers[0].Type)

	var hist engine.HistoryState
	require.NoError(t, json.Unmarshal(rec.last(t, TypeHistory).Payload, &hist))
	assert.True(t, hist.CanUndo)
}

func TestUnknownMessageType(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.ErrorIs(t, s.handle(cmd(t, "teleport", nil)), ErrUnknownType)
}

func TestMalformedPayload(t *testing.T) {
	s, _, _ := newTestSession(t)
	msg := &Message{Type: TypePointerDown, Payload: json.RawMessage(`{"x":"left"}`)}
	assert.Error(t, s.handle(msg))
}

func TestImageToolImportsPickedAsset(t *testing.T) {
	s, rec, store := newTestSession(t)
	id, err := store.Put(solid(30, 20))
	require.NoError(t, err)

	require.NoError(t, s.handle(cmd(t, TypeToolSet, ToolPayload{Tool: engine.ToolImage})))
	var pick FilePickPayload
	require.NoError(t, json.Unmarshal(rec.last(t, TypeFilePick).Payload, &pick))
	assert.Equal(t, "image/*", pick.Accept)
	assert.Equal(t, engine.ToolSelect, s.eng.Tool())

	require.NoError(t, s.handle(cmd(t, TypeImageImport, AssetPayload{AssetID: id})))
	require.Equal(t, 1, s.eng.Scene().Len())
	img, ok := s.eng.Scene().Objects()[0].(*document.Image)
	require.True(t, ok)
	assert.Equal(t, 30.0, img.Width)
	assert.Equal(t, 20.0, img.Height)

	// The pick was consumed.
	assert.ErrorIs(t, s.handle(cmd(t, TypeImageImport, AssetPayload{AssetID: id})), ErrNoPendingPick)
}

func TestImageImportCancelledByToolChange(t *testing.T) {
	s, _, store := newTestSession(t)
	id, err := store.Put(solid(5, 5))
	require.NoError(t, err)

	require.NoError(t, s.handle(cmd(t, TypeToolSet, ToolPayload{Tool: engine.ToolImage})))
	require.NoError(t, s.handle(cmd(t, TypeToolSet, ToolPayload{Tool: engine.ToolRect})))

	err = s.handle(cmd(t, TypeImageImport, AssetPayload{AssetID: id}))
	assert.ErrorIs(t, err, engine.ErrCancelled)
	assert.Equal(t, 0, s.eng.Scene().Len())
}

func TestImageImportOfMissingAssetAlerts(t *testing.T) {
	s, rec, _ := newTestSession(t)

	require.NoError(t, s.handle(cmd(t, TypeToolSet, ToolPayload{Tool: engine.ToolImage})))
	err := s.handle(cmd(t, TypeImageImport, AssetPayload{AssetID: "asset_missing"}))
	assert.ErrorIs(t, err, asset.ErrNotFound)

	var alert AlertPayload
	require.NoError(t, json.Unmarshal(rec.last(t, TypeAlert).Payload, &alert))
	assert.Equal(t, "error", alert.Kind)
	assert.Equal(t, 0, s.eng.Scene().Len())
}

func TestPatternFillThroughMessages(t *testing.T) {
	s, rec, store := newTestSession(t)
	id, err := store.Put(solid(4, 4))
	require.NoError(t, err)

	require.NoError(t, s.handle(cmd(t, TypeToolSet, ToolPayload{Tool: engine.ToolText})))
	require.NoError(t, s.handle(cmd(t, TypePointerDown, engine.PointerEvent{X: 40, Y: 40})))
	require.NoError(t, s.handle(cmd(t, TypeEditExit, nil)))
	require.Equal(t, 1, s.eng.Scene().Len())

	require.NoError(t, s.handle(cmd(t, TypePatternBegin, nil)))
	assert.NotEmpty(t, rec.ofType(TypeFilePick))
	require.NoError(t, s.handle(cmd(t, TypePatternApply, AssetPayload{AssetID: id})))

	txt := s.eng.Scene().Objects()[0].(*document.Text)
	require.NotNil(t, txt.Style.Fill.Pattern)
	assert.True(t, s.eng.Panel().HasFillPattern)

	require.NoError(t, s.handle(cmd(t, TypePatternRemove, nil)))
	assert.Nil(t, txt.Style.Fill.Pattern)
}

func TestVideoLifecycleMessages(t *testing.T) {
	s, rec, _ := newTestSession(t)

	require.NoError(t, s.handle(cmd(t, TypeVideoAdd, VideoPayload{})))
	added := rec.last(t, TypeVideoAdded)
	assert.Equal(t, int64(7), added.Seq)
	var v VideoPayload
	require.NoError(t, json.Unmarshal(added.Payload, &v))
	assert.Equal(t, 320, v.Width)
	assert.Equal(t, 240, v.Height)
	require.NotEmpty(t, v.ObjectID)

	require.NoError(t, s.handle(cmd(t, TypeLayerRemove, LayerPayload{ID: v.ObjectID})))
	assert.Len(t, rec.ofType(TypeVideoPause), 1)
	assert.Len(t, rec.ofType(TypeVideoRelease), 1)

	var released VideoPayload
	require.NoError(t, json.Unmarshal(rec.last(t, TypeVideoRelease).Payload, &released))
	assert.Equal(t, v.ObjectID, released.ObjectID)
}

func TestSnapshotRoundTripThroughMessages(t *testing.T) {
	s, rec, _ := newTestSession(t)
	require.NoError(t, s.handle(cmd(t, TypeSampleLoad, nil)))
	count := s.eng.Scene().Len()
	require.Positive(t, count)

	require.NoError(t, s.handle(cmd(t, TypeSnapshotGet, nil)))
	snap := rec.last(t, TypeSnapshot)

	other, _, _ := newTestSession(t)
	require.NoError(t, other.handle(&Message{Type: TypeSnapshotLoad, Payload: snap.Payload}))
	assert.Equal(t, count, other.eng.Scene().Len())
	assert.False(t, other.eng.CanUndo())

	assert.Error(t, other.handle(&Message{Type: TypeSnapshotLoad, Payload: json.RawMessage(`{"objects":[{"type":"blob"}]}`)}))
}

func TestUndoRedoAndBackground(t *testing.T) {
	s, rec, _ := newTestSession(t)

	require.NoError(t, s.handle(cmd(t, TypeBackgroundSet, ColorPayload{Color: "#112233"})))
	var bg ColorPayload
	require.NoError(t, json.Unmarshal(rec.last(t, TypeBackground).Payload, &bg))
	assert.Equal(t, "#112233", bg.Color)

	require.NoError(t, s.handle(cmd(t, TypeHistoryUndo, nil)))
	assert.Equal(t, document.DefaultBackground, s.eng.Background())
	require.NoError(t, s.handle(cmd(t, TypeHistoryRedo, nil)))
	assert.Equal(t, "#112233", s.eng.Background())
}

func TestRenderResendsState(t *testing.T) {
	s, rec, _ := newTestSession(t)
	require.NoError(t, s.handle(cmd(t, TypeRender, nil)))
	for _, typ := range []string{TypeBackground, TypeTool, TypeLayers, TypePanel, TypeHistory, TypeFrame} {
		assert.NotEmpty(t, rec.ofType(typ), typ)
	}

	var frame engine.Frame
	require.NoError(t, json.Unmarshal(rec.last(t, TypeFrame).Payload, &frame))
	assert.Equal(t, engine.DefaultWidth, frame.Width)
}

func TestErrorsEchoSequence(t *testing.T) {
	s, rec, _ := newTestSession(t)
	msg := cmd(t, TypeSelectionApply, nil)
	err := s.handle(msg)
	require.ErrorIs(t, err, engine.ErrNoSelection)

	s.reply(msg, TypeError, ErrorPayload{Reason: err.Error()})
	assert.Equal(t, int64(7), rec.last(t, TypeError).Seq)
}

func patternedText(t *testing.T, s *Session, store *asset.MemoryStore) *document.Text {
	t.Helper()
	id, err := store.Put(solid(4, 4))
	require.NoError(t, err)
	require.NoError(t, s.handle(cmd(t, TypeToolSet, ToolPayload{Tool: engine.ToolText})))
	require.NoError(t, s.handle(cmd(t, TypePointerDown, engine.PointerEvent{X: 40, Y: 40})))
	require.NoError(t, s.handle(cmd(t, TypeEditExit, nil)))
	require.NoError(t, s.handle(cmd(t, TypePatternBegin, nil)))
	require.NoError(t, s.handle(cmd(t, TypePatternApply, AssetPayload{AssetID: id})))
	return s.eng.Scene().Objects()[0].(*document.Text)
}

func TestPatternScaleIsClamped(t *testing.T) {
	s, _, store := newTestSession(t)
	txt := patternedText(t, s, store)

	require.NoError(t, s.handle(cmd(t, TypePatternScale, PatternScalePayload{Scale: 1e12})))
	assert.Equal(t, engine.MaxPatternScale, txt.Style.Fill.Pattern.Scale)

	err := s.handle(cmd(t, TypePatternScale, PatternScalePayload{Scale: -3}))
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
	assert.Equal(t, engine.MaxPatternScale, txt.Style.Fill.Pattern.Scale)
}

func TestDispatchRecoversFromPanics(t *testing.T) {
	s, _, _ := newTestSession(t)
	eng := s.eng
	s.eng = nil
	defer func() { s.eng = eng }()

	var err error
	require.NotPanics(t, func() {
		err = s.dispatch(cmd(t, TypePointerDown, engine.PointerEvent{X: 1, Y: 1}))
	})
	assert.ErrorIs(t, err, ErrInternal)
}

type chanOutbox chan *Message

func (c chanOutbox) Send(msg *Message) { c <- msg }

func TestRunningSessionSurvivesHugePatternScale(t *testing.T) {
	s, _, store := newTestSession(t)
	txt := patternedText(t, s, store)

	out := make(chanOutbox, 1024)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, out, "client")
	}()

	msg := cmd(t, TypePatternScale, PatternScalePayload{Scale: 1e12})
	msg.Seq = 42
	require.True(t, s.Deliver(ctx, msg))

	for {
		var m *Message
		select {
		case m = <-out:
		case <-ctx.Done():
			t.Fatal("no panel update")
		}
		require.False(t, m.Type == TypeError && m.Seq == 42, string(m.Payload))
		if m.Type != TypePanel {
			continue
		}
		var panel engine.PanelState
		require.NoError(t, json.Unmarshal(m.Payload, &panel))
		if panel.PatternScale == engine.MaxPatternScale {
			break
		}
	}
	cancel()
	<-done
	assert.Equal(t, engine.MaxPatternScale, txt.Style.Fill.Pattern.Scale)
}
