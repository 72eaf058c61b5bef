package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/inamate/canvasviewer/internal/engine"
)

var (
	ErrSessionBusy    = errors.New("session already has a client")
	ErrInvalidSession = errors.New("invalid session id")
	ErrUnknownType    = errors.New("unknown message type")
	ErrNoPendingPick  = errors.New("no file was requested")
	ErrInternal       = errors.New("internal error")
)

// Outbox receives messages produced by a session.
type Outbox interface {
	Send(msg *Message)
}

// Options configures the engines behind new sessions.
type Options struct {
	Engine    engine.Options
	FrameRate int
}

// Session is one editor bound to at most one client at a time. All engine
// access happens on the goroutine running Run.
type Session struct {
	ID string

	eng       *engine.Engine
	store     engine.AssetStore
	frameRate int
	inbox     chan *Message

	out            Outbox
	pickAccept     string
	pendingPattern func(image.Image, error) error
	pendingImage   func(image.Image, error) (string, error)
}

func newSession(id string, opts Options) *Session {
	s := &Session{
		ID:        id,
		store:     opts.Engine.Assets,
		frameRate: opts.FrameRate,
		inbox:     make(chan *Message, 256),
	}
	if s.frameRate <= 0 {
		s.frameRate = 60
	}

	eo := opts.Engine
	eo.Picker = pickerFunc(s.requestFile)
	eo.Alerter = alerterFunc(func(message, kind string) {
		s.emit(TypeAlert, AlertPayload{Message: message, Kind: kind})
	})
	eo.OnLayersChanged = func(l []engine.Layer) { s.emit(TypeLayers, l) }
	eo.OnPanelChanged = func(p engine.PanelState) { s.emit(TypePanel, p) }
	eo.OnHistoryChanged = func(h engine.HistoryState) { s.emit(TypeHistory, h) }
	eo.OnBackgroundChanged = func(c string) { s.emit(TypeBackground, ColorPayload{Color: c}) }
	eo.OnToolChanged = func(t engine.Tool) { s.emit(TypeTool, ToolPayload{Tool: t}) }
	eo.OnSnapshotSaved = func() { historySnapshots.Inc() }
	s.eng = engine.New(eo)
	return s
}

// Deliver queues msg for the session loop. It gives up when ctx ends.
func (s *Session) Deliver(ctx context.Context, msg *Message) bool {
	select {
	case s.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run drives the engine for one attached client until ctx is done: it
// handles queued messages and ticks the animation loop at the frame rate.
func (s *Session) Run(ctx context.Context, out Outbox, clientID string) {
	s.out = out
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session loop panicked", "session", s.ID, "panic", r, "stack", string(debug.Stack()))
		}
		s.out = nil
		s.pendingPattern = nil
		s.pendingImage = nil
	}()

	w, h := s.eng.Size()
	s.emit(TypeWelcome, WelcomePayload{SessionID: s.ID, ClientID: clientID, Width: w, Height: h})
	s.sendState()

	ticker := time.NewTicker(time.Second / time.Duration(s.frameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.inbox:
			if err := s.dispatch(msg); err != nil {
				slog.Debug("session command failed", "session", s.ID, "type", msg.Type, "error", err)
				s.reply(msg, TypeError, ErrorPayload{Reason: err.Error()})
			}
		case <-ticker.C:
			if s.eng.Tick() {
				s.emit(TypeFrame, s.eng.Render())
			}
		}
	}
}

// dispatch runs one command. A panic is logged and reported to the client
// as an error instead of taking the process down.
func (s *Session) dispatch(msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session command panicked", "session", s.ID, "type", msg.Type, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%s: %w", msg.Type, ErrInternal)
		}
	}()
	return s.handle(msg)
}

// close releases the engine. The session must not be running.
func (s *Session) close() {
	s.eng.Close()
}

func (s *Session) sendState() {
	s.emit(TypeBackground, ColorPayload{Color: s.eng.Background()})
	s.emit(TypeTool, ToolPayload{Tool: s.eng.Tool()})
	s.emit(TypeLayers, s.eng.Layers())
	s.emit(TypePanel, s.eng.Panel())
	s.emit(TypeHistory, s.eng.HistoryState())
	s.emit(TypeFrame, s.eng.Render())
}

func (s *Session) emit(typ string, payload any) {
	s.reply(nil, typ, payload)
}

// reply sends payload, echoing the sequence number of req when given.
func (s *Session) reply(req *Message, typ string, payload any) {
	if s.out == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal session message", "type", typ, "error", err)
		return
	}
	msg := &Message{Type: typ, SessionID: s.ID, Payload: data}
	if req != nil {
		msg.Seq = req.Seq
	}
	s.out.Send(msg)
}

func (s *Session) requestFile(accept string) {
	s.pickAccept = accept
	s.emit(TypeFilePick, FilePickPayload{Accept: accept})
}

func decode[T any](msg *Message) (T, error) {
	var v T
	if len(msg.Payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("%s payload: %w", msg.Type, err)
	}
	return v, nil
}

func (s *Session) loadAsset(id string) (image.Image, error) {
	if s.store == nil {
		return nil, engine.ErrNoAssets
	}
	return s.store.Get(id)
}

type pickerFunc func(accept string)

func (f pickerFunc) PickFile(accept string) { f(accept) }

type alerterFunc func(message, kind string)

func (f alerterFunc) ShowAlert(message, kind string) { f(message, kind) }
