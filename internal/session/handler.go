package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Handler upgrades editor connections and attaches them to sessions.
type Handler struct {
	registry *Registry
	origins  []string
}

// NewHandler accepts websocket origins given as URLs or host patterns.
func NewHandler(registry *Registry, origins []string) *Handler {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		patterns = append(patterns, strings.TrimSuffix(o, "/"))
	}
	return &Handler{registry: registry, origins: patterns}
}

// ServeWS handles GET /ws/editor?session=<id>. Without an id a new session
// is started; its id arrives in the welcome message.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := uuid.New().String()
	s, err := h.registry.Attach(r.URL.Query().Get("session"), clientID)
	switch {
	case errors.Is(err, ErrSessionBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session is in use"})
		return
	case err != nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	defer h.registry.Detach(s.ID, clientID)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	activeSessions.Inc()
	defer activeSessions.Dec()
	slog.Info("client attached", "session", s.ID, "client", clientID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := NewClient(conn, s.ID, clientID)
	go client.WritePump(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		s.Run(ctx, client, clientID)
	}()

	client.ReadPump(ctx, s)
	cancel()
	// The next client may only attach once this loop has let go of the engine.
	<-done
	slog.Info("client detached", "session", s.ID, "client", clientID)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
