package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/canvasviewer/internal/typeid"
)

// DefaultIdleTimeout is how long a detached session survives before its
// engine is released.
const DefaultIdleTimeout = 10 * time.Minute

type entry struct {
	session  *Session
	clientID string
	lastSeen time.Time
}

// Registry owns every editor session and makes sure each is driven by at
// most one client.
type Registry struct {
	opts Options
	idle time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		idle:     DefaultIdleTimeout,
		sessions: make(map[string]*entry),
	}
}

// Attach binds clientID to the session with the given id. An empty id
// starts a new session; so does a well-formed id the registry has not
// seen. A session that already has a client yields ErrSessionBusy.
func (r *Registry) Attach(id, clientID string) (*Session, error) {
	if id == "" {
		id = typeid.NewSessionID()
	} else if err := typeid.Validate(id, typeid.PrefixSession); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("registry closed: %w", ErrInvalidSession)
	}

	e, ok := r.sessions[id]
	if !ok {
		e = &entry{session: newSession(id, r.opts)}
		r.sessions[id] = e
		slog.Info("session created", "session", id)
	}
	if e.clientID != "" {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionBusy)
	}
	e.clientID = clientID
	e.lastSeen = time.Now()
	return e.session, nil
}

// Detach frees the session for another client. It is a no-op unless
// clientID is the current owner.
func (r *Registry) Detach(id, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || e.clientID != clientID {
		return
	}
	e.clientID = ""
	e.lastSeen = time.Now()
	if r.closed {
		delete(r.sessions, id)
		e.session.close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup sweeps idle sessions every minute until ctx is done.
func (r *Registry) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		if e.clientID == "" && now.Sub(e.lastSeen) > r.idle {
			delete(r.sessions, id)
			e.session.close()
			slog.Info("session expired", "session", id)
		}
	}
}

// Close releases every detached session and refuses new attachments.
// Attached sessions are released when their client leaves.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, e := range r.sessions {
		if e.clientID == "" {
			delete(r.sessions, id)
			e.session.close()
		}
	}
}
