package engine

import "sync/atomic"

// Guard is captured when an asynchronous operation starts. The engine
// cancels it when the tool mode changes or the engine closes; continuations
// check Live before touching the scene.
type Guard struct {
	cancelled atomic.Bool
}

func (g *Guard) Cancel() { g.cancelled.Store(true) }

func (g *Guard) Live() bool { return !g.cancelled.Load() }

// guards tracks the guards handed out for the current mode.
type guards struct {
	live []*Guard
}

func (gs *guards) issue() *Guard {
	g := &Guard{}
	gs.live = append(gs.live, g)
	return g
}

func (gs *guards) cancelAll() {
	for _, g := range gs.live {
		g.Cancel()
	}
	gs.live = nil
}
