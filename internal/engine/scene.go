package engine

import (
	"slices"

	"github.com/inamate/canvasviewer/internal/document"
)

type EventKind int

const (
	// EventAdded, EventRemoved and EventModified are structural: layers are
	// rebuilt and history records a snapshot.
	EventAdded EventKind = iota
	EventRemoved
	EventModified
	// EventMoving fires continuously while an object is dragged or
	// transformed live. It is not recorded by history.
	EventMoving
	// EventReset fires once after the whole scene was replaced.
	EventReset
	// EventBatch is the single aggregate notification for a Batch call.
	EventBatch
	EventSelection
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventModified:
		return "modified"
	case EventMoving:
		return "moving"
	case EventReset:
		return "reset"
	case EventBatch:
		return "batch"
	case EventSelection:
		return "selection"
	}
	return "unknown"
}

// Structural reports whether the event changes the scene's content.
func (k EventKind) Structural() bool {
	return k == EventAdded || k == EventRemoved || k == EventModified || k == EventBatch
}

type Event struct {
	Kind    EventKind
	Objects []document.Object
}

type Listener func(Event)

// Scene is the retained, ordered object list the editor draws. Index 0 is
// the bottom of the stack.
type Scene struct {
	objects    []document.Object
	active     []document.Object
	background string

	listeners []listenerEntry
	nextID    int

	batching  int
	batched   []document.Object
	batchedOK bool

	redraws int
}

type listenerEntry struct {
	id int
	fn Listener
}

func NewScene(background string) *Scene {
	return &Scene{background: background}
}

// On subscribes fn to scene events. Listeners run synchronously in
// subscription order. The returned func unsubscribes.
func (s *Scene) On(fn Listener) func() {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		s.listeners = slices.DeleteFunc(s.listeners, func(l listenerEntry) bool { return l.id == id })
	}
}

func (s *Scene) emit(kind EventKind, objs ...document.Object) {
	if s.batching > 0 && kind != EventSelection {
		s.batched = append(s.batched, objs...)
		s.batchedOK = true
		return
	}
	ev := Event{Kind: kind, Objects: objs}
	for _, l := range slices.Clone(s.listeners) {
		l.fn(ev)
	}
}

// Batch runs fn with notifications deferred, then fires exactly one
// EventBatch carrying every touched object, if anything happened.
func (s *Scene) Batch(fn func()) {
	s.batching++
	defer func() {
		s.batching--
		if s.batching > 0 || !s.batchedOK {
			return
		}
		objs := s.batched
		s.batched, s.batchedOK = nil, false
		s.emit(EventBatch, objs...)
	}()
	fn()
}

func (s *Scene) Add(obj document.Object) {
	s.objects = append(s.objects, obj)
	s.emit(EventAdded, obj)
}

// Remove takes obj out of the scene and out of the active selection. It
// reports whether obj was present.
func (s *Scene) Remove(obj document.Object) bool {
	i := s.IndexOf(obj)
	if i < 0 {
		return false
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	if j := slices.Index(s.active, obj); j >= 0 {
		s.active = slices.Delete(slices.Clone(s.active), j, j+1)
		s.emit(EventSelection, s.active...)
	}
	s.emit(EventRemoved, obj)
	return true
}

// Modified notifies listeners that objs changed in place.
func (s *Scene) Modified(objs ...document.Object) {
	s.emit(EventModified, objs...)
}

// Moving notifies listeners that objs are being moved live.
func (s *Scene) Moving(objs ...document.Object) {
	s.emit(EventMoving, objs...)
}

// FindByID returns nil when no object carries id.
func (s *Scene) FindByID(id string) document.Object {
	if id == "" {
		return nil
	}
	for _, o := range s.objects {
		if o.Common().ID == id {
			return o
		}
	}
	return nil
}

// Objects returns the scene bottom to top. The slice is a copy.
func (s *Scene) Objects() []document.Object {
	return slices.Clone(s.objects)
}

func (s *Scene) Len() int { return len(s.objects) }

func (s *Scene) IndexOf(obj document.Object) int {
	return slices.Index(s.objects, obj)
}

// BringForward swaps obj with the object above it. No event is fired;
// callers rebuild the layer list themselves.
func (s *Scene) BringForward(obj document.Object) bool {
	i := s.IndexOf(obj)
	if i < 0 || i == len(s.objects)-1 {
		return false
	}
	s.objects[i], s.objects[i+1] = s.objects[i+1], s.objects[i]
	return true
}

// SendBackward swaps obj with the object below it. No event is fired.
func (s *Scene) SendBackward(obj document.Object) bool {
	i := s.IndexOf(obj)
	if i <= 0 {
		return false
	}
	s.objects[i], s.objects[i-1] = s.objects[i-1], s.objects[i]
	return true
}

// SetActive replaces the active selection. Passing several objects forms an
// active selection; passing none discards it.
func (s *Scene) SetActive(objs ...document.Object) {
	s.active = slices.Clone(objs)
	s.emit(EventSelection, s.active...)
}

func (s *Scene) DiscardActive() {
	if len(s.active) == 0 {
		return
	}
	s.SetActive()
}

// Active returns the active selection, empty when nothing is selected.
func (s *Scene) Active() []document.Object {
	return slices.Clone(s.active)
}

func (s *Scene) IsActive(obj document.Object) bool {
	return slices.Contains(s.active, obj)
}

func (s *Scene) Background() string { return s.background }

func (s *Scene) SetBackground(color string) { s.background = color }

// Replace swaps the whole content in one step and fires a single EventReset.
func (s *Scene) Replace(background string, objects []document.Object) {
	hadActive := len(s.active) > 0
	s.objects = slices.Clone(objects)
	s.background = background
	s.active = nil
	s.emit(EventReset, s.objects...)
	if hadActive {
		s.emit(EventSelection)
	}
}

// RequestRedraw marks the surface dirty.
func (s *Scene) RequestRedraw() { s.redraws++ }

// TakeRedraw reports whether a redraw was requested since the last call.
func (s *Scene) TakeRedraw() bool {
	pending := s.redraws > 0
	s.redraws = 0
	return pending
}
