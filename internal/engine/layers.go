package engine

import (
	"fmt"

	"github.com/inamate/canvasviewer/internal/document"
	"github.com/inamate/canvasviewer/internal/typeid"
)

// AssignID gives obj an identifier unless it already has one.
func AssignID(obj document.Object) string {
	b := obj.Common()
	if b.ID == "" {
		b.ID = typeid.NewObjectID()
	}
	return b.ID
}

var typeNames = map[document.ObjectType]string{
	document.ObjectTypeRect:     "Rectangle",
	document.ObjectTypeEllipse:  "Ellipse",
	document.ObjectTypeTriangle: "Triangle",
	document.ObjectTypeLine:     "Line",
	document.ObjectTypePath:     "Path",
	document.ObjectTypeText:     "Text",
	document.ObjectTypeImage:    "Image",
	document.ObjectTypeArrow:    "Arrow",
	document.ObjectTypeGroup:    "Group",
}

// TypeName is the display name for an object type. Unknown types fall back
// to the raw type string.
func TypeName(t document.ObjectType) string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return string(t)
}

// Layer describes one scene object for the layers panel.
type Layer struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// BuildLayerList derives layer descriptors from the scene order, bottom
// first. A custom label wins over "{TypeName} {position}".
func BuildLayerList(objects []document.Object) []Layer {
	layers := make([]Layer, 0, len(objects))
	for i, obj := range objects {
		b := obj.Common()
		label := b.Label
		if label == "" {
			label = fmt.Sprintf("%s %d", TypeName(obj.Type()), i+1)
		}
		layers = append(layers, Layer{ID: b.ID, Type: string(obj.Type()), Label: label})
	}
	return layers
}

type ReorderDirection string

const (
	ReorderUp   ReorderDirection = "up"
	ReorderDown ReorderDirection = "down"
)

func (e *Engine) rebuildLayers() {
	e.layers = BuildLayerList(e.scene.Objects())
	if e.opts.OnLayersChanged != nil {
		e.opts.OnLayersChanged(e.layers)
	}
}

// Layers returns the current layer list.
func (e *Engine) Layers() []Layer {
	return e.layers
}

func (e *Engine) SelectLayer(id string) error {
	obj := e.scene.FindByID(id)
	if obj == nil {
		return fmt.Errorf("select layer %s: %w", id, ErrNotFound)
	}
	e.scene.SetActive(obj)
	e.scene.RequestRedraw()
	return nil
}

// RemoveLayer deletes the object and releases its video binding, if any.
func (e *Engine) RemoveLayer(id string) error {
	obj := e.scene.FindByID(id)
	if obj == nil {
		return fmt.Errorf("remove layer %s: %w", id, ErrNotFound)
	}
	if e.scene.IsActive(obj) {
		e.scene.DiscardActive()
	}
	e.detachConnections(obj)
	e.scene.Remove(obj)
	e.scene.RequestRedraw()
	e.videos.Release(id)
	return nil
}

// RenameLayer sets a custom label. A blank label restores the default one.
func (e *Engine) RenameLayer(id, label string) error {
	obj := e.scene.FindByID(id)
	if obj == nil {
		return fmt.Errorf("rename layer %s: %w", id, ErrNotFound)
	}
	obj.Common().Label = document.CleanLabel(label)
	e.rebuildLayers()
	return nil
}

// ReorderLayer moves the object one step up or down the stack. Reordering
// fires no scene event, so the layer list is rebuilt here.
func (e *Engine) ReorderLayer(id string, dir ReorderDirection) error {
	obj := e.scene.FindByID(id)
	if obj == nil {
		return fmt.Errorf("reorder layer %s: %w", id, ErrNotFound)
	}
	switch dir {
	case ReorderUp:
		e.scene.BringForward(obj)
	case ReorderDown:
		e.scene.SendBackward(obj)
	default:
		return fmt.Errorf("reorder direction %q: %w", dir, ErrInvalidArgument)
	}
	e.scene.RequestRedraw()
	e.rebuildLayers()
	return nil
}

// CheckLayers makes the listed objects the active selection. Unknown ids are
// skipped; an empty list clears the selection.
func (e *Engine) CheckLayers(ids []string) {
	objs := e.findAll(ids)
	if len(objs) == 0 {
		e.scene.DiscardActive()
	} else {
		e.scene.SetActive(objs...)
	}
	e.scene.RequestRedraw()
}

// GroupLayers folds at least two objects into a new group, which becomes
// the active object. Folded objects leave the scene.
func (e *Engine) GroupLayers(ids []string) (string, error) {
	objs := e.findAll(ids)
	if len(objs) < 2 {
		return "", fmt.Errorf("group needs at least two objects: %w", ErrInvalidArgument)
	}

	var bounds Rect
	for i, o := range objs {
		r := BoundingRect(o)
		if i == 0 {
			bounds = r
			continue
		}
		bounds = bounds.Union(r)
	}

	group := &document.Group{
		Base: document.Base{
			Transform: document.IdentityTransform(bounds.X, bounds.Y),
			Style:     document.Style{Opacity: 1},
			Caching:   true,
		},
		Width:  bounds.Width,
		Height: bounds.Height,
	}

	e.scene.DiscardActive()
	e.scene.Batch(func() {
		for _, o := range objs {
			e.detachConnections(o)
			e.scene.Remove(o)
			TranslateObject(o, -bounds.X, -bounds.Y)
			group.Children = append(group.Children, o)
		}
		AssignID(group)
		e.scene.Add(group)
	})
	e.scene.SetActive(group)
	e.scene.RequestRedraw()
	return group.ID, nil
}

func (e *Engine) findAll(ids []string) []document.Object {
	var objs []document.Object
	for _, id := range ids {
		if o := e.scene.FindByID(id); o != nil {
			objs = append(objs, o)
		}
	}
	return objs
}
