package document

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownType     = errors.New("unknown object type")
	ErrInvalidPath     = errors.New("invalid path command")
	ErrInvalidEndpoint = errors.New("invalid arrow endpoint")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

const SnapshotVersion = 1

// Snapshot is the serialised scene used by undo history and export. Only the
// attributes listed in ObjectNode and the per-kind data survive a round trip;
// in-session state such as text editing or video handles does not.
type Snapshot struct {
	Version    int          `json:"version"`
	Background string       `json:"background"`
	Objects    []ObjectNode `json:"objects"`
}

type ObjectNode struct {
	Type      ObjectType      `json:"type"`
	ID        string          `json:"id,omitempty"`
	Label     string          `json:"label,omitempty"`
	Transform Transform       `json:"transform"`
	Style     Style           `json:"style"`
	Data      json.RawMessage `json:"data"`
}

type rectData struct {
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	BorderStyle BorderStyle `json:"borderStyle,omitempty"`
}

type ellipseData struct {
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
}

type lineData struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type pathData struct {
	Path   []PathCmd `json:"path"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

type textData struct {
	Text            string      `json:"text"`
	FontSize        float64     `json:"fontSize"`
	FontFamily      string      `json:"fontFamily"`
	FontWeight      FontWeight  `json:"fontWeight"`
	FontStyle       FontStyle   `json:"fontStyle"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	Guide           *ObjectNode `json:"guide,omitempty"`
	GuideID         string      `json:"guideId,omitempty"`
	PathStartOffset float64     `json:"pathStartOffset,omitempty"`
}

type imageData struct {
	AssetID string  `json:"assetId,omitempty"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Video   bool    `json:"video,omitempty"`
}

type arrowData struct {
	pathData
	From      Endpoint       `json:"arrowFrom"`
	To        Endpoint       `json:"arrowTo"`
	Animation ArrowAnimation `json:"animationType,omitempty"`
}

type groupData struct {
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Children []ObjectNode `json:"children"`
}

// Encode converts a scene object into its serialised node.
func Encode(obj Object) (ObjectNode, error) {
	b := obj.Common()
	node := ObjectNode{
		Type:      obj.Type(),
		ID:        b.ID,
		Label:     b.Label,
		Transform: b.Transform,
		Style:     b.Style,
	}

	var data any
	switch o := obj.(type) {
	case *Rect:
		data = rectData{Width: o.Width, Height: o.Height, BorderStyle: o.BorderStyle}
	case *Ellipse:
		data = ellipseData{RX: o.RX, RY: o.RY}
	case *Triangle:
		data = rectData{Width: o.Width, Height: o.Height}
	case *Line:
		data = lineData{X1: o.X1, Y1: o.Y1, X2: o.X2, Y2: o.Y2}
	case *Path:
		data = pathData{Path: o.Commands, Width: o.Width, Height: o.Height}
	case *Text:
		td := textData{
			Text:            o.Text,
			FontSize:        o.FontSize,
			FontFamily:      o.FontFamily,
			FontWeight:      o.FontWeight,
			FontStyle:       o.FontStyle,
			Width:           o.Width,
			Height:          o.Height,
			GuideID:         o.GuideID,
			PathStartOffset: o.PathStartOffset,
		}
		if o.Guide != nil {
			guide, err := Encode(o.Guide)
			if err != nil {
				return ObjectNode{}, fmt.Errorf("encoding text guide: %w", err)
			}
			td.Guide = &guide
		}
		data = td
	case *Image:
		data = imageData{AssetID: o.AssetID, Width: o.Width, Height: o.Height, Video: o.Video}
	case *Arrow:
		data = arrowData{
			pathData:  pathData{Path: o.Commands, Width: o.Width, Height: o.Height},
			From:      o.From,
			To:        o.To,
			Animation: o.Animation,
		}
	case *Group:
		gd := groupData{Width: o.Width, Height: o.Height, Children: make([]ObjectNode, 0, len(o.Children))}
		for _, child := range o.Children {
			cn, err := Encode(child)
			if err != nil {
				return ObjectNode{}, err
			}
			gd.Children = append(gd.Children, cn)
		}
		data = gd
	default:
		return ObjectNode{}, fmt.Errorf("encoding %T: %w", obj, ErrUnknownType)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ObjectNode{}, fmt.Errorf("encoding %s data: %w", obj.Type(), err)
	}
	node.Data = raw
	return node, nil
}

// Decode rebuilds a scene object from its serialised node.
func Decode(node ObjectNode) (Object, error) {
	base := Base{
		ID:        node.ID,
		Label:     node.Label,
		Transform: node.Transform,
		Style:     node.Style,
		Caching:   true,
	}

	unmarshal := func(v any) error {
		if len(node.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(node.Data, v); err != nil {
			return fmt.Errorf("decoding %s data: %w", node.Type, err)
		}
		return nil
	}

	switch node.Type {
	case ObjectTypeRect:
		var d rectData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		if d.BorderStyle == "" {
			d.BorderStyle = BorderSolid
		}
		base.Caching = d.BorderStyle != BorderAnimatedDashed
		return &Rect{Base: base, Width: d.Width, Height: d.Height, BorderStyle: d.BorderStyle}, nil
	case ObjectTypeEllipse:
		var d ellipseData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		return &Ellipse{Base: base, RX: d.RX, RY: d.RY}, nil
	case ObjectTypeTriangle:
		var d rectData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		return &Triangle{Base: base, Width: d.Width, Height: d.Height}, nil
	case ObjectTypeLine:
		var d lineData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		return &Line{Base: base, X1: d.X1, Y1: d.Y1, X2: d.X2, Y2: d.Y2}, nil
	case ObjectTypePath:
		var d pathData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		return &Path{Base: base, PathData: PathData{Commands: d.Path, Width: d.Width, Height: d.Height}}, nil
	case ObjectTypeText:
		var d textData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		t := &Text{
			Base:            base,
			Text:            d.Text,
			FontSize:        d.FontSize,
			FontFamily:      d.FontFamily,
			FontWeight:      d.FontWeight,
			FontStyle:       d.FontStyle,
			Width:           d.Width,
			Height:          d.Height,
			GuideID:         d.GuideID,
			PathStartOffset: d.PathStartOffset,
		}
		if d.Guide != nil {
			g, err := Decode(*d.Guide)
			if err != nil {
				return nil, fmt.Errorf("decoding text guide: %w", err)
			}
			p, ok := g.(*Path)
			if !ok {
				return nil, fmt.Errorf("text guide is %s: %w", g.Type(), ErrInvalidSnapshot)
			}
			t.Guide = p
		}
		return t, nil
	case ObjectTypeImage:
		var d imageData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		return &Image{Base: base, AssetID: d.AssetID, Width: d.Width, Height: d.Height, Video: d.Video}, nil
	case ObjectTypeArrow:
		var d arrowData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		if d.Animation == "" {
			d.Animation = ArrowAnimationNone
		}
		return &Arrow{
			Base:      base,
			PathData:  PathData{Commands: d.Path, Width: d.Width, Height: d.Height},
			From:      d.From,
			To:        d.To,
			Animation: d.Animation,
		}, nil
	case ObjectTypeGroup:
		var d groupData
		if err := unmarshal(&d); err != nil {
			return nil, err
		}
		g := &Group{Base: base, Width: d.Width, Height: d.Height}
		for _, cn := range d.Children {
			child, err := Decode(cn)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, child)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("type %q: %w", node.Type, ErrUnknownType)
	}
}

// EncodeScene serialises an ordered scene.
func EncodeScene(background string, objects []Object) ([]byte, error) {
	snap := Snapshot{
		Version:    SnapshotVersion,
		Background: background,
		Objects:    make([]ObjectNode, 0, len(objects)),
	}
	for _, obj := range objects {
		node, err := Encode(obj)
		if err != nil {
			return nil, err
		}
		snap.Objects = append(snap.Objects, node)
	}
	return json.Marshal(snap)
}

// DecodeScene parses a snapshot produced by EncodeScene.
func DecodeScene(data []byte) (string, []Object, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Version > SnapshotVersion {
		return "", nil, fmt.Errorf("%w: version %d", ErrInvalidSnapshot, snap.Version)
	}
	objects := make([]Object, 0, len(snap.Objects))
	for i, node := range snap.Objects {
		obj, err := Decode(node)
		if err != nil {
			return "", nil, fmt.Errorf("object %d: %w", i, err)
		}
		objects = append(objects, obj)
	}
	return snap.Background, objects, nil
}

// Clone deep-copies an object through its serialised form. In-session state
// is not carried over.
func Clone(obj Object) (Object, error) {
	node, err := Encode(obj)
	if err != nil {
		return nil, err
	}
	return Decode(node)
}
