package document

import (
	"encoding/json"
	"fmt"
)

type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Sides lists the connection sides in search order.
var Sides = [4]Side{SideTop, SideRight, SideBottom, SideLeft}

func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

type EndpointKind string

const (
	EndpointFree      EndpointKind = "free"
	EndpointConnected EndpointKind = "connected"
)

// Endpoint is one end of an arrow: either a fixed point or a side midpoint
// of another object, referenced by id.
type Endpoint struct {
	Kind     EndpointKind
	X, Y     float64
	ObjectID string
	Side     Side
}

func FreeEndpoint(x, y float64) Endpoint {
	return Endpoint{Kind: EndpointFree, X: x, Y: y}
}

func ConnectedEndpoint(objectID string, side Side) Endpoint {
	return Endpoint{Kind: EndpointConnected, ObjectID: objectID, Side: side}
}

func (e Endpoint) IsConnected() bool { return e.Kind == EndpointConnected }

type endpointJSON struct {
	Type  EndpointKind `json:"type"`
	X     float64      `json:"x,omitempty"`
	Y     float64      `json:"y,omitempty"`
	ObjID string       `json:"objId,omitempty"`
	Side  Side         `json:"side,omitempty"`
}

func (e Endpoint) MarshalJSON() ([]byte, error) {
	if e.IsConnected() {
		return json.Marshal(endpointJSON{Type: EndpointConnected, ObjID: e.ObjectID, Side: e.Side})
	}
	return json.Marshal(endpointJSON{Type: EndpointFree, X: e.X, Y: e.Y})
}

func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var raw endpointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case EndpointConnected:
		if raw.ObjID == "" || !raw.Side.Valid() {
			return fmt.Errorf("connected endpoint needs objId and side: %w", ErrInvalidEndpoint)
		}
		*e = ConnectedEndpoint(raw.ObjID, raw.Side)
	case EndpointFree, "":
		*e = FreeEndpoint(raw.X, raw.Y)
	default:
		return fmt.Errorf("endpoint type %q: %w", raw.Type, ErrInvalidEndpoint)
	}
	return nil
}
