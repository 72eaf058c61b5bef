package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSceneRoundTripKeepsCustomFields(t *testing.T) {
	rect := &Rect{
		Base: Base{
			ID:        "obj_a",
			Label:     "Box",
			Transform: IdentityTransform(10, 20),
			Style:     Style{Fill: SolidPaint("#fff"), StrokeWidth: 2, Opacity: 1, DashArray: []float64{10, 16}},
		},
		Width: 50, Height: 40,
		BorderStyle: BorderAnimatedDashed,
	}
	arrow := &Arrow{
		Base:      Base{ID: "obj_b", Label: "Arrow", Transform: IdentityTransform(0, 0)},
		PathData:  PathData{Commands: []PathCmd{MoveTo(0, 0), LineTo(10, 5), ClosePath()}, Width: 10, Height: 5},
		From:      ConnectedEndpoint("obj_a", SideRight),
		To:        FreeEndpoint(200, 300),
		Animation: ArrowAnimationDash,
	}
	text := &Text{
		Base:     Base{ID: "obj_c", Style: Style{Fill: Paint{Pattern: &Pattern{AssetID: "asset_x", Repeat: PatternRepeatX, Scale: 0.5}}}},
		Text:     "hi",
		FontSize: 20,
		Editing:  true,
	}

	data, err := EncodeScene("#2e342d", []Object{rect, arrow, text})
	require.NoError(t, err)

	bg, objects, err := DecodeScene(data)
	require.NoError(t, err)
	assert.Equal(t, "#2e342d", bg)
	require.Len(t, objects, 3)

	gotRect := objects[0].(*Rect)
	assert.Equal(t, "obj_a", gotRect.ID)
	assert.Equal(t, "Box", gotRect.Label)
	assert.Equal(t, BorderAnimatedDashed, gotRect.BorderStyle)
	assert.False(t, gotRect.Caching, "animated borders render uncached")

	gotArrow := objects[1].(*Arrow)
	assert.Equal(t, ConnectedEndpoint("obj_a", SideRight), gotArrow.From)
	assert.Equal(t, FreeEndpoint(200, 300), gotArrow.To)
	assert.Equal(t, ArrowAnimationDash, gotArrow.Animation)
	assert.Equal(t, "M 0 0 L 10 5 Z", FormatPath(gotArrow.Commands))

	gotText := objects[2].(*Text)
	require.True(t, gotText.Style.Fill.IsPattern())
	assert.Equal(t, PatternRepeatX, gotText.Style.Fill.Pattern.Repeat)
	assert.Equal(t, 0.5, gotText.Style.Fill.Pattern.Scale)
	assert.False(t, gotText.Editing, "editing state is not serialised")
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode(ObjectNode{Type: "star"})
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeSceneRejectsGarbage(t *testing.T) {
	_, _, err := DecodeScene([]byte("{nope"))
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestEndpointJSON(t *testing.T) {
	raw, err := json.Marshal(ConnectedEndpoint("obj_1", SideTop))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"connected","objId":"obj_1","side":"top"}`, string(raw))

	var e Endpoint
	require.NoError(t, json.Unmarshal([]byte(`{"type":"free","x":3,"y":4}`), &e))
	assert.Equal(t, FreeEndpoint(3, 4), e)

	err = json.Unmarshal([]byte(`{"type":"connected","objId":"obj_1","side":"middle"}`), &e)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestPathCmdJSON(t *testing.T) {
	raw, err := json.Marshal([]PathCmd{MoveTo(1, 2), QuadTo(3, 4, 5, 6), ClosePath()})
	require.NoError(t, err)
	assert.JSONEq(t, `[["M",1,2],["Q",3,4,5,6],["Z"]]`, string(raw))

	var cmd PathCmd
	assert.ErrorIs(t, json.Unmarshal([]byte(`["L",1]`), &cmd), ErrInvalidPath)
}

func TestNormalizePath(t *testing.T) {
	data, left, top := NormalizePath([]PathCmd{MoveTo(10, 20), LineTo(30, 25)})
	assert.Equal(t, 10.0, left)
	assert.Equal(t, 20.0, top)
	assert.Equal(t, 20.0, data.Width)
	assert.Equal(t, 5.0, data.Height)
	assert.Equal(t, "M 0 0 L 20 5", FormatPath(data.Commands))
}

func TestGroupRoundTrip(t *testing.T) {
	g := &Group{
		Base:  Base{ID: "obj_g", Transform: IdentityTransform(5, 5)},
		Width: 10, Height: 10,
		Children: []Object{
			&Ellipse{Base: Base{ID: "obj_e"}, RX: 2, RY: 3},
			&Line{Base: Base{ID: "obj_l"}, X2: 4, Y2: 4},
		},
	}
	clone, err := Clone(g)
	require.NoError(t, err)
	cg := clone.(*Group)
	require.Len(t, cg.Children, 2)
	assert.Equal(t, ObjectTypeEllipse, cg.Children[0].Type())
	w, h := cg.Children[1].Size()
	assert.Equal(t, 4.0, w)
	assert.Equal(t, 4.0, h)
}

func TestSampleSceneDecodes(t *testing.T) {
	bg, objects := NewSampleScene()
	data, err := EncodeScene(bg, objects)
	require.NoError(t, err)
	_, decoded, err := DecodeScene(data)
	require.NoError(t, err)
	assert.Len(t, decoded, len(objects))
}
