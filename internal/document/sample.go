package document

import "github.com/inamate/canvasviewer/internal/typeid"

const DefaultBackground = "#2e342d"

// NewSampleScene returns a small scene used by the demo page: two boxes
// joined by an arrow and a caption. Arrow geometry is left empty; the editor
// lays arrows out when a scene is loaded.
func NewSampleScene() (string, []Object) {
	leftID := typeid.NewObjectID()
	rightID := typeid.NewObjectID()

	left := &Rect{
		Base: Base{
			ID:        leftID,
			Transform: IdentityTransform(80, 120),
			Style: Style{
				Fill:        SolidPaint("#4CAF50"),
				Stroke:      "#84cc16",
				StrokeWidth: 2,
				Opacity:     1,
			},
			Caching: true,
		},
		Width:       160,
		Height:      100,
		BorderStyle: BorderSolid,
	}

	right := &Rect{
		Base: Base{
			ID:        rightID,
			Label:     "Target",
			Transform: IdentityTransform(420, 260),
			Style: Style{
				Fill:        SolidPaint("#2196F3"),
				Stroke:      "#84cc16",
				StrokeWidth: 2,
				DashArray:   []float64{10, 16},
				Opacity:     1,
			},
		},
		Width:       140,
		Height:      90,
		BorderStyle: BorderAnimatedDashed,
	}

	arrow := &Arrow{
		Base: Base{
			ID:        typeid.NewObjectID(),
			Label:     "Arrow",
			Transform: IdentityTransform(0, 0),
			Style: Style{
				Fill:        SolidPaint("#84cc16"),
				Stroke:      "#84cc16",
				StrokeWidth: 2,
				DashArray:   []float64{10, 8},
				Opacity:     1,
			},
			Caching: true,
		},
		From:      ConnectedEndpoint(leftID, SideRight),
		To:        ConnectedEndpoint(rightID, SideLeft),
		Animation: ArrowAnimationDash,
	}

	caption := &Text{
		Base: Base{
			ID:        typeid.NewObjectID(),
			Transform: IdentityTransform(80, 40),
			Style: Style{
				Fill:    SolidPaint("#4CAF50"),
				Opacity: 1,
			},
			Caching: true,
		},
		Text:       "Canvas Viewer",
		FontSize:   20,
		FontFamily: "Arial",
		FontWeight: FontWeightBold,
		FontStyle:  FontStyleNormal,
	}

	return DefaultBackground, []Object{left, right, arrow, caption}
}
