package object_test

import (
	"encoding/json"
	"testing"
	"time"

	"liveclass/internal/object"

	"github.com/stretchr/testify/require"
)

func stroke(points ...object.Point) object.Object {
	return object.Object{
		ID:        "o1",
		AuthorID:  "u1",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Shape:     &object.FreehandStroke{Points: points, Color: "#000000", Width: 2},
	}
}

func TestObject_JSONKeepsVariantAndRemovedFlag(t *testing.T) {
	req := require.New(t)

	// Given a removed circle
	obj := object.Object{
		ID:       "c1",
		AuthorID: "u1",
		Removed:  true,
		Shape: &object.Circle{
			CenterPosition: object.CenterPosition{CX: 10, CY: 20},
			Radius:         5,
			StyleProps:     object.StyleProps{Stroke: "#ff0000", StrokeWidth: 1},
		},
	}

	// When it travels through its stored form
	raw, err := json.Marshal(obj)
	req.NoError(err)
	var wire map[string]any
	req.NoError(json.Unmarshal(raw, &wire))
	var decoded object.Object
	req.NoError(json.Unmarshal(raw, &decoded))

	// Then the type tag selects the variant again
	req.Equal("circle", wire["type"])
	req.Equal(object.KindCircle, decoded.Kind())
	req.True(decoded.Removed)
	req.False(decoded.Visible())
	circle, ok := decoded.Shape.(*object.Circle)
	req.True(ok)
	req.Equal(5.0, circle.Radius)
}

func TestObject_UnknownTypeIsRejected(t *testing.T) {
	var decoded object.Object
	err := json.Unmarshal([]byte(`{"id":"x","type":"triangle","data":{}}`), &decoded)
	require.ErrorIs(t, err, object.ErrUnknownKind)
}

func TestNewShape_CoversEveryKind(t *testing.T) {
	req := require.New(t)

	for _, kind := range object.Kinds {
		shape, err := object.NewShape(kind)
		req.NoError(err, kind)
		req.Equal(kind, shape.Kind())
	}

	_, err := object.NewShape("triangle")
	req.ErrorIs(err, object.ErrUnknownKind)
	req.ErrorContains(err, string(object.KindLine))
}

func TestObject_WithoutShapeCannotBeStored(t *testing.T) {
	_, err := json.Marshal(object.Object{ID: "x"})
	require.Error(t, err)
}

func TestVisibleOnly_KeepsOrderAndDropsRemoved(t *testing.T) {
	req := require.New(t)
	a := stroke(object.Point{X: 0, Y: 0}, object.Point{X: 1, Y: 1})
	b := a
	b.ID, b.Removed = "o2", true
	c := a
	c.ID = "o3"

	visible := object.VisibleOnly([]object.Object{a, b, c})

	req.Len(visible, 2)
	req.Equal("o1", visible[0].ID)
	req.Equal("o3", visible[1].ID)
}

func TestValidator_AcceptsWellFormedObjects(t *testing.T) {
	req := require.New(t)
	v := object.NewValidator()

	objects := []object.Object{
		stroke(object.Point{X: 0, Y: 0}, object.Point{X: 3, Y: 4}),
		{ID: "r", AuthorID: "u", Shape: &object.Rectangle{
			Size:       object.Size{Width: 10, Height: 5},
			StyleProps: object.StyleProps{Stroke: "#000000", StrokeWidth: 1},
		}},
		{ID: "l", AuthorID: "u", Shape: &object.Line{
			LineCoordinates: object.LineCoordinates{X2: 10},
			Color:           "#000000",
			Width:           1,
		}},
		{ID: "t", AuthorID: "u", Shape: &object.TextLabel{Text: "x = 2", FontSize: 16, Color: "#000000"}},
	}
	for i := range objects {
		req.NoError(v.ValidateAndSanitize(&objects[i]), "object %s", objects[i].ID)
	}
}

func TestValidator_RejectsInvalidGestures(t *testing.T) {
	v := object.NewValidator()

	cases := map[string]object.Object{
		"missing id":          {AuthorID: "u", Shape: stroke(object.Point{}, object.Point{X: 1}).Shape},
		"missing author":      {ID: "o", Shape: stroke(object.Point{}, object.Point{X: 1}).Shape},
		"missing shape":       {ID: "o", AuthorID: "u"},
		"single point stroke": stroke(object.Point{X: 1, Y: 1}),
		"zero-length stroke":  stroke(object.Point{X: 1, Y: 1}, object.Point{X: 1, Y: 1}),
		"zero-width rectangle": {ID: "r", AuthorID: "u", Shape: &object.Rectangle{
			Size:       object.Size{Width: 0, Height: 5},
			StyleProps: object.StyleProps{Stroke: "#000000", StrokeWidth: 1},
		}},
		"zero-length line": {ID: "l", AuthorID: "u", Shape: &object.Line{
			LineCoordinates: object.LineCoordinates{X1: 2, Y1: 2, X2: 2, Y2: 2},
			Color:           "#000000",
			Width:           1,
		}},
		"markup-only text": {ID: "t", AuthorID: "u", Shape: &object.TextLabel{
			Text: "<script>alert(1)</script>", FontSize: 16, Color: "#000000",
		}},
		"coordinate out of range": stroke(object.Point{X: 0, Y: 0}, object.Point{X: 2e6, Y: 0}),
	}

	for name, obj := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, v.ValidateAndSanitize(&obj), object.ErrInvalidGesture)
		})
	}
}

func TestValidator_StripsMarkupFromText(t *testing.T) {
	req := require.New(t)
	v := object.NewValidator()
	obj := object.Object{ID: "t", AuthorID: "u", Shape: &object.TextLabel{
		Text: "  <b>Pythagoras</b>  ", FontSize: 16, Color: "#000000",
	}}

	req.NoError(v.ValidateAndSanitize(&obj))

	req.Equal("Pythagoras", obj.Shape.(*object.TextLabel).Text)
}

func TestValidator_KeepsAmpersandsAsText(t *testing.T) {
	req := require.New(t)
	v := object.NewValidator()
	obj := object.Object{ID: "t", AuthorID: "u", Shape: &object.TextLabel{
		Text: "a < b & c", FontSize: 16, Color: "#000000",
	}}

	req.NoError(v.ValidateAndSanitize(&obj))

	req.Equal("a < b & c", obj.Shape.(*object.TextLabel).Text)
	req.Equal("Tom & Jerry", object.SanitizeString("Tom &amp; <i>Jerry</i>"))
}

func TestBounds_ContainsWithTolerance(t *testing.T) {
	req := require.New(t)
	line := &object.Line{LineCoordinates: object.LineCoordinates{X1: 10, Y1: 10, X2: 0, Y2: 0}}

	box := line.Bounds()

	req.Equal(object.Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, box)
	req.True(box.Contains(object.Point{X: 12, Y: 5}, 2))
	req.False(box.Contains(object.Point{X: 13, Y: 5}, 2))
}
