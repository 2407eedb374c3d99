package object

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind: type tag of a drawable object
type Kind string

const (
	KindFreehand  Kind = "freehand"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindText      Kind = "text"
	KindLine      Kind = "line"
)

// Kinds lists every drawable variant. Adding a variant means extending
// NewShape, the validator and every Renderer.
var Kinds = []Kind{KindFreehand, KindRectangle, KindCircle, KindText, KindLine}

var ErrUnknownKind = errors.New("unknown object kind")

// Shape: variant-specific geometry and style of a drawable object.
// Implemented only by the pointer types in object_schema.go.
type Shape interface {
	Kind() Kind
	Bounds() Rect
	isShape()
}

// Object is one entry of a session's whiteboard list
type Object struct {
	ID        string
	AuthorID  string
	CreatedAt time.Time
	Removed   bool
	Shape     Shape
}

// Kind: type tag derived from the shape, empty when no shape is set
func (o Object) Kind() Kind {
	if o.Shape == nil {
		return ""
	}
	return o.Shape.Kind()
}

// Visible reports whether renderers should draw the object
func (o Object) Visible() bool {
	return !o.Removed && o.Shape != nil
}

// wireObject is the stored form: common fields plus a type tag and the shape under "data"
type wireObject struct {
	ID        string          `json:"id"`
	Type      Kind            `json:"type"`
	AuthorID  string          `json:"authorId"`
	CreatedAt time.Time       `json:"createdAt"`
	Removed   bool            `json:"removed"`
	Data      json.RawMessage `json:"data"`
}

func (o Object) MarshalJSON() ([]byte, error) {
	if o.Shape == nil {
		return nil, fmt.Errorf("object %s has no shape", o.ID)
	}
	data, err := json.Marshal(o.Shape)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", o.Kind(), err)
	}
	return json.Marshal(wireObject{
		ID:        o.ID,
		Type:      o.Kind(),
		AuthorID:  o.AuthorID,
		CreatedAt: o.CreatedAt,
		Removed:   o.Removed,
		Data:      data,
	})
}

func (o *Object) UnmarshalJSON(b []byte) error {
	var w wireObject
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	shape, err := NewShape(w.Type)
	if err != nil {
		return err
	}
	if len(w.Data) > 0 {
		if err := json.Unmarshal(w.Data, shape); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", w.Type, err)
		}
	}
	*o = Object{
		ID:        w.ID,
		AuthorID:  w.AuthorID,
		CreatedAt: w.CreatedAt,
		Removed:   w.Removed,
		Shape:     shape,
	}
	return nil
}

// NewShape: empty shape for a type tag
func NewShape(kind Kind) (Shape, error) {
	switch kind {
	case KindFreehand:
		return &FreehandStroke{}, nil
	case KindRectangle:
		return &Rectangle{}, nil
	case KindCircle:
		return &Circle{}, nil
	case KindText:
		return &TextLabel{}, nil
	case KindLine:
		return &Line{}, nil
	default:
		return nil, fmt.Errorf("%w: %q, want one of %v", ErrUnknownKind, kind, Kinds)
	}
}

// VisibleOnly returns the objects renderers draw, keeping list order
func VisibleOnly(objects []Object) []Object {
	visible := make([]Object, 0, len(objects))
	for _, o := range objects {
		if o.Visible() {
			visible = append(visible, o)
		}
	}
	return visible
}
