package object

import "math"

// Validation limit constants
const (
	MaxTextLength   = 1000
	MaxPointsInPath = 10000
	MaxCoordinate   = 1000000
	MinCoordinate   = -1000000
	MaxStrokeWidth  = 1000
	MaxFontSize     = 500
	MaxColorLength  = 50
)

// =============================================================================
// Common Embedded Structs
// =============================================================================

//  single x,y point on the canvas
type Point struct {
	X float64 `json:"x" validate:"min=-1000000,max=1000000"`
	Y float64 `json:"y" validate:"min=-1000000,max=1000000"`
}

//  top-left x,y coordinates for positioned shapes
type Position struct {
	X float64 `json:"x" validate:"min=-1000000,max=1000000"`
	Y float64 `json:"y" validate:"min=-1000000,max=1000000"`
}

//  center x,y coordinates (cx, cy) for circular shapes
type CenterPosition struct {
	CX float64 `json:"cx" validate:"min=-1000000,max=1000000"`
	CY float64 `json:"cy" validate:"min=-1000000,max=1000000"`
}

//  width and height dimensions
type Size struct {
	Width  float64 `json:"width" validate:"gt=0,max=1000000"`
	Height float64 `json:"height" validate:"gt=0,max=1000000"`
}

//  start and end points for line-based shapes
type LineCoordinates struct {
	X1 float64 `json:"x1" validate:"min=-1000000,max=1000000"`
	Y1 float64 `json:"y1" validate:"min=-1000000,max=1000000"`
	X2 float64 `json:"x2" validate:"min=-1000000,max=1000000"`
	Y2 float64 `json:"y2" validate:"min=-1000000,max=1000000"`
}

//  outline and fill styling for closed shapes
type StyleProps struct {
	Stroke      string  `json:"stroke" validate:"required,max=50"`
	StrokeWidth float64 `json:"strokeWidth" validate:"gt=0,max=1000"`
	Fill        string  `json:"fill,omitempty" validate:"omitempty,max=50"`
}

// Rect: axis-aligned bounding box
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether p lies inside the box grown by tolerance on every side
func (r Rect) Contains(p Point, tolerance float64) bool {
	return p.X >= r.MinX-tolerance && p.X <= r.MaxX+tolerance &&
		p.Y >= r.MinY-tolerance && p.Y <= r.MaxY+tolerance
}

// =============================================================================
// Shape Variants
// =============================================================================

type FreehandStroke struct {
	Points []Point `json:"points" validate:"required,min=2,max=10000,dive"`
	Color  string  `json:"color" validate:"required,max=50"`
	Width  float64 `json:"width" validate:"gt=0,max=1000"`
}

func (*FreehandStroke) Kind() Kind { return KindFreehand }
func (*FreehandStroke) isShape()   {}

func (s *FreehandStroke) Bounds() Rect {
	if len(s.Points) == 0 {
		return Rect{}
	}
	r := Rect{MinX: s.Points[0].X, MinY: s.Points[0].Y, MaxX: s.Points[0].X, MaxY: s.Points[0].Y}
	for _, p := range s.Points[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

// PathLength: summed distance between consecutive points
func (s *FreehandStroke) PathLength() float64 {
	var length float64
	for i := 1; i < len(s.Points); i++ {
		length += math.Hypot(s.Points[i].X-s.Points[i-1].X, s.Points[i].Y-s.Points[i-1].Y)
	}
	return length
}

type Rectangle struct {
	Position
	Size
	StyleProps
}

func (*Rectangle) Kind() Kind { return KindRectangle }
func (*Rectangle) isShape()   {}

func (s *Rectangle) Bounds() Rect {
	return Rect{MinX: s.X, MinY: s.Y, MaxX: s.X + s.Width, MaxY: s.Y + s.Height}
}

type Circle struct {
	CenterPosition
	Radius float64 `json:"radius" validate:"gt=0,max=1000000"`
	StyleProps
}

func (*Circle) Kind() Kind { return KindCircle }
func (*Circle) isShape()   {}

func (s *Circle) Bounds() Rect {
	return Rect{MinX: s.CX - s.Radius, MinY: s.CY - s.Radius, MaxX: s.CX + s.Radius, MaxY: s.CY + s.Radius}
}

type TextLabel struct {
	Position
	Text     string  `json:"text" validate:"required,max=1000"`
	FontSize float64 `json:"fontSize" validate:"min=1,max=500"`
	Color    string  `json:"color" validate:"required,max=50"`
}

func (*TextLabel) Kind() Kind { return KindText }
func (*TextLabel) isShape()   {}

// Bounds approximates the text box from the font size
func (s *TextLabel) Bounds() Rect {
	width := float64(len([]rune(s.Text))) * s.FontSize * 0.6
	return Rect{MinX: s.X, MinY: s.Y, MaxX: s.X + width, MaxY: s.Y + s.FontSize}
}

type Line struct {
	LineCoordinates
	Color string  `json:"color" validate:"required,max=50"`
	Width float64 `json:"width" validate:"gt=0,max=1000"`
}

func (*Line) Kind() Kind { return KindLine }
func (*Line) isShape()   {}

func (s *Line) Bounds() Rect {
	return Rect{
		MinX: math.Min(s.X1, s.X2), MinY: math.Min(s.Y1, s.Y2),
		MaxX: math.Max(s.X1, s.X2), MaxY: math.Max(s.Y1, s.Y2),
	}
}

// Length: distance between the two end points
func (s *Line) Length() float64 {
	return math.Hypot(s.X2-s.X1, s.Y2-s.Y1)
}
