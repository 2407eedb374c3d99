package whiteboard

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"liveclass/internal/object"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrNoGesture = errors.New("no gesture in progress")

// Sink: where the engine hands finished work; implemented by the reconciliation protocol side.
// Both calls must return without waiting on the network.
type Sink interface {
	Submit(obj object.Object)
	SubmitRemoval(objectID string)
}

// Renderer draws visible objects, one method per variant
type Renderer interface {
	DrawStroke(id string, s *object.FreehandStroke)
	DrawRectangle(id string, s *object.Rectangle)
	DrawCircle(id string, s *object.Circle)
	DrawText(id string, s *object.TextLabel)
	DrawLine(id string, s *object.Line)
}

// gesture: ephemeral in-progress drawing, never shared
type gesture struct {
	tool   Tool
	points []object.Point
}

func (g *gesture) start() object.Point { return g.points[0] }
func (g *gesture) end() object.Point   { return g.points[len(g.points)-1] }

// Engine: client-local vector surface. It turns pointer input into objects and
// renders the last authoritative list plus local work not yet acknowledged.
// It never writes to the shared store.
type Engine struct {
	authorID  string
	sink      Sink
	validator *object.Validator
	palette   *Palette
	newID     func() string
	now       func() time.Time

	tool      Tool
	color     string
	brushSize float64
	fontSize  float64

	authoritative []object.Object
	local         []object.Object // committed, waiting for the next authoritative list
	unsynced      []object.Object // write failed; kept visible until resent or cleared
	gesture       *gesture
	selected      string

	mu sync.Mutex
}

type Option func(*Engine)

func WithPalette(p *Palette) Option {
	return func(e *Engine) { e.palette = p }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(authorID string, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		authorID:  authorID,
		sink:      sink,
		validator: object.NewValidator(),
		palette:   MustPalette(DefaultColors...),
		newID:     uuid.NewString,
		now:       time.Now,
		tool:      ToolFreehand,
		brushSize: DefaultBrushSize,
		fontSize:  DefaultFontSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.color = e.palette.Default()
	return e
}

// SetTool: changes gesture interpretation; abandons any in-progress gesture
func (e *Engine) SetTool(t Tool) error {
	if !tools[t] {
		return fmt.Errorf("%w: %q", ErrUnknownTool, t)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tool = t
	e.gesture = nil
	return nil
}

func (e *Engine) Tool() Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

// SetColor: colour for subsequent objects, must belong to the palette
func (e *Engine) SetColor(color string) error {
	hex, err := e.palette.Normalize(color)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.color = hex
	return nil
}

func (e *Engine) Color() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.color
}

// SetBrushSize: clamps into [MinBrushSize, MaxBrushSize] and returns the size applied
func (e *Engine) SetBrushSize(n float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brushSize = ClampBrushSize(n)
	return e.brushSize
}

func (e *Engine) BrushSize() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brushSize
}

// PointerDown starts a drawing gesture, or erases / selects at p
func (e *Engine) PointerDown(p object.Point) {
	e.mu.Lock()
	tool := e.tool
	if tool.draws() {
		e.gesture = &gesture{tool: tool, points: []object.Point{p}}
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	switch tool {
	case ToolEraser:
		e.EraseAt(p)
	case ToolSelect:
		e.SelectAt(p)
	}
}

// PointerMove extends the in-progress gesture
func (e *Engine) PointerMove(p object.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gesture == nil {
		return
	}
	if e.gesture.tool == ToolFreehand {
		if len(e.gesture.points) < object.MaxPointsInPath {
			e.gesture.points = append(e.gesture.points, p)
		}
		return
	}
	e.gesture.points = []object.Point{e.gesture.start(), p}
}

// PointerUp finishes the gesture and commits the resulting object.
// Degenerate gestures (a click, a zero-length stroke) fail with object.ErrInvalidGesture.
func (e *Engine) PointerUp(p object.Point) (object.Object, error) {
	e.mu.Lock()
	g := e.gesture
	e.gesture = nil
	if g == nil {
		e.mu.Unlock()
		return object.Object{}, ErrNoGesture
	}
	if g.tool == ToolFreehand {
		// a capped stroke ends on p instead of growing past the limit
		if len(g.points) < object.MaxPointsInPath {
			g.points = append(g.points, p)
		} else {
			g.points[len(g.points)-1] = p
		}
	} else {
		g.points = []object.Point{g.start(), p}
	}
	shape := e.shapeFor(g)
	e.mu.Unlock()

	obj := e.newObject(shape)
	if err := e.CommitObject(obj); err != nil {
		return object.Object{}, err
	}
	return obj, nil
}

// InProgress: preview of the current gesture, not part of any list
func (e *Engine) InProgress() (object.Object, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gesture == nil {
		return object.Object{}, false
	}
	g := &gesture{tool: e.gesture.tool, points: append([]object.Point(nil), e.gesture.points...)}
	return object.Object{ID: "", AuthorID: e.authorID, Shape: e.shapeFor(g)}, true
}

// PlaceText commits a text label at p with the current colour
func (e *Engine) PlaceText(p object.Point, text string) (object.Object, error) {
	e.mu.Lock()
	shape := &object.TextLabel{
		Position: object.Position{X: p.X, Y: p.Y},
		Text:     text,
		FontSize: e.fontSize,
		Color:    e.color,
	}
	e.mu.Unlock()

	obj := e.newObject(shape)
	if err := e.CommitObject(obj); err != nil {
		return object.Object{}, err
	}
	return obj, nil
}

// shapeFor builds the shape a gesture describes; caller holds e.mu
func (e *Engine) shapeFor(g *gesture) object.Shape {
	start, end := g.start(), g.end()
	switch g.tool {
	case ToolLine:
		return &object.Line{
			LineCoordinates: object.LineCoordinates{X1: start.X, Y1: start.Y, X2: end.X, Y2: end.Y},
			Color:           e.color,
			Width:           e.brushSize,
		}
	case ToolRectangle:
		return &object.Rectangle{
			Position:   object.Position{X: math.Min(start.X, end.X), Y: math.Min(start.Y, end.Y)},
			Size:       object.Size{Width: math.Abs(end.X - start.X), Height: math.Abs(end.Y - start.Y)},
			StyleProps: object.StyleProps{Stroke: e.color, StrokeWidth: e.brushSize},
		}
	case ToolCircle:
		return &object.Circle{
			CenterPosition: object.CenterPosition{CX: start.X, CY: start.Y},
			Radius:         math.Hypot(end.X-start.X, end.Y-start.Y),
			StyleProps:     object.StyleProps{Stroke: e.color, StrokeWidth: e.brushSize},
		}
	default:
		return &object.FreehandStroke{
			Points: append([]object.Point(nil), g.points...),
			Color:  e.color,
			Width:  e.brushSize,
		}
	}
}

func (e *Engine) newObject(shape object.Shape) object.Object {
	return object.Object{
		ID:        e.newID(),
		AuthorID:  e.authorID,
		CreatedAt: e.now().UTC(),
		Shape:     shape,
	}
}

// CommitObject validates obj, renders it optimistically and hands it to the sink.
// Invalid objects are dropped here and never reach the sink.
func (e *Engine) CommitObject(obj object.Object) error {
	if err := e.validator.ValidateAndSanitize(&obj); err != nil {
		return err
	}

	e.mu.Lock()
	e.local = append(e.local, obj)
	e.mu.Unlock()

	e.sink.Submit(obj)
	return nil
}

// MarkUnsynced moves a committed object whose write failed to the unsynced set,
// where it stays visible across authoritative refreshes. The object is kept even
// when a refresh already dropped it from the local list while the write was in flight.
func (e *Engine) MarkUnsynced(obj object.Object) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.local = lo.Reject(e.local, func(o object.Object, _ int) bool { return o.ID == obj.ID })
	if lo.ContainsBy(e.unsynced, func(o object.Object) bool { return o.ID == obj.ID }) {
		return
	}
	e.unsynced = append(e.unsynced, obj)
}

// ApplyAuthoritative replaces the rendered content with objects.
// Unacknowledged local work is dropped; unsynced objects stay until the list contains them.
// Applying the same list twice yields the same canvas.
func (e *Engine) ApplyAuthoritative(objects []object.Object) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.authoritative = append([]object.Object(nil), objects...)
	e.local = nil

	present := make(map[string]bool, len(objects))
	for _, o := range objects {
		present[o.ID] = true
	}
	kept := e.unsynced[:0]
	for _, o := range e.unsynced {
		if !present[o.ID] {
			kept = append(kept, o)
		}
	}
	e.unsynced = kept

	if e.selected != "" && !present[e.selected] {
		e.selected = ""
	}
}

// Clear empties the local surface. Only call it for an authoritative clear.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.authoritative = nil
	e.local = nil
	e.unsynced = nil
	e.gesture = nil
	e.selected = ""
}

// EraseAt hands the topmost visible object under p to the sink for removal
// and hides it locally until the next authoritative list
func (e *Engine) EraseAt(p object.Point) (string, bool) {
	e.mu.Lock()
	id, ok := e.hitTest(p)
	if ok {
		for i := range e.authoritative {
			if e.authoritative[i].ID == id {
				e.authoritative[i].Removed = true
			}
		}
	}
	e.mu.Unlock()

	if ok {
		e.sink.SubmitRemoval(id)
	}
	return id, ok
}

// SelectAt records the topmost visible object under p; nothing is mutated
func (e *Engine) SelectAt(p object.Point) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.hitTest(p)
	e.selected = id
	return id, ok
}

func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// hitTest only considers authoritative objects, the ones removal can target; caller holds e.mu
func (e *Engine) hitTest(p object.Point) (string, bool) {
	for i := len(e.authoritative) - 1; i >= 0; i-- {
		o := e.authoritative[i]
		if o.Visible() && o.Shape.Bounds().Contains(p, hitTolerance) {
			return o.ID, true
		}
	}
	return "", false
}

// Objects: the last authoritative list, removed entries included
func (e *Engine) Objects() []object.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]object.Object(nil), e.authoritative...)
}

// Visible: what the canvas shows, in paint order
func (e *Engine) Visible() []object.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible()
}

func (e *Engine) visible() []object.Object {
	out := object.VisibleOnly(e.authoritative)
	out = append(out, e.local...)
	return append(out, e.unsynced...)
}

// ObjectCount: objects the session will hold once local work is acknowledged
func (e *Engine) ObjectCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.authoritative) + len(e.local) + len(e.unsynced)
}

// Render paints every visible object in order
func (e *Engine) Render(r Renderer) error {
	for _, o := range e.Visible() {
		if err := renderObject(r, o); err != nil {
			return err
		}
	}
	return nil
}

func renderObject(r Renderer, o object.Object) error {
	switch s := o.Shape.(type) {
	case *object.FreehandStroke:
		r.DrawStroke(o.ID, s)
	case *object.Rectangle:
		r.DrawRectangle(o.ID, s)
	case *object.Circle:
		r.DrawCircle(o.ID, s)
	case *object.TextLabel:
		r.DrawText(o.ID, s)
	case *object.Line:
		r.DrawLine(o.ID, s)
	default:
		return fmt.Errorf("%w: %T", object.ErrUnknownKind, o.Shape)
	}
	return nil
}
