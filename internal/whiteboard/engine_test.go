package whiteboard_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"liveclass/internal/object"
	"liveclass/internal/whiteboard"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	objects  []object.Object
	removals []string
}

func (s *recordingSink) Submit(obj object.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, obj)
}

func (s *recordingSink) SubmitRemoval(objectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removals = append(s.removals, objectID)
}

type recordingRenderer struct {
	drawn []string
}

func (r *recordingRenderer) DrawStroke(id string, _ *object.FreehandStroke) {
	r.drawn = append(r.drawn, "stroke:"+id)
}
func (r *recordingRenderer) DrawRectangle(id string, _ *object.Rectangle) {
	r.drawn = append(r.drawn, "rect:"+id)
}
func (r *recordingRenderer) DrawCircle(id string, _ *object.Circle) {
	r.drawn = append(r.drawn, "circle:"+id)
}
func (r *recordingRenderer) DrawText(id string, _ *object.TextLabel) {
	r.drawn = append(r.drawn, "text:"+id)
}
func (r *recordingRenderer) DrawLine(id string, _ *object.Line) {
	r.drawn = append(r.drawn, "line:"+id)
}

func newEngine(sink whiteboard.Sink) *whiteboard.Engine {
	n := 0
	return whiteboard.NewEngine("alice", sink,
		whiteboard.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("obj-%d", n)
		}),
		whiteboard.WithClock(func() time.Time { return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) }),
	)
}

func stroke(id string, removed bool) object.Object {
	return object.Object{
		ID:       id,
		AuthorID: "bob",
		Removed:  removed,
		Shape: &object.FreehandStroke{
			Points: []object.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
			Color:  "#000000",
			Width:  3,
		},
	}
}

func Test_Engine_FreehandGestureCommitsStroke(t *testing.T) {
	req := require.New(t)

	// Given an engine with the default freehand tool
	sink := &recordingSink{}
	e := newEngine(sink)

	// When a drag gesture completes
	e.PointerDown(object.Point{X: 1, Y: 1})
	e.PointerMove(object.Point{X: 5, Y: 5})
	obj, err := e.PointerUp(object.Point{X: 9, Y: 9})

	// Then the stroke is rendered locally and submitted once
	req.NoError(err)
	req.Equal("obj-1", obj.ID)
	req.Equal("alice", obj.AuthorID)
	req.Equal(object.KindFreehand, obj.Kind())
	req.Len(obj.Shape.(*object.FreehandStroke).Points, 3)
	req.Len(sink.objects, 1)
	req.Len(e.Visible(), 1)
	_, inProgress := e.InProgress()
	req.False(inProgress)
}

func Test_Engine_ZeroLengthStrokeIsDropped(t *testing.T) {
	req := require.New(t)

	// Given an engine
	sink := &recordingSink{}
	e := newEngine(sink)

	// When the pointer goes down and up on the same spot
	e.PointerDown(object.Point{X: 4, Y: 4})
	_, err := e.PointerUp(object.Point{X: 4, Y: 4})

	// Then the gesture is rejected and nothing is sent
	req.ErrorIs(err, object.ErrInvalidGesture)
	req.Empty(sink.objects)
	req.Empty(e.Visible())
}

func Test_Engine_RectangleFromDragInAnyDirection(t *testing.T) {
	req := require.New(t)

	// Given the rectangle tool
	e := newEngine(&recordingSink{})
	req.NoError(e.SetTool(whiteboard.ToolRectangle))

	// When dragging up and to the left
	e.PointerDown(object.Point{X: 50, Y: 40})
	e.PointerMove(object.Point{X: 20, Y: 30})
	obj, err := e.PointerUp(object.Point{X: 10, Y: 20})

	// Then the rectangle is normalised to its top-left corner
	req.NoError(err)
	rect := obj.Shape.(*object.Rectangle)
	req.Equal(10.0, rect.X)
	req.Equal(20.0, rect.Y)
	req.Equal(40.0, rect.Width)
	req.Equal(20.0, rect.Height)
}

func Test_Engine_PointerUpWithoutGesture(t *testing.T) {
	req := require.New(t)

	e := newEngine(&recordingSink{})

	_, err := e.PointerUp(object.Point{X: 1, Y: 1})

	req.ErrorIs(err, whiteboard.ErrNoGesture)
}

func Test_Engine_PlaceTextSanitizesAndRejectsEmpty(t *testing.T) {
	req := require.New(t)

	// Given an engine
	sink := &recordingSink{}
	e := newEngine(sink)

	// When placing text with markup, then text that is only markup
	obj, err := e.PlaceText(object.Point{X: 5, Y: 5}, "<b>x = 2</b>")
	req.NoError(err)
	_, err = e.PlaceText(object.Point{X: 5, Y: 5}, "<script></script>")

	// Then the first is stripped and the second never leaves the engine
	req.Equal("x = 2", obj.Shape.(*object.TextLabel).Text)
	req.ErrorIs(err, object.ErrInvalidGesture)
	req.Len(sink.objects, 1)
}

func Test_Engine_SetColorOutsidePaletteIsRejected(t *testing.T) {
	req := require.New(t)

	e := newEngine(&recordingSink{})

	req.NoError(e.SetColor("#E53935"))
	req.Equal("#e53935", e.Color())
	req.ErrorIs(e.SetColor("#123456"), whiteboard.ErrColorNotInPalette)
	req.Equal("#e53935", e.Color())
}

func Test_Engine_BrushSizeIsClamped(t *testing.T) {
	req := require.New(t)

	e := newEngine(&recordingSink{})

	req.Equal(whiteboard.MaxBrushSize, e.SetBrushSize(500))
	req.Equal(whiteboard.MinBrushSize, e.SetBrushSize(0))
	req.Equal(12.0, e.SetBrushSize(12))
	req.Equal(12.0, e.BrushSize())
}

func Test_Engine_SetToolRejectsUnknownTool(t *testing.T) {
	req := require.New(t)

	e := newEngine(&recordingSink{})

	req.ErrorIs(e.SetTool("laser"), whiteboard.ErrUnknownTool)
	req.Equal(whiteboard.ToolFreehand, e.Tool())
}

func Test_Engine_ApplyAuthoritativeIsIdempotent(t *testing.T) {
	req := require.New(t)

	// Given an authoritative list with one removed object
	e := newEngine(&recordingSink{})
	list := []object.Object{stroke("a", false), stroke("b", true), stroke("c", false)}

	// When the same list is applied twice
	e.ApplyAuthoritative(list)
	first := e.Visible()
	e.ApplyAuthoritative(list)

	// Then the canvas is unchanged and the removed object is hidden but retained
	req.Equal(first, e.Visible())
	req.Len(e.Visible(), 2)
	req.Len(e.Objects(), 3)
}

func Test_Engine_ApplyAuthoritativeReplacesLocalWork(t *testing.T) {
	req := require.New(t)

	// Given a locally committed stroke that was never acknowledged
	e := newEngine(&recordingSink{})
	e.PointerDown(object.Point{X: 0, Y: 0})
	_, err := e.PointerUp(object.Point{X: 5, Y: 5})
	req.NoError(err)

	// When an authoritative list without it arrives
	e.ApplyAuthoritative([]object.Object{stroke("a", false)})

	// Then only the authoritative content is rendered
	visible := e.Visible()
	req.Len(visible, 1)
	req.Equal("a", visible[0].ID)
}

func Test_Engine_UnsyncedObjectsSurviveUntilAcknowledged(t *testing.T) {
	req := require.New(t)

	// Given a committed stroke whose write failed
	e := newEngine(&recordingSink{})
	e.PointerDown(object.Point{X: 0, Y: 0})
	obj, err := e.PointerUp(object.Point{X: 5, Y: 5})
	req.NoError(err)
	e.MarkUnsynced(obj)

	// When an unrelated authoritative list arrives
	e.ApplyAuthoritative([]object.Object{stroke("a", false)})

	// Then the unsynced stroke is still shown
	req.Len(e.Visible(), 2)

	// When the list finally contains it
	e.ApplyAuthoritative([]object.Object{stroke("a", false), obj})

	// Then it is shown exactly once
	req.Len(e.Visible(), 2)
	req.Equal(2, e.ObjectCount())
}

func Test_Engine_EraserSubmitsRemovalOfTopmostObject(t *testing.T) {
	req := require.New(t)

	// Given two overlapping strokes
	sink := &recordingSink{}
	e := newEngine(sink)
	e.ApplyAuthoritative([]object.Object{stroke("under", false), stroke("over", false)})
	req.NoError(e.SetTool(whiteboard.ToolEraser))

	// When erasing where they overlap
	e.PointerDown(object.Point{X: 5, Y: 5})

	// Then the topmost one is removed and hidden locally
	req.Equal([]string{"over"}, sink.removals)
	visible := e.Visible()
	req.Len(visible, 1)
	req.Equal("under", visible[0].ID)
}

func Test_Engine_EraserMissDoesNothing(t *testing.T) {
	req := require.New(t)

	sink := &recordingSink{}
	e := newEngine(sink)
	e.ApplyAuthoritative([]object.Object{stroke("a", false)})

	_, ok := e.EraseAt(object.Point{X: 500, Y: 500})

	req.False(ok)
	req.Empty(sink.removals)
}

func Test_Engine_SelectDoesNotMutate(t *testing.T) {
	req := require.New(t)

	// Given an object on the board
	sink := &recordingSink{}
	e := newEngine(sink)
	e.ApplyAuthoritative([]object.Object{stroke("a", false)})
	req.NoError(e.SetTool(whiteboard.ToolSelect))

	// When clicking it
	e.PointerDown(object.Point{X: 2, Y: 2})

	// Then it is selected and nothing is written
	req.Equal("a", e.Selected())
	req.Empty(sink.objects)
	req.Empty(sink.removals)

	// When it disappears from the authoritative list, the selection clears
	e.ApplyAuthoritative(nil)
	req.Empty(e.Selected())
}

func Test_Engine_ClearEmptiesSurface(t *testing.T) {
	req := require.New(t)

	e := newEngine(&recordingSink{})
	e.ApplyAuthoritative([]object.Object{stroke("a", false), stroke("b", false)})

	e.Clear()

	req.Empty(e.Visible())
	req.Zero(e.ObjectCount())
}

func Test_Engine_RenderDispatchesEveryVariant(t *testing.T) {
	req := require.New(t)

	// Given one object of each kind, one of them removed
	e := newEngine(&recordingSink{})
	e.ApplyAuthoritative([]object.Object{
		stroke("s", false),
		{ID: "r", AuthorID: "bob", Shape: &object.Rectangle{
			Size:       object.Size{Width: 1, Height: 1},
			StyleProps: object.StyleProps{Stroke: "#000000", StrokeWidth: 1},
		}},
		{ID: "c", AuthorID: "bob", Shape: &object.Circle{Radius: 1}},
		{ID: "t", AuthorID: "bob", Shape: &object.TextLabel{Text: "hi", FontSize: 10}},
		{ID: "l", AuthorID: "bob", Shape: &object.Line{LineCoordinates: object.LineCoordinates{X2: 1}}},
		stroke("gone", true),
	})

	// When rendering
	r := &recordingRenderer{}
	req.NoError(e.Render(r))

	// Then visible objects are drawn in list order
	req.Equal([]string{"stroke:s", "rect:r", "circle:c", "text:t", "line:l"}, r.drawn)
}

func Test_Engine_MarkUnsyncedAfterRefreshRestoresObjectOnce(t *testing.T) {
	req := require.New(t)

	// Given a committed stroke dropped from the local list by a refresh
	e := newEngine(&recordingSink{})
	e.PointerDown(object.Point{X: 0, Y: 0})
	obj, err := e.PointerUp(object.Point{X: 5, Y: 5})
	req.NoError(err)
	e.ApplyAuthoritative(nil)
	req.Empty(e.Visible())

	// When its write is reported failed, twice
	e.MarkUnsynced(obj)
	e.MarkUnsynced(obj)

	// Then it is visible exactly once
	visible := e.Visible()
	req.Len(visible, 1)
	req.Equal(obj.ID, visible[0].ID)
}

func Test_Engine_LongStrokeIsCappedAndCommitted(t *testing.T) {
	req := require.New(t)
	sink := &recordingSink{}
	e := newEngine(sink)

	// Given a freehand gesture with more moves than a stroke may hold
	e.PointerDown(object.Point{X: 0, Y: 0})
	for i := 1; i < object.MaxPointsInPath+50; i++ {
		e.PointerMove(object.Point{X: float64(i % 500), Y: float64(i / 500)})
	}

	// When releasing the pointer
	obj, err := e.PointerUp(object.Point{X: 999, Y: 999})

	// Then the stroke is committed at the limit and ends on the release point
	req.NoError(err)
	points := obj.Shape.(*object.FreehandStroke).Points
	req.Len(points, object.MaxPointsInPath)
	req.Equal(object.Point{X: 999, Y: 999}, points[len(points)-1])
	req.Len(sink.objects, 1)
	req.Len(e.Visible(), 1)
}
