package whiteboard

import (
	"errors"
	"fmt"
	"math"
)

type Tool string

const (
	ToolFreehand  Tool = "freehand"
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolText      Tool = "text"
	ToolEraser    Tool = "eraser"
	ToolSelect    Tool = "select"
)

const (
	MinBrushSize     = 1.0
	MaxBrushSize     = 50.0
	DefaultBrushSize = 3.0
	DefaultFontSize  = 20.0
	// pointer slack in canvas units when hit-testing for the eraser and select tools
	hitTolerance = 6.0
)

var ErrUnknownTool = errors.New("unknown tool")

var tools = map[Tool]bool{
	ToolFreehand:  true,
	ToolLine:      true,
	ToolRectangle: true,
	ToolCircle:    true,
	ToolText:      true,
	ToolEraser:    true,
	ToolSelect:    true,
}

func ParseTool(s string) (Tool, error) {
	t := Tool(s)
	if !tools[t] {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, s)
	}
	return t, nil
}

// draws reports whether pointer drags with this tool produce an object
func (t Tool) draws() bool {
	switch t {
	case ToolFreehand, ToolLine, ToolRectangle, ToolCircle:
		return true
	}
	return false
}

// ClampBrushSize: out-of-range sizes clamp rather than fail
func ClampBrushSize(n float64) float64 {
	if math.IsNaN(n) {
		return DefaultBrushSize
	}
	return math.Max(MinBrushSize, math.Min(MaxBrushSize, n))
}
