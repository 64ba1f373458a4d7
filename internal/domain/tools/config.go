package tools

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
)

var (
	ErrInvalidTool      = errors.New("invalid tool")
	ErrInvalidBrushSize = errors.New("invalid brush size")
	ErrInvalidColor     = errors.New("invalid brush color")
	ErrToolsLocked      = errors.New("drawing tools are locked while the AI is teaching")
	ErrNotEditable      = errors.New("primitive is not editable text")
)

// Tool selects how pointer input is interpreted
type Tool string

const (
	ToolPencil    Tool = "pencil"
	ToolEraser    Tool = "eraser"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolText      Tool = "text"
)

// Brush limits
const (
	MinBrushSize     = 1
	MaxBrushSize     = 50
	DefaultBrushSize = 5
)

// Placeholder is the initial content of a new text block
const Placeholder = "Type here"

// ParseTool validates a tool name
func ParseTool(s string) (Tool, error) {
	switch t := Tool(s); t {
	case ToolPencil, ToolEraser, ToolRectangle, ToolCircle, ToolText:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTool, s)
	}
}

// Config is the user's tool selection
type Config struct {
	Tool  Tool   `json:"tool"`
	Color string `json:"color"`
	Size  int    `json:"size"`
}

// DefaultConfig returns pencil, black, size 5
func DefaultConfig() Config {
	return Config{
		Tool:  ToolPencil,
		Color: scene.DefaultInk,
		Size:  DefaultBrushSize,
	}
}

// ValidateSize checks the brush size range
func ValidateSize(size int) error {
	if size < MinBrushSize || size > MaxBrushSize {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidBrushSize, size, MinBrushSize, MaxBrushSize)
	}
	return nil
}

// ValidateColor checks that a color can be painted
func ValidateColor(c string) error {
	if _, ok := scene.ParseColor(c); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c)
	}
	return nil
}
