package protocol

import "fmt"

// Tag is the keyword that opens an instruction line
type Tag string

const (
	TagText      Tag = "DRAW_TEXT"
	TagRectangle Tag = "DRAW_RECTANGLE"
	TagCircle    Tag = "DRAW_CIRCLE"
	TagLine      Tag = "DRAW_LINE"
)

// tagPrefix marks every line reserved for instructions, known or not
const tagPrefix = "DRAW_"

// Instruction is one parsed drawing command.
// The set is closed; consumers switch over the concrete types.
type Instruction interface {
	Tag() Tag
	String() string
	instruction()
}

// DrawText places a text block with its top-left corner at (X, Y)
type DrawText struct {
	Text  string `json:"text"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Size  int    `json:"size"`
	Color string `json:"color"`
}

// DrawRectangle outlines a W×H rectangle anchored at (X, Y)
type DrawRectangle struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w"`
	H     int    `json:"h"`
	Color string `json:"color"`
}

// DrawCircle outlines a circle of radius R anchored at (X, Y)
type DrawCircle struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	R     int    `json:"r"`
	Color string `json:"color"`
}

// DrawLine draws a segment from (X1, Y1) to (X2, Y2)
type DrawLine struct {
	X1    int    `json:"x1"`
	Y1    int    `json:"y1"`
	X2    int    `json:"x2"`
	Y2    int    `json:"y2"`
	Color string `json:"color"`
}

func (DrawText) Tag() Tag      { return TagText }
func (DrawRectangle) Tag() Tag { return TagRectangle }
func (DrawCircle) Tag() Tag    { return TagCircle }
func (DrawLine) Tag() Tag      { return TagLine }

func (DrawText) instruction()      {}
func (DrawRectangle) instruction() {}
func (DrawCircle) instruction()    {}
func (DrawLine) instruction()      {}

// String renders the instruction back to its protocol line
func (i DrawText) String() string {
	return fmt.Sprintf(`%s: "%s" AT %d,%d SIZE %d COLOR %s`, TagText, i.Text, i.X, i.Y, i.Size, i.Color)
}

func (i DrawRectangle) String() string {
	return fmt.Sprintf("%s: %d,%d,%d,%d COLOR %s", TagRectangle, i.X, i.Y, i.W, i.H, i.Color)
}

func (i DrawCircle) String() string {
	return fmt.Sprintf("%s: %d,%d,%d COLOR %s", TagCircle, i.X, i.Y, i.R, i.Color)
}

func (i DrawLine) String() string {
	return fmt.Sprintf("%s: %d,%d,%d,%d COLOR %s", TagLine, i.X1, i.Y1, i.X2, i.Y2, i.Color)
}
