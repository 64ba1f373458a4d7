package scene

import (
	"encoding/json"
	"slices"

	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// Kind discriminates the primitive variants
type Kind string

const (
	KindStroke    Kind = "stroke"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindText      Kind = "text"
)

// Author records which producer created a primitive
type Author string

const (
	AuthorUser Author = "user"
	AuthorAI   Author = "ai"
)

// Point is a surface coordinate; the origin is the top-left corner
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style holds the paint attributes of a primitive
type Style struct {
	Stroke string  `json:"stroke"`
	Fill   string  `json:"fill"`
	Width  float64 `json:"width"`
}

// Attrs are the attributes shared by every primitive
type Attrs struct {
	ID         id.PrimitiveID `json:"id"`
	Origin     Point          `json:"origin"`
	Style      Style          `json:"style"`
	Selectable bool           `json:"selectable"`
	Author     Author         `json:"author"`
}

// Primitive is the closed set of drawable kinds.
// The unexported methods keep the set sealed to this package.
type Primitive interface {
	Kind() Kind
	Attributes() Attrs
	attrs() *Attrs
	clone() Primitive
}

// Stroke is a freehand polyline; Origin is its first point
type Stroke struct {
	Attrs
	Points []Point `json:"points"`
}

// Rectangle is anchored at Origin (top-left)
type Rectangle struct {
	Attrs
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Circle is anchored at Origin, the top-left of its bounding box
type Circle struct {
	Attrs
	Radius float64 `json:"radius"`
}

// Line runs from Origin to End
type Line struct {
	Attrs
	End Point `json:"end"`
}

// MaxFontSize is the largest text size that is rendered
const MaxFontSize = 200

// Text is a block of text whose top-left corner sits at Origin
type Text struct {
	Attrs
	Content  string  `json:"content"`
	FontSize float64 `json:"font_size"`
	Editable bool    `json:"editable"`
}

func (*Stroke) Kind() Kind    { return KindStroke }
func (*Rectangle) Kind() Kind { return KindRectangle }
func (*Circle) Kind() Kind    { return KindCircle }
func (*Line) Kind() Kind      { return KindLine }
func (*Text) Kind() Kind      { return KindText }

func (p *Stroke) Attributes() Attrs    { return p.Attrs }
func (p *Rectangle) Attributes() Attrs { return p.Attrs }
func (p *Circle) Attributes() Attrs    { return p.Attrs }
func (p *Line) Attributes() Attrs      { return p.Attrs }
func (p *Text) Attributes() Attrs      { return p.Attrs }

func (p *Stroke) attrs() *Attrs    { return &p.Attrs }
func (p *Rectangle) attrs() *Attrs { return &p.Attrs }
func (p *Circle) attrs() *Attrs    { return &p.Attrs }
func (p *Line) attrs() *Attrs      { return &p.Attrs }
func (p *Text) attrs() *Attrs      { return &p.Attrs }

func (p *Stroke) clone() Primitive {
	c := *p
	c.Points = slices.Clone(p.Points)
	return &c
}

func (p *Rectangle) clone() Primitive { c := *p; return &c }
func (p *Circle) clone() Primitive    { c := *p; return &c }
func (p *Line) clone() Primitive      { c := *p; return &c }
func (p *Text) clone() Primitive      { c := *p; return &c }

// Empty reports whether a primitive has no visible extent.
// Zero-size user shapes are discarded instead of committed.
func Empty(p Primitive) bool {
	switch v := p.(type) {
	case *Stroke:
		return len(v.Points) == 0
	case *Rectangle:
		return v.Width == 0 || v.Height == 0
	case *Circle:
		return v.Radius == 0
	case *Line:
		return v.Origin == v.End
	case *Text:
		return v.Content == ""
	default:
		return true
	}
}

// JSON encoding adds a "kind" discriminator next to the flattened fields.

func (p Stroke) MarshalJSON() ([]byte, error) {
	type plain Stroke
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindStroke, plain(p)})
}

func (p Rectangle) MarshalJSON() ([]byte, error) {
	type plain Rectangle
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindRectangle, plain(p)})
}

func (p Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindCircle, plain(p)})
}

func (p Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindLine, plain(p)})
}

func (p Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{KindText, plain(p)})
}
