package export

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/gabriel-vasile/mimetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
)

// MIMEType of every export
const MIMEType = "image/png"

// lineHeight matches the spacing browsers use for multi-line text blocks
const lineHeight = 1.16

// Font face cache limits. Entries must be a power of two.
const (
	maxFaces          = 16
	glyphCacheEntries = 32
)

// Source provides the scene to render
type Source interface {
	Snapshot() scene.Snapshot
}

// Image is a rendered export
type Image struct {
	Data     []byte
	MIME     string
	Filename string
	Width    int
	Height   int
}

// Exporter rasterizes scenes to PNG. It never mutates the scene.
type Exporter struct {
	font    *truetype.Font
	mu      sync.Mutex            // serializes rendering; faces are not goroutine-safe
	faces   map[float64]font.Face // Protected by mu
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewExporter parses the embedded Go Regular font
func NewExporter() (*Exporter, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Exporter{
		font:  f,
		faces: make(map[float64]font.Face),
		now:   time.Now,
	}, nil
}

// WithMetrics adds metrics tracking to the exporter
func (e *Exporter) WithMetrics(metrics *monitoring.Metrics) *Exporter {
	e.metrics = metrics
	return e
}

// Filename returns the download name for an export taken at t
func Filename(t time.Time) string {
	return fmt.Sprintf("whiteboard-%d.png", t.UnixMilli())
}

// Export renders the current scene of src
func (e *Exporter) Export(ctx context.Context, src Source) (*Image, error) {
	snap := src.Snapshot()

	data, err := e.Render(ctx, snap)
	if err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !mtype.Is(MIMEType) {
		return nil, fmt.Errorf("failed to export: encoder produced %s", mtype.String())
	}

	if e.metrics != nil {
		e.metrics.IncExports()
	}
	return &Image{
		Data:     data,
		MIME:     mtype.String(),
		Filename: Filename(e.now()),
		Width:    snap.Width,
		Height:   snap.Height,
	}, nil
}

// Render paints snap in order onto a surface of its size and encodes PNG
func (e *Exporter) Render(ctx context.Context, snap scene.Snapshot) ([]byte, error) {
	if snap.Width <= 0 || snap.Height <= 0 {
		return nil, fmt.Errorf("failed to export: invalid surface %dx%d", snap.Width, snap.Height)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dc := gg.NewContext(snap.Width, snap.Height)
	dc.SetColor(scene.ResolveColor(snap.Background, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	dc.Clear()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, p := range snap.Primitives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.draw(dc, p)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) draw(dc *gg.Context, p scene.Primitive) {
	a := p.Attributes()

	switch v := p.(type) {
	case *scene.Stroke:
		if len(v.Points) == 1 {
			// A click without movement leaves a dot
			dc.DrawCircle(v.Points[0].X, v.Points[0].Y, v.Style.Width/2)
			fillWith(dc, v.Style.Stroke)
			return
		}
		for i, pt := range v.Points {
			if i == 0 {
				dc.MoveTo(pt.X, pt.Y)
				continue
			}
			dc.LineTo(pt.X, pt.Y)
		}
		strokeWith(dc, a.Style)

	case *scene.Rectangle:
		dc.DrawRectangle(a.Origin.X, a.Origin.Y, v.Width, v.Height)
		paint(dc, a.Style)

	case *scene.Circle:
		// Origin is the top-left of the bounding box
		circle(dc, a.Origin.X+v.Radius, a.Origin.Y+v.Radius, v.Radius, a.Style)

	case *scene.Line:
		dc.DrawLine(a.Origin.X, a.Origin.Y, v.End.X, v.End.Y)
		strokeWith(dc, a.Style)

	case *scene.Text:
		if v.FontSize <= 0 || v.Content == "" {
			return
		}
		size := math.Min(v.FontSize, scene.MaxFontSize)
		dc.SetFontFace(e.face(size))
		dc.SetColor(scene.ResolveColor(a.Style.Fill, color.RGBA{A: 255}))
		for i, line := range strings.Split(v.Content, "\n") {
			y := a.Origin.Y + float64(i)*size*lineHeight
			dc.DrawStringAnchored(line, a.Origin.X, y, 0, 1)
		}
	}
}

// face returns a cached face for a font size; caller holds mu
func (e *Exporter) face(size float64) font.Face {
	if f, ok := e.faces[size]; ok {
		return f
	}
	if len(e.faces) >= maxFaces {
		clear(e.faces)
	}
	f := truetype.NewFace(e.font, &truetype.Options{Size: size, GlyphCacheEntries: glyphCacheEntries})
	e.faces[size] = f
	return f
}

// paint fills then outlines the current path
func paint(dc *gg.Context, style scene.Style) {
	if c, ok := scene.ParseColor(style.Fill); ok && c.A > 0 {
		dc.SetColor(c)
		dc.FillPreserve()
	}
	strokeWith(dc, style)
}

// circle paints only the part of a circle that can reach the surface
func circle(dc *gg.Context, cx, cy, r float64, style scene.Style) {
	span, covers, ok := visibleArc(cx, cy, r, lineWidth(style)/2, dc.Width(), dc.Height())
	if !ok {
		return
	}
	if span.full {
		dc.DrawCircle(cx, cy, r)
		paint(dc, style)
		return
	}

	if c, ok := scene.ParseColor(style.Fill); ok && c.A > 0 {
		if covers {
			dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
		} else {
			dc.NewSubPath()
			dc.DrawArc(cx, cy, r, span.from, span.to)
			dc.DrawArc(cx, cy, span.inner, span.to, span.from)
			dc.ClosePath()
		}
		dc.SetColor(c)
		dc.Fill()
	}
	if covers {
		return
	}
	dc.NewSubPath()
	dc.DrawArc(cx, cy, r, span.from, span.to)
	strokeWith(dc, style)
}

func lineWidth(style scene.Style) float64 {
	if style.Width <= 0 {
		return 1
	}
	return style.Width
}

func strokeWith(dc *gg.Context, style scene.Style) {
	dc.SetLineWidth(lineWidth(style))
	dc.SetColor(scene.ResolveColor(style.Stroke, color.RGBA{A: 255}))
	dc.Stroke()
}

func fillWith(dc *gg.Context, c string) {
	dc.SetColor(scene.ResolveColor(c, color.RGBA{A: 255}))
	dc.Fill()
}
