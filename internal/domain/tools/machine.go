package tools

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// State is the gesture the machine is tracking
type State string

const (
	StateIdle        State = "idle"
	StateDrawing     State = "drawing"
	StateInking      State = "inking"
	StateTextEditing State = "text_editing"
)

// Surface is the part of the scene the machine writes to
type Surface interface {
	Add(p scene.Primitive) id.PrimitiveID
	Update(pid id.PrimitiveID, fn func(scene.Primitive) error) error
	Remove(pid id.PrimitiveID) error
	Get(pid id.PrimitiveID) (scene.Primitive, bool)
	Clip(p scene.Point) scene.Point
	Background() string
}

// Lock reports whether pointer input must be refused
type Lock interface {
	Busy() bool
}

// Result describes the primitive a gesture touched
type Result struct {
	ID        id.PrimitiveID `json:"id,omitempty"`
	Kind      scene.Kind     `json:"kind,omitempty"`
	State     State          `json:"state"`
	Discarded bool           `json:"discarded,omitempty"`
}

// Machine turns pointer input into scene mutations for the active tool.
// Only the active tool's handler runs; changing tools mid-gesture commits
// the gesture first.
type Machine struct {
	mu      sync.Mutex
	surface Surface
	lock    Lock
	cfg     Config
	state   State
	active  id.PrimitiveID // Protected by mu
	kind    scene.Kind     // Protected by mu
	anchor  scene.Point    // Protected by mu

	observers []func(Config)
}

// NewMachine creates a machine with the default tool selection
func NewMachine(surface Surface) *Machine {
	return &Machine{
		surface: surface,
		cfg:     DefaultConfig(),
		state:   StateIdle,
	}
}

// WithLock refuses new gestures while lock is busy
func (m *Machine) WithLock(lock Lock) *Machine {
	m.lock = lock
	return m
}

// WithObserver is notified after every tool selection change
func (m *Machine) WithObserver(o func(Config)) *Machine {
	m.observers = append(m.observers, o)
	return m
}

// Config returns the current tool selection
func (m *Machine) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// State returns the current gesture state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetTool switches the active tool, committing any gesture in progress
func (m *Machine) SetTool(t Tool) error {
	if _, err := ParseTool(string(t)); err != nil {
		return err
	}

	m.mu.Lock()
	m.finishLocked()
	m.cfg.Tool = t
	cfg := m.cfg
	m.mu.Unlock()

	m.emit(cfg)
	return nil
}

// SetColor changes the brush color used by subsequent gestures
func (m *Machine) SetColor(c string) error {
	if err := ValidateColor(c); err != nil {
		return err
	}

	m.mu.Lock()
	m.cfg.Color = c
	cfg := m.cfg
	m.mu.Unlock()

	m.emit(cfg)
	return nil
}

// SetSize changes the brush size used by subsequent gestures
func (m *Machine) SetSize(size int) error {
	if err := ValidateSize(size); err != nil {
		return err
	}

	m.mu.Lock()
	m.cfg.Size = size
	cfg := m.cfg
	m.mu.Unlock()

	m.emit(cfg)
	return nil
}

// PointerDown starts a gesture for the active tool
func (m *Machine) PointerDown(p scene.Point) (Result, error) {
	if m.lock != nil && m.lock.Busy() {
		return Result{}, ErrToolsLocked
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A down without an up is treated as the end of the previous gesture
	m.finishLocked()

	width := float64(m.cfg.Size)
	switch m.cfg.Tool {
	case ToolPencil, ToolEraser:
		ink := m.cfg.Color
		if m.cfg.Tool == ToolEraser {
			ink = m.surface.Background()
			width *= 2
		}
		start := m.surface.Clip(p)
		m.begin(StateInking, scene.KindStroke, start, &scene.Stroke{
			Attrs:  m.userAttrs(start, scene.Style{Stroke: ink, Fill: scene.Transparent, Width: width}),
			Points: []scene.Point{start},
		})

	case ToolRectangle:
		m.begin(StateDrawing, scene.KindRectangle, p, &scene.Rectangle{
			Attrs: m.userAttrs(p, m.outline(width)),
		})

	case ToolCircle:
		m.begin(StateDrawing, scene.KindCircle, p, &scene.Circle{
			Attrs: m.userAttrs(p, m.outline(width)),
		})

	case ToolText:
		m.begin(StateTextEditing, scene.KindText, p, &scene.Text{
			Attrs:    m.userAttrs(p, scene.Style{Fill: m.cfg.Color}),
			Content:  Placeholder,
			FontSize: width * 3,
			Editable: true,
		})

	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidTool, m.cfg.Tool)
	}

	return m.resultLocked(), nil
}

// PointerMove extends the gesture in progress. Moves without a gesture are ignored.
func (m *Machine) PointerMove(p scene.Point) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.moveLocked(p); err != nil {
		return Result{}, err
	}
	return m.resultLocked(), nil
}

// PointerUp applies the final position and commits the gesture
func (m *Machine) PointerUp(p scene.Point) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateIdle {
		return m.resultLocked(), nil
	}
	if err := m.moveLocked(p); err != nil {
		return Result{}, err
	}
	res := m.resultLocked()
	res.Discarded = m.finishLocked()
	res.State = m.state
	return res, nil
}

// EditText replaces the content of a user text block
func (m *Machine) EditText(pid id.PrimitiveID, content string) error {
	return m.surface.Update(pid, func(p scene.Primitive) error {
		t, ok := p.(*scene.Text)
		if !ok || !t.Editable {
			return fmt.Errorf("%w: %s", ErrNotEditable, pid)
		}
		t.Content = content
		return nil
	})
}

// Reset forgets any gesture in progress without touching the scene.
// Used after the scene itself was cleared.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortLocked()
}

func (m *Machine) abortLocked() {
	m.state = StateIdle
	m.active = ""
	m.kind = ""
}

func (m *Machine) begin(state State, kind scene.Kind, anchor scene.Point, p scene.Primitive) {
	m.active = m.surface.Add(p)
	m.kind = kind
	m.anchor = anchor
	m.state = state
}

// moveLocked abandons the gesture if its primitive vanished, e.g. after a reset
func (m *Machine) moveLocked(p scene.Point) error {
	err := m.applyMoveLocked(p)
	if errors.Is(err, scene.ErrNotFound) {
		m.abortLocked()
		return nil
	}
	return err
}

func (m *Machine) applyMoveLocked(p scene.Point) error {
	switch m.state {
	case StateIdle, StateTextEditing:
		return nil

	case StateInking:
		pt := m.surface.Clip(p)
		return m.surface.Update(m.active, func(prim scene.Primitive) error {
			s := prim.(*scene.Stroke)
			s.Points = append(s.Points, pt)
			return nil
		})

	case StateDrawing:
		anchor := m.anchor
		return m.surface.Update(m.active, func(prim scene.Primitive) error {
			switch v := prim.(type) {
			case *scene.Rectangle:
				v.Origin = scene.Point{X: math.Min(anchor.X, p.X), Y: math.Min(anchor.Y, p.Y)}
				v.Width = math.Abs(p.X - anchor.X)
				v.Height = math.Abs(p.Y - anchor.Y)
			case *scene.Circle:
				v.Radius = floats.Distance([]float64{anchor.X, anchor.Y}, []float64{p.X, p.Y}, 2) / 2
			}
			return nil
		})
	}
	return nil
}

// finishLocked returns to Idle. Shapes that never grew are removed; it
// reports whether that happened.
func (m *Machine) finishLocked() bool {
	if m.state == StateIdle {
		return false
	}

	discarded := false
	if m.state == StateDrawing {
		if p, ok := m.surface.Get(m.active); ok && scene.Empty(p) {
			discarded = m.surface.Remove(m.active) == nil
		}
	}

	m.abortLocked()
	return discarded
}

func (m *Machine) resultLocked() Result {
	return Result{ID: m.active, Kind: m.kind, State: m.state}
}

func (m *Machine) userAttrs(origin scene.Point, style scene.Style) scene.Attrs {
	return scene.Attrs{
		Origin:     origin,
		Style:      style,
		Selectable: true,
		Author:     scene.AuthorUser,
	}
}

func (m *Machine) outline(width float64) scene.Style {
	return scene.Style{Stroke: m.cfg.Color, Fill: scene.Transparent, Width: width / 2}
}

func (m *Machine) emit(cfg Config) {
	for _, o := range m.observers {
		o(cfg)
	}
}
