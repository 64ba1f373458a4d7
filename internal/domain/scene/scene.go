package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

var (
	ErrNotFound    = errors.New("primitive not found")
	ErrKindChanged = errors.New("update changed primitive kind")
)

// Default surface bounds, matching the coordinate range the AI is told to use
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// EventType names a scene change
type EventType string

const (
	EventPrimitiveAdded   EventType = "primitive_added"
	EventPrimitiveUpdated EventType = "primitive_updated"
	EventPrimitiveRemoved EventType = "primitive_removed"
	EventCleared          EventType = "scene_cleared"
	EventBackground       EventType = "background_changed"
)

// Event describes one committed scene change
type Event struct {
	Type       EventType
	Primitive  Primitive // copy; nil for cleared/background events
	RemovedID  id.PrimitiveID
	Background string
	Version    uint64
	Size       int
}

// Observer receives scene events after the change is committed.
// It runs outside the scene lock and may read the scene.
type Observer func(Event)

// Options configures a new scene
type Options struct {
	Width  int
	Height int
	Theme  Theme
}

// Snapshot is an immutable copy of the scene
type Snapshot struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Background string      `json:"background"`
	Theme      Theme       `json:"theme"`
	Version    uint64      `json:"version"`
	Primitives []Primitive `json:"primitives"`
}

// Scene is the shared, mutable set of drawing primitives.
// Both the tool machine and the playback scheduler write to it.
type Scene struct {
	mu         sync.RWMutex
	width      int
	height     int
	theme      Theme
	background string
	order      []id.PrimitiveID             // Protected by mu
	items      map[id.PrimitiveID]Primitive // Protected by mu
	version    uint64                       // Protected by mu
	observers  []Observer
}

// New creates an empty scene
func New(opts Options) *Scene {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Theme == "" {
		opts.Theme = ThemeDefault
	}
	return &Scene{
		width:      opts.Width,
		height:     opts.Height,
		theme:      opts.Theme,
		background: opts.Theme.Background(),
		items:      make(map[id.PrimitiveID]Primitive),
	}
}

// WithObserver registers an observer; call before the scene is shared
func (s *Scene) WithObserver(o Observer) *Scene {
	s.observers = append(s.observers, o)
	return s
}

// Bounds returns the surface size
func (s *Scene) Bounds() (width, height int) {
	return s.width, s.height
}

// Clip clamps a point to the surface bounds
func (s *Scene) Clip(p Point) Point {
	return Point{
		X: clamp(p.X, 0, float64(s.width)),
		Y: clamp(p.Y, 0, float64(s.height)),
	}
}

// Add stores a primitive, assigning an ID when it has none
func (s *Scene) Add(p Primitive) id.PrimitiveID {
	a := p.attrs()
	if a.ID == "" {
		a.ID = id.NewPrimitiveID()
	}

	s.mu.Lock()
	stored := p.clone()
	s.items[a.ID] = stored
	s.order = append(s.order, a.ID)
	ev := s.eventLocked(EventPrimitiveAdded)
	ev.Primitive = stored.clone()
	s.mu.Unlock()

	s.emit(ev)
	return a.ID
}

// Update applies fn to a copy of the primitive and commits the result.
// fn must not change the primitive's ID or kind.
func (s *Scene) Update(pid id.PrimitiveID, fn func(Primitive) error) error {
	s.mu.Lock()
	cur, ok := s.items[pid]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, pid)
	}

	next := cur.clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if next.Kind() != cur.Kind() {
		s.mu.Unlock()
		return ErrKindChanged
	}
	next.attrs().ID = pid

	s.items[pid] = next
	ev := s.eventLocked(EventPrimitiveUpdated)
	ev.Primitive = next.clone()
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// Remove deletes a single primitive
func (s *Scene) Remove(pid id.PrimitiveID) error {
	s.mu.Lock()
	if _, ok := s.items[pid]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, pid)
	}
	delete(s.items, pid)
	for i, v := range s.order {
		if v == pid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	ev := s.eventLocked(EventPrimitiveRemoved)
	ev.RemovedID = pid
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// Get returns a copy of a primitive
func (s *Scene) Get(pid id.PrimitiveID) (Primitive, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[pid]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Len returns the number of primitives
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Background returns the current surface color
func (s *Scene) Background() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// Theme returns the active theme
func (s *Scene) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme switches the palette and repaints the background
func (s *Scene) SetTheme(t Theme) {
	s.mu.Lock()
	s.theme = t
	s.background = t.Background()
	ev := s.eventLocked(EventBackground)
	s.mu.Unlock()

	s.emit(ev)
}

// Reset removes every primitive and restores the theme background.
// It cannot be undone.
func (s *Scene) Reset() {
	s.mu.Lock()
	s.items = make(map[id.PrimitiveID]Primitive)
	s.order = nil
	s.background = s.theme.Background()
	ev := s.eventLocked(EventCleared)
	s.mu.Unlock()

	s.emit(ev)
}

// Snapshot returns a deep copy of the scene in paint order
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prims := make([]Primitive, 0, len(s.order))
	for _, pid := range s.order {
		prims = append(prims, s.items[pid].clone())
	}
	return Snapshot{
		Width:      s.width,
		Height:     s.height,
		Background: s.background,
		Theme:      s.theme,
		Version:    s.version,
		Primitives: prims,
	}
}

// eventLocked bumps the version; caller holds mu
func (s *Scene) eventLocked(t EventType) Event {
	s.version++
	return Event{
		Type:       t,
		Background: s.background,
		Version:    s.version,
		Size:       len(s.order),
	}
}

func (s *Scene) emit(ev Event) {
	for _, o := range s.observers {
		o(ev)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
