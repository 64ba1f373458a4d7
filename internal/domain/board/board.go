package board

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/export"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/protocol"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/session"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/tools"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/utils"
)

// Options configures a board
type Options struct {
	Width     int
	Height    int
	Theme     scene.Theme
	LockTools bool // refuse pointer input while a lesson is processing
	Pacing    teaching.Pacing
	Teaching  teaching.Options
	Recent    int // finished sessions kept for status
}

// DefaultOptions returns an 800x600 board with locked tools and default pacing
func DefaultOptions() Options {
	return Options{
		Width:     scene.DefaultWidth,
		Height:    scene.DefaultHeight,
		Theme:     scene.ThemeDefault,
		LockTools: true,
		Pacing:    teaching.DefaultPacing(),
		Teaching:  teaching.DefaultOptions(),
	}
}

// Collaborators are the external services a board talks to. Any may be nil:
// a nil Completer leaves teaching unconfigured, a nil Synthesizer disables
// narration.
type Collaborators struct {
	Completer   teaching.Completer
	Synthesizer teaching.Synthesizer
	Voice       teaching.Voice
	Player      teaching.Player
	Notifier    teaching.Notifier
}

// Status is the combined board state
type Status struct {
	Tool       tools.Config   `json:"tool"`
	State      tools.State    `json:"state"`
	Session    session.Status `json:"session"`
	Primitives int            `json:"primitives"`
	Theme      scene.Theme    `json:"theme"`
	Configured bool           `json:"configured"`
}

// Board owns one scene and every producer that writes to it: the tool
// machine for user input and the teaching service for AI playback.
type Board struct {
	scene     *scene.Scene
	machine   *tools.Machine
	guard     *session.Guard
	scheduler *teaching.Scheduler
	service   *teaching.Service
	exporter  *export.Exporter

	mu        sync.RWMutex
	listeners []Listener // Protected by mu

	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// New creates a board with an empty scene
func New(opts Options, collab Collaborators) (*Board, error) {
	if opts.Teaching.SystemPrompt == "" {
		w, h := opts.Width, opts.Height
		if w <= 0 {
			w = scene.DefaultWidth
		}
		if h <= 0 {
			h = scene.DefaultHeight
		}
		opts.Teaching.SystemPrompt = protocol.SystemPrompt(w, h)
	}

	exporter, err := export.NewExporter()
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	b := &Board{
		exporter: exporter,
		logger:   logging.NewNop(),
	}

	b.scene = scene.New(scene.Options{Width: opts.Width, Height: opts.Height, Theme: opts.Theme}).
		WithObserver(b.onSceneEvent)
	b.guard = session.NewGuard(opts.Recent).WithObserver(b.onSessionEvent)

	b.machine = tools.NewMachine(b.scene).WithObserver(b.onToolChange)
	if opts.LockTools {
		b.machine.WithLock(b.guard)
	}

	b.scheduler = teaching.NewScheduler(b.scene, opts.Pacing).WithSurface(b.scene.Bounds())
	if collab.Synthesizer != nil {
		b.scheduler.WithSpeech(collab.Synthesizer, collab.Voice, collab.Player)
	}
	b.service = teaching.NewService(collab.Completer, b.scheduler, b.guard, opts.Teaching)
	if collab.Notifier != nil {
		b.scheduler.WithNotifier(collab.Notifier)
		b.service.WithNotifier(collab.Notifier)
	}

	return b, nil
}

// WithMetrics adds metrics tracking to the board and its producers
func (b *Board) WithMetrics(metrics *monitoring.Metrics) *Board {
	b.metrics = metrics
	b.scheduler.WithMetrics(metrics)
	b.service.WithMetrics(metrics)
	b.exporter.WithMetrics(metrics)
	return b
}

// WithTracer traces teaching sessions
func (b *Board) WithTracer(t *tracing.Tracer) *Board {
	b.service.WithTracer(t)
	return b
}

// WithLogger sets the board logger
func (b *Board) WithLogger(l *logging.Logger) *Board {
	b.logger = l.Component("board")
	b.scheduler.WithLogger(l)
	b.service.WithLogger(l)
	return b
}

// Subscribe registers a listener for board events
func (b *Board) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// SetActiveTool selects the tool that interprets pointer input
func (b *Board) SetActiveTool(name string) error {
	t, err := tools.ParseTool(name)
	if err != nil {
		return err
	}
	return b.machine.SetTool(t)
}

// SetBrushColor sets the color of new user primitives
func (b *Board) SetBrushColor(color string) error {
	return b.machine.SetColor(color)
}

// SetBrushSize sets the stroke width of new user primitives
func (b *Board) SetBrushSize(size int) error {
	return b.machine.SetSize(size)
}

// SetTheme switches the palette and repaints the background
func (b *Board) SetTheme(name string) error {
	t, err := scene.ParseTheme(name)
	if err != nil {
		return err
	}
	b.scene.SetTheme(t)
	return nil
}

// Clear removes every primitive. It cannot be undone.
func (b *Board) Clear() {
	b.machine.Reset()
	b.scene.Reset()
	b.logger.Info("Board cleared")
}

// Export renders the board to PNG without changing it
func (b *Board) Export(ctx context.Context) (*export.Image, error) {
	return b.exporter.Export(ctx, b.scene)
}

// RequestAITeaching asks the model to teach prompt on this board
func (b *Board) RequestAITeaching(ctx context.Context, prompt string) (*teaching.Result, error) {
	return b.service.RequestTeaching(ctx, prompt)
}

// CancelTeaching stops the running lesson; it reports whether one was running
func (b *Board) CancelTeaching() bool {
	canceled := b.service.Cancel()
	if canceled {
		b.logger.Info("Teaching canceled")
	}
	return canceled
}

// PointerDown starts a gesture with the active tool
func (b *Board) PointerDown(p scene.Point) (tools.Result, error) {
	return b.machine.PointerDown(p)
}

// PointerMove extends the gesture in progress
func (b *Board) PointerMove(p scene.Point) (tools.Result, error) {
	return b.machine.PointerMove(p)
}

// PointerUp finishes the gesture in progress
func (b *Board) PointerUp(p scene.Point) (tools.Result, error) {
	return b.machine.PointerUp(p)
}

// EditText replaces the content of a user text block
func (b *Board) EditText(pid id.PrimitiveID, content string) error {
	if err := utils.ValidateText(content); err != nil {
		return err
	}
	return b.machine.EditText(pid, content)
}

// Snapshot returns a copy of the scene
func (b *Board) Snapshot() scene.Snapshot {
	return b.scene.Snapshot()
}

// Status returns the tool selection, session state and scene size
func (b *Board) Status() Status {
	return Status{
		Tool:       b.machine.Config(),
		State:      b.machine.State(),
		Session:    b.service.Status(),
		Primitives: b.scene.Len(),
		Theme:      b.scene.Theme(),
		Configured: b.service.Configured(),
	}
}

// Sessions returns recently finished lessons, newest first
func (b *Board) Sessions() []session.Session {
	return b.guard.Recent()
}

// SessionStats returns lesson counters
func (b *Board) SessionStats() session.Stats {
	return b.guard.Stats()
}

func (b *Board) onSceneEvent(ev scene.Event) {
	if b.metrics != nil {
		b.metrics.SetPrimitives(ev.Size)
	}
	b.publish(Event{Type: EventScene, Data: newSceneChange(ev)})
}

func (b *Board) onSessionEvent(ev session.Event) {
	b.logger.Debug("Session event",
		zap.String("type", string(ev.Type)),
		zap.String("session", ev.Session.ID.String()),
		zap.String("outcome", string(ev.Session.Outcome)))
	b.publish(Event{Type: EventSession, Data: ev})
}

func (b *Board) onToolChange(cfg tools.Config) {
	b.publish(Event{Type: EventTool, Data: cfg})
}

func (b *Board) publish(ev Event) {
	b.mu.RLock()
	listeners := b.listeners
	b.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}
