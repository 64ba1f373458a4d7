package teaching

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/protocol"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/session"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// AI shapes are outlines of fixed width
const aiStrokeWidth = 2

// Limits applied to model instructions. Coordinates and extents may reach
// boundsFactor times the surface size.
const (
	minTextSize  = 8
	maxTextSize  = scene.MaxFontSize
	boundsFactor = 10
)

// Canvas receives the primitives produced by playback
type Canvas interface {
	Add(p scene.Primitive) id.PrimitiveID
}

// Pacing holds the pause after each kind of instruction
type Pacing struct {
	Text  time.Duration
	Shape time.Duration
}

// DefaultPacing pauses 1s after text and 800ms after shapes
func DefaultPacing() Pacing {
	return Pacing{Text: time.Second, Shape: 800 * time.Millisecond}
}

// Report summarizes one playback
type Report struct {
	Applied    int              `json:"applied"`
	Primitives []id.PrimitiveID `json:"primitives"`
	Spoken     bool             `json:"spoken"`
	SpeechErr  string           `json:"speech_error,omitempty"`
}

// Scheduler replays parsed instructions onto a canvas with pauses between
// steps, then hands the narration to the synthesizer.
type Scheduler struct {
	canvas   Canvas
	pacing   Pacing
	width    int
	height   int
	synth    Synthesizer
	voice    Voice
	player   Player
	notifier Notifier
	guard    *session.Guard
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewScheduler creates a scheduler without speech
func NewScheduler(canvas Canvas, pacing Pacing) *Scheduler {
	return &Scheduler{
		canvas: canvas,
		pacing: pacing,
		width:  scene.DefaultWidth,
		height: scene.DefaultHeight,
		logger: logging.NewNop(),
	}
}

// WithSurface sets the surface size instructions are clamped against
func (s *Scheduler) WithSurface(width, height int) *Scheduler {
	if width > 0 && height > 0 {
		s.width, s.height = width, height
	}
	return s
}

// WithSpeech enables narration through synth and player
func (s *Scheduler) WithSpeech(synth Synthesizer, voice Voice, player Player) *Scheduler {
	s.synth = synth
	s.voice = voice
	s.player = player
	return s
}

// WithNotifier reports speech failures to the user
func (s *Scheduler) WithNotifier(n Notifier) *Scheduler {
	s.notifier = n
	return s
}

// WithGuard makes Play claim the guard for its duration
func (s *Scheduler) WithGuard(g *session.Guard) *Scheduler {
	s.guard = g
	return s
}

// WithMetrics adds metrics tracking to the scheduler
func (s *Scheduler) WithMetrics(metrics *monitoring.Metrics) *Scheduler {
	s.metrics = metrics
	return s
}

// WithLogger sets the scheduler logger
func (s *Scheduler) WithLogger(l *logging.Logger) *Scheduler {
	s.logger = l.Component("playback")
	return s
}

// Play replays a script as its own session. It fails with KindBusy while
// another session holds the guard.
func (s *Scheduler) Play(ctx context.Context, script protocol.Script) (Report, error) {
	if s.guard == nil {
		return s.play(ctx, "", script)
	}

	sctx, sess, err := s.guard.Begin(ctx, "")
	if err != nil {
		return Report{}, busyError(err)
	}

	outcome, cause := session.OutcomeFailed, error(nil)
	defer func() {
		s.guard.End(sess.ID, outcome, cause)
	}()

	report, err := s.play(sctx, sess.ID, script)
	outcome, cause = outcomeOf(err), err
	return report, err
}

// play applies every instruction in order, pausing after each, then speaks.
// Drawing already applied is kept when ctx is canceled or a step fails.
func (s *Scheduler) play(ctx context.Context, sid id.SessionID, script protocol.Script) (Report, error) {
	var report Report
	if s.canvas == nil {
		return report, resourceError()
	}

	s.setPhase(sid, session.PhaseDrawing)
	for _, instr := range script.Instructions {
		if err := ctx.Err(); err != nil {
			return report, canceledError(err)
		}

		pid, err := s.apply(instr)
		if err != nil {
			return report, &Error{Kind: KindInternal, Title: "Error", Message: err.Error(), Err: err}
		}
		report.Applied++
		report.Primitives = append(report.Primitives, pid)
		if s.guard != nil && sid != "" {
			s.guard.AddInstructions(sid, 1)
		}
		if s.metrics != nil {
			s.metrics.RecordInstruction(string(instr.Tag()))
		}

		if err := wait(ctx, s.pause(instr)); err != nil {
			return report, canceledError(err)
		}
	}

	if script.Narration == "" || s.synth == nil {
		return report, nil
	}

	s.setPhase(sid, session.PhaseSpeaking)
	timer := monitoring.NewTimer(s.metrics, "speech")
	audio, err := s.synth.Synthesize(ctx, script.Narration, s.voice)
	timer.Stop(monitoring.Status(err))
	if err != nil {
		if ctx.Err() != nil {
			return report, canceledError(ctx.Err())
		}
		// Drawing is complete; a speech failure is reported but not fatal
		classified := classify(ctx, err)
		report.SpeechErr = classified.Message
		s.logger.Warn("Speech synthesis failed", zap.String("session", sid.String()), zap.Error(err))
		if s.notifier != nil {
			n := classified.Notification()
			n.Title = "Speech Unavailable"
			s.notifier.Notify(n)
		}
		return report, nil
	}

	if s.player != nil && len(audio) > 0 {
		s.player.Play(audio)
		report.Spoken = true
	}
	return report, nil
}

// apply converts one instruction into an AI-authored primitive, clamping
// sizes and coordinates to the surface bounds
func (s *Scheduler) apply(instr protocol.Instruction) (id.PrimitiveID, error) {
	var p scene.Primitive
	switch v := instr.(type) {
	case protocol.DrawText:
		p = &scene.Text{
			Attrs:    s.aiAttrs(v.X, v.Y, scene.Style{Fill: ink(v.Color)}),
			Content:  v.Text,
			FontSize: float64(clamp(v.Size, minTextSize, maxTextSize)),
		}
	case protocol.DrawRectangle:
		p = &scene.Rectangle{
			Attrs:  s.aiAttrs(v.X, v.Y, outline(v.Color)),
			Width:  s.extent(v.W),
			Height: s.extent(v.H),
		}
	case protocol.DrawCircle:
		p = &scene.Circle{
			Attrs:  s.aiAttrs(v.X, v.Y, outline(v.Color)),
			Radius: s.extent(v.R),
		}
	case protocol.DrawLine:
		p = &scene.Line{
			Attrs: s.aiAttrs(v.X1, v.Y1, outline(v.Color)),
			End:   s.point(v.X2, v.Y2),
		}
	default:
		return "", fmt.Errorf("unknown instruction type %T", instr)
	}
	return s.canvas.Add(p), nil
}

func (s *Scheduler) pause(instr protocol.Instruction) time.Duration {
	if instr.Tag() == protocol.TagText {
		return s.pacing.Text
	}
	return s.pacing.Shape
}

func (s *Scheduler) setPhase(sid id.SessionID, phase session.Phase) {
	if s.guard != nil && sid != "" {
		s.guard.SetPhase(sid, phase)
	}
}

// wait sleeps for d unless ctx ends first
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) aiAttrs(x, y int, style scene.Style) scene.Attrs {
	return scene.Attrs{
		Origin:     s.point(x, y),
		Style:      style,
		Selectable: false,
		Author:     scene.AuthorAI,
	}
}

func (s *Scheduler) point(x, y int) scene.Point {
	xl, yl := boundsFactor*s.width, boundsFactor*s.height
	return scene.Point{X: float64(clamp(x, -xl, xl)), Y: float64(clamp(y, -yl, yl))}
}

func (s *Scheduler) extent(v int) float64 {
	return float64(clamp(v, 0, boundsFactor*max(s.width, s.height)))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func outline(color string) scene.Style {
	return scene.Style{Stroke: ink(color), Fill: scene.Transparent, Width: aiStrokeWidth}
}

func ink(color string) string {
	if color == "" {
		return scene.DefaultInk
	}
	return color
}

func outcomeOf(err error) session.Outcome {
	switch {
	case err == nil:
		return session.OutcomeCompleted
	case KindOf(err) == KindCanceled:
		return session.OutcomeCanceled
	default:
		return session.OutcomeFailed
	}
}
