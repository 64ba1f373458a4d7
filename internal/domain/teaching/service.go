package teaching

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/protocol"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/session"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/utils"
)

// Options tunes the teaching service
type Options struct {
	Temperature  float64
	Timeout      time.Duration // bound on the model call
	SystemPrompt string
}

// DefaultOptions returns temperature 0.7, a 60s model timeout and the
// protocol prompt for the default surface size.
func DefaultOptions() Options {
	return Options{
		Temperature:  0.7,
		Timeout:      60 * time.Second,
		SystemPrompt: protocol.SystemPrompt(800, 600),
	}
}

// Result is the summary of a finished teaching request
type Result struct {
	Session session.Session `json:"session"`
	Stats   protocol.Stats  `json:"stats"`
	Report  Report          `json:"report"`
}

// Service runs teaching requests: model call, parse, playback, narration
type Service struct {
	completer Completer
	scheduler *Scheduler
	guard     *session.Guard
	notifier  Notifier
	opts      Options
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	logger    *logging.Logger
}

// NewService creates a teaching service. A nil completer means no model
// credentials are configured; every request then fails with KindConfiguration.
func NewService(completer Completer, scheduler *Scheduler, guard *session.Guard, opts Options) *Service {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultOptions().SystemPrompt
	}
	if guard == nil {
		guard = session.NewGuard(0)
	}
	return &Service{
		completer: completer,
		scheduler: scheduler,
		guard:     guard,
		opts:      opts,
		logger:    logging.NewNop(),
	}
}

// WithNotifier sets where outcomes are reported
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithMetrics adds metrics tracking to the service
func (s *Service) WithMetrics(metrics *monitoring.Metrics) *Service {
	s.metrics = metrics
	return s
}

// WithTracer records a span per session and per phase
func (s *Service) WithTracer(t *tracing.Tracer) *Service {
	s.tracer = t
	return s
}

// WithLogger sets the service logger
func (s *Service) WithLogger(l *logging.Logger) *Service {
	s.logger = l.Component("teaching")
	return s
}

// Configured reports whether model credentials are present
func (s *Service) Configured() bool {
	return s.completer != nil
}

// RequestTeaching asks the model to teach prompt and replays its reply on
// the board. Failures are returned as *Error and also sent to the notifier.
func (s *Service) RequestTeaching(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if err := utils.ValidatePrompt(prompt); err != nil {
		return nil, &Error{Kind: KindInvalid, Title: "Invalid Request", Message: err.Error(), Err: err}
	}
	if s.completer == nil {
		return nil, s.fail(configurationError())
	}
	if s.scheduler == nil || s.scheduler.canvas == nil {
		return nil, s.fail(resourceError())
	}

	sctx, sess, err := s.guard.Begin(ctx, prompt)
	if err != nil {
		return nil, busyError(err)
	}

	log := s.logger.With(zap.String("session", sess.ID.String()))
	log.Info("Teaching session started", zap.Int("prompt_length", len(prompt)))
	if s.metrics != nil {
		s.metrics.SetSessionActive(true)
	}

	span, sctx := s.startSpan(sctx, "teaching.session")
	if span != nil {
		span.SetTag("session", sess.ID.String())
	}

	result := &Result{Session: sess}
	outcome, cause := session.OutcomeFailed, error(nil)
	defer func() {
		if span != nil {
			span.SetTag("outcome", string(outcome))
		}
		s.endSpan(span, cause)
		s.guard.End(sess.ID, outcome, cause)
		if s.metrics != nil {
			s.metrics.SetSessionActive(false)
			s.metrics.RecordSession(string(outcome), time.Since(sess.StartedAt))
		}
	}()

	phase, pctx := s.startSpan(sctx, "teaching.complete")
	reply, err := s.complete(pctx, prompt)
	s.endSpan(phase, err)
	if err != nil {
		te := classify(sctx, err)
		outcome, cause = outcomeOf(te), te
		log.Error("Model call failed", zap.String("kind", string(te.Kind)), zap.String("code", te.Code), zap.Error(err))
		return result, s.fail(te)
	}

	script := protocol.Parse(reply)
	result.Stats = script.Stats
	if s.metrics != nil {
		s.metrics.AddLinesDropped(script.Stats.Dropped)
	}
	log.Info("Reply parsed",
		zap.Int("lines", script.Stats.Lines),
		zap.Int("instructions", script.Stats.Instructions),
		zap.Int("dropped", script.Stats.Dropped),
		zap.Int("narration_lines", script.Stats.NarrationLines))

	phase, pctx = s.startSpan(sctx, "teaching.playback")
	report, err := s.scheduler.play(pctx, sess.ID, script)
	s.endSpan(phase, err)
	result.Report = report
	if err != nil {
		te := classify(sctx, err)
		outcome, cause = outcomeOf(te), te
		log.Warn("Playback stopped", zap.String("kind", string(te.Kind)), zap.Int("applied", report.Applied), zap.Error(err))
		return result, s.fail(te)
	}

	outcome = session.OutcomeCompleted
	log.Info("Teaching session completed", zap.Int("applied", report.Applied), zap.Bool("spoken", report.Spoken))
	s.notify(Notification{
		Title:       "Success",
		Description: "AI response completed successfully!",
		Severity:    SeveritySuccess,
	})
	return result, nil
}

// Cancel stops the running session, if any
func (s *Service) Cancel() bool {
	return s.guard.Cancel()
}

// Status returns the guard state
func (s *Service) Status() session.Status {
	return s.guard.Status()
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	messages := []Message{
		{Role: RoleSystem, Content: s.opts.SystemPrompt},
		{Role: RoleUser, Content: prompt},
	}

	timer := monitoring.NewTimer(s.metrics, "llm")
	reply, err := s.completer.Complete(ctx, messages, s.opts.Temperature)
	timer.Stop(monitoring.Status(err))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("language model returned an empty reply")
	}
	return reply, nil
}

func (s *Service) startSpan(ctx context.Context, name string) (*tracing.Span, context.Context) {
	if s.tracer == nil {
		return nil, ctx
	}
	return s.tracer.StartSpan(ctx, name)
}

func (s *Service) endSpan(span *tracing.Span, err error) {
	if span != nil {
		s.tracer.End(span, err)
	}
}

// fail notifies the user of te and returns it. Canceled sessions are
// reported as information since the user asked for them.
func (s *Service) fail(te *Error) *Error {
	n := te.Notification()
	if te.Kind == KindCanceled {
		n.Severity = SeverityInfo
	}
	s.notify(n)
	return te
}

func (s *Service) notify(n Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
