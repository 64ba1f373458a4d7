package server

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/api/http"
	"github.com/GriffinCanCode/whiteboard/backend/internal/api/middleware"
	"github.com/GriffinCanCode/whiteboard/backend/internal/api/ws"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/board"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/whiteboard/backend/internal/integrations/elevenlabs"
	"github.com/GriffinCanCode/whiteboard/backend/internal/integrations/gemini"
	"github.com/GriffinCanCode/whiteboard/backend/internal/integrations/openai"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/utils"
)

// streamPath is served without compression; WebSocket upgrades need the
// raw connection.
const streamPath = "/stream"

// Server wraps the HTTP server and dependencies
type Server struct {
	httpServer *nethttp.Server
	board      *board.Board
	hub        *ws.Hub
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// NewServer creates a new server instance registered with the default
// Prometheus registry
func NewServer(cfg *config.Config) (*Server, error) {
	return newServer(cfg, monitoring.NewMetrics(), prometheus.DefaultGatherer)
}

func newServer(cfg *config.Config, metrics *monitoring.Metrics, gatherer prometheus.Gatherer) (*Server, error) {
	logger, err := logging.New(logging.ConfigFor(cfg.Logging.Level, cfg.Logging.Development))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing whiteboard server",
		zap.String("addr", cfg.Address()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("speech", cfg.Speech.Enabled),
	)

	hub := ws.NewHub().WithMetrics(metrics).WithLogger(logger)
	upstreams := make(map[string]http.Upstream)

	completer, err := newCompleter(cfg, metrics, logger, upstreams)
	if err != nil {
		return nil, err
	}
	collab := board.Collaborators{
		Completer: completer,
		Player:    hub,
		Notifier:  hub,
	}
	if err := addSpeech(cfg, metrics, logger, upstreams, &collab); err != nil {
		return nil, err
	}

	opts, err := boardOptions(cfg)
	if err != nil {
		return nil, err
	}
	b, err := board.New(opts, collab)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	tracer := tracing.New("whiteboard", logger)
	b.WithMetrics(metrics).WithTracer(tracer).WithLogger(logger)
	b.Subscribe(hub.Publish)

	handlers := http.NewHandlers(b).WithMetrics(metrics).WithLogger(logger)
	for name, u := range upstreams {
		handlers.WithUpstream(name, u)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.BodyLimit(utils.MaxRequestSize))
	router.Use(middleware.Logger(logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.AllowOrigins)))
	if cfg.RateLimit.GlobalRequestsPerSecond > 0 {
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.GlobalRequestsPerSecond,
			Burst:             cfg.RateLimit.GlobalBurst,
		}))
	}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers.Register(router)
	router.GET(streamPath, ws.NewHandler(hub, b).WithOrigins(cfg.Server.AllowOrigins).HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		httpServer: &nethttp.Server{
			Addr:              cfg.Address(),
			Handler:           compress(router),
			ReadHeaderTimeout: 10 * time.Second,
		},
		board:   b,
		hub:     hub,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() nethttp.Handler {
	return s.httpServer.Handler
}

// Board returns the served board
func (s *Server) Board() *board.Board {
	return s.board
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, cancels any running lesson and waits
// for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if s.board.CancelTeaching() {
		s.logger.Info("Canceled running lesson")
	}
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Failed to shut down cleanly", zap.Error(err))
		err = fmt.Errorf("failed to shut down: %w", err)
	}

	s.tracer.Close()
	s.metrics.Close()
	_ = s.logger.Sync()
	return err
}

// compress gzips REST responses and leaves the event stream untouched
func compress(h nethttp.Handler) nethttp.Handler {
	gz := gzhttp.GzipHandler(h)
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == streamPath {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

func boardOptions(cfg *config.Config) (board.Options, error) {
	theme, err := scene.ParseTheme(cfg.Surface.Theme)
	if err != nil {
		return board.Options{}, fmt.Errorf("invalid config: %w", err)
	}

	opts := board.DefaultOptions()
	opts.Width = cfg.Surface.Width
	opts.Height = cfg.Surface.Height
	opts.Theme = theme
	opts.LockTools = cfg.Playback.LockTools
	opts.Pacing = teaching.Pacing{
		Text:  cfg.Playback.TextDelay.Std(),
		Shape: cfg.Playback.ShapeDelay.Std(),
	}
	opts.Teaching.Temperature = cfg.LLM.Temperature
	opts.Teaching.Timeout = cfg.LLM.Timeout.Std()
	// Rebuilt for the configured surface size
	opts.Teaching.SystemPrompt = ""
	return opts, nil
}

// newCompleter returns nil when the selected provider has no key; lessons
// then fail with a setup notification instead of the server refusing to start.
func newCompleter(cfg *config.Config, metrics *monitoring.Metrics, logger *logging.Logger, upstreams map[string]http.Upstream) (teaching.Completer, error) {
	if cfg.LLMKey() == "" {
		logger.Warn("No language model API key configured; teaching is disabled",
			zap.String("provider", cfg.LLM.Provider))
		return nil, nil
	}

	switch cfg.LLM.Provider {
	case "gemini":
		client, err := gemini.New(gemini.Config{
			APIKey:    cfg.LLM.GeminiKey,
			Model:     cfg.LLM.GeminiModel,
			MaxTokens: cfg.LLM.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		upstreams["gemini"] = client
		logger.Info("Language model configured", zap.String("provider", "gemini"), zap.String("model", client.Model()))
		return client.WithMetrics(metrics).WithLogger(logger), nil

	default:
		client, err := openai.New(openai.Config{
			APIKey:    cfg.LLM.OpenAIKey,
			Model:     cfg.LLM.OpenAIModel,
			BaseURL:   cfg.LLM.OpenAIURL,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout.Std(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		client.WithMetrics(metrics).WithLogger(logger)
		upstreams["openai"] = client
		logger.Info("Language model configured", zap.String("provider", "openai"), zap.String("model", client.Model()))
		return client, nil
	}
}

func addSpeech(cfg *config.Config, metrics *monitoring.Metrics, logger *logging.Logger, upstreams map[string]http.Upstream, collab *board.Collaborators) error {
	if !cfg.Speech.Enabled {
		return nil
	}
	if cfg.Speech.APIKey == "" {
		logger.Warn("No speech API key configured; narration is disabled")
		return nil
	}

	client, err := elevenlabs.New(elevenlabs.Config{
		APIKey:  cfg.Speech.APIKey,
		BaseURL: cfg.Speech.BaseURL,
		Timeout: cfg.Speech.Timeout.Std(),
	})
	if err != nil {
		return fmt.Errorf("failed to create elevenlabs client: %w", err)
	}
	client.WithMetrics(metrics).WithLogger(logger)
	upstreams["elevenlabs"] = client

	voice := elevenlabs.DefaultVoice()
	if cfg.Speech.VoiceID != "" {
		voice.ID = cfg.Speech.VoiceID
	}
	if cfg.Speech.ModelID != "" {
		voice.Model = cfg.Speech.ModelID
	}
	collab.Synthesizer = client
	collab.Voice = voice
	logger.Info("Narration configured", zap.String("voice", voice.ID))
	return nil
}
