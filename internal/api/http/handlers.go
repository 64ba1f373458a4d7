package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/board"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/resilience"
)

// Version of the service reported by Root
const Version = "1.0.0"

// verifyTimeout bounds credential checks made by Health
const verifyTimeout = 10 * time.Second

// Upstream is an external collaborator Health can report on
type Upstream interface {
	Verify(ctx context.Context) error
	BreakerStatus() resilience.Status
}

// Handlers contains all HTTP handlers
type Handlers struct {
	board     *board.Board
	upstreams map[string]Upstream
	metrics   *monitoring.Metrics
	logger    *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(b *board.Board) *Handlers {
	return &Handlers{
		board:     b,
		upstreams: make(map[string]Upstream),
		logger:    logging.NewNop(),
	}
}

// WithUpstream registers a collaborator for health reporting
func (h *Handlers) WithUpstream(name string, u Upstream) *Handlers {
	h.upstreams[name] = u
	return h
}

// WithMetrics adds the metrics snapshot to Health
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// WithLogger sets the handler logger
func (h *Handlers) WithLogger(l *logging.Logger) *Handlers {
	h.logger = l.Component("api")
	return h
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "AI Whiteboard",
		"version": Version,
	})
}

// Health handles detailed health check. With ?verify=true each upstream's
// credentials are checked with a live call.
func (h *Handlers) Health(c *gin.Context) {
	verify := c.Query("verify") == "true"

	upstreams := make(gin.H, len(h.upstreams))
	healthy := true
	for name, u := range h.upstreams {
		breaker := u.BreakerStatus()
		entry := gin.H{"breaker": breaker.State.String(), "counts": breaker.Counts}
		if verify {
			ctx, cancel := context.WithTimeout(c.Request.Context(), verifyTimeout)
			err := u.Verify(ctx)
			cancel()
			entry["verified"] = err == nil
			if err != nil {
				healthy = false
				entry["error"] = err.Error()
				h.logger.Warn("Upstream verification failed", zap.String("upstream", name), zap.Error(err))
			}
		}
		upstreams[name] = entry
	}

	status := h.board.Status()
	body := gin.H{
		"status":     "healthy",
		"configured": status.Configured,
		"processing": status.Session.IsProcessing,
		"primitives": status.Primitives,
		"sessions":   h.board.SessionStats(),
		"upstreams":  upstreams,
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
		body["uptime_seconds"] = h.metrics.UptimeDuration().Seconds()
	}

	code := http.StatusOK
	if !healthy {
		body["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}
