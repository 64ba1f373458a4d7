package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Teaching metrics
	SessionsTotal       *prometheus.CounterVec
	SessionDuration     prometheus.Histogram
	SessionsActive      prometheus.Gauge
	InstructionsApplied *prometheus.CounterVec
	LinesDropped        prometheus.Counter

	// Collaborator metrics
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Scene metrics
	Primitives prometheus.Gauge
	Exports    prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
	stop      chan struct{}
	stopOnce  sync.Once

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	TotalSessions     int64   `json:"total_sessions"`
	FailedSessions    int64   `json:"failed_sessions"`
	Primitives        int64   `json:"primitives"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"total_duration"` // sum of all request durations
	RequestCount      int64   `json:"request_count"`  // count for averaging
}

// NewMetrics creates a metrics collector on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector on reg; tests pass a fresh registry
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		stop:      make(chan struct{}),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whiteboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whiteboard_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whiteboard_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Teaching metrics
		SessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_teaching_sessions_total",
				Help: "Teaching sessions by outcome",
			},
			[]string{"outcome"},
		),
		SessionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "whiteboard_teaching_session_duration_seconds",
				Help:    "Wall time of a teaching session from request to last step",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "whiteboard_teaching_sessions_active",
				Help: "1 while a teaching session is processing",
			},
		),
		InstructionsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_instructions_applied_total",
				Help: "Drawing instructions applied by the playback scheduler",
			},
			[]string{"tag"},
		),
		LinesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "whiteboard_protocol_lines_dropped_total",
				Help: "Malformed instruction lines skipped by the parser",
			},
		),

		// Collaborator metrics
		UpstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_upstream_calls_total",
				Help: "Calls to language model and speech providers",
			},
			[]string{"service", "status"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whiteboard_upstream_duration_seconds",
				Help:    "Upstream call duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service"},
		),

		// Scene metrics
		Primitives: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "whiteboard_scene_primitives",
				Help: "Number of primitives on the board",
			},
		),
		Exports: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "whiteboard_exports_total",
				Help: "Total number of PNG exports",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "whiteboard_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "whiteboard_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// Close stops the uptime updater
func (m *Metrics) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// updateUptime updates the uptime metric until Close
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordSession records a finished teaching session
func (m *Metrics) RecordSession(outcome string, duration time.Duration) {
	m.SessionsTotal.WithLabelValues(outcome).Inc()
	m.SessionDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalSessions++
	if outcome != "completed" {
		m.snapshot.FailedSessions++
	}
	m.mu.Unlock()
}

// SetSessionActive flips the active session gauge
func (m *Metrics) SetSessionActive(active bool) {
	if active {
		m.SessionsActive.Set(1)
		return
	}
	m.SessionsActive.Set(0)
}

// RecordInstruction records one applied drawing instruction
func (m *Metrics) RecordInstruction(tag string) {
	m.InstructionsApplied.WithLabelValues(tag).Inc()
}

// AddLinesDropped records malformed protocol lines
func (m *Metrics) AddLinesDropped(n int) {
	if n > 0 {
		m.LinesDropped.Add(float64(n))
	}
}

// RecordUpstreamCall records a call to an external provider
func (m *Metrics) RecordUpstreamCall(service, status string, duration time.Duration) {
	m.UpstreamCalls.WithLabelValues(service, status).Inc()
	m.UpstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// SetPrimitives sets the number of primitives on the board
func (m *Metrics) SetPrimitives(count int) {
	m.Primitives.Set(float64(count))
	m.mu.Lock()
	m.snapshot.Primitives = int64(count)
	m.mu.Unlock()
}

// IncExports increments the export counter
func (m *Metrics) IncExports() {
	m.Exports.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeDuration returns the time since the collector was created
func (m *Metrics) UptimeDuration() time.Duration {
	return time.Since(m.startTime)
}
