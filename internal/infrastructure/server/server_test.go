package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Playback.TextDelay = 0
	cfg.Playback.ShapeDelay = 0
	if mutate != nil {
		mutate(cfg)
	}

	reg := prometheus.NewRegistry()
	srv, err := newServer(cfg, monitoring.NewMetricsWith(reg), reg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		require.NoError(t, srv.Shutdown(context.Background()))
	})
	return srv, ts
}

func get(t *testing.T, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest("GET", url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerWithoutCredentials(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp := get(t, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.False(t, srv.Board().Status().Configured)

	post, err := http.Post(ts.URL+"/teach", "application/json", strings.NewReader(`{"prompt":"Explain gravity"}`))
	require.NoError(t, err)
	defer post.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, post.StatusCode)
}

func TestServerWiresProviders(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.LLM.OpenAIKey = "sk-test"
		cfg.LLM.OpenAIURL = "http://127.0.0.1:1"
		cfg.Speech.APIKey = "xi-test"
	})
	assert.True(t, srv.Board().Status().Configured)

	srv, _ = newTestServer(t, func(cfg *config.Config) {
		cfg.LLM.Provider = "gemini"
		cfg.LLM.GeminiKey = "g-test"
		cfg.Speech.Enabled = false
	})
	assert.True(t, srv.Board().Status().Configured)
}

func TestServerRejectsBadTheme(t *testing.T) {
	cfg := config.Default()
	cfg.Surface.Theme = "neon"
	reg := prometheus.NewRegistry()
	_, err := newServer(cfg, monitoring.NewMetricsWith(reg), reg)
	assert.Error(t, err)
}

func TestMetricsAreCompressed(t *testing.T) {
	_, ts := newTestServer(t, nil)
	get(t, ts.URL+"/board", nil)

	resp := get(t, ts.URL+"/metrics", http.Header{"Accept-Encoding": {"gzip"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestStreamUpgradeBypassesCompression(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + streamPath
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Accept-Encoding": {"gzip"}})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"system"`)

	require.NoError(t, srv.Board().SetActiveTool("circle"))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"tool"`)
}

func TestServerGlobalRateLimit(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.GlobalRequestsPerSecond = 1
		cfg.RateLimit.GlobalBurst = 1
	})

	assert.Equal(t, http.StatusOK, get(t, ts.URL+"/health", nil).StatusCode)
	resp := get(t, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestServerRejectsForeignStreamOrigin(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.AllowOrigins = []string{"http://whiteboard.test"}
	})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + streamPath
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServerReportsGeminiUpstream(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.LLM.Provider = "gemini"
		cfg.LLM.GeminiKey = "g-test"
		cfg.Speech.Enabled = false
	})

	resp := get(t, ts.URL+"/health", nil)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"gemini"`)
	assert.Contains(t, string(body), `"breaker":"closed"`)
}
