package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/board"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// MockCompleter is a mock implementation of teaching.Completer for testing.
type MockCompleter struct {
	mock.Mock
}

// Complete mocks the Complete method.
func (m *MockCompleter) Complete(ctx context.Context, messages []teaching.Message, temperature float64) (string, error) {
	args := m.Called(ctx, messages, temperature)
	return args.String(0), args.Error(1)
}

// MockUpstream is a mock implementation of Upstream for testing.
type MockUpstream struct {
	mock.Mock
}

// Verify mocks the Verify method.
func (m *MockUpstream) Verify(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// BreakerStatus mocks the BreakerStatus method.
func (m *MockUpstream) BreakerStatus() resilience.Status {
	return m.Called().Get(0).(resilience.Status)
}

func newTestRouter(t *testing.T, completer teaching.Completer) (*gin.Engine, *board.Board, *Handlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	opts := board.DefaultOptions()
	opts.Pacing = teaching.Pacing{}
	collab := board.Collaborators{}
	if completer != nil {
		collab.Completer = completer
	}
	b, err := board.New(opts, collab)
	require.NoError(t, err)

	h := NewHandlers(b)
	router := gin.New()
	h.Register(router)
	return router, b, h
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRoot(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	w := do(router, "GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decode(t, w)["status"])
}

func TestHealth(t *testing.T) {
	router, _, h := newTestRouter(t, nil)
	good := new(MockUpstream)
	good.On("BreakerStatus").Return(resilience.Status{
		Name:   "openai",
		State:  resilience.StateClosed,
		Counts: resilience.Counts{Requests: 3, TotalSuccesses: 2, TotalFailures: 1},
	})
	good.On("Verify", mock.Anything).Return(nil)
	h.WithUpstream("openai", good)

	w := do(router, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["configured"])
	openai := body["upstreams"].(map[string]any)["openai"].(map[string]any)
	assert.Equal(t, "closed", openai["breaker"])
	assert.Equal(t, float64(3), openai["counts"].(map[string]any)["requests"])
	assert.Equal(t, float64(1), openai["counts"].(map[string]any)["total_failures"])
	good.AssertNotCalled(t, "Verify", mock.Anything)

	bad := new(MockUpstream)
	bad.On("BreakerStatus").Return(resilience.Status{Name: "elevenlabs", State: resilience.StateOpen})
	bad.On("Verify", mock.Anything).Return(errors.New("invalid key"))
	h.WithUpstream("elevenlabs", bad)

	w = do(router, "GET", "/health?verify=true", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode(t, w)["status"])
	good.AssertCalled(t, "Verify", mock.Anything)
}

func TestDrawRectangleOverHTTP(t *testing.T) {
	router, b, _ := newTestRouter(t, nil)

	require.Equal(t, http.StatusOK, do(router, "POST", "/board/tool", `{"tool":"rectangle"}`).Code)
	require.Equal(t, http.StatusOK, do(router, "POST", "/board/brush/color", `{"color":"red"}`).Code)
	require.Equal(t, http.StatusOK, do(router, "POST", "/board/brush/size", `{"size":8}`).Code)

	require.Equal(t, http.StatusOK, do(router, "POST", "/board/pointer/down", `{"x":10,"y":10}`).Code)
	require.Equal(t, http.StatusOK, do(router, "POST", "/board/pointer/move", `{"x":60,"y":40}`).Code)
	w := do(router, "POST", "/board/pointer/up", `{"x":60,"y":40}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rectangle", decode(t, w)["kind"])

	assert.Equal(t, 1, b.Status().Primitives)
	assert.Equal(t, 8, b.Status().Tool.Size)

	w = do(router, "GET", "/board", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rectangle"`)
}

func TestBoardValidationErrors(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown tool", "POST", "/board/tool", `{"tool":"spray"}`, http.StatusBadRequest},
		{"missing tool", "POST", "/board/tool", `{}`, http.StatusBadRequest},
		{"size out of range", "POST", "/board/brush/size", `{"size":99}`, http.StatusBadRequest},
		{"bad color", "POST", "/board/brush/color", `{"color":"notacolor"}`, http.StatusBadRequest},
		{"unknown theme", "POST", "/board/theme", `{"theme":"neon"}`, http.StatusBadRequest},
		{"malformed point", "POST", "/board/pointer/down", `{"x":`, http.StatusBadRequest},
		{"bad id", "PUT", "/board/text/bad%20id", `{"content":"x"}`, http.StatusBadRequest},
		{"foreign id", "PUT", "/board/text/prim_missing", `{"content":"x"}`, http.StatusBadRequest},
		{"unknown id", "PUT", "/board/text/" + id.NewPrimitiveID().String(), `{"content":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(router, tt.method, tt.path, tt.body).Code)
		})
	}
}

func TestEditText(t *testing.T) {
	router, b, _ := newTestRouter(t, nil)
	require.NoError(t, b.SetActiveTool("text"))

	w := do(router, "POST", "/board/pointer/down", `{"x":100,"y":100}`)
	require.Equal(t, http.StatusOK, w.Code)
	pid := decode(t, w)["id"].(string)

	w = do(router, "PUT", "/board/text/"+pid, `{"content":"x<y and y>z"}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := decode(t, do(router, "GET", "/board", ""))["scene"].(map[string]any)
	prims := snap["primitives"].([]any)
	require.Len(t, prims, 1)
	assert.Equal(t, "x<y and y>z", prims[0].(map[string]any)["content"])
}

func TestClearRequiresConfirmation(t *testing.T) {
	router, b, _ := newTestRouter(t, nil)
	do(router, "POST", "/board/pointer/down", `{"x":1,"y":1}`)
	do(router, "POST", "/board/pointer/up", `{"x":1,"y":1}`)
	require.Equal(t, 1, b.Status().Primitives)

	assert.Equal(t, http.StatusPreconditionRequired, do(router, "POST", "/board/clear", "").Code)
	assert.Equal(t, 1, b.Status().Primitives)

	assert.Equal(t, http.StatusOK, do(router, "POST", "/board/clear?confirm=true", "").Code)
	assert.Equal(t, 0, b.Status().Primitives)
}

func TestExport(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	w := do(router, "GET", "/board/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="whiteboard-\d+\.png"$`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestTeach(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("Circles are round.\nDRAW_CIRCLE: 300,200,50 COLOR green", nil).Once()
	router, b, _ := newTestRouter(t, completer)

	w := do(router, "POST", "/teach", `{"prompt":"Explain circles"}`)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode(t, w)["report"].(map[string]any)
	assert.Equal(t, 1.0, report["applied"])
	assert.Equal(t, 1, b.Status().Primitives)

	w = do(router, "GET", "/teach/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sessions"], 1)
}

func TestTeachErrors(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	w := do(router, "POST", "/teach", `{"prompt":"Explain circles"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, string(teaching.KindConfiguration), decode(t, w)["kind"])

	completer := new(MockCompleter)
	router, _, _ = newTestRouter(t, completer)
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/teach", `{"prompt":"   "}`).Code)

	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", &teaching.APIError{Provider: "openai", Status: 401, Code: "invalid_api_key", Message: "bad key"}).Once()
	w = do(router, "POST", "/teach", `{"prompt":"Explain circles"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, teaching.CodeInvalidAPIKey, decode(t, w)["code"])
}

func TestTeachBusyAndCancel(t *testing.T) {
	completer := new(MockCompleter)
	entered := make(chan struct{})
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(entered)
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.Canceled).Once()
	router, _, _ := newTestRouter(t, completer)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- do(router, "POST", "/teach", `{"prompt":"Explain gravity"}`) }()
	<-entered

	w := do(router, "GET", "/teach/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["session"].(map[string]any)["is_processing"])

	assert.Equal(t, http.StatusConflict, do(router, "POST", "/teach", `{"prompt":"Another"}`).Code)
	assert.Equal(t, http.StatusLocked, do(router, "POST", "/board/pointer/down", `{"x":1,"y":1}`).Code)

	w = do(router, "POST", "/teach/cancel", "")
	assert.Equal(t, true, decode(t, w)["canceled"])

	select {
	case w := <-first:
		assert.Equal(t, statusClientClosed, w.Code)
		assert.Equal(t, string(teaching.KindCanceled), decode(t, w)["kind"])
	case <-time.After(2 * time.Second):
		t.Fatal("lesson did not stop after cancel")
	}
}

func TestStreamLogs(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	w := do(router, "POST", "/logs", `{"source":"ui","entries":[{"id":"1","level":"warn","message":"slow frame","context":{"fps":20}}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["entries_processed"])

	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/logs", `{"source":"server","entries":[{"id":"1"}]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/logs", `{"source":"ui","entries":[]}`).Code)
}
