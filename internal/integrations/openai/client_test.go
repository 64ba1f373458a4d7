package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: " sk-test\n", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{APIKey: "  "})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		assert.Equal(t, []chatMessage{
			{Role: "system", Content: "draw things"},
			{Role: "user", Content: "Explain circles"},
		}, req.Messages)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"DRAW_CIRCLE: 1,2,3 COLOR red"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	reply, err := c.Complete(context.Background(), []teaching.Message{
		{Role: teaching.RoleSystem, Content: "draw things"},
		{Role: teaching.RoleUser, Content: "Explain circles"},
	}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "DRAW_CIRCLE: 1,2,3 COLOR red", reply)
}

func TestCompleteErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   teaching.APIError
	}{
		{
			name:   "quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			want:   teaching.APIError{Provider: "openai", Status: 429, Code: "insufficient_quota", Type: "insufficient_quota", Message: "You exceeded your current quota"},
		},
		{
			name:   "invalid key",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			want:   teaching.APIError{Provider: "openai", Status: 401, Code: "invalid_api_key", Type: "invalid_request_error", Message: "Incorrect API key provided"},
		},
		{
			name:   "null code",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"bad","type":"invalid_request_error","code":null}}`,
			want:   teaching.APIError{Provider: "openai", Status: 400, Type: "invalid_request_error", Message: "bad"},
		},
		{
			name:   "not json",
			status: http.StatusForbidden,
			body:   `forbidden`,
			want:   teaching.APIError{Provider: "openai", Status: 403, Message: "HTTP 403: forbidden"},
		},
		{
			name:   "html gateway page",
			status: http.StatusForbidden,
			body:   "<!DOCTYPE html><html><body><h1>403 Forbidden</h1>\n<p>cloudflare</p></body></html>",
			want:   teaching.APIError{Provider: "openai", Status: 403, Message: "HTTP 403: 403 Forbidden cloudflare"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Complete(context.Background(), []teaching.Message{{Role: teaching.RoleUser, Content: "hi"}}, 0.7)

			var apiErr *teaching.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.want, *apiErr)
		})
	}
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Complete(context.Background(), nil, 0.7)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.MaxTokens)
		assert.Equal(t, "Hello", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi"}}]}`))
	})

	assert.NoError(t, c.Verify(context.Background()))
}
