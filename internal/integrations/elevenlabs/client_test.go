package elevenlabs

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

// mp3Frame is an ID3 header followed by an MPEG frame sync
var mp3Frame = append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), 0xFF, 0xFB, 0x90, 0x00)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "xi-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSynthesize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "xi-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))

		var req speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Circles are round.", req.Text)
		assert.Equal(t, "model-1", req.ModelID)
		assert.Equal(t, voiceSettings{Stability: 0.5, SimilarityBoost: 0.75}, req.VoiceSettings)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(mp3Frame)
	})

	audio, err := c.Synthesize(context.Background(), "Circles are round.", teaching.Voice{ID: "voice-1", Model: "model-1"})
	require.NoError(t, err)
	assert.Equal(t, mp3Frame, audio)
}

func TestSynthesizeDefaultsVoice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/"+DefaultVoiceID, r.URL.Path)
		var req speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModelID, req.ModelID)
		_, _ = w.Write(mp3Frame)
	})

	_, err := c.Synthesize(context.Background(), "hi", teaching.Voice{})
	assert.NoError(t, err)
}

func TestSynthesizeRejectsNonAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>maintenance</body></html>"))
	})

	_, err := c.Synthesize(context.Background(), "hi", DefaultVoice())
	var apiErr *teaching.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "text/html")
}

func TestSynthesizeErrorEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
		msg  string
	}{
		{"object detail", `{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`, "invalid_api_key", "Invalid API key"},
		{"string detail", `{"detail":"Unauthorized"}`, "", "Unauthorized"},
		{"plain text", `nope`, "", "HTTP 401: nope"},
		{"html page", "<html>\n<body><h1>Unauthorized</h1></body></html>", "", "HTTP 401: Unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Synthesize(context.Background(), "hi", DefaultVoice())

			var apiErr *teaching.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.msg, apiErr.Message)
		})
	}
}

func TestVerify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/user", r.URL.Path)
		assert.Equal(t, "xi-key", r.Header.Get("xi-api-key"))
		_, _ = w.Write([]byte(`{"subscription":{"tier":"free"}}`))
	})

	assert.NoError(t, c.Verify(context.Background()))
}
