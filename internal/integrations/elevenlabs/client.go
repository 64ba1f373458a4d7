package elevenlabs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/utils"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultVoiceID = "EXAVITQu4vr4xnSDxMaL"
	DefaultModelID = "eleven_multilingual_v2"

	// Voice settings used for every lesson
	Stability       = 0.5
	SimilarityBoost = 0.75

	provider = "elevenlabs"
)

// ErrNoAPIKey is returned by New without a key
var ErrNoAPIKey = errors.New("elevenlabs api key is not set")

// Config configures the speech client
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// errorEnvelope covers both shapes the API uses: {"detail":{"status","message"}}
// and {"detail":"message"}
type errorEnvelope struct {
	Detail any `json:"detail"`
}

// Client implements teaching.Synthesizer with the text-to-speech API
type Client struct {
	http   *httpclient.Client
	logger *logging.Logger
}

// New creates a client
func New(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	hc := httpclient.DefaultConfig(provider, cfg.BaseURL)
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}

	return &Client{
		http:   httpclient.New(hc).SetHeader("xi-api-key", key),
		logger: logging.NewNop(),
	}, nil
}

// DefaultVoice returns the default voice and model
func DefaultVoice() teaching.Voice {
	return teaching.Voice{ID: DefaultVoiceID, Model: DefaultModelID}
}

// WithMetrics adds metrics tracking to the client
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.http.WithMetrics(metrics)
	return c
}

// WithLogger sets the client logger
func (c *Client) WithLogger(l *logging.Logger) *Client {
	c.logger = l.Component(provider)
	c.http.WithLogger(l)
	return c
}

// BreakerStatus reports the upstream circuit breaker
func (c *Client) BreakerStatus() resilience.Status {
	return c.http.BreakerStatus()
}

// Synthesize converts text to speech and returns the encoded audio
func (c *Client) Synthesize(ctx context.Context, text string, voice teaching.Voice) ([]byte, error) {
	if voice.ID == "" {
		voice.ID = DefaultVoiceID
	}
	if voice.Model == "" {
		voice.Model = DefaultModelID
	}

	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Accept", "audio/mpeg").
			SetBody(speechRequest{
				Text:          text,
				ModelID:       voice.Model,
				VoiceSettings: voiceSettings{Stability: Stability, SimilarityBoost: SimilarityBoost},
			}).
			Post("/v1/text-to-speech/" + url.PathEscape(voice.ID))
	})
	if err != nil {
		return nil, toAPIError(err)
	}

	audio := resp.Body()
	if len(audio) == 0 {
		return nil, &teaching.APIError{Provider: provider, Status: resp.StatusCode(), Message: "empty audio payload"}
	}
	mtype := mimetype.Detect(audio)
	if !strings.HasPrefix(mtype.String(), "audio/") {
		return nil, &teaching.APIError{
			Provider: provider,
			Status:   resp.StatusCode(),
			Message:  fmt.Sprintf("unexpected payload type %s", mtype.String()),
		}
	}

	c.logger.Debug("Speech synthesized",
		zap.Int("text_length", len(text)),
		zap.Int("audio_bytes", len(audio)),
		zap.String("mime", mtype.String()))
	return audio, nil
}

// Verify checks the key against the user endpoint
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/v1/user")
	})
	if err != nil {
		return toAPIError(err)
	}
	return nil
}

func toAPIError(err error) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}

	apiErr := &teaching.APIError{
		Provider: provider,
		Status:   se.Status,
		Message:  fmt.Sprintf("HTTP %d", se.Status),
	}
	var env errorEnvelope
	if sonic.Unmarshal(se.Body, &env) != nil {
		if text := utils.ErrorText(se.Body); text != "" {
			apiErr.Message += ": " + text
		}
		return apiErr
	}
	switch d := env.Detail.(type) {
	case string:
		apiErr.Message = d
	case map[string]any:
		if msg, ok := d["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
		if status, ok := d["status"].(string); ok {
			apiErr.Code = status
		}
	}
	return apiErr
}
