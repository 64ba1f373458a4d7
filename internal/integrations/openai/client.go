package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
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
	DefaultBaseURL   = "https://api.openai.com"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 1000

	completionsPath = "/v1/chat/completions"
	provider        = "openai"
)

// ErrNoAPIKey is returned by New without a key
var ErrNoAPIKey = errors.New("openai api key is not set")

// Config configures the chat completions client
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"` // string, number or null
	} `json:"error"`
}

// Client implements teaching.Completer with the chat completions API
type Client struct {
	http      *httpclient.Client
	model     string
	maxTokens int
	logger    *logging.Logger
}

// New creates a client. Whitespace pasted into the key is removed.
func New(cfg Config) (*Client, error) {
	key := strings.Join(strings.Fields(cfg.APIKey), "")
	if key == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	hc := httpclient.DefaultConfig(provider, cfg.BaseURL)
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}

	return &Client{
		http:      httpclient.New(hc).SetBearerAuth(key),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logging.NewNop(),
	}, nil
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

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// BreakerStatus reports the upstream circuit breaker
func (c *Client) BreakerStatus() resilience.Status {
	return c.http.BreakerStatus()
}

// Complete sends messages and returns the first choice's content
func (c *Client) Complete(ctx context.Context, messages []teaching.Message, temperature float64) (string, error) {
	return c.complete(ctx, messages, temperature, c.maxTokens)
}

// Verify checks the key with a minimal completion
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.complete(ctx, []teaching.Message{{Role: teaching.RoleUser, Content: "Hello"}}, 0, 5)
	return err
}

func (c *Client) complete(ctx context.Context, messages []teaching.Message, temperature float64, maxTokens int) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var out chatResponse
	_, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).SetResult(&out).Post(completionsPath)
	})
	if err != nil {
		return "", toAPIError(err)
	}
	if len(out.Choices) == 0 {
		return "", &teaching.APIError{Provider: provider, Message: "response contained no choices"}
	}

	c.logger.Debug("Completion received",
		zap.String("model", out.Model),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
		zap.String("finish_reason", out.Choices[0].FinishReason))

	return out.Choices[0].Message.Content, nil
}

// toAPIError decodes the provider error envelope of a failed reply
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
	if sonic.Unmarshal(se.Body, &env) != nil || env.Error.Message == "" {
		if text := utils.ErrorText(se.Body); text != "" {
			apiErr.Message += ": " + text
		}
		return apiErr
	}
	apiErr.Message = env.Error.Message
	apiErr.Type = env.Error.Type
	if env.Error.Code != nil {
		apiErr.Code = fmt.Sprint(env.Error.Code)
	}
	return apiErr
}
