package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/resilience"
)

const (
	DefaultModel     = "gemini-1.5-flash"
	DefaultMaxTokens = 1000

	provider = "gemini"
)

// ErrNoAPIKey is returned by New without a key
var ErrNoAPIKey = errors.New("gemini api key is not set")

// Config configures the Gemini client
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Endpoint  string // optional API endpoint override
}

// Client implements teaching.Completer with the Gemini API. A genai client
// is opened per call; the SDK keeps no state worth sharing between lessons.
type Client struct {
	cfg     Config
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// New creates a client
func New(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	c := &Client{cfg: cfg, logger: logging.NewNop()}
	c.breaker = resilience.New(provider, resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("service", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c, nil
}

// WithMetrics adds metrics tracking to the client
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// WithLogger sets the client logger
func (c *Client) WithLogger(l *logging.Logger) *Client {
	c.logger = l.Component(provider)
	return c
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.cfg.Model
}

// BreakerStatus reports the upstream circuit breaker
func (c *Client) BreakerStatus() resilience.Status {
	return c.breaker.Status()
}

// Verify checks the key with a minimal completion
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.complete(ctx, []teaching.Message{{Role: teaching.RoleUser, Content: "Hello"}}, 0, 5)
	return err
}

// Complete sends messages as a chat and returns the reply text
func (c *Client) Complete(ctx context.Context, messages []teaching.Message, temperature float64) (string, error) {
	return c.complete(ctx, messages, temperature, c.cfg.MaxTokens)
}

func (c *Client) complete(ctx context.Context, messages []teaching.Message, temperature float64, maxTokens int) (string, error) {
	system, history, last := split(messages)
	if last == "" {
		return "", &teaching.APIError{Provider: provider, Message: "no user message to send"}
	}

	opts := []option.ClientOption{option.WithAPIKey(c.cfg.APIKey)}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}

	timer := monitoring.NewTimer(c.metrics, provider)
	resp, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		cl, err := genai.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		defer cl.Close()

		m := cl.GenerativeModel(c.cfg.Model)
		m.GenerationConfig = genai.GenerationConfig{
			Temperature:     ptrFloat32(float32(temperature)),
			MaxOutputTokens: ptrInt32(int32(maxTokens)),
		}
		if system != "" {
			m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}

		cs := m.StartChat()
		cs.History = history
		resp, err := cs.SendMessage(ctx, genai.Text(last))
		if err != nil {
			return nil, toAPIError(err)
		}
		return resp, nil
	})
	timer.Stop(monitoring.Status(err))
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "", fmt.Errorf("%s unavailable: %w", provider, err)
	case err != nil:
		return "", err
	}

	txt := firstText(resp)
	if txt == "" {
		return "", &teaching.APIError{Provider: provider, Message: "empty response"}
	}
	c.logger.Debug("Completion received", zap.String("model", c.cfg.Model), zap.Int("length", len(txt)))
	return txt, nil
}

// split folds system messages into one instruction and turns the rest into
// chat history plus the final user turn
func split(messages []teaching.Message) (system string, history []*genai.Content, last string) {
	var sys []string
	var turns []teaching.Message
	for _, m := range messages {
		if m.Role == teaching.RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	if n := len(turns); n > 0 && turns[n-1].Role == teaching.RoleUser {
		last = turns[n-1].Content
		turns = turns[:n-1]
	}
	for _, t := range turns {
		role := "user"
		if t.Role == teaching.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	return strings.Join(sys, "\n\n"), history, last
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

// reasons maps Google error reasons to the codes teaching knows
var reasons = map[string]string{
	"API_KEY_INVALID":     teaching.CodeInvalidAPIKey,
	"RATE_LIMIT_EXCEEDED": teaching.CodeRateLimitExceeded,
}

// toAPIError decodes the gRPC status or HTTP error the SDK returns
func toAPIError(err error) error {
	ae, ok := apierror.FromError(err)
	if !ok {
		return err
	}

	st := ae.GRPCStatus()
	apiErr := &teaching.APIError{
		Provider: provider,
		Status:   ae.HTTPCode(),
		Code:     ae.Reason(),
		Type:     typeOf(ae.Reason(), st.Code()),
		Message:  st.Message(),
	}
	if apiErr.Status < 0 {
		apiErr.Status = httpStatus(st.Code())
	}
	return apiErr
}

func typeOf(reason string, code codes.Code) string {
	if t, ok := reasons[reason]; ok {
		return t
	}
	switch code {
	case codes.Unauthenticated:
		return teaching.CodeInvalidAPIKey
	case codes.ResourceExhausted:
		return teaching.CodeRateLimitExceeded
	case codes.NotFound:
		return teaching.CodeModelNotFound
	}
	return ""
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// isSuccessful keeps caller mistakes and cancellations from tripping the breaker
func isSuccessful(err error) bool {
	if resilience.DefaultIsSuccessful(err) {
		return true
	}
	var apiErr *teaching.APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
