package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/resilience"
)

// ErrUnavailable is returned while the upstream's breaker is open
var ErrUnavailable = errors.New("upstream service unavailable")

// Config describes one upstream service
type Config struct {
	Name         string // metrics label and breaker name
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second; 0 means unlimited
	UserAgent    string
}

// DefaultConfig returns a 30s timeout with three retries
func DefaultConfig(name, baseURL string) Config {
	return Config{
		Name:         name,
		BaseURL:      baseURL,
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		UserAgent:    "Whiteboard/1.0",
	}
}

// StatusError is an upstream reply with an error status. Body holds the raw
// payload so adapters can decode provider-specific error envelopes.
type StatusError struct {
	Service string
	Status  int
	Body    []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
}

// Client wraps resty with retries, rate limiting and a circuit breaker
type Client struct {
	name    string
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// New creates a client for one upstream. Retries run in the transport via
// retryablehttp; resty itself does not retry.
func New(cfg Config) *Client {
	c := &Client{
		name:   cfg.Name,
		logger: logging.NewNop(),
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = leveledLogger{c}

	c.resty = resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	c.breaker = resilience.New(cfg.Name, resilience.Settings{
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

	return c
}

// WithMetrics adds metrics tracking to the client
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// WithLogger sets the client logger
func (c *Client) WithLogger(l *logging.Logger) *Client {
	c.logger = l.Component("http").With(zap.String("service", c.name))
	return c
}

// SetHeader adds a header sent with every request
func (c *Client) SetHeader(key, value string) *Client {
	c.resty.SetHeader(key, value)
	return c
}

// SetBearerAuth sets the Authorization bearer token
func (c *Client) SetBearerAuth(token string) *Client {
	c.resty.SetAuthToken(token)
	return c
}

// BreakerStatus reports the upstream's circuit breaker
func (c *Client) BreakerStatus() resilience.Status {
	return c.breaker.Status()
}

// Do builds a request with build and sends it through the rate limiter and
// breaker. Replies with status >= 400 are returned as *StatusError along
// with the response.
func (c *Client) Do(ctx context.Context, build func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limit: %w", err)
	}

	timer := monitoring.NewTimer(c.metrics, c.name)
	resp, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) (*resty.Response, error) {
		resp, err := build(c.resty.R().SetContext(ctx))
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, &StatusError{Service: c.name, Status: resp.StatusCode(), Body: resp.Body()}
		}
		return resp, nil
	})
	elapsed := timer.Stop(monitoring.Status(err))

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, c.name, err)
	case err != nil:
		c.logger.Debug("Upstream call failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return resp, err
	}
	c.logger.Debug("Upstream call completed", zap.Int("status", resp.StatusCode()), zap.Duration("elapsed", elapsed))
	return resp, nil
}

// isSuccessful keeps caller mistakes and cancellations from tripping the breaker
func isSuccessful(err error) bool {
	if resilience.DefaultIsSuccessful(err) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status < http.StatusInternalServerError
	}
	return false
}

// checkRetry retries connection errors and 5xx replies. 429 is not retried:
// providers use it for exhausted quotas as well as throttling.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented {
		return true, nil
	}
	return false, nil
}

// leveledLogger routes retryablehttp logs to the client's current logger
type leveledLogger struct {
	c *Client
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.c.logger.Sugar().Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.c.logger.Sugar().Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.c.logger.Sugar().Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.c.logger.Sugar().Warnw(msg, kv...) }
