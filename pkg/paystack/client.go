package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/gymhub-backend/pkg/config"
	"github.com/angelmondragon/gymhub-backend/pkg/logger"
)

const (
	defaultBaseURL             = "https://api.paystack.co"
	defaultTimeout             = 15 * time.Second
	defaultRetryBackoff        = 200 * time.Millisecond
	responseBodyLimit    int64 = 1 << 20
)

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client wraps the gateway REST API used for plans, checkout verification,
// subscriptions and refunds.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	retryAttempts uint64
	retryBackoff  time.Duration
	logger        *logger.Logger
	observer      RequestObserver
}

// RequestObserver receives one observation per HTTP exchange.
type RequestObserver interface {
	ObserveRequest(op, outcome string, elapsed time.Duration)
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the gateway base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithRetry overrides how idempotent reads are retried.
func WithRetry(attempts uint64, backoff time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// WithObserver reports every exchange to obs, typically request metrics.
func WithObserver(obs RequestObserver) Option {
	return func(c *Client) {
		c.observer = obs
	}
}

// NewClient builds a gateway client from config.
func NewClient(cfg config.PaystackConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, errSecretKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       defaultBaseURL,
		secretKey:     key,
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  cfg.RetryBackoff,
		logger:        logg,
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.retryBackoff <= 0 {
		client.retryBackoff = defaultRetryBackoff
	}

	return client, nil
}

// SecretKey is also the webhook signing secret.
func (c *Client) SecretKey() string {
	if c == nil {
		return ""
	}
	return c.secretKey
}

// get performs an idempotent read, retrying network and 5xx failures.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewExponential(c.retryBackoff))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.do(ctx, op, http.MethodGet, path, query, nil, out)
		if perr, ok := AsError(err); ok && perr.Retryable() {
			c.log(ctx, "retry", op, map[string]any{"attempt": attempt, "kind": string(perr.Kind)})
			return retry.RetryableError(err)
		}
		return err
	})
}

// send performs a write. Writes are never retried; callers make them safe to
// replay with deterministic references instead.
func (c *Client) send(ctx context.Context, op, method, path string, body any, out any) error {
	return c.do(ctx, op, method, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	started := time.Now()
	err := c.exchange(ctx, op, method, path, query, body, out)
	if c.observer != nil {
		outcome := "ok"
		if perr, ok := AsError(err); ok {
			outcome = string(perr.Kind)
		} else if err != nil {
			outcome = "error"
		}
		c.observer.ObserveRequest(op, outcome, time.Since(started))
	}
	return err
}

func (c *Client) exchange(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindClient, Op: op, Message: "encode request", cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.buildURL(path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Error{Kind: KindClient, Op: op, Message: "build request", cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		perr := networkError(op, err)
		c.log(ctx, "error", op, map[string]any{"error": perr.Error()})
		return perr
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		perr := networkError(op, err)
		c.log(ctx, "error", op, map[string]any{"error": perr.Error()})
		return perr
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		perr := statusError(op, resp.StatusCode, env.Message)
		c.log(ctx, "error", op, map[string]any{"error": perr.Error(), "status": resp.StatusCode})
		return perr
	}
	if decodeErr != nil {
		perr := &Error{Kind: KindServer, StatusCode: resp.StatusCode, Op: op, Message: "malformed response", cause: decodeErr}
		c.log(ctx, "error", op, map[string]any{"error": perr.Error()})
		return perr
	}
	if !env.Status {
		perr := &Error{Kind: KindClient, StatusCode: resp.StatusCode, Op: op, Message: env.Message}
		c.log(ctx, "error", op, map[string]any{"error": perr.Error()})
		return perr
	}

	c.log(ctx, "response", op, map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, StatusCode: resp.StatusCode, Op: op, Message: "malformed response data", cause: err}
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("paystack %s", op), errors.New(fmt.Sprint(fields["error"])))
	case "retry":
		c.logger.Warn(ctx, fmt.Sprintf("paystack %s retry", op))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("paystack %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"authorization", "token", "secret", "email", "phone", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	if str, ok := value.(string); ok && strings.Contains(str, "@") {
		return "[REDACTED]"
	}
	return value
}
