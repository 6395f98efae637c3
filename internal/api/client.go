// Package api is the HTTP client for the Trakker REST API. It attaches the
// bearer token from the session store, refreshes it once on 401, and
// unwraps the {success, data, error} envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nhle/trakker/internal/logger"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/validation"
)

// TokenStore is where the client reads and writes the session tokens.
// session.Store is the production implementation.
type TokenStore interface {
	Load() (model.Session, error)
	Save(model.Session) error
	Clear() error
}

// Config holds connection settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
}

// Client is a thin HTTP client for the Trakker REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	limiter    *rate.Limiter
	validator  *validation.Validator
	refresher  *refresher
	log        *slog.Logger
	maxRetries int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the API rooted at cfg.BaseURL
// (e.g. http://localhost:4000/api). Call Close when done.
func NewClient(cfg Config, tokens TokenStore, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, burst),
		validator:  validation.New(),
		log:        logger.Discard(),
		maxRetries: cfg.MaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.refresher = newRefresher(tokens, c.RefreshToken, c.log)
	go c.refresher.run()

	return c
}

// OnSessionExpired registers fn to run after a failed refresh has cleared
// the session. The UI uses it to route back to the login page.
func (c *Client) OnSessionExpired(fn func()) {
	c.refresher.setOnExpired(fn)
}

// Close stops the refresh loop. Requests waiting on a refresh receive
// ErrClientClosed.
func (c *Client) Close() {
	c.refresher.stop()
}

// do sends one logical request. Authenticated requests that come back 401
// wait for a token refresh and are replayed exactly once.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	authed bool,
) (int, []byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	if !authed {
		return c.send(ctx, method, path, payload, "")
	}

	sess, err := c.tokens.Load()
	if err != nil {
		return 0, nil, fmt.Errorf("loading session: %w", err)
	}

	status, raw, err := c.send(ctx, method, path, payload, sess.AccessToken)
	if err != nil || status != http.StatusUnauthorized {
		return status, raw, err
	}

	c.log.Debug("access token rejected", "method", method, "path", path)
	token, err := c.refresher.refresh(ctx, sess.AccessToken)
	if err != nil {
		return 0, nil, err
	}

	// Replayed once; a second 401 is reported to the caller as is.
	return c.send(ctx, method, path, payload, token)
}

// send performs the HTTP exchange, waiting on the rate limiter and
// retrying with backoff on 429.
func (c *Client) send(
	ctx context.Context,
	method string,
	path string,
	payload []byte,
	token string,
) (int, []byte, error) {
	url := c.baseURL + path

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return 0, nil, fmt.Errorf("creating request: %w", err)
		}

		requestID := uuid.NewString()
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return 0, nil, fmt.Errorf("reading response body: %w", readErr)
		}

		c.log.Debug("api request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"duration", time.Since(start),
			"request_id", requestID,
		)

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			wait := retryAfterDuration(resp, attempt)
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return resp.StatusCode, respBody, nil
	}
}

// validate runs request validation before any network call.
func (c *Client) validate(req any) error {
	if err := c.validator.Validate(req); err != nil {
		return err
	}
	return nil
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
