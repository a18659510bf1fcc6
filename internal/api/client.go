// Package api is the single chokepoint for all calls to the ExoTrack
// backend. Every request goes through Client.Do: it attaches the bearer
// token, enforces the configured timeout, normalizes every failure into a
// *domain.APIError, and tears the session down on 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/exotrack/exotrack-console/internal/domain"
	"github.com/exotrack/exotrack-console/internal/infra/observability"
	"github.com/exotrack/exotrack-console/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("api")

// TokenStore is where the client reads the bearer token before every request
// and where it clears it on 401. Implemented by session.TokenFile.
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// Client wraps HTTP calls to the ExoTrack REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenStore
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger

	onUnauthorized func()
}

// NewClient creates an API client. The http.Client's Timeout is the request
// timeout (a timed-out request surfaces as a status-0 network error).
func NewClient(httpClient *http.Client, baseURL string, tokens TokenStore, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// OnUnauthorized registers the session-teardown hook fired when an
// authenticated request comes back 401. Login failures never fire it.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// SetAuthToken stores the bearer token for subsequent requests.
// Exposed so the auth flow can manage session state explicitly.
func (c *Client) SetAuthToken(token string) error {
	return c.tokens.SetToken(token)
}

// ClearAuthToken drops the stored bearer token.
func (c *Client) ClearAuthToken() error {
	return c.tokens.Clear()
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out)
}

// Put issues a PUT with a JSON body. All entity updates use PUT.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, endpoint, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Do executes one request against the backend. body (if non-nil) is JSON
// encoded; a 2xx JSON response is decoded into out (if non-nil). Every
// failure path returns a *domain.APIError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("API %s %s", method, endpoint))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.endpoint", endpoint),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.APIError{Message: err.Error(), Status: 0}
	}
	defer c.bulkhead.Release()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &domain.APIError{Message: fmt.Sprintf("encode request body: %v", err), Status: 0}
		}
	}

	start := time.Now()
	err := c.execute(ctx, method, endpoint, payload, out)
	c.metrics.RecordRequestDuration(method, time.Since(start))

	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			span.SetAttributes(attribute.Int("http.status_code", apiErr.Status))
			c.metrics.IncrAPIError(apiErr.Status)
		}
		c.metrics.IncrRequest("error")
		return err
	}

	c.metrics.IncrRequest("success")
	return nil
}

// execute runs the request, optionally retrying idempotent GETs when the
// operator opted in (MaxRetries > 0). Only transport failures and 5xx are
// retried; a 4xx is an answer, not an outage.
func (c *Client) execute(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	if method != http.MethodGet || c.cfg.MaxRetries == 0 {
		return c.attempt(ctx, method, endpoint, payload, out)
	}

	var final error
	err := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
		final = c.attempt(ctx, method, endpoint, payload, out)
		if final == nil {
			return nil
		}
		var apiErr *domain.APIError
		if errors.As(final, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return nil // definitive server answer, stop retrying
		}
		return final
	})
	if err != nil {
		return err
	}
	return final
}

// httpResult is the raw outcome of one round trip, carried out of the
// circuit breaker.
type httpResult struct {
	status      int
	body        []byte
	contentType string
}

func (c *Client) attempt(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	url := c.baseURL + endpoint

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &domain.APIError{Message: err.Error(), Status: 0}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, cbErr := c.cb.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		r := &httpResult{
			status:      resp.StatusCode,
			body:        body,
			contentType: resp.Header.Get("Content-Type"),
		}
		if resp.StatusCode >= 500 {
			// Count server errors against the breaker; pass the result
			// through so the caller still gets the decoded error body.
			return r, fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return r, nil
	})

	if cbErr != nil && res == nil {
		// No response at all: transport failure, timeout, or open breaker.
		c.logger.Error("api: request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(cbErr),
		)
		msg := cbErr.Error()
		if errors.Is(cbErr, gobreaker.ErrOpenState) || errors.Is(cbErr, gobreaker.ErrTooManyRequests) {
			msg = "service temporarily unavailable (circuit open)"
		} else if ctx.Err() != nil {
			msg = "request timed out or was cancelled"
		}
		return &domain.APIError{Message: msg, Status: 0}
	}

	result := res.(*httpResult)
	return c.handleResponse(method, endpoint, result, out)
}

func (c *Client) handleResponse(method, endpoint string, res *httpResult, out any) error {
	if res.status == http.StatusUnauthorized && !isLoginEndpoint(endpoint) {
		// Expired or invalid token: global session teardown. The login
		// endpoint is excluded so bad-credential attempts cannot log the
		// user out of an existing session.
		c.logger.Warn("api: unauthorized, clearing session",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
		)
		_ = c.tokens.Clear()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return domain.DecodeAPIError(res.status, res.body, http.StatusText(res.status))
	}

	if res.status < 200 || res.status >= 300 {
		apiErr := domain.DecodeAPIError(res.status, res.body, http.StatusText(res.status))
		c.logger.Warn("api: non-2xx response",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", res.status),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	c.logger.Debug("api: request OK",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", res.status),
	)

	if out == nil {
		return nil
	}
	if !strings.Contains(res.contentType, "application/json") || len(res.body) == 0 {
		// Non-JSON success responses carry no usable payload.
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return &domain.APIError{
			Message: fmt.Sprintf("decode response: %v", err),
			Status:  res.status,
		}
	}
	return nil
}

func isLoginEndpoint(endpoint string) bool {
	return strings.Contains(endpoint, "/auth/login")
}
